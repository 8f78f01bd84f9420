// Package signature translates a Go function into a description of its command-line parameters
// and binds parsed command-line values back into a call to that function.
//
// A function exposes its CLI parameters through a single struct (or pointer to struct) argument.
// Each exported field becomes a flag or a positional argument, and the field tags carry the
// annotations: help text, defaults, choices, multiplicity and so on. Alongside the struct, a
// function may accept a context.Context and any of the injectable types registered with
// [WithInject].
package signature

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/mfridman/fncli/pkg/textutil"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Signature is the CLI description of a function.
type Signature struct {
	// Name is derived from the function symbol, in kebab case. Empty for anonymous functions.
	Name string
	// Params holds the options and positionals in struct declaration order.
	Params []*Param

	fn       reflect.Value
	ctxIndex int
	argIndex int
	argType  reflect.Type // struct type, never a pointer
	argPtr   bool
	inject   map[reflect.Type]int

	returnsValue bool
	returnsError bool
}

// InspectOption configures [Inspect].
type InspectOption func(*inspectConfig)

type inspectConfig struct {
	inject []reflect.Type
}

// WithInject allows the function to accept a parameter of type t. The caller supplies the value at
// [Binding.Call] time.
func WithInject(t reflect.Type) InspectOption {
	return func(c *inspectConfig) {
		c.inject = append(c.inject, t)
	}
}

// Inspect validates fn and translates its argument struct into parameters.
func Inspect(fn any, opts ...InspectOption) (*Signature, error) {
	if fn == nil {
		return nil, errors.New("function is nil")
	}
	var cfg inspectConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %T", fn)
	}
	if v.IsNil() {
		return nil, errors.New("function is nil")
	}
	if t.IsVariadic() {
		return nil, fmt.Errorf("variadic function %s is not supported", t)
	}

	sig := &Signature{
		Name:     FuncName(fn),
		fn:       v,
		ctxIndex: -1,
		argIndex: -1,
		inject:   make(map[reflect.Type]int),
	}
	for i := 0; i < t.NumIn(); i++ {
		in := t.In(i)
		switch {
		case in == contextType:
			if sig.ctxIndex >= 0 {
				return nil, fmt.Errorf("function %s accepts more than one context.Context", t)
			}
			sig.ctxIndex = i
		case injectable(cfg.inject, in):
			if _, ok := sig.inject[in]; ok {
				return nil, fmt.Errorf("function %s accepts more than one %s", t, in)
			}
			sig.inject[in] = i
		case in.Kind() == reflect.Struct || (in.Kind() == reflect.Pointer && in.Elem().Kind() == reflect.Struct):
			if sig.argIndex >= 0 {
				return nil, fmt.Errorf("function %s accepts more than one argument struct", t)
			}
			sig.argIndex = i
			sig.argPtr = in.Kind() == reflect.Pointer
			if sig.argPtr {
				in = in.Elem()
			}
			sig.argType = in
		default:
			return nil, fmt.Errorf("function %s: unsupported parameter type %s", t, in)
		}
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			sig.returnsError = true
		} else {
			sig.returnsValue = true
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, fmt.Errorf("function %s: second result must be error", t)
		}
		sig.returnsValue = true
		sig.returnsError = true
	default:
		return nil, fmt.Errorf("function %s: too many results", t)
	}

	if sig.argType != nil {
		params, err := collectParams(sig.argType)
		if err != nil {
			return nil, err
		}
		sig.Params = params
	}
	return sig, nil
}

func injectable(types []reflect.Type, t reflect.Type) bool {
	for _, it := range types {
		if it == t {
			return true
		}
	}
	return false
}

// Options returns the parameters that are flags.
func (s *Signature) Options() []*Param {
	return s.filter(Option)
}

// Positionals returns the positional parameters in order.
func (s *Signature) Positionals() []*Param {
	return s.filter(Positional)
}

func (s *Signature) filter(k Kind) []*Param {
	var out []*Param
	for _, p := range s.Params {
		if p.Kind == k {
			out = append(out, p)
		}
	}
	return out
}

// FuncName returns the kebab-case name of the function's symbol, or an empty string when fn is a
// closure or not a function.
//
//	main.congratulateEveryone      -> congratulate-everyone
//	example.com/pkg.(*Server).Run-fm -> run
//	main.main.func1                 -> ""
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return ""
	}
	name := strings.TrimSuffix(rf.Name(), "-fm")
	// Generic instantiations are reported as pkg.Fn[...]
	name = strings.TrimSuffix(name, "[...]")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if isClosureName(name) {
		return ""
	}
	return textutil.Kebab(name)
}

func isClosureName(s string) bool {
	s = strings.TrimPrefix(s, "func")
	if s == "" {
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
