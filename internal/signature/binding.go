package signature

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Binding holds the values for one invocation of a [Signature].
type Binding struct {
	sig    *Signature
	target reflect.Value
	seen   map[*Param]bool
	values map[*Param]*Value
	// defaulted holds slice params whose contents came from a default and are replaced by the
	// next value stored.
	defaulted map[*Param]bool
}

// NewBinding returns a binding with every default applied.
func (s *Signature) NewBinding() *Binding {
	b := &Binding{
		sig:    s,
		values: make(map[*Param]*Value, len(s.Params)),
	}
	b.Reset()
	return b
}

// Reset discards parsed values and applies defaults again. Values handed out by [Binding.Value]
// stay valid.
func (b *Binding) Reset() {
	b.seen = make(map[*Param]bool)
	b.defaulted = make(map[*Param]bool)
	if b.sig.argType == nil {
		b.target = reflect.Value{}
		return
	}
	b.target = reflect.New(b.sig.argType).Elem()
	for _, p := range b.sig.Params {
		if !p.HasDefault {
			continue
		}
		// Validated by Inspect.
		_ = b.assign(p, p.Default)
	}
	// assign marks params as seen; defaults do not count.
	b.seen = make(map[*Param]bool)
	for _, p := range b.sig.Params {
		if p.IsSlice {
			b.defaulted[p] = true
		}
	}
}

// Value returns the flag value bound to p.
func (b *Binding) Value(p *Param) *Value {
	v, ok := b.values[p]
	if !ok {
		v = &Value{p: p, b: b}
		b.values[p] = v
	}
	return v
}

// Seen reports whether p received a value from the command line or the environment.
func (b *Binding) Seen(p *Param) bool {
	return b.seen[p]
}

// Args returns a copy of the argument struct as it currently stands, or nil when the function
// takes no argument struct.
func (b *Binding) Args() any {
	if !b.target.IsValid() {
		return nil
	}
	return b.target.Interface()
}

func (b *Binding) assign(p *Param, s string) error {
	v := b.Value(p)
	if p.IsSlice {
		// A default or env value for a slice is a single comma separated list.
		for _, item := range splitList(s) {
			if err := v.set(item); err != nil {
				return err
			}
		}
		b.seen[p] = true
		return nil
	}
	return v.Set(s)
}

// store writes a parsed scalar into the field of p.
func (b *Binding) store(p *Param, parsed reflect.Value) {
	f := b.target.FieldByIndex(p.Field)
	if p.IsPointer {
		ptr := reflect.New(p.Elem)
		ptr.Elem().Set(parsed)
		parsed = ptr
	}
	if !p.IsSlice {
		f.Set(parsed)
		return
	}
	if b.defaulted[p] {
		f.Set(reflect.MakeSlice(f.Type(), 0, 1))
		delete(b.defaulted, p)
	}
	f.Set(reflect.Append(f, parsed))
}

// BindPositionals distributes args over the positional parameters. Each positional takes as many
// tokens as its arity allows while leaving enough for the minimum of the ones after it.
func (b *Binding) BindPositionals(args []string) error {
	ps := b.sig.Positionals()
	need := 0
	for _, p := range ps {
		need += p.Arity.Min
	}
	if len(args) < need {
		var missing []string
		avail := len(args)
		for _, p := range ps {
			if avail >= p.Arity.Min {
				avail -= p.Arity.Min
				continue
			}
			avail = 0
			missing = append(missing, p.Name)
		}
		return &ArgError{Err: fmt.Errorf("the following arguments are required: %s", strings.Join(missing, ", "))}
	}
	pos := 0
	for _, p := range ps {
		need -= p.Arity.Min
		take := len(args) - pos - need
		if p.Arity.Max != Unbounded && take > p.Arity.Max {
			take = p.Arity.Max
		}
		v := b.Value(p)
		for _, tok := range args[pos : pos+take] {
			if err := v.Set(tok); err != nil {
				return err
			}
		}
		pos += take
	}
	if pos < len(args) {
		return &ArgError{Err: fmt.Errorf("unrecognized arguments: %s", strings.Join(args[pos:], " "))}
	}
	return nil
}

// ApplyEnv fills every parameter that has an env tag and was not set on the command line from
// lookup, typically os.LookupEnv.
func (b *Binding) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	for _, p := range b.sig.Params {
		if p.Env == "" || b.seen[p] {
			continue
		}
		s, ok := lookup(p.Env)
		if !ok || s == "" {
			continue
		}
		if err := b.assign(p, s); err != nil {
			return fmt.Errorf("environment variable %s: %w", p.Env, err)
		}
	}
	return nil
}

// Missing returns the required options that have not been set.
func (b *Binding) Missing() []*Param {
	var out []*Param
	for _, p := range b.sig.Params {
		if p.Required && !b.seen[p] {
			out = append(out, p)
		}
	}
	return out
}

// Call invokes the function with the bound arguments. injected supplies values for the types
// registered with [WithInject]; a missing one is passed as its zero value.
func (b *Binding) Call(ctx context.Context, injected ...any) (any, error) {
	s := b.sig
	t := s.fn.Type()
	in := make([]reflect.Value, t.NumIn())
	for i := range in {
		in[i] = reflect.Zero(t.In(i))
	}
	if s.ctxIndex >= 0 {
		if ctx == nil {
			ctx = context.Background()
		}
		in[s.ctxIndex] = reflect.ValueOf(ctx)
	}
	for _, v := range injected {
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if i, ok := s.inject[rv.Type()]; ok {
			in[i] = rv
		}
	}
	if s.argIndex >= 0 {
		arg := reflect.New(s.argType)
		arg.Elem().Set(b.target)
		if s.argPtr {
			in[s.argIndex] = arg
		} else {
			in[s.argIndex] = arg.Elem()
		}
	}

	out := s.fn.Call(in)
	var (
		result any
		err    error
	)
	if s.returnsValue {
		result = out[0].Interface()
	}
	if s.returnsError {
		if e := out[len(out)-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
	}
	return result, err
}
