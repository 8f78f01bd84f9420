package signature

import (
	"encoding"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mfridman/fncli/pkg/textutil"
)

// Kind tells whether a parameter is a flag or a positional argument.
type Kind int

const (
	Option Kind = iota
	Positional
)

// Unbounded is the Arity.Max of a parameter that accepts any number of values.
const Unbounded = -1

// Arity is the number of command-line values a positional parameter consumes.
type Arity struct {
	Min, Max int
}

func parseArity(s string) (Arity, error) {
	switch s {
	case "?":
		return Arity{0, 1}, nil
	case "*":
		return Arity{0, Unbounded}, nil
	case "+":
		return Arity{1, Unbounded}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return Arity{}, fmt.Errorf("invalid nargs %q: want ?, *, + or a positive count", s)
	}
	return Arity{n, n}, nil
}

// String returns the nargs spelling of a: ?, *, + or the exact count.
func (a Arity) String() string {
	switch {
	case a.Min == 0 && a.Max == 1:
		return "?"
	case a.Min == 0 && a.Max == Unbounded:
		return "*"
	case a.Min == 1 && a.Max == Unbounded:
		return "+"
	}
	return strconv.Itoa(a.Min)
}

// Param is one command-line parameter derived from a struct field.
type Param struct {
	// Name is the long flag name or the positional's display name.
	Name string
	// Short is the single-letter alias of an option, if any.
	Short       string
	Help        string
	Kind        Kind
	Arity       Arity
	Choices     []string
	Default     string
	HasDefault  bool
	Env         string
	Required    bool
	Placeholder string

	// Field is the reflect index path of the field inside the argument struct.
	Field []int
	// Type is the declared field type. Elem is the scalar type values are parsed into: the slice
	// element and/or pointer target of Type.
	Type, Elem reflect.Type
	IsBool     bool
	IsSlice    bool
	IsPointer  bool
}

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	durationType        = reflect.TypeOf(time.Duration(0))
	choicerType         = reflect.TypeOf((*interface{ Choices() []string })(nil)).Elem()
)

func collectParams(t reflect.Type) ([]*Param, error) {
	var params []*Param
	if err := walkStruct(t, nil, &params); err != nil {
		return nil, err
	}
	if err := assignShorts(params); err != nil {
		return nil, err
	}
	if err := checkPositionals(params); err != nil {
		return nil, err
	}
	return params, nil
}

func walkStruct(t reflect.Type, index []int, params *[]*Param) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Tag.Get("fncli") == "-" {
			continue
		}
		path := append(append([]int(nil), index...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if err := walkStruct(f.Type, path, params); err != nil {
				return err
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		p, err := newParam(f, path)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		*params = append(*params, p)
	}
	return nil
}

func newParam(f reflect.StructField, path []int) (*Param, error) {
	p := &Param{
		Name:        textutil.Kebab(f.Name),
		Help:        f.Tag.Get("help"),
		Env:         f.Tag.Get("env"),
		Placeholder: f.Tag.Get("placeholder"),
		Field:       path,
		Type:        f.Type,
		Kind:        Option,
	}
	if name, ok := f.Tag.Lookup("name"); ok && name != "" {
		if strings.HasPrefix(name, "-") || strings.ContainsAny(name, "= \t") {
			return nil, fmt.Errorf("invalid name %q", name)
		}
		p.Name = name
	}
	if _, ok := f.Tag.Lookup("arg"); ok {
		p.Kind = Positional
	}
	_, p.Required = f.Tag.Lookup("required")

	elem := f.Type
	if elem.Kind() == reflect.Slice && !isScalar(elem) {
		p.IsSlice = true
		elem = elem.Elem()
	}
	if elem.Kind() == reflect.Pointer && !isScalar(elem) {
		p.IsPointer = true
		elem = elem.Elem()
	}
	if !isScalar(elem) {
		return nil, fmt.Errorf("unsupported type %s", f.Type)
	}
	p.Elem = elem
	p.IsBool = elem.Kind() == reflect.Bool && !implementsText(elem)

	if enum := f.Tag.Get("enum"); enum != "" {
		for _, c := range strings.Split(enum, ",") {
			p.Choices = append(p.Choices, strings.TrimSpace(c))
		}
	} else if elem.Implements(choicerType) {
		p.Choices = reflect.Zero(elem).Interface().(interface{ Choices() []string }).Choices()
	}

	if short, ok := f.Tag.Lookup("short"); ok {
		if p.Kind == Positional {
			return nil, fmt.Errorf("positional %q cannot have a short name", p.Name)
		}
		if len(short) != 1 || short == "-" || short == "=" {
			return nil, fmt.Errorf("short name %q must be a single ASCII character", short)
		}
		p.Short = short
	}

	if def, ok := f.Tag.Lookup("default"); ok {
		p.Default = def
		p.HasDefault = true
		if err := validateDefault(p); err != nil {
			return nil, err
		}
	}

	nargs, hasNargs := f.Tag.Lookup("nargs")
	switch p.Kind {
	case Option:
		if hasNargs {
			return nil, fmt.Errorf("nargs is only supported on positional arguments; repeat the flag instead")
		}
	case Positional:
		if p.Required {
			return nil, fmt.Errorf("positional %q: use nargs to control whether it is required", p.Name)
		}
		if p.Env != "" {
			return nil, fmt.Errorf("positional %q cannot be read from the environment", p.Name)
		}
		switch {
		case hasNargs:
			a, err := parseArity(nargs)
			if err != nil {
				return nil, err
			}
			if !p.IsSlice && a.Max != 1 {
				return nil, fmt.Errorf("nargs %q requires a slice field", nargs)
			}
			p.Arity = a
		case p.IsSlice:
			p.Arity = Arity{0, Unbounded}
		case p.HasDefault || p.IsPointer:
			p.Arity = Arity{0, 1}
		default:
			p.Arity = Arity{1, 1}
		}
	}
	return p, nil
}

func validateDefault(p *Param) error {
	values := []string{p.Default}
	if p.IsSlice {
		values = splitList(p.Default)
	}
	for _, s := range values {
		if len(p.Choices) > 0 && !slices.Contains(p.Choices, s) {
			return fmt.Errorf("default %q is not one of %s", s, quoteList(p.Choices))
		}
		if _, err := parseScalar(p.Elem, s); err != nil {
			return fmt.Errorf("invalid default %q: %w", s, err)
		}
	}
	return nil
}

// assignShorts checks for duplicate names and gives each option without an explicit short name the
// first letter of its name, unless that letter is taken or is the help flag. The names h and help
// belong to the help flag and are rejected for options.
func assignShorts(params []*Param) error {
	names := make(map[string]bool)
	taken := map[string]bool{"h": true}
	for _, p := range params {
		if names[p.Name] {
			return fmt.Errorf("duplicate parameter name %q", p.Name)
		}
		names[p.Name] = true
		if p.Kind == Option && (p.Name == "h" || p.Name == "help") {
			return fmt.Errorf("option name %q is reserved for help", p.Name)
		}
		if p.Short == "" {
			continue
		}
		if p.Short == "h" {
			return fmt.Errorf("short name \"h\" of %q is reserved for help", p.Name)
		}
		if taken[p.Short] {
			return fmt.Errorf("duplicate short name %q for %q", p.Short, p.Name)
		}
		taken[p.Short] = true
	}
	for _, p := range params {
		if p.Kind != Option || p.Short != "" || len(p.Name) < 2 {
			continue
		}
		short := p.Name[:1]
		if c := short[0]; !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') || taken[short] || names[short] {
			continue
		}
		taken[short] = true
		p.Short = short
	}
	for _, p := range params {
		if p.Kind == Option && p.Short != "" && names[p.Short] && p.Name != p.Short {
			return fmt.Errorf("short name %q of %q collides with option %q", p.Short, p.Name, p.Short)
		}
	}
	return nil
}

// checkPositionals rejects layouts where the split between positionals would be ambiguous.
func checkPositionals(params []*Param) error {
	var unbounded string
	for _, p := range params {
		if p.Kind != Positional {
			continue
		}
		if p.Arity.Max == Unbounded {
			if unbounded != "" {
				return fmt.Errorf("positionals %q and %q both accept any number of values", unbounded, p.Name)
			}
			unbounded = p.Name
		}
	}
	return nil
}

func isScalar(t reflect.Type) bool {
	if implementsText(t) || t == durationType {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func implementsText(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(textUnmarshalerType)
}
