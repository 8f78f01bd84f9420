package signature

import (
	"encoding"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// parseScalar converts s into a new value of type t.
func parseScalar(t reflect.Type, s string) (reflect.Value, error) {
	v := reflect.New(t)
	if u, ok := v.Interface().(encoding.TextUnmarshaler); ok {
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, err
		}
		return v.Elem(), nil
	}
	v = v.Elem()
	if t == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(int64(d))
		return v, nil
	}
	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, numError(err)
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, numError(err)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, numError(err)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return reflect.Value{}, numError(err)
		}
		v.SetFloat(n)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported type %s", t)
	}
	return v, nil
}

// numError strips the strconv function prefix so messages read "invalid syntax" rather than
// `strconv.ParseInt: parsing "x": invalid syntax`.
func numError(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}

func formatScalar(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if m, ok := v.Interface().(encoding.TextMarshaler); ok {
		b, err := m.MarshalText()
		if err == nil {
			return string(b)
		}
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v.Interface())
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Value binds one parameter to its field in a [Binding]. It implements flag.Value, flag.Getter and
// pflag.Value.
type Value struct {
	p *Param
	b *Binding
}

func (v *Value) field() reflect.Value {
	return v.b.target.FieldByIndex(v.p.Field)
}

// String returns the current value. The flag packages call String on zero values, so a nil or
// unbound Value yields "".
func (v *Value) String() string {
	if v == nil || v.p == nil || v.b == nil || !v.b.target.IsValid() {
		return ""
	}
	f := v.field()
	if v.p.IsPointer && !v.p.IsSlice {
		if f.IsNil() {
			return ""
		}
		return formatScalar(f.Elem())
	}
	if v.p.IsSlice {
		parts := make([]string, 0, f.Len())
		for i := 0; i < f.Len(); i++ {
			e := f.Index(i)
			if v.p.IsPointer {
				if e.IsNil() {
					continue
				}
				e = e.Elem()
			}
			parts = append(parts, formatScalar(e))
		}
		return strings.Join(parts, ",")
	}
	return formatScalar(f)
}

// Set parses s into the field. Options split s on commas when the field is a slice; the first Set
// on a slice replaces its default.
func (v *Value) Set(s string) error {
	values := []string{s}
	if v.p.IsSlice && v.p.Kind == Option {
		values = splitList(s)
	}
	for _, raw := range values {
		if err := v.set(raw); err != nil {
			return err
		}
	}
	v.b.seen[v.p] = true
	return nil
}

func (v *Value) set(raw string) error {
	if len(v.p.Choices) > 0 && !slices.Contains(v.p.Choices, raw) {
		return &ArgError{
			Param: v.p,
			Err:   fmt.Errorf("invalid choice %q (choose from %s)", raw, quoteList(v.p.Choices)),
		}
	}
	parsed, err := parseScalar(v.p.Elem, raw)
	if err != nil {
		return &ArgError{
			Param: v.p,
			Err:   fmt.Errorf("invalid %s value %q: %w", typeName(v.p.Elem), raw, err),
		}
	}
	v.b.store(v.p, parsed)
	return nil
}

// Get returns the field value, satisfying flag.Getter.
func (v *Value) Get() any {
	return v.field().Interface()
}

// Type names the value type for pflag usage output.
func (v *Value) Type() string {
	if v == nil || v.p == nil {
		return ""
	}
	name := typeName(v.p.Elem)
	if v.p.IsSlice {
		name += "Slice"
	}
	return name
}

// IsBoolFlag lets the flag packages accept -name without a value.
func (v *Value) IsBoolFlag() bool {
	return v != nil && v.p != nil && v.p.IsBool && !v.p.IsSlice
}

// Param returns the parameter this value is bound to.
func (v *Value) Param() *Param {
	return v.p
}

func typeName(t reflect.Type) string {
	switch {
	case t == durationType:
		return "duration"
	case t.Name() == "":
		return t.String()
	case t.PkgPath() == "":
		return t.Name()
	}
	if implementsText(t) {
		return strings.ToLower(t.Name())
	}
	return t.Kind().String()
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return strings.Join(quoted, ", ")
}
