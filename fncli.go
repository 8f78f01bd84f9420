package fncli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mfridman/fncli/internal/signature"
)

var stateType = reflect.TypeOf((*State)(nil))

// Option configures a command built by [New].
type Option func(*options)

type options struct {
	name      string
	shortHelp string
	usage     string
	lookupEnv func(string) (string, bool)
}

// WithName sets the command name. Required for anonymous functions; otherwise the name is derived
// from the function, so congratulateEveryone becomes congratulate-everyone.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithShortHelp sets the description shown at the top of the help text.
func WithShortHelp(help string) Option {
	return func(o *options) { o.shortHelp = help }
}

// WithUsage replaces the generated usage line.
func WithUsage(usage string) Option {
	return func(o *options) { o.usage = usage }
}

// WithEnvLookup replaces [os.LookupEnv] for env tags.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) { o.lookupEnv = lookup }
}

// New builds a command from fn.
//
// fn takes at most one struct (or pointer to struct) whose exported fields are its command-line
// parameters, and may also take a [context.Context] and a *[State]. It returns nothing, an error,
// a value, or a value and an error. The value is available from [Result] or [Invoke] after the
// command runs.
//
// Fields become flags unless tagged `arg:""`, in which case they are positional arguments in
// declaration order. Field names are converted to kebab case. The supported tags are:
//
//	name:"x"         override the derived name
//	short:"x"        single-letter alias of a flag; by default the first letter of the name
//	help:"..."       help text
//	default:"..."    default value, comma separated for slices
//	enum:"a,b"       allowed values; types with a Choices() []string method get theirs implicitly
//	nargs:"?|*|+|N"  how many values a positional slice takes
//	required:""      the flag must be given
//	env:"NAME"       environment variable used when the flag is not given
//	placeholder:"X"  name of the value in help text
//	fncli:"-"        ignore the field
//
// Bool flags are switches. Slice flags may be repeated and accept comma separated values. Each
// occurrence of a slice flag takes exactly one value, so in "a b --ys 1 2" the 2 is a positional
// argument rather than a second value of --ys; write "--ys 1,2" or "--ys 1 --ys 2". Pointer fields
// are left nil unless given.
func New(fn any, opts ...Option) (*Command, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	sig, err := signature.Inspect(fn, signature.WithInject(stateType))
	if err != nil {
		return nil, fmt.Errorf("failed to build command: %w", err)
	}
	name := o.name
	if name == "" {
		name = sig.Name
	}
	if name == "" {
		return nil, errors.New("failed to build command: cannot derive a name from an anonymous function, use WithName")
	}

	b := sig.NewBinding()
	cmd := &Command{
		Name:      name,
		ShortHelp: o.shortHelp,
		Usage:     o.usage,
		Flags:     flag.NewFlagSet(name, flag.ContinueOnError),
		binding:   b,
		lookupEnv: o.lookupEnv,
	}
	for _, p := range sig.Options() {
		cmd.Flags.Var(b.Value(p), p.Name, optionHelp(p))
		cmd.FlagsMetadata = append(cmd.FlagsMetadata, FlagMetadata{
			Name:        p.Name,
			Short:       p.Short,
			Required:    p.Required,
			Env:         p.Env,
			Placeholder: p.Placeholder,
		})
	}
	for _, p := range sig.Positionals() {
		cmd.ArgsMetadata = append(cmd.ArgsMetadata, ArgMetadata{
			Name:        p.Name,
			Help:        positionalHelp(p),
			Placeholder: positionalPlaceholder(p),
		})
	}
	cmd.Exec = func(ctx context.Context, s *State) error {
		result, err := b.Call(ctx, s)
		s.Result = result
		return err
	}
	return cmd, nil
}

// Funcs builds a command named name with one subcommand per function. Each element of fns is a
// function, named as in [New], or a *[Command] built beforehand.
func Funcs(name string, fns ...any) (*Command, error) {
	root := &Command{Name: name}
	seen := make(map[string]bool)
	for _, fn := range fns {
		sub, ok := fn.(*Command)
		if !ok {
			var err error
			if sub, err = New(fn); err != nil {
				return nil, err
			}
		}
		if seen[sub.Name] {
			return nil, fmt.Errorf("duplicate command name %q", sub.Name)
		}
		seen[sub.Name] = true
		root.SubCommands = append(root.SubCommands, sub)
	}
	return root, nil
}

// Invoke builds a command from target, parses args, runs it and returns the function's result.
//
// target is a function, a []any of functions (each becomes a subcommand, see [Funcs]), or a
// *[Command]. Anonymous functions are named after the program.
func Invoke(ctx context.Context, target any, args []string, options *RunOptions) (any, error) {
	root, err := toCommand(target)
	if err != nil {
		return nil, err
	}
	if err := ParseAndRun(ctx, root, args, options); err != nil {
		return nil, err
	}
	return Result(root), nil
}

func toCommand(target any) (*Command, error) {
	switch t := target.(type) {
	case *Command:
		return t, nil
	case []any:
		return Funcs(programName(), t...)
	}
	var opts []Option
	if signature.FuncName(target) == "" {
		opts = append(opts, WithName(programName()))
	}
	return New(target, opts...)
}

func programName() string {
	name := filepath.Base(os.Args[0])
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || strings.Contains(name, " ") {
		return "command"
	}
	return name
}

// Main runs target against the process arguments and exits. A non-nil result is printed to
// standard output. Help exits 0, invalid arguments exit 2 and any other error exits 1.
func Main(target any) {
	result, err := Invoke(context.Background(), target, os.Args[1:], nil)
	os.Exit(report(result, err, os.Stdout, os.Stderr))
}

func report(result any, err error, stdout, stderr io.Writer) int {
	switch {
	case err == nil:
		if result != nil {
			fmt.Fprintln(stdout, result)
		}
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case IsInvalidArgs(err):
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprintln(stderr, "Run with --help for usage.")
		return 2
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
}

func optionHelp(p *signature.Param) string {
	help := p.Help
	if len(p.Choices) > 0 {
		help += " (one of: " + strings.Join(p.Choices, ", ") + ")"
	}
	return strings.TrimSpace(help)
}

func positionalHelp(p *signature.Param) string {
	help := optionHelp(p)
	if p.HasDefault {
		help += fmt.Sprintf(" (default: %s)", p.Default)
	}
	return strings.TrimSpace(help)
}

func positionalPlaceholder(p *signature.Param) string {
	name := p.Name
	if p.Placeholder != "" {
		name = p.Placeholder
	}
	switch p.Arity.String() {
	case "?":
		return "[" + name + "]"
	case "*":
		return "[" + name + "...]"
	case "+":
		return "<" + name + "...>"
	}
	return strings.TrimSpace(strings.Repeat("<"+name+"> ", p.Arity.Min))
}
