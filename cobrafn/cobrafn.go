// Package cobrafn builds cobra commands from Go functions, using the same argument struct
// conventions as package fncli.
//
//	cmd, err := cobrafn.New(add, cobrafn.WithShort("add numbers"))
//	if err != nil {
//		return err
//	}
//	root.AddCommand(cmd)
//
// Flags get POSIX style names (--name, -n) from pflag. A function may accept a *cobra.Command to
// reach the command's streams and context.
package cobrafn

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mfridman/fncli/internal/signature"
)

var (
	commandType = reflect.TypeOf((*cobra.Command)(nil))

	_ pflag.Value = (*signature.Value)(nil)
)

// Option configures a command built by [New].
type Option func(*options)

type options struct {
	name      string
	short     string
	long      string
	onResult  func(cmd *cobra.Command, result any) error
	lookupEnv func(string) (string, bool)
}

// WithName sets the command name, which is otherwise derived from the function.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithShort sets cobra's Short description.
func WithShort(s string) Option {
	return func(o *options) { o.short = s }
}

// WithLong sets cobra's Long description.
func WithLong(s string) Option {
	return func(o *options) { o.long = s }
}

// WithResult handles the function's result value. By default a non-nil result is printed to the
// command's output.
func WithResult(fn func(cmd *cobra.Command, result any) error) Option {
	return func(o *options) { o.onResult = fn }
}

// WithEnvLookup replaces [os.LookupEnv] for env tags.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) { o.lookupEnv = lookup }
}

// New builds a cobra command from fn. See package fncli for the function shapes and the struct
// tags that are understood.
//
// The returned command holds the parsed values of a single execution; build a new one to run
// again.
func New(fn any, opts ...Option) (*cobra.Command, error) {
	o := options{
		onResult:  printResult,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(&o)
	}
	sig, err := signature.Inspect(fn, signature.WithInject(commandType))
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
	cmd := &cobra.Command{
		Use:           useLine(name, sig),
		Short:         o.short,
		Long:          o.long,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			return b.BindPositionals(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := b.ApplyEnv(o.lookupEnv); err != nil {
				return err
			}
			if missing := b.Missing(); len(missing) > 0 {
				names := make([]string, len(missing))
				for i, p := range missing {
					names[i] = p.Name
				}
				return fmt.Errorf(`required flag(s) "%s" not set`, strings.Join(names, `", "`))
			}
			result, err := b.Call(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			if o.onResult != nil {
				return o.onResult(cmd, result)
			}
			return nil
		},
	}

	for _, p := range sig.Options() {
		f := addFlag(cmd.Flags(), b.Value(p))
		if p.IsBool && !p.IsSlice {
			f.NoOptDefVal = "true"
		}
		if p.Required && p.Env == "" {
			if err := cmd.MarkFlagRequired(p.Name); err != nil {
				return nil, err
			}
		}
	}
	return cmd, nil
}

// AddCommands builds a command for each function and adds it to parent.
func AddCommands(parent *cobra.Command, fns ...any) error {
	for _, fn := range fns {
		cmd, err := New(fn)
		if err != nil {
			return err
		}
		parent.AddCommand(cmd)
	}
	return nil
}

func addFlag(fs *pflag.FlagSet, v *signature.Value) *pflag.Flag {
	p := v.Param()
	return fs.VarPF(v, p.Name, p.Short, flagHelp(p))
}

func printResult(cmd *cobra.Command, result any) error {
	if result == nil {
		return nil
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), result)
	return err
}

func useLine(name string, sig *signature.Signature) string {
	parts := []string{name}
	if len(sig.Options()) > 0 {
		parts = append(parts, "[flags]")
	}
	for _, p := range sig.Positionals() {
		n := p.Name
		if p.Placeholder != "" {
			n = p.Placeholder
		}
		switch p.Arity.String() {
		case "?":
			parts = append(parts, "["+n+"]")
		case "*":
			parts = append(parts, "["+n+"...]")
		case "+":
			parts = append(parts, n+"...")
		default:
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}

func flagHelp(p *signature.Param) string {
	help := p.Help
	if len(p.Choices) > 0 {
		help += " (one of: " + strings.Join(p.Choices, ", ") + ")"
	}
	if p.Env != "" {
		help += " [$" + p.Env + "]"
	}
	if p.Placeholder != "" {
		// pflag takes the first back-quoted word of the usage as the value name.
		help += " `" + p.Placeholder + "`"
	}
	return strings.TrimSpace(help)
}
