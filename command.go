package fncli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mfridman/fncli/internal/signature"
	"github.com/mfridman/fncli/pkg/suggest"
)

// NoExecError is returned when a command has no execution function.
type NoExecError struct {
	Command *Command
}

func (e *NoExecError) Error() string {
	path := e.Command.Name
	if e.Command.state != nil {
		path = getCommandPath(e.Command.state.commandPath)
	}
	return fmt.Sprintf("command %q has no execution function", path)
}

// Command represents a CLI command or subcommand within the application's command hierarchy.
//
// Commands are usually built from a function with [New] or [Funcs], but can also be declared by
// hand, in which case Flags and Exec are filled in directly.
type Command struct {
	// Name is always a single word representing the command's name. It is used to identify the
	// command in the command hierarchy and in help text.
	Name string

	// Usage provides the command's full usage pattern.
	//
	// Example: "congrat [flags] <reason> [language]"
	Usage string

	// ShortHelp is a brief description of the command's purpose. It is displayed in the help text
	// when the command is shown.
	ShortHelp string

	// UsageFunc is an optional function that can be used to generate a custom usage string for the
	// command. It receives the current command and should return a string with the full usage
	// pattern.
	UsageFunc func(*Command) string

	// Flags holds the command-specific flag definitions. Each command maintains its own flag set
	// for parsing arguments.
	Flags *flag.FlagSet
	// FlagsMetadata is an optional list of flag information to extend the FlagSet with additional
	// metadata: short aliases, required flags and environment fallbacks.
	FlagsMetadata []FlagMetadata
	// ArgsMetadata describes the positional arguments for help text.
	ArgsMetadata []ArgMetadata

	// SubCommands is a list of nested commands that exist under this command.
	SubCommands []*Command

	// Exec defines the command's execution logic. It receives the current application [State] and
	// returns an error if execution fails. This function is called when [Run] is invoked on the
	// command.
	Exec func(ctx context.Context, s *State) error

	state    *State
	selected *Command

	// Set for commands built from a function.
	binding   *signature.Binding
	lookupEnv func(string) (string, bool)
}

func (c *Command) terminal() (*Command, *State) {
	if c.state == nil || len(c.state.commandPath) == 0 {
		return c, c.state
	}
	// The last command in the path is the one that runs.
	return c.state.commandPath[len(c.state.commandPath)-1], c.state
}

// FlagMetadata holds additional metadata for a flag.
type FlagMetadata struct {
	// Name is the flag's name. Must match the flag name in the flag set.
	Name string

	// Short is an optional single-letter alias accepted in place of Name.
	Short string

	// Required indicates whether the flag is required.
	Required bool

	// Env names an environment variable that provides the value when the flag is not given. A
	// required flag is satisfied by a non-empty Env.
	Env string

	// Placeholder names the flag's value in help text, e.g. FILE.
	Placeholder string
}

// ArgMetadata describes a positional argument.
type ArgMetadata struct {
	// Name is the argument's name.
	Name string

	// Help is a short description shown in the Arguments section of the help text.
	Help string

	// Placeholder is how the argument appears in the usage line, e.g. "<reason>" or "[names...]".
	// Defaults to "<Name>".
	Placeholder string
}

// FlagsFunc is a helper function that creates a new [flag.FlagSet] and applies the given function
// to it. Intended for use in command definitions to simplify flag setup. Example usage:
//
//	cmd.Flags = fncli.FlagsFunc(func(f *flag.FlagSet) {
//	    f.Bool("verbose", false, "enable verbose output")
//	    f.String("output", "", "output file")
//	    f.Int("count", 0, "number of items")
//	})
func FlagsFunc(fn func(*flag.FlagSet)) *flag.FlagSet {
	fset := flag.NewFlagSet("", flag.ContinueOnError)
	fn(fset)
	return fset
}

// findSubCommand searches for a subcommand by name and returns it if found. Returns nil if no
// subcommand with the given name exists.
func (c *Command) findSubCommand(name string) *Command {
	for _, sub := range c.SubCommands {
		if strings.EqualFold(sub.Name, name) {
			return sub
		}
	}
	return nil
}

func (c *Command) formatUnknownCommandError(unknownCmd string) error {
	var known []string
	for _, sub := range c.SubCommands {
		known = append(known, sub.Name)
	}
	suggestions := suggest.FindSimilar(unknownCmd, known, 3)
	if len(suggestions) > 0 {
		return NewError(ErrInvalidArgs, fmt.Errorf("unknown command %q. Did you mean one of these?\n\t%s",
			unknownCmd,
			strings.Join(suggestions, "\n\t")))
	}
	return NewError(ErrInvalidArgs, fmt.Errorf("unknown command %q", unknownCmd))
}

func (c *Command) metadata(name string) (FlagMetadata, bool) {
	for _, m := range c.FlagsMetadata {
		if m.Name == name {
			return m, true
		}
	}
	return FlagMetadata{}, false
}

func (c *Command) envLookup() func(string) (string, bool) {
	if c.lookupEnv != nil {
		return c.lookupEnv
	}
	return os.LookupEnv
}

func (c *Command) output() io.Writer {
	if c.state != nil && c.state.Stderr != nil {
		return c.state.Stderr
	}
	if c.Flags != nil {
		return c.Flags.Output()
	}
	return os.Stderr
}

// showHelp writes the usage of the command to its output and returns [flag.ErrHelp].
func (c *Command) showHelp() error {
	fmt.Fprintln(c.output(), DefaultUsage(c))
	return flag.ErrHelp
}

func getCommandPath(commands []*Command) string {
	var commandPath []string
	for _, c := range commands {
		commandPath = append(commandPath, c.Name)
	}
	return strings.Join(commandPath, " ")
}
