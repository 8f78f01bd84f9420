package fncli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/mfridman/xflag"
)

// Parse traverses the command hierarchy and parses arguments. It returns an error if parsing fails
// at any point.
//
// This function is the main entry point for parsing command-line arguments and should be called
// with the root command and the arguments to parse, typically os.Args[1:]. Once parsing is
// complete, the root command is ready to be executed with the [Run] function.
//
// For commands built from a function, Parse also converts every flag and positional argument into
// the function's argument struct, so conversion and validation errors are reported here rather
// than by [Run]. Such errors satisfy [IsInvalidArgs].
func Parse(root *Command, args []string) error {
	if root == nil {
		return fmt.Errorf("failed to parse: root command is nil")
	}
	if err := validateCommands(root, nil); err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}

	// Each parse starts from a clean slate so a command tree can be parsed more than once.
	state := &State{}
	root.selected = nil
	root.prepare(state)

	// First split args at the -- delimiter if present
	argsToParse := args
	var remainingArgs []string
	for i, arg := range args {
		if arg == "--" {
			argsToParse = args[:i]
			remainingArgs = args[i+1:]
			break
		}
	}

	current := root
	commandChain := []*Command{root}
	state.commandPath = commandChain

	// First pass: walk down to the selected subcommand. This lets us capture help requests before
	// any flag parsing errors.
	for i := 0; i < len(argsToParse); i++ {
		arg := argsToParse[i]
		if arg == "-h" || arg == "--h" || arg == "-help" || arg == "--help" {
			return current.showHelp()
		}

		if strings.HasPrefix(arg, "-") && arg != "-" {
			// Skip the value of a flag given as "-name value" so it is not taken for a command.
			if takesValue(commandChain, arg) {
				i++
			}
			continue
		}

		if len(current.SubCommands) > 0 {
			if sub := current.findSubCommand(arg); sub != nil {
				sub.prepare(state)
				current = sub
				commandChain = append(commandChain, sub)
				state.commandPath = commandChain
				continue
			}
			return current.formatUnknownCommandError(arg)
		}
		break
	}

	if current != root && current.Exec == nil && len(current.SubCommands) == 0 {
		return &NoExecError{Command: current}
	}

	root.selected = current

	// Create combined flags with all parent flags. Flags closer to the selected command take
	// precedence.
	combinedFlags := flag.NewFlagSet(root.Name, flag.ContinueOnError)
	combinedFlags.SetOutput(io.Discard)
	for i := len(commandChain) - 1; i >= 0; i-- {
		cmd := commandChain[i]
		cmd.Flags.VisitAll(func(f *flag.Flag) {
			if combinedFlags.Lookup(f.Name) == nil {
				combinedFlags.Var(f.Value, f.Name, f.Usage)
			}
		})
	}
	for i := len(commandChain) - 1; i >= 0; i-- {
		for _, m := range commandChain[i].FlagsMetadata {
			if m.Short == "" || combinedFlags.Lookup(m.Short) != nil {
				continue
			}
			if f := combinedFlags.Lookup(m.Name); f != nil {
				combinedFlags.Var(f.Value, m.Short, f.Usage)
			}
		}
	}

	// Let ParseToEnd handle the flag parsing
	if err := xflag.ParseToEnd(combinedFlags, argsToParse); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return current.showHelp()
		}
		return NewError(ErrInvalidArgs, fmt.Errorf("command %q: %w", current.Name, err))
	}

	if err := checkRequiredFlags(current, combinedFlags, argsToParse); err != nil {
		return err
	}

	// The leading arguments left by flag parsing are the subcommand names we walked through.
	parsed := combinedFlags.Args()
	if skip := len(commandChain) - 1; skip <= len(parsed) {
		parsed = parsed[skip:]
	}

	// Combine remaining parsed args and everything after delimiter
	var finalArgs []string
	finalArgs = append(finalArgs, parsed...)
	finalArgs = append(finalArgs, remainingArgs...)
	state.Args = finalArgs

	for _, cmd := range commandChain {
		if cmd.binding == nil {
			continue
		}
		if err := cmd.binding.ApplyEnv(cmd.envLookup()); err != nil {
			return NewError(ErrInvalidArgs, fmt.Errorf("command %q: %w", cmd.Name, err))
		}
	}
	if current.binding != nil {
		if err := current.binding.BindPositionals(finalArgs); err != nil {
			return NewError(ErrInvalidArgs, fmt.Errorf("command %q: %w", current.Name, err))
		}
	}
	return nil
}

// prepare attaches the parse state to c and resets values left over from an earlier parse.
func (c *Command) prepare(s *State) {
	c.state = s
	if c.Flags == nil {
		c.Flags = flag.NewFlagSet(c.Name, flag.ContinueOnError)
	}
	if c.binding != nil {
		c.binding.Reset()
	}
}

// takesValue reports whether arg names a known non-boolean flag without an inline "=value".
func takesValue(chain []*Command, arg string) bool {
	name := strings.TrimLeft(arg, "-")
	if name == "" || strings.Contains(name, "=") {
		return false
	}
	for i := len(chain) - 1; i >= 0; i-- {
		cmd := chain[i]
		for _, m := range cmd.FlagsMetadata {
			if m.Short == name {
				name = m.Name
			}
		}
		if f := cmd.Flags.Lookup(name); f != nil {
			if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
				return false
			}
			return true
		}
	}
	return false
}

// checkRequiredFlags inspects the args for the presence of every required flag of cmd, under its
// name or short alias. A flag whose environment variable is set counts as present.
func checkRequiredFlags(cmd *Command, combined *flag.FlagSet, args []string) error {
	var missingFlags []string
	for _, m := range cmd.FlagsMetadata {
		if !m.Required {
			continue
		}
		if combined.Lookup(m.Name) == nil {
			return fmt.Errorf("command %q: internal error: required flag %s not found in flag set",
				cmd.Name, formatFlagName(m.Name))
		}
		if flagPresent(args, m.Name) || (m.Short != "" && flagPresent(args, m.Short)) {
			continue
		}
		if m.Env != "" {
			if v, ok := cmd.envLookup()(m.Env); ok && v != "" {
				continue
			}
		}
		missingFlags = append(missingFlags, formatFlagName(m.Name))
	}
	if len(missingFlags) == 0 {
		return nil
	}
	msg := "required flag %q not set"
	if len(missingFlags) > 1 {
		msg = "required flags %q not set"
	}
	return NewError(ErrInvalidArgs, fmt.Errorf("command %q: "+msg,
		getCommandPath(cmd.state.commandPath), strings.Join(missingFlags, ", ")))
}

func flagPresent(args []string, name string) bool {
	for _, arg := range args {
		// Match either -flag or --flag
		if arg == "-"+name || arg == "--"+name ||
			strings.HasPrefix(arg, "-"+name+"=") ||
			strings.HasPrefix(arg, "--"+name+"=") {
			return true
		}
	}
	return false
}

func validateCommands(root *Command, path []string) error {
	if root.Name == "" {
		if len(path) == 0 {
			return errors.New("root command has no name")
		}
		return fmt.Errorf("subcommand in path %q has no name", strings.Join(path, " "))
	}
	// Ensure name has no spaces
	if strings.Contains(root.Name, " ") {
		return fmt.Errorf("command name %q contains spaces, must be a single word", root.Name)
	}

	// Add current command to path for nested validation
	currentPath := append(path, root.Name)

	// Recursively validate all subcommands
	for _, sub := range root.SubCommands {
		if err := validateCommands(sub, currentPath); err != nil {
			return err
		}
	}
	return nil
}

func formatFlagName(name string) string {
	return "-" + name
}
