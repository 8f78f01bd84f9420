package fncli

import (
	"flag"
	"fmt"
	"io"
)

// State represents the shared state for a command execution. It records the path of commands
// selected by [Parse], which allows child commands to access global flags defined in parent
// commands. Use [GetFlag] to retrieve flag values by name.
type State struct {
	// Args contains the remaining arguments after flag parsing. For commands built from a
	// function these are the positional arguments, already bound to the argument struct.
	Args []string

	// Standard I/O streams.
	Stdin          io.Reader
	Stdout, Stderr io.Writer

	// Result holds the first return value of a function command after [Run], or nil if the
	// function does not return one.
	Result any

	commandPath []*Command
}

// GetFlag retrieves a flag value by name, with type inference. It searches the selected command
// first and then its parents, allowing access to parent command flags. Example usage:
//
//	verbose := GetFlag[bool](state, "verbose")
//	count := GetFlag[int](state, "count")
//	path := GetFlag[string](state, "path")
//
// If the flag isn't found, it panics with a detailed error message.
//
// Why panic? Because if a flag is missing, it's likely a programming error or a missing flag
// definition, and it's better to fail LOUD and EARLY than to silently ignore the issue and cause
// unexpected behavior.
func GetFlag[T any](s *State, name string) T {
	if s == nil || len(s.commandPath) == 0 {
		panic(fmt.Errorf("internal error: flag %q requested before parsing", formatFlagName(name)))
	}
	for i := len(s.commandPath) - 1; i >= 0; i-- {
		cmd := s.commandPath[i]
		if cmd.Flags == nil {
			continue
		}
		f := cmd.Flags.Lookup(name)
		if f == nil {
			continue
		}
		getter, ok := f.Value.(flag.Getter)
		if !ok {
			panic(fmt.Errorf("internal error: flag %q in command %q does not implement flag.Getter",
				formatFlagName(name), cmd.Name))
		}
		value := getter.Get()
		if v, ok := value.(T); ok {
			return v
		}
		// Flag exists but type doesn't match - this is an internal error
		panic(fmt.Errorf("internal error: type mismatch for flag %q in command %q: registered %T, requested %T",
			formatFlagName(name), cmd.Name, value, *new(T)))
	}
	// If flag not found anywhere in hierarchy, panic with helpful message
	terminal := s.commandPath[len(s.commandPath)-1]
	panic(fmt.Errorf("internal error: flag %q not found in command %q flag set",
		formatFlagName(name), terminal.Name))
}
