package fncli

import (
	"cmp"
	"flag"
	"fmt"
	"slices"
	"strings"

	"github.com/mfridman/fncli/pkg/textutil"
)

const usageWidth = 80

// DefaultUsage renders the help text of the command selected by the last [Parse], or of c itself
// when it has not been parsed.
func DefaultUsage(c *Command) string {
	if c == nil {
		return ""
	}

	// Get terminal command from state
	terminalCmd, _ := c.terminal()
	if terminalCmd.UsageFunc != nil {
		return terminalCmd.UsageFunc(terminalCmd)
	}

	var b strings.Builder

	if terminalCmd.ShortHelp != "" {
		for _, line := range textutil.Wrap(terminalCmd.ShortHelp, usageWidth) {
			b.WriteString(line)
			b.WriteRune('\n')
		}
		b.WriteRune('\n')
	}

	b.WriteString("Usage:\n")
	if terminalCmd.Usage != "" {
		b.WriteString("  " + terminalCmd.Usage + "\n")
	} else {
		usage := terminalCmd.Name
		if c.state != nil && len(c.state.commandPath) > 0 {
			usage = getCommandPath(c.state.commandPath)
		}
		if terminalCmd.Flags != nil || len(terminalCmd.FlagsMetadata) > 0 {
			usage += " [flags]"
		}
		if len(terminalCmd.SubCommands) > 0 {
			usage += " <command>"
		}
		for _, a := range terminalCmd.ArgsMetadata {
			usage += " " + argPlaceholder(a)
		}
		b.WriteString("  " + usage + "\n")
	}
	b.WriteString("\n")

	if len(terminalCmd.SubCommands) > 0 {
		b.WriteString("Available Commands:\n")
		sortedCommands := slices.Clone(terminalCmd.SubCommands)
		slices.SortFunc(sortedCommands, func(a, b *Command) int {
			return cmp.Compare(a.Name, b.Name)
		})
		var entries []usageEntry
		for _, sub := range sortedCommands {
			entries = append(entries, usageEntry{name: sub.Name, text: sub.ShortHelp})
		}
		writeSection(&b, entries)
		b.WriteString("\n")
	}

	if len(terminalCmd.ArgsMetadata) > 0 {
		var entries []usageEntry
		for _, a := range terminalCmd.ArgsMetadata {
			entries = append(entries, usageEntry{name: a.Name, text: a.Help})
		}
		b.WriteString("Arguments:\n")
		writeSection(&b, entries)
		b.WriteString("\n")
	}

	var flags []flagInfo
	path := []*Command{terminalCmd}
	if c.state != nil && len(c.state.commandPath) > 0 {
		path = c.state.commandPath
	}
	for i, cmd := range path {
		if cmd.Flags == nil {
			continue
		}
		isGlobal := i < len(path)-1
		cmd.Flags.VisitAll(func(f *flag.Flag) {
			flags = append(flags, newFlagInfo(cmd, f, isGlobal))
		})
	}

	if len(flags) > 0 {
		slices.SortFunc(flags, func(a, b flagInfo) int {
			return cmp.Compare(a.sortKey, b.sortKey)
		})

		hasLocal := false
		hasGlobal := false
		for _, f := range flags {
			if f.global {
				hasGlobal = true
			} else {
				hasLocal = true
			}
		}

		if hasLocal {
			b.WriteString("Flags:\n")
			writeFlagSection(&b, flags, false)
			b.WriteString("\n")
		}

		if hasGlobal {
			b.WriteString("Global Flags:\n")
			writeFlagSection(&b, flags, true)
			b.WriteString("\n")
		}
	}

	if len(terminalCmd.SubCommands) > 0 {
		cmdName := terminalCmd.Name
		if c.state != nil && len(c.state.commandPath) > 0 {
			cmdName = getCommandPath(c.state.commandPath)
		}
		fmt.Fprintf(&b, "Use \"%s [command] --help\" for more information about a command.\n", cmdName)
	}

	return strings.TrimRight(b.String(), "\n")
}

func argPlaceholder(a ArgMetadata) string {
	if a.Placeholder != "" {
		return a.Placeholder
	}
	return "<" + a.Name + ">"
}

type flagInfo struct {
	sortKey string
	name    string
	usage   string
	global  bool
}

func newFlagInfo(cmd *Command, f *flag.Flag, global bool) flagInfo {
	meta, _ := cmd.metadata(f.Name)

	valueName, usage := flag.UnquoteUsage(f)
	if meta.Placeholder != "" {
		valueName = meta.Placeholder
	} else if t, ok := f.Value.(interface{ Type() string }); ok && valueName == "value" {
		valueName = t.Type()
	}

	name := formatFlagName(f.Name)
	if meta.Short != "" {
		name = formatFlagName(meta.Short) + ", " + name
	}
	if valueName != "" {
		name += " " + valueName
	}

	if f.DefValue != "" && f.DefValue != "false" {
		usage += fmt.Sprintf(" (default: %s)", f.DefValue)
	}
	if meta.Env != "" {
		usage += fmt.Sprintf(" [$%s]", meta.Env)
	}
	if meta.Required {
		usage += " (required)"
	}
	return flagInfo{
		sortKey: f.Name,
		name:    name,
		usage:   strings.TrimSpace(usage),
		global:  global,
	}
}

// writeFlagSection handles the formatting of flag descriptions
func writeFlagSection(b *strings.Builder, flags []flagInfo, global bool) {
	var entries []usageEntry
	for _, f := range flags {
		if f.global == global {
			entries = append(entries, usageEntry{name: f.name, text: f.usage})
		}
	}
	writeSection(b, entries)
}

type usageEntry struct {
	name string
	text string
}

// writeSection writes entries as an aligned two-column list, wrapping the text column.
func writeSection(b *strings.Builder, entries []usageEntry) {
	maxLen := 0
	for _, e := range entries {
		maxLen = max(maxLen, len(e.name))
	}
	nameWidth := maxLen + 4
	wrapWidth := usageWidth - nameWidth

	for _, e := range entries {
		lines := textutil.Wrap(e.text, wrapWidth)
		if len(lines) == 0 {
			fmt.Fprintf(b, "  %s\n", e.name)
			continue
		}
		padding := strings.Repeat(" ", maxLen-len(e.name)+4)
		fmt.Fprintf(b, "  %s%s%s\n", e.name, padding, lines[0])

		indentPadding := strings.Repeat(" ", nameWidth+2)
		for _, line := range lines[1:] {
			fmt.Fprintf(b, "%s%s\n", indentPadding, line)
		}
	}
}
