// Package textutil holds the small text helpers used when rendering help output and deriving
// parameter names.
package textutil

import (
	"strings"
	"unicode"
)

// Wrap splits text into lines no longer than width, breaking only between words. A word longer
// than width gets a line of its own.
func Wrap(text string, width int) []string {
	var (
		lines []string
		line  strings.Builder
	)
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// Kebab converts a Go identifier or snake_case name to lower-kebab-case.
//
//	OutputDir -> output-dir
//	HTTPPort  -> http-port
//	dry_run   -> dry-run
func Kebab(name string) string {
	runes := []rune(strings.Trim(name, "_"))
	var b strings.Builder
	for i, r := range runes {
		if r == '_' {
			b.WriteByte('-')
			continue
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
