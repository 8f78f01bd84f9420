// Package fncli turns Go functions into command-line programs. The parameters of a command are
// declared once, as the fields of the function's argument struct, and fncli derives the flags,
// positional arguments, help text and value conversion from them:
//
//	type congratArgs struct {
//		Reason   string   `arg:"" help:"what to celebrate"`
//		Language string   `arg:"" enum:"en,fr,nv" default:"en"`
//		Loud     bool     `help:"shout"`
//		Names    []string `help:"who to congratulate"`
//	}
//
//	func congratulate(ctx context.Context, s *fncli.State, args congratArgs) error { ... }
//
//	func main() { fncli.Main(congratulate) }
//
// Underneath is a small command framework with nested subcommands and flexible flag parsing, which
// can also be used directly by filling in [Command] by hand. Several functions can be exposed as
// subcommands of one program with [Funcs].
package fncli
