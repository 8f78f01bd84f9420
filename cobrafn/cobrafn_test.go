package cobrafn

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sumArgs struct {
	Numbers []int `arg:"" nargs:"+" help:"numbers to add"`
	Verbose bool  `help:"show the terms"`
}

func sum(cmd *cobra.Command, args sumArgs) int {
	total := 0
	for _, n := range args.Numbers {
		total += n
	}
	if args.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "terms: %v\n", args.Numbers)
	}
	return total
}

type greetArgs struct {
	Name  string `arg:"" default:"world"`
	Color string `enum:"red,black" default:"red"`
}

func greet(args greetArgs) string {
	return args.Color + " " + args.Name
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errBuf)
	// cobra falls back to os.Args when args is nil.
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errBuf.String(), err
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("runs the function", func(t *testing.T) {
		t.Parallel()
		cmd, err := New(sum, WithShort("add numbers"))
		require.NoError(t, err)
		assert.Equal(t, "sum [flags] numbers...", cmd.Use)
		assert.Equal(t, "add numbers", cmd.Short)

		out, stderr, err := execute(t, cmd, "1", "2", "-v", "3")
		require.NoError(t, err)
		assert.Equal(t, "6\n", out)
		assert.Equal(t, "terms: [1 2 3]\n", stderr)
	})
	t.Run("flags", func(t *testing.T) {
		t.Parallel()
		cmd, err := New(sum)
		require.NoError(t, err)
		f := cmd.Flags().Lookup("verbose")
		require.NotNil(t, f)
		assert.Equal(t, "v", f.Shorthand)
		assert.Equal(t, "true", f.NoOptDefVal)
		assert.Equal(t, "show the terms", f.Usage)
		assert.Nil(t, cmd.Flags().Lookup("numbers"))
	})
	t.Run("defaults and choices", func(t *testing.T) {
		t.Parallel()
		cmd, err := New(greet)
		require.NoError(t, err)
		assert.Equal(t, "greet [flags] [name]", cmd.Use)
		out, _, err := execute(t, cmd)
		require.NoError(t, err)
		assert.Equal(t, "red world\n", out)

		cmd, err = New(greet)
		require.NoError(t, err)
		out, _, err = execute(t, cmd, "--color", "black", "gopher")
		require.NoError(t, err)
		assert.Equal(t, "black gopher\n", out)

		cmd, err = New(greet)
		require.NoError(t, err)
		assert.Equal(t, "(one of: red, black)", cmd.Flags().Lookup("color").Usage)
		_, _, err = execute(t, cmd, "-c", "purple")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid choice "purple"`)
	})
	t.Run("positional errors", func(t *testing.T) {
		t.Parallel()
		cmd, err := New(sum)
		require.NoError(t, err)
		_, _, err = execute(t, cmd)
		require.Error(t, err)
		assert.EqualError(t, err, "the following arguments are required: numbers")

		cmd, err = New(greet)
		require.NoError(t, err)
		_, _, err = execute(t, cmd, "a", "b")
		require.Error(t, err)
		assert.EqualError(t, err, "unrecognized arguments: b")

		cmd, err = New(sum)
		require.NoError(t, err)
		_, _, err = execute(t, cmd, "one")
		require.Error(t, err)
		assert.EqualError(t, err, `argument numbers: invalid int value "one": invalid syntax`)
	})
	t.Run("required flag", func(t *testing.T) {
		t.Parallel()
		type args struct {
			Token string `required:""`
		}
		cmd, err := New(func(a args) string { return a.Token }, WithName("login"))
		require.NoError(t, err)
		_, _, err = execute(t, cmd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required flag")
	})
	t.Run("environment", func(t *testing.T) {
		t.Parallel()
		type args struct {
			Token string `required:"" env:"LOGIN_TOKEN"`
		}
		env := map[string]string{}
		lookup := func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		}
		newCmd := func() *cobra.Command {
			cmd, err := New(func(a args) string { return a.Token }, WithName("login"), WithEnvLookup(lookup))
			require.NoError(t, err)
			return cmd
		}

		_, _, err := execute(t, newCmd())
		require.Error(t, err)
		assert.EqualError(t, err, `required flag(s) "token" not set`)

		env["LOGIN_TOKEN"] = "secret"
		out, _, err := execute(t, newCmd())
		require.NoError(t, err)
		assert.Equal(t, "secret\n", out)

		out, _, err = execute(t, newCmd(), "--token", "flag")
		require.NoError(t, err)
		assert.Equal(t, "flag\n", out)

		assert.Contains(t, newCmd().Flags().Lookup("token").Usage, "[$LOGIN_TOKEN]")
	})
	t.Run("result handler and context", func(t *testing.T) {
		t.Parallel()
		type key struct{}
		var got any
		cmd, err := New(func(ctx context.Context) (string, error) {
			return ctx.Value(key{}).(string), nil
		}, WithName("value"), WithResult(func(cmd *cobra.Command, result any) error {
			got = result
			return nil
		}))
		require.NoError(t, err)
		cmd.SetArgs([]string{})
		ctx := context.WithValue(context.Background(), key{}, "from context")
		require.NoError(t, cmd.ExecuteContext(ctx))
		assert.Equal(t, "from context", got)
	})
	t.Run("function error", func(t *testing.T) {
		t.Parallel()
		cmd, err := New(func() error { return fmt.Errorf("boom") }, WithName("fail"))
		require.NoError(t, err)
		_, _, err = execute(t, cmd)
		assert.EqualError(t, err, "boom")
	})
	t.Run("invalid functions", func(t *testing.T) {
		t.Parallel()
		_, err := New(func() {})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "use WithName")

		_, err = New(func(string) {}, WithName("bad"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported parameter type string")
	})
	t.Run("placeholder", func(t *testing.T) {
		t.Parallel()
		type args struct {
			Output string `help:"file to write" placeholder:"FILE"`
			Src    string `arg:"" placeholder:"SRC"`
		}
		cmd, err := New(func(args) {}, WithName("copy"), WithLong("Copy a file."))
		require.NoError(t, err)
		assert.Equal(t, "copy [flags] SRC", cmd.Use)
		assert.Equal(t, "Copy a file.", cmd.Long)
		assert.Contains(t, cmd.Flags().FlagUsages(), "-o, --output FILE")
	})
}

func TestAddCommands(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "calc", SilenceUsage: true, SilenceErrors: true}
	require.NoError(t, AddCommands(root, sum, greet))
	require.Len(t, root.Commands(), 2)

	out, _, err := execute(t, root, "sum", "4", "5")
	require.NoError(t, err)
	assert.Equal(t, "9\n", out)

	err = AddCommands(root, func() {})
	require.Error(t, err)
}
