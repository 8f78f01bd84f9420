package fncli

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFlag(t *testing.T) {
	t.Parallel()

	t.Run("flag not found", func(t *testing.T) {
		cmd := &Command{
			Name:  "root",
			Flags: flag.NewFlagSet("root", flag.ContinueOnError),
		}
		state := &State{
			commandPath: []*Command{cmd},
		}
		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(error)
			require.True(t, ok)
			assert.ErrorContains(t, err, `flag "-version" not found in command "root" flag set`)
		}()
		// Panic because author tried to access a flag that doesn't exist in any of the commands
		_ = GetFlag[string](state, "version")
	})
	t.Run("flag type mismatch", func(t *testing.T) {
		cmd := &Command{
			Name:  "root",
			Flags: FlagsFunc(func(f *flag.FlagSet) { f.String("version", "1.0.0", "show version") }),
		}
		state := &State{
			commandPath: []*Command{cmd},
		}
		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(error)
			require.True(t, ok)
			assert.ErrorContains(t, err, `type mismatch for flag "-version" in command "root": registered string, requested int`)
		}()
		// Panic because author tried to access a registered flag with the wrong type
		_ = GetFlag[int](state, "version")
	})
	t.Run("function command flags", func(t *testing.T) {
		t.Parallel()
		type args struct {
			Count int      `default:"3"`
			Tags  []string `default:"a"`
			Limit *int
		}
		cmd, err := New(func(args) {}, WithName("list"))
		require.NoError(t, err)

		require.NoError(t, Parse(cmd, nil))
		_, state := cmd.terminal()
		assert.Equal(t, 3, GetFlag[int](state, "count"))
		assert.Equal(t, []string{"a"}, GetFlag[[]string](state, "tags"))
		assert.Nil(t, GetFlag[*int](state, "limit"))

		require.NoError(t, Parse(cmd, []string{"-c", "5", "--tags", "x,y", "--limit", "9"}))
		_, state = cmd.terminal()
		assert.Equal(t, 5, GetFlag[int](state, "count"))
		assert.Equal(t, []string{"x", "y"}, GetFlag[[]string](state, "tags"))
		limit := GetFlag[*int](state, "limit")
		require.NotNil(t, limit)
		assert.Equal(t, 9, *limit)

		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(error)
			require.True(t, ok)
			assert.ErrorContains(t, err, `type mismatch for flag "-count" in command "list": registered int, requested string`)
		}()
		_ = GetFlag[string](state, "count")
	})
}
