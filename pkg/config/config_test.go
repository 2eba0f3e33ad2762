package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minpile/pkg/asm"
	"minpile/pkg/compiler"
	"minpile/pkg/cpu"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
unknown_calls: ignore
builtins:
  draw: "draw rect $@"
  ubind: "ubind $0"
max_steps: 500
wrap: true
messages: [message1, message2]
log_level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, "ignore", cfg.UnknownCalls)
	assert.Equal(t, "draw rect $@", cfg.Builtins["draw"])
	assert.Equal(t, 500, cfg.MaxSteps)
	assert.True(t, cfg.Wrap)
	assert.Equal(t, []string{"message1", "message2"}, cfg.Messages)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	opts, err := cfg.CompilerOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, compiler.UnknownCallIgnore, opts.UnknownCalls)

	res, err := compiler.Compile("draw(1, 2)\nmystery()", opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"draw rect 1 2"}, res.Instructions)
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	opts, err := cfg.CompilerOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, compiler.UnknownCallError, opts.UnknownCalls)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "colour: red",
		"bad policy":       "unknown_calls: explode",
		"bad level":        "log_level: loud",
		"bad template":     "builtins: {x: \"op $q\"}",
		"shadowed builtin": "builtins: {print: \"print $0\"}",
		"duplicate block":  "messages: [a, a]",
		"not yaml":         "max_steps: [",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minpile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_steps: -1\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.MaxSteps)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCPUOptions(t *testing.T) {
	prog, err := asm.Assemble("op add n n 1")
	require.NoError(t, err)

	cfg := Default()
	cfg.Wrap = true
	cfg.MaxSteps = 25
	c := cpu.NewCPU(prog, cfg.CPUOptions()...)
	assert.ErrorIs(t, c.RunUntilDone(), cpu.ErrStepLimit)
	assert.Equal(t, cpu.Number(25), c.Variable("n"))

	cfg.MaxSteps = -1
	c = cpu.NewCPU(prog, cfg.CPUOptions()...)
	assert.Equal(t, 0, c.MaxSteps)

	cfg.MaxSteps = 0
	c = cpu.NewCPU(prog, cfg.CPUOptions()...)
	assert.Equal(t, cpu.DefaultMaxSteps, c.MaxSteps)
}

func TestMountMessages(t *testing.T) {
	prog, err := asm.Assemble("print 1\nprintflush a\nprint 2\nprintflush a\nprint 3\nprintflush a")
	require.NoError(t, err)

	tests := []struct {
		history int
		want    []string
	}{
		{0, []string{"1", "2", "3"}},
		{2, []string{"2", "3"}},
		{-1, []string{}},
	}
	for _, tc := range tests {
		cfg, err := Parse([]byte("messages: [a, b]\nhistory: " + strconv.Itoa(tc.history)))
		require.NoError(t, err)
		assert.Equal(t, tc.history, cfg.History)

		c := cpu.NewCPU(prog)
		blocks := cfg.MountMessages(c)
		require.Len(t, blocks, 2)
		require.NoError(t, c.RunUntilDone())
		assert.Equal(t, "3", blocks[0].Text())
		assert.Equal(t, tc.want, blocks[0].History(), "history %d", tc.history)
		assert.Empty(t, c.Flushed)
	}
}
