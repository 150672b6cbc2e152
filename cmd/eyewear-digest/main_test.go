package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowCommand(t *testing.T) {
	t.Setenv("TIMEZONE", "Asia/Seoul")

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"window", "--month", "2025-09"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "2025-09-01 ~ 2025-09-30 (KST)\n", out.String())
}

func TestWindowCommand_BadMonth(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"window", "--month", "September"})

	assert.Error(t, root.Execute())
}

func TestRunCommand_Flags(t *testing.T) {
	cmd := newRunCommand()
	for _, name := range []string{"month", "dry-run", "out", "format"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "html", cmd.Flags().Lookup("format").DefValue)
}
