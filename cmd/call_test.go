package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"to=kim@example.com", "subject=Hello world", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"to":      "kim@example.com",
		"subject": "Hello world",
		"note":    "a=b",
	}, params)
}

func TestParseParamsInvalid(t *testing.T) {
	_, err := parseParams([]string{"no-equals-sign"})
	assert.ErrorContains(t, err, "expected key=value")

	_, err = parseParams([]string{"=value"})
	assert.ErrorContains(t, err, "expected key=value")
}

func TestVersionCommand(t *testing.T) {
	rootCmd.Version = "1.2.3"
	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "navi version 1.2.3\n", out.String())
}
