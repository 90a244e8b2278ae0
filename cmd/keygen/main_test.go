package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgate/sendgate/pkg/crypto"
)

// captureOutput runs fn with os.Stdout redirected to a pipe and returns what
// it printed.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestKeygenOutput(t *testing.T) {
	origArgs := os.Args
	os.Args = []string{"keygen", "hunter2"}
	defer func() { os.Args = origArgs }()

	output := captureOutput(t, main)

	require.Contains(t, output, "OPS_PASSWORD_HASH")

	// The hash sits on the line after the env var marker.
	var hash string
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		if strings.Contains(line, "OPS_PASSWORD_HASH") && i+1 < len(lines) {
			hash = strings.TrimSpace(lines[i+1])
		}
	}
	require.NotEmpty(t, hash, "no hash in output:\n%s", output)

	assert.True(t, strings.HasPrefix(hash, "$2a$"), "expected a bcrypt hash, got %q", hash)
	assert.True(t, crypto.CheckPasswordHash("hunter2", hash))
	assert.False(t, crypto.CheckPasswordHash("wrong", hash))
}
