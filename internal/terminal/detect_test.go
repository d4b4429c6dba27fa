package terminal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInteractive(t *testing.T) {
	// The result depends on how the tests are run; this only checks it does not panic.
	_ = IsInteractive()
}

func TestIsTerminalWriter(t *testing.T) {
	assert.False(t, IsTerminalWriter(&bytes.Buffer{}))

	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	assert.False(t, IsTerminalWriter(f))
}

func TestIsTerminalWriterPTY(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = tty.Close()
		_ = ptmx.Close()
	})
	assert.True(t, IsTerminalWriter(tty))
}
