package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/mycelium/internal/mcp"
)

func TestMcpCommandRunsServer(t *testing.T) {
	c := newCLI(t)
	orig := runServer
	t.Cleanup(func() { runServer = orig })
	var got mcp.Options
	runServer = func(_ context.Context, opts mcp.Options) error {
		got = opts
		return nil
	}

	c.mustRun(t, "mcp")
	assert.Equal(t, Version, got.Version)
	assert.Equal(t, c.projectDir(), got.Paths.ProjectDir)
	assert.NotNil(t, got.Log)
}

func TestMcpCommandPropagatesError(t *testing.T) {
	c := newCLI(t)
	orig := runServer
	t.Cleanup(func() { runServer = orig })
	runServer = func(context.Context, mcp.Options) error { return errors.New("stdio closed") }

	_, err := c.run("mcp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdio closed")
}
