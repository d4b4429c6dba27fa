package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
	"github.com/conn-castle/mycelium/internal/plugins"
	"github.com/conn-castle/mycelium/internal/root"
)

var getwd = os.Getwd

// cmdEnv is everything a command needs to locate and log Mycelium state.
type cmdEnv struct {
	Paths    config.Paths
	Settings config.Settings
	Log      *slog.Logger
}

// loadEnv resolves the project root from the working directory, the scope
// paths, and config.toml.
func loadEnv(cmd *cobra.Command) (cmdEnv, error) {
	cwd, err := getwd()
	if err != nil {
		return cmdEnv{}, err
	}
	projectRoot, err := root.FindProjectRoot(cwd)
	if err != nil {
		return cmdEnv{}, err
	}
	paths, err := config.ResolvePaths(projectRoot)
	if err != nil {
		return cmdEnv{}, err
	}
	if filepath.Clean(paths.ProjectDir) == filepath.Clean(paths.Home) {
		paths.ProjectDir = ""
	}
	settings, err := config.LoadSettings(paths.SettingsPath)
	if err != nil {
		return cmdEnv{}, err
	}
	verbose, _ := cmd.Flags().GetBool(flagVerbose)
	return cmdEnv{
		Paths:    paths,
		Settings: *settings,
		Log:      newLogger(cmd.ErrOrStderr(), verbose).With(messages.LogCommandAttr, cmd.Name()),
	}, nil
}

// newLogger returns a text logger at Warn, or Debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// store returns the manifest store for the requested scope.
func (e cmdEnv) store(global bool) (*manifest.Store, manifest.Level, error) {
	if global {
		return manifest.NewStore(e.Paths.GlobalDir, e.Log), manifest.LevelGlobal, nil
	}
	if e.Paths.ProjectDir == "" {
		return nil, "", errors.New(messages.NoProjectScope)
	}
	return manifest.NewStore(e.Paths.ProjectDir, e.Log), manifest.LevelProject, nil
}

// pluginManager operates on the global manifest, which owns plugin takeovers.
func (e cmdEnv) pluginManager() *plugins.Manager {
	global, _, _ := e.store(true)
	return plugins.NewManager(e.Settings.Plugins, global, e.Log)
}

// warnUnmanagedTool logs when tool is known but not listed in config.toml.
func (e cmdEnv) warnUnmanagedTool(tool string) {
	if tool != "" && !e.Settings.ToolEnabled(tool) {
		e.Log.Warn(messages.ToolNotManagedLog, "tool", tool)
	}
}
