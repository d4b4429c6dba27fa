// Package mcp exposes Mycelium state to MCP clients over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/doctor"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
)

// Options configures the server.
type Options struct {
	Version  string
	Paths    config.Paths
	Settings config.Settings
	Log      *slog.Logger
}

type serverRunner func(ctx context.Context, server *mcp.Server) error

// RunServer starts the Mycelium MCP server over stdio and blocks until the
// client disconnects or ctx is cancelled.
func RunServer(ctx context.Context, opts Options) error {
	return runServer(ctx, opts, defaultServerRunner)
}

// runServer builds the server and runs it using the provided runner.
func runServer(ctx context.Context, opts Options, runner serverRunner) error {
	if runner == nil {
		return fmt.Errorf(messages.McpRunServerFailedFmt, errors.New(messages.McpRunnerNil))
	}
	if err := runner(ctx, NewServer(opts)); err != nil {
		return fmt.Errorf(messages.McpRunServerFailedFmt, err)
	}
	return nil
}

// defaultServerRunner runs the server over stdio.
func defaultServerRunner(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// NewServer returns a server with the status and doctor tools registered.
func NewServer(opts Options) *mcp.Server {
	if opts.Log == nil {
		opts.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    messages.McpServerName,
		Version: opts.Version,
	}, nil)

	h := handlers{opts: opts}
	mcp.AddTool(server, &mcp.Tool{
		Name:        messages.McpStatusToolName,
		Description: messages.McpStatusToolDescription,
	}, h.status)
	mcp.AddTool(server, &mcp.Tool{
		Name:        messages.McpDoctorToolName,
		Description: messages.McpDoctorToolDescription,
	}, h.doctor)
	return server
}

// StatusInput is the mycelium_status argument object.
type StatusInput struct {
	Tool string `json:"tool,omitempty" jsonschema:"optional tool id; when set, only MCP servers visible to that tool are listed"`
}

// ServerStatus is one merged MCP server and the layer that last supplied it.
type ServerStatus struct {
	Name    string   `json:"name"`
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	State   string   `json:"state,omitempty"`
	Layer   string   `json:"layer"`
}

// ManifestCounts holds item counts per section for one manifest scope.
type ManifestCounts struct {
	Scope    string         `json:"scope"`
	Path     string         `json:"path"`
	Found    bool           `json:"found"`
	Sections map[string]int `json:"sections"`
}

// StatusOutput is the mycelium_status result.
type StatusOutput struct {
	Tool      string           `json:"tool,omitempty"`
	Servers   []ServerStatus   `json:"servers"`
	Manifests []ManifestCounts `json:"manifests"`
	Warnings  int              `json:"warnings"`
}

// DoctorOutput is the mycelium_doctor result.
type DoctorOutput struct {
	Results []doctor.Result `json:"results"`
	Summary doctor.Summary  `json:"summary"`
}

type handlers struct {
	opts Options
}

func (h handlers) status(_ context.Context, _ *mcp.CallToolRequest, in StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	h.opts.Log.Debug(messages.McpToolCalledLog, "tool", messages.McpStatusToolName)
	out, err := BuildStatus(h.opts.Paths, strings.TrimSpace(in.Tool), h.opts.Log)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, out, nil
}

func (h handlers) doctor(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, DoctorOutput, error) {
	h.opts.Log.Debug(messages.McpToolCalledLog, "tool", messages.McpDoctorToolName)
	results := doctor.Run(doctor.Options{Paths: h.opts.Paths, Settings: h.opts.Settings, Log: h.opts.Log})
	return nil, DoctorOutput{Results: results, Summary: doctor.Summarize(results)}, nil
}

// BuildStatus merges the config layers and counts manifest items. A non-empty
// tool restricts the server list to servers visible to it.
func BuildStatus(paths config.Paths, tool string, log *slog.Logger) (StatusOutput, error) {
	if tool != "" {
		if err := manifest.ValidateTool(tool); err != nil {
			return StatusOutput{}, err
		}
	}
	merged := config.LoadMerged(paths, log)
	out := StatusOutput{
		Tool:     tool,
		Servers:  []ServerStatus{},
		Warnings: len(merged.Warnings),
	}
	for _, name := range merged.MCPNames() {
		server := merged.MCPs[name]
		if tool != "" && !server.VisibleTo(tool) {
			continue
		}
		out.Servers = append(out.Servers, ServerStatus{
			Name:    name,
			Command: server.Command,
			Args:    server.Args,
			State:   string(server.State),
			Layer:   string(merged.Sources[name]),
		})
	}

	scopes := []config.LayerDir{{Name: config.LayerGlobal, Dir: paths.GlobalDir}}
	if paths.ProjectDir != "" {
		scopes = append(scopes, config.LayerDir{Name: config.LayerProject, Dir: paths.ProjectDir})
	}
	for _, scope := range scopes {
		counts, err := countManifest(manifest.NewStore(scope.Dir, log))
		if err != nil {
			return StatusOutput{}, fmt.Errorf(messages.McpStatusManifestFailedFmt, scope.Name, err)
		}
		counts.Scope = string(scope.Name)
		out.Manifests = append(out.Manifests, counts)
	}
	return out, nil
}

func countManifest(store *manifest.Store) (ManifestCounts, error) {
	counts := ManifestCounts{Path: store.Path(), Sections: map[string]int{}}
	for _, kind := range manifest.Kinds {
		counts.Sections[kind.Section()] = 0
	}
	doc, err := store.Load()
	if errors.Is(err, manifest.ErrManifestNotFound) {
		return counts, nil
	}
	if err != nil {
		return ManifestCounts{}, err
	}
	counts.Found = true
	for _, ref := range doc.Refs() {
		counts.Sections[ref.Kind.Section()]++
	}
	return counts, nil
}
