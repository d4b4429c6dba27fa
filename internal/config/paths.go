package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/mycelium/internal/messages"
)

// Directory and file names under a Mycelium home or project.
const (
	DirName       = ".mycelium"
	HomeEnvVar    = "MYCELIUM_HOME"
	SettingsFile  = "config.toml"
	MigrationFile = "migration.json"
	GlobalDir     = "global"
	MachinesDir   = "machines"
)

// Paths holds the resolved scope directories for one invocation.
type Paths struct {
	Home         string
	Hostname     string
	GlobalDir    string
	MachineDir   string
	ProjectDir   string
	SettingsPath string
}

// NewPaths builds scope paths from an explicit Mycelium home, hostname, and
// project root. An empty projectRoot leaves ProjectDir unset.
func NewPaths(home, hostname, projectRoot string) Paths {
	p := Paths{
		Home:         home,
		Hostname:     hostname,
		GlobalDir:    filepath.Join(home, GlobalDir),
		MachineDir:   filepath.Join(home, MachinesDir, hostname),
		SettingsPath: filepath.Join(home, SettingsFile),
	}
	if projectRoot != "" {
		p.ProjectDir = filepath.Join(projectRoot, DirName)
	}
	return p
}

// ResolvePaths resolves the Mycelium home from MYCELIUM_HOME or ~/.mycelium and
// the short hostname of this machine.
func ResolvePaths(projectRoot string) (Paths, error) {
	home, err := ResolveHome()
	if err != nil {
		return Paths{}, err
	}
	hostname, err := os.Hostname()
	if err != nil {
		return Paths{}, fmt.Errorf(messages.ConfigResolveHostnameFmt, err)
	}
	return NewPaths(home, shortHostname(hostname), projectRoot), nil
}

// ResolveHome returns the Mycelium home directory.
func ResolveHome() (string, error) {
	if override := strings.TrimSpace(os.Getenv(HomeEnvVar)); override != "" {
		expanded, err := homedir.Expand(override)
		if err != nil {
			return "", fmt.Errorf(messages.ConfigResolveHomeFmt, err)
		}
		return expanded, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf(messages.ConfigResolveHomeFmt, err)
	}
	return filepath.Join(home, DirName), nil
}

// MigrationPath returns the migration record written by the executor.
func (p Paths) MigrationPath() string {
	return filepath.Join(p.GlobalDir, MigrationFile)
}

// Layers returns the layer directories in merge order. The project layer is
// omitted when no project is known.
func (p Paths) Layers() []LayerDir {
	layers := []LayerDir{
		{Name: LayerGlobal, Dir: p.GlobalDir},
		{Name: LayerMachine, Dir: p.MachineDir},
	}
	if p.ProjectDir != "" {
		layers = append(layers, LayerDir{Name: LayerProject, Dir: p.ProjectDir})
	}
	return layers
}

func shortHostname(hostname string) string {
	hostname = strings.TrimSpace(hostname)
	if idx := strings.IndexByte(hostname, '.'); idx > 0 {
		hostname = hostname[:idx]
	}
	return strings.ToLower(hostname)
}
