package plugins

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestScanAppliesRuleTable(t *testing.T) {
	e := newEnv(t)
	dir := e.writePlugin(t, "official", "superpowers", "1.0.0")
	writeFile(t, filepath.Join(dir, "skills", "no-marker", "README.md"), "x")
	writeFile(t, filepath.Join(dir, "agents", "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "hooks", "hooks.json"), "{}")
	writeFile(t, filepath.Join(dir, "lib", "util.js"), "x")
	writeFile(t, filepath.Join(dir, "agents", ".hidden.md"), "x")

	components, err := NewScanner(e.cache, nil).Scan(dir)
	require.NoError(t, err)

	got := map[string]ComponentType{}
	for _, component := range components {
		got[component.Name] = component.Type
		assert.Equal(t, "superpowers", component.PluginName)
		assert.Equal(t, "official", component.Marketplace)
	}
	assert.Equal(t, map[string]ComponentType{
		"tdd":        ComponentSkill,
		"reviewer":   ComponentAgent,
		"brainstorm": ComponentCommand,
		"hooks":      ComponentHook,
		"util":       ComponentLib,
	}, got)
	assert.Equal(t, []string{"brainstorm", "hooks", "reviewer", "tdd", "util"}, ComponentNames(components))
}

func TestScanReadsDescriptions(t *testing.T) {
	e := newEnv(t)
	dir := e.writePlugin(t, "official", "superpowers", "1.0.0")

	components, err := NewScanner(e.cache, nil).Scan(dir)
	require.NoError(t, err)
	descriptions := map[string]string{}
	for _, component := range components {
		descriptions[component.Name] = component.Description
	}
	assert.Equal(t, "Test first", descriptions["tdd"])
	assert.Equal(t, "Reviews code", descriptions["reviewer"])
	assert.Empty(t, descriptions["brainstorm"])
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := NewScanner(t.TempDir(), nil).Scan(filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}

func TestScanNormalizesNames(t *testing.T) {
	e := newEnv(t)
	dir := filepath.Join(e.cache, "m", "p", "1.0.0")
	decomposed := norm.NFD.String("café")
	writeFile(t, filepath.Join(dir, "agents", decomposed+".md"), "x")

	components, err := NewScanner(e.cache, nil).Scan(dir)
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, norm.NFC.String("café"), components[0].Name)
}

func TestInstalledPicksNewestSemver(t *testing.T) {
	e := newEnv(t)
	e.writePlugin(t, "official", "superpowers", "1.9.0")
	e.writePlugin(t, "official", "superpowers", "1.10.0")
	e.writePlugin(t, "official", "superpowers", "1.2.0")
	e.writePlugin(t, "community", "helper", "main")
	e.writePlugin(t, "community", "helper", "dev")

	plugins, err := NewScanner(e.cache, nil).Installed()
	require.NoError(t, err)
	require.Len(t, plugins, 2)
	assert.Equal(t, "helper@community", plugins[0].ID)
	assert.Equal(t, "main", plugins[0].Version)
	assert.Equal(t, "superpowers@official", plugins[1].ID)
	assert.Equal(t, "1.10.0", plugins[1].Version)
	assert.Equal(t, filepath.Join(e.cache, "official", "superpowers", "1.10.0"), plugins[1].Path)
}

func TestInstalledMissingCache(t *testing.T) {
	plugins, err := NewScanner(filepath.Join(t.TempDir(), "none"), nil).Installed()
	require.NoError(t, err)
	assert.Empty(t, plugins)
}

func TestLocate(t *testing.T) {
	e := newEnv(t)
	e.writePlugin(t, "official", "superpowers", "2.0.0")
	scanner := NewScanner(e.cache, nil)

	plugin, err := scanner.Locate("superpowers@official")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", plugin.Version)

	_, err = scanner.Locate("other@official")
	assert.True(t, errors.Is(err, ErrPluginNotFound))
	_, err = scanner.Locate("no-marketplace")
	assert.ErrorContains(t, err, "invalid plugin id")
}

func TestParsePluginID(t *testing.T) {
	name, marketplace, err := ParsePluginID("superpowers@claude-plugins")
	require.NoError(t, err)
	assert.Equal(t, "superpowers", name)
	assert.Equal(t, "claude-plugins", marketplace)

	for _, bad := range []string{"", "@m", "p@", "plain"} {
		_, _, err := ParsePluginID(bad)
		assert.Error(t, err, bad)
	}
}

func TestReadFrontMatter(t *testing.T) {
	tests := []struct {
		name    string
		content string
		desc    string
		wantErr bool
	}{
		{name: "description", content: "---\ndescription: hello\n---\n", desc: "hello"},
		{name: "null description", content: "---\ndescription:\n---\n"},
		{name: "missing", content: "# title\n", wantErr: true},
		{name: "unterminated", content: "---\ndescription: x\n", wantErr: true},
		{name: "not a mapping", content: "---\n- a\n---\n", wantErr: true},
		{name: "non string", content: "---\ndescription: [a]\n---\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, err := readFrontMatter([]byte(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.desc == "" {
				assert.Nil(t, fm.description)
				return
			}
			require.NotNil(t, fm.description)
			assert.Equal(t, tt.desc, *fm.description)
		})
	}
}
