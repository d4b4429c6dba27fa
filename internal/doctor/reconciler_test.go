package doctor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/testutil"
)

func TestConsistentTakeoverReportsSingleOK(t *testing.T) {
	e := newEnv(t)
	e.takeover(t)

	results := e.check(t)
	require.Len(t, results, 1)
	assert.Equal(t, StatusOK, results[0].Status)
	assert.Equal(t, "plugins", results[0].CheckName)
	assert.Contains(t, results[0].Message, "1 taken over, 3 plugin items")
}

func TestDisabledItemWithSymlinkFailsExactlyOnce(t *testing.T) {
	e := newEnv(t)
	e.takeover(t)

	_, _, err := e.store.Disable(manifest.LevelGlobal, manifest.ToggleRequest{Name: "tdd"})
	require.NoError(t, err)

	found := problems(e.check(t))
	require.Len(t, found, 1)
	assert.Equal(t, StatusFail, found[0].Status)
	assert.Equal(t, "plugin-origin:tdd:disabled-has-symlink", found[0].CheckName)
	assert.Equal(t, "Run `myc plugin sync`.", found[0].Recommendation)
}

func TestDeletedItemWithSymlinkFails(t *testing.T) {
	e := newEnv(t)
	e.takeover(t)

	_, _, err := e.store.Remove("reviewer", manifest.KindAgent)
	require.NoError(t, err)

	result := requireResultByCheckName(t, e.check(t), "plugin-origin:reviewer:deleted-has-symlink")
	assert.Equal(t, StatusFail, result.Status)
}

func TestDisabledItemWithoutSymlinkIsConsistent(t *testing.T) {
	e := newEnv(t)
	e.takeover(t)

	_, _, err := e.store.Disable(manifest.LevelGlobal, manifest.ToggleRequest{Name: "tdd"})
	require.NoError(t, err)
	_, err = e.manager.ApplyItemLinks(manifest.KindSkill, "tdd")
	require.NoError(t, err)

	assert.Empty(t, problems(e.check(t)))
}

func TestEnabledItemLinkSlot(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, e env, link string)
		check  string
		status Status
	}{
		{
			name: "missing symlink",
			mutate: func(t *testing.T, e env, link string) {
				require.NoError(t, os.Remove(link))
			},
			check:  "plugin-origin:tdd:missing-symlink",
			status: StatusFail,
		},
		{
			name: "wrong target",
			mutate: func(t *testing.T, e env, link string) {
				replaceWithSymlink(t, link, t.TempDir())
			},
			check:  "plugin-origin:tdd:wrong-target",
			status: StatusWarn,
		},
		{
			name: "not a symlink",
			mutate: func(t *testing.T, e env, link string) {
				require.NoError(t, os.Remove(link))
				require.NoError(t, os.MkdirAll(link, 0o755))
			},
			check:  "plugin-origin:tdd:not-symlink",
			status: StatusWarn,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.takeover(t)
			tt.mutate(t, e, e.link(manifest.KindSkill, "tdd"))

			found := problems(e.check(t))
			require.Len(t, found, 1)
			assert.Equal(t, tt.check, found[0].CheckName)
			assert.Equal(t, tt.status, found[0].Status)
		})
	}
}

func TestEnabledItemOfReleasedPluginNeedsNoLink(t *testing.T) {
	e := newEnv(t)
	e.takeover(t)

	result, err := e.manager.Release(pluginID)
	require.NoError(t, err)
	require.True(t, result.Success, result.Errors)
	assert.Empty(t, problems(e.check(t)))

	require.NoError(t, e.manager.Registry.SetEnabled(pluginID, false))
	found := problems(e.check(t))
	require.Len(t, found, 1)
	assert.Equal(t, "released:superpowers@official:not-enabled", found[0].CheckName)
	assert.Equal(t, StatusWarn, found[0].Status)
	assert.Contains(t, found[0].Recommendation, "myc plugin takeover superpowers@official")
}

func TestTakenOverPluginReEnabledWarns(t *testing.T) {
	e := newEnv(t)
	e.takeover(t)

	require.NoError(t, e.manager.Registry.SetEnabled(pluginID, true))
	found := problems(e.check(t))
	require.Len(t, found, 1)
	assert.Equal(t, "takeover:superpowers@official:re-enabled", found[0].CheckName)
	assert.Contains(t, found[0].Recommendation, "myc plugin release superpowers@official")
}

func TestOrphanedSymlinkFails(t *testing.T) {
	e := newEnv(t)
	testutil.Symlink(t, filepath.Join(e.root, "gone"), filepath.Join(e.settings.LinkRoot, "skills", "ghost"))

	found := problems(e.check(t))
	require.Len(t, found, 1)
	assert.Equal(t, "symlink:skills/ghost:orphaned", found[0].CheckName)
	assert.Equal(t, StatusFail, found[0].Status)
	assert.Contains(t, found[0].Message, filepath.Join(e.root, "gone"))
}

func TestUnreadableSymlinkIsDistinctFromOrphaned(t *testing.T) {
	e := newEnv(t)
	e.takeover(t)
	link := e.link(manifest.KindSkill, "tdd")
	e.reconciler.Sys = faultSystem{readlinkErr: map[string]error{link: errors.New("boom")}}

	found := problems(e.check(t))
	require.Len(t, found, 1)
	assert.Equal(t, "symlink:skills/tdd:unreadable", found[0].CheckName)
	assert.Equal(t, StatusFail, found[0].Status)
	assert.Contains(t, found[0].Message, "cannot read link")
}

func TestComponentsDriftListsBothInventories(t *testing.T) {
	e := newEnv(t)
	dir := e.takeover(t)
	testutil.WriteFile(t, filepath.Join(dir, "skills", "debug", "SKILL.md"), "---\nname: debug\n---\n")

	found := problems(e.check(t))
	require.Len(t, found, 1)
	assert.Equal(t, "takeover:superpowers@official:components-drift", found[0].CheckName)
	assert.Equal(t, StatusWarn, found[0].Status)
	assert.Contains(t, found[0].Message, "recorded [brainstorm, reviewer, tdd]")
	assert.Contains(t, found[0].Message, "found [brainstorm, debug, reviewer, tdd]")
	assert.Contains(t, found[0].Message, "extra [debug]")
}

func TestMissingCacheFails(t *testing.T) {
	e := newEnv(t)
	dir := e.takeover(t)
	require.NoError(t, os.RemoveAll(dir))

	results := e.check(t)
	result := requireResultByCheckName(t, results, "takeover:superpowers@official:cache-missing")
	assert.Equal(t, StatusFail, result.Status)
	orphan := requireResultByCheckName(t, results, "symlink:skills/tdd:orphaned")
	assert.Equal(t, StatusFail, orphan.Status)
}

func TestPhantomSkillNames(t *testing.T) {
	e := newEnv(t)
	doc := manifest.NewDocument()
	doc.SetItem(manifest.KindSkill, "superpowers@official", &manifest.Item{})
	doc.SetItem(manifest.KindSkill, "tdd@claude", &manifest.Item{})
	doc.SetItem(manifest.KindSkill, "old@market", &manifest.Item{State: manifest.StateDeleted})
	doc.SetItem(manifest.KindCommand, "cmd@market", &manifest.Item{})

	found := problems(e.reconciler.CheckTakenOverPlugins(doc))
	require.Len(t, found, 1)
	assert.Equal(t, "phantom:superpowers@official", found[0].CheckName)
	assert.Equal(t, StatusFail, found[0].Status)
}

func TestUnreadableSettingsFails(t *testing.T) {
	e := newEnv(t)
	e.takeover(t)
	testutil.WriteFile(t, e.settings.SettingsPath, "{not json")

	result := requireResultByCheckName(t, e.check(t), "plugin-settings")
	assert.Equal(t, StatusFail, result.Status)
}

func TestChecksDoNotMutate(t *testing.T) {
	e := newEnv(t)
	e.takeover(t)
	_, _, err := e.store.Disable(manifest.LevelGlobal, manifest.ToggleRequest{Name: "tdd"})
	require.NoError(t, err)

	before, err := os.ReadFile(e.store.Path())
	require.NoError(t, err)
	settingsBefore, err := os.ReadFile(e.settings.SettingsPath)
	require.NoError(t, err)

	_ = e.check(t)

	after, err := os.ReadFile(e.store.Path())
	require.NoError(t, err)
	settingsAfter, err := os.ReadFile(e.settings.SettingsPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, string(settingsBefore), string(settingsAfter))
	_, err = os.Lstat(e.link(manifest.KindSkill, "tdd"))
	assert.NoError(t, err)
}
