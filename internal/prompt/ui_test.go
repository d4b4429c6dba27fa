package prompt

import (
	"errors"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHuhUI(t *testing.T) {
	ui := NewHuhUI()
	assert.NotNil(t, ui)
	assert.NotNil(t, ui.isTerminal)
}

func TestHuhUI_NoTTY(t *testing.T) {
	ui := &HuhUI{isTerminal: func() bool { return false }}

	var selected string
	err := ui.Select("Title", []Option{{Label: "A", Value: "a"}}, &selected)
	assert.ErrorIs(t, err, ErrNotInteractive)

	var confirmed bool
	err = ui.Confirm("Title", &confirmed)
	assert.ErrorIs(t, err, ErrNotInteractive)
}

func TestHuhUI_RunForm(t *testing.T) {
	ui := &HuhUI{isTerminal: func() bool { return true }}
	origRunForm := runFormFunc
	t.Cleanup(func() {
		runFormFunc = origRunForm
	})

	t.Run("success", func(t *testing.T) {
		called := false
		runFormFunc = func(form *huh.Form) error {
			assert.NotNil(t, form)
			called = true
			return nil
		}
		var selected string
		require.NoError(t, ui.Select("Title", []Option{{Label: "A", Value: "a"}}, &selected))
		assert.True(t, called)
	})

	t.Run("aborted", func(t *testing.T) {
		runFormFunc = func(*huh.Form) error { return huh.ErrUserAborted }
		var confirmed bool
		assert.ErrorIs(t, ui.Confirm("Title", &confirmed), ErrCancelled)
	})

	t.Run("other error", func(t *testing.T) {
		boom := errors.New("boom")
		runFormFunc = func(*huh.Form) error { return boom }
		var confirmed bool
		assert.ErrorIs(t, ui.Confirm("Title", &confirmed), boom)
	})
}

func TestPromptKeyMapAbortsOnEsc(t *testing.T) {
	km := promptKeyMap()
	assert.Contains(t, km.Quit.Keys(), "esc")
	assert.Contains(t, km.Quit.Keys(), "ctrl+c")
	assert.False(t, km.Select.Filter.Enabled())
}
