package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dedication-board/models"
)

func TestModeratorResults(t *testing.T) {
	d := models.Dedication{SenderName: "A", Message: "one two three"}

	tests := []struct {
		name   string
		script string
		reason string
	}{
		{"true accepts", `function moderate(d) { return true; }`, ""},
		{"undefined accepts", `function moderate(d) {}`, ""},
		{"false rejects", `function moderate(d) { return false; }`, DefaultRejectReason},
		{"string rejects", `function moderate(d) { return "nope"; }`, "nope"},
		{"empty string accepts", `function moderate(d) { return ""; }`, ""},
		{"sees fields", `function moderate(d) { return d.wordCount <= 2 || "too long: " + d.senderName; }`, "too long: A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewModerator(tt.script)
			require.NoError(t, err)
			reason, err := m.Check(d)
			require.NoError(t, err)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestModeratorInvalidScripts(t *testing.T) {
	_, err := NewModerator(`function moderate(d) {`)
	assert.Error(t, err)

	_, err = NewModerator(`var x = 1;`)
	assert.Error(t, err)
}

func TestModeratorRuntimeError(t *testing.T) {
	m, err := NewModerator(`function moderate(d) { return d.missing.field; }`)
	require.NoError(t, err)
	_, err = m.Check(models.Dedication{})
	assert.Error(t, err)

	m, err = NewModerator(`function moderate(d) { return 42; }`)
	require.NoError(t, err)
	_, err = m.Check(models.Dedication{})
	assert.Error(t, err)
}

func TestModeratorTimeout(t *testing.T) {
	m, err := NewModerator(`function moderate(d) { for (;;) {} }`)
	require.NoError(t, err)
	_, err = m.Check(models.Dedication{})
	assert.Error(t, err)
}

func TestLoadModerator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.js")
	require.NoError(t, os.WriteFile(path, []byte(`function moderate(d) { return true; }`), 0644))

	m, err := LoadModerator(path)
	require.NoError(t, err)
	reason, err := m.Check(models.Dedication{})
	require.NoError(t, err)
	assert.Empty(t, reason)

	_, err = LoadModerator(filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)
}
