package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerSeedsDefaultTemplates(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	ids := m.Templates()
	sort.Strings(ids)
	assert.Equal(t, []string{"animation", "coding", "default", "music", "writing"}, ids)

	for _, id := range ids {
		_, err := os.Stat(filepath.Join(dir, "templates", id+".json"))
		assert.NoError(t, err, id)
	}
}

func TestNewManagerLoadsExistingTemplatesOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "templates"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates", "research.json"),
		[]byte(`{"name":"Research","tools":["browser"],"layout":"split","theme":"dark"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates", "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates", "notes.txt"), []byte("ignored"), 0o644))

	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"research"}, m.Templates())

	_, err = m.Create("w1", "")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	ws, err := m.Create("w1", "research")
	require.NoError(t, err)
	assert.Equal(t, "Research", ws["name"])
	assert.Equal(t, []interface{}{}, ws["panels"])
}

func TestCreateAndGet(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	ws, err := m.Create("w1", "coding")
	require.NoError(t, err)
	assert.Equal(t, "w1", ws["id"])
	assert.Equal(t, "Coding Workspace", ws["name"])
	assert.Equal(t, "split", ws["layout"])
	state := ws["state"].(map[string]interface{})
	assert.Equal(t, "main", state["active_panel"])

	// A second manager has nothing active and reads the file.
	other, err := NewManager(dir)
	require.NoError(t, err)
	got, err := other.Get("w1")
	require.NoError(t, err)
	assert.Equal(t, ws, got)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
	_, err = m.Create("w2", "unknown")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	_, err = m.Create("../escape", "coding")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestUpdateOnlyTouchesExistingKeys(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	_, err = m.Create("w1", DefaultTemplate)
	require.NoError(t, err)

	ws, err := m.Update("w1", map[string]interface{}{
		"id":      "hijack",
		"theme":   "dark",
		"unknown": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "w1", ws["id"])
	assert.Equal(t, "dark", ws["theme"])
	assert.NotContains(t, ws, "unknown")

	_, err = m.Update("missing", map[string]interface{}{"theme": "dark"})
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}

func TestReturnedWorkspaceIsACopy(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	ws, err := m.Create("w1", DefaultTemplate)
	require.NoError(t, err)

	ws["theme"] = "mutated"
	got, err := m.Get("w1")
	require.NoError(t, err)
	assert.Equal(t, "light", got["theme"])
}

func TestSwitchTemplateKeepsNameAndState(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	_, err = m.Create("w1", DefaultTemplate)
	require.NoError(t, err)
	_, err = m.Update("w1", map[string]interface{}{"state": map[string]interface{}{"active_panel": "files"}})
	require.NoError(t, err)

	ws, err := m.SwitchTemplate("w1", "music")
	require.NoError(t, err)
	assert.Equal(t, "music", ws["template"])
	assert.Equal(t, "complex", ws["layout"])
	assert.Equal(t, "Default Workspace", ws["name"])
	assert.Equal(t, "files", ws["state"].(map[string]interface{})["active_panel"])

	_, err = m.SwitchTemplate("w1", "nope")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	_, err = m.SwitchTemplate("missing", "music")
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}

func TestDetectTemplate(t *testing.T) {
	tests := map[string]struct {
		task string
		exp  string
	}{
		"Coding keywords should select coding.":                 {task: "Help me DEBUG this function", exp: "coding"},
		"Script matches coding before writing.":                 {task: "write a script", exp: "coding"},
		"Writing keywords should select writing.":               {task: "Draft a blog post", exp: "writing"},
		"Animation keywords should select animation.":           {task: "Make a motion graphic", exp: "animation"},
		"Video matches animation before music.":                 {task: "video with a song", exp: "animation"},
		"Music keywords should select music.":                   {task: "compose a melody", exp: "music"},
		"No keyword should fall back to the default template.": {task: "plan my week", exp: DefaultTemplate},
		"Empty task should fall back to the default template.": {task: "", exp: DefaultTemplate},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, DetectTemplate(test.task))
		})
	}
}
