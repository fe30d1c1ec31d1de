package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/observability/metrics"
)

var (
	ErrTemplateNotFound  = errors.New("template not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrInvalidID         = errors.New("invalid workspace id")
)

// Workspace is kept as a free-form document so that Update can replace any
// key the front end knows about.
type Workspace map[string]interface{}

// Manager creates workspaces from templates and keeps the active ones in
// memory, backed by one JSON file per workspace.
type Manager struct {
	dir          string
	templatesDir string
	templates    map[string]Template

	mu     sync.Mutex
	active map[string]Workspace
}

func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		dir = "workspace"
	}
	m := &Manager{
		dir:          dir,
		templatesDir: filepath.Join(dir, "templates"),
		active:       map[string]Workspace{},
	}
	if err := os.MkdirAll(m.templatesDir, 0o755); err != nil {
		return nil, err
	}

	templates, err := m.loadTemplates()
	if err != nil {
		return nil, err
	}
	m.templates = templates
	return m, nil
}

// loadTemplates seeds the template directory with the defaults when it is
// empty. Otherwise only the files found there are used.
func (m *Manager) loadTemplates() (map[string]Template, error) {
	entries, err := os.ReadDir(m.templatesDir)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		defaults := defaultTemplates()
		for id, tmpl := range defaults {
			if err := writeJSON(filepath.Join(m.templatesDir, id+".json"), tmpl); err != nil {
				return nil, fmt.Errorf("seed template %s: %w", id, err)
			}
		}
		return defaults, nil
	}

	templates := map[string]Template{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		var tmpl Template
		if err := readJSON(filepath.Join(m.templatesDir, name), &tmpl); err != nil {
			logger.Log.WithError(err).WithField("template", id).Error("Failed to load workspace template")
			continue
		}
		templates[id] = tmpl
	}
	return templates, nil
}

func (m *Manager) Templates() []string {
	ids := make([]string, 0, len(m.templates))
	for id := range m.templates {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) Template(id string) (Template, bool) {
	tmpl, ok := m.templates[id]
	return tmpl, ok
}

func (m *Manager) Create(id, templateID string) (Workspace, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if templateID == "" {
		templateID = DefaultTemplate
	}
	tmpl, ok := m.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", templateID, ErrTemplateNotFound)
	}

	name := tmpl.Name
	if name == "" {
		name = "Workspace"
	}
	ws := Workspace{
		"id":       id,
		"name":     name,
		"template": templateID,
		"state": map[string]interface{}{
			"active_panel": "main",
			"panel_sizes":  map[string]interface{}{},
			"tool_states":  map[string]interface{}{},
		},
	}
	applyTemplate(ws, templateID, tmpl)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.persist(id, ws); err != nil {
		return nil, err
	}
	metrics.WorkspaceCreated()
	logger.Log.WithFields(map[string]interface{}{"workspace_id": id, "template": templateID}).Info("Workspace created")
	return clone(ws)
}

func (m *Manager) Get(id string) (Workspace, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return clone(ws)
}

// Update overwrites keys the workspace already has. Unknown keys and the
// id are ignored.
func (m *Manager) Update(id string, updates map[string]interface{}) (Workspace, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	for key, value := range updates {
		if _, ok := ws[key]; ok && key != "id" {
			ws[key] = value
		}
	}
	if err := m.persist(id, ws); err != nil {
		return nil, err
	}
	return clone(ws)
}

// SwitchTemplate replaces tools, layout, theme and panels from the template.
// The name and state are kept.
func (m *Manager) SwitchTemplate(id, templateID string) (Workspace, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	tmpl, ok := m.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", templateID, ErrTemplateNotFound)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ws, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	applyTemplate(ws, templateID, tmpl)
	if err := m.persist(id, ws); err != nil {
		return nil, err
	}
	return clone(ws)
}

// DetectTemplate picks a template from keywords in the task description.
func DetectTemplate(task string) string {
	task = strings.ToLower(task)
	for _, rule := range detectionRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(task, keyword) {
				return rule.template
			}
		}
	}
	return DefaultTemplate
}

// lookup must be called with mu held.
func (m *Manager) lookup(id string) (Workspace, error) {
	if ws, ok := m.active[id]; ok {
		return ws, nil
	}
	var ws Workspace
	err := readJSON(m.path(id), &ws)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", id, ErrWorkspaceNotFound)
	}
	if err != nil {
		logger.Log.WithError(err).WithField("workspace_id", id).Error("Failed to load workspace")
		return nil, fmt.Errorf("%s: %w", id, ErrWorkspaceNotFound)
	}
	m.active[id] = ws
	return ws, nil
}

// persist must be called with mu held.
func (m *Manager) persist(id string, ws Workspace) error {
	if err := writeJSON(m.path(id), ws); err != nil {
		return fmt.Errorf("save workspace %s: %w", id, err)
	}
	m.active[id] = ws
	return nil
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+".json")
}

func applyTemplate(ws Workspace, templateID string, tmpl Template) {
	layout, theme := tmpl.Layout, tmpl.Theme
	if layout == "" {
		layout = "simple"
	}
	if theme == "" {
		theme = "light"
	}
	tools := tmpl.Tools
	if tools == nil {
		tools = []string{}
	}
	panels := tmpl.Panels
	if panels == nil {
		panels = []Panel{}
	}
	ws["template"] = templateID
	ws["tools"] = tools
	ws["layout"] = layout
	ws["theme"] = theme
	ws["panels"] = panels
}

// clone hands callers a plain JSON copy they can mutate freely.
func clone(ws Workspace) (Workspace, error) {
	payload, err := json.Marshal(ws)
	if err != nil {
		return nil, err
	}
	var out Workspace
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || id == "templates" || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%q: %w", id, ErrInvalidID)
	}
	return nil
}

func writeJSON(path string, value interface{}) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func readJSON(path string, dst interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(content, dst)
}
