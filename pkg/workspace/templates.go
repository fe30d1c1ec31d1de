package workspace

type Panel struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Position string `json:"position"`
}

type Template struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tools       []string `json:"tools"`
	Layout      string   `json:"layout"`
	Theme       string   `json:"theme"`
	Panels      []Panel  `json:"panels"`
}

const DefaultTemplate = "default"

func defaultTemplates() map[string]Template {
	return map[string]Template{
		"coding": {
			Name:        "Coding Workspace",
			Description: "Workspace for software development",
			Tools:       []string{"code_editor", "terminal", "file_explorer", "git_panel"},
			Layout:      "split",
			Theme:       "dark",
			Panels: []Panel{
				{ID: "editor", Type: "code_editor", Position: "main"},
				{ID: "terminal", Type: "terminal", Position: "bottom"},
				{ID: "files", Type: "file_explorer", Position: "left"},
				{ID: "git", Type: "git_panel", Position: "right"},
			},
		},
		"writing": {
			Name:        "Writing Workspace",
			Description: "Workspace for content creation",
			Tools:       []string{"text_editor", "research_panel", "outline_tool"},
			Layout:      "focused",
			Theme:       "light",
			Panels: []Panel{
				{ID: "editor", Type: "text_editor", Position: "main"},
				{ID: "research", Type: "research_panel", Position: "right"},
				{ID: "outline", Type: "outline_tool", Position: "left"},
			},
		},
		"animation": {
			Name:        "Animation Workspace",
			Description: "Workspace for creating animations",
			Tools:       []string{"timeline", "canvas", "asset_library", "preview_panel"},
			Layout:      "complex",
			Theme:       "dark",
			Panels: []Panel{
				{ID: "canvas", Type: "canvas", Position: "main"},
				{ID: "timeline", Type: "timeline", Position: "bottom"},
				{ID: "assets", Type: "asset_library", Position: "left"},
				{ID: "preview", Type: "preview_panel", Position: "right"},
			},
		},
		"music": {
			Name:        "Music Production",
			Description: "Workspace for music and audio production",
			Tools:       []string{"track_editor", "mixer", "instrument_panel", "audio_library"},
			Layout:      "complex",
			Theme:       "dark",
			Panels: []Panel{
				{ID: "tracks", Type: "track_editor", Position: "main"},
				{ID: "mixer", Type: "mixer", Position: "bottom"},
				{ID: "instruments", Type: "instrument_panel", Position: "left"},
				{ID: "library", Type: "audio_library", Position: "right"},
			},
		},
		DefaultTemplate: {
			Name:        "Default Workspace",
			Description: "General purpose workspace",
			Tools:       []string{"chat", "file_viewer", "media_player"},
			Layout:      "simple",
			Theme:       "light",
			Panels: []Panel{
				{ID: "chat", Type: "chat", Position: "main"},
				{ID: "files", Type: "file_viewer", Position: "left"},
				{ID: "media", Type: "media_player", Position: "right"},
			},
		},
	}
}

// detectionRules are checked in order; the first template whose keyword
// appears in the task wins.
var detectionRules = []struct {
	template string
	keywords []string
}{
	{"coding", []string{"code", "program", "develop", "script", "debug"}},
	{"writing", []string{"write", "blog", "article", "story", "script"}},
	{"animation", []string{"animate", "animation", "motion", "video"}},
	{"music", []string{"music", "song", "audio", "sound", "compose"}},
}
