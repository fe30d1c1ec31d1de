package training

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thealphakenya/Alphaai/pkg/common/models"
)

const historyFileName = "training_history.json"

// HistoryStore persists the complete run history. Save always receives the
// whole list.
type HistoryStore interface {
	Load() ([]models.TrainingRun, error)
	Save(runs []models.TrainingRun) error
}

// FileHistory keeps the history as one JSON array, rewritten on every save.
type FileHistory struct {
	path string
}

func NewFileHistory(logsDir string) *FileHistory {
	return &FileHistory{path: filepath.Join(logsDir, historyFileName)}
}

func (h *FileHistory) Path() string {
	return h.path
}

// Load returns an empty history when the file does not exist yet.
func (h *FileHistory) Load() ([]models.TrainingRun, error) {
	content, err := os.ReadFile(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var runs []models.TrainingRun
	if err := json.Unmarshal(content, &runs); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", h.path, err)
	}
	return runs, nil
}

func (h *FileHistory) Save(runs []models.TrainingRun) error {
	if runs == nil {
		runs = []models.TrainingRun{}
	}
	payload, err := json.Marshal(runs)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
