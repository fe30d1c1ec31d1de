package training

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type modelArtifact struct {
	Trained bool                   `json:"trained"`
	Params  map[string]interface{} `json:"params"`
}

// ArtifactPath is where the model file for modelName lives. Directory parts
// of the name are dropped so the file always lands inside dir.
func ArtifactPath(dir, modelName string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.model", filepath.Base(modelName)))
}

func writeArtifact(dir, modelName string, params map[string]interface{}) (string, error) {
	payload, err := json.MarshalIndent(modelArtifact{Trained: true, Params: params}, "", "  ")
	if err != nil {
		return "", err
	}
	path := ArtifactPath(dir, modelName)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
