package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/observability/metrics"
)

const (
	TypeVideos    = "videos"
	TypeAudio     = "audio"
	TypeImages    = "images"
	TypeDocuments = "documents"

	registryFile = "registry.json"
)

// Types lists the media types in search order.
var Types = []string{TypeVideos, TypeAudio, TypeImages, TypeDocuments}

var (
	ErrInvalidMediaType = errors.New("invalid media type")
	ErrNotFound         = errors.New("media not found")
)

type Metadata map[string]interface{}

func (m Metadata) str(key, fallback string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return fallback
}

type SearchResult struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Title     string      `json:"title"`
	Thumbnail interface{} `json:"thumbnail"`
	Duration  interface{} `json:"duration"`
}

// Registry keeps media metadata by type and id, mirrored to registry.json.
type Registry struct {
	dir string

	mu      sync.RWMutex
	entries map[string]map[string]Metadata
}

func NewRegistry(dir string) (*Registry, error) {
	if dir == "" {
		dir = "media"
	}
	for _, sub := range append([]string{""}, Types...) {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, err
		}
	}

	r := &Registry{dir: dir, entries: emptyEntries()}
	if err := r.load(); err != nil {
		logger.Log.WithError(err).Error("Failed to load media registry")
		r.entries = emptyEntries()
	}
	return r, nil
}

func emptyEntries() map[string]map[string]Metadata {
	entries := make(map[string]map[string]Metadata, len(Types))
	for _, t := range Types {
		entries[t] = map[string]Metadata{}
	}
	return entries
}

func ValidType(mediaType string) bool {
	for _, t := range Types {
		if t == mediaType {
			return true
		}
	}
	return false
}

func (r *Registry) Register(mediaType, id string, metadata Metadata) error {
	if !ValidType(mediaType) {
		return fmt.Errorf("%s: %w", mediaType, ErrInvalidMediaType)
	}
	if metadata == nil {
		metadata = Metadata{}
	}

	r.mu.Lock()
	r.entries[mediaType][id] = metadata
	err := r.save()
	r.mu.Unlock()

	if err != nil {
		logger.Log.WithError(err).Error("Failed to save media registry")
	}
	metrics.MediaRegistered()
	logger.Log.WithFields(map[string]interface{}{"type": mediaType, "id": id}).Info("Media registered")
	return nil
}

func (r *Registry) Info(mediaType, id string) (Metadata, error) {
	if !ValidType(mediaType) {
		return nil, fmt.Errorf("%s: %w", mediaType, ErrInvalidMediaType)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	metadata, ok := r.entries[mediaType][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", mediaType, id, ErrNotFound)
	}
	return metadata, nil
}

func (r *Registry) URL(mediaType, id string) (string, error) {
	metadata, err := r.Info(mediaType, id)
	if err != nil {
		return "", err
	}
	return metadata.str("url", ""), nil
}

// Search matches query case-insensitively against title, description and
// tags. An empty mediaType searches every type.
func (r *Registry) Search(query, mediaType string) []SearchResult {
	types := Types
	if mediaType != "" {
		types = []string{mediaType}
	}
	needle := strings.ToLower(query)

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []SearchResult{}
	for _, t := range types {
		bucket, ok := r.entries[t]
		if !ok {
			continue
		}
		ids := make([]string, 0, len(bucket))
		for id := range bucket {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			metadata := bucket[id]
			if !matches(metadata, needle) {
				continue
			}
			results = append(results, SearchResult{
				ID:        id,
				Type:      t,
				Title:     metadata.str("title", "Untitled"),
				Thumbnail: metadata["thumbnail"],
				Duration:  metadata["duration"],
			})
		}
	}
	return results
}

// PlayerConfig builds the front-end player settings for one item.
func (r *Registry) PlayerConfig(mediaType, id string) (map[string]interface{}, error) {
	metadata, err := r.Info(mediaType, id)
	if err != nil {
		return nil, err
	}

	cfg := map[string]interface{}{
		"url":   metadata["url"],
		"title": metadata.str("title", "Untitled"),
	}
	switch mediaType {
	case TypeVideos:
		subtitles := metadata["subtitles"]
		if subtitles == nil {
			subtitles = []interface{}{}
		}
		cfg["type"] = "video"
		cfg["poster"] = metadata["thumbnail"]
		cfg["subtitles"] = subtitles
		cfg["autoplay"] = false
	case TypeAudio:
		cfg["type"] = "audio"
		cfg["artwork"] = metadata["artwork"]
		cfg["artist"] = metadata.str("artist", "Unknown")
		cfg["autoplay"] = false
	case TypeImages:
		cfg["type"] = "image"
		cfg["alt"] = metadata.str("description", "Image")
	case TypeDocuments:
		cfg["type"] = "document"
		cfg["fileType"] = metadata.str("fileType", "pdf")
	}
	return cfg, nil
}

func matches(metadata Metadata, needle string) bool {
	if strings.Contains(strings.ToLower(metadata.str("title", "")), needle) ||
		strings.Contains(strings.ToLower(metadata.str("description", "")), needle) {
		return true
	}
	tags, _ := metadata["tags"].([]interface{})
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		if s, ok := tag.(string); ok {
			parts = append(parts, s)
		}
	}
	return strings.Contains(strings.ToLower(strings.Join(parts, " ")), needle)
}

func (r *Registry) path() string {
	return filepath.Join(r.dir, registryFile)
}

func (r *Registry) load() error {
	content, err := os.ReadFile(r.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var entries map[string]map[string]Metadata
	if err := json.Unmarshal(content, &entries); err != nil {
		return err
	}
	for _, t := range Types {
		if entries[t] == nil {
			entries[t] = map[string]Metadata{}
		}
	}
	r.entries = entries
	return nil
}

// save must be called with mu held.
func (r *Registry) save() error {
	payload, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path(), payload, 0o644)
}
