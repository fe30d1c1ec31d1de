package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
)

var (
	ErrNotFound  = errors.New("memory entry not found")
	ErrInvalidID = errors.New("invalid memory id")
)

const (
	kindConversation = "conversations"
	kindUser         = "users"
	kindProject      = "projects"

	previewLength = 100
)

type Config struct {
	Dir   string
	Cache Cache
	// BackupDelay is how long the backup stub pretends to work. Zero means
	// two seconds; a negative value disables the wait.
	BackupDelay time.Duration
	Now         func() time.Time
}

func (c *Config) defaults() {
	if c.Dir == "" {
		c.Dir = "memory"
	}
	if c.Cache == nil {
		c.Cache = NewLocalCache()
	}
	if c.BackupDelay == 0 {
		c.BackupDelay = 2 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Store persists conversations, user data, projects and workspace state as
// JSON documents below Dir.
type Store struct {
	cfg              Config
	conversationsDir string
	usersDir         string
	projectsDir      string
	workspaceDir     string
}

func NewStore(cfg Config) (*Store, error) {
	cfg.defaults()
	s := &Store{
		cfg:              cfg,
		conversationsDir: filepath.Join(cfg.Dir, kindConversation),
		usersDir:         filepath.Join(cfg.Dir, kindUser),
		projectsDir:      filepath.Join(cfg.Dir, kindProject),
		workspaceDir:     filepath.Join(cfg.Dir, "workspace"),
	}
	for _, dir := range []string{cfg.Dir, s.conversationsDir, s.usersDir, s.projectsDir, s.workspaceDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SaveConversation stores messages under id. A timestamp is added to the
// metadata when missing.
func (s *Store) SaveConversation(ctx context.Context, id string, messages []models.Message, metadata map[string]interface{}) error {
	if err := validateID(id); err != nil {
		return err
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if _, ok := metadata["timestamp"]; !ok {
		metadata["timestamp"] = s.cfg.Now().Format(time.RFC3339Nano)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	conversation := models.Conversation{ID: id, Messages: messages, Metadata: metadata}

	s.cacheSet(ctx, kindConversation, id, conversation)
	return writeJSON(filepath.Join(s.conversationsDir, id+".json"), conversation)
}

func (s *Store) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	var conversation models.Conversation
	if err := validateID(id); err != nil {
		return conversation, err
	}
	if s.cacheGet(ctx, kindConversation, id, &conversation) {
		return conversation, nil
	}
	if err := readJSON(filepath.Join(s.conversationsDir, id+".json"), &conversation); err != nil {
		return models.Conversation{}, fmt.Errorf("conversation %s: %w", id, err)
	}
	s.cacheSet(ctx, kindConversation, id, conversation)
	return conversation, nil
}

func (s *Store) SaveUserData(ctx context.Context, id string, data map[string]interface{}) error {
	if err := validateID(id); err != nil {
		return err
	}
	data = s.stamp(data)
	s.cacheSet(ctx, kindUser, id, data)
	return writeJSON(filepath.Join(s.usersDir, id+".json"), data)
}

func (s *Store) GetUserData(ctx context.Context, id string) (map[string]interface{}, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if s.cacheGet(ctx, kindUser, id, &data) {
		return data, nil
	}
	if err := readJSON(filepath.Join(s.usersDir, id+".json"), &data); err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	s.cacheSet(ctx, kindUser, id, data)
	return data, nil
}

func (s *Store) SaveProjectData(ctx context.Context, id string, data map[string]interface{}) error {
	if err := validateID(id); err != nil {
		return err
	}
	data = s.stamp(data)
	dir := filepath.Join(s.projectsDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "metadata.json"), data); err != nil {
		return err
	}
	s.cacheSet(ctx, kindProject, id, data)
	return nil
}

func (s *Store) GetProjectData(ctx context.Context, id string) (map[string]interface{}, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if s.cacheGet(ctx, kindProject, id, &data) {
		return data, nil
	}
	if err := readJSON(filepath.Join(s.projectsDir, id, "metadata.json"), &data); err != nil {
		return nil, fmt.Errorf("project %s: %w", id, err)
	}
	s.cacheSet(ctx, kindProject, id, data)
	return data, nil
}

// Workspace state is never cached.
func (s *Store) SaveWorkspaceState(ctx context.Context, id string, state map[string]interface{}) error {
	if err := validateID(id); err != nil {
		return err
	}
	dir := filepath.Join(s.workspaceDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "state.json"), state)
}

func (s *Store) GetWorkspaceState(ctx context.Context, id string) (map[string]interface{}, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var state map[string]interface{}
	if err := readJSON(filepath.Join(s.workspaceDir, id, "state.json"), &state); err != nil {
		return nil, fmt.Errorf("workspace state %s: %w", id, err)
	}
	return state, nil
}

// SearchConversations finds conversations with a message containing query,
// case-insensitively. Scanning stops after limit matches; the matches are
// then ordered newest first.
func (s *Store) SearchConversations(ctx context.Context, query string, limit int) ([]models.ConversationMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	entries, err := os.ReadDir(s.conversationsDir)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	results := []models.ConversationMatch{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var conversation models.Conversation
		if err := readJSON(filepath.Join(s.conversationsDir, entry.Name()), &conversation); err != nil {
			logger.Log.WithError(err).WithField("file", entry.Name()).Warn("Skipping unreadable conversation")
			continue
		}
		if !containsMessage(conversation.Messages, needle) {
			continue
		}

		results = append(results, models.ConversationMatch{
			ID:        conversation.ID,
			Preview:   preview(conversation.Messages),
			Timestamp: stringValue(conversation.Metadata["timestamp"]),
		})
		if len(results) >= limit {
			break
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp > results[j].Timestamp
	})
	return results, nil
}

// Backup pretends to push the memory directory to repo.
func (s *Store) Backup(ctx context.Context, repo string) (models.StatusResponse, error) {
	logger.Log.WithField("repo", repo).Info("Backing up memory")
	if s.cfg.BackupDelay > 0 {
		timer := time.NewTimer(s.cfg.BackupDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return models.Failure("Backup cancelled"), ctx.Err()
		}
	}
	return models.Success("Memory backed up to GitHub"), nil
}

func (s *Store) stamp(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		data = map[string]interface{}{}
	}
	if _, ok := data["last_updated"]; !ok {
		data["last_updated"] = s.cfg.Now().Format(time.RFC3339Nano)
	}
	return data
}

func (s *Store) cacheGet(ctx context.Context, kind, id string, dst interface{}) bool {
	ok, err := s.cfg.Cache.Get(ctx, kind, id, dst)
	if err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{"kind": kind, "id": id}).Warn("Memory cache read failed")
		return false
	}
	return ok
}

func (s *Store) cacheSet(ctx context.Context, kind, id string, value interface{}) {
	if err := s.cfg.Cache.Set(ctx, kind, id, value); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{"kind": kind, "id": id}).Warn("Memory cache write failed")
	}
}

func containsMessage(messages []models.Message, needle string) bool {
	for _, m := range messages {
		if strings.Contains(strings.ToLower(m.Content), needle) {
			return true
		}
	}
	return false
}

func preview(messages []models.Message) string {
	if len(messages) == 0 {
		return ""
	}
	runes := []rune(messages[0].Content)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return string(runes)
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// validateID keeps ids usable as single path elements.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
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
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(content, dst)
}
