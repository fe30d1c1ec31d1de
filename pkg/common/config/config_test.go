package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 0.85, cfg.AcceptThreshold)
	assert.Equal(t, 0.70, cfg.RetrainThreshold)
	assert.Equal(t, 10, cfg.DefaultEpochs)
	assert.Equal(t, 15, cfg.RetrainEpochs)
	assert.Equal(t, 5*time.Second, cfg.LearningInterval)
	assert.Equal(t, time.Hour, cfg.BackupInterval)
	assert.Equal(t, 5*time.Minute, cfg.BackupRetryInterval)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("TRAINING_ACCEPT_THRESHOLD", "0.9")
	t.Setenv("TRAINING_LEARNING_INTERVAL", "250ms")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("TRAINING_DEFAULT_EPOCHS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 0.9, cfg.AcceptThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.LearningInterval)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, 10, cfg.DefaultEpochs)
}

func TestLoadFileOverlaysYAML(t *testing.T) {
	t.Setenv("GITHUB_REPO", "env/repo")
	path := filepath.Join(t.TempDir(), "alpha.yaml")
	require.NoError(t, os.WriteFile(path, []byte("github_token: secret\nretrain_epochs: 20\nlearning_interval: 2s\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "env/repo", cfg.GitHubRepo)
	assert.Equal(t, "secret", cfg.GitHubToken)
	assert.Equal(t, 20, cfg.RetrainEpochs)
	assert.Equal(t, 2*time.Second, cfg.LearningInterval)
}

func TestLoadFileErrors(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retrain_epochs: [1, 2"), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
