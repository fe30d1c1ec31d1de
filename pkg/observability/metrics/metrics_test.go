package metrics

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteReportsCounters(t *testing.T) {
	before := chatMessages.Load()
	ChatMessage()
	ChatMessage()
	BackupFinished(errors.New("boom"))

	var buf bytes.Buffer
	Write(&buf)
	out := buf.String()

	assert.Contains(t, out, "# TYPE alpha_chat_messages_total counter")
	assert.Contains(t, out, fmt.Sprintf("alpha_chat_messages_total %d\n", before+2))
	assert.Contains(t, out, "# TYPE alpha_training_active gauge")
	assert.Contains(t, out, "alpha_backups_failed_total")
}

func TestTrainingGauge(t *testing.T) {
	TrainingStarted()
	assert.Equal(t, int64(1), trainingActive.Load())
	TrainingFinished(false)
	assert.Equal(t, int64(0), trainingActive.Load())
}
