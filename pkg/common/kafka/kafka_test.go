package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thealphakenya/Alphaai/pkg/common/config"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
)

func TestNewProducerUsesTrainingEventsTopic(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, TrainingEventsTopic: "alpha.training.events"}
	p := NewProducer(cfg, "alpha-server")
	defer p.Close()

	assert.Equal(t, "alpha.training.events", p.Topic())
	assert.Equal(t, "alpha-server", p.source)
}

func TestNewMessage(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		data   map[string]interface{}
		expKey string
	}{
		"Events about a model should be keyed by the model name.": {
			data:   map[string]interface{}{"model_name": "demo", "stage": "testing_model"},
			expKey: "demo",
		},
		"Events without a model should be keyed by their ID.": {
			data:   map[string]interface{}{"reason": "shutdown"},
			expKey: "evt-1",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			event := models.Event{ID: "evt-1", Type: "training.stage", Source: "alpha-server", Data: test.data, Timestamp: at}

			msg, err := newMessage(event)
			require.NoError(t, err)
			assert.Equal(t, test.expKey, string(msg.Key))
			assert.Equal(t, at, msg.Time)

			headers := map[string]string{}
			for _, h := range msg.Headers {
				headers[h.Key] = string(h.Value)
			}
			assert.Equal(t, map[string]string{"event-id": "evt-1", "event-type": "training.stage", "source": "alpha-server"}, headers)

			decoded, err := decodeMessage(msg)
			require.NoError(t, err)
			assert.Equal(t, event.ID, decoded.ID)
			assert.Equal(t, event.Type, decoded.Type)
			assert.Equal(t, test.data, decoded.Data)
		})
	}
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	_, err := decodeMessage(kafka.Message{Offset: 42, Value: []byte("{")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 42")

	var target *json.SyntaxError
	assert.ErrorAs(t, err, &target)
}
