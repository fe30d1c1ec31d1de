package events

import (
	"context"

	"github.com/thealphakenya/Alphaai/pkg/common/kafka"
	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
	"github.com/thealphakenya/Alphaai/pkg/observability/metrics"
)

const Source = "alpha-server"

// KafkaPublisher publishes lifecycle events to the training events topic.
type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, data map[string]interface{}) error {
	return p.producer.Publish(ctx, eventType, data)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher writes events to the structured log instead of a broker.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, eventType string, data map[string]interface{}) error {
	logger.Log.WithFields(data).WithField("event_type", eventType).Debug("Lifecycle event")
	return nil
}

// Audit returns a consumer handler that logs every event read back from the
// broker.
func Audit() kafka.EventHandler {
	return func(ctx context.Context, event models.Event) error {
		metrics.EventAudited()
		logger.Log.WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
			"source":     event.Source,
			"data":       event.Data,
		}).Info("Lifecycle event audited")
		return nil
	}
}
