package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
	"github.com/thealphakenya/Alphaai/pkg/memory"
	"github.com/thealphakenya/Alphaai/pkg/observability/metrics"
)

const (
	DefaultConversationID = "default"
	DefaultUserID         = "anonymous"
)

// Responder produces the assistant reply for the latest user message.
type Responder interface {
	Respond(ctx context.Context, message string, history []models.Message) (string, error)
}

// ConversationStore is the part of memory.Store chat needs.
type ConversationStore interface {
	GetConversation(ctx context.Context, id string) (models.Conversation, error)
	SaveConversation(ctx context.Context, id string, messages []models.Message, metadata map[string]interface{}) error
}

type Service struct {
	store     ConversationStore
	responder Responder
	now       func() time.Time
}

func NewService(store ConversationStore, responder Responder) *Service {
	return &Service{store: store, responder: responder, now: time.Now}
}

// Handle appends the user message and the reply to the conversation and
// saves it. A missing conversation starts empty.
func (s *Service) Handle(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	if req.ConversationID == "" {
		req.ConversationID = DefaultConversationID
	}
	if req.UserID == "" {
		req.UserID = DefaultUserID
	}

	conversation, err := s.store.GetConversation(ctx, req.ConversationID)
	if err != nil && !errors.Is(err, memory.ErrNotFound) {
		return models.ChatResponse{}, fmt.Errorf("load conversation: %w", err)
	}
	messages := conversation.Messages
	metadata := conversation.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["user_id"] = req.UserID

	messages = append(messages, models.Message{Role: "user", Content: req.Message, Timestamp: s.timestamp()})

	reply, err := s.responder.Respond(ctx, req.Message, messages)
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("generate response: %w", err)
	}
	messages = append(messages, models.Message{Role: "assistant", Content: reply, Timestamp: s.timestamp()})

	if err := s.store.SaveConversation(ctx, req.ConversationID, messages, metadata); err != nil {
		return models.ChatResponse{}, fmt.Errorf("save conversation: %w", err)
	}

	metrics.ChatMessage()
	logger.Log.WithFields(map[string]interface{}{
		"conversation_id": req.ConversationID,
		"user_id":         req.UserID,
		"messages":        len(messages),
	}).Debug("Chat message handled")

	return models.ChatResponse{Response: reply, ConversationID: req.ConversationID}, nil
}

func (s *Service) timestamp() float64 {
	return float64(s.now().UnixNano()) / float64(time.Second)
}
