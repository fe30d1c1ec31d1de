package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thealphakenya/Alphaai/pkg/common/config"
	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
	"github.com/thealphakenya/Alphaai/pkg/gateway/httpclient"
)

const systemPrompt = "You are Alpha, a helpful assistant that remembers earlier messages in the conversation."

var errEmptyCompletion = errors.New("llm returned no choices")

// LLMResponder calls an OpenAI-compatible chat completions endpoint.
type LLMResponder struct {
	apiKey    string
	baseURL   string
	modelName string
	retries   int
	client    *http.Client
}

func NewLLMResponder(cfg *config.Config) *LLMResponder {
	return &LLMResponder{
		apiKey:    cfg.LLMAPIKey,
		baseURL:   strings.TrimRight(cfg.LLMBaseURL, "/"),
		modelName: cfg.LLMModelName,
		retries:   cfg.LLMRetries,
		client:    httpclient.New(cfg.LLMTimeout),
	}
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

func (r *LLMResponder) Respond(ctx context.Context, message string, history []models.Message) (string, error) {
	if r.apiKey == "" {
		// Development fallback.
		return "I received your message: \"" + message + "\". Configure LLM_API_KEY to get real answers.", nil
	}

	payload := completionRequest{
		Model:       r.modelName,
		Messages:    []completionMessage{{Role: "system", Content: systemPrompt}},
		Temperature: 0.7,
	}
	for _, m := range history {
		payload.Messages = append(payload.Messages, completionMessage{Role: m.Role, Content: m.Content})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var reply string
	err = httpclient.Retry(ctx, r.retries, 200*time.Millisecond, func() error {
		var callErr error
		reply, callErr = r.call(ctx, body)
		return callErr
	})
	if err != nil {
		logger.Log.WithError(err).WithField("model", r.modelName).Error("LLM call failed")
		return "", err
	}
	return reply, nil
}

func (r *LLMResponder) call(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &httpclient.StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	var completion completionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return completion.Choices[0].Message.Content, nil
}
