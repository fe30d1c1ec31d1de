package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StatusResponse is the envelope every command-style endpoint answers with.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func Success(message string) StatusResponse {
	return StatusResponse{Status: StatusSuccess, Message: message}
}

func Failure(message string) StatusResponse {
	return StatusResponse{Status: StatusError, Message: message}
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // training.started, training.stage, training.completed, ...
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Training
type TrainingRequest struct {
	ModelName   string                 `json:"model_name"`
	DatasetPath string                 `json:"dataset_path"`
	Params      map[string]interface{} `json:"params"`
}

type ContinuousLearningRequest struct {
	ModelName string `json:"model_name"`
}

// StageResult holds the metrics a stage produced, e.g. accuracy and loss.
type StageResult map[string]float64

type StageEntry struct {
	Name   string
	Result StageResult
}

// Stages keeps stage results in the order the pipeline produced them and
// encodes as a JSON object with the same key order.
type Stages []StageEntry

func (s *Stages) Set(name string, result StageResult) {
	for i := range *s {
		if (*s)[i].Name == name {
			(*s)[i].Result = result
			return
		}
	}
	*s = append(*s, StageEntry{Name: name, Result: result})
}

func (s Stages) Get(name string) (StageResult, bool) {
	for _, entry := range s {
		if entry.Name == name {
			return entry.Result, true
		}
	}
	return nil, false
}

func (s Stages) Names() []string {
	names := make([]string, 0, len(s))
	for _, entry := range s {
		names = append(names, entry.Name)
	}
	return names
}

func (s Stages) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Result)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Stages) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("stages: expected object, got %v", tok)
	}
	var result Stages
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("stages: expected key, got %v", tok)
		}
		var value StageResult
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("stages: decode %s: %w", name, err)
		}
		result = append(result, StageEntry{Name: name, Result: value})
	}
	*s = result
	return nil
}

// TrainingRun is one history record.
type TrainingRun struct {
	RunID       string                 `json:"run_id"`
	ModelName   string                 `json:"model_name"`
	DatasetPath string                 `json:"dataset_path"`
	Params      map[string]interface{} `json:"params,omitempty"`
	Stages      Stages                 `json:"stages"`
	StartTime   time.Time              `json:"start_time"`
	EndTime     time.Time              `json:"end_time"`
	Duration    float64                `json:"duration"`
	Success     bool                   `json:"success"`
	Error       string                 `json:"error,omitempty"`
}

type Progress struct {
	TrainingModel      int  `json:"training_model"`
	TestingModel       int  `json:"testing_model"`
	FixingModel        int  `json:"fixing_model"`
	RetestingModel     int  `json:"retesting_model"`
	GettingReady       int  `json:"getting_ready"`
	InUse              bool `json:"in_use"`
	ContinuousLearning int  `json:"continuous_learning"`
}

type ProgressSnapshot struct {
	Stage      string   `json:"stage"`
	Progress   Progress `json:"progress"`
	IsTraining bool     `json:"is_training"`
}

// Chat
type Message struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

type Conversation struct {
	ID       string                 `json:"id"`
	Messages []Message              `json:"messages"`
	Metadata map[string]interface{} `json:"metadata"`
}

type ConversationMatch struct {
	ID        string `json:"id"`
	Preview   string `json:"preview"`
	Timestamp string `json:"timestamp"`
}

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}
