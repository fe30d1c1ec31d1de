package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrRunNotFound = errors.New("training run not found")

// DefaultListLimit caps run listings that do not ask for a limit.
const DefaultListLimit = 50

type RunModel struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey;column:id"`
	ModelName    string            `gorm:"column:model_name;index"`
	DatasetPath  string            `gorm:"column:dataset_path"`
	Params       datatypes.JSONMap `gorm:"column:params"`
	Stages       datatypes.JSON    `gorm:"column:stages"`
	Success      bool              `gorm:"column:success"`
	ErrorMessage string            `gorm:"column:error_message"`
	Duration     float64           `gorm:"column:duration_seconds"`
	StartedAt    time.Time         `gorm:"column:started_at"`
	CompletedAt  time.Time         `gorm:"column:completed_at"`
	CreatedAt    time.Time         `gorm:"column:created_at"`
}

func (RunModel) TableName() string {
	return "training_runs"
}

// Repository mirrors run history into Postgres.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&RunModel{})
}

func (r *Repository) Record(ctx context.Context, run models.TrainingRun) error {
	row, err := toRow(run)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) Get(ctx context.Context, runID uuid.UUID) (models.TrainingRun, error) {
	var row RunModel
	result := r.db.WithContext(ctx).First(&row, "id = ?", runID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.TrainingRun{}, ErrRunNotFound
	}
	if result.Error != nil {
		return models.TrainingRun{}, result.Error
	}
	return fromRow(&row)
}

// List returns the newest limit runs of modelName (all models when empty),
// oldest first like the file history. A limit of zero or less means
// DefaultListLimit.
func (r *Repository) List(ctx context.Context, modelName string, limit int) ([]models.TrainingRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var rows []RunModel
	tx := r.db.WithContext(ctx)
	if modelName != "" {
		tx = tx.Where("model_name = ?", modelName)
	}
	if err := tx.Order("started_at desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	runs := make([]models.TrainingRun, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		run, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func toRow(run models.TrainingRun) (*RunModel, error) {
	id, err := uuid.Parse(run.RunID)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", run.RunID, err)
	}
	stages, err := json.Marshal(run.Stages)
	if err != nil {
		return nil, fmt.Errorf("encode stages: %w", err)
	}
	return &RunModel{
		ID:           id,
		ModelName:    run.ModelName,
		DatasetPath:  run.DatasetPath,
		Params:       datatypes.JSONMap(run.Params),
		Stages:       datatypes.JSON(stages),
		Success:      run.Success,
		ErrorMessage: run.Error,
		Duration:     run.Duration,
		StartedAt:    run.StartTime,
		CompletedAt:  run.EndTime,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func fromRow(row *RunModel) (models.TrainingRun, error) {
	run := models.TrainingRun{
		RunID:       row.ID.String(),
		ModelName:   row.ModelName,
		DatasetPath: row.DatasetPath,
		StartTime:   row.StartedAt,
		EndTime:     row.CompletedAt,
		Duration:    row.Duration,
		Success:     row.Success,
		Error:       row.ErrorMessage,
	}
	if row.Params != nil {
		run.Params = map[string]interface{}(row.Params)
	}
	if len(row.Stages) > 0 {
		if err := json.Unmarshal(row.Stages, &run.Stages); err != nil {
			return models.TrainingRun{}, fmt.Errorf("decode stages: %w", err)
		}
	}
	return run, nil
}
