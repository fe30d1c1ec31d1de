package training

import (
	"context"
	"database/sql"
	"time"

	"github.com/thealphakenya/Alphaai/pkg/common/models"
)

// Stats summarises recorded runs for dashboards.
type Stats struct {
	TotalRuns          int        `json:"totalRuns"`
	SuccessfulRuns     int        `json:"successfulRuns"`
	FailedRuns         int        `json:"failedRuns"`
	AvgDurationSeconds float64    `json:"avgDurationSeconds"`
	LastRunAt          *time.Time `json:"lastRunAt,omitempty"`
	Health             string     `json:"health"`
}

// Summarize computes Stats over in-memory history.
func Summarize(runs []models.TrainingRun, modelName string) Stats {
	var stats Stats
	var total float64
	for _, run := range runs {
		if modelName != "" && run.ModelName != modelName {
			continue
		}
		stats.TotalRuns++
		if run.Success {
			stats.SuccessfulRuns++
		}
		total += run.Duration
		if stats.LastRunAt == nil || run.StartTime.After(*stats.LastRunAt) {
			started := run.StartTime
			stats.LastRunAt = &started
		}
	}
	stats.FailedRuns = stats.TotalRuns - stats.SuccessfulRuns
	if stats.TotalRuns > 0 {
		stats.AvgDurationSeconds = total / float64(stats.TotalRuns)
	}
	stats.Health = deriveHealth(stats)
	return stats
}

// Stats aggregates the mirrored runs in Postgres.
func (r *Repository) Stats(ctx context.Context, modelName string) (Stats, error) {
	var row struct {
		Total      sql.NullInt64   `gorm:"column:total"`
		Successful sql.NullInt64   `gorm:"column:successful"`
		Duration   sql.NullFloat64 `gorm:"column:avg_duration"`
		LastRun    sql.NullTime    `gorm:"column:last_run"`
	}

	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE success) AS successful,
			AVG(duration_seconds) AS avg_duration,
			MAX(started_at) AS last_run
		FROM training_runs`
	args := []interface{}{}
	if modelName != "" {
		query += ` WHERE model_name = ?`
		args = append(args, modelName)
	}
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&row).Error; err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalRuns:      int(row.Total.Int64),
		SuccessfulRuns: int(row.Successful.Int64),
	}
	stats.FailedRuns = stats.TotalRuns - stats.SuccessfulRuns
	if row.Duration.Valid {
		stats.AvgDurationSeconds = row.Duration.Float64
	}
	if row.LastRun.Valid {
		last := row.LastRun.Time
		stats.LastRunAt = &last
	}
	stats.Health = deriveHealth(stats)
	return stats, nil
}

// deriveHealth is "idle" without runs, then healthy, degraded or failing by
// success ratio.
func deriveHealth(stats Stats) string {
	if stats.TotalRuns == 0 {
		return "idle"
	}
	ratio := float64(stats.SuccessfulRuns) / float64(stats.TotalRuns)
	switch {
	case ratio >= 0.9:
		return "healthy"
	case ratio >= 0.5:
		return "degraded"
	default:
		return "failing"
	}
}
