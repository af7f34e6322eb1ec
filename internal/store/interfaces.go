package store

import (
	"context"

	"github.com/hibiken/asynq"

	"clipseek/internal/models"
)

// --- Job Client ---

type JobClient interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	EnqueueVideoIngest(ctx context.Context, filepath string) (string, error)
	EnqueueVideoCheck(ctx context.Context, taskID string) (string, error)
	Close() error
}

// --- Video Registry ---

// VideoRegistry is the thin JSON cache mapping provider video/task ids back
// to local files. It is not a vector database: all semantic state lives with
// the provider.
type VideoRegistry interface {
	IndexID(ctx context.Context) (string, error)
	SetIndexID(ctx context.Context, indexID string) error
	Upsert(ctx context.Context, video models.Video) error
	FindByVideoID(ctx context.Context, videoID string) (*models.Video, error)
	FindByTaskID(ctx context.Context, taskID string) (*models.Video, error)
	List(ctx context.Context) ([]models.Video, error)
}

// --- Cost Tracking Store ---

type CostTrackingStore interface {
	RecordVideoProcessing(ctx context.Context, videoCount int, durationMinutes float64) (*models.CostSession, error)
	RecordSearchQueries(ctx context.Context, queryCount int) (*models.CostSession, error)
	ListSessions(ctx context.Context, limit int) ([]models.CostSession, error)
	Summary(ctx context.Context) (*CostSummary, error)
}

// CostSummary aggregates the ledger.
type CostSummary struct {
	TotalCost       float64
	VideoProcessing float64
	SearchQueries   float64
	SessionCount    int
	BudgetUSD       float64
}

// BudgetRemaining returns how much of the configured budget is left.
func (s *CostSummary) BudgetRemaining() float64 {
	return s.BudgetUSD - s.TotalCost
}
