package services

import (
	"context"
	"io"

	"clipseek/internal/models"
)

// VideoIndexProvider is the boundary to the external multimodal video
// understanding API. The provider is the semantic engine: embedding,
// indexing, and ranking all happen on its side. Nothing here is retried or
// cached locally; that is the tracker's and the services' job.
type VideoIndexProvider interface {
	Name() string

	ListIndexes(ctx context.Context) ([]models.Index, error)
	CreateIndex(ctx context.Context, name string) (string, error)
	// EnsureIndex returns the id of an existing index with the given name,
	// creating it when absent.
	EnsureIndex(ctx context.Context, name string) (string, error)

	// CreateVideoTask uploads the video file and starts a remote indexing
	// task. Provider rejection surfaces as *models.SubmissionError.
	CreateVideoTask(ctx context.Context, indexID, videoPath string) (*models.TaskHandle, error)
	// TaskStatus is a single status observation. Communication-level
	// failures surface as *models.TransientError.
	TaskStatus(ctx context.Context, taskID string) (*models.TaskStatusInfo, error)

	SearchText(ctx context.Context, params ProviderSearchParams) ([]models.SearchMatch, error)
	SearchImage(ctx context.Context, params ProviderImageSearchParams) ([]models.SearchMatch, error)
}

// ProviderSearchParams describes a text query against an index.
type ProviderSearchParams struct {
	IndexID   string
	Query     string
	Options   []string // modalities: visual, audio
	Threshold models.ConfidenceTier
	PageLimit int
}

// ProviderImageSearchParams describes an image query against an index.
type ProviderImageSearchParams struct {
	IndexID   string
	Image     io.Reader
	ImageName string
	Options   []string
	Threshold models.ConfidenceTier
	PageLimit int
}
