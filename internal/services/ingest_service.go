package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"clipseek/internal/models"
	"clipseek/internal/store"
	"clipseek/internal/videofs"
)

// IngestServiceDeps bundles the collaborators IngestService needs.
type IngestServiceDeps struct {
	Provider  VideoIndexProvider
	Tracker   *Tracker
	Registry  store.VideoRegistry
	CostStore store.CostTrackingStore
	JobClient store.JobClient // optional; required only for async ingestion
	IndexName string
}

// IngestService owns the upload-and-wait pipeline: resolve the index, submit
// a video, wait for the indexing task, record the outcome in the registry.
type IngestService struct {
	deps IngestServiceDeps
}

func NewIngestService(deps IngestServiceDeps) *IngestService {
	return &IngestService{deps: deps}
}

// EnsureIndex returns the working index id, resolving and caching it in the
// registry on first use.
func (s *IngestService) EnsureIndex(ctx context.Context) (string, error) {
	indexID, err := s.deps.Registry.IndexID(ctx)
	if err != nil {
		return "", fmt.Errorf("read index id from registry: %w", err)
	}
	if indexID != "" {
		return indexID, nil
	}

	indexID, err = s.deps.Provider.EnsureIndex(ctx, s.deps.IndexName)
	if err != nil {
		return "", fmt.Errorf("ensure provider index %q: %w", s.deps.IndexName, err)
	}
	if err := s.deps.Registry.SetIndexID(ctx, indexID); err != nil {
		return "", fmt.Errorf("record index id: %w", err)
	}
	return indexID, nil
}

// IngestFile uploads one video and blocks until its indexing task settles.
// On success the video is recorded in the registry as ready. Submission
// rejections, terminal failures, and await timeouts propagate with their
// taxonomy types intact so callers can message them differently.
func (s *IngestService) IngestFile(ctx context.Context, path string, opts AwaitOptions) (*models.Video, error) {
	meta, err := videofs.ExtractFileMeta(path)
	if err != nil {
		return nil, fmt.Errorf("stat video %s: %w", path, err)
	}
	if !videofs.IsVideoFile(meta.Path) {
		return nil, fmt.Errorf("%w: %s is not a recognized video file", models.ErrInvalidInput, path)
	}

	indexID, err := s.EnsureIndex(ctx)
	if err != nil {
		return nil, err
	}

	handle, err := s.deps.Tracker.Submit(ctx, indexID, meta.Path)
	if err != nil {
		return nil, err
	}

	// Record the submission before waiting so a timed-out await still
	// leaves a resumable entry behind.
	pending := models.Video{
		VideoID:  handle.VideoID,
		TaskID:   handle.TaskID,
		Filename: meta.Name,
		Filepath: meta.Path,
		Status:   models.TaskStatusPending,
	}
	if err := s.deps.Registry.Upsert(ctx, pending); err != nil {
		log.WithError(err).Warnf("failed to record pending video %s in registry", meta.Name)
	}

	result, err := s.deps.Tracker.Await(ctx, handle.TaskID, opts)
	if err != nil {
		return nil, err
	}
	if result.VideoID == "" {
		result.VideoID = handle.VideoID
	}

	now := time.Now().UTC()
	video := models.Video{
		VideoID:     result.VideoID,
		TaskID:      handle.TaskID,
		Filename:    meta.Name,
		Filepath:    meta.Path,
		Status:      models.TaskStatusReady,
		DurationSec: result.DurationSec,
		IndexedAt:   &now,
	}
	if err := s.deps.Registry.Upsert(ctx, video); err != nil {
		return nil, fmt.Errorf("record ingested video %s: %w", meta.Name, err)
	}

	s.recordProcessingCost(ctx, video)

	log.WithFields(log.Fields{
		"video_id": video.VideoID,
		"task_id":  video.TaskID,
		"file":     video.Filename,
		"elapsed":  result.Elapsed.Round(time.Second),
		"polls":    result.Polls,
	}).Info("video indexed")
	return &video, nil
}

// EnqueueIngest schedules background ingestion of one video file.
func (s *IngestService) EnqueueIngest(ctx context.Context, path string) (string, error) {
	if s.deps.JobClient == nil {
		return "", fmt.Errorf("job client is not configured; run with redis available or ingest synchronously")
	}
	meta, err := videofs.ExtractFileMeta(path)
	if err != nil {
		return "", fmt.Errorf("stat video %s: %w", path, err)
	}
	if !videofs.IsVideoFile(meta.Path) {
		return "", fmt.Errorf("%w: %s is not a recognized video file", models.ErrInvalidInput, path)
	}
	return s.deps.JobClient.EnqueueVideoIngest(ctx, meta.Path)
}

// CheckTask performs one status observation for a task handle and, when the
// task has settled, folds the outcome back into the registry. This is the
// follow-up path after an await timeout.
func (s *IngestService) CheckTask(ctx context.Context, taskID string) (*models.TaskStatusInfo, error) {
	info, err := s.deps.Provider.TaskStatus(ctx, taskID)
	if err != nil {
		return nil, err
	}

	entry, regErr := s.deps.Registry.FindByTaskID(ctx, taskID)
	if regErr != nil {
		// Task not tracked locally; nothing to update.
		return info, nil
	}

	if entry.Status != info.Status {
		entry.Status = info.Status
		if info.VideoID != "" {
			entry.VideoID = info.VideoID
		}
		if info.DurationSec > 0 {
			entry.DurationSec = info.DurationSec
		}
		if info.Status == models.TaskStatusReady && entry.IndexedAt == nil {
			now := time.Now().UTC()
			entry.IndexedAt = &now
		}
		if err := s.deps.Registry.Upsert(ctx, *entry); err != nil {
			log.WithError(err).Warnf("failed to update registry entry for task %s", taskID)
		}
	}
	return info, nil
}

// recordProcessingCost logs the estimated indexing spend for one video.
// Ledger problems never fail an ingest.
func (s *IngestService) recordProcessingCost(ctx context.Context, video models.Video) {
	if s.deps.CostStore == nil {
		return
	}
	minutes := video.DurationSec / 60
	if _, err := s.deps.CostStore.RecordVideoProcessing(ctx, 1, minutes); err != nil {
		log.WithError(err).Warn("failed to record video processing cost")
	}
}
