package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"clipseek/internal/models"
	"clipseek/internal/services"
	"clipseek/internal/store"
	"clipseek/internal/tasks"
)

// Deps bundles what the background handlers need.
type Deps struct {
	Ingest    *services.IngestService
	JobClient store.JobClient
}

// RegisterHandlers wires the video task handlers into the asynq mux.
func RegisterHandlers(mux *asynq.ServeMux, deps Deps) {
	mux.HandleFunc(tasks.TypeVideoIngest, HandleVideoIngest(deps))
	mux.HandleFunc(tasks.TypeVideoCheck, HandleVideoCheck(deps))
}

// HandleVideoIngest uploads a video and waits for its indexing task.
//
// Outcome mapping matters here: a submission rejection or a provider-side
// terminal failure will not improve on re-run, so those skip asynq's retry.
// A local await timeout leaves the remote task running, so instead of
// re-uploading we hand the handle to a video:check task.
func HandleVideoIngest(deps Deps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload tasks.VideoIngestPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode ingest payload: %v: %w", err, asynq.SkipRetry)
		}

		logger := log.WithField("file", payload.Filepath)
		logger.Info("background ingest started")

		video, err := deps.Ingest.IngestFile(ctx, payload.Filepath, services.AwaitOptions{})
		if err == nil {
			logger.WithField("video_id", video.VideoID).Info("background ingest complete")
			return nil
		}

		var timeoutErr *models.AwaitTimeoutError
		if errors.As(err, &timeoutErr) {
			logger.WithField("task_id", timeoutErr.TaskID).Warn("await timed out, scheduling follow-up check")
			if deps.JobClient != nil {
				if _, checkErr := deps.JobClient.EnqueueVideoCheck(ctx, timeoutErr.TaskID); checkErr != nil {
					return fmt.Errorf("schedule follow-up check for task %s: %w", timeoutErr.TaskID, checkErr)
				}
				return nil
			}
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		var submissionErr *models.SubmissionError
		var failedErr *models.TaskFailedError
		if errors.As(err, &submissionErr) || errors.As(err, &failedErr) {
			logger.WithError(err).Error("ingest failed permanently")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		// Anything else (escalated transient failures included) is worth an
		// asynq retry.
		return err
	}
}

// HandleVideoCheck performs one status observation of a remote indexing
// task. While the task is still running the handler returns an error so
// asynq re-schedules it with backoff; terminal outcomes settle the registry
// entry and finish the task.
func HandleVideoCheck(deps Deps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload tasks.VideoCheckPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode check payload: %v: %w", err, asynq.SkipRetry)
		}

		info, err := deps.Ingest.CheckTask(ctx, payload.TaskID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("task %s unknown to provider: %w", payload.TaskID, asynq.SkipRetry)
			}
			return err
		}

		switch info.Status {
		case models.TaskStatusReady:
			log.WithFields(log.Fields{"task_id": payload.TaskID, "video_id": info.VideoID}).
				Info("deferred indexing task completed")
			return nil
		case models.TaskStatusFailed:
			log.WithField("task_id", payload.TaskID).Errorf("deferred indexing task failed: %s", info.Detail)
			return nil
		default:
			return fmt.Errorf("task %s still %s", payload.TaskID, info.Status)
		}
	}
}
