package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"clipseek/internal/models"
)

// AwaitOptions controls one Await call. Zero fields fall back to the
// tracker's defaults.
type AwaitOptions struct {
	// PollInterval is the fixed delay between status checks. Job durations
	// in this domain are moderate and provider rate limits generous, so a
	// fixed interval beats adaptive backoff here.
	PollInterval time.Duration
	// MaxWait bounds the total time spent polling. Exceeding it abandons
	// the wait locally; the remote task is not cancelled.
	MaxWait time.Duration
	// TransientRetries is how many consecutive communication failures are
	// tolerated before escalating.
	TransientRetries int
}

// Tracker submits indexing work to the provider and polls task status until
// a terminal state or a deadline. Each Await call owns its own loop and
// touches no shared state, so the tracker is safe for concurrent use across
// independent handles; concurrent awaits on the same handle simply poll
// redundantly.
type Tracker struct {
	provider VideoIndexProvider
	defaults AwaitOptions

	// Overridable in tests so the poll budget can be verified without
	// real sleeps.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewTracker(provider VideoIndexProvider, defaults AwaitOptions) *Tracker {
	if defaults.PollInterval <= 0 {
		defaults.PollInterval = 5 * time.Second
	}
	if defaults.MaxWait <= 0 {
		defaults.MaxWait = 10 * time.Minute
	}
	if defaults.TransientRetries <= 0 {
		defaults.TransientRetries = 3
	}
	return &Tracker{
		provider: provider,
		defaults: defaults,
		now:      time.Now,
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
}

// Submit uploads the video and starts a remote indexing task, returning its
// handle. A provider rejection (*models.SubmissionError) is surfaced
// immediately and never retried: quota and malformed-content failures do not
// fix themselves.
func (t *Tracker) Submit(ctx context.Context, indexID, videoPath string) (*models.TaskHandle, error) {
	handle, err := t.provider.CreateVideoTask(ctx, indexID, videoPath)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"task_id":  handle.TaskID,
		"video_id": handle.VideoID,
		"path":     videoPath,
	}).Info("video upload accepted, indexing task created")
	return handle, nil
}

// Await polls the task until it is ready or failed, or until MaxWait
// elapses.
//
//   - ready: the result payload is returned immediately, no further polls.
//   - failed: *models.TaskFailedError with the provider detail, no retry.
//   - still pending/processing at the deadline: *models.AwaitTimeoutError;
//     the handle stays valid for a later check.
//   - transient poll failures are retried at the same fixed interval up to
//     TransientRetries consecutive times, then escalated.
//
// Cancelling ctx abandons the wait and returns the context error. In every
// non-ready outcome the remote task keeps running.
func (t *Tracker) Await(ctx context.Context, taskID string, opts AwaitOptions) (*models.TaskResult, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: empty task id", models.ErrInvalidInput)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = t.defaults.PollInterval
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = t.defaults.MaxWait
	}
	if opts.TransientRetries <= 0 {
		opts.TransientRetries = t.defaults.TransientRetries
	}

	logger := log.WithField("task_id", taskID)
	start := t.now()
	polls := 0
	transientFailures := 0
	lastStatus := models.TaskStatusPending

	for {
		info, err := t.provider.TaskStatus(ctx, taskID)
		polls++
		switch {
		case err == nil:
			transientFailures = 0
			lastStatus = info.Status
			logger.WithFields(log.Fields{"status": info.Status, "raw": info.RawStatus, "poll": polls}).Debug("task status")

			switch info.Status {
			case models.TaskStatusReady:
				return &models.TaskResult{
					TaskID:      taskID,
					VideoID:     info.VideoID,
					Status:      info.Status,
					RawStatus:   info.RawStatus,
					DurationSec: info.DurationSec,
					Elapsed:     t.now().Sub(start),
					Polls:       polls,
				}, nil
			case models.TaskStatusFailed:
				return nil, &models.TaskFailedError{TaskID: taskID, Detail: info.Detail}
			}
			// pending/processing: fall through to the sleep below.

		case models.IsTransient(err):
			transientFailures++
			logger.WithError(err).Warnf("transient poll failure (%d/%d)", transientFailures, opts.TransientRetries)
			if transientFailures >= opts.TransientRetries {
				return nil, fmt.Errorf("polling task %s: %w", taskID, err)
			}

		default:
			// Non-transient, non-status error: context cancellation or a
			// client bug. Not ours to retry.
			return nil, err
		}

		elapsed := t.now().Sub(start)
		if elapsed+opts.PollInterval > opts.MaxWait {
			logger.WithFields(log.Fields{"waited": elapsed, "polls": polls}).
				Warn("deadline reached while task still running; task was not cancelled remotely")
			return nil, &models.AwaitTimeoutError{
				TaskID:     taskID,
				LastStatus: lastStatus,
				Waited:     elapsed,
			}
		}

		if err := t.sleep(ctx, opts.PollInterval); err != nil {
			return nil, err
		}
	}
}

// SubmitAndAwait is the common ingest path: upload, then block until the
// indexing task settles.
func (t *Tracker) SubmitAndAwait(ctx context.Context, indexID, videoPath string, opts AwaitOptions) (*models.TaskResult, error) {
	handle, err := t.Submit(ctx, indexID, videoPath)
	if err != nil {
		return nil, err
	}
	result, err := t.Await(ctx, handle.TaskID, opts)
	if err != nil {
		return nil, err
	}
	// Some providers only assign the video id once indexing settles; prefer
	// the upload-time id when the poll response omits it.
	if result.VideoID == "" {
		result.VideoID = handle.VideoID
	}
	return result, nil
}
