package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipseek/internal/models"
	"clipseek/internal/services"
	"clipseek/internal/tasks"
	"clipseek/internal/worker"
)

type stubProvider struct {
	status    models.TaskStatus
	detail    string
	statusErr error
}

func (p *stubProvider) Name() string { return "stub" }
func (p *stubProvider) ListIndexes(ctx context.Context) ([]models.Index, error) { return nil, nil }
func (p *stubProvider) CreateIndex(ctx context.Context, name string) (string, error) {
	return "idx", nil
}
func (p *stubProvider) EnsureIndex(ctx context.Context, name string) (string, error) {
	return "idx", nil
}
func (p *stubProvider) CreateVideoTask(ctx context.Context, indexID, path string) (*models.TaskHandle, error) {
	return &models.TaskHandle{TaskID: "job_1", VideoID: "vid_1"}, nil
}
func (p *stubProvider) TaskStatus(ctx context.Context, taskID string) (*models.TaskStatusInfo, error) {
	if p.statusErr != nil {
		return nil, p.statusErr
	}
	return &models.TaskStatusInfo{TaskID: taskID, VideoID: "vid_1", Status: p.status, Detail: p.detail}, nil
}
func (p *stubProvider) SearchText(ctx context.Context, params services.ProviderSearchParams) ([]models.SearchMatch, error) {
	return nil, nil
}
func (p *stubProvider) SearchImage(ctx context.Context, params services.ProviderImageSearchParams) ([]models.SearchMatch, error) {
	return nil, nil
}

type stubRegistry struct {
	entries map[string]models.Video
}

func (r *stubRegistry) IndexID(ctx context.Context) (string, error) { return "idx", nil }
func (r *stubRegistry) SetIndexID(ctx context.Context, id string) error { return nil }
func (r *stubRegistry) Upsert(ctx context.Context, v models.Video) error {
	if r.entries == nil {
		r.entries = make(map[string]models.Video)
	}
	r.entries[v.TaskID] = v
	return nil
}
func (r *stubRegistry) FindByVideoID(ctx context.Context, id string) (*models.Video, error) {
	return nil, models.ErrNotFound
}
func (r *stubRegistry) FindByTaskID(ctx context.Context, id string) (*models.Video, error) {
	v, ok := r.entries[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &v, nil
}
func (r *stubRegistry) List(ctx context.Context) ([]models.Video, error) { return nil, nil }

func checkTask(t *testing.T, taskID string) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(tasks.VideoCheckPayload{TaskID: taskID})
	require.NoError(t, err)
	return asynq.NewTask(tasks.TypeVideoCheck, payload)
}

func newCheckDeps(provider *stubProvider, registry *stubRegistry) worker.Deps {
	ingest := services.NewIngestService(services.IngestServiceDeps{
		Provider:  provider,
		Tracker:   services.NewTracker(provider, services.AwaitOptions{}),
		Registry:  registry,
		IndexName: "test-index",
	})
	return worker.Deps{Ingest: ingest}
}

func TestHandleVideoCheck_ReadySettles(t *testing.T) {
	registry := &stubRegistry{}
	require.NoError(t, registry.Upsert(context.Background(), models.Video{
		TaskID: "job_1", Filename: "clip.mp4", Status: models.TaskStatusPending,
	}))
	deps := newCheckDeps(&stubProvider{status: models.TaskStatusReady}, registry)

	err := worker.HandleVideoCheck(deps)(context.Background(), checkTask(t, "job_1"))
	require.NoError(t, err)

	entry, err := registry.FindByTaskID(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusReady, entry.Status)
	assert.Equal(t, "vid_1", entry.VideoID)
	assert.NotNil(t, entry.IndexedAt)
}

func TestHandleVideoCheck_StillRunningRetries(t *testing.T) {
	deps := newCheckDeps(&stubProvider{status: models.TaskStatusProcessing}, &stubRegistry{})

	err := worker.HandleVideoCheck(deps)(context.Background(), checkTask(t, "job_1"))
	require.Error(t, err, "a running task must come back for another check")
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleVideoCheck_FailedFinishes(t *testing.T) {
	deps := newCheckDeps(&stubProvider{status: models.TaskStatusFailed, detail: "bad codec"}, &stubRegistry{})

	err := worker.HandleVideoCheck(deps)(context.Background(), checkTask(t, "job_1"))
	assert.NoError(t, err, "a terminal failure is settled, not retried")
}

func TestHandleVideoCheck_UnknownTaskSkipsRetry(t *testing.T) {
	deps := newCheckDeps(&stubProvider{statusErr: models.ErrNotFound}, &stubRegistry{})

	err := worker.HandleVideoCheck(deps)(context.Background(), checkTask(t, "job_gone"))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleVideoIngest_BadPayloadSkipsRetry(t *testing.T) {
	deps := newCheckDeps(&stubProvider{}, &stubRegistry{})

	task := asynq.NewTask(tasks.TypeVideoIngest, []byte("{not json"))
	err := worker.HandleVideoIngest(deps)(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
