package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipseek/internal/models"
	"clipseek/internal/services"
)

func tempVideoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake video"), 0o644))
	return path
}

func newIngestService(provider services.VideoIndexProvider, registry *memRegistry) *services.IngestService {
	return services.NewIngestService(services.IngestServiceDeps{
		Provider:  provider,
		Tracker:   services.NewTracker(provider, services.AwaitOptions{}),
		Registry:  registry,
		IndexName: "clipseek",
	})
}

func TestIngestFile_Success(t *testing.T) {
	provider := &scriptedProvider{
		handle: &models.TaskHandle{TaskID: "job_1", VideoID: "vid_1"},
		steps: []pollStep{
			{status: models.TaskStatusPending},
			{status: models.TaskStatusReady},
		},
	}
	registry := newMemRegistry("idx_test")
	svc := newIngestService(provider, registry)

	video, err := svc.IngestFile(context.Background(), tempVideoFile(t), fastOpts())
	require.NoError(t, err)

	assert.Equal(t, "vid_1", video.VideoID)
	assert.Equal(t, models.TaskStatusReady, video.Status)
	assert.Equal(t, "clip.mp4", video.Filename)
	require.NotNil(t, video.IndexedAt)

	stored, err := registry.FindByTaskID(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusReady, stored.Status)
}

func TestIngestFile_TimeoutLeavesResumableEntry(t *testing.T) {
	provider := &scriptedProvider{
		handle: &models.TaskHandle{TaskID: "job_slow", VideoID: "vid_slow"},
		steps:  []pollStep{{status: models.TaskStatusProcessing}},
	}
	registry := newMemRegistry("idx_test")
	svc := newIngestService(provider, registry)

	_, err := svc.IngestFile(context.Background(), tempVideoFile(t), services.AwaitOptions{
		PollInterval:     time.Millisecond,
		MaxWait:          5 * time.Millisecond,
		TransientRetries: 3,
	})
	require.Error(t, err)

	var timeout *models.AwaitTimeoutError
	require.ErrorAs(t, err, &timeout)

	// The pending record written before the wait survives the timeout, so a
	// later status check can settle it.
	entry, findErr := registry.FindByTaskID(context.Background(), "job_slow")
	require.NoError(t, findErr)
	assert.Equal(t, models.TaskStatusPending, entry.Status)
}

func TestIngestFile_RejectsNonVideoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	svc := newIngestService(&scriptedProvider{}, newMemRegistry("idx_test"))

	_, err := svc.IngestFile(context.Background(), path, fastOpts())
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestIngestFile_MissingFile(t *testing.T) {
	svc := newIngestService(&scriptedProvider{}, newMemRegistry("idx_test"))

	_, err := svc.IngestFile(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), fastOpts())
	require.Error(t, err)
}

func TestEnsureIndex_CachedInRegistry(t *testing.T) {
	provider := &scriptedProvider{}
	registry := newMemRegistry("")
	svc := newIngestService(provider, registry)

	id, err := svc.EnsureIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "idx_test", id)

	cached, err := registry.IndexID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "idx_test", cached)
}

func TestCheckTask_SettlesRegistryEntry(t *testing.T) {
	provider := &scriptedProvider{
		steps: []pollStep{{status: models.TaskStatusReady}},
	}
	registry := newMemRegistry("idx_test")
	require.NoError(t, registry.Upsert(context.Background(), models.Video{
		TaskID: "job_1", Filename: "clip.mp4", Status: models.TaskStatusPending,
	}))
	svc := newIngestService(provider, registry)

	info, err := svc.CheckTask(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusReady, info.Status)

	entry, err := registry.FindByTaskID(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusReady, entry.Status)
	assert.NotNil(t, entry.IndexedAt)
}
