package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipseek/internal/models"
)

// stuckProvider always reports the same non-terminal status.
type stuckProvider struct {
	status models.TaskStatus
	polls  int
}

func (p *stuckProvider) Name() string { return "stuck" }
func (p *stuckProvider) ListIndexes(ctx context.Context) ([]models.Index, error) {
	return nil, nil
}
func (p *stuckProvider) CreateIndex(ctx context.Context, name string) (string, error) {
	return "idx", nil
}
func (p *stuckProvider) EnsureIndex(ctx context.Context, name string) (string, error) {
	return "idx", nil
}
func (p *stuckProvider) CreateVideoTask(ctx context.Context, indexID, path string) (*models.TaskHandle, error) {
	return &models.TaskHandle{TaskID: "job_1"}, nil
}
func (p *stuckProvider) TaskStatus(ctx context.Context, taskID string) (*models.TaskStatusInfo, error) {
	p.polls++
	return &models.TaskStatusInfo{TaskID: taskID, Status: p.status}, nil
}
func (p *stuckProvider) SearchText(ctx context.Context, params ProviderSearchParams) ([]models.SearchMatch, error) {
	return nil, nil
}
func (p *stuckProvider) SearchImage(ctx context.Context, params ProviderImageSearchParams) ([]models.SearchMatch, error) {
	return nil, nil
}

// withFakeClock replaces the tracker's clock with a virtual one so the wait
// loop runs without real sleeps: each sleep advances the clock by exactly
// its duration.
func withFakeClock(t *Tracker) *time.Time {
	current := time.Unix(0, 0)
	t.now = func() time.Time { return current }
	t.sleep = func(ctx context.Context, d time.Duration) error {
		current = current.Add(d)
		return nil
	}
	return &current
}

func TestAwait_TimeoutPollBudgetIsExact(t *testing.T) {
	provider := &stuckProvider{status: models.TaskStatusPending}
	tracker := NewTracker(provider, AwaitOptions{})
	clock := withFakeClock(tracker)

	_, err := tracker.Await(context.Background(), "job_slow", AwaitOptions{
		PollInterval:     time.Second,
		MaxWait:          10 * time.Second,
		TransientRetries: 3,
	})
	require.Error(t, err)

	var timeout *models.AwaitTimeoutError
	require.ErrorAs(t, err, &timeout)

	// One poll at t=0, then one per interval: 11 polls for a 10s wait
	// at 1s, exactly floor(maxWait/interval)+1.
	assert.Equal(t, 11, provider.polls)
	assert.Equal(t, 10*time.Second, timeout.Waited)
	assert.Equal(t, 10*time.Second, clock.Sub(time.Unix(0, 0)))
	assert.Equal(t, models.TaskStatusPending, timeout.LastStatus)
}

func TestAwait_NonDivisibleBudgetRoundsDown(t *testing.T) {
	provider := &stuckProvider{status: models.TaskStatusProcessing}
	tracker := NewTracker(provider, AwaitOptions{})
	withFakeClock(tracker)

	_, err := tracker.Await(context.Background(), "job_slow", AwaitOptions{
		PollInterval:     3 * time.Second,
		MaxWait:          10 * time.Second,
		TransientRetries: 3,
	})
	require.Error(t, err)

	var timeout *models.AwaitTimeoutError
	require.ErrorAs(t, err, &timeout)

	// floor(10/3)+1 = 4 polls at t=0,3,6,9; a fifth poll would land past
	// the deadline.
	assert.Equal(t, 4, provider.polls)
	assert.Equal(t, 9*time.Second, timeout.Waited)
}
