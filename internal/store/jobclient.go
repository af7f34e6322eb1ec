package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"clipseek/internal/tasks"
)

// AsynqJobClient is the concrete JobClient backed by an asynq (redis) queue.
var _ JobClient = (*AsynqJobClient)(nil)

type AsynqJobClient struct {
	client *asynq.Client
}

func NewAsynqJobClient(redisAddr, redisPassword string, redisDB int) (*AsynqJobClient, error) {
	if redisAddr == "" {
		return nil, fmt.Errorf("redis address is required for the job client")
	}
	cli := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
	return &AsynqJobClient{client: cli}, nil
}

func (jc *AsynqJobClient) Close() error {
	return jc.client.Close()
}

func (jc *AsynqJobClient) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if jc.client == nil {
		return nil, fmt.Errorf("job client is not initialized")
	}
	info, err := jc.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	log.WithFields(log.Fields{"task_id": info.ID, "type": task.Type(), "queue": info.Queue}).Debug("task enqueued")
	return info, nil
}

// EnqueueVideoIngest schedules background ingestion of one video file and
// returns the queue task id.
func (jc *AsynqJobClient) EnqueueVideoIngest(ctx context.Context, filepath string) (string, error) {
	payload, err := json.Marshal(tasks.VideoIngestPayload{Filepath: filepath})
	if err != nil {
		return "", fmt.Errorf("encode ingest payload: %w", err)
	}
	task := asynq.NewTask(tasks.TypeVideoIngest, payload)
	info, err := jc.Enqueue(ctx, task, asynq.Queue("ingest"), asynq.MaxRetry(2))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// EnqueueVideoCheck schedules a follow-up status check for an indexing task
// that timed out locally.
func (jc *AsynqJobClient) EnqueueVideoCheck(ctx context.Context, taskID string) (string, error) {
	payload, err := json.Marshal(tasks.VideoCheckPayload{TaskID: taskID})
	if err != nil {
		return "", fmt.Errorf("encode check payload: %w", err)
	}
	task := asynq.NewTask(tasks.TypeVideoCheck, payload)
	info, err := jc.Enqueue(ctx, task, asynq.Queue("ingest"), asynq.MaxRetry(5))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}
