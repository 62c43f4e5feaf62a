package queue

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

// TaskClient is the subset of *asynq.Client used for enqueueing.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer publishes recalculation tasks.
type Enqueuer struct {
	Client   TaskClient
	Queue    string
	MaxRetry int
	Timeout  time.Duration
}

// EnqueueCalculation schedules a recalculation and returns its task id. A
// recalculation already pending for the invoice is reused.
func (e Enqueuer) EnqueueCalculation(ctx context.Context, invoiceID int64) (string, error) {
	if e.Client == nil {
		return "", errors.New("queue: client not configured")
	}
	id := TaskID(invoiceID)
	opts := []asynq.Option{asynq.TaskID(id), asynq.MaxRetry(e.MaxRetry)}
	if e.Queue != "" {
		opts = append(opts, asynq.Queue(e.Queue))
	}
	if e.Timeout > 0 {
		opts = append(opts, asynq.Timeout(e.Timeout))
	}
	task, err := NewCalculateTask(invoiceID, opts...)
	if err != nil {
		return "", err
	}
	if _, err := e.Client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return id, nil
		}
		return "", err
	}
	return id, nil
}
