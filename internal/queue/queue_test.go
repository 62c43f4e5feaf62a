package queue_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-commission/internal/commission"
	"github.com/noah-isme/backend-commission/internal/money"
	"github.com/noah-isme/backend-commission/internal/queue"
)

type clientStub struct {
	tasks []*asynq.Task
	err   error
}

func (c *clientStub) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	c.tasks = append(c.tasks, task)
	if c.err != nil {
		return nil, c.err
	}
	return &asynq.TaskInfo{ID: "x", Type: task.Type()}, nil
}

func TestEnqueueCalculation(t *testing.T) {
	client := &clientStub{}
	id, err := queue.Enqueuer{Client: client, Queue: "commission", MaxRetry: 3}.EnqueueCalculation(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, "commission:42", id)
	require.Len(t, client.tasks, 1)
	require.Equal(t, queue.TypeCalculateCommission, client.tasks[0].Type())
	require.JSONEq(t, `{"invoiceId":42}`, string(client.tasks[0].Payload()))
}

func TestEnqueueCalculationCollapsesDuplicates(t *testing.T) {
	client := &clientStub{err: asynq.ErrTaskIDConflict}
	id, err := queue.Enqueuer{Client: client}.EnqueueCalculation(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, queue.TaskID(7), id)
}

func TestEnqueueCalculationErrors(t *testing.T) {
	_, err := queue.Enqueuer{}.EnqueueCalculation(context.Background(), 7)
	require.Error(t, err)

	boom := errors.New("redis down")
	_, err = queue.Enqueuer{Client: &clientStub{err: boom}}.EnqueueCalculation(context.Background(), 7)
	require.ErrorIs(t, err, boom)

	_, err = queue.Enqueuer{Client: &clientStub{}}.EnqueueCalculation(context.Background(), 0)
	require.Error(t, err)
}

type calcStub struct {
	ids []int64
	err error
}

func (c *calcStub) CalculateTotalCommission(_ context.Context, id int64) (money.Money, error) {
	c.ids = append(c.ids, id)
	return money.MustParse("12.50"), c.err
}

func task(t *testing.T, id int64) *asynq.Task {
	t.Helper()
	tk, err := queue.NewCalculateTask(id)
	require.NoError(t, err)
	return tk
}

func TestProcessTaskSuccess(t *testing.T) {
	calc := &calcStub{}
	require.NoError(t, queue.Handler{Calc: calc}.ProcessTask(context.Background(), task(t, 5)))
	require.Equal(t, []int64{5}, calc.ids)
}

func TestProcessTaskRetryPolicy(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		skipRetry bool
	}{
		{"not found", fmt.Errorf("%w: id 5", commission.ErrInvoiceNotFound), true},
		{"invalid rule", &commission.RuleError{RuleID: 1, Err: commission.ErrInvalidRuleConfiguration}, true},
		{"unsupported type", commission.ErrUnsupportedRuleType, true},
		{"transient", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := queue.Handler{Calc: &calcStub{err: tc.err}}.ProcessTask(context.Background(), task(t, 5))
			require.Error(t, err)
			require.Equal(t, tc.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestProcessTaskRejectsMalformedPayload(t *testing.T) {
	calc := &calcStub{}
	err := queue.Handler{Calc: calc}.ProcessTask(context.Background(), asynq.NewTask(queue.TypeCalculateCommission, []byte(`{"invoiceId":"x"}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, calc.ids)
}

func TestServeMuxRoutesCalculateTasks(t *testing.T) {
	calc := &calcStub{}
	mux := queue.NewServeMux(queue.Handler{Calc: calc})
	require.NoError(t, mux.ProcessTask(context.Background(), task(t, 9)))
	require.Equal(t, []int64{9}, calc.ids)
}
