// Package queue schedules background commission recalculation on asynq.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeCalculateCommission recalculates and stores one invoice's commission.
const TypeCalculateCommission = "commission:calculate"

// CalculatePayload is the JSON body of a TypeCalculateCommission task.
type CalculatePayload struct {
	InvoiceID int64 `json:"invoiceId"`
}

// TaskID is the deduplication id for an invoice; while a task with this id
// is pending, further enqueues collapse into it.
func TaskID(invoiceID int64) string {
	return fmt.Sprintf("commission:%d", invoiceID)
}

// NewCalculateTask builds the task for invoiceID.
func NewCalculateTask(invoiceID int64, opts ...asynq.Option) (*asynq.Task, error) {
	if invoiceID <= 0 {
		return nil, errors.New("queue: invoice id must be positive")
	}
	payload, err := json.Marshal(CalculatePayload{InvoiceID: invoiceID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCalculateCommission, payload, opts...), nil
}

// ParseCalculatePayload decodes and validates a task payload.
func ParseCalculatePayload(raw []byte) (CalculatePayload, error) {
	var p CalculatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode payload: %w", err)
	}
	if p.InvoiceID <= 0 {
		return p, fmt.Errorf("decode payload: invalid invoice id %d", p.InvoiceID)
	}
	return p, nil
}
