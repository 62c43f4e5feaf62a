package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-commission/internal/commission"
	"github.com/noah-isme/backend-commission/internal/money"
	"github.com/noah-isme/backend-commission/internal/obs"
)

// Calculator runs one commission calculation.
type Calculator interface {
	CalculateTotalCommission(ctx context.Context, invoiceID int64) (money.Money, error)
}

// Handler processes TypeCalculateCommission tasks.
type Handler struct {
	Calc   Calculator
	Logger *zerolog.Logger
}

// ProcessTask implements asynq.Handler. Missing invoices, misconfigured rules
// and malformed payloads will not succeed on retry and skip it.
func (h Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := ParseCalculatePayload(t.Payload())
	if err != nil {
		observeTask("invalid")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	total, err := h.Calc.CalculateTotalCommission(ctx, payload.InvoiceID)
	if err != nil {
		if errors.Is(err, commission.ErrInvoiceNotFound) || commission.IsConfigurationError(err) {
			observeTask("skipped")
			h.log().Warn().Err(err).Int64("invoice_id", payload.InvoiceID).Msg("commission_task_skipped")
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		observeTask("retry")
		retried, _ := asynq.GetRetryCount(ctx)
		h.log().Error().Err(err).Int64("invoice_id", payload.InvoiceID).Int("retried", retried).Msg("commission_task_failed")
		return err
	}
	observeTask("ok")
	h.log().Info().Int64("invoice_id", payload.InvoiceID).Str("total", total.StringFixed(money.Cents)).Msg("commission_task_done")
	return nil
}

// NewServeMux routes commission task types to h.
func NewServeMux(h Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeCalculateCommission, h)
	return mux
}

func observeTask(result string) {
	if obs.CommissionTasksTotal != nil {
		obs.CommissionTasksTotal.WithLabelValues(result).Inc()
	}
}

func (h Handler) log() *zerolog.Logger {
	if h.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return h.Logger
}
