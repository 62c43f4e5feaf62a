package commission

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-commission/internal/common"
	"github.com/noah-isme/backend-commission/internal/lock"
	"github.com/noah-isme/backend-commission/internal/resilience"
)

// Enqueuer schedules an asynchronous recalculation and returns the task id.
type Enqueuer interface {
	EnqueueCalculation(ctx context.Context, invoiceID int64) (string, error)
}

// Handler exposes the commission endpoints.
type Handler struct {
	Svc   *Service
	Queue Enqueuer
}

// Routes mounts the handler under the caller's router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/invoice/calculate/{invoiceId}", h.Calculate)
	r.Post("/invoice/recalculate/{invoiceId}", h.Recalculate)
	r.Post("/invoice/{invoiceId}/commission/preview", h.Preview)
}

// Calculate computes, stores and returns the invoice commission as a bare JSON number.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "commission service not configured", nil)
		return
	}
	invoiceID, ok := invoiceIDParam(w, r)
	if !ok {
		return
	}
	total, err := h.Svc.CalculateTotalCommission(r.Context(), invoiceID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, total)
}

// Preview returns the per-rule breakdown without persisting anything.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "commission service not configured", nil)
		return
	}
	invoiceID, ok := invoiceIDParam(w, r)
	if !ok {
		return
	}
	result, err := h.Svc.Preview(r.Context(), invoiceID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, result)
}

// Recalculate queues a background calculation.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	if h.Queue == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "background recalculation not configured", nil)
		return
	}
	invoiceID, ok := invoiceIDParam(w, r)
	if !ok {
		return
	}
	taskID, err := h.Queue.EnqueueCalculation(r.Context(), invoiceID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to enqueue recalculation", nil)
		return
	}
	common.Data(w, http.StatusAccepted, map[string]any{"taskId": taskID, "invoiceId": invoiceID})
}

func invoiceIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := common.ParseID(chi.URLParam(r, "invoiceId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invoiceId must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	common.WriteError(w, toAppError(err))
}

func toAppError(err error) *common.AppError {
	switch {
	case errors.Is(err, ErrInvoiceNotFound):
		return common.NewAppError("NOT_FOUND", "invoice not found", http.StatusNotFound, err)
	case IsConfigurationError(err):
		appErr := common.NewAppError("INVALID_RULE", err.Error(), http.StatusUnprocessableEntity, err)
		var ruleErr *RuleError
		if errors.As(err, &ruleErr) {
			appErr = appErr.WithDetails(map[string]any{
				"ruleId": ruleErr.RuleID,
				"type":   ruleErr.Type.String(),
				"level":  ruleErr.Level.String(),
			})
		}
		return appErr
	case errors.Is(err, lock.ErrNotAcquired):
		return common.NewAppError("CONFLICT", "commission calculation already in progress", http.StatusConflict, err)
	case errors.Is(err, resilience.ErrOpenCircuit):
		return common.NewAppError("UNAVAILABLE", "commission store unavailable", http.StatusServiceUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return common.NewAppError("TIMEOUT", "commission calculation timed out", http.StatusGatewayTimeout, err)
	default:
		return common.NewAppError("INTERNAL", "failed to calculate commission", http.StatusInternalServerError, err)
	}
}
