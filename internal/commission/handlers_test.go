package commission_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-commission/internal/commission"
	"github.com/noah-isme/backend-commission/internal/lock"
	"github.com/noah-isme/backend-commission/internal/resilience"
)

type stubEnqueuer struct {
	ids []int64
	err error
}

func (s *stubEnqueuer) EnqueueCalculation(_ context.Context, invoiceID int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.ids = append(s.ids, invoiceID)
	return commission.LockKey(invoiceID), nil
}

func newRouter(h *commission.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	return r
}

func post(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
	return rr
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestCalculateHandlerReturnsBareNumber(t *testing.T) {
	inv := invoice(item(1, "100.00", 2), item(2, "50.00", 3))
	repo := repoWith(inv, commission.Rule{ID: 1, Type: commission.TypePercentage, Level: commission.LevelInvoice, Percentage: mp("10")})
	router := newRouter(&commission.Handler{Svc: &commission.Service{Repo: repo}})

	rr := post(t, router, "/api/invoice/calculate/1")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "35.00", strings.TrimSpace(rr.Body.String()))
	require.Len(t, repo.saves, 1)
}

func TestCalculateHandlerErrors(t *testing.T) {
	inv := invoice(item(1, "10", 1))
	repo := repoWith(inv, commission.Rule{ID: 9, Type: commission.TypeFlat, Level: commission.LevelMultiplesOfProduct})
	router := newRouter(&commission.Handler{Svc: &commission.Service{Repo: repo}})

	rr := post(t, router, "/api/invoice/calculate/abc")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = post(t, router, "/api/invoice/calculate/0")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = post(t, router, "/api/invoice/calculate/404")
	require.Equal(t, http.StatusNotFound, rr.Code)
	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)

	rr = post(t, router, "/api/invoice/calculate/1")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body = errorEnvelope{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "INVALID_RULE", body.Error.Code)
	require.Equal(t, float64(9), body.Error.Details["ruleId"])
	require.Equal(t, "flat", body.Error.Details["type"])
	require.Equal(t, "multiples_of_product", body.Error.Details["level"])
}

func TestCalculateHandlerHidesStorageErrors(t *testing.T) {
	repo := repoWith(invoice())
	repo.getErr = errors.New("dial tcp 10.0.0.5:5432: connection refused")
	router := newRouter(&commission.Handler{Svc: &commission.Service{Repo: repo}})

	rr := post(t, router, "/api/invoice/calculate/1")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "10.0.0.5")
}

func TestCalculateHandlerMapsInfrastructureErrors(t *testing.T) {
	cases := map[error]int{
		lock.ErrNotAcquired:       http.StatusConflict,
		resilience.ErrOpenCircuit: http.StatusServiceUnavailable,
		context.DeadlineExceeded:  http.StatusGatewayTimeout,
	}
	for cause, status := range cases {
		repo := repoWith(invoice())
		repo.getErr = cause
		router := newRouter(&commission.Handler{Svc: &commission.Service{Repo: repo}})
		rr := post(t, router, "/api/invoice/calculate/1")
		require.Equal(t, status, rr.Code, cause.Error())
	}
}

func TestPreviewHandler(t *testing.T) {
	inv := invoice(item(1, "10.00", 5))
	repo := repoWith(inv, commission.Rule{ID: 1, Type: commission.TypeFlat, Level: commission.LevelProduct, FlatAmount: mp("2.00")})
	router := newRouter(&commission.Handler{Svc: &commission.Service{Repo: repo}})

	rr := post(t, router, "/api/invoice/1/commission/preview")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data struct {
			InvoiceID     int64           `json:"invoiceId"`
			Total         json.Number     `json:"total"`
			Contributions []map[string]any `json:"contributions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, int64(1), body.Data.InvoiceID)
	require.Equal(t, "10.00", body.Data.Total.String())
	require.Len(t, body.Data.Contributions, 1)
	require.Equal(t, "flat", body.Data.Contributions[0]["type"])
	require.Empty(t, repo.saves)
}

func TestRecalculateHandler(t *testing.T) {
	queue := &stubEnqueuer{}
	router := newRouter(&commission.Handler{Queue: queue})

	rr := post(t, router, "/api/invoice/recalculate/12")
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Equal(t, []int64{12}, queue.ids)
	require.Contains(t, rr.Body.String(), `"taskId":"commission:invoice:12"`)

	queue.err = errors.New("redis down")
	rr = post(t, router, "/api/invoice/recalculate/12")
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = post(t, newRouter(&commission.Handler{}), "/api/invoice/recalculate/12")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
