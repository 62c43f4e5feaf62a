package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-commission/internal/common"
)

func newIdem(t *testing.T) (common.Idem, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return common.Idem{R: client, TTL: time.Minute}, mr
}

func TestIdempotencyRejectsReplay(t *testing.T) {
	idem, _ := newIdem(t)
	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(common.IdempotencyHeader, "abc")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	require.Equal(t, http.StatusOK, send("/api/invoice/calculate/1"))
	require.Equal(t, http.StatusConflict, send("/api/invoice/calculate/1"))
	require.Equal(t, http.StatusOK, send("/api/invoice/calculate/2"))
	require.Equal(t, 2, calls)
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	idem, mr := newIdem(t)
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/invoice/calculate/1", nil)
	req.Header.Set(common.IdempotencyHeader, "retry-me")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Empty(t, mr.Keys())
}

func TestIdempotencyReleasesKeyAfterConflict(t *testing.T) {
	idem, mr := newIdem(t)
	busy := true
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if busy {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "calculation already in progress", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/invoice/calculate/1", nil)
		req.Header.Set(common.IdempotencyHeader, "same-key")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	first := send()
	require.Equal(t, http.StatusConflict, first.Code)
	require.Contains(t, first.Body.String(), `"CONFLICT"`)
	require.Empty(t, mr.Keys())

	busy = false
	require.Equal(t, http.StatusOK, send().Code)
	require.Len(t, mr.Keys(), 1)
	require.Contains(t, send().Body.String(), "IDEMPOTENT_REPLAY")
}

func TestIdempotencyPassesThroughWithoutHeader(t *testing.T) {
	idem, mr := newIdem(t)
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/invoice/calculate/1", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Empty(t, mr.Keys())
}
