package security

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const previewBody = `{"invoice_id":42}`

func TestBodyLimitRejectsOversizedPayloads(t *testing.T) {
	cases := []struct {
		name          string
		body          string
		contentLength int64
	}{
		{name: "declared length over limit", body: previewBody, contentLength: 4096},
		{name: "chunked body over limit", body: previewBody + strings.Repeat(" ", 32), contentLength: -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reached := false
			handler := BodyLimit{Max: int64(len(previewBody))}.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				reached = true
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/invoice/42/commission/preview", strings.NewReader(tc.body))
			req.ContentLength = tc.contentLength
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.False(t, reached)
			require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

			var payload struct {
				Error struct {
					Code    string         `json:"code"`
					Details map[string]any `json:"details"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			require.Equal(t, "PAYLOAD_TOO_LARGE", payload.Error.Code)
			require.EqualValues(t, len(previewBody), payload.Error.Details["maxBytes"])
		})
	}
}

func TestBodyLimitBuffersAcceptedBody(t *testing.T) {
	handler := BodyLimit{Max: 1 << 10}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, int64(len(first)), r.ContentLength)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write(first)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/invoice/recalculate/42", strings.NewReader(previewBody))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.JSONEq(t, previewBody, rec.Body.String())
}

func TestBodyLimitDisabledWhenMaxUnset(t *testing.T) {
	large := strings.Repeat("x", 1<<12)
	handler := BodyLimit{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Len(t, data, len(large))
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/invoice/calculate/42", strings.NewReader(large)))
	require.Equal(t, http.StatusOK, rec.Code)
}
