package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/shared/testutil"
)

func TestNewErrorHandler(t *testing.T) {
	for _, includeStack := range []bool{true, false} {
		logger, _ := testutil.NewTestLogger(t)
		handler := NewErrorHandler(logger, includeStack)

		assert.NotNil(t, handler)
		assert.Equal(t, includeStack, handler.includeStack)
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "wrapped cancellation",
			err:        fmt.Errorf("analyze: %w", context.Canceled),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "run not found",
			err:        ErrRunNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   TypeRunNotFound,
			wantCode:   "RUN_NOT_FOUND",
		},
		{
			name:       "invalid request",
			err:        ErrInvalidRequest,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "payload too large",
			err:        ErrPayloadTooLarge,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
			wantCode:   "PAYLOAD_TOO_LARGE",
		},
		{
			name:       "unrecognized batch layout",
			err:        fmt.Errorf("normalize: %w", NewNormalizationError("weekly", []string{"part"})),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataFormat,
			wantCode:   "FORMAT",
		},
		{
			name:       "unreadable spreadsheet",
			err:        NewParsingError("cannot open workbook", nil),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeDataParsing,
			wantCode:   "PARSING",
		},
		{
			name:       "app validation",
			err:        NewAppValidationError("year is required"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "VALIDATION",
		},
		{
			name:       "storage failure is internal",
			err:        NewStorageError("disk full", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
			w := httptest.NewRecorder()
			handler.HandleError(w, req, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/analyze", body["instance"])
			assert.Contains(t, body, "trace_id")
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			assert.NotContains(t, body, "stack")

			testutil.AssertLogContains(t, logs, slog.LevelError, "request failed")
		})
	}
}

func TestErrorHandler_FormatErrorExtensions(t *testing.T) {
	handler := NewErrorHandler(nil, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/normalize", nil)
	w := httptest.NewRecorder()

	handler.HandleError(w, req, NewNormalizationError("monthly", []string{"customer", "cliente"}))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "monthly", body["format"])
	assert.Equal(t, []interface{}{"customer", "cliente"}, body["searched_aliases"])
}

func TestErrorHandler_NilError(t *testing.T) {
	handler := NewErrorHandler(nil, false)
	w := httptest.NewRecorder()

	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, w.Body.Len())
}

func TestErrorHandler_RequestID(t *testing.T) {
	handler := NewErrorHandler(nil, true)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/x", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-42"))
	w := httptest.NewRecorder()

	handler.HandleError(w, req, ErrRunNotFound)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "req-42", body["trace_id"])
	assert.Contains(t, body, "stack")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	w := httptest.NewRecorder()

	handler.HandlePanic(w, httptest.NewRequest(http.MethodGet, "/boom", nil), "nil map write")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, logs.ContainsMessage("panic recovered"))
	assert.NotContains(t, w.Body.String(), "nil map write")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	handler := NewErrorHandler(nil, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/v1/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "DELETE")
}
