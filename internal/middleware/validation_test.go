package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/tech-visionarieshub/evco-dashboard-sub001/internal/errors"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/shared/testutil"
)

type weekRequest struct {
	Week    string  `json:"week" validate:"required,isoweek"`
	Qty     float64 `json:"qty" validate:"gte=0"`
	File    string  `json:"file,omitempty" validate:"omitempty,filename"`
	Ignored string  `json:"-"`
}

func TestValidator_Struct(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name      string
		req       weekRequest
		wantField string
	}{
		{name: "valid", req: weekRequest{Week: "2025-W07", Qty: 3}},
		{name: "lower case w", req: weekRequest{Week: "2025-w53"}},
		{name: "missing week", req: weekRequest{}, wantField: "week"},
		{name: "week zero", req: weekRequest{Week: "2025-W00"}, wantField: "week"},
		{name: "week 54", req: weekRequest{Week: "2025-W54"}, wantField: "week"},
		{name: "month key", req: weekRequest{Week: "2025-07"}, wantField: "week"},
		{name: "negative qty", req: weekRequest{Week: "2025-W07", Qty: -1}, wantField: "qty"},
		{name: "traversal filename", req: weekRequest{Week: "2025-W07", File: "../etc/passwd"}, wantField: "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(&tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			require.Len(t, details.Errors, 1)
			assert.Equal(t, tt.wantField, details.Errors[0].Field)
		})
	}
}

func TestValidator_DecodeJSON(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "valid", body: `{"week":"2025-W01","qty":5}`},
		{name: "empty body", body: ``, wantCode: "VALIDATION_FAILED"},
		{name: "syntax error", body: `{"week":}`, wantCode: "INVALID_JSON"},
		{name: "wrong type", body: `{"week":"2025-W01","qty":"five"}`, wantCode: "INVALID_JSON"},
		{name: "fails validation", body: `{"week":"soon"}`, wantCode: "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst weekRequest
			err := v.DecodeJSON(req, &dst)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "2025-W01", dst.Week)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}

	t.Run("oversized body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"week":"2025-W01","qty":5}`))
		req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, 4)
		var dst weekRequest
		assert.Equal(t, apierrors.ErrPayloadTooLarge, v.DecodeJSON(req, &dst))
	})
}

func TestContentTypeValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := ContentTypeValidator(apierrors.NewErrorHandler(logger, false), "application/json")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{name: "json", method: http.MethodPost, contentType: "application/json; charset=utf-8", want: http.StatusOK},
		{name: "form", method: http.MethodPost, contentType: "text/plain", want: http.StatusUnsupportedMediaType},
		{name: "get skips check", method: http.MethodGet, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestQueryParamValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	qv := NewQueryParamValidator(apierrors.NewErrorHandler(logger, false))

	intTests := []struct {
		query  string
		want   int
		wantOK bool
	}{
		{query: "", want: 4, wantOK: true},
		{query: "horizon=12", want: 12, wantOK: true},
		{query: "horizon=0", wantOK: false},
		{query: "horizon=105", wantOK: false},
		{query: "horizon=ten", wantOK: false},
	}
	for _, tt := range intTests {
		t.Run("int "+tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			got, ok := qv.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil), "horizon", 1, 104, 4)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "horizon")
		})
	}

	allowed := []string{"part", "part-customer"}
	rec := httptest.NewRecorder()
	got, ok := qv.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?group_by=part-customer", nil), "group_by", allowed, "part")
	assert.True(t, ok)
	assert.Equal(t, "part-customer", got)

	got, ok = qv.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/", nil), "group_by", allowed, "part")
	assert.True(t, ok)
	assert.Equal(t, "part", got)

	rec = httptest.NewRecorder()
	_, ok = qv.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?group_by=customer", nil), "group_by", allowed, "part")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
