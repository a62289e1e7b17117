package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/config"
	apierrors "github.com/tech-visionarieshub/evco-dashboard-sub001/internal/errors"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/exporter"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/middleware"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/services"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/shared/testutil"
	api "github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/api/v1"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

type testServer struct {
	router http.Handler
	paths  *config.Paths
	dir    string
}

func newTestServer(t *testing.T, maxUploadBytes int64) *testServer {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	cfg := config.Default().Analysis
	cfg.DefaultYear = 2025
	svc, err := services.NewAnalysisService(cfg, nil, nil, logger)
	require.NoError(t, err)

	base := t.TempDir()
	paths := &config.Paths{
		BaseDir:    base,
		DataDir:    filepath.Join(base, "data"),
		UploadsDir: filepath.Join(base, "data", "uploads"),
		ReportsDir: filepath.Join(base, "data", "reports"),
		LogsDir:    filepath.Join(base, "logs"),
	}
	require.NoError(t, paths.EnsureDirectories())

	errorHandler := apierrors.NewErrorHandler(logger, false)
	handler := NewAnalysisHandler(svc, exporter.NewReportWriter(paths, logger), maxUploadBytes, errorHandler, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api/v1", handler.Routes())

	return &testServer{router: r, paths: paths, dir: t.TempDir()}
}

type upload struct {
	field string
	path  string
}

func multipartRequest(t *testing.T, target string, uploads ...upload) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, u := range uploads {
		part, err := mw.CreateFormFile(u.field, filepath.Base(u.path))
		require.NoError(t, err)
		data, err := os.ReadFile(u.path)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeRun(t *testing.T, rec *httptest.ResponseRecorder) *domain.Run {
	t.Helper()
	var resp api.RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, api.StatusSuccess, resp.Status)
	require.NotNil(t, resp.Data)
	return resp.Data
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestAnalysisHandler_Normalize(t *testing.T) {
	s := newTestServer(t, config.DefaultMaxUploadBytes)
	client := testutil.WriteXLSX(t, s.dir, "client.xlsx", testutil.WeeklyClientSheet())

	rec := s.do(multipartRequest(t, "/api/v1/normalize", upload{api.FormFieldFile, client}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	run := decodeRun(t, rec)
	assert.Equal(t, domain.RunKindNormalize, run.Kind)
	assert.Len(t, run.Normalized, 6)
	assert.Equal(t, "/api/v1/runs/"+run.ID, rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestAnalysisHandler_NormalizeYear(t *testing.T) {
	s := newTestServer(t, config.DefaultMaxUploadBytes)
	client := testutil.WriteCSV(t, s.dir, "client.csv", testutil.WeeklyClientSheet())

	rec := s.do(multipartRequest(t, "/api/v1/normalize?year=2026", upload{api.FormFieldFile, client}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	run := decodeRun(t, rec)
	require.NotEmpty(t, run.Normalized)
	assert.Equal(t, "2026-W01", run.Normalized[0].PeriodKey)
}

func TestAnalysisHandler_NormalizeErrors(t *testing.T) {
	s := newTestServer(t, 64*1024)
	noIdentifiers := testutil.WriteXLSX(t, s.dir, "bad.xlsx", testutil.Sheet{
		Header: []string{"Description", "WK_01"},
		Rows:   [][]any{{"widget", 3}},
	})
	notes := filepath.Join(s.dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o644))
	big := filepath.Join(s.dir, "big.csv")
	require.NoError(t, os.WriteFile(big, bytes.Repeat([]byte("a,b\n"), 32*1024), 0o644))

	tests := []struct {
		name       string
		req        func() *http.Request
		wantStatus int
		wantType   string
	}{
		{
			name:       "missing file part",
			req:        func() *http.Request { return multipartRequest(t, "/api/v1/normalize") },
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "unsupported extension",
			req:        func() *http.Request { return multipartRequest(t, "/api/v1/normalize", upload{api.FormFieldFile, notes}) },
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "file over upload limit",
			req:        func() *http.Request { return multipartRequest(t, "/api/v1/normalize", upload{api.FormFieldFile, big}) },
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   apierrors.TypePayloadTooLarge,
		},
		{
			name: "invalid year",
			req: func() *http.Request {
				return multipartRequest(t, "/api/v1/normalize?year=abc", upload{api.FormFieldFile, noIdentifiers})
			},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name: "no identifier column",
			req: func() *http.Request {
				return multipartRequest(t, "/api/v1/normalize", upload{api.FormFieldFile, noIdentifiers})
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeDataFormat,
		},
		{
			name: "json content type",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/normalize", strings.NewReader("{}"))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   apierrors.TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.req())
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantType, decodeProblem(t, rec)["type"])
		})
	}
}

func TestAnalysisHandler_Reconcile(t *testing.T) {
	s := newTestServer(t, config.DefaultMaxUploadBytes)
	client := testutil.WriteXLSX(t, s.dir, "client.xlsx", testutil.WeeklyClientSheet())
	internal := testutil.WriteXLSX(t, s.dir, "internal.xlsx", testutil.WeeklyInternalSheet())

	rec := s.do(multipartRequest(t, "/api/v1/reconcile",
		upload{api.FormFieldClient, client},
		upload{api.FormFieldInternal, internal}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	run := decodeRun(t, rec)
	assert.Equal(t, domain.RunKindReconcile, run.Kind)
	require.NotNil(t, run.Totals)
	assert.Equal(t, 6, run.Totals.Keys)
	assert.Len(t, run.Comparison, 6)

	t.Run("internal workbook required", func(t *testing.T) {
		rec := s.do(multipartRequest(t, "/api/v1/reconcile", upload{api.FormFieldClient, client}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), api.FormFieldInternal)
	})
}

func TestAnalysisHandler_Pipeline(t *testing.T) {
	s := newTestServer(t, config.DefaultMaxUploadBytes)
	client := testutil.WriteXLSX(t, s.dir, "client.xlsx", testutil.WeeklyClientSheet())
	internal := testutil.WriteXLSX(t, s.dir, "internal.xlsx", testutil.WeeklyInternalSheet())
	stock := testutil.WriteCSV(t, s.dir, "stock.csv", testutil.StockSheet())

	rec := s.do(multipartRequest(t, "/api/v1/pipeline?horizon=2&group_by=part",
		upload{api.FormFieldClient, client},
		upload{api.FormFieldInternal, internal},
		upload{api.FormFieldStock, stock}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	run := decodeRun(t, rec)
	assert.Equal(t, domain.RunKindAnalyze, run.Kind)
	require.NotNil(t, run.Analysis)
	assert.Len(t, run.Analysis.Volatility, 2)
	assert.Len(t, run.Analysis.Risks, 2)
	for _, f := range run.Analysis.Forecasts {
		assert.Contains(t, []string{"2025-W04", "2025-W05"}, f.WeekKey)
	}

	t.Run("invalid group_by", func(t *testing.T) {
		rec := s.do(multipartRequest(t, "/api/v1/pipeline?group_by=customer", upload{api.FormFieldClient, client}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("horizon out of range", func(t *testing.T) {
		rec := s.do(multipartRequest(t, "/api/v1/pipeline?horizon=500", upload{api.FormFieldClient, client}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func analyzeBody() api.AnalyzeRequest {
	req := api.AnalyzeRequest{
		BatchID: "api-batch",
		Stock:   []api.StockInput{{PartID: "EVP-1001", CustomerID: "VOLK", CurrentStock: 50, SafetyStock: 100}},
		Horizon: 3,
	}
	for i, q := range []float64{100, 120, 80, 100, 110, 90} {
		req.Rows = append(req.Rows, api.AnalyzeRow{
			CustomerID: "VOLK",
			PartID:     "EVP-1001",
			PeriodKey:  "2025-W0" + string(rune('1'+i)),
			Quantity:   q,
		})
	}
	return req
}

func jsonRequest(t *testing.T, target string, v any) *http.Request {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAnalysisHandler_Analyze(t *testing.T) {
	s := newTestServer(t, config.DefaultMaxUploadBytes)

	rec := s.do(jsonRequest(t, "/api/v1/analyze", analyzeBody()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	run := decodeRun(t, rec)
	require.NotNil(t, run.Analysis)
	assert.Equal(t, "api-batch", run.Analysis.BatchID)
	require.Len(t, run.Analysis.Risks, 1)
	assert.Equal(t, domain.RiskCritical, run.Analysis.Risks[0].RiskLevel)
	assert.Len(t, run.Analysis.Forecasts, 3)
}

func TestAnalysisHandler_AnalyzeValidation(t *testing.T) {
	s := newTestServer(t, config.DefaultMaxUploadBytes)

	badWeek := analyzeBody()
	badWeek.Rows[0].PeriodKey = "2025-07"

	negative := analyzeBody()
	negative.Stock[0].CurrentStock = -1

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{name: "missing rows", body: map[string]any{"batch_id": "x"}, wantField: "rows"},
		{name: "bad week key", body: badWeek, wantField: "rows[0].period_key"},
		{name: "negative stock", body: negative, wantField: "stock[0].current_stock"},
		{name: "bad group_by", body: map[string]any{"rows": analyzeBody().Rows, "group_by": "week"}, wantField: "group_by"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(jsonRequest(t, "/api/v1/analyze", tt.body))
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			problem := decodeProblem(t, rec)
			assert.Equal(t, apierrors.TypeValidation, problem["type"])
			details, ok := problem["details"].(map[string]interface{})
			require.True(t, ok, "details missing: %v", problem)
			errs, ok := details["errors"].([]interface{})
			require.True(t, ok)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.wantField, errs[0].(map[string]interface{})["field"])
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"rows": [`))
		req.Header.Set("Content-Type", "application/json")
		rec := s.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAnalysisHandler_Runs(t *testing.T) {
	s := newTestServer(t, config.DefaultMaxUploadBytes)

	rec := s.do(jsonRequest(t, "/api/v1/analyze", analyzeBody()))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeRun(t, rec)

	t.Run("list", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.RunListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, created.ID, resp.Data[0].ID)
		assert.Equal(t, domain.RunKindAnalyze, resp.Data[0].Kind)
	})

	t.Run("get", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+created.ID, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, created.ID, decodeRun(t, rec).ID)
	})

	t.Run("not found", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs/missing", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierrors.TypeRunNotFound, decodeProblem(t, rec)["type"])
	})

	t.Run("workbook download", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+created.ID+"/report.xlsx", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), created.ID)

		f, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer f.Close()
		assert.Contains(t, f.GetSheetList(), "Summary")
	})

	type fileList struct {
		Files []struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
		} `json:"files"`
		Count int `json:"count"`
	}
	listFiles := func(t *testing.T, id string) (int, fileList) {
		t.Helper()
		rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+id+"/files", nil))
		var resp fileList
		if rec.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		}
		return rec.Code, resp
	}

	t.Run("files before export", func(t *testing.T) {
		code, resp := listFiles(t, created.ID)
		require.Equal(t, http.StatusOK, code)
		assert.Zero(t, resp.Count)

		code, _ = listFiles(t, "missing")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("export", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodPost, "/api/v1/runs/"+created.ID+"/export", nil))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Files []string `json:"files"`
			Count int      `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotZero(t, resp.Count)
		for _, name := range resp.Files {
			_, err := os.Stat(filepath.Join(s.paths.ReportsDir, created.ID, name))
			assert.NoError(t, err, name)
		}
	})

	t.Run("files after export", func(t *testing.T) {
		code, resp := listFiles(t, created.ID)
		require.Equal(t, http.StatusOK, code)
		require.NotZero(t, resp.Count)
		for _, f := range resp.Files {
			assert.Positive(t, f.Size, f.Name)
		}
	})
}
