package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/analytics"
	apierrors "github.com/tech-visionarieshub/evco-dashboard-sub001/internal/errors"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/exporter"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/middleware"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/services"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/validation"
	api "github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/api/v1"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// multipartMemory is how much of a multipart body is held in memory before spilling to disk
	multipartMemory = 8 << 20

	maxHorizon = 104
)

var groupByValues = []string{string(analytics.GroupByPart), string(analytics.GroupByPartCustomer)}

// AnalysisHandler exposes normalization, reconciliation and analysis runs
type AnalysisHandler struct {
	service        AnalysisServiceInterface
	exporter       RunExporter
	validator      *middleware.Validator
	query          *middleware.QueryParamValidator
	files          *validation.FileValidator
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewAnalysisHandler creates the handler. exporter may be nil, which disables
// the export endpoint.
func NewAnalysisHandler(service AnalysisServiceInterface, exporter RunExporter, maxUploadBytes int64, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:        service,
		exporter:       exporter,
		validator:      middleware.NewValidator(logger),
		query:          middleware.NewQueryParamValidator(errorHandler),
		files:          validation.NewFileValidator(maxUploadBytes, logger),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "analysis_handler")),
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// three workbooks plus form overhead
	r.Use(middleware.MaxBodySize(3*h.maxUploadBytes+(1<<20), h.errorHandler))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"))
		r.Post("/normalize", h.Normalize)
		r.Post("/reconcile", h.Reconcile)
		r.Post("/pipeline", h.Pipeline)
	})

	r.With(middleware.ContentTypeValidator(h.errorHandler, "application/json")).
		Post("/analyze", h.Analyze)

	r.Get("/runs", h.ListRuns)
	r.Route("/runs/{id}", func(r chi.Router) {
		r.Get("/", h.GetRun)
		r.Get("/report.xlsx", h.DownloadWorkbook)
		r.Post("/export", h.ExportRun)
		r.Get("/files", h.ListRunFiles)
	})

	return r
}

// Normalize handles POST /api/v1/normalize with a single "file" part
func (h *AnalysisHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	year, ok := h.query.ValidateInt(w, r, "year", 0, 9999, 0)
	if !ok {
		return
	}

	src, err := h.formSource(r, api.FormFieldFile, true)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	defer closeSource(src)

	run, err := h.service.Normalize(r.Context(), *src, year)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.created(w, r, run)
}

// Reconcile handles POST /api/v1/reconcile with "client" and "internal" parts
func (h *AnalysisHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	year, ok := h.query.ValidateInt(w, r, "year", 0, 9999, 0)
	if !ok {
		return
	}

	client, err := h.formSource(r, api.FormFieldClient, true)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	defer closeSource(client)

	internal, err := h.formSource(r, api.FormFieldInternal, true)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	defer closeSource(internal)

	run, err := h.service.Reconcile(r.Context(), *client, *internal, year)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.created(w, r, run)
}

// Pipeline handles POST /api/v1/pipeline: a required "client" part and
// optional "internal" and "stock" parts.
func (h *AnalysisHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	year, ok := h.query.ValidateInt(w, r, "year", 0, 9999, 0)
	if !ok {
		return
	}
	horizon, ok := h.query.ValidateInt(w, r, "horizon", 0, maxHorizon, 0)
	if !ok {
		return
	}
	groupBy, ok := h.query.ValidateEnum(w, r, "group_by", groupByValues, "")
	if !ok {
		return
	}

	params := services.PipelineParams{
		Year:    year,
		Horizon: horizon,
		GroupBy: analytics.GroupBy(groupBy),
	}

	client, err := h.formSource(r, api.FormFieldClient, true)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	defer closeSource(client)
	params.Client = *client

	if params.Internal, err = h.formSource(r, api.FormFieldInternal, false); err != nil {
		h.handleError(w, r, err)
		return
	}
	defer closeSource(params.Internal)

	if params.Stock, err = h.formSource(r, api.FormFieldStock, false); err != nil {
		h.handleError(w, r, err)
		return
	}
	defer closeSource(params.Stock)

	run, err := h.service.RunPipeline(r.Context(), params)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.created(w, r, run)
}

// Analyze handles POST /api/v1/analyze with a JSON body of normalized rows
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	run, err := h.service.Analyze(r.Context(), services.AnalyzeParams{
		BatchID:  req.BatchID,
		Rows:     req.NormalizedRows(),
		Stock:    req.StockPositions(),
		Observed: req.ObservedByPart(),
		Horizon:  req.Horizon,
		GroupBy:  analytics.GroupBy(req.GroupBy),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.created(w, r, run)
}

// ListRuns handles GET /api/v1/runs
func (h *AnalysisHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.NewRunListResponse(h.service.Runs()))
}

// GetRun handles GET /api/v1/runs/{id}
func (h *AnalysisHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Run(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, api.NewRunResponse(run))
}

// DownloadWorkbook handles GET /api/v1/runs/{id}/report.xlsx
func (h *AnalysisHandler) DownloadWorkbook(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Run(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteWorkbook(&buf, run); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="run-%s.xlsx"`, run.ID))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "workbook download interrupted",
			slog.String("run_id", run.ID),
			slog.String("error", err.Error()))
	}
}

// ExportRun handles POST /api/v1/runs/{id}/export, writing the run's CSV
// reports under the reports directory.
func (h *AnalysisHandler) ExportRun(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		h.handleError(w, r, apierrors.New(http.StatusNotImplemented, "EXPORT_DISABLED", "Report export is not configured"))
		return
	}

	run, err := h.service.Run(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	paths, err := h.exporter.WriteRun(r.Context(), run, run.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	files := make([]string, len(paths))
	for i, p := range paths {
		files[i] = filepath.Base(p)
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": api.StatusSuccess,
		"run_id": run.ID,
		"files":  files,
		"count":  len(files),
	})
}

// ListRunFiles handles GET /api/v1/runs/{id}/files, listing exported reports
func (h *AnalysisHandler) ListRunFiles(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		h.handleError(w, r, apierrors.New(http.StatusNotImplemented, "EXPORT_DISABLED", "Report export is not configured"))
		return
	}

	run, err := h.service.Run(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	listed, err := h.exporter.RunFiles(run.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": api.StatusSuccess,
		"run_id": run.ID,
		"files":  listed,
		"count":  len(listed),
	})
}

func (h *AnalysisHandler) created(w http.ResponseWriter, r *http.Request, run *domain.Run) {
	h.logger.InfoContext(r.Context(), "run created",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("run_id", run.ID),
		slog.String("kind", string(run.Kind)))

	w.Header().Set("Location", "/api/v1/runs/"+run.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.NewRunResponse(run))
}

// parseMultipart reports false after writing the error response
func (h *AnalysisHandler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
		} else {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return false
	}
	return true
}

// formSource opens one uploaded workbook. A missing optional part yields nil.
func (h *AnalysisHandler) formSource(r *http.Request, field string, required bool) (*services.Source, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, apierrors.ErrValidation(field, fmt.Sprintf("%s workbook is required", field))
		}
		return nil, nil
	}
	if err != nil {
		return nil, apierrors.InvalidRequestWithError(err)
	}

	if err := h.files.ValidateUpload(header.Filename, header.Size); err != nil {
		file.Close()
		if errors.Is(err, validation.ErrFileTooLarge) {
			return nil, apierrors.ErrPayloadTooLarge
		}
		return nil, apierrors.ErrValidation(field, err.Error())
	}

	return &services.Source{
		Name:   header.Filename,
		Reader: file,
		Sheet:  r.URL.Query().Get("sheet"),
	}, nil
}

func closeSource(src *services.Source) {
	if src == nil {
		return
	}
	if f, ok := src.Reader.(multipart.File); ok {
		f.Close()
	}
}

// handleError maps service errors onto API errors before rendering
func (h *AnalysisHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *analytics.ValidationError
	switch {
	case errors.Is(err, services.ErrRunNotFound):
		err = apierrors.ErrRunNotFound
	case errors.Is(err, services.ErrMissingSource):
		err = apierrors.ErrMissingParameter
	case errors.As(err, &validationErr):
		err = apierrors.ErrValidation(validationErr.Field, validationErr.Message)
	}
	h.errorHandler.HandleError(w, r, err)
}
