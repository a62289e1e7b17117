// Package http implements the HTTP handlers of the demand engine service.
// Handlers stay thin: they parse uploads and JSON, call the analysis service
// and render runs or RFC 7807 problems.
//
// # Endpoints
//
//	POST /api/v1/normalize           multipart "file"; ?year=&sheet=
//	POST /api/v1/reconcile           multipart "client", "internal"; ?year=&sheet=
//	POST /api/v1/pipeline            multipart "client" [, "internal", "stock"]; ?year=&horizon=&group_by=
//	POST /api/v1/analyze             JSON api.AnalyzeRequest
//	GET  /api/v1/runs                run summaries, newest first
//	GET  /api/v1/runs/{id}           one run with all of its outputs
//	GET  /api/v1/runs/{id}/report.xlsx
//	POST /api/v1/runs/{id}/export    CSV reports under the reports directory
//	GET  /api/v1/runs/{id}/files     exported report files
//
// # Error Handling
//
// Service errors are mapped to API errors and rendered by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/format",
//	    "title": "Unrecognized Batch Layout",
//	    "status": 422,
//	    "detail": "weekly batch has no identifier-bearing column",
//	    "instance": "/api/v1/normalize"
//	}
//
// # Testing
//
// Handlers are tested with httptest against the real AnalysisService, using
// workbooks written by the testutil fixtures.
package http
