package api

import (
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// StatusSuccess is the status of every successful envelope
const StatusSuccess = "success"

// RunResponse wraps a single run
type RunResponse struct {
	Status string      `json:"status"`
	Data   *domain.Run `json:"data"`
}

// NewRunResponse creates a success envelope for run
func NewRunResponse(run *domain.Run) RunResponse {
	return RunResponse{Status: StatusSuccess, Data: run}
}

// RunListResponse wraps the stored run summaries, newest first
type RunListResponse struct {
	Status string              `json:"status"`
	Data   []domain.RunSummary `json:"data"`
	Count  int                 `json:"count"`
}

// NewRunListResponse creates a success envelope for summaries
func NewRunListResponse(summaries []domain.RunSummary) RunListResponse {
	if summaries == nil {
		summaries = []domain.RunSummary{}
	}
	return RunListResponse{Status: StatusSuccess, Data: summaries, Count: len(summaries)}
}
