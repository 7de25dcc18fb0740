package pipelineerrors

import "time"

// PipelineError represents a persisted analyzer/pipeline failure entry
type PipelineError struct {
	ID          int64     `json:"id"`
	ReportID    string    `json:"report_id"`
	Stage       string    `json:"stage"` // load | plate | violation | synthetic | registry | persist
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
