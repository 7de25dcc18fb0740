package pipelineerrors

import (
	"context"
)

// Repository defines persistence for pipeline errors
type Repository interface {
	Save(ctx context.Context, e *PipelineError) error
	ListByReport(ctx context.Context, reportID string, limit int) ([]*PipelineError, error)
}
