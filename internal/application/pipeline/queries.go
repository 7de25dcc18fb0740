package pipeline

import (
	"context"

	"github.com/madhus/roadwatch/internal/domain/analysis"
	"github.com/madhus/roadwatch/internal/domain/pipelineerrors"
)

// GetAnalysis returns the persisted verdict for one report.
func (s *Service) GetAnalysis(ctx context.Context, reportID string) (*analysis.Record, error) {
	return s.Analyses.Get(ctx, reportID)
}

// ListAnalyses returns a page of verdicts, newest first.
func (s *Service) ListAnalyses(ctx context.Context, page, pageSize int) ([]*analysis.Record, error) {
	return s.Analyses.Paginate(ctx, page, pageSize)
}

// ListErrors returns recent pipeline errors for one report.
func (s *Service) ListErrors(ctx context.Context, reportID string, limit int) ([]*pipelineerrors.PipelineError, error) {
	if s.Errors == nil {
		return nil, nil
	}
	return s.Errors.ListByReport(ctx, reportID, limit)
}
