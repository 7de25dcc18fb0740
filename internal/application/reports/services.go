package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/madhus/roadwatch/internal/application"
	domain "github.com/madhus/roadwatch/internal/domain/reports"
)

// Service implements use-cases for Report submission and review.
// Safe for concurrent use.
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

// SubmitReportCommand carries one citizen/officer submission.
type SubmitReportCommand struct {
	CitizenID  string
	ReportedBy string
	CrimeType  string
	Comments   string
	Location   string
	MediaURLs  []string
}

// Submit validates and persists a new report in Submitted state. The AI
// pipeline is triggered by the HTTP layer in a background goroutine; report
// submission never blocks on it.
func (s *Service) Submit(ctx context.Context, cmd SubmitReportCommand) (*domain.Report, error) {
	crime := domain.CrimeType(cmd.CrimeType)
	if !validCrimeType(crime) {
		return nil, fmt.Errorf("unknown violation category: %q", cmd.CrimeType)
	}

	reportedBy := cmd.ReportedBy
	if reportedBy == "" {
		reportedBy = "citizen"
	}

	rep := &domain.Report{
		ID:             domain.ReportID(fmt.Sprintf("RPT-%s", uuid.New().String())),
		CitizenID:      cmd.CitizenID,
		ReportedBy:     reportedBy,
		CrimeType:      crime,
		Comments:       cmd.Comments,
		Location:       cmd.Location,
		MediaURLs:      cmd.MediaURLs,
		Status:         domain.StatusSubmitted,
		SubmissionTime: s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, rep); err != nil {
		return nil, fmt.Errorf("saving report: %w", err)
	}
	return rep, nil
}

// Get ambil 1 report by id
func (s *Service) Get(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	return s.Repo.Get(ctx, id)
}

// Latest ambil N report terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Report, error) {
	return s.Repo.Latest(ctx, limit)
}

// Paginate returns one page of reports with optional filters
func (s *Service) Paginate(ctx context.Context, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	return s.Repo.Paginate(ctx, page, pageSize, filters)
}

// UpdateStatus moves a report through the review workflow
func (s *Service) UpdateStatus(ctx context.Context, id domain.ReportID, status domain.Status) error {
	return s.Repo.UpdateStatus(ctx, id, status)
}

// Summary rekap report N hari terakhir, dikelompokkan per status
func (s *Service) Summary(ctx context.Context, sinceDays int) (map[string]int, error) {
	return s.Repo.Summary(ctx, sinceDays)
}

func validCrimeType(c domain.CrimeType) bool {
	for _, ct := range domain.CrimeTypes {
		if c == ct {
			return true
		}
	}
	return false
}
