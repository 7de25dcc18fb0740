package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/madhus/roadwatch/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Upsert writes the analysis record for a report. report_id is the primary
// key, so re-analysis replaces the previous verdict instead of duplicating it.
func (r *AnalysisRepository) Upsert(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO ai_analysis
  (report_id, ai_summary, confidence_score, detected_vehicle_number,
   ai_generated_score, registry_status, created_at)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  ai_summary=VALUES(ai_summary), confidence_score=VALUES(confidence_score),
  detected_vehicle_number=VALUES(detected_vehicle_number),
  ai_generated_score=VALUES(ai_generated_score), registry_status=VALUES(registry_status);
`
	plate := rec.DetectedPlate
	if strings.TrimSpace(plate) == "" {
		plate = domain.PlateReviewRequired
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		rec.ReportID, rec.Summary, rec.Confidence, plate,
		rec.SyntheticScore, rec.RegistryStatus, created,
	)
	return err
}

// Get returns the analysis record for one report
func (r *AnalysisRepository) Get(ctx context.Context, reportID string) (*domain.Record, error) {
	const q = `
SELECT report_id, ai_summary, confidence_score, detected_vehicle_number,
       ai_generated_score, registry_status, created_at
FROM ai_analysis
WHERE report_id=? LIMIT 1;
`
	var rec domain.Record
	if err := r.db.QueryRowContext(ctx, q, reportID).Scan(
		&rec.ReportID, &rec.Summary, &rec.Confidence, &rec.DetectedPlate,
		&rec.SyntheticScore, &rec.RegistryStatus, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT report_id, ai_summary, confidence_score, detected_vehicle_number,
       ai_generated_score, registry_status, created_at
FROM ai_analysis
ORDER BY created_at DESC, report_id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(
			&rec.ReportID, &rec.Summary, &rec.Confidence, &rec.DetectedPlate,
			&rec.SyntheticScore, &rec.RegistryStatus, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
