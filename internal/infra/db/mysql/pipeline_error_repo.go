package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/madhus/roadwatch/internal/domain/pipelineerrors"
)

type PipelineErrorRepository struct {
	db *sql.DB
}

func NewPipelineErrorRepository(db *sql.DB) *PipelineErrorRepository {
	return &PipelineErrorRepository{db: db}
}

func (r *PipelineErrorRepository) Save(ctx context.Context, e *domain.PipelineError) error {
	const q = `
INSERT INTO ai_pipeline_errors
  (report_id, stage, message, details_json, created_at)
VALUES (?,?,?,?,?)
`
	report := stringOrDash(e.ReportID)
	stage := stringOrDash(e.Stage)
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	details := e.DetailsJSON
	if strings.TrimSpace(details) == "" {
		details = "{}"
	} else {
		// ensure valid json; if invalid, wrap as string field
		var js any
		if json.Unmarshal([]byte(details), &js) != nil {
			b, _ := json.Marshal(map[string]string{"raw": details})
			details = string(b)
		}
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, report, stage, msg, details, created)
	return err
}

func (r *PipelineErrorRepository) ListByReport(ctx context.Context, reportID string, limit int) ([]*domain.PipelineError, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, report_id, stage, message, details_json, created_at
FROM ai_pipeline_errors
WHERE report_id=?
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, reportID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PipelineError
	for rows.Next() {
		var e domain.PipelineError
		if err := rows.Scan(&e.ID, &e.ReportID, &e.Stage, &e.Message, &e.DetailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
