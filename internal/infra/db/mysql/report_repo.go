package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	domain "github.com/madhus/roadwatch/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save insert/update Report record
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO reports
(report_id, citizen_id, reported_by, crime_type, comments, location,
 media_urls, status, submission_time)
VALUES (?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 crime_type=VALUES(crime_type), comments=VALUES(comments), location=VALUES(location),
 media_urls=VALUES(media_urls), status=VALUES(status);
`
	status := rep.Status
	if status == "" {
		status = domain.StatusSubmitted
	}
	submitted := rep.SubmissionTime
	if submitted.IsZero() {
		submitted = time.Now()
	}
	mediaJSON, err := json.Marshal(rep.MediaURLs)
	if err != nil {
		return fmt.Errorf("encoding media urls: %w", err)
	}

	_, err = r.db.ExecContext(ctx, q,
		rep.ID, stringOrDash(rep.CitizenID), stringOrDash(rep.ReportedBy),
		stringOrDash(string(rep.CrimeType)), rep.Comments, rep.Location,
		string(mediaJSON), status, submitted,
	)
	return err
}

const reportColumns = `report_id, citizen_id, reported_by, crime_type, comments, location,
       media_urls, status, submission_time`

func scanReport(row interface{ Scan(...any) error }) (*domain.Report, error) {
	var rep domain.Report
	var mediaJSON string
	if err := row.Scan(
		&rep.ID, &rep.CitizenID, &rep.ReportedBy, &rep.CrimeType, &rep.Comments,
		&rep.Location, &mediaJSON, &rep.Status, &rep.SubmissionTime,
	); err != nil {
		return nil, err
	}
	if mediaJSON != "" {
		if err := json.Unmarshal([]byte(mediaJSON), &rep.MediaURLs); err != nil {
			return nil, fmt.Errorf("decoding media urls: %w", err)
		}
	}
	return &rep, nil
}

// Get by report ID
func (r *ReportRepository) Get(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	q := `SELECT ` + reportColumns + ` FROM reports WHERE report_id=? LIMIT 1;`
	return scanReport(r.db.QueryRowContext(ctx, q, id))
}

// Latest reports, newest first
func (r *ReportRepository) Latest(ctx context.Context, limit int) ([]*domain.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + reportColumns + ` FROM reports ORDER BY submission_time DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// Paginate with offset + limit (classic pagination)
func (r *ReportRepository) Paginate(ctx context.Context, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := `SELECT ` + reportColumns + ` FROM reports WHERE 1=1`
	args := []interface{}{}

	if filters != nil {
		for key, value := range filters {
			switch key {
			case "status":
				query += " AND status = ?"
				args = append(args, value)
			case "crime_type":
				query += " AND crime_type = ?"
				args = append(args, value)
			case "citizen_id":
				query += " AND citizen_id = ?"
				args = append(args, value)
			case "reported_by":
				query += " AND reported_by = ?"
				args = append(args, value)
			}
		}
	}

	query += "\n ORDER BY submission_time DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var list []*domain.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		list = append(list, rep)
	}
	if err = rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	total, err := r.Count(ctx, filters)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedResult{
		Data:       list,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// UpdateStatus hanya update kolom status
func (r *ReportRepository) UpdateStatus(ctx context.Context, id domain.ReportID, status domain.Status) error {
	const q = `UPDATE reports SET status = ? WHERE report_id = ?;`
	_, err := r.db.ExecContext(ctx, q, status, id)
	return err
}

// Summary counts reports grouped by status since N days
func (r *ReportRepository) Summary(ctx context.Context, sinceDays int) (map[string]int, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT status, COUNT(*)
FROM reports
WHERE submission_time >= ?
GROUP BY status;
`
	rows, err := r.db.QueryContext(ctx, q, cut)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// Count returns the total number of records matching the given filters
func (r *ReportRepository) Count(ctx context.Context, filters map[string]interface{}) (int64, error) {
	query := "SELECT COUNT(*) FROM reports WHERE 1=1"
	args := []interface{}{}

	if filters != nil {
		for key, value := range filters {
			switch key {
			case "status":
				query += " AND status = ?"
				args = append(args, value)
			case "crime_type":
				query += " AND crime_type = ?"
				args = append(args, value)
			case "citizen_id":
				query += " AND citizen_id = ?"
				args = append(args, value)
			case "reported_by":
				query += " AND reported_by = ?"
				args = append(args, value)
			}
		}
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
