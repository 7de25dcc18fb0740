package reports

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, id ReportID) (*Report, error)
	Latest(ctx context.Context, limit int) ([]*Report, error)
	Paginate(ctx context.Context, page, pageSize int, filters map[string]interface{}) (PaginatedResult, error)
	UpdateStatus(ctx context.Context, id ReportID, status Status) error
	Summary(ctx context.Context, sinceDays int) (map[string]int, error)
}
