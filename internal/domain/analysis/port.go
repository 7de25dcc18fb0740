package analysis

import "context"

// Repository port for persisting and querying analysis records
type Repository interface {
	Upsert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, reportID string) (*Record, error)
	Paginate(ctx context.Context, page, pageSize int) ([]*Record, error)
}
