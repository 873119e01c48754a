package audit

import "context"

// Store abstracts decision record persistence.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, opts ListOptions) ([]*Record, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}
