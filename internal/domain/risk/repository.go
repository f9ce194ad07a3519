package risk

import "context"

type Repository interface {
	// Upsert inserts or replaces the snapshot keyed by borrower id.
	Upsert(ctx context.Context, s *Snapshot) error
	GetByBorrowerID(ctx context.Context, borrowerID string) (*Snapshot, error)
}
