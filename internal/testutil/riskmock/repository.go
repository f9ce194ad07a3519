package riskmock

import (
	"context"

	domain "peerlend-backend/internal/domain/risk"
)

// Repo is a function-backed mock for risk.Repository.
type Repo struct {
	UpsertFn          func(ctx context.Context, s *domain.Snapshot) error
	GetByBorrowerIDFn func(ctx context.Context, borrowerID string) (*domain.Snapshot, error)
}

func (m *Repo) Upsert(ctx context.Context, s *domain.Snapshot) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, s)
	}
	return nil
}

func (m *Repo) GetByBorrowerID(ctx context.Context, borrowerID string) (*domain.Snapshot, error) {
	if m.GetByBorrowerIDFn != nil {
		return m.GetByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, domain.ErrNotFound
}
