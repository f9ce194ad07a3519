package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	riskDomain "peerlend-backend/internal/domain/risk"
)

type RiskRepository struct{ db *gorm.DB }

func NewRiskRepository(db *gorm.DB) *RiskRepository { return &RiskRepository{db: db} }

func (r *RiskRepository) Upsert(ctx context.Context, s *riskDomain.Snapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "borrower_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"credit_score", "risk_tier", "kyc_status", "flags",
				"last_verified_at", "last_score_at", "updated_at",
			}),
		}).
		Create(s).Error
}

func (r *RiskRepository) GetByBorrowerID(ctx context.Context, borrowerID string) (*riskDomain.Snapshot, error) {
	var out riskDomain.Snapshot
	res := r.db.WithContext(ctx).
		Where("borrower_id = ?", borrowerID).
		First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, riskDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}
