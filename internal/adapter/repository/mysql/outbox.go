package mysql

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	loanDomain "peerlend-backend/internal/domain/loan"
)

// LoanEvent is the persisted form of a domain event. Rows are append-only;
// a downstream relay can tail the table by id.
type LoanEvent struct {
	ID         uint64    `gorm:"primaryKey;column:id"`
	EventID    string    `gorm:"size:36;uniqueIndex:ux_loan_events_event_id"`
	Type       string    `gorm:"size:40;index"`
	LoanID     string    `gorm:"size:32;index"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
	Payload    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (LoanEvent) TableName() string { return "loan_events" }

// OutboxSink writes committed domain events to the loan_events table.
type OutboxSink struct{ db *gorm.DB }

func NewOutboxSink(db *gorm.DB) *OutboxSink { return &OutboxSink{db: db} }

func (s *OutboxSink) Publish(ctx context.Context, events ...loanDomain.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]LoanEvent, 0, len(events))
	for _, ev := range events {
		var payload string
		if len(ev.Payload) > 0 {
			b, err := json.Marshal(ev.Payload)
			if err != nil {
				return err
			}
			payload = string(b)
		}
		rows = append(rows, LoanEvent{
			EventID:    ev.EventID,
			Type:       string(ev.Type),
			LoanID:     ev.LoanID,
			OccurredAt: ev.OccurredAt,
			Payload:    payload,
		})
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}
