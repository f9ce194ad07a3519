package loan

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLoanApproved     EventType = "loan.approved"
	EventLoanRejected     EventType = "loan.rejected"
	EventLoanCancelled    EventType = "loan.cancelled"
	EventLoanFunded       EventType = "loan.funded"
	EventLoanDisbursed    EventType = "loan.disbursed"
	EventLoanCompleted    EventType = "loan.completed"
	EventRepaymentPaid    EventType = "repayment.paid"
	EventRepaymentOverdue EventType = "repayment.overdue"
)

// Event is raised inside the aggregate and handed to the sink only after
// the surrounding commit succeeds.
type Event struct {
	EventID    string            `json:"event_id"`
	Type       EventType         `json:"type"`
	LoanID     string            `json:"loan_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    map[string]string `json:"payload,omitempty"`
}

// EventSink receives committed domain events. Delivery and retries are
// the sink's concern; the engine only emits.
type EventSink interface {
	Publish(ctx context.Context, events ...Event) error
}

func (l *Loan) record(t EventType, at time.Time, payload map[string]string) {
	l.events = append(l.events, Event{
		EventID:    uuid.NewString(),
		Type:       t,
		LoanID:     l.LoanID,
		OccurredAt: at,
		Payload:    payload,
	})
}

// PullEvents drains the queued events. Callers hand them to the sink
// after a successful commit.
func (l *Loan) PullEvents() []Event {
	evs := l.events
	l.events = nil
	return evs
}
