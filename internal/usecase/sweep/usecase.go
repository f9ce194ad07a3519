package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"

	"peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/uow"
)

// Result reports what one sweep pass did. Repeated runs over the same
// data report the same rows under AlreadyNotified, never NewlyOverdue.
type Result struct {
	LoansSwept      int `json:"loans_swept"`
	Scanned         int `json:"scanned"`
	NewlyOverdue    int `json:"newly_overdue"`
	AlreadyNotified int `json:"already_notified"`
	PaidIgnored     int `json:"paid_ignored"`
	Failed          int `json:"failed"`
}

type Usecase struct {
	repo loan.Repository
	uow  uow.UnitOfWork
	sink loan.EventSink
	log  *zap.Logger
	now  func() time.Time
}

func NewUsecase(repo loan.Repository, tx uow.UnitOfWork, sink loan.EventSink, logger *zap.Logger) *Usecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Usecase{repo: repo, uow: tx, sink: sink, log: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase { u.now = now; return u }

// Run promotes unpaid past-due installments to overdue, once each. Every
// loan is its own optimistic-concurrency unit: a failure on one loan is
// logged and counted, never blocks the rest. Safe to re-run at any time.
func (u *Usecase) Run(ctx context.Context, asOf time.Time) (*Result, error) {
	if asOf.IsZero() {
		asOf = u.now()
	}
	loans, err := u.repo.ListWithOpenRepayments(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, open := range loans {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := u.sweepLoan(ctx, open.LoanID, asOf, res); err != nil {
			res.Failed++
			u.log.Warn("overdue sweep: loan skipped",
				zap.String("loan_id", open.LoanID),
				zap.Error(err))
		}
	}

	u.log.Info("overdue sweep finished",
		zap.Time("as_of", asOf),
		zap.Int("loans_swept", res.LoansSwept),
		zap.Int("scanned", res.Scanned),
		zap.Int("newly_overdue", res.NewlyOverdue),
		zap.Int("already_notified", res.AlreadyNotified),
		zap.Int("paid_ignored", res.PaidIgnored),
		zap.Int("failed", res.Failed))
	return res, nil
}

func (u *Usecase) sweepLoan(ctx context.Context, loanID string, asOf time.Time, res *Result) error {
	var events []loan.Event
	var scanned, newly, already, paid int

	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		scanned, newly, already, paid = l.MarkOverdue(asOf)
		if newly == 0 {
			// nothing to persist; rows were scanned but not re-stamped
			return nil
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		events = l.PullEvents()
		return nil
	})
	if err != nil {
		return err
	}
	res.LoansSwept++
	res.Scanned += scanned
	res.NewlyOverdue += newly
	res.AlreadyNotified += already
	res.PaidIgnored += paid

	if u.sink != nil && len(events) > 0 {
		if err := u.sink.Publish(ctx, events...); err != nil {
			u.log.Warn("overdue sweep: publish failed",
				zap.String("loan_id", loanID),
				zap.Int("events", len(events)),
				zap.Error(err))
		}
	}
	return nil
}
