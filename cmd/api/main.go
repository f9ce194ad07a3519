package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "peerlend-backend/internal/adapter/http"
	appmw "peerlend-backend/internal/adapter/middleware"
	"peerlend-backend/internal/adapter/repository/mysql"
	"peerlend-backend/internal/config"
	loanDomain "peerlend-backend/internal/domain/loan"
	riskDomain "peerlend-backend/internal/domain/risk"
	"peerlend-backend/internal/infrastructure/cache"
	"peerlend-backend/internal/infrastructure/db"
	fundinguc "peerlend-backend/internal/usecase/funding"
	loanuc "peerlend-backend/internal/usecase/loan"
	repaymentuc "peerlend-backend/internal/usecase/repayment"
	sweepuc "peerlend-backend/internal/usecase/sweep"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	err = gdb.AutoMigrate(
		&loanDomain.Loan{},
		&loanDomain.Funding{},
		&loanDomain.Repayment{},
		&loanDomain.LenderRepayment{},
		&riskDomain.Snapshot{},
		&mysql.LoanEvent{},
	)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	loanRepo := mysql.NewLoanRepository(gdb)
	riskRepo := mysql.NewRiskRepository(gdb)
	guow := mysql.NewGormUoW(gdb)
	sink := mysql.NewOutboxSink(gdb)

	loanUC := loanuc.NewUsecase(loanRepo, guow, sink)
	fundingUC := fundinguc.NewUsecase(guow, sink)
	repaymentUC := repaymentuc.NewUsecase(loanRepo, guow, sink)
	sweepUC := sweepuc.NewUsecase(loanRepo, guow, sink, nil)

	h := httpadp.NewHandler()
	loanH := httpadp.NewLoanHandler(loanUC)
	fundingH := httpadp.NewFundingHandler(fundingUC)
	repaymentH := httpadp.NewRepaymentHandler(repaymentUC)
	riskH := httpadp.NewRiskHandler(riskRepo)
	sweepH := httpadp.NewSweepHandler(sweepUC)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	idemp := appmw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)

	e.GET("/health", h.Health)

	loans := e.Group("/loans", idemp)
	loans.POST("", loanH.CreateLoan)
	loans.GET("", loanH.ListLoans)
	loans.GET("/:loan_id", loanH.GetLoan)
	loans.POST("/:loan_id/approve", loanH.ApproveLoan)
	loans.POST("/:loan_id/reject", loanH.RejectLoan)
	loans.POST("/:loan_id/cancel", loanH.CancelLoan)
	loans.POST("/:loan_id/disburse", loanH.DisburseLoan)
	loans.POST("/:loan_id/fundings", fundingH.AddFunding)
	loans.GET("/:loan_id/schedule", repaymentH.GetSchedule)
	loans.POST("/:loan_id/repayments/:repayment_id/pay", repaymentH.PayRepayment)
	loans.GET("/:loan_id/repayments/:repayment_id/allocations", repaymentH.GetAllocations)

	e.GET("/borrowers/:borrower_id/risk", riskH.GetBorrowerRisk)
	e.PUT("/borrowers/:borrower_id/risk", riskH.UpsertBorrowerRisk, idemp)

	e.POST("/admin/sweep/overdue", sweepH.RunOverdueSweep)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
