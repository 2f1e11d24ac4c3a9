package controllers

import (
	"context"

	"Gin_postgres_redis_tool_lending/db"
)

//go:generate go run github.com/golang/mock/mockgen -source=store.go -destination=mocks/mock.go -package=mocks

type LoanStore interface {
	IssueLoan(ctx context.Context, in db.IssueLoanInput) (*db.LoanView, error)
	ReturnLoan(ctx context.Context, in db.ReturnLoanInput) (*db.LoanView, error)
	GetLoan(ctx context.Context, id string) (*db.LoanView, error)
	ListActiveLoans(ctx context.Context, q db.LoansQuery) (*db.PagedLoans, error)
	ListOverdueLoans(ctx context.Context, q db.LoansQuery) (*db.PagedLoans, error)
	ListLoanHistory(ctx context.Context, q db.LoansQuery) (*db.PagedLoans, error)
}

var _ LoanStore = (*db.Repo)(nil)
