package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound       = errors.New("item not found")
	ErrItemUnavailable    = errors.New("item is not available")
	ErrItemOnLoan         = errors.New("item is on loan")
	ErrBorrowerNotFound   = errors.New("borrower not found")
	ErrBorrowerHasLoans   = errors.New("borrower has active loans")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrLoanLimitReached   = errors.New("borrower reached the loan limit")
	ErrOperatorNotFound   = errors.New("operator not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrProtectedOperator  = errors.New("this account cannot be modified")
	ErrSelfDelete         = errors.New("cannot delete yourself")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidID          = errors.New("invalid id")
)

// notFound maps gorm.ErrRecordNotFound to a domain error and wraps the rest.
func notFound(err, domain error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain
	}
	return errors.Wrap(err, msg)
}
