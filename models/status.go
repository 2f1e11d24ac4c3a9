package models

import "time"

type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanOverdue  LoanStatus = "overdue"
	LoanReturned LoanStatus = "returned"
)

type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

const (
	DefaultGraceDays = 15
	day              = 24 * time.Hour
)

// StatusResolver derives the displayed status of an outstanding loan.
// Every list, count and filter must go through the same resolver so that
// they agree on which loans are overdue.
type StatusResolver struct {
	Grace time.Duration
	Now   func() time.Time
}

func NewStatusResolver(graceDays int) StatusResolver {
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}
	return StatusResolver{
		Grace: time.Duration(graceDays) * day,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r StatusResolver) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

func (r StatusResolver) DueDate(loanDate time.Time) time.Time {
	return loanDate.Add(r.Grace)
}

// Status is overdue only when now is strictly after loanDate+Grace.
func (r StatusResolver) Status(loanDate time.Time) LoanStatus {
	if r.now().After(r.DueDate(loanDate)) {
		return LoanOverdue
	}
	return LoanActive
}

// OverdueCutoff returns the instant c such that a loan is overdue iff its
// loan date is before c.
func (r StatusResolver) OverdueCutoff() time.Time {
	return r.now().Add(-r.Grace)
}

// DaysOverdue counts whole days past the due date; 0 when not overdue.
func (r StatusResolver) DaysOverdue(loanDate time.Time) int {
	late := r.now().Sub(r.DueDate(loanDate))
	if late <= 0 {
		return 0
	}
	return int(late / day)
}

func (r StatusResolver) Severity(loanDate time.Time) Severity {
	return SeverityFor(r.DaysOverdue(loanDate))
}

func SeverityFor(daysOverdue int) Severity {
	switch {
	case daysOverdue <= 7:
		return SeverityMild
	case daysOverdue <= 30:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

// SeverityRange maps a severity to the loan dates producing it: after < loanDate <= notAfter.
// A zero after means unbounded. Callers still combine it with loanDate < OverdueCutoff().
func (r StatusResolver) SeverityRange(s Severity) (after, notAfter time.Time, ok bool) {
	cutoff := r.OverdueCutoff()
	switch s {
	case SeverityMild:
		return cutoff.Add(-8 * day), cutoff, true
	case SeverityModerate:
		return cutoff.Add(-31 * day), cutoff.Add(-8 * day), true
	case SeveritySevere:
		return time.Time{}, cutoff.Add(-31 * day), true
	}
	return time.Time{}, time.Time{}, false
}
