package db

import (
	"context"
	"strings"
	"time"

	"Gin_postgres_redis_tool_lending/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRequestReused = errors.New("request id already used for another loan")

// LoanView is an active or returned loan with the names the dashboard shows.
type LoanView struct {
	ID           string            `json:"id"`
	TicketCode   string            `json:"ticketCode"`
	ItemID       string            `json:"itemId"`
	ItemName     string            `json:"itemName"`
	ItemCategory string            `json:"itemCategory,omitempty"`
	BorrowerID   string            `json:"borrowerId"`
	BorrowerName string            `json:"borrowerName"`
	Career       string            `json:"career,omitempty"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	OperatorID   string            `json:"operatorId"`
	OperatorName string            `json:"operatorName,omitempty"`
	LoanDate     time.Time         `json:"loanDate"`
	DueDate      time.Time         `json:"dueDate"`
	Status       models.LoanStatus `json:"status"`
	DaysOverdue  int               `json:"daysOverdue,omitempty"`
	Severity     models.Severity   `json:"severity,omitempty"`
	Notes        string            `json:"notes,omitempty"`

	ReturnDate     *time.Time `json:"returnDate,omitempty"`
	ReturnNotes    string     `json:"returnNotes,omitempty"`
	ReturnedBy     string     `json:"returnedBy,omitempty"`
	ReturnedByName string     `json:"returnedByName,omitempty"`

	// Replayed is set when an idempotent retry found the loan already written.
	Replayed bool `json:"replayed,omitempty"`
}

func (r *Repo) activeView(l models.ActiveLoan) LoanView {
	v := LoanView{
		ID:         l.ID,
		TicketCode: l.TicketCode,
		ItemID:     l.ItemID,
		BorrowerID: l.BorrowerID,
		OperatorID: l.OperatorID,
		LoanDate:   l.LoanDate,
		DueDate:    r.Status.DueDate(l.LoanDate),
		Status:     r.Status.Status(l.LoanDate),
		Notes:      l.Notes,
	}
	if v.Status == models.LoanOverdue {
		v.DaysOverdue = r.Status.DaysOverdue(l.LoanDate)
		v.Severity = models.SeverityFor(v.DaysOverdue)
	}
	return v
}

func historyView(h models.LoanHistory) LoanView {
	rd := h.ReturnDate
	return LoanView{
		ID:          h.ID,
		TicketCode:  h.TicketCode,
		ItemID:      h.ItemID,
		BorrowerID:  h.BorrowerID,
		OperatorID:  h.OperatorID,
		LoanDate:    h.LoanDate,
		DueDate:     h.DueDate,
		Status:      models.LoanReturned,
		Notes:       h.Notes,
		ReturnDate:  &rd,
		ReturnNotes: h.ReturnNotes,
		ReturnedBy:  h.ReturnedBy,
	}
}

type IssueLoanInput struct {
	RequestID  string // optional, becomes the loan id
	ItemID     string
	BorrowerID string
	Notes      string
	Actor      Actor
}

// IssueLoan lends an item in one transaction: lock the item, flip
// available true->false with a conditional write, insert the active loan and
// the audit entry. A second caller racing for the same item gets
// ErrItemUnavailable.
func (r *Repo) IssueLoan(ctx context.Context, in IssueLoanInput) (*LoanView, error) {
	var view LoanView
	err := RetryTx(ctx, func(ctx context.Context) error {
		return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if in.RequestID != "" {
				v, found, err := r.replayIssue(tx, in)
				if err != nil || found {
					view = v
					return err
				}
			}

			var it models.Item
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&it, "id = ?", in.ItemID).Error; err != nil {
				return notFound(err, ErrItemNotFound, "lock item")
			}
			// 锁住借用人：与 DeleteBorrower 及同一借用人的并发借出串行化
			var b models.Borrower
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id").First(&b, "id = ?", in.BorrowerID).Error; err != nil {
				return notFound(err, ErrBorrowerNotFound, "lock borrower")
			}
			if err := r.checkLoanLimit(tx, in.BorrowerID); err != nil {
				return err
			}

			now := r.now()
			if err := reserveItem(tx, it.ID, now); err != nil {
				return err
			}

			id := in.RequestID
			if id == "" {
				id = uuid.NewString()
			}
			loan := models.ActiveLoan{
				ID:         id,
				ItemID:     it.ID,
				BorrowerID: in.BorrowerID,
				OperatorID: in.Actor.ID,
				LoanDate:   now,
				DueDate:    r.Status.DueDate(now),
				Status:     models.LoanActive,
				Notes:      in.Notes,
				TicketCode: models.NewTicketCode(now),
				CreatedAt:  now,
			}
			if err := tx.Create(&loan).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrItemUnavailable
				}
				return errors.Wrap(err, "insert loan")
			}
			if err := writeAudit(tx, models.AuditEntry{
				Action: models.AuditLoanIssued,
				LoanID: &loan.ID,
				ItemID: &loan.ItemID,
				Detail: strPtr(loan.TicketCode),
			}, in.Actor, now); err != nil {
				return err
			}
			view = r.activeView(loan)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if err := r.attach(ctx, []*LoanView{&view}); err != nil {
		return nil, err
	}
	r.log.Info("loan issued",
		zap.String("loan_id", view.ID),
		zap.String("item_id", view.ItemID),
		zap.Bool("replayed", view.Replayed))
	return &view, nil
}

// reserveItem flips available true->false only if it is still true. Zero rows
// affected means someone else holds the item.
func reserveItem(tx *gorm.DB, itemID string, now time.Time) error {
	res := tx.Model(&models.Item{}).
		Where("id = ? AND available = ?", itemID, true).
		Updates(map[string]any{"available": false, "updated_at": now})
	if res.Error != nil {
		return errors.Wrap(res.Error, "reserve item")
	}
	if res.RowsAffected == 0 {
		return ErrItemUnavailable
	}
	return nil
}

func (r *Repo) replayIssue(tx *gorm.DB, in IssueLoanInput) (LoanView, bool, error) {
	var l models.ActiveLoan
	err := tx.First(&l, "id = ?", in.RequestID).Error
	if err == nil {
		if l.ItemID != in.ItemID || l.BorrowerID != in.BorrowerID {
			return LoanView{}, true, ErrRequestReused
		}
		v := r.activeView(l)
		v.Replayed = true
		return v, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return LoanView{}, false, errors.Wrap(err, "find loan")
	}
	var h models.LoanHistory
	err = tx.First(&h, "id = ?", in.RequestID).Error
	if err == nil {
		if h.ItemID != in.ItemID || h.BorrowerID != in.BorrowerID {
			return LoanView{}, true, ErrRequestReused
		}
		v := historyView(h)
		v.Replayed = true
		return v, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return LoanView{}, false, errors.Wrap(err, "find history")
	}
	return LoanView{}, false, nil
}

func (r *Repo) checkLoanLimit(tx *gorm.DB, borrowerID string) error {
	s := models.DefaultSettings()
	if err := tx.First(&s, models.SettingsRowID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "load settings")
	}
	if s.MaxLoansPerBorrower <= 0 {
		return nil
	}
	var n int64
	if err := tx.Model(&models.ActiveLoan{}).Where("borrower_id = ?", borrowerID).Count(&n).Error; err != nil {
		return errors.Wrap(err, "count borrower loans")
	}
	if n >= int64(s.MaxLoansPerBorrower) {
		return ErrLoanLimitReached
	}
	return nil
}

type ReturnLoanInput struct {
	LoanID string
	Notes  string
	Actor  Actor
}

// ReturnLoan moves the active loan into history as returned and makes the item
// available again, all in one transaction. Returning a loan that is already
// in history gives back that record.
func (r *Repo) ReturnLoan(ctx context.Context, in ReturnLoanInput) (*LoanView, error) {
	var view LoanView
	err := RetryTx(ctx, func(ctx context.Context) error {
		return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var l models.ActiveLoan
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&l, "id = ?", in.LoanID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				var h models.LoanHistory
				if err := tx.First(&h, "id = ?", in.LoanID).Error; err != nil {
					return notFound(err, ErrLoanNotFound, "find history")
				}
				view = historyView(h)
				view.Replayed = true
				return nil
			}
			if err != nil {
				return errors.Wrap(err, "lock loan")
			}

			now := r.now()
			h := l.ToHistory(now, in.Notes, in.Actor.ID)
			h.UpdatedAt = now
			if err := tx.Create(&h).Error; err != nil {
				return errors.Wrap(err, "insert history")
			}
			if err := tx.Delete(&models.ActiveLoan{}, "id = ?", l.ID).Error; err != nil {
				return errors.Wrap(err, "delete loan")
			}
			if err := tx.Model(&models.Item{}).
				Where("id = ?", l.ItemID).
				Updates(map[string]any{"available": true, "updated_at": now}).Error; err != nil {
				return errors.Wrap(err, "release item")
			}
			if err := writeAudit(tx, models.AuditEntry{
				Action: models.AuditLoanReturned,
				LoanID: &l.ID,
				ItemID: &l.ItemID,
				Detail: strPtr(h.TicketCode),
			}, in.Actor, now); err != nil {
				return err
			}
			view = historyView(h)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if err := r.attach(ctx, []*LoanView{&view}); err != nil {
		return nil, err
	}
	r.log.Info("loan returned", zap.String("loan_id", view.ID), zap.Bool("replayed", view.Replayed))
	return &view, nil
}

// GetLoan looks the id up in active loans first, then in history.
func (r *Repo) GetLoan(ctx context.Context, id string) (*LoanView, error) {
	var view LoanView
	var l models.ActiveLoan
	err := r.DB.WithContext(ctx).First(&l, "id = ?", id).Error
	switch {
	case err == nil:
		view = r.activeView(l)
	case errors.Is(err, gorm.ErrRecordNotFound):
		var h models.LoanHistory
		if err := r.DB.WithContext(ctx).First(&h, "id = ?", id).Error; err != nil {
			return nil, notFound(err, ErrLoanNotFound, "find history")
		}
		view = historyView(h)
	default:
		return nil, errors.Wrap(err, "find loan")
	}
	if err := r.attach(ctx, []*LoanView{&view}); err != nil {
		return nil, err
	}
	return &view, nil
}

type LoansQuery struct {
	Q        string // ticket code / item name / borrower name
	Ticket   string // exact ticket code
	Status   string // "", "all", "active", "overdue"
	Severity string // overdue view only: "", "all", "mild", "moderate", "severe"
	Page     int
	Size     int
}

type PagedLoans struct {
	Total int64      `json:"total"`
	Loans []LoanView `json:"loans"`
}

func (r *Repo) loanSearch(ctx context.Context, tx *gorm.DB, q LoansQuery) *gorm.DB {
	if t := strings.TrimSpace(q.Ticket); t != "" {
		tx = tx.Where("ticket_code = ?", strings.ToUpper(t))
	}
	like := likePattern(q.Q)
	if like == "" {
		return tx
	}
	items := r.DB.WithContext(ctx).Model(&models.Item{}).Select("id").Where(likeAny("name"), like)
	borrowers := r.DB.WithContext(ctx).Model(&models.Borrower{}).Select("id").Where(likeAny("name"), like)
	return tx.Where(likeAny("ticket_code")+" OR item_id IN (?) OR borrower_id IN (?)", like, items, borrowers)
}

// ListActiveLoans filters outstanding loans. Status is resolved against the
// repo's StatusResolver, so an "overdue" filter and the per-row status agree.
func (r *Repo) ListActiveLoans(ctx context.Context, q LoansQuery) (*PagedLoans, error) {
	tx := r.loanSearch(ctx, r.DB.WithContext(ctx).Model(&models.ActiveLoan{}), q)
	cutoff := r.Status.OverdueCutoff()
	order := "loan_date DESC, id ASC"
	switch models.LoanStatus(filterValue(q.Status)) {
	case models.LoanActive:
		tx = tx.Where("loan_date >= ?", cutoff)
	case models.LoanOverdue:
		tx = tx.Where("loan_date < ?", cutoff)
		order = "loan_date ASC, id ASC"
		if sev := filterValue(q.Severity); sev != "" {
			after, notAfter, ok := r.Status.SeverityRange(models.Severity(sev))
			if ok {
				if !after.IsZero() {
					tx = tx.Where("loan_date > ?", after)
				}
				tx = tx.Where("loan_date <= ?", notAfter)
			}
		}
	}
	return r.pageActive(ctx, tx, q, order)
}

// ListOverdueLoans is ListActiveLoans with the status pinned to overdue.
func (r *Repo) ListOverdueLoans(ctx context.Context, q LoansQuery) (*PagedLoans, error) {
	q.Status = string(models.LoanOverdue)
	return r.ListActiveLoans(ctx, q)
}

func (r *Repo) pageActive(ctx context.Context, tx *gorm.DB, q LoansQuery, order string) (*PagedLoans, error) {
	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count loans")
	}
	var rows []models.ActiveLoan
	if err := tx.Session(&gorm.Session{}).
		Scopes(paginate(q.Page, q.Size)).
		Order(order).
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list loans")
	}
	out := make([]LoanView, len(rows))
	ptrs := make([]*LoanView, len(rows))
	for i, l := range rows {
		out[i] = r.activeView(l)
		ptrs[i] = &out[i]
	}
	if err := r.attach(ctx, ptrs); err != nil {
		return nil, err
	}
	return &PagedLoans{Total: total, Loans: out}, nil
}

func (r *Repo) ListLoanHistory(ctx context.Context, q LoansQuery) (*PagedLoans, error) {
	tx := r.loanSearch(ctx, r.DB.WithContext(ctx).Model(&models.LoanHistory{}), q)
	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count history")
	}
	var rows []models.LoanHistory
	if err := tx.Session(&gorm.Session{}).
		Scopes(paginate(q.Page, q.Size)).
		Order("return_date DESC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list history")
	}
	out := make([]LoanView, len(rows))
	ptrs := make([]*LoanView, len(rows))
	for i, h := range rows {
		out[i] = historyView(h)
		ptrs[i] = &out[i]
	}
	if err := r.attach(ctx, ptrs); err != nil {
		return nil, err
	}
	return &PagedLoans{Total: total, Loans: out}, nil
}

// attach fills item, borrower and operator names with one IN query per table,
// run concurrently.
func (r *Repo) attach(ctx context.Context, views []*LoanView) error {
	if len(views) == 0 {
		return nil
	}
	itemIDs := make(map[string]struct{})
	borrowerIDs := make(map[string]struct{})
	operatorIDs := make(map[string]struct{})
	for _, v := range views {
		itemIDs[v.ItemID] = struct{}{}
		borrowerIDs[v.BorrowerID] = struct{}{}
		if v.OperatorID != "" {
			operatorIDs[v.OperatorID] = struct{}{}
		}
		if v.ReturnedBy != "" {
			operatorIDs[v.ReturnedBy] = struct{}{}
		}
	}

	var (
		items     []models.Item
		borrowers []models.Borrower
		operators []models.Operator
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.DB.WithContext(gctx).Where("id IN ?", keys(itemIDs)).Find(&items).Error
	})
	g.Go(func() error {
		return r.DB.WithContext(gctx).Where("id IN ?", keys(borrowerIDs)).Find(&borrowers).Error
	})
	if len(operatorIDs) > 0 {
		g.Go(func() error {
			return r.DB.WithContext(gctx).Select("id", "name").Where("id IN ?", keys(operatorIDs)).Find(&operators).Error
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "load loan references")
	}

	itemByID := make(map[string]models.Item, len(items))
	for _, it := range items {
		itemByID[it.ID] = it
	}
	borrowerByID := make(map[string]models.Borrower, len(borrowers))
	for _, b := range borrowers {
		borrowerByID[b.ID] = b
	}
	opName := make(map[string]string, len(operators))
	for _, o := range operators {
		opName[o.ID] = o.Name
	}
	for _, v := range views {
		if it, ok := itemByID[v.ItemID]; ok {
			v.ItemName, v.ItemCategory = it.Name, it.Category
		}
		if b, ok := borrowerByID[v.BorrowerID]; ok {
			v.BorrowerName, v.Career, v.Email, v.Phone = b.Name, b.Career, b.Email, b.Phone
		}
		v.OperatorName = opName[v.OperatorID]
		if v.ReturnedBy != "" {
			v.ReturnedByName = opName[v.ReturnedBy]
		}
	}
	return nil
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
