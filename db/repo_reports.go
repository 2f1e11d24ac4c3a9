package db

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"Gin_postgres_redis_tool_lending/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	DefaultReportDays = 30
	MaxReportDays     = 3650
	topItemsLimit     = 5
	unknownCareer     = "unspecified"
)

// gorm 的 Raw 使用 ? 占位符
var qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// snapshot runs fn in one read-only transaction so every count in a report
// sees the same committed state. Postgres gets REPEATABLE READ.
func (r *Repo) snapshot(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var opts *sql.TxOptions
	if r.DB.Dialector.Name() == "postgres" {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return r.DB.WithContext(ctx).Transaction(fn, opts)
}

type counter struct {
	dst *int64
	b   sq.SelectBuilder
}

func countAll(tx *gorm.DB, cs ...counter) error {
	for _, c := range cs {
		n, err := scalar(tx, c.b)
		if err != nil {
			return err
		}
		*c.dst = n
	}
	return nil
}

func scalar(tx *gorm.DB, b sq.SelectBuilder) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "build query")
	}
	var n int64
	if err := tx.Raw(query, args...).Scan(&n).Error; err != nil {
		return 0, errors.Wrap(err, "run count")
	}
	return n, nil
}

type groupRow struct {
	Grp   string
	Loans int64
}

func grouped(tx *gorm.DB, b sq.SelectBuilder) ([]groupRow, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	var rows []groupRow
	if err := tx.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "run group query")
	}
	return rows, nil
}

func between(col string, from, to time.Time) sq.And {
	return sq.And{sq.GtOrEq{col: from}, sq.Lt{col: to}}
}

// BuildReport aggregates active and returned loans taken in the last days.
func (r *Repo) BuildReport(ctx context.Context, days int) (*models.Report, error) {
	if days <= 0 {
		days = DefaultReportDays
	}
	if days > MaxReportDays {
		days = MaxReportDays
	}
	now := r.now()
	from := now.Add(-time.Duration(days) * 24 * time.Hour)
	// 上界开区间，+1ns 让 now 本身也算进窗口
	window := between("loan_date", from, now.Add(time.Nanosecond))
	cutoff := r.Status.OverdueCutoff()

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevStart := monthStart.AddDate(0, -1, 0)
	nextStart := monthStart.AddDate(0, 1, 0)

	rep := &models.Report{From: from, To: now, Days: days, GeneratedAt: now}

	var (
		activeTotal, overdue, returned int64
		curActive, curHist             int64
		prevActive, prevHist           int64
		itemRows, careerRows           [2][]groupRow
		top                            []models.ItemCount
	)
	tables := [2]string{models.LoanTable, models.LoanHistoryTable}

	err := r.snapshot(ctx, func(tx *gorm.DB) error {
		if err := countAll(tx,
			counter{&activeTotal, qb.Select("COUNT(*)").From(models.LoanTable).Where(window)},
			counter{&overdue, qb.Select("COUNT(*)").From(models.LoanTable).Where(window).Where(sq.Lt{"loan_date": cutoff})},
			counter{&returned, qb.Select("COUNT(*)").From(models.LoanHistoryTable).Where(window)},
			counter{&curActive, qb.Select("COUNT(*)").From(models.LoanTable).Where(between("loan_date", monthStart, nextStart))},
			counter{&curHist, qb.Select("COUNT(*)").From(models.LoanHistoryTable).Where(between("loan_date", monthStart, nextStart))},
			counter{&prevActive, qb.Select("COUNT(*)").From(models.LoanTable).Where(between("loan_date", prevStart, monthStart))},
			counter{&prevHist, qb.Select("COUNT(*)").From(models.LoanHistoryTable).Where(between("loan_date", prevStart, monthStart))},
		); err != nil {
			return err
		}

		for i, t := range tables {
			var err error
			if itemRows[i], err = grouped(tx, qb.
				Select("item_id AS grp", "COUNT(*) AS loans").
				From(t).
				Where(window).
				GroupBy("item_id")); err != nil {
				return err
			}
			if careerRows[i], err = grouped(tx, qb.
				Select("b.career AS grp", "COUNT(*) AS loans").
				From(t + " l").
				Join(models.BorrowerTable + " b ON b.id = l.borrower_id").
				Where(between("l.loan_date", from, now.Add(time.Nanosecond))).
				GroupBy("b.career")); err != nil {
				return err
			}
		}

		var err error
		top, err = topItems(tx, merge(itemRows[0], itemRows[1]))
		return err
	})
	if err != nil {
		return nil, err
	}

	rep.Overdue = overdue
	rep.Active = activeTotal - overdue
	rep.Returned = returned
	rep.Total = activeTotal + returned
	rep.ThisMonth = curActive + curHist
	rep.LastMonth = prevActive + prevHist
	rep.GrowthPct = models.Growth(rep.ThisMonth, rep.LastMonth)
	rep.TopItems = top

	careers := merge(careerRows[0], careerRows[1])
	rep.ByCareer = make([]models.CareerCount, 0, len(careers))
	for _, c := range careers {
		name := c.Grp
		if name == "" {
			name = unknownCareer
		}
		rep.ByCareer = append(rep.ByCareer, models.CareerCount{Career: name, Loans: c.Loans})
	}
	return rep, nil
}

// merge sums rows by key and sorts by count desc, key asc.
func merge(a, b []groupRow) []groupRow {
	sum := make(map[string]int64, len(a)+len(b))
	for _, rows := range [][]groupRow{a, b} {
		for _, row := range rows {
			sum[row.Grp] += row.Loans
		}
	}
	out := make([]groupRow, 0, len(sum))
	for k, n := range sum {
		out = append(out, groupRow{Grp: k, Loans: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Loans != out[j].Loans {
			return out[i].Loans > out[j].Loans
		}
		return out[i].Grp < out[j].Grp
	})
	return out
}

func topItems(tx *gorm.DB, rows []groupRow) ([]models.ItemCount, error) {
	if len(rows) > topItemsLimit {
		rows = rows[:topItemsLimit]
	}
	out := make([]models.ItemCount, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.Grp
	}
	var items []models.Item
	if err := tx.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "load top items")
	}
	byID := make(map[string]models.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	for _, row := range rows {
		it := byID[row.Grp]
		out = append(out, models.ItemCount{ItemID: row.Grp, Name: it.Name, Category: it.Category, Loans: row.Loans})
	}
	return out, nil
}

type DashboardStats struct {
	TotalItems     int64      `json:"totalItems"`
	AvailableItems int64      `json:"availableItems"`
	Borrowers      int64      `json:"borrowers"`
	ActiveLoans    int64      `json:"activeLoans"`
	OverdueLoans   int64      `json:"overdueLoans"`
	RecentLoans    []LoanView `json:"recentLoans"`
}

const recentLoansLimit = 5

func (r *Repo) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var st DashboardStats
	cutoff := r.Status.OverdueCutoff()

	err := r.snapshot(ctx, func(tx *gorm.DB) error {
		return countAll(tx,
			counter{&st.TotalItems, qb.Select("COUNT(*)").From(models.ItemTable)},
			counter{&st.AvailableItems, qb.Select("COUNT(*)").From(models.ItemTable).Where(sq.Eq{"available": true})},
			counter{&st.Borrowers, qb.Select("COUNT(*)").From(models.BorrowerTable)},
			counter{&st.ActiveLoans, qb.Select("COUNT(*)").From(models.LoanTable)},
			counter{&st.OverdueLoans, qb.Select("COUNT(*)").From(models.LoanTable).Where(sq.Lt{"loan_date": cutoff})},
		)
	})
	if err != nil {
		return nil, err
	}

	recent, err := r.ListActiveLoans(ctx, LoansQuery{Page: 1, Size: recentLoansLimit})
	if err != nil {
		return nil, err
	}
	st.RecentLoans = recent.Loans
	return &st, nil
}
