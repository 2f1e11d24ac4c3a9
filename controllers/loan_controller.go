package controllers

import (
	"io"
	"net/http"

	"Gin_postgres_redis_tool_lending/db"
	"Gin_postgres_redis_tool_lending/events"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type LoanController struct {
	store  LoanStore
	events events.Publisher
	log    *zap.Logger
}

func NewLoanController(store LoanStore, pub events.Publisher, log *zap.Logger) *LoanController {
	if pub == nil {
		pub = events.Nop{}
	}
	return &LoanController{store: store, events: pub, log: log.Named("loans")}
}

type issueReq struct {
	RequestID  string `json:"requestId" binding:"omitempty,uuid"`
	ItemID     string `json:"itemId" binding:"required,uuid"`
	BorrowerID string `json:"borrowerId" binding:"required,uuid"`
	Notes      string `json:"notes" binding:"max=500"`
}

type returnReq struct {
	Notes string `json:"notes" binding:"max=500"`
}

type loansQuery struct {
	Q        string `form:"q" binding:"max=100"`
	Ticket   string `form:"ticket" binding:"omitempty,ticket"`
	Status   string `form:"status" binding:"omitempty,oneof=all active overdue"`
	Severity string `form:"severity" binding:"omitempty,oneof=all mild moderate severe"`
	Page     int    `form:"page" binding:"min=0"`
	Size     int    `form:"size" binding:"min=0,max=200"`
}

func (q loansQuery) toDB() db.LoansQuery {
	return db.LoansQuery{Q: q.Q, Ticket: q.Ticket, Status: q.Status, Severity: q.Severity, Page: q.Page, Size: q.Size}
}

// POST /api/loans
// 借出：201 新建，200 表示同一 requestId 的重放
func (lc *LoanController) Issue(c *gin.Context) {
	sess, ok := actor(c)
	if !ok {
		return
	}
	var in issueReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	loan, err := lc.store.IssueLoan(c.Request.Context(), db.IssueLoanInput{
		RequestID:  in.RequestID,
		ItemID:     in.ItemID,
		BorrowerID: in.BorrowerID,
		Notes:      in.Notes,
		Actor:      sess.Actor(),
	})
	if err != nil {
		respondError(c, lc.log, err)
		return
	}
	if loan.Replayed {
		c.JSON(http.StatusOK, loan)
		return
	}
	lc.publish(c, events.LoanIssued, loan)
	c.JSON(http.StatusCreated, loan)
}

// POST /api/loans/:id/return
func (lc *LoanController) Return(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sess, ok := actor(c)
	if !ok {
		return
	}
	var in returnReq
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	loan, err := lc.store.ReturnLoan(c.Request.Context(), db.ReturnLoanInput{
		LoanID: id,
		Notes:  in.Notes,
		Actor:  sess.Actor(),
	})
	if err != nil {
		respondError(c, lc.log, err)
		return
	}
	if !loan.Replayed {
		lc.publish(c, events.LoanReturned, loan)
	}
	c.JSON(http.StatusOK, loan)
}

// GET /api/loans/:id
func (lc *LoanController) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	loan, err := lc.store.GetLoan(c.Request.Context(), id)
	if err != nil {
		respondError(c, lc.log, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

// GET /api/loans?q=&ticket=&status=&severity=&page=&size=
func (lc *LoanController) ListActive(c *gin.Context) {
	var q loansQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	res, err := lc.store.ListActiveLoans(c.Request.Context(), q.toDB())
	if err != nil {
		respondError(c, lc.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/loans/overdue?q=&severity=
func (lc *LoanController) ListOverdue(c *gin.Context) {
	var q loansQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	res, err := lc.store.ListOverdueLoans(c.Request.Context(), q.toDB())
	if err != nil {
		respondError(c, lc.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/loans/history?q=
func (lc *LoanController) ListHistory(c *gin.Context) {
	var q loansQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	res, err := lc.store.ListLoanHistory(c.Request.Context(), q.toDB())
	if err != nil {
		respondError(c, lc.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// publish runs after the commit. Failures are logged only.
func (lc *LoanController) publish(c *gin.Context, typ events.Type, loan *db.LoanView) {
	ev := events.LoanEvent{
		Type:       typ,
		LoanID:     loan.ID,
		ItemID:     loan.ItemID,
		BorrowerID: loan.BorrowerID,
		OperatorID: loan.OperatorID,
		TicketCode: loan.TicketCode,
		At:         loan.LoanDate,
	}
	if typ == events.LoanReturned && loan.ReturnDate != nil {
		ev.At = *loan.ReturnDate
		ev.OperatorID = loan.ReturnedBy
	}
	if err := lc.events.Publish(c.Request.Context(), ev); err != nil {
		lc.log.Warn("publish loan event", zap.String("loan_id", loan.ID), zap.Error(err))
	}
}

// 供路由层使用
func (s *Srv) LoanController(pub events.Publisher) *LoanController {
	return NewLoanController(s.Repo, pub, s.Log)
}
