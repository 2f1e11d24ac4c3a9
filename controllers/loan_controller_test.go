package controllers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Gin_postgres_redis_tool_lending/app"
	"Gin_postgres_redis_tool_lending/controllers"
	"Gin_postgres_redis_tool_lending/db"
	"Gin_postgres_redis_tool_lending/events"
	"Gin_postgres_redis_tool_lending/models"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	store_mocks "Gin_postgres_redis_tool_lending/controllers/mocks"
)

const (
	itemID     = "5b1a8f1e-3c1d-4a36-9a55-0d8c1f5e2a10"
	borrowerID = "9e0f6a2b-7d4c-4b1e-8f3a-2c5d6e7f8a90"
	loanID     = "c2d3e4f5-a6b7-4c8d-9e0f-1a2b3c4d5e6f"
	operatorID = "0d9c8b7a-6f5e-4d3c-2b1a-098765432100"
)

var loanDate = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	events []events.LoanEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.LoanEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func withOperator(c *gin.Context) {
	app.SetSession(c, &app.Session{OperatorID: operatorID, Name: "Ana", Role: models.RoleAdmin})
	c.Next()
}

func newLoanRouter(store controllers.LoanStore, pub events.Publisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controllers.RegisterValidators()
	lc := controllers.NewLoanController(store, pub, zap.NewNop())

	r := gin.New()
	g := r.Group("/api/loans", withOperator)
	g.GET("", lc.ListActive)
	g.GET("/overdue", lc.ListOverdue)
	g.GET("/:id", lc.Get)
	g.POST("", lc.Issue)
	g.POST("/:id/return", lc.Return)
	return r
}

func sampleLoan() *db.LoanView {
	return &db.LoanView{
		ID:           loanID,
		TicketCode:   "TL250303042",
		ItemID:       itemID,
		ItemName:     "Phillips screwdriver",
		BorrowerID:   borrowerID,
		BorrowerName: "J. Perez",
		OperatorID:   operatorID,
		LoanDate:     loanDate,
		DueDate:      loanDate.Add(15 * 24 * time.Hour),
		Status:       models.LoanActive,
	}
}

func TestLoanController_Issue(t *testing.T) {
	t.Parallel()
	type mockBehavior func(s *store_mocks.MockLoanStore)

	issueBody := `{"itemId":"` + itemID + `","borrowerId":"` + borrowerID + `"}`
	tests := []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		expectedCode int
		expectedBody string
		published    int
	}{
		{
			name: "ok",
			body: issueBody,
			mockBehavior: func(s *store_mocks.MockLoanStore) {
				s.EXPECT().
					IssueLoan(gomock.Any(), db.IssueLoanInput{
						ItemID:     itemID,
						BorrowerID: borrowerID,
						Actor:      db.Actor{ID: operatorID, Name: "Ana"},
					}).
					Return(sampleLoan(), nil)
			},
			expectedCode: http.StatusCreated,
			published:    1,
		},
		{
			name: "replayed request",
			body: `{"requestId":"` + loanID + `","itemId":"` + itemID + `","borrowerId":"` + borrowerID + `"}`,
			mockBehavior: func(s *store_mocks.MockLoanStore) {
				l := sampleLoan()
				l.Replayed = true
				s.EXPECT().IssueLoan(gomock.Any(), gomock.Any()).Return(l, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "err. missing item",
			body:         `{"borrowerId":"` + borrowerID + `"}`,
			mockBehavior: func(s *store_mocks.MockLoanStore) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "err. item on loan",
			body: issueBody,
			mockBehavior: func(s *store_mocks.MockLoanStore) {
				s.EXPECT().IssueLoan(gomock.Any(), gomock.Any()).Return(nil, db.ErrItemUnavailable)
			},
			expectedCode: http.StatusConflict,
			expectedBody: `{"error":"item is not available"}`,
		},
		{
			name: "err. borrower not found",
			body: issueBody,
			mockBehavior: func(s *store_mocks.MockLoanStore) {
				s.EXPECT().IssueLoan(gomock.Any(), gomock.Any()).Return(nil, db.ErrBorrowerNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "err. internal",
			body: issueBody,
			mockBehavior: func(s *store_mocks.MockLoanStore) {
				s.EXPECT().IssueLoan(gomock.Any(), gomock.Any()).Return(nil, errors.New("db internal"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"internal error"}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			store := store_mocks.NewMockLoanStore(c)
			pub := &recordingPublisher{}
			tt.mockBehavior(store)

			r := httptest.NewRequest(http.MethodPost, "/api/loans", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			newLoanRouter(store, pub).ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != "" {
				require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
			require.Len(t, pub.events, tt.published)
			if tt.published > 0 {
				require.Equal(t, events.LoanIssued, pub.events[0].Type)
				require.Equal(t, "TL250303042", pub.events[0].TicketCode)
			}
		})
	}
}

func TestLoanController_PublishFailureDoesNotFailRequest(t *testing.T) {
	c := gomock.NewController(t)
	defer c.Finish()
	store := store_mocks.NewMockLoanStore(c)
	store.EXPECT().IssueLoan(gomock.Any(), gomock.Any()).Return(sampleLoan(), nil)
	pub := &recordingPublisher{err: errors.New("kafka down")}

	body := `{"itemId":"` + itemID + `","borrowerId":"` + borrowerID + `"}`
	r := httptest.NewRequest(http.MethodPost, "/api/loans", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newLoanRouter(store, pub).ServeHTTP(w, r)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, pub.events, 1)
}

func TestLoanController_Return(t *testing.T) {
	t.Parallel()
	returnedAt := loanDate.Add(20 * 24 * time.Hour)
	returned := func(replayed bool) *db.LoanView {
		l := sampleLoan()
		l.Status = models.LoanReturned
		l.ReturnDate = &returnedAt
		l.ReturnedBy = operatorID
		l.Replayed = replayed
		return l
	}

	tests := []struct {
		name         string
		body         string
		result       *db.LoanView
		err          error
		expectedCode int
		published    int
	}{
		{name: "ok empty body", result: returned(false), expectedCode: http.StatusOK, published: 1},
		{name: "ok with notes", body: `{"notes":"sin daños"}`, result: returned(false), expectedCode: http.StatusOK, published: 1},
		{name: "already returned", result: returned(true), expectedCode: http.StatusOK},
		{name: "err. not found", err: db.ErrLoanNotFound, expectedCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			store := store_mocks.NewMockLoanStore(c)
			store.EXPECT().
				ReturnLoan(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, in db.ReturnLoanInput) (*db.LoanView, error) {
					require.Equal(t, loanID, in.LoanID)
					require.Equal(t, operatorID, in.Actor.ID)
					return tt.result, tt.err
				})
			pub := &recordingPublisher{}

			r := httptest.NewRequest(http.MethodPost, "/api/loans/"+loanID+"/return", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			newLoanRouter(store, pub).ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Len(t, pub.events, tt.published)
			if tt.published > 0 {
				require.Equal(t, events.LoanReturned, pub.events[0].Type)
				require.Equal(t, returnedAt, pub.events[0].At)
			}
		})
	}
}

func TestLoanController_ListActive(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		query        string
		want         *db.LoansQuery
		expectedCode int
	}{
		{
			name:         "defaults",
			query:        "",
			want:         &db.LoansQuery{},
			expectedCode: http.StatusOK,
		},
		{
			name:         "filters",
			query:        "?q=perez&status=overdue&severity=severe&page=2&size=10",
			want:         &db.LoansQuery{Q: "perez", Status: "overdue", Severity: "severe", Page: 2, Size: 10},
			expectedCode: http.StatusOK,
		},
		{
			name:         "all is accepted",
			query:        "?status=all&severity=all",
			want:         &db.LoansQuery{Status: "all", Severity: "all"},
			expectedCode: http.StatusOK,
		},
		{
			name:         "ticket lookup",
			query:        "?ticket=TL250303042",
			want:         &db.LoansQuery{Ticket: "TL250303042"},
			expectedCode: http.StatusOK,
		},
		{
			name:         "err. malformed ticket",
			query:        "?ticket=XX1",
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "err. unknown status",
			query:        "?status=lost",
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "err. page too large",
			query:        "?size=1000",
			expectedCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			store := store_mocks.NewMockLoanStore(c)
			if tt.want != nil {
				store.EXPECT().
					ListActiveLoans(gomock.Any(), *tt.want).
					Return(&db.PagedLoans{Total: 1, Loans: []db.LoanView{*sampleLoan()}}, nil)
			}

			r := httptest.NewRequest(http.MethodGet, "/api/loans"+tt.query, http.NoBody)
			w := httptest.NewRecorder()
			newLoanRouter(store, &recordingPublisher{}).ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				require.Contains(t, w.Body.String(), `"total":1`)
				require.Contains(t, w.Body.String(), `"ticketCode":"TL250303042"`)
			}
		})
	}
}

func TestLoanController_ListOverdue(t *testing.T) {
	c := gomock.NewController(t)
	defer c.Finish()
	store := store_mocks.NewMockLoanStore(c)
	store.EXPECT().
		ListOverdueLoans(gomock.Any(), db.LoansQuery{Severity: "mild"}).
		Return(&db.PagedLoans{Loans: []db.LoanView{}}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/loans/overdue?severity=mild", http.NoBody)
	w := httptest.NewRecorder()
	newLoanRouter(store, &recordingPublisher{}).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"total":0,"loans":[]}`, strings.Trim(w.Body.String(), "\n"))
}

func TestLoanController_Get(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		id           string
		found        bool
		expectedCode int
		expectedBody string
	}{
		{name: "ok", id: loanID, found: true, expectedCode: http.StatusOK},
		{name: "ok upper case", id: strings.ToUpper(loanID), found: true, expectedCode: http.StatusOK},
		{name: "ok without hyphens", id: strings.ReplaceAll(loanID, "-", ""), found: true, expectedCode: http.StatusOK},
		{name: "err. not found", id: loanID, expectedCode: http.StatusNotFound, expectedBody: `{"error":"loan not found"}`},
		{name: "err. malformed id", id: "missing", expectedCode: http.StatusBadRequest, expectedBody: `{"error":"invalid id"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			store := store_mocks.NewMockLoanStore(c)
			if tt.expectedCode != http.StatusBadRequest {
				var err error
				if !tt.found {
					err = db.ErrLoanNotFound
				}
				var res *db.LoanView
				if tt.found {
					res = sampleLoan()
				}
				// 仓储只会收到规范形式的 id
				store.EXPECT().GetLoan(gomock.Any(), loanID).Return(res, err)
			}

			r := httptest.NewRequest(http.MethodGet, "/api/loans/"+tt.id, http.NoBody)
			w := httptest.NewRecorder()
			newLoanRouter(store, &recordingPublisher{}).ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != "" {
				require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestLoanController_ReturnRejectsMalformedID(t *testing.T) {
	c := gomock.NewController(t)
	defer c.Finish()
	store := store_mocks.NewMockLoanStore(c)
	pub := &recordingPublisher{}

	r := httptest.NewRequest(http.MethodPost, "/api/loans/1%20OR%201=1/return", http.NoBody)
	w := httptest.NewRecorder()
	newLoanRouter(store, pub).ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, `{"error":"invalid id"}`, strings.Trim(w.Body.String(), "\n"))
	require.Empty(t, pub.events)
}
