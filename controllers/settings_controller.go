package controllers

import (
	"net/http"

	"Gin_postgres_redis_tool_lending/app"

	"github.com/gin-gonic/gin"
)

type SettingsController struct{ *Srv }

func NewSettingsController(s *Srv) *SettingsController { return &SettingsController{Srv: s} }

type settingsReq struct {
	MaxLoansPerBorrower *int `json:"maxLoansPerBorrower" binding:"required,min=0"`
}

// GET /api/settings
func (sc *SettingsController) Get(c *gin.Context) {
	st, err := sc.Repo.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, sc.Log, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"settings":      st,
		"loanGraceDays": sc.Cfg.LoanGraceDays,
	})
}

// PUT /api/settings
func (sc *SettingsController) Update(c *gin.Context) {
	sess, ok := actor(c)
	if !ok {
		return
	}
	var in settingsReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	st, err := sc.Repo.UpdateSettings(c.Request.Context(), *in.MaxLoansPerBorrower, sess.Actor())
	if err != nil {
		respondError(c, sc.Log, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"settings":      st,
		"loanGraceDays": sc.Cfg.LoanGraceDays,
	})
}
