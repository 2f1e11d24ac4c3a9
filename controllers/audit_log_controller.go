package controllers

import (
	"net/http"

	"Gin_postgres_redis_tool_lending/db"

	"github.com/gin-gonic/gin"
)

type AuditController struct{ *Srv }

func NewAuditController(s *Srv) *AuditController { return &AuditController{Srv: s} }

type auditQuery struct {
	Action string `form:"action" binding:"max=40"`
	Page   int    `form:"page" binding:"min=0"`
	Size   int    `form:"size" binding:"min=0,max=200"`
}

// GET /api/audit?action=loan.issued&page=1&size=50
func (ac *AuditController) List(c *gin.Context) {
	var q auditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	res, err := ac.Repo.ListAudit(c.Request.Context(), db.AuditQuery{
		Action: q.Action, Page: q.Page, Size: q.Size,
	})
	if err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
