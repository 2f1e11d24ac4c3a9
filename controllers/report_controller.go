package controllers

import (
	"bytes"
	"net/http"

	"Gin_postgres_redis_tool_lending/report"

	"github.com/gin-gonic/gin"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

type reportQuery struct {
	Days int `form:"days" binding:"min=0,max=3650"`
}

// GET /api/dashboard
func (rc *ReportController) Dashboard(c *gin.Context) {
	st, err := rc.Repo.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, rc.Log, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /api/reports?days=30
func (rc *ReportController) Report(c *gin.Context) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	rep, err := rc.Repo.BuildReport(c.Request.Context(), q.Days)
	if err != nil {
		respondError(c, rc.Log, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GET /api/reports/export?days=30
// 以 txt 附件下载
func (rc *ReportController) Export(c *gin.Context) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	rep, err := rc.Repo.BuildReport(c.Request.Context(), q.Days)
	if err != nil {
		respondError(c, rc.Log, err)
		return
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, rep); err != nil {
		respondError(c, rc.Log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(rep.GeneratedAt)+`"`)
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}
