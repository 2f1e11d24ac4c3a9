package controllers

import (
	"net/http"

	"Gin_postgres_redis_tool_lending/app"
	"Gin_postgres_redis_tool_lending/db"
	"Gin_postgres_redis_tool_lending/models"
	"Gin_postgres_redis_tool_lending/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OperatorController struct {
	repo    *db.Repo
	appSess *session.AppSessionStore
	log     *zap.Logger
}

func GetOperatorController(repo *db.Repo, appSess *session.AppSessionStore, log *zap.Logger) *OperatorController {
	return &OperatorController{repo: repo, appSess: appSess, log: log.Named("operators")}
}

type operatorsQuery struct {
	Q    string `form:"q" binding:"max=100"`
	Role string `form:"role" binding:"omitempty,oneof=all admin superadmin"`
	Page int    `form:"page" binding:"min=0"`
	Size int    `form:"size" binding:"min=0,max=200"`
}

type createOperatorReq struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"max=120"`
	Role     string `json:"role" binding:"required,role"`
	Password string `json:"password" binding:"required,min=6"`
}

type updateOperatorReq struct {
	Name string `json:"name" binding:"required,max=120"`
	Role string `json:"role" binding:"required,role"`
}

// GET /api/operators?q=&role=&page=&size=
func (oc *OperatorController) List(c *gin.Context) {
	var q operatorsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	res, err := oc.repo.ListOperators(c.Request.Context(), db.OperatorsQuery{
		Q: q.Q, Role: q.Role, Page: q.Page, Size: q.Size,
	})
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/operators/:id
func (oc *OperatorController) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	op, err := oc.repo.FindOperatorByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"operator": op, "protected": op.IsFallback()})
}

// POST /api/operators
func (oc *OperatorController) Create(c *gin.Context) {
	var in createOperatorReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	op, err := oc.repo.CreateOperator(c.Request.Context(), db.CreateOperatorInput{
		Email:    in.Email,
		Name:     in.Name,
		Role:     models.Role(in.Role),
		Password: in.Password,
	})
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	c.JSON(http.StatusCreated, op)
}

// PUT /api/operators/:id
// 只允许改名字和角色
func (oc *OperatorController) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in updateOperatorReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	op, err := oc.repo.UpdateOperator(c.Request.Context(), id, in.Name, models.Role(in.Role))
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	c.JSON(http.StatusOK, op)
}

// DELETE /api/operators/:id
func (oc *OperatorController) Delete(c *gin.Context) {
	sess, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := oc.repo.DeleteOperator(c.Request.Context(), id, sess.Actor()); err != nil {
		respondError(c, oc.log, err)
		return
	}
	// 撤销该操作员的所有登录会话
	if err := oc.appSess.RevokeAllForOperator(c.Request.Context(), id); err != nil {
		oc.log.Warn("revoke sessions", zap.String("operator_id", id), zap.Error(err))
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
