package controllers

import (
	"net/http"

	"Gin_postgres_redis_tool_lending/app"
	"Gin_postgres_redis_tool_lending/db"
	"Gin_postgres_redis_tool_lending/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerReq struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"max=120"`
	Password string `json:"password" binding:"required,min=6"`
}

// POST /auth/login
func (s *Srv) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	op, err := s.Repo.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		respondError(c, s.Log, err)
		return
	}
	if err := s.issueSession(ctx, c.Writer, op.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		s.Log.Error("create app session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "create app session failed"})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "operator": op})
}

// POST /auth/register
// 自助注册只能得到普通管理员角色
func (s *Srv) Register(c *gin.Context) {
	if !s.Cfg.AllowSignup {
		c.JSON(http.StatusForbidden, app.H{"error": "sign-up disabled"})
		return
	}
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	op, err := s.Repo.CreateOperator(ctx, db.CreateOperatorInput{
		Email:    in.Email,
		Name:     in.Name,
		Role:     models.RoleAdmin,
		Password: in.Password,
	})
	if err != nil {
		respondError(c, s.Log, err)
		return
	}
	s.Log.Info("operator registered", zap.String("operator_id", op.ID), zap.String("email", op.Email))

	if err := s.issueSession(ctx, c.Writer, op.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		s.Log.Error("create app session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": "create app session failed"})
		return
	}
	c.JSON(http.StatusCreated, app.H{"ok": true, "operator": op})
}

// POST /auth/logout
func (s *Srv) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		if err := s.AppSess.Delete(c.Request.Context(), ck.Value); err != nil {
			s.Log.Warn("delete app session", zap.Error(err))
		}
	}
	s.clearAppCookie(c.Writer)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /auth/me
func (s *Srv) Me(c *gin.Context) {
	sess, ok := actor(c)
	if !ok {
		return
	}
	op, err := s.Repo.FindOperatorByID(c.Request.Context(), sess.OperatorID)
	if err != nil {
		respondError(c, s.Log, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"operator":   op,
		"isSuper":    op.IsSuper(),
		"isFallback": op.IsFallback(),
	})
}
