package app

import (
	"errors"
	"net/http"

	"Gin_postgres_redis_tool_lending/db"
	"Gin_postgres_redis_tool_lending/models"
	"Gin_postgres_redis_tool_lending/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	AppSessionCookie = "app_session"
	sessionCtxKey    = "session"
)

// Session is the signed-in operator attached to each authenticated request.
type Session struct {
	OperatorID string
	Email      string
	Name       string
	Role       models.Role
}

func (s *Session) IsSuper() bool { return s != nil && s.Role == models.RoleSuperAdmin }

func (s *Session) Actor() db.Actor { return db.Actor{ID: s.OperatorID, Name: s.Name} }

func SessionFromOperator(op *models.Operator) *Session {
	return &Session{OperatorID: op.ID, Email: op.Email, Name: op.Name, Role: op.Role}
}

func SetSession(c *gin.Context, s *Session) { c.Set(sessionCtxKey, s) }

func CurrentSession(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(sessionCtxKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok && s != nil
}

// AuthRequired loads the operator behind the session cookie. The role is read
// from the database on every request, so a demotion takes effect immediately.
func AuthRequired(appSess *session.AppSessionStore, repo *db.Repo, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := appSess.Get(c.Request.Context(), ck.Value)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				log.Error("load session", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}

		op, err := repo.FindOperatorByID(c.Request.Context(), as.OperatorID)
		if err != nil {
			if errors.Is(err, db.ErrOperatorNotFound) {
				_ = appSess.Delete(c.Request.Context(), ck.Value)
			} else {
				log.Error("load operator", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		SetSession(c, SessionFromOperator(op))
		c.Next()
	}
}

// SuperOnly must run after AuthRequired. Standard operators get the
// restricted state whatever route they came through.
func SuperOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := CurrentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if !s.IsSuper() {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "access restricted", "restricted": true})
			return
		}
		c.Next()
	}
}
