package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Gin_postgres_redis_tool_lending/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, method, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	if ip != "" {
		req.RemoteAddr = ip + ":5555"
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSuperOnly(t *testing.T) {
	tests := []struct {
		name         string
		session      *Session
		expectedCode int
		expectedBody string
	}{
		{
			name:         "superadmin",
			session:      &Session{OperatorID: "s", Role: models.RoleSuperAdmin},
			expectedCode: http.StatusOK,
			expectedBody: `{"ok":true}`,
		},
		{
			name:         "standard operator",
			session:      &Session{OperatorID: "a", Role: models.RoleAdmin},
			expectedCode: http.StatusForbidden,
			expectedBody: `{"error":"access restricted","restricted":true}`,
		},
		{
			name:         "no session",
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"error":"unauthorized"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) {
				if tt.session != nil {
					SetSession(c, tt.session)
				}
				c.Next()
			}, SuperOnly(), func(c *gin.Context) { c.JSON(http.StatusOK, H{"ok": true}) })

			w := serve(r, http.MethodGet, "/x", "")
			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestCurrentSession(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentSession(c)
	require.False(t, ok)

	c.Set(sessionCtxKey, (*Session)(nil))
	_, ok = CurrentSession(c)
	require.False(t, ok)

	SetSession(c, &Session{OperatorID: "op-1", Name: "Ana", Role: models.RoleAdmin})
	s, ok := CurrentSession(c)
	require.True(t, ok)
	require.False(t, s.IsSuper())
	require.Equal(t, "op-1", s.Actor().ID)
	require.Equal(t, "Ana", s.Actor().Name)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(RateLimit{RPS: 0.001, Burst: 3}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/x", "10.0.0.1").Code)
	}
	w := serve(r, http.MethodGet, "/x", "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, `{"error":"too many requests"}`, strings.Trim(w.Body.String(), "\n"))

	// 每个 IP 独立计数
	require.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/x", "10.0.0.2").Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(RateLimit{}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/x", "10.0.0.1").Code)
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/ok", http.NoBody)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = serve(r, http.MethodGet, "/boom", "")
	require.NotEmpty(t, w.Header().Get(RequestIDHeader))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	require.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	require.EqualValues(t, http.StatusInternalServerError, entries[1].ContextMap()["status"])
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("LOAN_GRACE_DAYS", "10")
	t.Setenv("RP_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("WEB_ORIGIN", "https://a.example.com")

	c, err := LoadConfig(WithPort("9090"), WithLogLevel("debug"))
	require.NoError(t, err)
	require.Equal(t, "9090", c.HTTP.Port)
	require.Equal(t, "debug", c.Log.Level)
	require.Equal(t, 10, c.LoanGraceDays)
	require.Len(t, c.RPOrigins, 2)
	require.Equal(t, 24*time.Hour, c.SessionTTL)
	require.Equal(t, 15*time.Second, c.HTTP.ReadTimeout)
	require.True(t, c.SecureCookies())

	// 选项不会修改缓存的配置
	again, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "8080", again.HTTP.Port)
}
