// app/seenmw.go
package app

import (
	"time"

	"Gin_postgres_redis_tool_lending/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// TouchLastSeen updates last_seen_at at most once per throttle window.
func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := CurrentSession(c)
		if !ok {
			c.Next()
			return
		}

		key := "operator:lastseen:" + s.OperatorID
		ctx := c.Request.Context()
		if ok, _ := rdb.SetNX(ctx, key, "1", throttle).Result(); ok {
			_ = repo.TouchOperatorSeen(ctx, s.OperatorID) // 忽略错误，不阻塞请求
		}
		c.Next()
	}
}
