package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"lnmixer.com/pkg/common"
	"lnmixer.com/pkg/logger"
	"lnmixer.com/pkg/ratelimit"
	"lnmixer.com/pkg/xerr"
)

func RateLimit(store *ratelimit.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := c.ClientIP() + ":" + route

		if !store.Allow(key) {
			// 限流属于可控拒绝，不打堆栈（压测会炸日志）
			logger.Warn(c, "http rate limited",
				zap.String("request_id", common.RequestIDFromGin(c)),
				zap.String("ip", c.ClientIP()),
				zap.String("route", route),
			)
			common.Fail(c, xerr.NewErrCode(xerr.TooManyRequests))
			c.Abort()
			return
		}
		c.Next()
	}
}
