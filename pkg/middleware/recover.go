package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"lnmixer.com/pkg/common"
	"lnmixer.com/pkg/logger"
	"lnmixer.com/pkg/xerr"
)

func Recover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c, "http panic",
					zap.String("request_id", common.RequestIDFromGin(c)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", err),
					zap.ByteString("stack", debug.Stack()),
				)
				common.Fail(c, xerr.NewErrCode(xerr.ServerCommonError))
				c.Abort()
			}
		}()
		c.Next()
	}
}
