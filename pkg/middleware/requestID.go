package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"lnmixer.com/pkg/common"
)

func ReqId() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(common.HeaderRequestID)
		if rid == "" {
			rid = common.New()
		}
		c.Set(common.CtxKeyRequestID, rid)
		// 同步写进 request context，后台流水线的日志也能带上
		ctx := context.WithValue(c.Request.Context(), common.CtxKeyRequestID, rid)
		c.Request = c.Request.WithContext(ctx)
		c.Header(common.HeaderRequestID, rid)
		c.Next()
	}
}
