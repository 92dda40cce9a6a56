package common

import (
	"fmt"
	"math/rand"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"lnmixer.com/pkg/logger"
	"lnmixer.com/pkg/xerr"
)

// 对外统一返回格式：
//   成功 {"success":true,"data":...,"timestamp":"..."}
//   失败 {"success":false,"error":"Bad Request","message":"...","timestamp":"..."}
// timestamp 用 ISO8601，跟前端约定保持一致

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      data,
		"timestamp": NowISO(),
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"data":      data,
		"timestamp": NowISO(),
	})
}

// SuccessMsg 用于 cancel/retry/delete 这类只回执行结果的操作
func SuccessMsg(c *gin.Context, msg string, extra gin.H) {
	body := gin.H{
		"success":   true,
		"message":   msg,
		"timestamp": NowISO(),
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func Fail(c *gin.Context, err error) {
	FailWith(c, err, nil)
}

// FailWith 在错误信封上追加业务字段（比如冲突时的 currentStatus）
func FailWith(c *gin.Context, err error, extra gin.H) {
	status := httpStatus(xerr.Code(err))
	body := gin.H{
		"success":   false,
		"error":     http.StatusText(status),
		"message":   xerr.Msg(err),
		"timestamp": NowISO(),
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// FailLogged 服务端错误：信封照常返回，但日志必须带堆栈
func FailLogged(c *gin.Context, err error) {
	logger.Warn(c, "http error",
		zap.String("request_id", RequestIDFromGin(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("biz_code", xerr.Code(err)),
		zap.Error(err),
		zap.ByteString("stack", debug.Stack()),
	)
	Fail(c, err)
}

func httpStatus(code int) int {
	switch code {
	case xerr.RequestParamsError, xerr.RecordNotFound, xerr.Conflict, xerr.TooManyRequests, xerr.UpstreamError:
		return code
	default:
		// DbError 等内部码不对外暴露
		return http.StatusInternalServerError
	}
}

func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenID 生成带前缀的业务 ID，形如 tx_1717000000000_k3j9d0a1z
// 不是安全随机，仅做不透明句柄用
func GenID(prefix string) string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	if prefix == "" {
		return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), b)
	}
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), b)
}
