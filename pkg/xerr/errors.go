package xerr

import "fmt"

// 错误码直接对齐 HTTP 语义，网关层不用再翻译一遍
const (
	OK                 = 200
	RequestParamsError = 400
	RecordNotFound     = 404
	Conflict           = 409
	TooManyRequests    = 429
	ServerCommonError  = 500
	DbError            = 501
	UpstreamError      = 502
)

type CodeError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("ErrCode:%d, Msg:%s", e.Code, e.Msg)
}

func New(code int, msg string) error {
	return &CodeError{Code: code, Msg: msg}
}

func Newf(code int, format string, args ...interface{}) error {
	return &CodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func NewErrCode(code int) error {
	return &CodeError{Code: code, Msg: MapErrMsg(code)}
}

// Code 取出业务码；不是 CodeError 一律按 500 处理
func Code(err error) int {
	if err == nil {
		return OK
	}
	if ce, ok := err.(*CodeError); ok {
		return ce.Code
	}
	return ServerCommonError
}

func Msg(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := err.(*CodeError); ok {
		return ce.Msg
	}
	return err.Error()
}

func MapErrMsg(code int) string {
	switch code {
	case RequestParamsError:
		return "invalid request parameters"
	case RecordNotFound:
		return "record not found"
	case Conflict:
		return "state conflict"
	case TooManyRequests:
		return "too many requests"
	case DbError:
		return "database busy"
	case UpstreamError:
		return "upstream service error"
	default:
		return "internal error"
	}
}
