package safe

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"lnmixer.com/pkg/logger"
)

// Go 安全启动协程：panic 不能带崩整个进程
func Go(fn func()) {
	go func() {
		defer recoverPanic(context.Background())
		fn()
	}()
}

// GoCtx 安全启动携带 context 的协程，便于日志里保留请求链路信息。
// 混币流水线就是用它从 HTTP handler 里脱离出去跑的。
func GoCtx(ctx context.Context, fn func(ctx context.Context)) {
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		defer recoverPanic(ctx)
		fn(ctx)
	}()
}

func recoverPanic(ctx context.Context) {
	if r := recover(); r != nil {
		stack := string(debug.Stack())
		if logger.Log != nil {
			logger.Error(ctx, "goroutine panic recovered",
				zap.Any("panic", r),
				zap.String("stack", stack),
			)
		} else {
			fmt.Printf("goroutine panic: %v\nstack: %s\n", r, stack)
		}
	}
}
