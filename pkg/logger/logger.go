package logger

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TraceID 在 Context 中的 Key（接入 OpenTelemetry 后可替换成 trace.SpanContext）
const TraceIdKey = "trace_id"

// 全局 Logger 实例；未 Init 时为 Nop，单测不用关心初始化
var Log = zap.NewNop()

// Init 初始化日志组件
// serviceName: 服务名（例如 "mixer-service"）
// level: 日志级别 (debug, info, warn, error)
func Init(serviceName string, level string) {
	InitWithFile(serviceName, level, "")
}

// InitWithFile 初始化日志组件，并同时写入指定文件
// logFile 为空时默认 logs/{serviceName}.log；写文件失败只降级到控制台，不中断启动
func InitWithFile(serviceName string, level string, logFile string) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	// 统一 JSON 输出，方便 ELK 收集
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.MessageKey = "msg"

	writeSyncers := []zapcore.WriteSyncer{
		zapcore.AddSync(os.Stdout), // 容器化标准：stdout 永远在
	}

	if logFile == "" {
		logFile = filepath.Join("logs", serviceName+".log")
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err == nil {
		if file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			writeSyncers = append(writeSyncers, zapcore.AddSync(file))
		}
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(writeSyncers...),
		zapLevel,
	)

	// AddCallerSkip(1)：封装了一层，否则行号永远指向 logger.go
	Log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	Log = Log.With(zap.String("service", serviceName))
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Info(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Error(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Warn(msg, fields...)
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Debug(msg, fields...)
}

func Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Fatal(msg, fields...)
}

func extractTrace(ctx context.Context, fields *[]zap.Field) {
	if ctx == nil {
		return
	}
	if traceID, ok := ctx.Value(TraceIdKey).(string); ok && traceID != "" {
		*fields = append(*fields, zap.String("trace_id", traceID))
	}
}

// Sync 刷新缓冲区（main 函数 defer 调用）
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
