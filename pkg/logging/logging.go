// Package logging 基于 zerolog 提供全局日志初始化与请求级 logger。
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	log := logging.Component("engine")
//	log.Info().Int("stories", n).Msg("engine built")
//
// 请求链路中通过 context 传递 logger，Pipeline 内使用 zerolog.Ctx(ctx) 取出。
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config 是日志配置
type Config struct {
	Level  string    // trace, debug, info, warn, error；默认 info
	Format string    // json 或 console；默认 json
	Output io.Writer // 默认 os.Stderr
}

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Init 初始化全局 logger，可重复调用。
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	mu.Lock()
	logger = zerolog.New(out).With().Timestamp().Logger()
	mu.Unlock()
}

// ParseLevel 把字符串转换为 zerolog.Level，无法识别时为 info。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger 返回全局 logger
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Component 返回带 component 字段的子 logger
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// NewRequestID 生成请求 ID
func NewRequestID() string {
	return uuid.New().String()
}

// WithRequest 把带 request_id 的 logger 放入 context，返回新的 context 与 logger。
func WithRequest(ctx context.Context, base zerolog.Logger, requestID string) (context.Context, zerolog.Logger) {
	l := base.With().Str("request_id", requestID).Logger()
	return l.WithContext(ctx), l
}
