package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/storyrec/core"
)

// Source 提供完整快照，loader.MongoLoader / loader.FileLoader 均实现此接口
type Source interface {
	Name() string
	Load(ctx context.Context) (*core.Snapshot, error)
}

// ReloadHook 在每次重建后调用（成功时 err 为 nil），用于打点
type ReloadHook func(e *Engine, err error, took time.Duration)

// Holder 持有当前引擎，重建时整体替换（copy-on-write）：
// 正在处理的请求继续使用旧实例，新请求拿到新实例；重建失败时保留旧实例。
type Holder struct {
	cur    atomic.Pointer[Engine]
	source Source
	opts   []Option
	logger zerolog.Logger
	hook   ReloadHook

	mu sync.Mutex // 串行化重建
}

// NewHolder 创建 Holder，此时尚无引擎，Get 返回 NOT_READY，直到第一次 Reload 成功。
func NewHolder(source Source, logger zerolog.Logger, opts ...Option) *Holder {
	return &Holder{
		source: source,
		opts:   append([]Option{WithLogger(logger)}, opts...),
		logger: logger.With().Str("component", "holder").Logger(),
	}
}

// OnReload 设置重建回调
func (h *Holder) OnReload(hook ReloadHook) { h.hook = hook }

// Get 返回当前引擎
func (h *Holder) Get() (*Engine, error) {
	if e := h.cur.Load(); e != nil {
		return e, nil
	}
	return nil, core.ErrNotReady
}

// Set 直接替换当前引擎
func (h *Holder) Set(e *Engine) { h.cur.Store(e) }

// Reload 从 Source 加载快照并构建新引擎，成功后原子替换。
func (h *Holder) Reload(ctx context.Context) (*Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	e, err := h.build(ctx)
	took := time.Since(start)
	if h.hook != nil {
		h.hook(e, err, took)
	}
	if err != nil {
		h.logger.Error().Err(err).Str("source", h.source.Name()).Dur("took", took).Msg("reload failed, keep current engine")
		return nil, err
	}

	h.cur.Store(e)
	h.logger.Info().Str("build_id", e.ID()).Str("source", h.source.Name()).Dur("took", took).Msg("engine swapped")
	return e, nil
}

func (h *Holder) build(ctx context.Context) (*Engine, error) {
	snap, err := h.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	return New(snap, h.opts...)
}

// Run 每隔 interval 重建一次，直到 ctx 结束；interval <= 0 时直接返回。
func (h *Holder) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = h.Reload(ctx)
		}
	}
}
