// Package server 提供推荐引擎的 HTTP 接口（chi）。
//
//	GET  /api/recommend/{userID}?n=10&exclude_read=true   个性化推荐
//	GET  /similar/{storyID}?n=10                          相似故事
//	GET  /healthz                                         引擎就绪状态
//	POST /admin/reload                                    从数据源重建引擎
//	GET  /metrics                                         Prometheus 指标
//
// 推荐与相似结果按"引擎 build id + 请求参数"缓存在 core.Store 中，引擎重建后旧缓存自然失效。
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/engine"
)

// Config 是 HTTP 层参数
type Config struct {
	DefaultN       int    // 请求未带 n 时使用
	MaxN           int    // n 的上限，<= 0 表示不限制
	CacheTTL       int    // 缓存秒数，<= 0 表示不过期
	AdminToken     string // 非空时 /admin/reload 需要 "Authorization: Bearer <token>"
	RequestTimeout time.Duration
}

// DefaultConfig 返回默认 HTTP 参数
func DefaultConfig() Config {
	return Config{DefaultN: 10, MaxN: 100, CacheTTL: 300, RequestTimeout: 10 * time.Second}
}

// Server 持有引擎 Holder 与缓存，对外提供 http.Handler
type Server struct {
	holder  *engine.Holder
	cache   core.Store
	cfg     Config
	logger  zerolog.Logger
	metrics *Metrics
	router  chi.Router
}

// Option 配置 Server
type Option func(*Server)

// WithCache 设置响应缓存，nil 表示不缓存
func WithCache(s core.Store) Option {
	return func(srv *Server) { srv.cache = s }
}

// WithLogger 设置 logger
func WithLogger(l zerolog.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// WithMetrics 使用外部创建的 Metrics
func WithMetrics(m *Metrics) Option {
	return func(srv *Server) { srv.metrics = m }
}

// New 创建 Server，并把重建指标挂到 holder 上。
func New(holder *engine.Holder, cfg Config, opts ...Option) *Server {
	s := &Server{
		holder: holder,
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if s.cfg.DefaultN <= 0 {
		s.cfg.DefaultN = DefaultConfig().DefaultN
	}
	s.logger = s.logger.With().Str("component", "server").Logger()
	holder.OnReload(s.metrics.ObserveReload)
	s.router = s.routes()
	return s
}

// Handler 返回根路由
func (s *Server) Handler() http.Handler { return s.router }

// Metrics 返回服务指标
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.instrument)
	if s.cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/api/recommend/{userID}", s.handleRecommend)
	r.Get("/api/stories", s.handleStories)
	r.Get("/api/stories/{storyID}", s.handleStory)
	r.Get("/api/users", s.handleUsers)
	r.Get("/api/histories", s.handleHistories)
	r.Get("/similar/{storyID}", s.handleSimilar)
	r.Get("/healthz", s.handleHealth)
	r.With(s.requireAdmin).Post("/admin/reload", s.handleReload)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	return r
}
