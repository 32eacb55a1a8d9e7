package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/storyrec/engine"
)

// Metrics 是服务的 Prometheus 指标，注册在独立的 Registry 上，
// 便于测试中多次创建。
type Metrics struct {
	registry *prometheus.Registry

	Requests   *prometheus.CounterVec
	Latency    *prometheus.HistogramVec
	CacheHits  *prometheus.CounterVec
	Reloads    *prometheus.CounterVec
	ReloadTime prometheus.Histogram
	LastBuild  prometheus.Gauge
	StoryCount prometheus.Gauge
}

// NewMetrics 在 reg 上创建并注册全部指标；reg 为 nil 时新建一个，并附带 Go 运行时与进程指标。
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyrec_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		Latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storyrec_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		CacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyrec_cache_lookups_total",
				Help: "Response cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		Reloads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyrec_engine_reloads_total",
				Help: "Engine rebuilds by result (success, failure)",
			},
			[]string{"result"},
		),
		ReloadTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "storyrec_engine_reload_duration_seconds",
			Help:    "Time spent loading a snapshot and building the engine",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastBuild: f.NewGauge(prometheus.GaugeOpts{
			Name: "storyrec_engine_last_build_timestamp_seconds",
			Help: "Unix time of the last successful engine build",
		}),
		StoryCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "storyrec_engine_stories",
			Help: "Number of stories in the current engine",
		}),
	}
}

// Registry 返回指标所在的 Registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveReload 可直接作为 engine.Holder 的 OnReload 回调
func (m *Metrics) ObserveReload(e *engine.Engine, err error, took time.Duration) {
	m.ReloadTime.Observe(took.Seconds())
	if err != nil {
		m.Reloads.WithLabelValues("failure").Inc()
		return
	}
	m.Reloads.WithLabelValues("success").Inc()
	m.LastBuild.Set(float64(e.BuiltAt().Unix()))
	m.StoryCount.Set(float64(e.Stats().Stories))
}
