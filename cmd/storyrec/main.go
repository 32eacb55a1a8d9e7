// storyrec 是故事推荐服务：从 MongoDB 或快照文件构建推荐引擎，并通过 HTTP 提供推荐与相似故事。
//
//	storyrec -config configs/storyrec.yaml
//
// 所有配置项都可以用 STORYREC_ 前缀的环境变量覆盖，例如 STORYREC_MONGO_URI。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rushteam/storyrec/config"
	_ "github.com/rushteam/storyrec/config/builders"
	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/engine"
	"github.com/rushteam/storyrec/loader"
	"github.com/rushteam/storyrec/pipeline"
	"github.com/rushteam/storyrec/pkg/logging"
	"github.com/rushteam/storyrec/server"
	"github.com/rushteam/storyrec/store"
)

func main() {
	configPath := flag.String("config", "", "path to the service config (yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "storyrec:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadService(configPath)
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := newSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	cache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	opts := []engine.Option{}
	if cache != nil {
		opts = append(opts, engine.WithStore(cache))
	}
	if cfg.Pipeline.Path != "" {
		pcfg, err := pipeline.Load(cfg.Pipeline.Path)
		if err != nil {
			return fmt.Errorf("pipeline config: %w", err)
		}
		if err := config.ValidatePipelineConfig(pcfg); err != nil {
			return fmt.Errorf("pipeline config: %w", err)
		}
		opts = append(opts, engine.WithPipelineConfig(pcfg, config.DefaultFactory()))
		log.Info().Str("path", cfg.Pipeline.Path).Int("nodes", len(pcfg.Pipeline.Nodes)).Msg("pipeline config loaded")
	}

	holder := engine.NewHolder(source, log, opts...)
	srv := server.New(holder, server.Config{
		DefaultN:       cfg.Recommend.DefaultN,
		MaxN:           cfg.Recommend.MaxN,
		CacheTTL:       cfg.Cache.TTLSeconds,
		AdminToken:     cfg.HTTP.AdminToken,
		RequestTimeout: server.DefaultConfig().RequestTimeout,
	}, server.WithCache(cache), server.WithLogger(log))

	// 首次构建失败不退出：/healthz 返回 503，等待定时重建或 /admin/reload
	if _, err := holder.Reload(ctx); err != nil {
		log.Warn().Err(err).Msg("initial engine build failed, serving not-ready until reload")
	}
	go holder.Run(ctx, cfg.Source.ReloadInterval)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("source", source.Name()).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("stopped")
	return nil
}

func newSource(ctx context.Context, cfg *config.ServiceConfig) (engine.Source, func(), error) {
	switch cfg.Source.Kind {
	case config.SourceFile:
		return loader.NewFileLoader(cfg.Source.File.Path), func() {}, nil
	default:
		l, err := loader.NewMongoLoader(cfg.Source.Mongo.URI, cfg.Source.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Source.Mongo.Timeout)
		defer cancel()
		if err := l.Ping(pingCtx); err != nil {
			logging.Logger().Warn().Err(err).Msg("mongo unreachable at startup, will retry on reload")
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := l.Close(closeCtx); err != nil {
				logging.Logger().Warn().Err(err).Msg("mongo disconnect")
			}
		}
		return l, closeFn, nil
	}
}

func newCache(ctx context.Context, cfg *config.ServiceConfig) (core.Store, error) {
	switch cfg.Cache.Kind {
	case config.CacheNone:
		return nil, nil
	case config.CacheRedis:
		return store.NewRedisStore(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB)
	default:
		return store.NewMemoryStore(), nil
	}
}
