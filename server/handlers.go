package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/engine"
)

type errorBody struct {
	Error string `json:"error"`
}

// RecommendResponse 是 /api/recommend 的响应
type RecommendResponse struct {
	UserID          string                `json:"user_id"`
	BuildID         string                `json:"build_id"`
	Recommendations []core.Recommendation `json:"recommendations"`
}

// SimilarResponse 是 /similar 的响应
type SimilarResponse struct {
	StoryID string              `json:"story_id"`
	BuildID string              `json:"build_id"`
	Similar []core.SimilarStory `json:"similar"`
}

// HealthResponse 是 /healthz 的响应
type HealthResponse struct {
	Status  string        `json:"status"`
	BuildID string        `json:"build_id,omitempty"`
	BuiltAt *time.Time    `json:"built_at,omitempty"`
	Stats   *engine.Stats `json:"stats,omitempty"`
	Error   string        `json:"error,omitempty"`
}

const headerNCapped = "X-N-Capped"

var errBadQuery = core.NewDomainError(core.ModuleServer, core.ErrorCodeInvalidInput, "server: invalid query parameter")

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	n, err := s.parseN(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	exclude := true
	if raw := r.URL.Query().Get("exclude_read"); raw != "" {
		if exclude, err = strconv.ParseBool(raw); err != nil {
			writeError(w, r, fmt.Errorf("exclude_read=%q: %w", raw, errBadQuery))
			return
		}
	}

	eng, err := s.holder.Get()
	if err != nil {
		writeError(w, r, err)
		return
	}
	key := fmt.Sprintf("rec:%s:%s:%d:%t", eng.ID(), userID, n, exclude)
	s.cached(w, r, key, func(ctx context.Context) (any, error) {
		recs, err := eng.Recommend(ctx, userID, n, exclude)
		if err != nil {
			return nil, err
		}
		return RecommendResponse{UserID: userID, BuildID: eng.ID(), Recommendations: recs}, nil
	})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "storyID")
	n, err := s.parseN(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	eng, err := s.holder.Get()
	if err != nil {
		writeError(w, r, err)
		return
	}
	key := fmt.Sprintf("sim:%s:%s:%d", eng.ID(), storyID, n)
	s.cached(w, r, key, func(ctx context.Context) (any, error) {
		sims, err := eng.Similar(ctx, storyID, n)
		if err != nil {
			return nil, err
		}
		return SimilarResponse{StoryID: storyID, BuildID: eng.ID(), Similar: sims}, nil
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	eng, err := s.holder.Get()
	if err != nil {
		writeJSON(w, r, http.StatusServiceUnavailable, HealthResponse{Status: "not_ready", Error: err.Error()})
		return
	}
	stats := eng.Stats()
	built := eng.BuiltAt()
	writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", BuildID: eng.ID(), BuiltAt: &built, Stats: &stats})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	eng, err := s.holder.Reload(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats := eng.Stats()
	built := eng.BuiltAt()
	writeJSON(w, r, http.StatusOK, HealthResponse{Status: "reloaded", BuildID: eng.ID(), BuiltAt: &built, Stats: &stats})
}

// parseN 解析 n：缺省为 DefaultN，非整数或 <= 0 为 INVALID_INPUT。
// 超过 MaxN 时截断为 MaxN，并在响应头 X-N-Capped 中写明实际使用的上限。
func (s *Server) parseN(w http.ResponseWriter, r *http.Request) (int, error) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return s.cfg.DefaultN, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("n=%q: %w", raw, errBadQuery)
	}
	if n <= 0 {
		return 0, engine.ErrInvalidN(n)
	}
	if s.cfg.MaxN > 0 && n > s.cfg.MaxN {
		n = s.cfg.MaxN
		w.Header().Set(headerNCapped, strconv.Itoa(n))
	}
	return n, nil
}

// cached 先查缓存，未命中时调用 compute 并写回。缓存故障只记日志，不影响请求。
func (s *Server) cached(w http.ResponseWriter, r *http.Request, key string, compute func(context.Context) (any, error)) {
	ctx := r.Context()
	log := zerolog.Ctx(ctx)

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			s.metrics.CacheHits.WithLabelValues("hit").Inc()
			w.Header().Set("X-Cache", "HIT")
			writeRaw(w, http.StatusOK, data)
			return
		case core.IsStoreNotFound(err):
			s.metrics.CacheHits.WithLabelValues("miss").Inc()
		default:
			log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
	}

	resp, err := compute(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, data, s.cfg.CacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
		w.Header().Set("X-Cache", "MISS")
	}
	writeRaw(w, http.StatusOK, data)
}

// StatusOf 把领域错误映射为 HTTP 状态码
func StatusOf(err error) int {
	switch {
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsInvalidInput(err):
		return http.StatusBadRequest
	case core.IsNotReady(err), core.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	ev := zerolog.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		ev = zerolog.Ctx(r.Context()).Error()
	}
	ev.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
	writeJSON(w, r, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
