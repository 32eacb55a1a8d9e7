package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/engine"
)

// UsersResponse 是 /api/users 的响应
type UsersResponse struct {
	Users []*core.Reader `json:"users"`
}

// HistoryEntry 是一条补齐默认值后的阅读历史
type HistoryEntry struct {
	UserID          string     `json:"user_id"`
	StoryID         string     `json:"story_id"`
	ReadingProgress float64    `json:"reading_progress"`
	Liked           bool       `json:"liked"`
	Rating          float64    `json:"rating"`
	Completed       bool       `json:"completed"`
	ReadDate        *time.Time `json:"read_date,omitempty"`
}

// HistoriesResponse 是 /api/histories 的响应
type HistoriesResponse struct {
	Histories []HistoryEntry `json:"histories"`
}

func (s *Server) handleStories(w http.ResponseWriter, r *http.Request) {
	page, err := intQuery(r, "page", engine.DefaultPage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", engine.DefaultPageLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	eng, err := s.holder.Get()
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := eng.StoryPage(page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	eng, err := s.holder.Get()
	if err != nil {
		writeError(w, r, err)
		return
	}
	story, err := eng.Story(chi.URLParam(r, "storyID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, story)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	eng, err := s.holder.Get()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, UsersResponse{Users: eng.Readers()})
}

func (s *Server) handleHistories(w http.ResponseWriter, r *http.Request) {
	eng, err := s.holder.Get()
	if err != nil {
		writeError(w, r, err)
		return
	}
	all := eng.Interactions()
	out := make([]HistoryEntry, 0, len(all))
	for _, it := range all {
		e := HistoryEntry{
			UserID:          it.UserID,
			StoryID:         it.StoryID,
			ReadingProgress: it.ReadingProgress,
			Liked:           it.Liked,
			Rating:          it.Rating,
			Completed:       it.Completed,
		}
		if !it.ReadDate.IsZero() {
			d := it.ReadDate
			e.ReadDate = &d
		}
		out = append(out, e)
	}
	writeJSON(w, r, http.StatusOK, HistoriesResponse{Histories: out})
}

// intQuery 读取整数查询参数，缺省时返回 def
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", name, raw, errBadQuery)
	}
	return v, nil
}
