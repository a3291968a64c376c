package worker

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	gormstore "github.com/thebtf/realmstats/internal/db/gorm"
	"github.com/thebtf/realmstats/internal/masterstats"
	"github.com/thebtf/realmstats/internal/sessions"
	"github.com/thebtf/realmstats/internal/stats"
	"github.com/thebtf/realmstats/internal/worker/sse"
)

const (
	msgInternal          = "Internal server error"
	msgMasterStatsAbsent = "Master stats not found. Run the stats builder first."
	maxBodyBytes         = 1 << 16
)

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs err server-side and responds with a generic 500.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("requestId", RequestID(r.Context())).Str("path", r.URL.Path).Msg("Request failed")
	writeError(w, http.StatusInternalServerError, msgInternal)
}

// pathParam returns the decoded URL parameter. chi matches against RawPath when the
// request carries one, leaving the parameter escaped; otherwise it is already decoded.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// parseLimitParam parses the "limit" query parameter, returning defaultLimit when missing or invalid.
func parseLimitParam(r *http.Request, defaultLimit int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultLimit
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if !s.ready.Load() {
		status = "starting"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":  status,
		"version": s.version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessionStore.ListIDs()
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": ids})
}

func (s *Service) handleSessionsSummary(w http.ResponseWriter, r *http.Request) {
	agg := stats.NewAggregator(s.sessionStore, s.listingLookup(s.titleStore()))

	list, err := agg.SummarizeAll(r.URL.Query().Get("sort"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	s.metrics.recordSummaries(r.Context(), len(list))
	writeJSON(w, http.StatusOK, list)
}

func (s *Service) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	agg := stats.NewAggregator(s.sessionStore, s.titleStore().Lookup)

	sum, err := agg.Summarize(id)
	if errors.Is(err, sessions.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Session '%s' not found", id))
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Service) handlePlayers(w http.ResponseWriter, r *http.Request) {
	players, err := stats.RollupPlayers(s.sessionStore)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"players": players})
}

func (s *Service) handleHallOfFame(w http.ResponseWriter, r *http.Request) {
	ms, err := s.masterStats.Load()
	if errors.Is(err, masterstats.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgMasterStatsAbsent)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.BuildHallOfFame(ms))
}

func (s *Service) handleCharacterStats(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")

	ms, err := s.masterStats.Load()
	if errors.Is(err, masterstats.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgMasterStatsAbsent)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	view, err := stats.CharacterStats(ms, name)
	if errors.Is(err, stats.ErrCharacterNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Character '%s' not found in statistics", name))
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ReassignRequest is the body of a reassignment request.
type ReassignRequest struct {
	Character string `json:"character"`
	Player    string `json:"player"`
}

func (s *Service) handleReassign(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")

	var req ReassignRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Character = strings.TrimSpace(req.Character)
	req.Player = strings.TrimSpace(req.Player)
	if req.Character == "" || req.Player == "" {
		writeError(w, http.StatusBadRequest, "character and player are required")
		return
	}

	res, err := s.sessionStore.Reassign(id, req.Character, req.Player)
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("Session '%s' not found", id))
		return
	case errors.Is(err, sessions.ErrCharacterNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("Character '%s' not found in session '%s'", req.Character, id))
		return
	case err != nil:
		internalError(w, r, err)
		return
	}
	s.metrics.recordReassignment(r.Context())

	if s.reassignmentStore != nil {
		_, err := s.reassignmentStore.Record(r.Context(), &gormstore.Reassignment{
			SessionID:      res.SessionID,
			Character:      res.Character,
			PreviousPlayer: res.PreviousPlayer,
			NewPlayer:      res.NewPlayer,
			BackupPath:     res.BackupPath,
			RequestID:      RequestID(r.Context()),
			CreatedAt:      res.At,
		})
		if err != nil {
			log.Error().Err(err).Str("session", id).Msg("Failed to record reassignment audit entry")
		}
	}

	s.sseBroadcaster.Publish(sse.Event{Type: sse.EventReassigned, SessionID: id})
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleListReassignments(w http.ResponseWriter, r *http.Request) {
	if s.reassignmentStore == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"reassignments": []gormstore.Reassignment{}})
		return
	}

	list, err := s.reassignmentStore.List(r.Context(), r.URL.Query().Get("session"), parseLimitParam(r, gormstore.DefaultListLimit))
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reassignments": list})
}
