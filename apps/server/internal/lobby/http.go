package lobby

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"trickster/apps/server/internal/table"
)

type HTTPHandler struct {
	lobby *Lobby
	debug bool
	log   *zap.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type debugScoresRequest struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// NewHTTPHandler serves the table listing. With debug set it also serves
// the score override, which bypasses round scoring.
func NewHTTPHandler(l *Lobby, debug bool, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{lobby: l, debug: debug, log: logger.Named("lobby-http")}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/tables", h.handleTables)
	if h.debug {
		mux.HandleFunc("/debug/games/", h.handleDebugScores)
	}
}

func (h *HTTPHandler) handleTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": h.lobby.ListTables(),
	})
}

// handleDebugScores serves POST /debug/games/{id}/scores.
func (h *HTTPHandler) handleDebugScores(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/debug/games/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "scores" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	t := h.lobby.GetTable(parts[0])
	if t == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	var req debugScoresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	err := t.SubmitEvent(table.Event{Type: table.EventDebugScores, Scores: [2]int{req.Team1, req.Team2}})
	switch {
	case err == nil:
	case errors.Is(err, table.ErrNotStarted):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, table.ErrTableClosed):
		writeError(w, http.StatusGone, err.Error())
		return
	default:
		h.log.Error("debug scores failed", zap.String("game", t.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "debug scores failed")
		return
	}
	h.log.Warn("debug scores set", zap.String("game", t.ID), zap.Int("team1", req.Team1), zap.Int("team2", req.Team2))
	writeJSON(w, http.StatusOK, t.Info())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
