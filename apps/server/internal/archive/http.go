package archive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	archive Service
	log     *zap.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(svc Service, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{archive: svc, log: logger.Named("archive-http")}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/games/recent", h.handleRecent)
	mux.HandleFunc("/api/games/", h.handleGame)
}

func (h *HTTPHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"))
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.archive.ListRecent(ctx, limit)
	if err != nil {
		h.log.Error("list recent games failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query recent games failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}

func (h *HTTPHandler) handleGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	gameID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/games/"))
	if gameID == "" || strings.Contains(gameID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	rec, err := h.archive.Get(ctx, gameID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		h.log.Error("get game failed", zap.String("game", gameID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query game failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultRecentLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultRecentLimit
	}
	return clampLimit(n)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
