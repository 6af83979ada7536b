package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kingbrown/caesarstudy/internal/history"
	"github.com/kingbrown/caesarstudy/internal/study"
)

// HistoryEntry pairs a saved session with its display summary.
type HistoryEntry struct {
	Summary study.Summary   `json:"summary"`
	Item    json.RawMessage `json:"item"`
}

type HistoryResponse struct {
	Items []HistoryEntry `json:"items"`
}

type ClearHistoryRequest struct {
	Confirm bool `json:"confirm"`
}

// ScoreResponse holds the last quiz score, null when none was recorded.
type ScoreResponse struct {
	Score *string `json:"score"`
}

func handleHistory(store *history.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := store.List(r.Context(), userFrom(r).UID)

		resp := HistoryResponse{Items: make([]HistoryEntry, 0, len(items))}
		for _, item := range items {
			summary, err := study.Summarize(item)
			if err != nil {
				logger.Warn("skipping history item", "id", item.Meta().ID, "error", err)
				continue
			}
			data, err := study.MarshalHistoryItem(item)
			if err != nil {
				logger.Warn("skipping history item", "id", item.Meta().ID, "error", err)
				continue
			}
			resp.Items = append(resp.Items, HistoryEntry{Summary: summary, Item: data})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleClearHistory(store *history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClearHistoryRequest
		if err := readJSON(r, &req); err != nil || !req.Confirm {
			writeError(w, http.StatusBadRequest, "confirmation required")
			return
		}
		store.Clear(r.Context(), userFrom(r).UID)
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleScore(store *history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp ScoreResponse
		if score, ok := store.LastScore(r.Context(), userFrom(r).UID); ok {
			resp.Score = &score
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
