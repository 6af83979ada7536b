package server

import (
	"net/http"

	"github.com/kingbrown/caesarstudy/internal/study"
)

type NavigateRequest struct {
	View *study.View `json:"view"`
}

type LevelRequest struct {
	Level *study.Level `json:"level"`
}

func handleGetView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, clientFrom(r).View())
	}
}

func handleNavigate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NavigateRequest
		if err := readJSON(r, &req); err != nil || req.View == nil {
			writeError(w, http.StatusBadRequest, "unknown view")
			return
		}
		writeJSON(w, http.StatusOK, clientFrom(r).NavigateTo(*req.View))
	}
}

func handleBack() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, clientFrom(r).NavigateBack())
	}
}

func handleSetLevel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LevelRequest
		if err := readJSON(r, &req); err != nil || req.Level == nil {
			writeError(w, http.StatusBadRequest, "unknown level")
			return
		}
		writeJSON(w, http.StatusOK, clientFrom(r).SetLevel(*req.Level))
	}
}
