package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kingbrown/caesarstudy/internal/study"
)

type ActSceneRequest struct {
	Act   int `json:"act"`
	Scene int `json:"scene"`
}

type CharacterRequest struct {
	Character string `json:"character"`
}

func answerIndex(r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	return i, err == nil
}

func handleActSceneState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, err := clientFrom(r).ActScene()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, screen.State())
	}
}

func handleActSceneGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ActSceneRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !study.ValidActScene(req.Act, req.Scene) {
			writeError(w, http.StatusBadRequest, "unknown act or scene")
			return
		}

		c := clientFrom(r)
		screen, err := c.ActScene()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		st, err := screen.Generate(r.Context(), req.Act, req.Scene, c.Level())
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleActSceneToggle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, ok := answerIndex(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid answer index")
			return
		}
		screen, err := clientFrom(r).ActScene()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		st, err := screen.ToggleAnswer(i)
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleCharacterState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, err := clientFrom(r).Character()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, screen.State())
	}
}

func handleCharacterGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CharacterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !study.ValidCharacter(req.Character) {
			writeError(w, http.StatusBadRequest, "unknown character")
			return
		}

		c := clientFrom(r)
		screen, err := c.Character()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		st, err := screen.Generate(r.Context(), req.Character, c.Level())
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleCharacterToggle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, ok := answerIndex(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid answer index")
			return
		}
		screen, err := clientFrom(r).Character()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		st, err := screen.ToggleAnswer(i)
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
