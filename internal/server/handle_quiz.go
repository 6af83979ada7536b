package server

import (
	"net/http"
)

type SelectRequest struct {
	Option string `json:"option"`
}

func handleQuizState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quiz, err := clientFrom(r).Quiz()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, quiz.State())
	}
}

// handleQuizStart generates a fresh quiz. It also serves "Try Again" and
// "Try New Quiz".
func handleQuizStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := clientFrom(r)
		quiz, err := c.Quiz()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		st, err := quiz.Start(r.Context(), c.Level())
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleQuizSelect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		quiz, err := clientFrom(r).Quiz()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		st, err := quiz.Select(req.Option)
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleQuizSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quiz, err := clientFrom(r).Quiz()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		st, err := quiz.Submit(r.Context())
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleQuizNext() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quiz, err := clientFrom(r).Quiz()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		st, err := quiz.Next()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
