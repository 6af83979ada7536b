package server

import (
	"net/http"
)

type DoubtRequest struct {
	Question string `json:"question"`
}

func handleDoubtState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := clientFrom(r).Doubt()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d.State())
	}
}

// handleDoubtAsk answers a free-form question. A blank question leaves the
// screen untouched.
func handleDoubtAsk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoubtRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		c := clientFrom(r)
		d, err := c.Doubt()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		st, err := d.Ask(r.Context(), req.Question, c.Level())
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleDoubtClear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := clientFrom(r).Doubt()
		if err != nil {
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d.Clear())
	}
}
