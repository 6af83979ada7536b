package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kingbrown/caesarstudy/internal/session"
	"github.com/kingbrown/caesarstudy/internal/study"
)

// handleEvents streams session and view changes for the caller's client.
// The first event is always the current session.
func handleEvents(broker *session.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		c := clientFrom(r)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		views := broker.Subscribe(c.Key())
		defer broker.Unsubscribe(c.Key(), views)

		sessions := make(chan []byte, 16)
		stop := c.Gate().Observe(func(u *study.User) {
			data, _ := json.Marshal(session.Event{Type: session.EventSession, User: u})
			select {
			case sessions <- data:
			default:
			}
		})
		defer stop()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-sessions:
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", session.EventSession, data)
				flusher.Flush()
			case data := <-views:
				// Session events queued before this view change go out first.
				drain(w, sessions)
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", session.EventView, data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}

func drain(w http.ResponseWriter, sessions <-chan []byte) {
	for {
		select {
		case data := <-sessions:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", session.EventSession, data)
		default:
			return
		}
	}
}
