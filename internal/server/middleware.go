package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kingbrown/caesarstudy/internal/session"
	"github.com/kingbrown/caesarstudy/internal/study"
)

type ctxKey int

const (
	ctxKeyClient ctxKey = iota
	ctxKeyUser
)

const clientCookieMaxAge = 365 * 24 * time.Hour

func requireConfigured(configured bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !configured {
				writeError(w, http.StatusServiceUnavailable, "service not configured")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientMiddleware resolves the browser's client from its cookie, issuing
// a new ID on first contact. The client is held for the whole request.
func clientMiddleware(cookieName string, clients *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cookie, err := r.Cookie(cookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					id = cookie.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
				setClientCookie(w, cookieName, id)
			}

			c := clients.Get(r.Context(), id)
			release := c.Hold()
			defer release()

			ctx := context.WithValue(r.Context(), ctxKeyClient, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func setClientCookie(w http.ResponseWriter, cookieName, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(clientCookieMaxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := clientFrom(r).User()
		if u == nil {
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUser, *u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientFrom(r *http.Request) *session.Client {
	return r.Context().Value(ctxKeyClient).(*session.Client)
}

func userFrom(r *http.Request) study.User {
	return r.Context().Value(ctxKeyUser).(study.User)
}
