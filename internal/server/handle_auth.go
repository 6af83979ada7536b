package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/kingbrown/caesarstudy/internal/auth"
	"github.com/kingbrown/caesarstudy/internal/study"
)

type SignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse reports the signed-in user, null when signed out.
type SessionResponse struct {
	User *study.User `json:"user"`
}

const passwordMismatch = "Passwords do not match."

func handleSignUp(cookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignUpRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Password != req.ConfirmPassword {
			writeError(w, http.StatusBadRequest, passwordMismatch)
			return
		}

		c := clientFrom(r)
		u, err := c.SignUp(r.Context(), req.Email, req.Password)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		setClientCookie(w, cookieName, c.ID())
		writeJSON(w, http.StatusCreated, SessionResponse{User: u})
	}
}

func handleSignIn(cookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignInRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		c := clientFrom(r)
		u, err := c.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		setClientCookie(w, cookieName, c.ID())
		writeJSON(w, http.StatusOK, SessionResponse{User: u})
	}
}

func handleSignOut(cookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := clientFrom(r)
		c.SignOut(context.WithoutCancel(r.Context()))
		setClientCookie(w, cookieName, c.ID())
		writeJSON(w, http.StatusOK, SessionResponse{})
	}
}

func handleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, SessionResponse{User: clientFrom(r).User()})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	var authErr *auth.AuthError
	if !errors.As(err, &authErr) {
		authErr = &auth.AuthError{Kind: auth.KindUnknown, Err: err}
	}
	writeError(w, authStatus(authErr.Kind), authErr.Error())
}
