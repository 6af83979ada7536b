package auth

import (
	"errors"
	"strings"
)

// Kind classifies a failed sign-up or sign-in for display.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidCredentials
	KindEmailInUse
	KindInvalidEmail
	KindWeakPassword
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindInvalidCredentials: "invalid-credentials",
	KindEmailInUse:         "email-in-use",
	KindInvalidEmail:       "invalid-email",
	KindWeakPassword:       "weak-password",
}

func (k Kind) String() string { return kindNames[k] }

// Message returns the user-facing text for k.
func Message(k Kind) string {
	switch k {
	case KindInvalidCredentials:
		return "Incorrect email or password."
	case KindEmailInUse:
		return "An account with this email already exists."
	case KindInvalidEmail:
		return "Please enter a valid email address."
	case KindWeakPassword:
		return "Password must be at least 6 characters long."
	default:
		return "An unexpected error occurred."
	}
}

// AuthError is returned by Gate.SignUp and Gate.SignIn. Error() is always
// the user-facing message; the provider's cause is kept for logs.
type AuthError struct {
	Kind Kind
	Err  error
}

func (e *AuthError) Error() string { return Message(e.Kind) }

func (e *AuthError) Unwrap() error { return e.Err }

// Provider error codes. Anything else a provider returns maps to KindUnknown.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("wrong password")
	ErrInvalidCredentials = errors.New("invalid credential")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("weak password")
	ErrNotConfigured      = errors.New("identity provider not configured")
)

func classify(err error) *AuthError {
	kind := KindUnknown
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrWrongPassword),
		errors.Is(err, ErrInvalidCredentials):
		kind = KindInvalidCredentials
	case errors.Is(err, ErrEmailInUse):
		kind = KindEmailInUse
	case errors.Is(err, ErrInvalidEmail):
		kind = KindInvalidEmail
	case errors.Is(err, ErrWeakPassword):
		kind = KindWeakPassword
	}
	return &AuthError{Kind: kind, Err: err}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
