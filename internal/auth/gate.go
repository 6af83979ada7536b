// Package auth gates the signed-in experience: it validates credentials
// against an identity provider and notifies subscribers whenever the
// current user changes.
package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kingbrown/caesarstudy/internal/study"
)

// Provider is the identity-provider boundary. Sessions are keyed by an
// opaque session id so a sign-in survives process restarts.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (study.User, error)
	SignIn(ctx context.Context, email, password string) (study.User, error)
	CreateSession(ctx context.Context, sessionID string, user study.User) error
	DeleteSession(ctx context.Context, sessionID string) error
	// SessionUser returns nil when sessionID has no signed-in user.
	SessionUser(ctx context.Context, sessionID string) (*study.User, error)
}

// Gate is one client's view of the identity provider. A Gate with a nil
// provider is unconfigured: it reports no user, exactly once, and never
// changes.
//
// Every sign-in and sign-out moves the gate to a freshly issued session id,
// so an id known before authentication never carries the signed-in user.
type Gate struct {
	provider Provider
	logger   *slog.Logger
	newID    func() string

	// notifyMu serializes deliveries so every observer sees its initial
	// notification before any later change.
	notifyMu sync.Mutex

	mu        sync.Mutex
	sessionID string
	user      *study.User
	observers map[int]func(*study.User)
	nextID    int
}

// NewGate builds the gate for sessionID, restoring a persisted sign-in.
func NewGate(ctx context.Context, provider Provider, sessionID string, logger *slog.Logger) *Gate {
	g := &Gate{
		provider:  provider,
		sessionID: sessionID,
		logger:    logger,
		newID:     uuid.NewString,
		observers: make(map[int]func(*study.User)),
	}
	if provider == nil {
		return g
	}

	user, err := provider.SessionUser(ctx, sessionID)
	if err != nil {
		logger.Error("restoring session", "session", sessionID, "error", err)
		return g
	}
	g.user = user
	return g
}

// SessionID returns the id the current session is stored under.
func (g *Gate) SessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessionID
}

// Configured reports whether the gate is backed by a provider.
func (g *Gate) Configured() bool { return g.provider != nil }

// User returns a copy of the current user, or nil when signed out.
func (g *Gate) User() *study.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyUser(g.user)
}

// Observe calls fn once immediately with the current user and again after
// every sign-in or sign-out. The returned cancel func stops notifications
// and may be called more than once. fn must not call back into the Gate.
func (g *Gate) Observe(fn func(*study.User)) (cancel func()) {
	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()

	g.mu.Lock()
	current := copyUser(g.user)
	if g.provider == nil {
		g.mu.Unlock()
		fn(nil)
		return func() {}
	}
	id := g.nextID
	g.nextID++
	g.observers[id] = fn
	g.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.observers, id)
			g.mu.Unlock()
		})
	}
}

// SignUp creates an account and signs it in.
func (g *Gate) SignUp(ctx context.Context, email, password string) (*study.User, error) {
	if g.provider == nil {
		return nil, &AuthError{Kind: KindUnknown, Err: ErrNotConfigured}
	}
	user, err := g.provider.SignUp(ctx, normalizeEmail(email), password)
	if err != nil {
		return nil, classify(err)
	}
	g.signedIn(ctx, user)
	return copyUser(&user), nil
}

// SignIn authenticates an existing account.
func (g *Gate) SignIn(ctx context.Context, email, password string) (*study.User, error) {
	if g.provider == nil {
		return nil, &AuthError{Kind: KindUnknown, Err: ErrNotConfigured}
	}
	user, err := g.provider.SignIn(ctx, normalizeEmail(email), password)
	if err != nil {
		return nil, classify(err)
	}
	g.signedIn(ctx, user)
	return copyUser(&user), nil
}

// SignOut is best effort: a provider failure is logged and observers are
// told the user is gone regardless.
func (g *Gate) SignOut(ctx context.Context) {
	if g.provider == nil {
		return
	}
	prev := g.swapSession(g.newID())
	if err := g.provider.DeleteSession(ctx, prev); err != nil {
		g.logger.Error("signing out", "session", prev, "error", err)
	}
	g.publish(nil)
}

func (g *Gate) signedIn(ctx context.Context, user study.User) {
	next := g.newID()
	if err := g.provider.CreateSession(ctx, next, user); err != nil {
		g.logger.Error("persisting session", "session", next, "error", err)
	}
	prev := g.swapSession(next)
	if err := g.provider.DeleteSession(ctx, prev); err != nil {
		g.logger.Warn("dropping previous session", "session", prev, "error", err)
	}
	g.publish(&user)
}

// swapSession moves the gate to next and returns the previous id.
func (g *Gate) swapSession(next string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	prev := g.sessionID
	g.sessionID = next
	return prev
}

func (g *Gate) publish(user *study.User) {
	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()

	g.mu.Lock()
	g.user = copyUser(user)
	fns := make([]func(*study.User), 0, len(g.observers))
	for _, fn := range g.observers {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(copyUser(user))
	}
}

func copyUser(u *study.User) *study.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Email != nil {
		e := *u.Email
		c.Email = &e
	}
	return &c
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
