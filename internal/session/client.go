// Package session composes everything one browser client owns: its auth
// gate, its navigation stack and the state of its generation screens.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kingbrown/caesarstudy/internal/auth"
	"github.com/kingbrown/caesarstudy/internal/flow"
	"github.com/kingbrown/caesarstudy/internal/navigator"
	"github.com/kingbrown/caesarstudy/internal/study"
)

// ErrSignedOut is returned when a screen that needs a user is requested
// without one.
var ErrSignedOut = errors.New("not signed in")

// Deps are the process-wide collaborators shared by every client. Provider
// is nil when the service runs unconfigured.
type Deps struct {
	Provider  auth.Provider
	Generator flow.Generator
	Saver     flow.Saver
	Broker    *Broker
	SaveDelay time.Duration
	Logger    *slog.Logger
}

// ViewState is the navigator as seen by the front end.
type ViewState struct {
	Current study.View   `json:"current"`
	Stack   []study.View `json:"stack"`
	Level   study.Level  `json:"level"`
}

// Client is one browser's state. Its ID follows the session id and changes
// on every sign-in and sign-out; Key is fixed for the client's lifetime.
type Client struct {
	key    string
	deps   Deps
	gate   *auth.Gate
	nav    *navigator.Navigator
	logger *slog.Logger
	stop   func()

	// moved is set by the Registry to follow ID changes.
	moved    func(prev, next string, c *Client)
	lastSeen atomic.Int64
	holds    atomic.Int32

	mu        sync.Mutex
	user      *study.User
	actScene  *flow.ActScene
	character *flow.Character
	quiz      *flow.Quiz
	doubt     *flow.Doubt
}

func NewClient(ctx context.Context, id string, deps Deps) *Client {
	key := uuid.NewString()
	logger := deps.Logger.With("client", key)
	c := &Client{
		key:    key,
		deps:   deps,
		nav:    navigator.New(),
		logger: logger,
	}
	c.gate = auth.NewGate(ctx, deps.Provider, id, logger)
	c.stop = c.gate.Observe(c.userChanged)
	c.touch()
	return c
}

// ID is the client's current session id, the value its cookie carries.
func (c *Client) ID() string { return c.gate.SessionID() }

// Key identifies the client's event stream.
func (c *Client) Key() string { return c.key }

func (c *Client) Gate() *auth.Gate { return c.gate }

func (c *Client) User() *study.User { return c.gate.User() }

// SignUp creates an account, signs the client in and moves it to a new ID.
func (c *Client) SignUp(ctx context.Context, email, password string) (*study.User, error) {
	prev := c.ID()
	u, err := c.gate.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.rekeyed(prev)
	return u, nil
}

// SignIn signs the client in and moves it to a new ID.
func (c *Client) SignIn(ctx context.Context, email, password string) (*study.User, error) {
	prev := c.ID()
	u, err := c.gate.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.rekeyed(prev)
	return u, nil
}

// SignOut signs the client out and moves it to a new ID.
func (c *Client) SignOut(ctx context.Context) {
	prev := c.ID()
	c.gate.SignOut(ctx)
	c.rekeyed(prev)
}

func (c *Client) rekeyed(prev string) {
	next := c.ID()
	if next != prev && c.moved != nil {
		c.moved(prev, next, c)
	}
}

// Hold marks the client as in use until release is called. Held clients
// are never evicted.
func (c *Client) Hold() (release func()) {
	c.holds.Add(1)
	c.touch()
	var once sync.Once
	return func() {
		once.Do(func() {
			c.touch()
			c.holds.Add(-1)
		})
	}
}

func (c *Client) touch() { c.lastSeen.Store(time.Now().UnixNano()) }

func (c *Client) idleSince(cutoff time.Time) bool {
	return c.holds.Load() == 0 && c.lastSeen.Load() < cutoff.UnixNano()
}

// userChanged runs on every session notification. Any change drops the
// screens of the previous user; a sign-in also returns to the menu.
func (c *Client) userChanged(u *study.User) {
	c.mu.Lock()
	c.user = u
	c.closeAllLocked()
	c.mu.Unlock()

	if u != nil {
		c.nav.Reset()
	}
	c.publishView()
}

func (c *Client) View() ViewState {
	return ViewState{
		Current: c.nav.Current(),
		Stack:   c.nav.Stack(),
		Level:   c.nav.Level(),
	}
}

// NavigateTo shows v. The screen being left is torn down.
func (c *Client) NavigateTo(v study.View) ViewState {
	prev := c.nav.Current()
	c.nav.NavigateTo(v)
	c.left(prev, v)
	return c.publishView()
}

func (c *Client) NavigateBack() ViewState {
	if popped, ok := c.nav.NavigateBack(); ok {
		c.left(popped, c.nav.Current())
	}
	return c.publishView()
}

func (c *Client) SetLevel(l study.Level) ViewState {
	c.nav.SetLevel(l)
	return c.publishView()
}

func (c *Client) Level() study.Level { return c.nav.Level() }

func (c *Client) left(prev, next study.View) {
	if prev == next {
		return
	}
	c.mu.Lock()
	c.closeLocked(prev)
	c.mu.Unlock()
}

func (c *Client) publishView() ViewState {
	v := c.View()
	if c.deps.Broker != nil {
		if err := c.deps.Broker.Publish(c.key, Event{Type: EventView, View: &v}); err != nil {
			c.logger.Error("publishing view", "error", err)
		}
	}
	return v
}

// ActScene returns the act/scene screen, creating it on first use.
func (c *Client) ActScene() (*flow.ActScene, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil, ErrSignedOut
	}
	if c.actScene == nil {
		c.actScene = flow.NewActScene(c.deps.Generator, c.deps.Saver, c.user.UID, c.deps.SaveDelay, c.logger)
	}
	return c.actScene, nil
}

func (c *Client) Character() (*flow.Character, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil, ErrSignedOut
	}
	if c.character == nil {
		c.character = flow.NewCharacter(c.deps.Generator, c.deps.Saver, c.user.UID, c.deps.SaveDelay, c.logger)
	}
	return c.character, nil
}

func (c *Client) Quiz() (*flow.Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil, ErrSignedOut
	}
	if c.quiz == nil {
		c.quiz = flow.NewQuiz(c.deps.Generator, c.deps.Saver, c.user.UID, c.logger)
	}
	return c.quiz, nil
}

func (c *Client) Doubt() (*flow.Doubt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil, ErrSignedOut
	}
	if c.doubt == nil {
		c.doubt = flow.NewDoubt(c.deps.Generator, c.deps.Saver, c.user.UID, c.logger)
	}
	return c.doubt, nil
}

// Close stops session notifications and tears every screen down.
func (c *Client) Close() {
	c.stop()
	c.mu.Lock()
	c.closeAllLocked()
	c.mu.Unlock()
}

func (c *Client) closeLocked(v study.View) {
	switch v {
	case study.ViewActScene:
		if c.actScene != nil {
			c.actScene.Close()
			c.actScene = nil
		}
	case study.ViewCharacter:
		if c.character != nil {
			c.character.Close()
			c.character = nil
		}
	case study.ViewQuiz:
		if c.quiz != nil {
			c.quiz.Close()
			c.quiz = nil
		}
	case study.ViewDoubtSolver:
		if c.doubt != nil {
			c.doubt.Close()
			c.doubt = nil
		}
	}
}

func (c *Client) closeAllLocked() {
	for _, v := range []study.View{study.ViewActScene, study.ViewCharacter, study.ViewQuiz, study.ViewDoubtSolver} {
		c.closeLocked(v)
	}
}
