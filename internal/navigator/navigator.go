// Package navigator tracks which screen a client is on and the difficulty
// level content is generated for.
package navigator

import (
	"slices"
	"sync"

	"github.com/kingbrown/caesarstudy/internal/study"
)

// Navigator holds a non-empty stack of views whose top is the visible screen.
// It is safe for concurrent use.
type Navigator struct {
	mu    sync.Mutex
	stack []study.View
	level study.Level
}

func New() *Navigator {
	return &Navigator{
		stack: []study.View{study.ViewMenu},
		level: study.DefaultLevel,
	}
}

// NavigateTo pushes v, even when it is already on top.
func (n *Navigator) NavigateTo(v study.View) {
	n.mu.Lock()
	n.stack = append(n.stack, v)
	n.mu.Unlock()
}

// NavigateBack pops the top view unless only one remains. It returns the
// view that was popped and whether anything changed.
func (n *Navigator) NavigateBack() (study.View, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.stack) <= 1 {
		return n.stack[0], false
	}
	top := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]
	return top, true
}

// Reset replaces the stack with just the menu.
func (n *Navigator) Reset() {
	n.mu.Lock()
	n.stack = []study.View{study.ViewMenu}
	n.mu.Unlock()
}

func (n *Navigator) Current() study.View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack[len(n.stack)-1]
}

// Stack returns a copy of the stack, bottom first.
func (n *Navigator) Stack() []study.View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.stack)
}

func (n *Navigator) Level() study.Level {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.level
}

func (n *Navigator) SetLevel(l study.Level) {
	n.mu.Lock()
	n.level = l
	n.mu.Unlock()
}
