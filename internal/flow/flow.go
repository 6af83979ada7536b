// Package flow holds the state machines behind the generation screens:
// act/scene questions, character questions, the quiz and the doubt solver.
//
// Every screen runs idle → loading → ready | error. Only one generation per
// screen is ever current. Starting another one, or closing the screen,
// cancels the previous request's context and discards its result if it
// still arrives.
package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/kingbrown/caesarstudy/internal/generator"
	"github.com/kingbrown/caesarstudy/internal/study"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseError
	PhaseFeedback
	PhaseFinished
)

var phaseNames = [...]string{
	PhaseIdle:     "idle",
	PhaseLoading:  "loading",
	PhaseReady:    "ready",
	PhaseError:    "error",
	PhaseFeedback: "feedback",
	PhaseFinished: "finished",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

var (
	// ErrSuperseded is returned to a caller whose generation was replaced by
	// a newer one (or whose screen was closed) before it finished.
	ErrSuperseded       = errors.New("generation superseded")
	ErrClosed           = errors.New("screen closed")
	ErrWrongPhase       = errors.New("action not allowed in current phase")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrNoSelection      = errors.New("no option selected")
)

// Saver is the subset of the history store the screens write to.
type Saver interface {
	Append(ctx context.Context, uid string, item study.HistoryItem)
	SaveLastScore(ctx context.Context, uid string, score, total int)
}

// Generator is the content source. *generator.Adapter satisfies it.
type Generator interface {
	ActSceneQuestions(ctx context.Context, act, scene int, level study.Level) ([]study.QuestionAndAnswer, error)
	CharacterQuestions(ctx context.Context, character string, level study.Level) ([]study.QuestionAndAnswer, error)
	Quiz(ctx context.Context, level study.Level) ([]study.QuizQuestion, error)
	AskDoubt(ctx context.Context, question string) (string, error)
}

var _ Generator = (*generator.Adapter)(nil)

// generation tracks the current request of one screen. Callers hold the
// screen's lock around every method.
type generation struct {
	seq    uint64
	cancel context.CancelFunc
}

// begin supersedes the previous request and returns the context and token
// of the new one.
func (g *generation) begin(ctx context.Context) (context.Context, uint64) {
	g.stop()
	gctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	return gctx, g.seq
}

func (g *generation) current(seq uint64) bool {
	return g.seq == seq
}

// finish releases the context of request seq if it is still current.
func (g *generation) finish(seq uint64) {
	if g.seq == seq && g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// stop cancels the current request and invalidates its token.
func (g *generation) stop() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.seq++
}

func failureText(err error) string {
	var ge *generator.GenerationError
	if errors.As(err, &ge) {
		return ge.Error()
	}
	return generator.FailureMessage
}
