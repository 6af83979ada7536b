package flow

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/kingbrown/caesarstudy/internal/study"
)

type DoubtState struct {
	Phase    Phase  `json:"phase"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Doubt answers free-form questions. Every answer is saved right away.
type Doubt struct {
	gen    Generator
	saver  Saver
	uid    string
	logger *slog.Logger

	mu     sync.Mutex
	g      generation
	closed bool
	state  DoubtState
}

func NewDoubt(gen Generator, saver Saver, uid string, logger *slog.Logger) *Doubt {
	return &Doubt{gen: gen, saver: saver, uid: uid, logger: logger}
}

// Ask sends question to the tutor. A blank question is ignored.
func (d *Doubt) Ask(ctx context.Context, question string, level study.Level) (DoubtState, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return d.State(), nil
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return DoubtState{}, ErrClosed
	}
	gctx, seq := d.g.begin(ctx)
	d.state = DoubtState{Phase: PhaseLoading, Question: question}
	d.mu.Unlock()

	answer, err := d.gen.AskDoubt(gctx, question)

	d.mu.Lock()
	if !d.g.current(seq) {
		d.mu.Unlock()
		d.logger.Debug("discarding superseded answer", "uid", d.uid)
		return DoubtState{}, ErrSuperseded
	}
	d.g.finish(seq)

	if err != nil {
		d.state.Phase = PhaseError
		d.state.Error = failureText(err)
		st := d.state
		d.mu.Unlock()
		return st, err
	}

	d.state.Phase = PhaseReady
	d.state.Answer = answer
	st := d.state
	d.mu.Unlock()

	d.saver.Append(context.WithoutCancel(ctx), d.uid, study.DoubtItem{
		Entry:    study.Entry{Level: level},
		Question: question,
		Answer:   answer,
	})
	return st, nil
}

// Clear resets the question, answer and error, abandoning any request in
// flight.
func (d *Doubt) Clear() DoubtState {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.g.stop()
	d.state = DoubtState{Phase: PhaseIdle}
	return d.state
}

func (d *Doubt) State() DoubtState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Doubt) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.g.stop()
}
