package flow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/kingbrown/caesarstudy/internal/generator"
	"github.com/kingbrown/caesarstudy/internal/study"
)

// QuizQuestionView is a question as shown before it is answered.
type QuizQuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// OptionFeedback marks how an option is rendered after submission.
type OptionFeedback struct {
	Option        string `json:"option"`
	Correct       bool   `json:"correct"`
	SelectedWrong bool   `json:"selectedWrong"`
}

// QuizState is a snapshot of the quiz screen. Answer and Feedback are only
// set in the feedback phase.
type QuizState struct {
	Phase    Phase             `json:"phase"`
	Level    study.Level       `json:"level"`
	Index    int               `json:"index"`
	Total    int               `json:"total"`
	Score    int               `json:"score"`
	Question *QuizQuestionView `json:"question,omitempty"`
	Selected string            `json:"selected,omitempty"`
	Answer   string            `json:"answer,omitempty"`
	Feedback []OptionFeedback  `json:"feedback,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Quiz runs a multiple-choice quiz. The final score is written to history
// and to the last-score record exactly once, when the last question is
// submitted.
type Quiz struct {
	gen    Generator
	saver  Saver
	uid    string
	logger *slog.Logger

	mu        sync.Mutex
	g         generation
	closed    bool
	phase     Phase
	level     study.Level
	questions []study.QuizQuestion
	index     int
	score     int
	selected  string
	errText   string
	saved     bool
}

func NewQuiz(gen Generator, saver Saver, uid string, logger *slog.Logger) *Quiz {
	return &Quiz{gen: gen, saver: saver, uid: uid, logger: logger}
}

// Start generates a new quiz, discarding any quiz in progress.
func (q *Quiz) Start(ctx context.Context, level study.Level) (QuizState, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return QuizState{}, ErrClosed
	}
	gctx, seq := q.g.begin(ctx)
	q.reset(level)
	q.phase = PhaseLoading
	q.mu.Unlock()

	questions, err := q.gen.Quiz(gctx, level)
	if err == nil && len(questions) == 0 {
		err = &generator.GenerationError{Kind: generator.KindInvalidFormat}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.g.current(seq) {
		q.logger.Debug("discarding superseded quiz", "uid", q.uid)
		return QuizState{}, ErrSuperseded
	}
	q.g.finish(seq)

	if err != nil {
		q.phase = PhaseError
		q.errText = failureText(err)
		return q.snapshot(), err
	}
	q.questions = questions
	q.phase = PhaseReady
	return q.snapshot(), nil
}

// Select records the chosen option for the current question.
func (q *Quiz) Select(option string) (QuizState, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.phase != PhaseReady {
		return q.snapshot(), ErrWrongPhase
	}
	if !slices.Contains(q.questions[q.index].Options, option) {
		return q.snapshot(), fmt.Errorf("%w: %q is not an option", ErrInvalidSelection, option)
	}
	q.selected = option
	return q.snapshot(), nil
}

// Submit scores the selected option and shows feedback.
func (q *Quiz) Submit(ctx context.Context) (QuizState, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.phase != PhaseReady {
		return q.snapshot(), ErrWrongPhase
	}
	if q.selected == "" {
		return q.snapshot(), ErrNoSelection
	}

	if q.questions[q.index].IsCorrect(q.selected) {
		q.score++
	}
	q.phase = PhaseFeedback

	if q.index == len(q.questions)-1 && !q.saved {
		q.saved = true
		q.persist(context.WithoutCancel(ctx))
	}
	return q.snapshot(), nil
}

// Next advances past the feedback of the current question.
func (q *Quiz) Next() (QuizState, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.phase != PhaseFeedback {
		return q.snapshot(), ErrWrongPhase
	}
	if q.index+1 < len(q.questions) {
		q.index++
		q.selected = ""
		q.phase = PhaseReady
	} else {
		q.phase = PhaseFinished
	}
	return q.snapshot(), nil
}

func (q *Quiz) State() QuizState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshot()
}

// Close cancels a quiz still being generated.
func (q *Quiz) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.g.stop()
}

func (q *Quiz) persist(ctx context.Context) {
	total := len(q.questions)
	q.saver.Append(ctx, q.uid, study.QuizItem{
		Entry:          study.Entry{Level: q.level},
		Score:          q.score,
		TotalQuestions: total,
		Questions:      slices.Clone(q.questions),
	})
	q.saver.SaveLastScore(ctx, q.uid, q.score, total)
}

func (q *Quiz) reset(level study.Level) {
	q.phase = PhaseIdle
	q.level = level
	q.questions = nil
	q.index = 0
	q.score = 0
	q.selected = ""
	q.errText = ""
	q.saved = false
}

func (q *Quiz) snapshot() QuizState {
	st := QuizState{
		Phase: q.phase,
		Level: q.level,
		Index: q.index,
		Total: len(q.questions),
		Score: q.score,
		Error: q.errText,
	}
	if q.phase != PhaseReady && q.phase != PhaseFeedback {
		return st
	}

	cur := q.questions[q.index]
	st.Question = &QuizQuestionView{Question: cur.Question, Options: slices.Clone(cur.Options)}
	st.Selected = q.selected
	if q.phase == PhaseFeedback {
		st.Answer = cur.Answer
		st.Feedback = make([]OptionFeedback, len(cur.Options))
		for i, o := range cur.Options {
			st.Feedback[i] = OptionFeedback{
				Option:        o,
				Correct:       cur.IsCorrect(o),
				SelectedWrong: o == q.selected && !cur.IsCorrect(o),
			}
		}
	}
	return st
}
