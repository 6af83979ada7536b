package flow_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/kingbrown/caesarstudy/internal/generator"
	"github.com/kingbrown/caesarstudy/internal/study"
)

// fakeGen answers every call from its fields. When block is set, the first
// call of each kind waits for release or for its context to be cancelled.
type fakeGen struct {
	mu sync.Mutex

	qa       [][]study.QuestionAndAnswer
	quiz     []study.QuizQuestion
	answer   string
	err      error
	block    chan struct{}
	blocked  bool
	calls    int
	lastArgs string
}

func (g *fakeGen) next(ctx context.Context) error {
	g.mu.Lock()
	g.calls++
	wait := g.block != nil && !g.blocked
	if wait {
		g.blocked = true
	}
	block := g.block
	g.mu.Unlock()

	if wait {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (g *fakeGen) qaReply(ctx context.Context, args string) ([]study.QuestionAndAnswer, error) {
	if err := g.next(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastArgs = args
	if g.err != nil {
		return nil, g.err
	}
	i := min(g.calls-1, len(g.qa)-1)
	return g.qa[i], nil
}

func (g *fakeGen) ActSceneQuestions(ctx context.Context, act, scene int, level study.Level) ([]study.QuestionAndAnswer, error) {
	return g.qaReply(ctx, fmt.Sprintf("%d/%d/%s", act, scene, level))
}

func (g *fakeGen) CharacterQuestions(ctx context.Context, character string, level study.Level) ([]study.QuestionAndAnswer, error) {
	return g.qaReply(ctx, fmt.Sprintf("%s/%s", character, level))
}

func (g *fakeGen) Quiz(ctx context.Context, level study.Level) ([]study.QuizQuestion, error) {
	if err := g.next(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return g.quiz, nil
}

func (g *fakeGen) AskDoubt(ctx context.Context, question string) (string, error) {
	if err := g.next(ctx); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastArgs = question
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func (g *fakeGen) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeSaver struct {
	mu     sync.Mutex
	items  []study.HistoryItem
	scores []string
}

func (s *fakeSaver) Append(_ context.Context, _ string, item study.HistoryItem) {
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
}

func (s *fakeSaver) SaveLastScore(_ context.Context, _ string, score, total int) {
	s.mu.Lock()
	s.scores = append(s.scores, study.FormatScore(score, total))
	s.mu.Unlock()
}

func (s *fakeSaver) saved() []study.HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]study.HistoryItem(nil), s.items...)
}

func (s *fakeSaver) lastScores() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scores...)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func qaSet(prefix string, n int) []study.QuestionAndAnswer {
	out := make([]study.QuestionAndAnswer, n)
	for i := range out {
		out[i] = study.QuestionAndAnswer{
			Question: fmt.Sprintf("%s question %d", prefix, i+1),
			Answer:   fmt.Sprintf("%s answer %d", prefix, i+1),
		}
	}
	return out
}

func genErr() error {
	return &generator.GenerationError{Kind: generator.KindTransport, Err: errors.New("offline")}
}
