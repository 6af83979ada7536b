// Package generator asks a generative-text model for study content and
// validates the reply against the expected shape before anyone sees it.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kingbrown/caesarstudy/internal/study"
)

// FailureMessage is the only text a caller ever shows for a failed generation.
const FailureMessage = "Failed to generate content. Please check your API key and network connection."

// Shape is the output schema declared to the model.
type Shape int

const (
	ShapeFreeText Shape = iota
	ShapeQAList
	ShapeQuizList
)

func (s Shape) String() string {
	switch s {
	case ShapeQAList:
		return "qa-list"
	case ShapeQuizList:
		return "quiz-list"
	default:
		return "free-text"
	}
}

// Model is the generative-text provider boundary. For the list shapes the
// returned text must be JSON.
type Model interface {
	Generate(ctx context.Context, prompt string, shape Shape) (string, error)
}

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidFormat
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindInvalidFormat:
		return "invalid-format"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// GenerationError reports a failed generation. Error() is always
// FailureMessage; the cause is only for logs.
type GenerationError struct {
	Kind Kind
	Err  error
}

func (e *GenerationError) Error() string { return FailureMessage }

func (e *GenerationError) Unwrap() error { return e.Err }

var (
	errEmptyList   = errors.New("model returned no items")
	errEmptyAnswer = errors.New("model returned an empty answer")
)

// Adapter turns study requests into prompts and validated results. It does
// not retry and imposes no timeout of its own.
type Adapter struct {
	model  Model
	logger *slog.Logger
}

func NewAdapter(model Model, logger *slog.Logger) *Adapter {
	return &Adapter{model: model, logger: logger}
}

func (a *Adapter) ActSceneQuestions(ctx context.Context, act, scene int, level study.Level) ([]study.QuestionAndAnswer, error) {
	if !study.ValidActScene(act, scene) {
		return nil, a.fail("act-scene", KindUnknown, fmt.Errorf("act %d scene %d does not exist", act, scene))
	}
	return a.qaList(ctx, "act-scene", actScenePrompt(act, scene, level))
}

func (a *Adapter) CharacterQuestions(ctx context.Context, character string, level study.Level) ([]study.QuestionAndAnswer, error) {
	if !study.ValidCharacter(character) {
		return nil, a.fail("character", KindUnknown, fmt.Errorf("character %q is not on the roster", character))
	}
	return a.qaList(ctx, "character", characterPrompt(character, level))
}

func (a *Adapter) Quiz(ctx context.Context, level study.Level) ([]study.QuizQuestion, error) {
	text, err := a.model.Generate(ctx, quizPrompt(level), ShapeQuizList)
	if err != nil {
		return nil, a.fail("quiz", KindTransport, err)
	}

	var quiz []study.QuizQuestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &quiz); err != nil {
		return nil, a.fail("quiz", KindInvalidFormat, fmt.Errorf("decoding quiz: %w", err))
	}
	if len(quiz) == 0 {
		return nil, a.fail("quiz", KindInvalidFormat, errEmptyList)
	}
	for i, q := range quiz {
		if err := q.Validate(); err != nil {
			return nil, a.fail("quiz", KindInvalidFormat, fmt.Errorf("question %d: %w", i, err))
		}
	}
	return quiz, nil
}

func (a *Adapter) AskDoubt(ctx context.Context, question string) (string, error) {
	text, err := a.model.Generate(ctx, doubtPrompt(question), ShapeFreeText)
	if err != nil {
		return "", a.fail("doubt", KindTransport, err)
	}
	answer := strings.TrimSpace(text)
	if answer == "" {
		return "", a.fail("doubt", KindInvalidFormat, errEmptyAnswer)
	}
	return answer, nil
}

func (a *Adapter) qaList(ctx context.Context, op, prompt string) ([]study.QuestionAndAnswer, error) {
	text, err := a.model.Generate(ctx, prompt, ShapeQAList)
	if err != nil {
		return nil, a.fail(op, KindTransport, err)
	}

	var items []study.QuestionAndAnswer
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &items); err != nil {
		return nil, a.fail(op, KindInvalidFormat, fmt.Errorf("decoding questions: %w", err))
	}
	if len(items) == 0 {
		return nil, a.fail(op, KindInvalidFormat, errEmptyList)
	}
	for i, qa := range items {
		if strings.TrimSpace(qa.Question) == "" {
			return nil, a.fail(op, KindInvalidFormat, fmt.Errorf("item %d: %w", i, study.ErrEmptyQuestion))
		}
		if strings.TrimSpace(qa.Answer) == "" {
			return nil, a.fail(op, KindInvalidFormat, fmt.Errorf("item %d: %w", i, study.ErrEmptyAnswer))
		}
	}
	return items, nil
}

func (a *Adapter) fail(op string, kind Kind, err error) error {
	a.logger.Error("generation failed", "op", op, "kind", kind, "error", err)
	return &GenerationError{Kind: kind, Err: err}
}
