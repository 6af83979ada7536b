// Package study defines the core domain types of the Julius Caesar study aid.
// It has zero external dependencies.
package study

import (
	"errors"
	"fmt"
	"strings"
)

// View identifies a screen. It carries no payload.
type View int

const (
	ViewMenu View = iota
	ViewActScene
	ViewCharacter
	ViewQuiz
	ViewScore
	ViewHistory
	ViewDoubtSolver
)

var viewNames = [...]string{
	ViewMenu:        "menu",
	ViewActScene:    "act-scene",
	ViewCharacter:   "character",
	ViewQuiz:        "quiz",
	ViewScore:       "score",
	ViewHistory:     "history",
	ViewDoubtSolver: "doubt-solver",
}

func (v View) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return fmt.Sprintf("View(%d)", int(v))
	}
	return viewNames[v]
}

// ParseView maps a wire name back to a View.
func ParseView(s string) (View, error) {
	for i, name := range viewNames {
		if name == s {
			return View(i), nil
		}
	}
	return 0, fmt.Errorf("unknown view %q", s)
}

func (v View) MarshalText() ([]byte, error) {
	if v < 0 || int(v) >= len(viewNames) {
		return nil, fmt.Errorf("unknown view %d", int(v))
	}
	return []byte(viewNames[v]), nil
}

func (v *View) UnmarshalText(b []byte) error {
	parsed, err := ParseView(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Level is the difficulty tier content is generated for.
type Level int

const (
	LevelMiddleSchool Level = iota
	LevelHighSchool
	LevelAPCollege
)

// DefaultLevel is selected for every new client.
const DefaultLevel = LevelHighSchool

var levelNames = [...]string{
	LevelMiddleSchool: "Middle School",
	LevelHighSchool:   "High School",
	LevelAPCollege:    "AP / College",
}

// Levels lists every level in menu order.
func Levels() []Level {
	return []Level{LevelMiddleSchool, LevelHighSchool, LevelAPCollege}
}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel accepts the exact label shown to users.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	if l < 0 || int(l) >= len(levelNames) {
		return nil, fmt.Errorf("unknown level %d", int(l))
	}
	return []byte(levelNames[l]), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// User is the authenticated identity for the lifetime of a session.
type User struct {
	UID   string  `json:"uid"`
	Email *string `json:"email"`
}

// QuestionAndAnswer is one generated study question.
type QuestionAndAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuizOptionCount is the number of choices every quiz question carries.
const QuizOptionCount = 4

var (
	ErrEmptyQuestion     = errors.New("question is required")
	ErrEmptyAnswer       = errors.New("answer is required")
	ErrOptionCount       = fmt.Errorf("exactly %d options are required", QuizOptionCount)
	ErrAnswerNotInOption = errors.New("answer must match one of the options")
)

// QuizQuestion is a multiple-choice question. Answer equals one of Options.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Validate reports whether q can be shown to a user.
func (q QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return ErrEmptyQuestion
	}
	if len(q.Options) != QuizOptionCount {
		return ErrOptionCount
	}
	if q.Answer == "" {
		return ErrEmptyAnswer
	}
	for _, o := range q.Options {
		if o == q.Answer {
			return nil
		}
	}
	return ErrAnswerNotInOption
}

// IsCorrect reports whether option is the answer by exact text match.
func (q QuizQuestion) IsCorrect(option string) bool {
	return option == q.Answer
}

// FormatScore renders a last-score record.
func FormatScore(score, total int) string {
	return fmt.Sprintf("%d/%d", score, total)
}
