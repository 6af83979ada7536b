package study

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownVariant is returned wherever a HistoryItem of an unhandled type
// (or an unknown wire discriminant) is encountered.
var ErrUnknownVariant = errors.New("unknown history item variant")

// ItemKind is the wire discriminant of a HistoryItem.
type ItemKind string

const (
	KindActScene    ItemKind = "act-scene"
	KindCharacter   ItemKind = "character"
	KindQuiz        ItemKind = "quiz"
	KindDoubtSolver ItemKind = "doubt-solver"
)

// Entry holds the fields shared by every history variant. ID and Timestamp
// are assigned by the history store at append time.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
}

// HistoryItem is a closed sum over ActSceneItem, CharacterItem, QuizItem and
// DoubtItem. Items are never mutated once appended.
type HistoryItem interface {
	Meta() Entry
	Kind() ItemKind
	Validate() error
	isHistoryItem()
}

type ActSceneItem struct {
	Entry
	Act       int                 `json:"act"`
	Scene     int                 `json:"scene"`
	Questions []QuestionAndAnswer `json:"questions"`
}

type CharacterItem struct {
	Entry
	Character string              `json:"character"`
	Questions []QuestionAndAnswer `json:"questions"`
}

type QuizItem struct {
	Entry
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	Questions      []QuizQuestion `json:"questions"`
}

type DoubtItem struct {
	Entry
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (i ActSceneItem) Meta() Entry  { return i.Entry }
func (i CharacterItem) Meta() Entry { return i.Entry }
func (i QuizItem) Meta() Entry      { return i.Entry }
func (i DoubtItem) Meta() Entry     { return i.Entry }

func (ActSceneItem) Kind() ItemKind  { return KindActScene }
func (CharacterItem) Kind() ItemKind { return KindCharacter }
func (QuizItem) Kind() ItemKind      { return KindQuiz }
func (DoubtItem) Kind() ItemKind     { return KindDoubtSolver }

func (ActSceneItem) isHistoryItem()  {}
func (CharacterItem) isHistoryItem() {}
func (QuizItem) isHistoryItem()      {}
func (DoubtItem) isHistoryItem()     {}

func (i ActSceneItem) Validate() error {
	if !ValidActScene(i.Act, i.Scene) {
		return fmt.Errorf("act %d scene %d does not exist", i.Act, i.Scene)
	}
	return nil
}

func (i CharacterItem) Validate() error {
	if !ValidCharacter(i.Character) {
		return fmt.Errorf("character %q is not on the roster", i.Character)
	}
	return nil
}

func (i QuizItem) Validate() error {
	if i.TotalQuestions <= 0 {
		return errors.New("quiz must have at least one question")
	}
	if i.Score < 0 || i.Score > i.TotalQuestions {
		return fmt.Errorf("score %d out of range for %d questions", i.Score, i.TotalQuestions)
	}
	return nil
}

func (i DoubtItem) Validate() error {
	if i.Question == "" {
		return ErrEmptyQuestion
	}
	if i.Answer == "" {
		return ErrEmptyAnswer
	}
	return nil
}

// Stamp returns a copy of item carrying the given id and timestamp.
func Stamp(item HistoryItem, id string, at time.Time) (HistoryItem, error) {
	switch it := item.(type) {
	case ActSceneItem:
		it.ID, it.Timestamp = id, at
		return it, nil
	case CharacterItem:
		it.ID, it.Timestamp = id, at
		return it, nil
	case QuizItem:
		it.ID, it.Timestamp = id, at
		return it, nil
	case DoubtItem:
		it.ID, it.Timestamp = id, at
		return it, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownVariant, item)
	}
}

type discriminant struct {
	Type ItemKind `json:"type"`
}

// MarshalHistoryItem encodes item as a flat JSON object with a "type" field.
func MarshalHistoryItem(item HistoryItem) ([]byte, error) {
	switch it := item.(type) {
	case ActSceneItem:
		return json.Marshal(struct {
			discriminant
			ActSceneItem
		}{discriminant{KindActScene}, it})
	case CharacterItem:
		return json.Marshal(struct {
			discriminant
			CharacterItem
		}{discriminant{KindCharacter}, it})
	case QuizItem:
		return json.Marshal(struct {
			discriminant
			QuizItem
		}{discriminant{KindQuiz}, it})
	case DoubtItem:
		return json.Marshal(struct {
			discriminant
			DoubtItem
		}{discriminant{KindDoubtSolver}, it})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownVariant, item)
	}
}

// UnmarshalHistoryItem decodes the output of MarshalHistoryItem.
func UnmarshalHistoryItem(data []byte) (HistoryItem, error) {
	var d discriminant
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding history item type: %w", err)
	}

	var (
		item HistoryItem
		err  error
	)
	switch d.Type {
	case KindActScene:
		var it ActSceneItem
		err = json.Unmarshal(data, &it)
		item = it
	case KindCharacter:
		var it CharacterItem
		err = json.Unmarshal(data, &it)
		item = it
	case KindQuiz:
		var it QuizItem
		err = json.Unmarshal(data, &it)
		item = it
	case KindDoubtSolver:
		var it DoubtItem
		err = json.Unmarshal(data, &it)
		item = it
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, d.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s history item: %w", d.Type, err)
	}
	return item, nil
}

// Summary is the collapsed one-line form of a history item.
type Summary struct {
	Kind      ItemKind  `json:"kind"`
	Title     string    `json:"title"`
	Level     Level     `json:"level"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Summarize renders the summary row of item.
func Summarize(item HistoryItem) (Summary, error) {
	var title, detail string
	switch it := item.(type) {
	case ActSceneItem:
		title = fmt.Sprintf("Act %d, Scene %d", it.Act, it.Scene)
	case CharacterItem:
		title = it.Character + " Questions"
	case QuizItem:
		title = "Quiz"
		detail = FormatScore(it.Score, it.TotalQuestions)
	case DoubtItem:
		title = "Asked a Question"
	default:
		return Summary{}, fmt.Errorf("%w: %T", ErrUnknownVariant, item)
	}
	meta := item.Meta()
	return Summary{
		Kind:      item.Kind(),
		Title:     title,
		Level:     meta.Level,
		Detail:    detail,
		Timestamp: meta.Timestamp,
	}, nil
}
