package flow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/kingbrown/caesarstudy/internal/study"
)

// DefaultSaveDelay is the quiescence window before generated questions are
// written to history.
const DefaultSaveDelay = 5 * time.Second

// QAState is a snapshot of a question list screen.
type QAState struct {
	Phase     Phase                     `json:"phase"`
	Level     study.Level               `json:"level"`
	Questions []study.QuestionAndAnswer `json:"questions"`
	Revealed  []bool                    `json:"revealed"`
	Error     string                    `json:"error,omitempty"`
}

// qaScreen is the shared core of the act/scene and character screens: a
// list of generated questions, per-question answer visibility, and a save
// that only happens once the list has survived the quiescence window.
type qaScreen struct {
	saver  Saver
	uid    string
	delay  time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	gen       generation
	closed    bool
	state     QAState
	saveTimer *time.Timer
}

func newQAScreen(saver Saver, uid string, delay time.Duration, logger *slog.Logger) *qaScreen {
	return &qaScreen{
		saver:  saver,
		uid:    uid,
		delay:  delay,
		logger: logger,
	}
}

// run drives one generation. item builds the history entry for a successful
// result.
func (s *qaScreen) run(
	ctx context.Context,
	level study.Level,
	fetch func(context.Context) ([]study.QuestionAndAnswer, error),
	item func([]study.QuestionAndAnswer) study.HistoryItem,
) (QAState, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return QAState{}, ErrClosed
	}
	s.cancelSave()
	gctx, seq := s.gen.begin(ctx)
	s.state = QAState{Phase: PhaseLoading, Level: level}
	s.mu.Unlock()

	questions, err := fetch(gctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gen.current(seq) {
		s.logger.Debug("discarding superseded generation", "uid", s.uid)
		return QAState{}, ErrSuperseded
	}
	s.gen.finish(seq)

	if err != nil {
		s.state.Phase = PhaseError
		s.state.Error = failureText(err)
		return s.snapshot(), err
	}

	s.state.Phase = PhaseReady
	s.state.Questions = questions
	s.state.Revealed = make([]bool, len(questions))
	s.scheduleSave(seq, item(slices.Clone(questions)))
	return s.snapshot(), nil
}

// scheduleSave arms the delayed write for generation seq. Callers hold mu.
func (s *qaScreen) scheduleSave(seq uint64, item study.HistoryItem) {
	s.saveTimer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		stale := s.closed || !s.gen.current(seq)
		if !stale {
			s.saveTimer = nil
		}
		s.mu.Unlock()
		if stale {
			return
		}
		s.saver.Append(context.Background(), s.uid, item)
	})
}

// cancelSave drops a pending save. Callers hold mu.
func (s *qaScreen) cancelSave() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
}

func (s *qaScreen) toggle(i int) (QAState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseReady {
		return s.snapshot(), ErrWrongPhase
	}
	if i < 0 || i >= len(s.state.Revealed) {
		return s.snapshot(), fmt.Errorf("%w: question %d", ErrInvalidSelection, i)
	}
	s.state.Revealed[i] = !s.state.Revealed[i]
	return s.snapshot(), nil
}

func (s *qaScreen) current() QAState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// close tears the screen down: the in-flight request is cancelled and a
// pending save never happens.
func (s *qaScreen) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelSave()
	s.gen.stop()
}

func (s *qaScreen) snapshot() QAState {
	st := s.state
	st.Questions = slices.Clone(s.state.Questions)
	st.Revealed = slices.Clone(s.state.Revealed)
	return st
}

// ActSceneState is a snapshot of the act/scene screen.
type ActSceneState struct {
	QAState
	Act   int `json:"act"`
	Scene int `json:"scene"`
}

// ActScene generates exam-style questions for one scene of the play.
type ActScene struct {
	gen    Generator
	screen *qaScreen

	mu         sync.Mutex
	act, scene int
}

func NewActScene(gen Generator, saver Saver, uid string, delay time.Duration, logger *slog.Logger) *ActScene {
	return &ActScene{gen: gen, screen: newQAScreen(saver, uid, delay, logger)}
}

// Generate replaces the current questions with a fresh set. An act/scene
// pair that does not exist is rejected without calling the generator.
func (f *ActScene) Generate(ctx context.Context, act, scene int, level study.Level) (ActSceneState, error) {
	if !study.ValidActScene(act, scene) {
		return f.State(), fmt.Errorf("%w: act %d scene %d", ErrInvalidSelection, act, scene)
	}

	f.mu.Lock()
	f.act, f.scene = act, scene
	f.mu.Unlock()

	st, err := f.screen.run(ctx, level,
		func(ctx context.Context) ([]study.QuestionAndAnswer, error) {
			return f.gen.ActSceneQuestions(ctx, act, scene, level)
		},
		func(qs []study.QuestionAndAnswer) study.HistoryItem {
			return study.ActSceneItem{Entry: study.Entry{Level: level}, Act: act, Scene: scene, Questions: qs}
		},
	)
	return f.wrap(st), err
}

func (f *ActScene) ToggleAnswer(i int) (ActSceneState, error) {
	st, err := f.screen.toggle(i)
	return f.wrap(st), err
}

func (f *ActScene) State() ActSceneState {
	return f.wrap(f.screen.current())
}

func (f *ActScene) Close() { f.screen.close() }

func (f *ActScene) wrap(st QAState) ActSceneState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ActSceneState{QAState: st, Act: f.act, Scene: f.scene}
}

// CharacterState is a snapshot of the character screen.
type CharacterState struct {
	QAState
	Character string `json:"character"`
}

// Character generates analytical questions about one character.
type Character struct {
	gen    Generator
	screen *qaScreen

	mu        sync.Mutex
	character string
}

func NewCharacter(gen Generator, saver Saver, uid string, delay time.Duration, logger *slog.Logger) *Character {
	return &Character{gen: gen, screen: newQAScreen(saver, uid, delay, logger)}
}

func (f *Character) Generate(ctx context.Context, character string, level study.Level) (CharacterState, error) {
	if !study.ValidCharacter(character) {
		return f.State(), fmt.Errorf("%w: character %q", ErrInvalidSelection, character)
	}

	f.mu.Lock()
	f.character = character
	f.mu.Unlock()

	st, err := f.screen.run(ctx, level,
		func(ctx context.Context) ([]study.QuestionAndAnswer, error) {
			return f.gen.CharacterQuestions(ctx, character, level)
		},
		func(qs []study.QuestionAndAnswer) study.HistoryItem {
			return study.CharacterItem{Entry: study.Entry{Level: level}, Character: character, Questions: qs}
		},
	)
	return f.wrap(st), err
}

func (f *Character) ToggleAnswer(i int) (CharacterState, error) {
	st, err := f.screen.toggle(i)
	return f.wrap(st), err
}

func (f *Character) State() CharacterState {
	return f.wrap(f.screen.current())
}

func (f *Character) Close() { f.screen.close() }

func (f *Character) wrap(st QAState) CharacterState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return CharacterState{QAState: st, Character: f.character}
}
