package flow_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"testing/synctest"
	"time"

	"github.com/kingbrown/caesarstudy/internal/flow"
	"github.com/kingbrown/caesarstudy/internal/generator"
	"github.com/kingbrown/caesarstudy/internal/study"
)

func TestActSceneScenario(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gen := &fakeGen{qa: [][]study.QuestionAndAnswer{qaSet("a", 10)}}
		saver := &fakeSaver{}
		f := flow.NewActScene(gen, saver, "u1", flow.DefaultSaveDelay, discard())
		defer f.Close()

		st, err := f.Generate(context.Background(), 3, 1, study.LevelHighSchool)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if gen.lastArgs != "3/1/High School" {
			t.Errorf("generator args = %q, want 3/1/High School", gen.lastArgs)
		}
		if st.Phase != flow.PhaseReady || len(st.Questions) != 10 {
			t.Errorf("state = %v with %d questions, want ready with 10", st.Phase, len(st.Questions))
		}
		if st.Act != 3 || st.Scene != 1 {
			t.Errorf("act/scene = %d/%d", st.Act, st.Scene)
		}

		time.Sleep(flow.DefaultSaveDelay - time.Millisecond)
		synctest.Wait()
		if got := len(saver.saved()); got != 0 {
			t.Fatalf("saved %d items before the window elapsed", got)
		}

		time.Sleep(time.Millisecond)
		synctest.Wait()
		saved := saver.saved()
		if len(saved) != 1 {
			t.Fatalf("saved %d items, want 1", len(saved))
		}
		item, ok := saved[0].(study.ActSceneItem)
		if !ok {
			t.Fatalf("saved %T, want ActSceneItem", saved[0])
		}
		if item.Act != 3 || item.Scene != 1 || item.Level != study.LevelHighSchool || len(item.Questions) != 10 {
			t.Errorf("saved item = %+v", item)
		}
	})
}

func TestActSceneFailureShowsMessageAndSavesNothing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gen := &fakeGen{err: genErr()}
		saver := &fakeSaver{}
		f := flow.NewActScene(gen, saver, "u1", flow.DefaultSaveDelay, discard())
		defer f.Close()

		st, err := f.Generate(context.Background(), 3, 1, study.LevelHighSchool)
		var ge *generator.GenerationError
		if !errors.As(err, &ge) {
			t.Fatalf("err = %v, want *GenerationError", err)
		}
		if st.Phase != flow.PhaseError || st.Error != generator.FailureMessage {
			t.Errorf("state = %v %q", st.Phase, st.Error)
		}
		if len(st.Questions) != 0 {
			t.Errorf("questions = %d, want 0", len(st.Questions))
		}

		time.Sleep(time.Minute)
		synctest.Wait()
		if got := len(saver.saved()); got != 0 {
			t.Errorf("saved %d items after failure", got)
		}
	})
}

// Regenerating 4 s into the window, then waiting 2 s, must leave the store
// without the first result.
func TestRegenerateCancelsPendingSave(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gen := &fakeGen{qa: [][]study.QuestionAndAnswer{qaSet("first", 2), qaSet("second", 3)}}
		saver := &fakeSaver{}
		f := flow.NewActScene(gen, saver, "u1", flow.DefaultSaveDelay, discard())
		defer f.Close()

		if _, err := f.Generate(context.Background(), 1, 1, study.LevelHighSchool); err != nil {
			t.Fatalf("first Generate: %v", err)
		}
		time.Sleep(4 * time.Second)

		if _, err := f.Generate(context.Background(), 1, 2, study.LevelHighSchool); err != nil {
			t.Fatalf("second Generate: %v", err)
		}
		time.Sleep(2 * time.Second)
		synctest.Wait()

		if got := len(saver.saved()); got != 0 {
			t.Fatalf("saved %d items, want 0", got)
		}

		time.Sleep(3 * time.Second)
		synctest.Wait()

		saved := saver.saved()
		if len(saved) != 1 {
			t.Fatalf("saved %d items, want 1", len(saved))
		}
		if item := saved[0].(study.ActSceneItem); item.Scene != 2 || len(item.Questions) != 3 {
			t.Errorf("saved %+v, want the second result", item)
		}
	})
}

func TestCloseCancelsPendingSave(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gen := &fakeGen{qa: [][]study.QuestionAndAnswer{qaSet("a", 1)}}
		saver := &fakeSaver{}
		f := flow.NewCharacter(gen, saver, "u1", flow.DefaultSaveDelay, discard())

		if _, err := f.Generate(context.Background(), "Brutus", study.LevelAPCollege); err != nil {
			t.Fatalf("Generate: %v", err)
		}
		time.Sleep(time.Second)
		f.Close()

		time.Sleep(time.Minute)
		synctest.Wait()
		if got := len(saver.saved()); got != 0 {
			t.Errorf("saved %d items after close", got)
		}

		if _, err := f.Generate(context.Background(), "Brutus", study.LevelAPCollege); !errors.Is(err, flow.ErrClosed) {
			t.Errorf("Generate after close err = %v, want ErrClosed", err)
		}
	})
}

func TestInFlightResultIsDiscarded(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gen := &fakeGen{
			qa:    [][]study.QuestionAndAnswer{qaSet("stale", 1), qaSet("fresh", 2)},
			block: make(chan struct{}),
		}
		saver := &fakeSaver{}
		f := flow.NewCharacter(gen, saver, "u1", flow.DefaultSaveDelay, discard())
		defer f.Close()

		errc := make(chan error, 1)
		go func() {
			_, err := f.Generate(context.Background(), "Cassius", study.LevelHighSchool)
			errc <- err
		}()
		synctest.Wait()

		if st := f.State(); st.Phase != flow.PhaseLoading {
			t.Fatalf("phase = %v, want loading", st.Phase)
		}

		st, err := f.Generate(context.Background(), "Portia", study.LevelHighSchool)
		if err != nil {
			t.Fatalf("second Generate: %v", err)
		}
		if err := <-errc; !errors.Is(err, flow.ErrSuperseded) {
			t.Errorf("first Generate err = %v, want ErrSuperseded", err)
		}
		if st.Character != "Portia" || len(st.Questions) != 2 {
			t.Errorf("state = %+v, want Portia with the fresh questions", st)
		}

		time.Sleep(flow.DefaultSaveDelay)
		synctest.Wait()
		saved := saver.saved()
		if len(saved) != 1 || saved[0].(study.CharacterItem).Character != "Portia" {
			t.Errorf("saved = %+v, want only Portia", saved)
		}
	})
}

func TestCloseCancelsInFlightRequest(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gen := &fakeGen{qa: [][]study.QuestionAndAnswer{qaSet("a", 1)}, block: make(chan struct{})}
		f := flow.NewActScene(gen, &fakeSaver{}, "u1", flow.DefaultSaveDelay, discard())

		errc := make(chan error, 1)
		go func() {
			_, err := f.Generate(context.Background(), 2, 1, study.LevelHighSchool)
			errc <- err
		}()
		synctest.Wait()

		f.Close()
		if err := <-errc; !errors.Is(err, flow.ErrSuperseded) {
			t.Errorf("err = %v, want ErrSuperseded", err)
		}
	})
}

func TestInvalidSelectionSkipsGenerator(t *testing.T) {
	gen := &fakeGen{qa: [][]study.QuestionAndAnswer{qaSet("a", 1)}}
	as := flow.NewActScene(gen, &fakeSaver{}, "u1", flow.DefaultSaveDelay, discard())
	defer as.Close()
	ch := flow.NewCharacter(gen, &fakeSaver{}, "u1", flow.DefaultSaveDelay, discard())
	defer ch.Close()

	if _, err := as.Generate(context.Background(), 4, 4, study.LevelHighSchool); !errors.Is(err, flow.ErrInvalidSelection) {
		t.Errorf("act scene err = %v, want ErrInvalidSelection", err)
	}
	if _, err := ch.Generate(context.Background(), "Hamlet", study.LevelHighSchool); !errors.Is(err, flow.ErrInvalidSelection) {
		t.Errorf("character err = %v, want ErrInvalidSelection", err)
	}
	if n := gen.callCount(); n != 0 {
		t.Errorf("generator called %d times", n)
	}
}

func TestToggleAnswer(t *testing.T) {
	gen := &fakeGen{qa: [][]study.QuestionAndAnswer{qaSet("a", 3)}}
	f := flow.NewActScene(gen, &fakeSaver{}, "u1", time.Hour, discard())
	defer f.Close()

	if _, err := f.ToggleAnswer(0); !errors.Is(err, flow.ErrWrongPhase) {
		t.Errorf("toggle before generate err = %v, want ErrWrongPhase", err)
	}

	if _, err := f.Generate(context.Background(), 5, 5, study.LevelMiddleSchool); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	st, err := f.ToggleAnswer(1)
	if err != nil {
		t.Fatalf("ToggleAnswer: %v", err)
	}
	if want := []bool{false, true, false}; !slices.Equal(st.Revealed, want) {
		t.Errorf("revealed = %v, want %v", st.Revealed, want)
	}

	st, _ = f.ToggleAnswer(1)
	if st.Revealed[1] {
		t.Error("second toggle should hide the answer")
	}

	if _, err := f.ToggleAnswer(3); !errors.Is(err, flow.ErrInvalidSelection) {
		t.Errorf("out of range err = %v, want ErrInvalidSelection", err)
	}
}

func TestGenerateClearsPreviousResults(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gen := &fakeGen{qa: [][]study.QuestionAndAnswer{qaSet("a", 2)}}
		f := flow.NewActScene(gen, &fakeSaver{}, "u1", flow.DefaultSaveDelay, discard())
		defer f.Close()

		if _, err := f.Generate(context.Background(), 1, 1, study.LevelHighSchool); err != nil {
			t.Fatalf("Generate: %v", err)
		}

		gen.mu.Lock()
		gen.block = make(chan struct{})
		gen.blocked = false
		gen.mu.Unlock()

		go f.Generate(context.Background(), 1, 2, study.LevelHighSchool)
		synctest.Wait()

		st := f.State()
		if st.Phase != flow.PhaseLoading || len(st.Questions) != 0 || st.Error != "" {
			t.Errorf("loading state = %+v, want cleared", st)
		}
		f.Close()
		synctest.Wait()
	})
}
