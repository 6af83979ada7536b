package flow_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"testing/synctest"

	"github.com/kingbrown/caesarstudy/internal/flow"
	"github.com/kingbrown/caesarstudy/internal/generator"
	"github.com/kingbrown/caesarstudy/internal/study"
)

func tenQuestions() []study.QuizQuestion {
	qs := make([]study.QuizQuestion, 10)
	for i := range qs {
		qs[i] = study.QuizQuestion{
			Question: fmt.Sprintf("Question %d", i+1),
			Options:  []string{"a) one", "b) two", "c) three", "d) four"},
			Answer:   "b) two",
		}
	}
	return qs
}

// Answering questions 1, 3, 5, 7 and 9 correctly scores 5/10, persisted once.
func TestQuizScoring(t *testing.T) {
	saver := &fakeSaver{}
	q := flow.NewQuiz(&fakeGen{quiz: tenQuestions()}, saver, "u1", discard())
	defer q.Close()
	ctx := context.Background()

	st, err := q.Start(ctx, study.LevelHighSchool)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st.Phase != flow.PhaseReady || st.Index != 0 || st.Total != 10 {
		t.Fatalf("state = %+v", st)
	}
	if st.Answer != "" {
		t.Error("answer visible before submission")
	}

	for i := range 10 {
		option := "a) one"
		if i%2 == 0 {
			option = "b) two"
		}
		if _, err := q.Select(option); err != nil {
			t.Fatalf("question %d Select: %v", i+1, err)
		}
		st, err = q.Submit(ctx)
		if err != nil {
			t.Fatalf("question %d Submit: %v", i+1, err)
		}
		if st.Phase != flow.PhaseFeedback {
			t.Fatalf("question %d phase = %v, want feedback", i+1, st.Phase)
		}

		if i < 9 && len(saver.saved()) != 0 {
			t.Fatalf("saved before the final question")
		}

		st, err = q.Next()
		if err != nil {
			t.Fatalf("question %d Next: %v", i+1, err)
		}
	}

	if st.Phase != flow.PhaseFinished || st.Score != 5 {
		t.Errorf("final = %v score %d, want finished 5", st.Phase, st.Score)
	}

	saved := saver.saved()
	if len(saved) != 1 {
		t.Fatalf("saved %d items, want 1", len(saved))
	}
	item, ok := saved[0].(study.QuizItem)
	if !ok {
		t.Fatalf("saved %T, want QuizItem", saved[0])
	}
	if item.Score != 5 || item.TotalQuestions != 10 || len(item.Questions) != 10 {
		t.Errorf("quiz item = score %d total %d questions %d", item.Score, item.TotalQuestions, len(item.Questions))
	}
	if got := saver.lastScores(); len(got) != 1 || got[0] != "5/10" {
		t.Errorf("last scores = %v, want [5/10]", got)
	}

	if _, err := q.Submit(ctx); !errors.Is(err, flow.ErrWrongPhase) {
		t.Errorf("Submit after finish err = %v, want ErrWrongPhase", err)
	}
	if got := len(saver.saved()); got != 1 {
		t.Errorf("saved %d items after extra calls, want 1", got)
	}
}

func TestQuizFeedback(t *testing.T) {
	q := flow.NewQuiz(&fakeGen{quiz: tenQuestions()}, &fakeSaver{}, "u1", discard())
	defer q.Close()
	ctx := context.Background()

	if _, err := q.Start(ctx, study.LevelHighSchool); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := q.Select("c) three"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	st, err := q.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if st.Answer != "b) two" || st.Score != 0 {
		t.Errorf("answer %q score %d", st.Answer, st.Score)
	}
	want := []flow.OptionFeedback{
		{Option: "a) one"},
		{Option: "b) two", Correct: true},
		{Option: "c) three", SelectedWrong: true},
		{Option: "d) four"},
	}
	for i, fb := range st.Feedback {
		if fb != want[i] {
			t.Errorf("feedback[%d] = %+v, want %+v", i, fb, want[i])
		}
	}
}

func TestQuizActionGuards(t *testing.T) {
	q := flow.NewQuiz(&fakeGen{quiz: tenQuestions()}, &fakeSaver{}, "u1", discard())
	defer q.Close()
	ctx := context.Background()

	if _, err := q.Select("a) one"); !errors.Is(err, flow.ErrWrongPhase) {
		t.Errorf("Select while idle err = %v, want ErrWrongPhase", err)
	}
	if _, err := q.Start(ctx, study.LevelHighSchool); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := q.Submit(ctx); !errors.Is(err, flow.ErrNoSelection) {
		t.Errorf("Submit without selection err = %v, want ErrNoSelection", err)
	}
	if _, err := q.Select("e) five"); !errors.Is(err, flow.ErrInvalidSelection) {
		t.Errorf("Select unknown option err = %v, want ErrInvalidSelection", err)
	}
	if _, err := q.Next(); !errors.Is(err, flow.ErrWrongPhase) {
		t.Errorf("Next before submit err = %v, want ErrWrongPhase", err)
	}
}

func TestQuizRestartResetsScore(t *testing.T) {
	saver := &fakeSaver{}
	q := flow.NewQuiz(&fakeGen{quiz: tenQuestions()[:1]}, saver, "u1", discard())
	defer q.Close()
	ctx := context.Background()

	for range 2 {
		if _, err := q.Start(ctx, study.LevelAPCollege); err != nil {
			t.Fatalf("Start: %v", err)
		}
		q.Select("b) two")
		st, err := q.Submit(ctx)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if st.Score != 1 {
			t.Errorf("score = %d, want 1", st.Score)
		}
	}

	if got := len(saver.saved()); got != 2 {
		t.Errorf("saved %d quizzes, want one per attempt", got)
	}
	if got := saver.saved()[1].Meta().Level; got != study.LevelAPCollege {
		t.Errorf("level = %v, want AP / College", got)
	}
}

// Quiz items that fail validation never reach the screen.
func TestQuizRejectsMalformedQuestions(t *testing.T) {
	model := &stubModel{reply: `[{"question":"Q","options":["a) x","b) y","c) z"],"answer":"a) x"}]`}
	adapter := generator.NewAdapter(model, slog.New(slog.NewTextHandler(io.Discard, nil)))
	q := flow.NewQuiz(adapter, &fakeSaver{}, "u1", discard())
	defer q.Close()

	st, err := q.Start(context.Background(), study.LevelHighSchool)
	if err == nil {
		t.Fatal("expected error")
	}
	if st.Phase != flow.PhaseError || st.Question != nil || st.Total != 0 {
		t.Errorf("state = %+v, want error with no question", st)
	}
	if st.Error != generator.FailureMessage {
		t.Errorf("error = %q", st.Error)
	}
}

func TestQuizEmptyResultIsError(t *testing.T) {
	q := flow.NewQuiz(&fakeGen{}, &fakeSaver{}, "u1", discard())
	defer q.Close()

	st, err := q.Start(context.Background(), study.LevelHighSchool)
	if err == nil || st.Phase != flow.PhaseError {
		t.Errorf("Start = (%v, %v), want error phase", st.Phase, err)
	}
}

func TestQuizCloseDuringLoading(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := flow.NewQuiz(&fakeGen{quiz: tenQuestions(), block: make(chan struct{})}, &fakeSaver{}, "u1", discard())

		errc := make(chan error, 1)
		go func() {
			_, err := q.Start(context.Background(), study.LevelHighSchool)
			errc <- err
		}()
		synctest.Wait()

		if st := q.State(); st.Phase != flow.PhaseLoading {
			t.Fatalf("phase = %v, want loading", st.Phase)
		}
		q.Close()

		if err := <-errc; !errors.Is(err, flow.ErrSuperseded) {
			t.Errorf("err = %v, want ErrSuperseded", err)
		}
		if _, err := q.Start(context.Background(), study.LevelHighSchool); !errors.Is(err, flow.ErrClosed) {
			t.Errorf("Start after close err = %v, want ErrClosed", err)
		}
	})
}

type stubModel struct{ reply string }

func (m *stubModel) Generate(context.Context, string, generator.Shape) (string, error) {
	return m.reply, nil
}
