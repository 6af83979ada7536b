package navigator_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/kingbrown/caesarstudy/internal/navigator"
	"github.com/kingbrown/caesarstudy/internal/study"
)

func TestInitialState(t *testing.T) {
	n := navigator.New()

	if got := n.Stack(); !slices.Equal(got, []study.View{study.ViewMenu}) {
		t.Errorf("stack = %v, want [menu]", got)
	}
	if n.Level() != study.LevelHighSchool {
		t.Errorf("level = %v, want High School", n.Level())
	}
}

func TestNavigateToAndBack(t *testing.T) {
	n := navigator.New()
	n.NavigateTo(study.ViewQuiz)
	n.NavigateTo(study.ViewScore)

	if n.Current() != study.ViewScore {
		t.Fatalf("current = %v, want score", n.Current())
	}

	popped, ok := n.NavigateBack()
	if !ok || popped != study.ViewScore {
		t.Errorf("NavigateBack = (%v, %v), want (score, true)", popped, ok)
	}
	if n.Current() != study.ViewQuiz {
		t.Errorf("current = %v, want quiz", n.Current())
	}
}

func TestNavigateBackAtRoot(t *testing.T) {
	n := navigator.New()

	if _, ok := n.NavigateBack(); ok {
		t.Error("NavigateBack on root should be a no-op")
	}
	if got := n.Stack(); !slices.Equal(got, []study.View{study.ViewMenu}) {
		t.Errorf("stack = %v, want [menu]", got)
	}
}

func TestNoDeduplication(t *testing.T) {
	n := navigator.New()
	n.NavigateTo(study.ViewHistory)
	n.NavigateTo(study.ViewHistory)

	want := []study.View{study.ViewMenu, study.ViewHistory, study.ViewHistory}
	if got := n.Stack(); !slices.Equal(got, want) {
		t.Errorf("stack = %v, want %v", got, want)
	}
}

func TestReset(t *testing.T) {
	n := navigator.New()
	n.NavigateTo(study.ViewCharacter)
	n.NavigateTo(study.ViewDoubtSolver)
	n.Reset()

	if got := n.Stack(); !slices.Equal(got, []study.View{study.ViewMenu}) {
		t.Errorf("stack = %v, want [menu]", got)
	}
}

func TestSetLevelLeavesStack(t *testing.T) {
	n := navigator.New()
	n.NavigateTo(study.ViewActScene)
	n.SetLevel(study.LevelAPCollege)

	if n.Level() != study.LevelAPCollege {
		t.Errorf("level = %v, want AP / College", n.Level())
	}
	if n.Current() != study.ViewActScene {
		t.Errorf("current = %v, want act-scene", n.Current())
	}
}

func TestStackIsCopy(t *testing.T) {
	n := navigator.New()
	s := n.Stack()
	s[0] = study.ViewQuiz

	if n.Current() != study.ViewMenu {
		t.Error("mutating the returned stack changed the navigator")
	}
}

// A random sequence of operations must leave the stack matching a simple
// model and never empty.
func TestRandomSequence(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	views := []study.View{
		study.ViewActScene, study.ViewCharacter, study.ViewQuiz,
		study.ViewScore, study.ViewHistory, study.ViewDoubtSolver,
	}

	n := navigator.New()
	model := []study.View{study.ViewMenu}

	for i := range 2000 {
		switch rng.IntN(4) {
		case 0, 1:
			v := views[rng.IntN(len(views))]
			n.NavigateTo(v)
			model = append(model, v)
		case 2:
			n.NavigateBack()
			if len(model) > 1 {
				model = model[:len(model)-1]
			}
		case 3:
			if rng.IntN(10) == 0 {
				n.Reset()
				model = []study.View{study.ViewMenu}
			}
		}

		got := n.Stack()
		if len(got) == 0 {
			t.Fatalf("step %d: stack empty", i)
		}
		if !slices.Equal(got, model) {
			t.Fatalf("step %d: stack = %v, want %v", i, got, model)
		}
	}
}
