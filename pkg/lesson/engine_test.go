package lesson

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/japaniel/cleverden/pkg/content"
)

func mcStep(id, correct string) content.Step {
	return content.NewMultipleChoiceStep(content.MultipleChoice{
		ID:      id,
		Variant: content.VariantTextOnly,
		Prompt:  "Which one?",
		Options: []content.Option{
			{ID: "a", Text: "A"},
			{ID: "b", Text: "B"},
			{ID: "c", Text: "C"},
		},
		CorrectOptionID: correct,
	})
}

func matchStep(id string) content.Step {
	return content.NewMatchPairsStep(content.MatchPairs{
		ID: id,
		Pairs: []content.Pair{
			{ID: "p1", Left: "🇫🇷", Right: "France"},
			{ID: "p2", Left: "🇩🇪", Right: "Germany"},
			{ID: "p3", Left: "🇮🇹", Right: "Italy"},
			{ID: "p4", Left: "🇪🇸", Right: "Spain"},
		},
	})
}

func mcLesson(n int) content.Lesson {
	l := content.Lesson{ID: "l", SectionID: "s", Order: 1}
	for i := 0; i < n; i++ {
		l.Steps = append(l.Steps, mcStep(fmt.Sprintf("q%d", i), "a"))
	}
	return l
}

func newEngine(t *testing.T, l content.Lesson, result *int) *Engine {
	t.Helper()
	e, err := New(l, Options{OnComplete: func(errs int) { *result = errs }})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return e
}

// play answers every multiple-choice step, picking a wrong option for the
// step indexes in wrong.
func play(t *testing.T, e *Engine, wrong map[int]bool) Snapshot {
	t.Helper()
	var s Snapshot
	for i := 0; ; i++ {
		pick := "a"
		if wrong[i] {
			pick = "b"
		}
		e.SelectOption(pick)
		s = e.SubmitOption()
		if !s.StepComplete {
			t.Fatalf("step %d did not complete", i)
		}
		s = e.Acknowledge()
		if s.Finished {
			return s
		}
	}
}

func TestEmptyLesson(t *testing.T) {
	if _, err := New(content.Lesson{ID: "empty"}, Options{}); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got %v", err)
	}
}

func TestNewRejectsUnplayableSteps(t *testing.T) {
	cases := []struct {
		name string
		step content.Step
	}{
		{"match without payload", content.Step{Kind: content.KindMatchPairs}},
		{"match without pairs", content.NewMatchPairsStep(content.MatchPairs{ID: "m"})},
		{"choice without payload", content.Step{Kind: content.KindMultipleChoice}},
	}
	for _, tc := range cases {
		// The broken step sits after a valid one so it is only reached on advance.
		l := content.Lesson{ID: "l", Steps: []content.Step{mcStep("q1", "a"), tc.step}}
		e, err := New(l, Options{})
		if !errors.Is(err, ErrInvalidStep) {
			t.Fatalf("%s: expected ErrInvalidStep, got %v", tc.name, err)
		}
		if e != nil {
			t.Fatalf("%s: expected no engine", tc.name)
		}
	}
}

func TestAllCorrectEarnsThreeStars(t *testing.T) {
	got := -1
	e := newEngine(t, mcLesson(6), &got)
	s := play(t, e, nil)
	if s.TotalErrors != 0 || got != 0 {
		t.Fatalf("errors: snapshot=%d callback=%d", s.TotalErrors, got)
	}
	if Stars(got) != 3 {
		t.Fatalf("stars: got %d", Stars(got))
	}
	if s.Progress != 1 {
		t.Fatalf("progress at end: %v", s.Progress)
	}
}

func TestTwoWrongEarnsTwoStars(t *testing.T) {
	got := -1
	e := newEngine(t, mcLesson(6), &got)
	play(t, e, map[int]bool{1: true, 4: true})
	if got != 2 || Stars(got) != 2 {
		t.Fatalf("errors=%d stars=%d", got, Stars(got))
	}
}

func TestStars(t *testing.T) {
	cases := map[int]int{0: 3, 1: 2, 2: 2, 3: 1, 10: 1}
	for errs, want := range cases {
		if got := Stars(errs); got != want {
			t.Fatalf("Stars(%d)=%d, want %d", errs, got, want)
		}
	}
}

func TestSubmitOptionIdempotent(t *testing.T) {
	got := -1
	e := newEngine(t, mcLesson(2), &got)

	if s := e.SubmitOption(); s.StepComplete {
		t.Fatalf("submit without selection should be ignored")
	}
	e.SelectOption("c")
	first := e.SubmitOption()
	second := e.SubmitOption()
	if first.TotalErrors != 1 || second.TotalErrors != 1 {
		t.Fatalf("errors after double submit: %d, %d", first.TotalErrors, second.TotalErrors)
	}
	if second.Feedback != FeedbackIncorrectFinal {
		t.Fatalf("feedback: %s", second.Feedback)
	}
	// Selection is frozen once answered.
	if s := e.SelectOption("a"); s.SelectedOptionID != "c" {
		t.Fatalf("selection changed after submit: %q", s.SelectedOptionID)
	}
	if e.OptionState("a") != OptionCorrect || e.OptionState("c") != OptionWrong || e.OptionState("b") != OptionIdle {
		t.Fatalf("unexpected option states")
	}
}

func TestProgressAndAdvance(t *testing.T) {
	got := -1
	e := newEngine(t, mcLesson(4), &got)

	if s := e.AdvanceToNextStep(); s.StepIndex != 0 {
		t.Fatalf("advanced before completion")
	}
	e.SelectOption("a")
	if e.OptionState("a") != OptionSelected {
		t.Fatalf("selected option not reported")
	}
	s := e.SubmitOption()
	if s.Progress != 0.25 {
		t.Fatalf("progress after first answer: %v", s.Progress)
	}
	s = e.AdvanceToNextStep()
	if s.StepIndex != 1 || s.StepComplete || s.SelectedOptionID != "" || s.Feedback != FeedbackNone {
		t.Fatalf("step not reset on advance: %+v", s)
	}
	if s.Progress != 0.25 {
		t.Fatalf("progress after advance: %v", s.Progress)
	}
}

func TestAdvanceStopsAtLastStep(t *testing.T) {
	got := -1
	e := newEngine(t, mcLesson(1), &got)
	e.SelectOption("a")
	e.SubmitOption()
	if s := e.AdvanceToNextStep(); s.StepIndex != 0 || s.Finished {
		t.Fatalf("advance past last step: %+v", s)
	}
	if got != -1 {
		t.Fatalf("completion reported before acknowledgement")
	}
	if s := e.Acknowledge(); !s.Finished || got != 0 {
		t.Fatalf("acknowledge did not finish: %+v got=%d", s, got)
	}
	// A finished attempt reports only once.
	got = -1
	e.Acknowledge()
	if got != -1 {
		t.Fatalf("completion reported twice")
	}
}

func TestAbandonNeverReports(t *testing.T) {
	got := -1
	e := newEngine(t, mcLesson(1), &got)
	e.SelectOption("a")
	e.SubmitOption()
	e.Abandon()
	if s := e.Acknowledge(); s.Finished || !s.Abandoned {
		t.Fatalf("abandoned attempt finished: %+v", s)
	}
	if got != -1 {
		t.Fatalf("abandoned attempt reported %d", got)
	}
}

func matchLesson() content.Lesson {
	return content.Lesson{ID: "m", Steps: []content.Step{matchStep("m1"), mcStep("q1", "a")}}
}

func TestMatchAllPairsCorrect(t *testing.T) {
	got := -1
	e := newEngine(t, matchLesson(), &got)
	pairs := e.Snapshot().Step.MatchPairs.Pairs

	var s Snapshot
	for i, p := range pairs {
		// Alternate the starting column.
		if i%2 == 0 {
			e.SelectMatchItem(ColumnLeft, p.Left)
			if e.MatchItemState(ColumnLeft, p.Left) != ItemSelected {
				t.Fatalf("pending left not selected")
			}
			s = e.SelectMatchItem(ColumnRight, p.Right)
		} else {
			e.SelectMatchItem(ColumnRight, p.Right)
			s = e.SelectMatchItem(ColumnLeft, p.Left)
		}
		if e.MatchItemState(ColumnLeft, p.Left) != ItemMatched {
			t.Fatalf("pair %s not matched", p.ID)
		}
	}
	if !s.StepComplete || s.Feedback != FeedbackCorrect {
		t.Fatalf("step not complete: %+v", s)
	}
	if len(s.Matched) != 8 {
		t.Fatalf("matched ids: %d", len(s.Matched))
	}
	if s.TotalErrors != 0 || s.MatchErrors != 0 {
		t.Fatalf("unexpected errors: %d/%d", s.TotalErrors, s.MatchErrors)
	}
	if s.Progress != 0.5 {
		t.Fatalf("progress: %v", s.Progress)
	}
}

func TestMatchThreeWrongFailsStep(t *testing.T) {
	got := -1
	e := newEngine(t, matchLesson(), &got)

	e.SelectMatchItem(ColumnLeft, "🇫🇷")
	e.SelectMatchItem(ColumnRight, "France")

	wrong := [][2]string{{"🇩🇪", "Italy"}, {"🇮🇹", "Spain"}, {"🇪🇸", "Germany"}}
	var s Snapshot
	for i, w := range wrong {
		e.SelectMatchItem(ColumnLeft, w[0])
		s = e.SelectMatchItem(ColumnRight, w[1])
		if i < len(wrong)-1 {
			if s.Feedback != FeedbackIncorrectRetry || s.StepComplete {
				t.Fatalf("attempt %d: %+v", i, s)
			}
			if e.MatchItemState(ColumnLeft, w[0]) != ItemWrong || e.MatchItemState(ColumnRight, w[1]) != ItemWrong {
				t.Fatalf("attempt %d: wrong items not highlighted", i)
			}
			if i == 0 {
				s = e.RetryAfterIncorrect()
			} else {
				s = e.Acknowledge()
			}
			if s.Feedback != FeedbackNone || s.WrongLeft != "" || s.StepComplete {
				t.Fatalf("retry did not clear: %+v", s)
			}
		}
	}
	if !s.StepComplete || s.Feedback != FeedbackIncorrectFinal {
		t.Fatalf("step not force-completed: %+v", s)
	}
	if s.MatchErrors != MaxMatchErrors || s.TotalErrors != 3 {
		t.Fatalf("errors: match=%d total=%d", s.MatchErrors, s.TotalErrors)
	}
	// Earlier correct match survives the retries.
	if e.MatchItemState(ColumnRight, "France") != ItemMatched {
		t.Fatalf("matched pair lost")
	}
	if len(s.Matched) != 2 {
		t.Fatalf("matched: %v", s.Matched)
	}

	// Acknowledge on a failed step advances like the continue button.
	s = e.Acknowledge()
	if s.StepIndex != 1 {
		t.Fatalf("acknowledge did not advance: %d", s.StepIndex)
	}
	// Match errors reset for the next step but total errors carry over.
	if s.MatchErrors != 0 || s.TotalErrors != 3 {
		t.Fatalf("after advance: %+v", s)
	}
	e.SelectOption("a")
	e.SubmitOption()
	e.Acknowledge()
	if got != 3 || Stars(got) != 1 {
		t.Fatalf("completion: errors=%d", got)
	}
}

func TestMatchSelectionRules(t *testing.T) {
	got := -1
	e := newEngine(t, matchLesson(), &got)

	// Unknown token and wrong-column token are ignored.
	if s := e.SelectMatchItem(ColumnLeft, "France"); s.SelectedLeft != "" {
		t.Fatalf("right token accepted in left column")
	}
	if s := e.SelectMatchItem(ColumnRight, "Atlantis"); s.SelectedRight != "" {
		t.Fatalf("unknown token accepted")
	}
	// Same column replaces, same token toggles off.
	e.SelectMatchItem(ColumnLeft, "🇫🇷")
	if s := e.SelectMatchItem(ColumnLeft, "🇩🇪"); s.SelectedLeft != "🇩🇪" {
		t.Fatalf("same-column selection not replaced: %q", s.SelectedLeft)
	}
	if s := e.SelectMatchItem(ColumnLeft, "🇩🇪"); s.SelectedLeft != "" {
		t.Fatalf("reselect did not toggle off")
	}

	// A wrong attempt; the next selection clears the highlight and the banner.
	e.SelectMatchItem(ColumnLeft, "🇫🇷")
	e.SelectMatchItem(ColumnRight, "Spain")
	s := e.SelectMatchItem(ColumnLeft, "🇫🇷")
	if s.WrongLeft != "" || s.WrongRight != "" || s.Feedback != FeedbackNone {
		t.Fatalf("wrong state not cleared: %+v", s)
	}
	e.SelectMatchItem(ColumnRight, "France")
	// Matched tokens can no longer be selected.
	if s := e.SelectMatchItem(ColumnLeft, "🇫🇷"); s.SelectedLeft != "" {
		t.Fatalf("matched token selectable")
	}
	// Multiple-choice commands do nothing on a match step.
	if s := e.SelectOption("a"); s.SelectedOptionID != "" {
		t.Fatalf("option accepted on match step")
	}
	if e.RetryAfterIncorrect().Feedback != FeedbackNone {
		t.Fatalf("retry without incorrect feedback changed state")
	}
}

func TestMatchShuffleDeterministic(t *testing.T) {
	got := -1
	a := newEngine(t, matchLesson(), &got).Snapshot()
	b := newEngine(t, matchLesson(), &got).Snapshot()
	if !reflect.DeepEqual(a.LeftOrder, b.LeftOrder) || !reflect.DeepEqual(a.RightOrder, b.RightOrder) {
		t.Fatalf("layout differs between attempts: %v/%v vs %v/%v", a.LeftOrder, a.RightOrder, b.LeftOrder, b.RightOrder)
	}
	if len(a.LeftOrder) != 4 || len(a.RightOrder) != 4 {
		t.Fatalf("orders incomplete: %v %v", a.LeftOrder, a.RightOrder)
	}
	if a.AttemptID == b.AttemptID {
		t.Fatalf("attempt ids should be unique")
	}
}
