// Package lesson drives a single lesson attempt through its steps.
package lesson

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/japaniel/cleverden/pkg/content"
	"github.com/japaniel/cleverden/pkg/logger"
	"github.com/japaniel/cleverden/pkg/shuffle"
)

// MaxMatchErrors is the number of wrong match attempts after which a
// match-pairs step is failed.
const MaxMatchErrors = 3

var (
	ErrNoSteps     = errors.New("lesson has no steps")
	ErrInvalidStep = errors.New("invalid lesson step")
)

// Options configures an Engine.
type Options struct {
	// OnComplete receives the attempt's error count once the last step has
	// been acknowledged. It is never called for an abandoned attempt.
	OnComplete func(errors int)
	Logger     *logger.Logger
}

// Snapshot is an immutable view of the engine state.
type Snapshot struct {
	AttemptID    string
	LessonID     string
	StepIndex    int
	TotalSteps   int
	Step         content.Step
	TotalErrors  int
	StepComplete bool
	Feedback     Feedback

	// Multiple choice.
	SelectedOptionID string

	// Match pairs.
	SelectedLeft  string
	SelectedRight string
	Matched       []string
	WrongLeft     string
	WrongRight    string
	MatchErrors   int
	LeftOrder     []string
	RightOrder    []string

	Progress  float64
	Finished  bool
	Abandoned bool
}

// IsLastStep reports whether the snapshot is on the final step.
func (s Snapshot) IsLastStep() bool {
	return s.StepIndex >= s.TotalSteps-1
}

// Engine is the state machine of one lesson attempt. Commands that are not
// valid in the current state are ignored. An Engine is not safe for
// concurrent use.
type Engine struct {
	lesson     content.Lesson
	attemptID  string
	onComplete func(int)
	log        *logger.Logger

	stepIndex    int
	totalErrors  int
	stepComplete bool
	feedback     Feedback

	selectedOption string

	selectedLeft  string
	selectedRight string
	matched       map[string]bool
	wrongLeft     string
	wrongRight    string
	matchErrors   int
	leftOrder     []string
	rightOrder    []string

	finished  bool
	abandoned bool
}

// New starts an attempt of l. A lesson without steps yields ErrNoSteps; a
// step that cannot be played yields ErrInvalidStep.
func New(l content.Lesson, opts Options) (*Engine, error) {
	if len(l.Steps) == 0 {
		return nil, ErrNoSteps
	}
	for i, st := range l.Steps {
		if err := content.ValidateStep(st); err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrInvalidStep, i, err)
		}
	}
	e := &Engine{
		lesson:     l,
		attemptID:  uuid.NewString(),
		onComplete: opts.OnComplete,
	}
	e.log = logger.OrNop(opts.Logger).With("lesson_id", l.ID, "attempt_id", e.attemptID)
	e.resetStep()
	e.log.Debug("lesson attempt started", "steps", len(l.Steps))
	return e, nil
}

func (e *Engine) step() content.Step {
	return e.lesson.Steps[e.stepIndex]
}

func (e *Engine) active() bool {
	return !e.finished && !e.abandoned
}

func (e *Engine) resetStep() {
	e.stepComplete = false
	e.feedback = FeedbackNone
	e.selectedOption = ""
	e.selectedLeft, e.selectedRight = "", ""
	e.wrongLeft, e.wrongRight = "", ""
	e.matched = map[string]bool{}
	e.matchErrors = 0
	e.leftOrder, e.rightOrder = nil, nil

	st := e.step()
	switch st.Kind {
	case content.KindMatchPairs:
		seed := shuffle.Seed(st.MatchPairs.ID)
		e.leftOrder = shuffle.Seeded(seed, st.MatchPairs.LeftTokens())
		e.rightOrder = shuffle.Seeded(seed+1, st.MatchPairs.RightTokens())
	case content.KindMultipleChoice:
	}
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		AttemptID:        e.attemptID,
		LessonID:         e.lesson.ID,
		StepIndex:        e.stepIndex,
		TotalSteps:       len(e.lesson.Steps),
		Step:             e.step(),
		TotalErrors:      e.totalErrors,
		StepComplete:     e.stepComplete,
		Feedback:         e.feedback,
		SelectedOptionID: e.selectedOption,
		SelectedLeft:     e.selectedLeft,
		SelectedRight:    e.selectedRight,
		WrongLeft:        e.wrongLeft,
		WrongRight:       e.wrongRight,
		MatchErrors:      e.matchErrors,
		LeftOrder:        append([]string(nil), e.leftOrder...),
		RightOrder:       append([]string(nil), e.rightOrder...),
		Progress:         e.Progress(),
		Finished:         e.finished,
		Abandoned:        e.abandoned,
	}
	for _, tok := range e.leftOrder {
		if e.matched[tok] {
			s.Matched = append(s.Matched, tok)
		}
	}
	for _, tok := range e.rightOrder {
		if e.matched[tok] {
			s.Matched = append(s.Matched, tok)
		}
	}
	return s
}

// Progress is stepsCompleted / totalSteps, counting the current step once
// it is complete.
func (e *Engine) Progress() float64 {
	done := e.stepIndex
	if e.stepComplete {
		done++
	}
	return float64(done) / float64(len(e.lesson.Steps))
}

// SelectOption records a multiple-choice pick.
func (e *Engine) SelectOption(optionID string) Snapshot {
	st := e.step()
	if !e.active() || e.stepComplete || st.Kind != content.KindMultipleChoice {
		return e.Snapshot()
	}
	if _, ok := st.MultipleChoice.Option(optionID); !ok {
		return e.Snapshot()
	}
	e.selectedOption = optionID
	return e.Snapshot()
}

// SubmitOption grades the selected option. Multiple choice never offers a retry.
func (e *Engine) SubmitOption() Snapshot {
	st := e.step()
	if !e.active() || e.stepComplete || st.Kind != content.KindMultipleChoice || e.selectedOption == "" {
		return e.Snapshot()
	}
	e.stepComplete = true
	if e.selectedOption == st.MultipleChoice.CorrectOptionID {
		e.feedback = FeedbackCorrect
	} else {
		e.totalErrors++
		e.feedback = FeedbackIncorrectFinal
	}
	e.log.Debug("option submitted", "step_id", st.ID(), "option_id", e.selectedOption, "feedback", e.feedback.String())
	return e.Snapshot()
}

// OptionState reports how optionID of the current multiple-choice step
// should be shown.
func (e *Engine) OptionState(optionID string) OptionState {
	st := e.step()
	if st.Kind != content.KindMultipleChoice {
		return OptionIdle
	}
	if !e.stepComplete {
		if optionID == e.selectedOption {
			return OptionSelected
		}
		return OptionIdle
	}
	switch {
	case optionID == st.MultipleChoice.CorrectOptionID:
		return OptionCorrect
	case optionID == e.selectedOption:
		return OptionWrong
	}
	return OptionIdle
}

func hasToken(tokens []string, tok string) bool {
	for _, t := range tokens {
		if t == tok {
			return true
		}
	}
	return false
}

// SelectMatchItem selects token in column, attempting a match when the other
// column already has a pending selection. Selecting the pending token again
// deselects it; selecting another token of the same column replaces it.
func (e *Engine) SelectMatchItem(column Column, token string) Snapshot {
	st := e.step()
	if !e.active() || e.stepComplete || st.Kind != content.KindMatchPairs || e.matched[token] {
		return e.Snapshot()
	}
	mp := st.MatchPairs
	var own, other *string
	switch column {
	case ColumnLeft:
		if !hasToken(e.leftOrder, token) {
			return e.Snapshot()
		}
		own, other = &e.selectedLeft, &e.selectedRight
	case ColumnRight:
		if !hasToken(e.rightOrder, token) {
			return e.Snapshot()
		}
		own, other = &e.selectedRight, &e.selectedLeft
	default:
		return e.Snapshot()
	}

	e.wrongLeft, e.wrongRight = "", ""
	if e.feedback == FeedbackIncorrectRetry {
		e.feedback = FeedbackNone
	}

	if *other == "" {
		if *own == token {
			*own = ""
		} else {
			*own = token
		}
		return e.Snapshot()
	}

	*own = token
	left, right := e.selectedLeft, e.selectedRight
	e.selectedLeft, e.selectedRight = "", ""

	if mp.Matches(left, right) {
		e.matched[left] = true
		e.matched[right] = true
		if len(e.matched) == 2*len(mp.Pairs) {
			e.stepComplete = true
			e.feedback = FeedbackCorrect
		}
		return e.Snapshot()
	}

	e.totalErrors++
	e.matchErrors++
	e.wrongLeft, e.wrongRight = left, right
	if e.matchErrors >= MaxMatchErrors {
		e.stepComplete = true
		e.feedback = FeedbackIncorrectFinal
	} else {
		e.feedback = FeedbackIncorrectRetry
	}
	e.log.Debug("wrong match", "step_id", mp.ID, "left", left, "right", right, "match_errors", e.matchErrors)
	return e.Snapshot()
}

// MatchItemState reports how token in column should be shown.
func (e *Engine) MatchItemState(column Column, token string) ItemState {
	if e.step().Kind != content.KindMatchPairs {
		return ItemIdle
	}
	if e.matched[token] {
		return ItemMatched
	}
	wrong, selected := e.wrongLeft, e.selectedLeft
	if column == ColumnRight {
		wrong, selected = e.wrongRight, e.selectedRight
	}
	switch {
	case wrong != "" && token == wrong:
		return ItemWrong
	case selected != "" && token == selected:
		return ItemSelected
	}
	return ItemIdle
}

// RetryAfterIncorrect dismisses an IncorrectRetry banner. Matched pairs stay
// matched.
func (e *Engine) RetryAfterIncorrect() Snapshot {
	if !e.active() || e.feedback != FeedbackIncorrectRetry {
		return e.Snapshot()
	}
	e.feedback = FeedbackNone
	e.wrongLeft, e.wrongRight = "", ""
	e.selectedLeft, e.selectedRight = "", ""
	return e.Snapshot()
}

// AdvanceToNextStep moves past a completed step that is not the last one.
func (e *Engine) AdvanceToNextStep() Snapshot {
	if !e.active() || !e.stepComplete || e.stepIndex >= len(e.lesson.Steps)-1 {
		return e.Snapshot()
	}
	e.stepIndex++
	e.resetStep()
	return e.Snapshot()
}

// Acknowledge is the continue button: it dismisses an IncorrectRetry banner,
// advances past a completed step, or on the last step finishes the attempt
// and reports the error count.
func (e *Engine) Acknowledge() Snapshot {
	if e.active() && e.feedback == FeedbackIncorrectRetry {
		return e.RetryAfterIncorrect()
	}
	if !e.active() || !e.stepComplete {
		return e.Snapshot()
	}
	if e.stepIndex < len(e.lesson.Steps)-1 {
		return e.AdvanceToNextStep()
	}
	e.finished = true
	e.log.Info("lesson attempt finished", "errors", e.totalErrors, "stars", Stars(e.totalErrors))
	if e.onComplete != nil {
		e.onComplete(e.totalErrors)
	}
	return e.Snapshot()
}

// Abandon ends the attempt without reporting completion.
func (e *Engine) Abandon() Snapshot {
	if !e.active() {
		return e.Snapshot()
	}
	e.abandoned = true
	e.log.Info("lesson attempt abandoned", "step_index", e.stepIndex, "errors", e.totalErrors)
	return e.Snapshot()
}
