package lesson

import "fmt"

// Feedback is the result banner shown for the current step.
type Feedback int

const (
	FeedbackNone Feedback = iota
	FeedbackCorrect
	// FeedbackIncorrectRetry offers "try again" without completing the step.
	FeedbackIncorrectRetry
	// FeedbackIncorrectFinal completes the step as failed.
	FeedbackIncorrectFinal
)

func (f Feedback) String() string {
	switch f {
	case FeedbackNone:
		return "none"
	case FeedbackCorrect:
		return "correct"
	case FeedbackIncorrectRetry:
		return "incorrectRetry"
	case FeedbackIncorrectFinal:
		return "incorrectFinal"
	}
	return fmt.Sprintf("Feedback(%d)", int(f))
}

// Column identifies a side of a match-pairs board.
type Column int

const (
	ColumnLeft Column = iota
	ColumnRight
)

func (c Column) String() string {
	if c == ColumnLeft {
		return "left"
	}
	return "right"
}

// ItemState is the display state of a match-pairs token.
type ItemState int

const (
	ItemIdle ItemState = iota
	ItemSelected
	ItemMatched
	ItemWrong
)

// OptionState is the display state of a multiple-choice option.
type OptionState int

const (
	OptionIdle OptionState = iota
	OptionSelected
	// OptionCorrect marks the correct option once the step is answered.
	OptionCorrect
	// OptionWrong marks the learner's incorrect pick once the step is answered.
	OptionWrong
)

// Stars maps a lesson's error count to its reward.
func Stars(errors int) int {
	switch {
	case errors <= 0:
		return 3
	case errors <= 2:
		return 2
	default:
		return 1
	}
}
