// Package content holds the immutable course tree: courses, sections,
// lessons and quiz steps.
package content

// Course is the top-level grouping (e.g. "Flags").
type Course struct {
	ID       string
	Title    string
	Subtitle string
	IconName string
	Color    string // hex, e.g. "FF5A35"
	Sections []Section
}

// Section is an ordered group of lessons inside a course.
type Section struct {
	ID       string
	CourseID string
	Number   int // 1-based
	Title    string
	Lessons  []Lesson
}

// Lesson is the unit of completion and scoring.
type Lesson struct {
	ID        string
	SectionID string
	Order     int // 1-based within the section
	Title     string
	IconName  string
	Steps     []Step
}

// StepKind tags the Step variant.
type StepKind string

const (
	KindMultipleChoice StepKind = "multipleChoice"
	KindMatchPairs     StepKind = "matchPairs"
)

// Step is a tagged union: exactly one of MultipleChoice or MatchPairs is set,
// as indicated by Kind.
type Step struct {
	Kind           StepKind
	MultipleChoice *MultipleChoice
	MatchPairs     *MatchPairs
}

// ID returns the id of the underlying step.
func (s Step) ID() string {
	switch s.Kind {
	case KindMultipleChoice:
		if s.MultipleChoice != nil {
			return s.MultipleChoice.ID
		}
	case KindMatchPairs:
		if s.MatchPairs != nil {
			return s.MatchPairs.ID
		}
	}
	return ""
}

// NewMultipleChoiceStep wraps mc as a Step.
func NewMultipleChoiceStep(mc MultipleChoice) Step {
	return Step{Kind: KindMultipleChoice, MultipleChoice: &mc}
}

// NewMatchPairsStep wraps mp as a Step.
func NewMatchPairsStep(mp MatchPairs) Step {
	return Step{Kind: KindMatchPairs, MatchPairs: &mp}
}

// Variant describes how a multiple-choice prompt and its options are shown.
type Variant string

const (
	VariantFlagToCountry Variant = "flagToCountry"
	VariantCountryToFlag Variant = "countryToFlag"
	VariantTextOnly      Variant = "textOnly"
)

// MultipleChoice is a single-answer question.
type MultipleChoice struct {
	ID              string
	Variant         Variant
	Prompt          string
	PromptImage     string
	Options         []Option
	CorrectOptionID string
}

// Option returns the option with the given id.
func (mc MultipleChoice) Option(id string) (Option, bool) {
	for _, o := range mc.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Option is one answer of a multiple-choice step. Text and Image are both
// optional; at least one is expected.
type Option struct {
	ID    string
	Text  string
	Image string
}

// DisplayText prefers the text and falls back to the image token.
func (o Option) DisplayText() string {
	if o.Text != "" {
		return o.Text
	}
	return o.Image
}

// MatchPairs asks the player to connect every left token with its right token.
type MatchPairs struct {
	ID    string
	Pairs []Pair
}

// Pair is one left/right association, e.g. flag emoji and country name.
type Pair struct {
	ID    string
	Left  string
	Right string
}

// Matches reports whether left and right form one of the step's pairs.
func (mp MatchPairs) Matches(left, right string) bool {
	for _, p := range mp.Pairs {
		if p.Left == left && p.Right == right {
			return true
		}
	}
	return false
}

// LeftTokens returns the left tokens in declaration order.
func (mp MatchPairs) LeftTokens() []string {
	out := make([]string, len(mp.Pairs))
	for i, p := range mp.Pairs {
		out[i] = p.Left
	}
	return out
}

// RightTokens returns the right tokens in declaration order.
func (mp MatchPairs) RightTokens() []string {
	out := make([]string, len(mp.Pairs))
	for i, p := range mp.Pairs {
		out[i] = p.Right
	}
	return out
}
