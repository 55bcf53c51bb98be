package content

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Format selects the course file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// courseDoc and friends mirror the bundled course files. They are converted
// into the model types so the model carries no encoding concerns.
type courseDoc struct {
	ID       string       `json:"id" yaml:"id"`
	Title    string       `json:"title" yaml:"title"`
	Subtitle string       `json:"subtitle" yaml:"subtitle"`
	IconName string       `json:"iconName" yaml:"iconName"`
	Color    string       `json:"color" yaml:"color"`
	Sections []sectionDoc `json:"sections" yaml:"sections"`
}

type sectionDoc struct {
	ID      string      `json:"id" yaml:"id"`
	Number  int         `json:"number" yaml:"number"`
	Title   string      `json:"title" yaml:"title"`
	Lessons []lessonDoc `json:"lessons" yaml:"lessons"`
}

type lessonDoc struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Order    int       `json:"order" yaml:"order"`
	IconName string    `json:"iconName" yaml:"iconName"`
	Steps    []stepDoc `json:"steps" yaml:"steps"`
}

type stepDoc struct {
	Type            string      `json:"type" yaml:"type"`
	ID              string      `json:"id" yaml:"id"`
	Variant         string      `json:"variant,omitempty" yaml:"variant,omitempty"`
	Prompt          string      `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	PromptImage     string      `json:"promptImage,omitempty" yaml:"promptImage,omitempty"`
	Options         []optionDoc `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectOptionID string      `json:"correctOptionId,omitempty" yaml:"correctOptionId,omitempty"`
	Pairs           []pairDoc   `json:"pairs,omitempty" yaml:"pairs,omitempty"`
}

type optionDoc struct {
	ID    string `json:"id" yaml:"id"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

type pairDoc struct {
	ID    string `json:"id" yaml:"id"`
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

// Parse decodes one course file. Back references (Section.CourseID,
// Lesson.SectionID) are filled in from the enclosing elements.
func Parse(data []byte, format Format) (Course, error) {
	var doc courseDoc
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
			return Course{}, fmt.Errorf("decode course json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Course{}, fmt.Errorf("decode course yaml: %w", err)
		}
	default:
		return Course{}, fmt.Errorf("unknown course format %d", format)
	}
	return doc.toCourse()
}

func (d courseDoc) toCourse() (Course, error) {
	c := Course{
		ID:       d.ID,
		Title:    d.Title,
		Subtitle: d.Subtitle,
		IconName: d.IconName,
		Color:    d.Color,
		Sections: make([]Section, 0, len(d.Sections)),
	}
	for _, sd := range d.Sections {
		s := Section{
			ID:       sd.ID,
			CourseID: d.ID,
			Number:   sd.Number,
			Title:    sd.Title,
			Lessons:  make([]Lesson, 0, len(sd.Lessons)),
		}
		for _, ld := range sd.Lessons {
			l := Lesson{
				ID:        ld.ID,
				SectionID: sd.ID,
				Order:     ld.Order,
				Title:     ld.Title,
				IconName:  ld.IconName,
				Steps:     make([]Step, 0, len(ld.Steps)),
			}
			for _, std := range ld.Steps {
				step, err := std.toStep()
				if err != nil {
					return Course{}, fmt.Errorf("lesson %s: %w", ld.ID, err)
				}
				l.Steps = append(l.Steps, step)
			}
			s.Lessons = append(s.Lessons, l)
		}
		c.Sections = append(c.Sections, s)
	}
	return c, nil
}

func (d stepDoc) toStep() (Step, error) {
	switch StepKind(d.Type) {
	case KindMultipleChoice:
		mc := MultipleChoice{
			ID:              d.ID,
			Variant:         Variant(d.Variant),
			Prompt:          d.Prompt,
			PromptImage:     d.PromptImage,
			CorrectOptionID: d.CorrectOptionID,
			Options:         make([]Option, 0, len(d.Options)),
		}
		if mc.Variant == "" {
			mc.Variant = VariantTextOnly
		}
		for _, o := range d.Options {
			mc.Options = append(mc.Options, Option{ID: o.ID, Text: o.Text, Image: o.Image})
		}
		return NewMultipleChoiceStep(mc), nil
	case KindMatchPairs:
		mp := MatchPairs{ID: d.ID, Pairs: make([]Pair, 0, len(d.Pairs))}
		for _, p := range d.Pairs {
			mp.Pairs = append(mp.Pairs, Pair{ID: p.ID, Left: p.Left, Right: p.Right})
		}
		return NewMatchPairsStep(mp), nil
	default:
		return Step{}, fmt.Errorf("step %s: unknown step type %q", d.ID, d.Type)
	}
}
