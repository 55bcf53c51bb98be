package content

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the structural invariants of a set of courses and returns
// every violation joined into one error, or nil.
func Validate(courses []Course) error {
	var errs []error
	courseIDs := map[string]bool{}
	lessonIDs := map[string]string{}

	for _, c := range courses {
		if strings.TrimSpace(c.ID) == "" {
			errs = append(errs, fmt.Errorf("course %q: empty id", c.Title))
			continue
		}
		if courseIDs[c.ID] {
			errs = append(errs, fmt.Errorf("course %s: duplicate id", c.ID))
		}
		courseIDs[c.ID] = true

		numbers := map[int]bool{}
		sectionIDs := map[string]bool{}
		for _, s := range c.Sections {
			if strings.TrimSpace(s.ID) == "" {
				errs = append(errs, fmt.Errorf("course %s: section %d has empty id", c.ID, s.Number))
			} else if sectionIDs[s.ID] {
				errs = append(errs, fmt.Errorf("course %s: duplicate section id %q", c.ID, s.ID))
			}
			sectionIDs[s.ID] = true
			if s.CourseID != c.ID {
				errs = append(errs, fmt.Errorf("section %s: course id %q, want %q", s.ID, s.CourseID, c.ID))
			}
			if numbers[s.Number] {
				errs = append(errs, fmt.Errorf("course %s: duplicate section number %d", c.ID, s.Number))
			}
			numbers[s.Number] = true

			orders := map[int]bool{}
			for _, l := range s.Lessons {
				if strings.TrimSpace(l.ID) == "" {
					errs = append(errs, fmt.Errorf("section %s: lesson with empty id", s.ID))
					continue
				}
				if prev, ok := lessonIDs[l.ID]; ok {
					errs = append(errs, fmt.Errorf("lesson %s: duplicate id (also in course %s)", l.ID, prev))
				}
				lessonIDs[l.ID] = c.ID
				if l.SectionID != s.ID {
					errs = append(errs, fmt.Errorf("lesson %s: section id %q, want %q", l.ID, l.SectionID, s.ID))
				}
				if orders[l.Order] {
					errs = append(errs, fmt.Errorf("section %s: duplicate lesson order %d", s.ID, l.Order))
				}
				orders[l.Order] = true
				for _, st := range l.Steps {
					if err := ValidateStep(st); err != nil {
						errs = append(errs, fmt.Errorf("lesson %s: %w", l.ID, err))
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}

// ValidateStep reports whether st carries a payload matching its kind that a
// lesson can be played through.
func ValidateStep(st Step) error {
	switch st.Kind {
	case KindMultipleChoice:
		mc := st.MultipleChoice
		if mc == nil {
			return fmt.Errorf("multiple-choice step without payload")
		}
		if mc.ID == "" {
			return fmt.Errorf("multiple-choice step with empty id")
		}
		seen := map[string]bool{}
		for _, o := range mc.Options {
			if seen[o.ID] {
				return fmt.Errorf("step %s: duplicate option id %q", mc.ID, o.ID)
			}
			seen[o.ID] = true
		}
		if !seen[mc.CorrectOptionID] {
			return fmt.Errorf("step %s: correct option %q not among options", mc.ID, mc.CorrectOptionID)
		}
		return nil
	case KindMatchPairs:
		mp := st.MatchPairs
		if mp == nil {
			return fmt.Errorf("match-pairs step without payload")
		}
		if mp.ID == "" {
			return fmt.Errorf("match-pairs step with empty id")
		}
		if len(mp.Pairs) == 0 {
			return fmt.Errorf("step %s: no pairs", mp.ID)
		}
		ids, lefts, rights := map[string]bool{}, map[string]bool{}, map[string]bool{}
		for _, p := range mp.Pairs {
			if ids[p.ID] {
				return fmt.Errorf("step %s: duplicate pair id %q", mp.ID, p.ID)
			}
			ids[p.ID] = true
			if lefts[p.Left] || rights[p.Right] {
				return fmt.Errorf("step %s: pair %s repeats a token", mp.ID, p.ID)
			}
			lefts[p.Left] = true
			rights[p.Right] = true
		}
		for tok := range lefts {
			if rights[tok] {
				return fmt.Errorf("step %s: token %q used in both columns", mp.ID, tok)
			}
		}
		return nil
	default:
		return fmt.Errorf("step %s: unknown kind %q", st.ID(), st.Kind)
	}
}
