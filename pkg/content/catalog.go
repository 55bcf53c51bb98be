package content

import (
	"errors"
	"sort"
)

// ErrUnknownCourse and ErrUnknownLesson are returned by lookups that miss.
var (
	ErrUnknownCourse = errors.New("content: unknown course")
	ErrUnknownLesson = errors.New("content: unknown lesson")
)

// Catalog is a validated, read-only index over a set of courses.
// It is safe for concurrent use because nothing mutates it after NewCatalog.
type Catalog struct {
	courses []Course

	courseByID map[string]*Course
	// lessonIndex maps a lesson id to its location in courses.
	lessonIndex map[string]lessonRef
	// traversal holds each course's lessons in section-number/lesson-order order.
	traversal map[string][]Lesson
}

type lessonRef struct {
	course, section, lesson int
}

// NewCatalog validates courses and builds the lookup indexes.
// Courses are kept in the given order.
func NewCatalog(courses []Course) (*Catalog, error) {
	if err := Validate(courses); err != nil {
		return nil, err
	}
	c := &Catalog{
		courses:     courses,
		courseByID:  make(map[string]*Course, len(courses)),
		lessonIndex: make(map[string]lessonRef),
		traversal:   make(map[string][]Lesson, len(courses)),
	}
	for ci := range c.courses {
		course := &c.courses[ci]
		c.courseByID[course.ID] = course
		for si, s := range course.Sections {
			for li, l := range s.Lessons {
				c.lessonIndex[l.ID] = lessonRef{ci, si, li}
			}
		}
		var ordered []Lesson
		for _, s := range SortedSections(course.Sections) {
			ordered = append(ordered, SortedLessons(s.Lessons)...)
		}
		c.traversal[course.ID] = ordered
	}
	return c, nil
}

// Courses returns all courses.
func (c *Catalog) Courses() []Course {
	return c.courses
}

// Course returns the course with id.
func (c *Catalog) Course(id string) (Course, error) {
	course, ok := c.courseByID[id]
	if !ok {
		return Course{}, ErrUnknownCourse
	}
	return *course, nil
}

// Lesson returns the lesson with id.
func (c *Catalog) Lesson(id string) (Lesson, error) {
	ref, ok := c.lessonIndex[id]
	if !ok {
		return Lesson{}, ErrUnknownLesson
	}
	return c.courses[ref.course].Sections[ref.section].Lessons[ref.lesson], nil
}

// CourseOfLesson returns the course that owns the lesson.
func (c *Catalog) CourseOfLesson(lessonID string) (Course, error) {
	ref, ok := c.lessonIndex[lessonID]
	if !ok {
		return Course{}, ErrUnknownLesson
	}
	return c.courses[ref.course], nil
}

// Lessons returns the course's lessons in traversal order.
func (c *Catalog) Lessons(courseID string) ([]Lesson, error) {
	ordered, ok := c.traversal[courseID]
	if !ok {
		return nil, ErrUnknownCourse
	}
	return ordered, nil
}

// MultipleChoiceSteps flattens every multiple-choice step of the course in
// the order they are declared.
func MultipleChoiceSteps(course Course) []MultipleChoice {
	var out []MultipleChoice
	for _, s := range course.Sections {
		for _, l := range s.Lessons {
			for _, st := range l.Steps {
				if st.Kind == KindMultipleChoice && st.MultipleChoice != nil {
					out = append(out, *st.MultipleChoice)
				}
			}
		}
	}
	return out
}

// SortedSections returns a copy of sections stably sorted by Number.
func SortedSections(sections []Section) []Section {
	out := append([]Section(nil), sections...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// SortedLessons returns a copy of lessons stably sorted by Order.
func SortedLessons(lessons []Lesson) []Lesson {
	out := append([]Lesson(nil), lessons...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
