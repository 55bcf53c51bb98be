package progress

import (
	"fmt"

	"github.com/japaniel/cleverden/pkg/content"
)

// Status is the unlock state of a lesson.
type Status int

const (
	StatusLocked Status = iota
	StatusAvailable
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusLocked:
		return "locked"
	case StatusAvailable:
		return "available"
	case StatusCompleted:
		return "completed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// LessonState is a Status plus the stars earned when completed.
type LessonState struct {
	Status Status
	Stars  int
}

// LessonStatus computes the state of lesson inside course:
//   - an entry in rec means Completed;
//   - the first lesson of a section is Available when the section is the
//     course's first one, or when every lesson of the preceding section
//     (by number) has an entry;
//   - any other lesson is Available when its predecessor (by order) has an entry.
//
// Everything else, including a lesson whose section is not in course, is Locked.
func LessonStatus(course content.Course, rec Record, lesson content.Lesson) LessonState {
	if stars, ok := rec.Stars(lesson.ID); ok {
		return LessonState{Status: StatusCompleted, Stars: stars}
	}

	sections := content.SortedSections(course.Sections)
	si := -1
	for i, s := range sections {
		if s.ID == lesson.SectionID {
			si = i
			break
		}
	}
	if si < 0 {
		return LessonState{Status: StatusLocked}
	}

	lessons := content.SortedLessons(sections[si].Lessons)
	li := -1
	for i, l := range lessons {
		if l.ID == lesson.ID {
			li = i
			break
		}
	}
	switch {
	case li < 0:
		return LessonState{Status: StatusLocked}
	case li == 0:
		if si == 0 || sectionCompleted(sections[si-1], rec) {
			return LessonState{Status: StatusAvailable}
		}
	default:
		if rec.IsCompleted(lessons[li-1].ID) {
			return LessonState{Status: StatusAvailable}
		}
	}
	return LessonState{Status: StatusLocked}
}

// CompletedSectionsCount counts the sections of courseID whose lessons all
// have an entry in rec. sections may span several courses.
func CompletedSectionsCount(sections []content.Section, courseID string, rec Record) int {
	n := 0
	for _, s := range sections {
		if s.CourseID == courseID && sectionCompleted(s, rec) {
			n++
		}
	}
	return n
}

// NextAvailableLesson returns the first Available lesson of lessons, which
// are expected in traversal order.
func NextAvailableLesson(course content.Course, rec Record, lessons []content.Lesson) (content.Lesson, bool) {
	for _, l := range lessons {
		if LessonStatus(course, rec, l).Status == StatusAvailable {
			return l, true
		}
	}
	return content.Lesson{}, false
}

func sectionCompleted(s content.Section, rec Record) bool {
	for _, l := range s.Lessons {
		if !rec.IsCompleted(l.ID) {
			return false
		}
	}
	return true
}
