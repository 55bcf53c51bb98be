// Package progress holds the persisted learner progress and the rules that
// derive lesson unlock state from it.
package progress

// MinStars and MaxStars bound the stars recorded for a completed lesson.
const (
	MinStars = 1
	MaxStars = 3
)

// Record is the persisted progress: best stars per completed lesson plus an
// optional pointer to the lesson the learner should resume with.
type Record struct {
	CompletedLessons map[string]int `json:"completedLessons"`
	CurrentLessonID  string         `json:"currentLessonId,omitempty"`
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{CompletedLessons: map[string]int{}}
}

// Clone returns a deep copy. A nil map becomes an empty one.
func (r Record) Clone() Record {
	out := Record{
		CompletedLessons: make(map[string]int, len(r.CompletedLessons)),
		CurrentLessonID:  r.CurrentLessonID,
	}
	for k, v := range r.CompletedLessons {
		out.CompletedLessons[k] = v
	}
	return out
}

// Stars returns the recorded stars for a lesson.
func (r Record) Stars(lessonID string) (int, bool) {
	s, ok := r.CompletedLessons[lessonID]
	return s, ok
}

// IsCompleted reports whether the lesson has an entry.
func (r Record) IsCompleted(lessonID string) bool {
	_, ok := r.CompletedLessons[lessonID]
	return ok
}

// MarkLessonComplete records stars for lessonID, clamped to [MinStars, MaxStars].
// An existing entry is only replaced by a strictly higher value.
// It reports whether the record changed.
func (r *Record) MarkLessonComplete(lessonID string, stars int) bool {
	if stars < MinStars {
		stars = MinStars
	}
	if stars > MaxStars {
		stars = MaxStars
	}
	if r.CompletedLessons == nil {
		r.CompletedLessons = map[string]int{}
	}
	if prev, ok := r.CompletedLessons[lessonID]; ok && prev >= stars {
		return false
	}
	r.CompletedLessons[lessonID] = stars
	return true
}

// Equal compares two records; nil and empty maps are equal.
func (r Record) Equal(o Record) bool {
	if r.CurrentLessonID != o.CurrentLessonID || len(r.CompletedLessons) != len(o.CompletedLessons) {
		return false
	}
	for k, v := range r.CompletedLessons {
		if ov, ok := o.CompletedLessons[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
