// Package app wires the catalog, the progress tracker and the engines into
// the operations a front end needs.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookgo/clock"
	"github.com/japaniel/cleverden/pkg/challenge"
	"github.com/japaniel/cleverden/pkg/content"
	"github.com/japaniel/cleverden/pkg/lesson"
	"github.com/japaniel/cleverden/pkg/logger"
	"github.com/japaniel/cleverden/pkg/progress"
)

var ErrLessonLocked = errors.New("lesson is locked")

// App is the entry point for a session.
type App struct {
	catalog *content.Catalog
	tracker *progress.Tracker
	clock   clock.Clock
	log     *logger.Logger
}

// New builds an App. A nil clock means the wall clock.
func New(catalog *content.Catalog, tracker *progress.Tracker, clk clock.Clock, log *logger.Logger) *App {
	if clk == nil {
		clk = clock.New()
	}
	return &App{catalog: catalog, tracker: tracker, clock: clk, log: logger.OrNop(log)}
}

func (a *App) Catalog() *content.Catalog { return a.catalog }

// Progress returns a copy of the current progress record.
func (a *App) Progress() progress.Record { return a.tracker.Record() }

// LessonView is a lesson together with its computed state.
type LessonView struct {
	Lesson    content.Lesson
	State     progress.LessonState
	IsCurrent bool
}

// SectionView groups the lesson views of a section.
type SectionView struct {
	Section   content.Section
	Lessons   []LessonView
	Completed bool
}

// CourseOverview is what a course screen shows.
type CourseOverview struct {
	Course            content.Course
	Sections          []SectionView
	CompletedSections int
	NextLesson        *content.Lesson
}

// CourseOverview computes lesson states for courseID from the current record.
func (a *App) CourseOverview(courseID string) (CourseOverview, error) {
	course, err := a.catalog.Course(courseID)
	if err != nil {
		return CourseOverview{}, err
	}
	rec := a.tracker.Record()
	ov := CourseOverview{
		Course:            course,
		CompletedSections: progress.CompletedSectionsCount(course.Sections, course.ID, rec),
	}
	var lessons []content.Lesson
	for _, s := range content.SortedSections(course.Sections) {
		sv := SectionView{Section: s, Completed: true}
		for _, l := range content.SortedLessons(s.Lessons) {
			st := progress.LessonStatus(course, rec, l)
			if st.Status != progress.StatusCompleted {
				sv.Completed = false
			}
			sv.Lessons = append(sv.Lessons, LessonView{Lesson: l, State: st, IsCurrent: l.ID == rec.CurrentLessonID})
			lessons = append(lessons, l)
		}
		ov.Sections = append(ov.Sections, sv)
	}
	if next, ok := progress.NextAvailableLesson(course, rec, lessons); ok {
		ov.NextLesson = &next
	}
	return ov, nil
}

// Result is reported when a lesson attempt has been committed.
type Result struct {
	LessonID     string
	Errors       int
	Stars        int
	Improved     bool
	NextLessonID string
}

// StartLesson opens an attempt of lessonID. Locked lessons are refused;
// completed ones can be replayed. When the attempt finishes its stars are
// committed to the tracker and onResult, if set, receives the outcome.
// Abandoned attempts commit nothing.
func (a *App) StartLesson(ctx context.Context, lessonID string, onResult func(Result)) (*lesson.Engine, error) {
	l, err := a.catalog.Lesson(lessonID)
	if err != nil {
		return nil, err
	}
	course, err := a.catalog.CourseOfLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if st := progress.LessonStatus(course, a.tracker.Record(), l); st.Status == progress.StatusLocked {
		return nil, fmt.Errorf("%w: %s", ErrLessonLocked, lessonID)
	}

	commitCtx := context.WithoutCancel(ctx)
	eng, err := lesson.New(l, lesson.Options{
		Logger: a.log,
		OnComplete: func(errs int) {
			res := a.commit(commitCtx, course, lessonID, errs)
			if onResult != nil {
				onResult(res)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start lesson %s: %w", lessonID, err)
	}
	return eng, nil
}

func (a *App) commit(ctx context.Context, course content.Course, lessonID string, errs int) Result {
	stars := lesson.Stars(errs)
	rec := a.tracker.Record()
	rec.MarkLessonComplete(lessonID, stars)

	res := Result{LessonID: lessonID, Errors: errs, Stars: stars}
	if lessons, err := a.catalog.Lessons(course.ID); err == nil {
		if next, ok := progress.NextAvailableLesson(course, rec, lessons); ok {
			res.NextLessonID = next.ID
		}
	}
	res.Improved = a.tracker.Complete(ctx, lessonID, stars, res.NextLessonID)
	return res
}

// StartChallenge prepares a two-player match on courseID. The app clock and
// logger are used unless opts sets them.
func (a *App) StartChallenge(courseID, player1, player2 string, opts challenge.Options) (*challenge.Engine, error) {
	course, err := a.catalog.Course(courseID)
	if err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = a.clock
	}
	if opts.Logger == nil {
		opts.Logger = a.log
	}
	return challenge.New(course, player1, player2, opts), nil
}

// ResetProgress clears every completed lesson.
func (a *App) ResetProgress(ctx context.Context) error {
	a.log.Info("resetting progress")
	return a.tracker.Reset(ctx)
}
