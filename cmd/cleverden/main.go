package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/japaniel/cleverden/pkg/app"
	"github.com/japaniel/cleverden/pkg/config"
	"github.com/japaniel/cleverden/pkg/content"
	"github.com/japaniel/cleverden/pkg/db"
	"github.com/japaniel/cleverden/pkg/db/gormstore"
	"github.com/japaniel/cleverden/pkg/lesson"
	"github.com/japaniel/cleverden/pkg/logger"
	"github.com/japaniel/cleverden/pkg/progress"
)

const usage = `usage: cleverden [flags] <command>

commands:
  courses              list courses and completed sections
  status <courseID>    show lesson states of a course
  play <lessonID>      play a lesson, answers are read from stdin
  reset                clear all progress
`

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("cleverden", flag.ContinueOnError)
	fs.SetOutput(stdout)
	envFlag := fs.String("env", ".env", "Path to an optional .env file")
	storeFlag := fs.String("store", "", "Progress store: sqlite, gorm-sqlite, postgres or memory")
	dbFlag := fs.String("db", "", "Path to SQLite database")
	contentFlag := fs.String("content", "", "Directory of course files (default: bundled courses)")
	logFlag := fs.String("log", "", "Log mode: dev, prod or off")
	fs.Usage = func() { fmt.Fprint(stdout, usage); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*envFlag)
	if err != nil {
		return err
	}
	if *storeFlag != "" {
		cfg.Store = *storeFlag
	}
	if *dbFlag != "" {
		cfg.DBPath = *dbFlag
	}
	if *contentFlag != "" {
		cfg.ContentDir = *contentFlag
	}
	if *logFlag != "" {
		cfg.LogMode = *logFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	catalog, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	writer := progress.NewWriter(store, cfg.WriterFlush, nil)
	writer.OnError = func(err error) { log.Error("progress write failed", "error", err) }
	defer func() {
		if err := writer.Close(); err != nil {
			log.Warn("progress writer closed with error", "error", err)
		}
	}()

	tracker := progress.OpenTracker(ctx, store, writer, log)
	a := app.New(catalog, tracker, nil, log)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "courses":
		return listCourses(a, stdout)
	case "status":
		if len(rest) != 1 {
			return errors.New("status needs a course id")
		}
		return printStatus(a, rest[0], stdout)
	case "play":
		if len(rest) != 1 {
			return errors.New("play needs a lesson id")
		}
		return playLesson(ctx, a, rest[0], stdin, stdout)
	case "reset":
		if err := a.ResetProgress(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Progress cleared.")
		return nil
	}
	fs.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func loadCatalog(ctx context.Context, cfg config.Config) (*content.Catalog, error) {
	if cfg.ContentDir == "" {
		return content.Default()
	}
	return content.LoadDir(ctx, cfg.ContentDir, 4)
}

func openStore(ctx context.Context, cfg config.Config, log *logger.Logger) (progress.Store, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		return progress.NewMemoryStore(), func() {}, nil
	case config.StoreSQLite:
		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("sqlite store opened", "path", cfg.DBPath)
		return db.NewStore(conn), func() { conn.Close() }, nil
	case config.StoreGormSQLite:
		gdb, err := gormstore.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		s := gormstore.New(gdb)
		return s, func() { s.Close() }, nil
	case config.StorePostgres:
		gdb, err := gormstore.OpenPostgres(ctx, cfg.DatabaseURL, 5, nil, log)
		if err != nil {
			return nil, nil, err
		}
		s := gormstore.New(gdb)
		return s, func() { s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

func listCourses(a *app.App, w io.Writer) error {
	for _, c := range a.Catalog().Courses() {
		ov, err := a.CourseOverview(c.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-12s %-24s %d/%d sections\n", c.ID, c.Title, ov.CompletedSections, len(c.Sections))
	}
	return nil
}

func printStatus(a *app.App, courseID string, w io.Writer) error {
	ov, err := a.CourseOverview(courseID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (%d/%d sections completed)\n", ov.Course.Title, ov.CompletedSections, len(ov.Sections))
	for _, s := range ov.Sections {
		fmt.Fprintf(w, "  %d. %s\n", s.Section.Number, s.Section.Title)
		for _, l := range s.Lessons {
			state := l.State.Status.String()
			if l.State.Status == progress.StatusCompleted {
				state = fmt.Sprintf("%s %s", state, strings.Repeat("*", l.State.Stars))
			}
			marker := " "
			if l.IsCurrent {
				marker = ">"
			}
			fmt.Fprintf(w, "   %s %-20s %s\n", marker, l.Lesson.ID, state)
		}
	}
	if ov.NextLesson != nil {
		fmt.Fprintf(w, "Next: %s\n", ov.NextLesson.ID)
	} else {
		fmt.Fprintln(w, "Next: none")
	}
	return nil
}

var errInputEnded = errors.New("input ended, attempt abandoned")

func playLesson(ctx context.Context, a *app.App, lessonID string, stdin io.Reader, w io.Writer) error {
	var result *app.Result
	eng, err := a.StartLesson(ctx, lessonID, func(r app.Result) { result = &r })
	if err != nil {
		return err
	}
	in := bufio.NewScanner(stdin)
	readInts := func(n int) ([]int, bool) {
		for in.Scan() {
			fields := strings.Fields(in.Text())
			if len(fields) != n {
				fmt.Fprintf(w, "enter %d number(s)\n", n)
				continue
			}
			out := make([]int, 0, n)
			for _, f := range fields {
				v, err := strconv.Atoi(f)
				if err != nil {
					break
				}
				out = append(out, v)
			}
			if len(out) == n {
				return out, true
			}
			fmt.Fprintln(w, "not a number")
		}
		return nil, false
	}

	for {
		if err := ctx.Err(); err != nil {
			eng.Abandon()
			return err
		}
		s := eng.Snapshot()
		fmt.Fprintf(w, "\n[%d/%d] ", s.StepIndex+1, s.TotalSteps)
		switch s.Step.Kind {
		case content.KindMultipleChoice:
			mc := s.Step.MultipleChoice
			fmt.Fprintf(w, "%s %s\n", mc.Prompt, mc.PromptImage)
			for i, o := range mc.Options {
				fmt.Fprintf(w, "  %d) %s\n", i+1, o.DisplayText())
			}
			for !eng.Snapshot().StepComplete {
				pick, ok := readInts(1)
				if !ok {
					eng.Abandon()
					return errInputEnded
				}
				if pick[0] < 1 || pick[0] > len(mc.Options) {
					fmt.Fprintln(w, "no such option")
					continue
				}
				eng.SelectOption(mc.Options[pick[0]-1].ID)
				s = eng.SubmitOption()
			}
			fmt.Fprintln(w, feedbackText(s.Feedback))
		case content.KindMatchPairs:
			fmt.Fprintln(w, "Match the pairs (enter: left right)")
			for i := range s.LeftOrder {
				fmt.Fprintf(w, "  %d) %-16s %d) %s\n", i+1, s.LeftOrder[i], i+1, s.RightOrder[i])
			}
			for !s.StepComplete {
				pick, ok := readInts(2)
				if !ok {
					eng.Abandon()
					return errInputEnded
				}
				l, r := pick[0]-1, pick[1]-1
				if l < 0 || l >= len(s.LeftOrder) || r < 0 || r >= len(s.RightOrder) {
					fmt.Fprintln(w, "no such item")
					continue
				}
				eng.SelectMatchItem(lesson.ColumnLeft, s.LeftOrder[l])
				s = eng.SelectMatchItem(lesson.ColumnRight, s.RightOrder[r])
				switch s.Feedback {
				case lesson.FeedbackIncorrectRetry:
					fmt.Fprintf(w, "%s (%d/%d)\n", feedbackText(s.Feedback), s.MatchErrors, lesson.MaxMatchErrors)
					s = eng.RetryAfterIncorrect()
				case lesson.FeedbackNone:
					fmt.Fprintf(w, "matched %d/%d\n", len(s.Matched)/2, len(s.LeftOrder))
				}
			}
			fmt.Fprintln(w, feedbackText(s.Feedback))
		}

		if s = eng.Acknowledge(); s.Finished {
			break
		}
	}

	if result != nil {
		fmt.Fprintf(w, "\nLesson complete: %d error(s), %s\n", result.Errors, strings.Repeat("*", result.Stars))
		if result.NextLessonID != "" {
			fmt.Fprintf(w, "Next lesson: %s\n", result.NextLessonID)
		}
	}
	return nil
}

func feedbackText(f lesson.Feedback) string {
	switch f {
	case lesson.FeedbackCorrect:
		return "Correct!"
	case lesson.FeedbackIncorrectRetry:
		return "Not a pair, try again."
	case lesson.FeedbackIncorrectFinal:
		return "Incorrect."
	}
	return ""
}
