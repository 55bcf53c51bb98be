package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/japaniel/cleverden/pkg/content"
	"github.com/japaniel/cleverden/pkg/shuffle"
)

func runCLI(t *testing.T, dbPath, stdin string, args ...string) (string, error) {
	t.Helper()
	base := []string{
		"-env", filepath.Join(t.TempDir(), "missing.env"),
		"-store", "sqlite",
		"-db", dbPath,
		"-log", "off",
	}
	var out bytes.Buffer
	err := run(context.Background(), append(base, args...), strings.NewReader(stdin), &out)
	return out.String(), err
}

// answers builds stdin that plays lessonID without mistakes.
func answers(t *testing.T, lessonID string) string {
	t.Helper()
	cat, err := content.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	l, err := cat.Lesson(lessonID)
	if err != nil {
		t.Fatalf("lesson: %v", err)
	}
	var b strings.Builder
	for _, st := range l.Steps {
		switch st.Kind {
		case content.KindMultipleChoice:
			for i, o := range st.MultipleChoice.Options {
				if o.ID == st.MultipleChoice.CorrectOptionID {
					fmt.Fprintf(&b, "%d\n", i+1)
				}
			}
		case content.KindMatchPairs:
			mp := st.MatchPairs
			seed := shuffle.Seed(mp.ID)
			left := shuffle.Seeded(seed, mp.LeftTokens())
			right := shuffle.Seeded(seed+1, mp.RightTokens())
			index := func(tokens []string, tok string) int {
				for i, candidate := range tokens {
					if candidate == tok {
						return i + 1
					}
				}
				return 0
			}
			for _, p := range mp.Pairs {
				fmt.Fprintf(&b, "%d %d\n", index(left, p.Left), index(right, p.Right))
			}
		}
	}
	return b.String()
}

func TestCLIPlayPersistsProgress(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cleverden.db")

	out, err := runCLI(t, dbPath, "", "courses")
	if err != nil {
		t.Fatalf("courses: %v\n%s", err, out)
	}
	if !strings.Contains(out, "flags") || !strings.Contains(out, "capitals") {
		t.Fatalf("courses output:\n%s", out)
	}

	out, err = runCLI(t, dbPath, answers(t, "flags-europe-1"), "play", "flags-europe-1")
	if err != nil {
		t.Fatalf("play: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Lesson complete: 0 error(s), ***") {
		t.Fatalf("play output:\n%s", out)
	}
	if !strings.Contains(out, "Next lesson: flags-europe-2") {
		t.Fatalf("next lesson missing:\n%s", out)
	}

	out, err = runCLI(t, dbPath, "", "status", "flags")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	if !strings.Contains(out, "flags-europe-1") || !strings.Contains(out, "completed ***") {
		t.Fatalf("status output:\n%s", out)
	}
	if !strings.Contains(out, "> flags-europe-2") || !strings.Contains(out, "Next: flags-europe-2") {
		t.Fatalf("current lesson not shown:\n%s", out)
	}

	if out, err = runCLI(t, dbPath, "", "reset"); err != nil {
		t.Fatalf("reset: %v\n%s", err, out)
	}
	out, _ = runCLI(t, dbPath, "", "status", "flags")
	if strings.Contains(out, "completed *") {
		t.Fatalf("progress survived reset:\n%s", out)
	}
}

func TestCLIPlayLockedLesson(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cleverden.db")
	if _, err := runCLI(t, dbPath, "", "play", "flags-asia-1"); err == nil || !strings.Contains(err.Error(), "locked") {
		t.Fatalf("expected locked error, got %v", err)
	}
}

func TestCLIAbandonOnEOF(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cleverden.db")
	if _, err := runCLI(t, dbPath, "1\n", "play", "flags-europe-1"); err != errInputEnded {
		t.Fatalf("expected errInputEnded, got %v", err)
	}
	out, _ := runCLI(t, dbPath, "", "status", "flags")
	if strings.Contains(out, "completed *") {
		t.Fatalf("abandoned attempt was saved:\n%s", out)
	}
}

func TestCLIUsageErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cleverden.db")
	if _, err := runCLI(t, dbPath, ""); err == nil {
		t.Fatalf("expected error for missing command")
	}
	if _, err := runCLI(t, dbPath, "", "fly"); err == nil {
		t.Fatalf("expected error for unknown command")
	}
	if _, err := runCLI(t, dbPath, "", "status"); err == nil {
		t.Fatalf("expected error for missing course id")
	}
	if _, err := runCLI(t, dbPath, "", "-store", "floppy", "courses"); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestCLIFlagOverridesInvalidEnv(t *testing.T) {
	t.Setenv("CLEVERDEN_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	dbPath := filepath.Join(t.TempDir(), "cleverden.db")

	out, err := runCLI(t, dbPath, "", "-store", "memory", "courses")
	if err != nil {
		t.Fatalf("courses with -store memory: %v\n%s", err, out)
	}
	if !strings.Contains(out, "flags") {
		t.Fatalf("courses output:\n%s", out)
	}
}
