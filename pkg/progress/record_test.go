package progress

import "testing"

func TestMarkLessonCompleteNeverDowngrades(t *testing.T) {
	rec := NewRecord()
	attempts := []struct {
		stars   int
		want    int
		changed bool
	}{
		{2, 2, true},
		{1, 2, false},
		{2, 2, false},
		{3, 3, true},
		{1, 3, false},
		{0, 3, false},
	}
	for i, a := range attempts {
		changed := rec.MarkLessonComplete("l1", a.stars)
		if changed != a.changed {
			t.Fatalf("attempt %d: changed=%v, want %v", i, changed, a.changed)
		}
		got, _ := rec.Stars("l1")
		if got != a.want {
			t.Fatalf("attempt %d: stars=%d, want %d", i, got, a.want)
		}
	}
}

func TestMarkLessonCompleteClamps(t *testing.T) {
	var rec Record
	rec.MarkLessonComplete("low", -4)
	rec.MarkLessonComplete("high", 9)
	if s, _ := rec.Stars("low"); s != MinStars {
		t.Fatalf("low clamped to %d", s)
	}
	if s, _ := rec.Stars("high"); s != MaxStars {
		t.Fatalf("high clamped to %d", s)
	}
}

func TestCloneIsDeep(t *testing.T) {
	rec := NewRecord()
	rec.MarkLessonComplete("a", 2)
	cp := rec.Clone()
	cp.MarkLessonComplete("a", 3)
	cp.MarkLessonComplete("b", 1)
	if s, _ := rec.Stars("a"); s != 2 {
		t.Fatalf("original mutated through clone: %d", s)
	}
	if rec.IsCompleted("b") {
		t.Fatalf("original gained entry from clone")
	}
}

func TestEqualTreatsNilAsEmpty(t *testing.T) {
	if !(Record{}).Equal(NewRecord()) {
		t.Fatalf("nil and empty maps should compare equal")
	}
	a := NewRecord()
	a.CurrentLessonID = "x"
	if a.Equal(NewRecord()) {
		t.Fatalf("differing current lesson should not be equal")
	}
}
