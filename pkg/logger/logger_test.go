package logger

import "testing"

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "PRODUCTION", "off", ""} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.With("mode", mode).Debug("probe", "k", 1)
	}
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	if l == nil || l.SugaredLogger == nil {
		t.Fatalf("expected usable no-op logger")
	}
	l.Info("discarded", "k", "v")

	real := Nop()
	if OrNop(real) != real {
		t.Fatalf("OrNop should return the given logger unchanged")
	}
}
