package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestErrField(t *testing.T) {
	if Err(nil) != nil {
		t.Fatal("Err(nil) must be nil")
	}
	f := Err(errors.New("boom"))
	if f["err"] != "boom" {
		t.Fatalf("Err = %v", f)
	}
}

func TestForJobTagsEntries(t *testing.T) {
	base := New(Options{App: "test-app"}).(*StdLogger)
	tagged := ForJob(base, "horizon").(*StdLogger)

	if tagged.base["job"] != "horizon" {
		t.Fatalf("base fields = %v, want job=horizon", tagged.base)
	}
	if tagged.base["app"] != "test-app" {
		t.Fatalf("app field lost: %v", tagged.base)
	}
	// El logger original no se contamina.
	if _, ok := base.base["job"]; ok {
		t.Fatal("ForJob mutated the parent logger")
	}
}

func TestWithDropsEmptyKeys(t *testing.T) {
	l := New(Options{}).(*StdLogger)
	child := l.With(map[string]any{"": "x", "  ": "y", "user": "u-1"}).(*StdLogger)
	if _, ok := child.base[""]; ok {
		t.Fatal("empty key kept")
	}
	if child.base["user"] != "u-1" {
		t.Fatalf("fields = %v", child.base)
	}
}

func TestFormatTextPinsFixedKeys(t *testing.T) {
	line := formatText(map[string]any{
		"zz":    1,
		"msg":   "sweep done",
		"level": "info",
		"ts":    "2024-06-10T00:00:00Z",
		"job":   "lowstock",
		"aa":    2,
	})

	want := "ts=2024-06-10T00:00:00Z level=info msg=sweep done job=lowstock aa=2 zz=1"
	if line != want {
		t.Fatalf("line = %q, want %q", line, want)
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	if ParseLevel("WARNING") != Warn || ParseLevel("") != Info || ParseLevel("nope") != Info {
		t.Fatal("ParseLevel defaults broken")
	}
	if ParseFormat("JSON") != FormatJSON || ParseFormat("") != FormatText {
		t.Fatal("ParseFormat defaults broken")
	}
}

func TestNewDefaultsAppName(t *testing.T) {
	l := New(Options{}).(*StdLogger)
	app, _ := l.base["app"].(string)
	if !strings.Contains(app, "medication") {
		t.Fatalf("app = %q, want the default app name", app)
	}
}
