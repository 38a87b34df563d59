package logtail

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func appendFile(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	if _, err := f.WriteString(data); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func drainAll(t *testing.T, src *Source) []string {
	t.Helper()
	var lines []string
	offset, err := Drain(*src, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if offset < src.Offset {
		t.Fatalf("Drain() offset went backwards: %d < %d", offset, src.Offset)
	}
	src.Offset = offset
	return lines
}

func TestDrain_ChunkedWritesDeliverEachLineOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	src := &Source{Path: path, Tag: "app"}

	chunks := []string{"one\ntw", "o\nthr", "ee\n", "", "four\nfive\n", "si"}
	var got []string
	for _, chunk := range chunks {
		appendFile(t, path, chunk)
		got = append(got, drainAll(t, src)...)
	}

	want := []string{"one", "two", "three", "four", "five"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}

	full := strings.Join(chunks, "")
	wantOffset := int64(strings.LastIndex(full, "\n") + 1)
	if src.Offset != wantOffset {
		t.Fatalf("Offset = %d, want %d", src.Offset, wantOffset)
	}
}

func TestDrain_PartialLineCompletedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\npart"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	src := &Source{Path: path}

	got := drainAll(t, src)
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("first drain = %q", got)
	}
	if src.Offset != 6 {
		t.Fatalf("Offset = %d, want 6", src.Offset)
	}

	appendFile(t, path, "ial\n")
	got = drainAll(t, src)
	if !reflect.DeepEqual(got, []string{"partial"}) {
		t.Fatalf("second drain = %q, want [partial]", got)
	}

	got = drainAll(t, src)
	if len(got) != 0 {
		t.Fatalf("third drain = %q, want nothing", got)
	}
}

func TestDrain_StripsCarriageReturn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "win.log")
	if err := os.WriteFile(path, []byte("x=1\r\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	src := &Source{Path: path}
	got := drainAll(t, src)
	if !reflect.DeepEqual(got, []string{"x=1"}) {
		t.Fatalf("lines = %q", got)
	}
	if src.Offset != 5 {
		t.Fatalf("Offset = %d, want 5", src.Offset)
	}
}

func TestDrain_MissingFileKeepsOffset(t *testing.T) {
	src := Source{Path: filepath.Join(t.TempDir(), "gone.log"), Offset: 42}
	offset, err := Drain(src, func(string) error { return nil })
	if err == nil {
		t.Fatalf("Drain() error = nil, want open error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Drain() error = %v, want ErrNotExist", err)
	}
	if offset != 42 {
		t.Fatalf("offset = %d, want 42", offset)
	}
}

func TestDrain_CallbackErrorStopsBeforeFailingLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("ok\nbad\nlater\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	stop := errors.New("stop")

	offset, err := Drain(Source{Path: path}, func(line string) error {
		if line == "bad" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Drain() error = %v, want stop", err)
	}
	if offset != 3 {
		t.Fatalf("offset = %d, want 3", offset)
	}
}

func TestStartOffset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	content := "l1\nl2\nl3\nl4\npartial"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name  string
		path  string
		mode  StartMode
		lines int
		want  int64
	}{
		{"beginning", path, StartBeginning, 0, 0},
		{"end", path, StartEnd, 0, int64(len(content))},
		{"tail two", path, StartTail, 2, 6},
		{"tail exactly all", path, StartTail, 4, 0},
		{"tail more than exists", path, StartTail, 10, 0},
		{"tail zero", path, StartTail, 0, 12},
		{"missing end", filepath.Join(dir, "none.log"), StartEnd, 0, 0},
		{"missing tail", filepath.Join(dir, "none.log"), StartTail, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StartOffset(tt.path, tt.mode, tt.lines)
			if err != nil {
				t.Fatalf("StartOffset() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("StartOffset() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseStartMode(t *testing.T) {
	for in, want := range map[string]StartMode{"": StartBeginning, "End": StartEnd, " tail ": StartTail, "beginning": StartBeginning} {
		got, err := ParseStartMode(in)
		if err != nil {
			t.Fatalf("ParseStartMode(%q) error = %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseStartMode(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseStartMode("middle"); err == nil {
		t.Fatalf("ParseStartMode(middle) error = nil, want error")
	}
}
