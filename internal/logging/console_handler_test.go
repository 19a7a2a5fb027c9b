package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyHandlerLayout(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))
	logger = NewComponentLogger(logger, "archive")
	logger.Info("packed", String(FieldEntry, "Methods/A.amx"), Int("entries", 3), Error(errors.New("two words")))
	logger.Debug("suppressed")

	out := buf.String()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 fields, got %q", out)
	}
	if !strings.Contains(lines[0], "INFO [archive] packed") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "    entry: Methods/A.amx" || lines[2] != "    entries: 3" || lines[3] != "    error: two words" {
		t.Fatalf("unexpected fields %q", lines[1:])
	}
}

func TestPrettyHandlerGroupsAndDuplicates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, new(slog.LevelVar), false))
	logger.With("rows", 1).WithGroup("table").Info("edited", "rows", 2, "rows", 3)

	out := buf.String()
	if !strings.Contains(out, "    rows: 1\n") {
		t.Fatalf("expected ungrouped attr, got %q", out)
	}
	if !strings.Contains(out, "    table.rows: 3\n") || strings.Contains(out, "table.rows: 2") {
		t.Fatalf("expected last duplicate to win, got %q", out)
	}
}

func TestPrettyHandlerAttrsKeepTheirGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, new(slog.LevelVar), false))
	logger = logger.WithGroup("archive").With("entries", 4).WithGroup("table").With("rows", 2)
	logger.Info("saved", "changed", true)

	out := buf.String()
	for _, want := range []string{"    archive.entries: 4\n", "    archive.table.rows: 2\n", "    archive.table.changed: true\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestPrettyHandlerTimestamps(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, new(slog.LevelVar), false))
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	logger.Info("stamped", "modified", at)

	out := buf.String()
	if !strings.Contains(out, "    modified: 2024-03-01T09:30:00Z\n") {
		t.Fatalf("expected RFC 3339 attr, got %q", out)
	}
	header := strings.SplitN(out, " INFO", 2)[0]
	if _, err := time.ParseInLocation(headerLayout, header, time.Local); err != nil {
		t.Fatalf("header stamp %q: %v", header, err)
	}
}
