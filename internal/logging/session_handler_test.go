package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSessionLoggerStampsID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSessionLogger(slog.New(slog.NewJSONHandler(&buf, nil)), "5b0c")
	logger.With("entry", "SampleListPart/SampleListPart").Info("decoded")

	output := buf.String()
	if !strings.Contains(output, `"session_id":"5b0c"`) {
		t.Errorf("expected session_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"entry":"SampleListPart/SampleListPart"`) {
		t.Errorf("expected entry attr in output, got: %s", output)
	}
}

func TestSessionIDHandlerNilBase(t *testing.T) {
	if _, ok := newSessionIDHandler(nil, "x").(NoopHandler); !ok {
		t.Error("expected NoopHandler when base is nil")
	}
	// A nil base logger still yields a usable logger.
	NewSessionLogger(nil, "x").Info("ignored")
}
