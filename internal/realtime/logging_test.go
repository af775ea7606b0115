package realtime

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogFactoryScopesAndLevels(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l := newSlogFactory(log).NewLogger("ice")
	l.Debugf("hidden %d", 1)
	l.Trace("hidden trace")
	l.Warnf("candidate %s failed", "host")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug and trace should be filtered at info: %s", out)
	}
	if !strings.Contains(out, "candidate host failed") {
		t.Errorf("expected formatted warning, got %s", out)
	}
	if !strings.Contains(out, "scope=ice") || !strings.Contains(out, "component=pion") {
		t.Errorf("expected scope and component attrs, got %s", out)
	}
}

func TestNewManager_WithLogger(t *testing.T) {
	if _, err := NewManager(Config{Logger: discardLogger()}); err != nil {
		t.Fatalf("NewManager should not error: %v", err)
	}
}
