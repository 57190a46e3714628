package main

import (
	"strings"
	"testing"
)

// captureEmitter records events for assertions in tests.
type captureEmitter struct {
	logs     []LogEvent
	progress []ProgressEvent
}

func (c *captureEmitter) Log(ev LogEvent)           { c.logs = append(c.logs, ev) }
func (c *captureEmitter) Progress(ev ProgressEvent) { c.progress = append(c.progress, ev) }

func (c *captureEmitter) hasWarning(substr string) bool {
	for _, ev := range c.logs {
		if ev.Severity == SeverityWarn && strings.Contains(ev.Message, substr) {
			return true
		}
	}
	return false
}

func TestEmitShorthands(t *testing.T) {
	em := &captureEmitter{}
	emitInfo(em, "users", "copied %d rows", 42)
	emitWarn(em, "", "something odd")
	emitError(em, "orders", "boom")

	if len(em.logs) != 3 {
		t.Fatalf("expected 3 log events, got %d", len(em.logs))
	}
	if em.logs[0].Severity != SeverityInfo || em.logs[0].Table != "users" || em.logs[0].Message != "copied 42 rows" {
		t.Errorf("unexpected info event: %+v", em.logs[0])
	}
	if em.logs[1].Severity != SeverityWarn || em.logs[1].Table != "" {
		t.Errorf("unexpected warn event: %+v", em.logs[1])
	}
	if em.logs[2].Severity != SeverityError {
		t.Errorf("unexpected error event: %+v", em.logs[2])
	}
}
