package main

import (
	"fmt"
	"log"
)

// Severity classifies log events emitted by the core.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// LogEvent is a single log line with optional table context.
type LogEvent struct {
	Severity Severity
	Table    string
	Message  string
}

// ProgressEvent reports progress within a stage.
type ProgressEvent struct {
	Stage   string
	Table   string
	Current int64
	Total   int64
}

// Emitter is the presentation collaborator boundary: the core produces events,
// the consumer decides how to render them.
type Emitter interface {
	Log(ev LogEvent)
	Progress(ev ProgressEvent)
}

// consoleEmitter renders events on the standard log stream.
type consoleEmitter struct{}

func (consoleEmitter) Log(ev LogEvent) {
	if ev.Table != "" {
		log.Printf("  %s [%s] %s", ev.Severity, ev.Table, ev.Message)
		return
	}
	log.Printf("  %s %s", ev.Severity, ev.Message)
}

func (consoleEmitter) Progress(ev ProgressEvent) {
	if ev.Total > 0 {
		log.Printf("  %s %s: %d/%d", ev.Stage, ev.Table, ev.Current, ev.Total)
		return
	}
	log.Printf("  %s %s", ev.Stage, ev.Table)
}

// emitInfo, emitWarn, emitError are shorthands used throughout the stages.
func emitInfo(em Emitter, table, format string, args ...any) {
	em.Log(LogEvent{Severity: SeverityInfo, Table: table, Message: fmt.Sprintf(format, args...)})
}

func emitWarn(em Emitter, table, format string, args ...any) {
	em.Log(LogEvent{Severity: SeverityWarn, Table: table, Message: fmt.Sprintf(format, args...)})
}

func emitError(em Emitter, table, format string, args ...any) {
	em.Log(LogEvent{Severity: SeverityError, Table: table, Message: fmt.Sprintf(format, args...)})
}
