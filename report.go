package main

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Stage outcome statuses recorded in the report.
const (
	outcomeSuccess = "success"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// StageOutcome records how one stage went for one table.
type StageOutcome struct {
	Stage  string
	Status string
	Reason string
}

// TableReport accumulates per-stage outcomes for one table.
type TableReport struct {
	Table      string
	State      tableState
	RowsCopied int64
	Outcomes   []StageOutcome
}

// MigrationReport aggregates per-table, per-stage outcomes for a whole run.
// It is the only artifact that outlives the run: the summary goes to the
// console collaborator and optionally to a report file.
type MigrationReport struct {
	Started  time.Time
	Finished time.Time
	tables   map[string]*TableReport
	order    []string
}

func newMigrationReport() *MigrationReport {
	return &MigrationReport{
		Started: time.Now(),
		tables:  make(map[string]*TableReport),
	}
}

func (r *MigrationReport) table(name string) *TableReport {
	tr, ok := r.tables[name]
	if !ok {
		tr = &TableReport{Table: name, State: statePending}
		r.tables[name] = tr
		r.order = append(r.order, name)
	}
	return tr
}

// Record appends a stage outcome for a table.
func (r *MigrationReport) Record(table, stage, status, reason string) {
	tr := r.table(table)
	tr.Outcomes = append(tr.Outcomes, StageOutcome{Stage: stage, Status: status, Reason: reason})
}

// SetState advances a table's state. A failed table stays failed.
func (r *MigrationReport) SetState(table string, state tableState) {
	tr := r.table(table)
	if tr.State == stateFailed && state != stateFailed {
		return
	}
	tr.State = state
}

// State returns the current state of a table.
func (r *MigrationReport) State(table string) tableState {
	return r.table(table).State
}

// AddRows accumulates transferred row counts for a table.
func (r *MigrationReport) AddRows(table string, n int64) {
	r.table(table).RowsCopied += n
}

// FailedCount returns the number of tables with at least one failed outcome.
func (r *MigrationReport) FailedCount() int {
	n := 0
	for _, name := range r.order {
		for _, o := range r.tables[name].Outcomes {
			if o.Status == outcomeFailed {
				n++
				break
			}
		}
	}
	return n
}

// Summary renders the report as human-readable text.
func (r *MigrationReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "migration report (%s)\n", r.Finished.Sub(r.Started).Round(time.Millisecond))
	for _, name := range r.order {
		tr := r.tables[name]
		fmt.Fprintf(&b, "  %s: %s, %d rows\n", tr.Table, tr.State, tr.RowsCopied)
		for _, o := range tr.Outcomes {
			if o.Status == outcomeSuccess {
				continue
			}
			fmt.Fprintf(&b, "    %s: %s", o.Stage, o.Status)
			if o.Reason != "" {
				fmt.Fprintf(&b, " (%s)", o.Reason)
			}
			b.WriteByte('\n')
		}
	}
	if n := r.FailedCount(); n > 0 {
		fmt.Fprintf(&b, "  %d table(s) with failures, partial success\n", n)
	}
	return b.String()
}

// WriteFile writes the summary to the configured report file.
func (r *MigrationReport) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(r.Summary()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
