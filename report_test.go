package main

import (
	"strings"
	"testing"
	"time"
)

func TestReport_FailedStateIsSticky(t *testing.T) {
	r := newMigrationReport()
	r.SetState("users", stateCreated)
	r.SetState("users", stateFailed)
	r.SetState("users", stateTransferred)
	if got := r.State("users"); got != stateFailed {
		t.Errorf("failed table advanced to %s", got)
	}
}

func TestReport_FailedCount(t *testing.T) {
	r := newMigrationReport()
	r.Record("users", stageCreate, outcomeSuccess, "")
	r.Record("users", stageTransfer, outcomeSuccess, "")
	r.Record("orders", stageCreate, outcomeFailed, "boom")
	r.Record("orders", stageTransfer, outcomeSkipped, "table failed in an earlier stage")
	r.Record("items", stageTransfer, outcomeFailed, "2 page(s) rolled back")

	if got := r.FailedCount(); got != 2 {
		t.Errorf("FailedCount = %d, want 2", got)
	}
}

func TestReport_Summary(t *testing.T) {
	r := newMigrationReport()
	r.Finished = r.Started.Add(3 * time.Second)
	r.SetState("users", stateIndexed)
	r.AddRows("users", 250)
	r.Record("users", stageCreate, outcomeSuccess, "")
	r.Record("orders", stageCreate, outcomeFailed, "bad type")
	r.SetState("orders", stateFailed)

	s := r.Summary()
	if !strings.Contains(s, "users: indexed, 250 rows") {
		t.Errorf("summary missing users line:\n%s", s)
	}
	if !strings.Contains(s, "orders: failed") {
		t.Errorf("summary missing orders state:\n%s", s)
	}
	if !strings.Contains(s, "create: failed (bad type)") {
		t.Errorf("summary missing failure reason:\n%s", s)
	}
	if !strings.Contains(s, "partial success") {
		t.Errorf("summary must flag partial success:\n%s", s)
	}
}

func TestReport_SummaryCleanRun(t *testing.T) {
	r := newMigrationReport()
	r.Finished = time.Now()
	r.SetState("users", stateIndexed)
	r.Record("users", stageCreate, outcomeSuccess, "")

	if s := r.Summary(); strings.Contains(s, "partial success") {
		t.Errorf("clean run must not flag partial success:\n%s", s)
	}
}
