package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Stage names as they appear in the report.
const (
	stageIntrospect = "introspect"
	stageCreate     = "create"
	stageTransfer   = "transfer"
	stageConstrain  = "constrain"
	stageIndex      = "index"
)

// Orchestrator sequences the migration stages over the resolved table order.
// Each stage runs to completion across every table before the next stage
// begins; this barrier is what keeps foreign-key attachment behind data
// population. Failures never propagate past the orchestrator except for
// connectivity loss: every stage records its per-table errors in the report
// and proceeds to the next table.
type Orchestrator struct {
	src    SourceDB
	srcDB  *sql.DB
	dst    *sql.DB
	cfg    *MigrationConfig
	em     Emitter
	cache  *runCache
	report *MigrationReport
}

func newOrchestrator(src SourceDB, srcDB, dst *sql.DB, cfg *MigrationConfig, em Emitter) *Orchestrator {
	return &Orchestrator{
		src:    src,
		srcDB:  srcDB,
		dst:    dst,
		cfg:    cfg,
		em:     em,
		cache:  newRunCache(),
		report: newMigrationReport(),
	}
}

// Run drives the full pipeline and returns the report. The returned error is
// non-nil only for fatal conditions; partial failure surfaces through the
// report instead.
func (o *Orchestrator) Run(ctx context.Context) (*MigrationReport, error) {
	schema, order, err := o.introspect(ctx)
	if err != nil {
		return o.finish(), err
	}

	if warnings := collectIndexWarnings(schema); len(warnings) > 0 {
		emitWarn(o.em, "", "%d index(es) cannot be replicated", len(warnings))
		for _, w := range warnings {
			emitWarn(o.em, "", "%s", w)
		}
	}

	byName := make(map[string]Table, len(schema.Tables))
	for _, t := range schema.Tables {
		byName[t.Name] = t
	}

	if err := o.createStage(ctx, order, byName); err != nil {
		return o.finish(), err
	}

	if err := o.runHooks(ctx, o.cfg.Hooks.BeforeData, "before_data"); err != nil {
		return o.finish(), err
	}
	if err := o.transferStage(ctx, order, byName); err != nil {
		return o.finish(), err
	}
	if err := o.runHooks(ctx, o.cfg.Hooks.AfterData, "after_data"); err != nil {
		return o.finish(), err
	}

	if err := o.runHooks(ctx, o.cfg.Hooks.BeforeConstraints, "before_constraints"); err != nil {
		return o.finish(), err
	}
	if err := o.constrainStage(ctx, order, byName); err != nil {
		return o.finish(), err
	}
	if err := o.indexStage(ctx, order, byName); err != nil {
		return o.finish(), err
	}

	if o.cfg.Audit.Enabled {
		if err := o.auditStage(ctx, order, byName); err != nil {
			return o.finish(), err
		}
	}

	if err := o.runHooks(ctx, o.cfg.Hooks.AfterAll, "after_all"); err != nil {
		return o.finish(), err
	}
	return o.finish(), nil
}

func (o *Orchestrator) finish() *MigrationReport {
	o.report.Finished = time.Now()
	return o.report
}

// introspect reads every table's metadata and resolves the creation order.
// A table whose metadata cannot be read is marked failed and excluded from
// all later stages; the resolver then works on the remaining set.
func (o *Orchestrator) introspect(ctx context.Context) (*Schema, []string, error) {
	names, err := o.cache.listTables(o.src, o.srcDB, o.cfg.Source.Schema)
	if err != nil {
		return nil, nil, err
	}
	emitInfo(o.em, "", "found %d tables", len(names))

	schema := &Schema{}
	for _, name := range names {
		o.report.SetState(name, statePending)
		t, err := o.cache.introspectTable(o.src, o.srcDB, o.cfg.Source.Schema, name)
		if err != nil {
			if isConnectivityErr(err) {
				return nil, nil, err
			}
			o.fail(name, stageIntrospect, err)
			continue
		}
		o.report.Record(name, stageIntrospect, outcomeSuccess, "")
		schema.Tables = append(schema.Tables, t)
	}

	order := buildDependencyGraph(schema.Tables).CreationOrder(o.em)
	return schema, order, nil
}

// createStage builds every table in dependency order.
func (o *Orchestrator) createStage(ctx context.Context, order []string, byName map[string]Table) error {
	for i, name := range order {
		o.em.Progress(ProgressEvent{Stage: stageCreate, Table: name, Current: int64(i + 1), Total: int64(len(order))})
		if err := buildTable(ctx, o.dst, byName[name], o.cfg.Target, o.cfg.PreserveDefaults); err != nil {
			if isConnectivityErr(err) {
				return err
			}
			o.fail(name, stageCreate, err)
			continue
		}
		o.report.Record(name, stageCreate, outcomeSuccess, "")
		o.report.SetState(name, stateCreated)
	}
	return nil
}

// transferStage copies data for every created table. A failed page is logged
// and the table keeps going; the table still advances because the stage ran
// to completion over it.
func (o *Orchestrator) transferStage(ctx context.Context, order []string, byName map[string]Table) error {
	for _, name := range order {
		if o.skip(name, stateCreated, stageTransfer) {
			continue
		}
		res, err := transferTable(ctx, o.src, o.srcDB, o.dst, o.cfg.Source.Schema, byName[name], o.cfg.BatchSize, o.em)
		o.report.AddRows(name, res.RowsCopied)
		if err != nil {
			if isConnectivityErr(err) {
				return err
			}
			o.fail(name, stageTransfer, err)
			continue
		}
		if res.PagesFailed > 0 {
			o.report.Record(name, stageTransfer, outcomeFailed, fmt.Sprintf("%d page(s) rolled back", res.PagesFailed))
		} else {
			o.report.Record(name, stageTransfer, outcomeSuccess, "")
		}
		o.report.SetState(name, stateTransferred)
	}
	return nil
}

// constrainStage attaches foreign keys after all data is in place, then
// aligns auto-increment counters. Constraint failures are never fatal: the
// data itself is already correctly transferred.
func (o *Orchestrator) constrainStage(ctx context.Context, order []string, byName map[string]Table) error {
	for _, name := range order {
		if o.skip(name, stateTransferred, stageConstrain) {
			continue
		}
		t := byName[name]
		failed := false
		for _, fk := range t.ForeignKeys {
			fk = o.resolveRefColumn(fk, byName)
			if o.report.State(fk.RefTable) == stateFailed {
				emitWarn(o.em, name, "skipping %s: referenced table %s failed earlier", fk.Name, fk.RefTable)
				o.report.Record(name, stageConstrain, outcomeSkipped, fmt.Sprintf("%s references failed table %s", fk.Name, fk.RefTable))
				continue
			}
			if err := attachForeignKey(ctx, o.dst, name, fk, o.em); err != nil {
				if isConnectivityErr(err) {
					return err
				}
				failed = true
				emitError(o.em, name, "constraint %s: %v", fk.Name, err)
				o.report.Record(name, stageConstrain, outcomeFailed, err.Error())
			}
		}
		if err := alignAutoIncrement(ctx, o.dst, t); err != nil {
			if isConnectivityErr(err) {
				return err
			}
			emitWarn(o.em, name, "auto_increment alignment: %v", err)
		}
		if !failed {
			o.report.Record(name, stageConstrain, outcomeSuccess, "")
		}
		o.report.SetState(name, stateConstrained)
	}
	return nil
}

// indexStage replicates secondary indexes. Failures are logged and skipped.
func (o *Orchestrator) indexStage(ctx context.Context, order []string, byName map[string]Table) error {
	for _, name := range order {
		if o.skip(name, stateConstrained, stageIndex) {
			continue
		}
		failed := false
		for _, idx := range byName[name].Indexes {
			if idx.SkipReason != "" {
				o.report.Record(name, stageIndex, outcomeSkipped, fmt.Sprintf("%s: %s", idx.Name, idx.SkipReason))
				continue
			}
			if err := replicateIndex(ctx, o.dst, name, idx); err != nil {
				if isConnectivityErr(err) {
					return err
				}
				failed = true
				emitError(o.em, name, "index %s: %v", idx.Name, err)
				o.report.Record(name, stageIndex, outcomeFailed, err.Error())
			}
		}
		if !failed {
			o.report.Record(name, stageIndex, outcomeSuccess, "")
		}
		o.report.SetState(name, stateIndexed)
	}
	return nil
}

// resolveRefColumn fills in the referenced column for sources that omit it
// when a foreign key points at the referenced table's primary key.
func (o *Orchestrator) resolveRefColumn(fk ForeignKey, byName map[string]Table) ForeignKey {
	if fk.RefColumn != "" {
		return fk
	}
	if ref, ok := byName[fk.RefTable]; ok {
		fk.RefColumn = ref.PrimaryKey
	}
	return fk
}

// skip reports whether a table should be excluded from the current stage
// because it has not reached the prerequisite state.
func (o *Orchestrator) skip(name string, want tableState, stage string) bool {
	state := o.report.State(name)
	if state == stateFailed {
		o.report.Record(name, stage, outcomeSkipped, "table failed in an earlier stage")
		return true
	}
	if state != want {
		o.report.Record(name, stage, outcomeSkipped, fmt.Sprintf("table is %s, expected %s", state, want))
		return true
	}
	return false
}

// fail records a stage failure and marks the table failed for the rest of the
// run.
func (o *Orchestrator) fail(name, stage string, err error) {
	emitError(o.em, name, "%s: %v", stage, err)
	o.report.Record(name, stage, outcomeFailed, err.Error())
	o.report.SetState(name, stateFailed)
}
