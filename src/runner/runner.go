/*
Copyright (c) YugabyteDB, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/hive-voyager/src/catalog"
	"github.com/yugabyte/hive-voyager/src/config"
	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/errs"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/metadb"
	"github.com/yugabyte/hive-voyager/src/metrics"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/strategy"
)

const (
	RUN_STATUS_RUNNING   = "RUNNING"
	RUN_STATUS_DONE      = "DONE"
	RUN_STATUS_CANCELLED = "CANCELLED"
	RUN_STATUS_FAILED    = "FAILED"
)

// ProgressReporter is told about every table as soon as its worker is done with it.
type ProgressReporter interface {
	StartDatabase(database string, tables int)
	TableDone(u *migunit.MigrationUnit)
	DatabaseDone(database string)
}

type noopProgress struct{}

func (noopProgress) StartDatabase(string, int)         {}
func (noopProgress) TableDone(*migunit.MigrationUnit) {}
func (noopProgress) DatabaseDone(string)              {}

// Result is everything a run produced, in database then table order.
type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Databases  []*migunit.DatabaseUnit
	Units      []*migunit.MigrationUnit
	Findings   *location.ReconcileResult
	Translator *location.Translator
}

// UnitsOf returns the units of one database.
func (r *Result) UnitsOf(database string) []*migunit.MigrationUnit {
	var out []*migunit.MigrationUnit
	for _, u := range r.Units {
		if u.Database == database {
			out = append(out, u)
		}
	}
	return out
}

type Runner struct {
	cfg        *config.Config
	left       catalog.Endpoint
	right      catalog.Endpoint
	translator *location.Translator
	metaDB     *metadb.MetaDB
	progress   ProgressReporter
	runID      string
}

type Option func(*Runner)

func WithMetaDB(m *metadb.MetaDB) Option {
	return func(r *Runner) { r.metaDB = m }
}

func WithProgress(p ProgressReporter) Option {
	return func(r *Runner) { r.progress = p }
}

func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

/*
New prepares a run. right may be nil for the strategies that only touch LEFT (DUMP and
STORAGE_MIGRATION). The explicit global location map of the configuration is loaded into
the run's translator here; derived entries are added after the scan pass.
*/
func New(cfg *config.Config, left, right catalog.Endpoint, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:        cfg,
		left:       left,
		right:      right,
		translator: location.NewTranslator(),
		progress:   noopProgress{},
		runID:      uuid.New().String(),
	}
	for _, o := range opts {
		o(r)
	}
	if left == nil {
		return nil, fmt.Errorf("LEFT endpoint is required")
	}
	if NeedsRight(cfg.DataStrategy) && right == nil {
		return nil, fmt.Errorf("data strategy %s needs a RIGHT endpoint", cfg.DataStrategy)
	}
	for _, e := range cfg.Translator.GlobalLocationMap {
		if err := r.translator.AddGlobalLocationMapEntry(e.Source, e.Target); err != nil {
			return nil, fmt.Errorf("global location map entry %s: %w", e.Source, err)
		}
	}
	return r, nil
}

func NeedsRight(s constants.DataStrategy) bool {
	return s != constants.DUMP && s != constants.STORAGE_MIGRATION
}

func (r *Runner) RunID() string {
	return r.runID
}

func (r *Runner) Translator() *location.Translator {
	return r.translator
}

/*
Run plans (and with execute set, applies) every configured database.

 1. scan: LEFT and RIGHT facts of every table are loaded and the source locations are
    recorded in the warehouse map builder, which is then sealed
 2. reconcile: warehouse plans become derived location map entries
 3. per database: the database DDL is planned, then its tables on a bounded pool; the
    database is done only once the pool drains

A cancelled ctx stops the submission of new tables; tables already running finish.
*/
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: r.runID, StartedAt: time.Now(), Status: RUN_STATUS_RUNNING, Translator: r.translator}
	log.Infof("starting run %s: strategy %s, databases %v", r.runID, r.cfg.DataStrategy, r.cfg.Databases)
	if r.metaDB != nil {
		err := r.metaDB.StartRun(metadb.RunRecord{RunID: r.runID, StartedAt: res.StartedAt,
			DataStrategy: r.cfg.DataStrategy, Status: RUN_STATUS_RUNNING, Config: r.cfg})
		if err != nil {
			return nil, fmt.Errorf("record run %s: %w", r.runID, err)
		}
	}

	err := r.checkDatabases(ctx)
	if err != nil {
		r.finish(res, RUN_STATUS_FAILED)
		return res, err
	}

	builder := location.NewWarehouseMapBuilder()
	for db, plan := range r.cfg.Translator.WarehousePlans {
		builder.AddWarehousePlan(db, plan.ExternalDirectory, plan.ManagedDirectory)
	}
	var scanned []*scannedDatabase
	for _, db := range r.cfg.Databases {
		if ctx.Err() != nil {
			break
		}
		sd, err := r.scanDatabase(ctx, db, builder)
		if err != nil {
			r.finish(res, RUN_STATUS_FAILED)
			return res, err
		}
		scanned = append(scanned, sd)
	}
	builder.Seal()

	findings := location.Reconcile(builder, r.translator, location.ReconcileOptions{
		DefaultWarehouse:   r.cfg.Transfer.Warehouse,
		TargetDatabaseName: r.cfg.TargetDatabaseName,
	})
	if err := r.translator.AddDerivedEntries(findings.Entries); err != nil {
		r.finish(res, RUN_STATUS_FAILED)
		return res, fmt.Errorf("add derived location map entries: %w", err)
	}
	for _, f := range findings.Findings {
		log.Warnf("location finding for %s.%s: %s", f.Database, f.Table, f.Message)
	}
	res.Findings = findings

	d := strategy.NewDispatcher(r.cfg, r.translator, strategy.WithFindings(findings), strategy.WithRunID(r.runID))
	for _, sd := range scanned {
		res.Databases = append(res.Databases, sd.du)
		res.Units = append(res.Units, sd.units...)
		if ctx.Err() != nil {
			continue
		}
		r.planDatabase(ctx, d, sd, warehousePlan(builder, r.cfg, sd.du.Name))
		if r.cfg.Execute && ctx.Err() == nil {
			r.executeDatabase(ctx, sd)
		}
		r.saveTranslations(sd.du.Name)
	}

	status := RUN_STATUS_DONE
	if ctx.Err() != nil {
		log.Warnf("run %s cancelled: %v", r.runID, ctx.Err())
		status = RUN_STATUS_CANCELLED
	}
	r.finish(res, status)
	return res, ctx.Err()
}

func (r *Runner) finish(res *Result, status string) {
	res.Status = status
	res.FinishedAt = time.Now()
	if r.metaDB == nil {
		return
	}
	if err := r.metaDB.FinishRun(r.runID, status, res.FinishedAt); err != nil {
		log.Errorf("record end of run %s: %v", r.runID, err)
	}
	err := r.metaDB.UpdatePlanStatusRecord(func(rec *metadb.PlanStatusRecord) {
		rec.LastRunID = r.runID
		rec.Databases = r.cfg.Databases
		rec.RunCount++
		if r.cfg.Execute && status == RUN_STATUS_DONE {
			rec.LastExecutedRunID = r.runID
		}
	})
	if err != nil {
		log.Errorf("update plan status: %v", err)
	}
}

// checkDatabases fails the run when a configured database is missing on LEFT.
func (r *Runner) checkDatabases(ctx context.Context) error {
	var unknown, valid []string
	for _, db := range r.cfg.Databases {
		exists, err := r.left.DatabaseExists(ctx, db)
		if err != nil {
			return fmt.Errorf("look up database %s on LEFT: %w", db, err)
		}
		if exists {
			valid = append(valid, db)
		} else {
			unknown = append(unknown, db)
		}
	}
	if len(unknown) > 0 {
		return errs.NewUnknownDatabaseErr(unknown, valid)
	}
	return nil
}

func warehousePlan(b *location.WarehouseMapBuilder, cfg *config.Config, database string) *location.Warehouse {
	if w, ok := b.WarehousePlan(database); ok {
		return &w
	}
	return cfg.Transfer.Warehouse
}

func (r *Runner) planDatabase(ctx context.Context, d *strategy.Dispatcher, sd *scannedDatabase, plan *location.Warehouse) {
	du := sd.du
	if err := d.PlanDatabase(du, plan); err != nil {
		log.Errorf("plan database %s: %v", du.Name, err)
		du.Env(constants.LEFT).AddIssue("database plan failed: %v", err)
		_ = du.SetPhase(constants.PHASE_ERROR)
		for _, u := range sd.units {
			u.Fail(constants.LEFT, "database %s could not be planned: %v", du.Name, err)
		}
	}
	r.persistDatabase(du)

	r.progress.StartDatabase(du.Name, len(sd.units))
	p := pool.New().WithMaxGoroutines(r.cfg.Workers)
	for _, u := range sd.units {
		if ctx.Err() != nil {
			log.Infof("run cancelled, %s not scheduled", u.QualifiedName())
			continue
		}
		if u.Phase == constants.PHASE_ERROR {
			metrics.RecordUnplanned(u)
			r.persist(u)
			r.progress.TableDone(u)
			continue
		}
		u := u
		p.Go(func() {
			metrics.WorkerStarted()
			defer metrics.WorkerDone()
			u.StartedAt = time.Now()
			ok := d.Dispatch(u, r.cfg.DataStrategy)
			u.FinishedAt = time.Now()
			outcome := metrics.OUTCOME_PLANNED
			if !ok {
				outcome = metrics.OUTCOME_FAILED
			}
			metrics.RecordTable(u, outcome, u.FinishedAt.Sub(u.StartedAt))
			r.persist(u)
			r.progress.TableDone(u)
		})
	}
	p.Wait()
	r.progress.DatabaseDone(du.Name)
}

func (r *Runner) persist(u *migunit.MigrationUnit) {
	if r.metaDB == nil {
		return
	}
	if err := r.metaDB.SaveMigrationUnit(r.runID, u); err != nil {
		log.Errorf("save %s to meta db: %v", u.QualifiedName(), err)
	}
}

func (r *Runner) persistDatabase(du *migunit.DatabaseUnit) {
	if r.metaDB == nil {
		return
	}
	if err := r.metaDB.SaveDatabaseUnit(r.runID, du); err != nil {
		log.Errorf("save database %s to meta db: %v", du.Name, err)
	}
}

func (r *Runner) saveTranslations(database string) {
	if r.metaDB == nil {
		return
	}
	if err := r.metaDB.SaveTranslations(r.runID, database, r.translator.TranslationsForDatabase(database)); err != nil {
		log.Errorf("save translations of %s to meta db: %v", database, err)
	}
}
