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
package strategy

import (
	"fmt"
	"runtime/debug"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/hive-voyager/src/config"
	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/errs"
	"github.com/yugabyte/hive-voyager/src/issue"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/schema"
)

// handlerFunc builds the plan of one strategy. Handlers only mutate the unit they are given.
type handlerFunc func(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error

var handlers map[constants.DataStrategy]handlerFunc

func init() {
	handlers = map[constants.DataStrategy]handlerFunc{
		constants.DUMP:                                 dumpHandler,
		constants.SCHEMA_ONLY:                          schemaOnlyHandler,
		constants.LINKED:                               linkedHandler,
		constants.CONVERT_LINKED:                       convertLinkedHandler,
		constants.COMMON:                               commonHandler,
		constants.SQL:                                  sqlHandler,
		constants.EXPORT_IMPORT:                        exportImportHandler,
		constants.INTERMEDIATE:                         intermediateHandler,
		constants.ACID:                                 acidHandler,
		constants.SQL_ACID_DOWNGRADE_INPLACE:           sqlDowngradeInPlaceHandler,
		constants.EXPORT_IMPORT_ACID_DOWNGRADE_INPLACE: exportImportDowngradeInPlaceHandler,
		constants.STORAGE_MIGRATION:                    storageMigrationHandler,
	}
}

type Dispatcher struct {
	cfg        *config.Config
	rc         config.RunContext
	policy     Policy
	translator *location.Translator
	findings   *location.ReconcileResult
	rewriter   schema.Rewriter
	runID      string
}

type Option func(*Dispatcher)

func WithRewriter(r schema.Rewriter) Option {
	return func(d *Dispatcher) { d.rewriter = r }
}

func WithFindings(r *location.ReconcileResult) Option {
	return func(d *Dispatcher) { d.findings = r }
}

func WithRunID(id string) Option {
	return func(d *Dispatcher) { d.runID = id }
}

// NewDispatcher is shared by all table workers of a run; the translator is its only mutable state.
func NewDispatcher(cfg *config.Config, translator *location.Translator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:        cfg,
		rc:         cfg.RunContext(),
		policy:     PolicyFrom(cfg),
		translator: translator,
		rewriter:   schema.DefaultRewriter,
		findings:   &location.ReconcileResult{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Dispatcher) Policy() Policy {
	return d.policy
}

func (d *Dispatcher) RunContext() config.RunContext {
	return d.rc
}

/*
Dispatch plans the migration of one table starting from strategy top. It returns false when
the table was rejected or its handler failed; the reason is on the unit. Errors and panics
never escape: they are attached to the LEFT environment and the unit moves to ERROR.
*/
func (d *Dispatcher) Dispatch(u *migunit.MigrationUnit, top constants.DataStrategy) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			perr := &errs.PanicError{Value: r, Stack: string(debug.Stack())}
			log.Errorf("%s: recovered in strategy %s: %v\n%s", u.QualifiedName(), u.Strategy, r, perr.Stack)
			d.fail(u, top, perr)
			ok = false
		}
	}()
	_ = u.SetPhase(constants.PHASE_STARTED)

	f := FactsFor(u, d.rc, d.cfg)
	if config.IsLogLevelDebugOrBelow() {
		log.Debugf("%s facts: %s", u.QualifiedName(), spew.Sdump(f))
	}
	if !f.LeftExists {
		u.Strategy = top
		u.AddStep(top, "table missing on LEFT")
		if err := d.sourceMissing(u); err != nil {
			d.fail(u, top, err)
			return false
		}
		return d.calculated(u)
	}
	return d.dispatch(u, top, top, f, 0)
}

func (d *Dispatcher) dispatch(u *migunit.MigrationUnit, top, s constants.DataStrategy, f Facts, depth int) bool {
	if depth > maxDelegations {
		d.fail(u, top, fmt.Errorf("delegation limit reached at %s", s))
		return false
	}
	u.Strategy = s
	dec := Resolve(f, s, d.policy)
	u.AddStep(s, dec.Reason)
	log.Infof("%s: %s -> %s", u.QualifiedName(), s, dec)

	if dec.Issue != nil {
		if dec.Fatal {
			u.Env(constants.LEFT).AddError("%s", dec.Issue.String())
		} else {
			u.Env(constants.LEFT).AddIssue("%s", dec.Issue.String())
		}
	}
	if dec.Reject {
		if dec.Fatal && dec.Issue == nil {
			u.Env(constants.LEFT).AddError("%s", dec.Reason)
		}
		_ = u.SetPhase(constants.PHASE_ERROR)
		return false
	}
	if dec.Strategy != s {
		return d.dispatch(u, top, dec.Strategy, f, depth+1)
	}

	h, found := handlers[s]
	if !found {
		d.fail(u, top, fmt.Errorf("no handler for strategy %s", s))
		return false
	}
	if err := h(d, u, f); err != nil {
		d.fail(u, top, err)
		return false
	}
	return d.calculated(u)
}

func (d *Dispatcher) calculated(u *migunit.MigrationUnit) bool {
	if u.HasErrors() {
		_ = u.SetPhase(constants.PHASE_ERROR)
		return false
	}
	if err := u.SetPhase(constants.PHASE_CALCULATED_SQL); err != nil {
		log.Warnf("%v", err)
	}
	return true
}

func (d *Dispatcher) fail(u *migunit.MigrationUnit, top constants.DataStrategy, err error) {
	var steps []string
	for _, s := range u.Steps {
		steps = append(steps, string(s.Strategy))
	}
	terr := errs.NewTableMigrationError(u.Database, u.Name, string(top), steps, string(u.Strategy), err)
	log.Errorf("%v", terr)
	u.Fail(constants.LEFT, "%s", err.Error())
}

// addIssue attaches a catalog issue to an environment of the unit.
func addIssue(u *migunit.MigrationUnit, env constants.Environment, i issue.Issue, args ...interface{}) {
	u.Env(env).AddIssue("%s", i.Instance(args...).String())
}
