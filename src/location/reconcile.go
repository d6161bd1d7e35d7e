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
package location

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/hive-voyager/src/constants"
)

// Finding is a location that could not be mapped with confidence.
type Finding struct {
	Database string              `json:"database"`
	Table    string              `json:"table"`
	Type     constants.TableType `json:"type"`
	Base     string              `json:"base"`
	Message  string              `json:"message"`
}

type ReconcileOptions struct {
	// DefaultWarehouse applies to databases without a plan of their own.
	DefaultWarehouse *Warehouse
	// TargetDatabaseName maps a source database to its name on the target.
	TargetDatabaseName func(database string) string
}

type ReconcileResult struct {
	Entries  []GLMEntry
	Findings []Finding
}

// FindingsFor returns the findings that concern one table.
func (r *ReconcileResult) FindingsFor(database, table string) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Database == database && f.Table == table {
			out = append(out, f)
		}
	}
	return out
}

// baseClaim is one database/table type asking for a consolidated base to map somewhere.
type baseClaim struct {
	database  string
	tableType constants.TableType
	tables    []string
	desired   string
}

/*
Reconcile compares the consolidated source locations of every database against its
warehouse plan and the explicit rules already held by the translator.

  - a base already covered by an explicit rule is left alone
  - a base is mapped to <plan dir for its table type>/<target db>.db, including bases
    that already sit there (identity rule) so later lookups match
  - a base that reduced to the filesystem root, a database with neither a plan nor
    explicit coverage, and a base claimed with different targets (managed and external
    tables, or two databases) are reported as findings for each table behind them

Claims are collected run-wide before any rule is derived: a contested base gets no rule
at all, so no table is sent into another database's directory.
*/
func Reconcile(b *WarehouseMapBuilder, t *Translator, opts ReconcileOptions) *ReconcileResult {
	result := &ReconcileResult{}
	targetName := opts.TargetDatabaseName
	if targetName == nil {
		targetName = func(db string) string { return db }
	}

	claims := make(map[string][]baseClaim)
	var bases []string
	for _, db := range b.SourceDatabases() {
		slm := b.Sources(db)
		plan, hasPlan := b.WarehousePlan(db)
		if !hasPlan && opts.DefaultWarehouse != nil {
			plan, hasPlan = *opts.DefaultWarehouse, true
		}

		for _, tableType := range slm.TableTypes() {
			for _, base := range slm.BaseLocations(tableType) {
				tables := slm.Tables(tableType, base)
				if base == "/" {
					result.report(db, tableType, base, tables, "table location consolidates to the filesystem root")
					continue
				}
				if t != nil && t.Covers(base) {
					continue
				}
				if !hasPlan || plan.DirectoryFor(tableType) == "" {
					result.report(db, tableType, base, tables,
						fmt.Sprintf("no warehouse plan or global location map entry covers %s", base))
					continue
				}
				if _, seen := claims[base]; !seen {
					bases = append(bases, base)
				}
				claims[base] = append(claims[base], baseClaim{
					database:  db,
					tableType: tableType,
					tables:    tables,
					desired:   JoinPath(plan.DirectoryFor(tableType), targetName(db)+constants.DEFAULT_DB_DIR_SUFFIX),
				})
			}
		}
	}

	for _, base := range bases {
		cs := claims[base]
		desired := lo.Uniq(lo.Map(cs, func(c baseClaim, _ int) string { return c.desired }))
		if len(desired) > 1 {
			dbs := lo.Uniq(lo.Map(cs, func(c baseClaim, _ int) string { return c.database }))
			msg := fmt.Sprintf("base %s is shared by managed and external tables with different targets", base)
			if len(dbs) > 1 {
				msg = fmt.Sprintf("base %s is shared by databases %s with different targets", base, strings.Join(dbs, ", "))
			}
			for _, c := range cs {
				result.report(c.database, c.tableType, base, c.tables, msg)
			}
			log.Warnf("no location map entry derived for %s: %s", base, msg)
			continue
		}
		result.Entries = append(result.Entries, GLMEntry{Source: base, Target: desired[0], Origin: LEVEL_WAREHOUSE_PLAN})
		log.Infof("warehouse plan for %s: %s -> %s (%s)", cs[0].database, base, desired[0], cs[0].tableType)
	}
	return result
}

func (r *ReconcileResult) report(db string, tableType constants.TableType, base string, tables []string, msg string) {
	for _, tbl := range tables {
		r.Findings = append(r.Findings, Finding{
			Database: db, Table: tbl, Type: tableType, Base: base, Message: msg,
		})
	}
}
