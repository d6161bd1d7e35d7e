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
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sourcegraph/conc/pool"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/hive-voyager/src/catalog"
	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/issue"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/schema"
)

type scannedDatabase struct {
	du    *migunit.DatabaseUnit
	units []*migunit.MigrationUnit
}

func addIssue(u *migunit.MigrationUnit, env constants.Environment, i issue.Issue, args ...interface{}) {
	u.Env(env).AddIssue("%s", i.Instance(args...).String())
}

/*
scanDatabase loads the database facts of both sides and the facts of every table that
passes the filters. Table lookups run on the worker pool; the result is in table order.
Source locations are recorded in b as tables are loaded.
*/
func (r *Runner) scanDatabase(ctx context.Context, db string, b *location.WarehouseMapBuilder) (*scannedDatabase, error) {
	du := migunit.NewDatabaseUnit(db)
	leftDB, err := r.left.GetDatabase(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("describe database %s on LEFT: %w", db, err)
	}
	du.Env(constants.LEFT).Exists = true
	du.Env(constants.LEFT).Properties = leftDB.Properties

	rightName := r.cfg.TargetDatabaseName(db)
	rightExists := false
	if r.right != nil && NeedsRight(r.cfg.DataStrategy) {
		du.Env(constants.RIGHT).Name = rightName
		rightExists, err = r.right.DatabaseExists(ctx, rightName)
		if err != nil {
			log.Warnf("look up database %s on RIGHT: %v", rightName, err)
			du.Env(constants.RIGHT).AddIssue("%s", issue.EndpointUnavailable.Instance("RIGHT database "+rightName, err).String())
			rightExists = false
		}
		if rightExists {
			rightDB, err := r.right.GetDatabase(ctx, rightName)
			if err != nil {
				log.Warnf("describe database %s on RIGHT: %v", rightName, err)
				du.Env(constants.RIGHT).AddIssue("%s", issue.EndpointUnavailable.Instance("RIGHT database "+rightName, err).String())
			} else {
				du.Env(constants.RIGHT).Exists = true
				du.Env(constants.RIGHT).Properties = rightDB.Properties
			}
		}
	}

	tables, err := r.left.ListTables(ctx, db)
	if err != nil {
		log.Errorf("list tables of %s on LEFT: %v", db, err)
		du.Env(constants.LEFT).AddIssue("tables could not be listed: %v", err)
		return &scannedDatabase{du: du}, nil
	}
	leftTables := mapset.NewThreadUnsafeSet[string]()
	for _, t := range tables {
		if r.cfg.SkipTable(t) {
			log.Debugf("table %s.%s filtered out", db, t)
			continue
		}
		leftTables.Add(t)
	}
	// with sync, tables that only exist on RIGHT are planned too so they can be dropped
	rightOnly := mapset.NewThreadUnsafeSet[string]()
	if r.cfg.Sync && rightExists {
		rightTables, err := r.right.ListTables(ctx, rightName)
		if err != nil {
			// tables only on RIGHT cannot be found, so none of them is planned for DROP
			log.Warnf("list tables of %s on RIGHT: %v", rightName, err)
			du.Env(constants.RIGHT).AddIssue("%s", issue.EndpointUnavailable.Instance("RIGHT tables of "+rightName, err).String())
		}
		for _, t := range rightTables {
			if !leftTables.Contains(t) && !r.cfg.SkipTable(t) {
				rightOnly.Add(t)
			}
		}
	}

	var mu sync.Mutex
	var units []*migunit.MigrationUnit
	p := pool.New().WithMaxGoroutines(r.cfg.Workers)
	for _, t := range append(leftTables.ToSlice(), rightOnly.ToSlice()...) {
		if ctx.Err() != nil {
			break
		}
		t := t
		onLeft := leftTables.Contains(t)
		p.Go(func() {
			u := r.loadUnit(ctx, db, rightName, t, onLeft, rightExists)
			if u == nil {
				return
			}
			if onLeft {
				r.addSourceLocations(b, u)
			}
			mu.Lock()
			units = append(units, u)
			mu.Unlock()
		})
	}
	p.Wait()
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	for _, u := range units {
		du.Tables = append(du.Tables, u.Name)
	}
	log.Infof("scanned database %s: %d tables to migrate", db, len(units))
	return &scannedDatabase{du: du, units: units}, nil
}

/*
loadUnit returns nil when the table is filtered by its definition. A LEFT lookup that
fails leaves the unit in ERROR: planning a table from unknown facts could drop RIGHT
data. A RIGHT lookup that fails is recorded as an issue and the table is taken as absent.
*/
func (r *Runner) loadUnit(ctx context.Context, db, rightDB, table string, onLeft, rightDBExists bool) *migunit.MigrationUnit {
	u := migunit.NewMigrationUnit(db, table)
	if onLeft {
		left := u.Env(constants.LEFT)
		def, err := r.left.GetDefinition(ctx, db, table)
		if err != nil {
			u.Fail(constants.LEFT, "definition could not be loaded: %v", err)
			return u
		}
		if r.cfg.MigrateACID.Only && !schema.IsACID(def) {
			log.Debugf("table %s.%s is not transactional, skipped by migrate_acid.only", db, table)
			return nil
		}
		if schema.IsView(def) && !r.cfg.Filter.MigrateViews {
			log.Debugf("view %s.%s skipped", db, table)
			return nil
		}
		left.Exists = true
		left.Definition = def
		left.Properties = schema.Properties(def)
		left.Partitioned = schema.IsPartitioned(def)
		if left.Partitioned {
			parts, err := r.left.ListPartitions(ctx, db, table)
			if err != nil {
				u.Fail(constants.LEFT, "partitions could not be listed: %v", err)
				return u
			}
			catalog.FillPartitionLocations(parts, schema.TableLocation(def))
			left.Partitions = parts
		}
	} else {
		u.Env(constants.LEFT).Exists = false
	}

	if r.right == nil || !NeedsRight(r.cfg.DataStrategy) {
		u.RemoveEnv(constants.RIGHT)
		return u
	}
	right := u.Env(constants.RIGHT)
	if !rightDBExists {
		return u
	}
	exists, err := r.right.TableExists(ctx, rightDB, table)
	if err != nil {
		log.Warnf("look up %s.%s on RIGHT: %v", rightDB, table, err)
		addIssue(u, constants.RIGHT, issue.EndpointUnavailable, "RIGHT table "+rightDB+"."+table, err)
		return u
	}
	if !exists {
		return u
	}
	def, err := r.right.GetDefinition(ctx, rightDB, table)
	if err != nil {
		log.Warnf("definition of %s.%s on RIGHT: %v", rightDB, table, err)
		addIssue(u, constants.RIGHT, issue.EndpointUnavailable, "RIGHT table "+rightDB+"."+table, err)
		return u
	}
	right.Exists = true
	right.Definition = def
	right.Properties = schema.Properties(def)
	right.Partitioned = schema.IsPartitioned(def)
	return u
}

func (r *Runner) addSourceLocations(b *location.WarehouseMapBuilder, u *migunit.MigrationUnit) {
	left := u.Env(constants.LEFT)
	if u.Phase == constants.PHASE_ERROR || schema.IsView(left.Definition) {
		return
	}
	tableType := schema.TableType(left.Definition)
	tableLocation := schema.TableLocation(left.Definition)
	level := r.cfg.Translator.ConsolidationLevel
	mismatch := r.cfg.Translator.PartitionLevelMismatch
	if tableLocation != "" {
		if err := b.AddSourceLocation(u.Database, u.Name, tableType, "", tableLocation, "", level, mismatch); err != nil {
			log.Warnf("%v", err)
		}
	}
	for _, spec := range left.SortedPartitionSpecs() {
		err := b.AddSourceLocation(u.Database, u.Name, tableType, spec, tableLocation, left.Partitions[spec], level, mismatch)
		if err != nil {
			log.Warnf("%v", err)
		}
	}
}
