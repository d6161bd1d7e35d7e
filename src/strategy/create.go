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
	"strings"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/issue"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/schema"
)

type CreateOptions struct {
	Sync              bool
	ReadOnly          bool
	CreateIfNotExists bool
}

/*
DecideCreateStrategy decides once per table which DDL the RIGHT side gets and stores it on
the RIGHT environment. An existing RIGHT table is never overwritten unless sync asks for it.

	LEFT missing, RIGHT exists, sync, not read only  -> DROP
	LEFT missing                                     -> NOTHING
	RIGHT exists, sync, same schema                  -> LEAVE
	RIGHT exists, sync, create if not exists         -> CREATE (IF NOT EXISTS)
	RIGHT exists, sync, different schema, writable   -> REPLACE
	RIGHT exists otherwise                           -> NOTHING
	RIGHT missing                                    -> CREATE
*/
func DecideCreateStrategy(u *migunit.MigrationUnit, opts CreateOptions) constants.CreateStrategy {
	left := u.Env(constants.LEFT)
	right := u.Env(constants.RIGHT)
	cs := decideCreate(u, left, right, opts)
	right.CreateStrategy = cs
	return cs
}

func decideCreate(u *migunit.MigrationUnit, left, right *migunit.EnvironmentTable, opts CreateOptions) constants.CreateStrategy {
	if !left.Exists {
		if right.Exists && opts.Sync {
			if opts.ReadOnly {
				addIssue(u, constants.RIGHT, issue.ReadOnlyNoDrop)
				return constants.CREATE_NOTHING
			}
			addIssue(u, constants.RIGHT, issue.SourceMissingDrop)
			return constants.CREATE_DROP
		}
		addIssue(u, constants.LEFT, issue.SourceMissing)
		return constants.CREATE_NOTHING
	}
	if !right.Exists {
		return constants.CREATE_CREATE
	}
	switch {
	case opts.Sync && schema.SameSchema(left.Definition, right.Definition):
		addIssue(u, constants.RIGHT, issue.SchemaExistsMatches)
		return constants.CREATE_LEAVE
	case opts.Sync && opts.CreateIfNotExists:
		addIssue(u, constants.RIGHT, issue.SchemaExistsIfNotExists)
		return constants.CREATE_CREATE
	case opts.Sync && !opts.ReadOnly:
		addIssue(u, constants.RIGHT, issue.SchemaExistsReplaced)
		return constants.CREATE_REPLACE
	}
	addIssue(u, constants.RIGHT, issue.SchemaExistsNoAction)
	return constants.CREATE_NOTHING
}

func (d *Dispatcher) createOptions() CreateOptions {
	return CreateOptions{Sync: d.cfg.Sync, ReadOnly: d.cfg.ReadOnly, CreateIfNotExists: d.cfg.CreateIfNotExists}
}

// decideCreate runs the decision and reports whether the RIGHT table gets any DDL.
func (d *Dispatcher) decideCreate(u *migunit.MigrationUnit) (constants.CreateStrategy, bool) {
	cs := DecideCreateStrategy(u, d.createOptions())
	return cs, cs == constants.CREATE_CREATE || cs == constants.CREATE_REPLACE
}

// ifNotExists tells the rewriter to emit CREATE ... IF NOT EXISTS for a table known to exist.
func ifNotExists(u *migunit.MigrationUnit) bool {
	right := u.Env(constants.RIGHT)
	return right.Exists && right.CreateStrategy == constants.CREATE_CREATE
}

// emitCreate appends the DDL for table according to the create strategy of the unit.
func emitCreate(e *migunit.EnvironmentTable, cs constants.CreateStrategy, table string, definition []string) {
	switch cs {
	case constants.CREATE_REPLACE:
		e.AddSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_TABLE, table))
		e.AddSQL(CREATE_TABLE_DESC, strings.Join(definition, "\n"))
	case constants.CREATE_CREATE:
		e.AddSQL(CREATE_TABLE_DESC, strings.Join(definition, "\n"))
	case constants.CREATE_DROP:
		e.AddSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_TABLE, table))
	}
}

func useDatabase(e *migunit.EnvironmentTable, database string) {
	e.AddSQL(USE_DESC, fmt.Sprintf(USE, database))
}

// sourceMissing handles a RIGHT table whose LEFT counterpart is gone.
func (d *Dispatcher) sourceMissing(u *migunit.MigrationUnit) error {
	cs := DecideCreateStrategy(u, d.createOptions())
	if cs != constants.CREATE_DROP {
		return nil
	}
	right := u.Env(constants.RIGHT)
	useDatabase(right, d.rightDatabase(u))
	emitCreate(right, cs, u.Name, nil)
	return nil
}
