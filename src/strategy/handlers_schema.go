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

const DROP_VIEW = "DROP VIEW IF EXISTS `%s`"

func (d *Dispatcher) rewrite(u *migunit.MigrationUnit, spec schema.CopySpec) ([]string, error) {
	out, err := d.rewriter.Rewrite(u.Env(spec.Source).Definition, spec)
	if err != nil {
		return nil, fmt.Errorf("build %s definition of %s: %w", spec.Target, u.QualifiedName(), err)
	}
	return out, nil
}

// ownership: the new table may purge its data only when the source table owned its own.
func (d *Dispatcher) ownership(f Facts) bool {
	return !d.cfg.ReadOnly && !d.cfg.NoPurge && f.Owned
}

// upgrade: legacy managed non transactional tables become external tables on modern Hive.
func (d *Dispatcher) upgrade(f Facts) bool {
	return f.LegacyMigration && f.LeftLegacy && f.Managed && !f.ACID
}

// rightSpec is the CopySpec of the final RIGHT table at loc ("" strips the location).
func (d *Dispatcher) rightSpec(u *migunit.MigrationUnit, f Facts, loc string) schema.CopySpec {
	spec := schema.CopySpec{
		Source:            constants.LEFT,
		Target:            constants.RIGHT,
		Upgrade:           d.upgrade(f),
		TakeOwnership:     d.ownership(f),
		NoPurge:           d.cfg.NoPurge,
		ReplaceLocation:   loc,
		StripLocation:     loc == "",
		CreateIfNotExists: ifNotExists(u),
	}
	if f.ACID && d.cfg.MigrateACID.Downgrade {
		spec.MakeExternal = true
		spec.MakeNonTransactional = true
	}
	if f.Partitioned && d.rc.Right.AutoDiscovery {
		spec.AddProperties = map[string]string{constants.DISCOVER_PARTITIONS: "true"}
	}
	if spec.Upgrade {
		addIssue(u, constants.RIGHT, issue.LegacyManagedUpgraded)
	}
	return spec
}

func dumpHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	left := u.Env(constants.LEFT)
	useDatabase(left, u.Database)
	left.AddSQL(CREATE_TABLE_DESC, strings.Join(left.Definition, "\n"))
	if f.Partitioned {
		for _, spec := range left.SortedPartitionSpecs() {
			clause, err := schema.PartitionClause(spec)
			if err != nil {
				return err
			}
			left.AddSQL(ADD_PARTITION_DESC, fmt.Sprintf(ADD_PARTITION_LOCATION, u.Name, clause, d.qualifyLeft(left.Partitions[spec])))
		}
	}
	u.RemoveEnv(constants.RIGHT)
	return nil
}

func schemaOnlyHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	cs, create := d.decideCreate(u)
	if !create {
		return nil
	}
	return d.buildSchemaOnly(u, f, cs, nil)
}

func (d *Dispatcher) buildSchemaOnly(u *migunit.MigrationUnit, f Facts, cs constants.CreateStrategy, props map[string]string) error {
	right := u.Env(constants.RIGHT)
	rightDB := d.rightDatabase(u)
	if f.View {
		def, err := d.rewrite(u, schema.CopySpec{Source: constants.LEFT, Target: constants.RIGHT, CreateIfNotExists: ifNotExists(u)})
		if err != nil {
			return err
		}
		right.Definition = def
		useDatabase(right, rightDB)
		if cs == constants.CREATE_REPLACE {
			right.AddSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_VIEW, u.Name))
		}
		right.AddSQL(CREATE_TABLE_DESC, strings.Join(def, "\n"))
		return nil
	}

	loc, err := d.rightLocation(u, d.rc.Right.Namespace)
	if err != nil {
		return err
	}
	spec := d.rightSpec(u, f, loc)
	for k, v := range props {
		if spec.AddProperties == nil {
			spec.AddProperties = make(map[string]string)
		}
		spec.AddProperties[k] = v
	}
	def, err := d.rewrite(u, spec)
	if err != nil {
		return err
	}
	right.Definition = def
	right.Partitioned = f.Partitioned
	useDatabase(right, rightDB)
	emitCreate(right, cs, u.Name, def)
	if err := d.registerPartitions(u, f, right, u.Name, d.rc.Right.Namespace, false); err != nil {
		return err
	}
	if leftLoc := d.leftLocation(u); loc != "" && leftLoc != loc {
		addIssue(u, constants.RIGHT, issue.DistcpRequired, leftLoc, loc)
	}
	return nil
}

// sharedStorageTable creates a RIGHT table over the LEFT data, without claiming it.
func (d *Dispatcher) sharedStorageTable(u *migunit.MigrationUnit, f Facts, s constants.DataStrategy) error {
	cs, create := d.decideCreate(u)
	if !create {
		return nil
	}
	leftLoc := d.leftLocation(u)
	if leftLoc == "" {
		return fmt.Errorf("%s", issue.NoLocation.Instance("LEFT").Message)
	}
	def, err := d.rewrite(u, schema.CopySpec{
		Source:            constants.LEFT,
		Target:            constants.RIGHT,
		MakeExternal:      true,
		NoPurge:           true,
		ReplaceLocation:   leftLoc,
		CreateIfNotExists: ifNotExists(u),
		AddProperties:     map[string]string{constants.MIGRATION_STAGE_PROP: string(s)},
	})
	if err != nil {
		return err
	}
	right := u.Env(constants.RIGHT)
	right.Definition = def
	right.Partitioned = f.Partitioned
	useDatabase(right, d.rightDatabase(u))
	emitCreate(right, cs, u.Name, def)
	return d.registerPartitions(u, f, right, u.Name, "", true)
}

func linkedHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	return d.sharedStorageTable(u, f, constants.LINKED)
}

func commonHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	return d.sharedStorageTable(u, f, constants.COMMON)
}

// convertLinkedHandler replaces a linked RIGHT table by a regular schema-only table.
func convertLinkedHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	right := u.Env(constants.RIGHT)
	if schema.IsOwned(right.Definition) {
		return fmt.Errorf("RIGHT table %s owns its data and is not a linked table", u.QualifiedName())
	}
	if d.cfg.ReadOnly {
		return fmt.Errorf("read_only forbids dropping the linked RIGHT table %s", u.QualifiedName())
	}
	right.CreateStrategy = constants.CREATE_REPLACE
	return d.buildSchemaOnly(u, f, constants.CREATE_REPLACE, map[string]string{constants.CONVERTED_FROM_LINKED: "true"})
}
