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
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/schema"
)

func errNoLocation(u *migunit.MigrationUnit) error {
	return fmt.Errorf("%s: %s", u.QualifiedName(), issue.NoLocation.Instance(constants.LEFT).Message)
}

// exportDir is where EXPORT writes the table; both clusters must be able to read it.
func (d *Dispatcher) exportDir(u *migunit.MigrationUnit) string {
	base := d.cfg.Transfer.IntermediateStorage
	if base == "" {
		base = d.rc.Left.Namespace
	}
	return location.JoinPath(base+d.cfg.Transfer.ExportBaseDirPrefix+u.Database, u.Name)
}

// transferDir is the staging directory of a transfer table under storage.
func (d *Dispatcher) transferDir(u *migunit.MigrationUnit, storage string) string {
	return location.JoinPath(storage, d.cfg.Transfer.TransferPrefix+d.runID, u.Database, u.Name)
}

func (d *Dispatcher) stagingSpec(target constants.Environment, prefix, loc string) schema.CopySpec {
	return schema.CopySpec{
		Source:               constants.LEFT,
		Target:               target,
		MakeExternal:         true,
		MakeNonTransactional: true,
		NoPurge:              true,
		TableNamePrefix:      prefix,
		ReplaceLocation:      loc,
	}
}

// createShadow adds a RIGHT shadow table over loc to the RIGHT plan.
func (d *Dispatcher) createShadow(u *migunit.MigrationUnit, f Facts, loc string) (string, error) {
	shadowName := d.cfg.Transfer.ShadowPrefix + u.Name
	def, err := d.rewrite(u, d.stagingSpec(constants.SHADOW, d.cfg.Transfer.ShadowPrefix, loc))
	if err != nil {
		return "", err
	}
	shadow := u.Env(constants.SHADOW)
	shadow.Name = shadowName
	shadow.Definition = def
	shadow.Partitioned = f.Partitioned

	right := u.Env(constants.RIGHT)
	right.AddSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_TABLE, shadowName))
	right.AddSQL(CREATE_TABLE_DESC, strings.Join(def, "\n"))
	if f.Partitioned {
		right.AddSQL(MSCK_DESC, fmt.Sprintf(MSCK_REPAIR, shadowName))
	}
	right.AddCleanUpSQL(USE_DESC, fmt.Sprintf(USE, d.rightDatabase(u)))
	right.AddCleanUpSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_TABLE, shadowName))
	return shadowName, nil
}

// createTransfer adds a LEFT transfer table at loc filled from the source table.
func (d *Dispatcher) createTransfer(u *migunit.MigrationUnit, f Facts, loc string) (string, error) {
	transferName := d.cfg.Transfer.TransferPrefix + u.Name
	def, err := d.rewrite(u, d.stagingSpec(constants.TRANSFER, d.cfg.Transfer.TransferPrefix, loc))
	if err != nil {
		return "", err
	}
	transfer := u.Env(constants.TRANSFER)
	transfer.Name = transferName
	transfer.Definition = def
	transfer.Partitioned = f.Partitioned

	left := u.Env(constants.LEFT)
	useDatabase(left, u.Database)
	left.AddSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_TABLE, transferName))
	left.AddSQL(CREATE_TABLE_DESC, strings.Join(def, "\n"))
	copyData(left, f, schema.PartitionColumns(left.Definition), transferName, u.Name)
	left.AddCleanUpSQL(USE_DESC, fmt.Sprintf(USE, u.Database))
	left.AddCleanUpSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_TABLE, transferName))
	return transferName, nil
}

// finishFromShadow creates the RIGHT table and copies the shadow into it.
func (d *Dispatcher) finishFromShadow(u *migunit.MigrationUnit, f Facts, cs constants.CreateStrategy, shadowName string) error {
	loc, err := d.rightLocation(u, d.rc.Right.Namespace)
	if err != nil {
		return err
	}
	def, err := d.rewrite(u, d.rightSpec(u, f, loc))
	if err != nil {
		return err
	}
	right := u.Env(constants.RIGHT)
	right.Definition = def
	right.Partitioned = f.Partitioned
	emitCreate(right, cs, u.Name, def)
	copyData(right, f, schema.PartitionColumns(u.Env(constants.LEFT).Definition), u.Name, shadowName)
	return nil
}

/*
sqlHandler: a RIGHT shadow table reads the LEFT files in place, the RIGHT table is created at
its translated location and filled from the shadow.
*/
func sqlHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	cs, create := d.decideCreate(u)
	if !create {
		return nil
	}
	leftLoc := d.leftLocation(u)
	if leftLoc == "" {
		return errNoLocation(u)
	}
	useDatabase(u.Env(constants.RIGHT), d.rightDatabase(u))
	shadowName, err := d.createShadow(u, f, leftLoc)
	if err != nil {
		return err
	}
	return d.finishFromShadow(u, f, cs, shadowName)
}

func exportImportHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	cs, create := d.decideCreate(u)
	if !create {
		return nil
	}
	// Hive refuses IMPORT into a table that is already there
	if ifNotExists(u) {
		addIssue(u, constants.RIGHT, issue.ImportIntoExisting)
		return nil
	}
	left := u.Env(constants.LEFT)
	right := u.Env(constants.RIGHT)
	exportDir := d.exportDir(u)

	loc, err := d.rightLocation(u, d.rc.Right.Namespace)
	if err != nil {
		return err
	}
	spec := d.rightSpec(u, f, loc)
	def, err := d.rewrite(u, spec)
	if err != nil {
		return err
	}
	right.Definition = def
	right.Partitioned = f.Partitioned
	external := schema.IsExternal(def)

	useDatabase(left, u.Database)
	left.AddSQL(EXPORT_DESC, fmt.Sprintf(EXPORT_TABLE, u.Name, exportDir))

	useDatabase(right, d.rightDatabase(u))
	if cs == constants.CREATE_REPLACE {
		right.AddSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_TABLE, u.Name))
	}
	stmt := fmt.Sprintf(IMPORT_TABLE, u.Name, exportDir)
	if external {
		stmt = fmt.Sprintf(IMPORT_EXTERNAL_TABLE, u.Name, exportDir)
		if loc != "" {
			stmt += fmt.Sprintf(IMPORT_LOCATION, loc)
		}
	}
	right.AddSQL(IMPORT_DESC, stmt)
	if external && spec.TakeOwnership && !spec.NoPurge {
		right.AddSQL(SET_PROPERTY_DESC, fmt.Sprintf(SET_TBLPROPERTY, u.Name, constants.EXTERNAL_TABLE_PURGE, "true"))
	}
	if spec.Upgrade {
		right.AddSQL(SET_PROPERTY_DESC, fmt.Sprintf(SET_TBLPROPERTY, u.Name, constants.MIGRATED_FROM_LEGACY, "true"))
	}
	return nil
}

/*
intermediateHandler stages the data through storage both clusters can reach. With
intermediate storage the RIGHT table is filled from a shadow over the staged files; with
common storage the transfer table is written at the final RIGHT location and the RIGHT
table is created directly over it.
*/
func intermediateHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	cs, create := d.decideCreate(u)
	if !create {
		return nil
	}
	if d.cfg.Transfer.IntermediateStorage != "" {
		return d.stagedCopy(u, f, cs, d.transferDir(u, d.cfg.Transfer.IntermediateStorage))
	}
	return d.commonStorageCopy(u, f, cs)
}

func (d *Dispatcher) stagedCopy(u *migunit.MigrationUnit, f Facts, cs constants.CreateStrategy, transferLoc string) error {
	if _, err := d.createTransfer(u, f, transferLoc); err != nil {
		return err
	}
	useDatabase(u.Env(constants.RIGHT), d.rightDatabase(u))
	shadowName, err := d.createShadow(u, f, transferLoc)
	if err != nil {
		return err
	}
	return d.finishFromShadow(u, f, cs, shadowName)
}

func (d *Dispatcher) commonStorageCopy(u *migunit.MigrationUnit, f Facts, cs constants.CreateStrategy) error {
	loc, err := d.rightLocation(u, d.cfg.Transfer.CommonStorage)
	if err != nil {
		return err
	}
	if loc == "" {
		return fmt.Errorf("%s: common storage needs an explicit table location", u.QualifiedName())
	}
	if _, err := d.createTransfer(u, f, loc); err != nil {
		return err
	}
	def, err := d.rewrite(u, d.rightSpec(u, f, loc))
	if err != nil {
		return err
	}
	right := u.Env(constants.RIGHT)
	right.Definition = def
	right.Partitioned = f.Partitioned
	useDatabase(right, d.rightDatabase(u))
	emitCreate(right, cs, u.Name, def)
	if f.Partitioned {
		right.AddSQL(MSCK_DESC, fmt.Sprintf(MSCK_REPAIR, u.Name))
	}
	return nil
}

/*
acidHandler moves a transactional table through a non transactional transfer table. The
transfer lives on intermediate or common storage when configured, else under the LEFT
export base directory. The RIGHT table stays transactional unless downgrade is set.
*/
func acidHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	cs, create := d.decideCreate(u)
	if !create {
		return nil
	}
	var transferLoc string
	switch {
	case d.cfg.Transfer.IntermediateStorage != "":
		transferLoc = d.transferDir(u, d.cfg.Transfer.IntermediateStorage)
	case d.cfg.Transfer.CommonStorage != "":
		transferLoc = d.transferDir(u, d.cfg.Transfer.CommonStorage)
	default:
		transferLoc = location.JoinPath(d.rc.Left.Namespace+d.cfg.Transfer.ExportBaseDirPrefix+u.Database,
			d.cfg.Transfer.TransferPrefix+u.Name)
	}
	return d.stagedCopy(u, f, cs, transferLoc)
}
