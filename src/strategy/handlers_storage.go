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

// The downgrade handlers only touch LEFT: the transactional table is archived and replaced
// by an external table with the same name.

func sqlDowngradeInPlaceHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	left := u.Env(constants.LEFT)
	archive := d.cfg.Transfer.ArchivePrefix + u.Name
	def, err := d.rewrite(u, schema.CopySpec{
		Source:               constants.LEFT,
		Target:               constants.LEFT,
		MakeExternal:         true,
		MakeNonTransactional: true,
		TakeOwnership:        !d.cfg.NoPurge,
		NoPurge:              d.cfg.NoPurge,
		StripLocation:        true,
	})
	if err != nil {
		return err
	}
	partitionColumns := schema.PartitionColumns(left.Definition)

	useDatabase(left, u.Database)
	left.AddSQL(RENAME_TABLE_DESC, fmt.Sprintf(RENAME_TABLE, u.Name, archive))
	left.AddSQL(CREATE_TABLE_DESC, strings.Join(def, "\n"))
	copyData(left, f, partitionColumns, u.Name, archive)
	left.AddCleanUpSQL(USE_DESC, fmt.Sprintf(USE, u.Database))
	left.AddCleanUpSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_TABLE, archive))
	left.Definition = def
	u.RemoveEnv(constants.RIGHT)
	return nil
}

func exportImportDowngradeInPlaceHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	left := u.Env(constants.LEFT)
	archive := d.cfg.Transfer.ArchivePrefix + u.Name
	exportDir := location.JoinPath(d.rc.Left.Namespace+d.cfg.Transfer.ExportBaseDirPrefix+u.Database, u.Name)

	useDatabase(left, u.Database)
	left.AddSQL(EXPORT_DESC, fmt.Sprintf(EXPORT_TABLE, u.Name, exportDir))
	left.AddSQL(RENAME_TABLE_DESC, fmt.Sprintf(RENAME_TABLE, u.Name, archive))
	left.AddSQL(IMPORT_DESC, fmt.Sprintf(IMPORT_EXTERNAL_TABLE, u.Name, exportDir))
	if !d.cfg.NoPurge {
		left.AddSQL(SET_PROPERTY_DESC, fmt.Sprintf(SET_TBLPROPERTY, u.Name, constants.EXTERNAL_TABLE_PURGE, "true"))
	}
	left.AddCleanUpSQL(USE_DESC, fmt.Sprintf(USE, u.Database))
	left.AddCleanUpSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_TABLE, archive))
	u.RemoveEnv(constants.RIGHT)
	return nil
}

/*
storageMigrationHandler moves a table to new storage on the same cluster.

	SQL     a new table is created at the translated location and filled, then swapped in
	        by renames; the original is kept under the archive prefix until cleanup
	DISTCP  only the metadata moves (table and partition locations); the files are
	        copied by the distcp plan
*/
func storageMigrationHandler(d *Dispatcher, u *migunit.MigrationUnit, f Facts) error {
	left := u.Env(constants.LEFT)
	namespace := d.rc.Right.Namespace
	if err := d.checkFindings(u); err != nil {
		return err
	}
	leftLoc := d.leftLocation(u)
	if leftLoc == "" {
		return errNoLocation(u)
	}
	newLoc, err := d.translate(u, constants.RIGHT, leftLoc, namespace)
	if err != nil {
		return err
	}

	useDatabase(left, u.Database)
	switch d.cfg.Transfer.StorageMigration.DataMovementStrategy {
	case constants.MOVEMENT_DISTCP:
		left.AddSQL(ALTER_LOCATION_DESC, fmt.Sprintf(ALTER_LOCATION, u.Name, newLoc))
		for _, spec := range left.SortedPartitionSpecs() {
			partLoc := d.qualifyLeft(left.Partitions[spec])
			if location.IsSubPath(leftLoc, partLoc) {
				// follow the table directory
				_, rel := location.SplitNamespace(partLoc)
				_, base := location.SplitNamespace(leftLoc)
				partLoc = location.JoinPath(newLoc, strings.TrimPrefix(location.NormalizePath(rel), location.NormalizePath(base)))
				d.translator.AddTranslation(u.Database, constants.RIGHT, d.qualifyLeft(left.Partitions[spec]), partLoc, location.LEVEL_RELATIVE)
			} else {
				partLoc, err = d.translate(u, constants.RIGHT, partLoc, namespace)
				if err != nil {
					return err
				}
			}
			clause, err := schema.PartitionClause(spec)
			if err != nil {
				return err
			}
			left.AddSQL(ALTER_PARTITION_DESC, fmt.Sprintf(ALTER_PARTITION_LOCATION, u.Name, clause, partLoc))
		}
		addIssue(u, constants.LEFT, issue.DistcpRequired, leftLoc, newLoc)

	default:
		transferName := d.cfg.Transfer.TransferPrefix + u.Name
		archive := d.cfg.Transfer.ArchivePrefix + u.Name
		spec := schema.CopySpec{
			Source:          constants.LEFT,
			Target:          constants.TRANSFER,
			TableNamePrefix: d.cfg.Transfer.TransferPrefix,
			TakeOwnership:   f.Owned && !d.cfg.NoPurge,
			NoPurge:         d.cfg.NoPurge,
			ReplaceLocation: newLoc,
		}
		if f.ACID {
			// transactional tables follow the database managed location
			spec.ReplaceLocation = ""
			spec.StripLocation = true
		}
		def, err := d.rewrite(u, spec)
		if err != nil {
			return err
		}
		transfer := u.Env(constants.TRANSFER)
		transfer.Name = transferName
		transfer.Definition = def
		transfer.Partitioned = f.Partitioned

		left.AddSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_TABLE, transferName))
		left.AddSQL(CREATE_TABLE_DESC, strings.Join(def, "\n"))
		copyData(left, f, schema.PartitionColumns(left.Definition), transferName, u.Name)
		left.AddSQL(RENAME_TABLE_DESC, fmt.Sprintf(RENAME_TABLE, u.Name, archive))
		left.AddSQL(RENAME_TABLE_DESC, fmt.Sprintf(RENAME_TABLE, transferName, u.Name))
		left.AddCleanUpSQL(USE_DESC, fmt.Sprintf(USE, u.Database))
		left.AddCleanUpSQL(DROP_TABLE_DESC, fmt.Sprintf(DROP_TABLE, archive))
	}
	u.RemoveEnv(constants.RIGHT)
	return nil
}
