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
	"github.com/yugabyte/hive-voyager/src/config"
	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/schema"
)

// Facts is everything the decision table looks at for one table. It is a plain value so a
// decision can be logged, persisted and replayed.
type Facts struct {
	LeftExists     bool `json:"left_exists"`
	RightExists    bool `json:"right_exists"`
	View           bool `json:"view"`
	ACID           bool `json:"acid"`
	InsertOnly     bool `json:"insert_only"`
	Managed        bool `json:"managed"`
	Owned          bool `json:"owned"`
	Partitioned    bool `json:"partitioned"`
	PartitionCount int  `json:"partition_count"`

	LegacyMigration       bool `json:"legacy_migration"`
	LeftLegacy            bool `json:"left_legacy"`
	RightLegacy           bool `json:"right_legacy"`
	StorageOptionsPresent bool `json:"storage_options_present"`
}

// FactsFor derives the facts of a unit from its LEFT and RIGHT records.
func FactsFor(u *migunit.MigrationUnit, rc config.RunContext, cfg *config.Config) Facts {
	left := u.Env(constants.LEFT)
	f := Facts{
		LeftExists:            left.Exists,
		LegacyMigration:       rc.LegacyMigration(),
		LeftLegacy:            rc.Left.Legacy,
		RightLegacy:           rc.Right.Legacy,
		StorageOptionsPresent: cfg.Transfer.StorageOptionsPresent(),
	}
	if right, ok := u.Environments[constants.RIGHT]; ok {
		f.RightExists = right.Exists
	}
	if !left.Exists {
		return f
	}
	def := left.Definition
	f.View = schema.IsView(def)
	f.ACID = schema.IsACID(def)
	f.InsertOnly = schema.IsInsertOnly(def)
	f.Managed = schema.IsManaged(def)
	f.Owned = schema.IsOwned(def)
	f.Partitioned = left.Partitioned || schema.IsPartitioned(def)
	f.PartitionCount = left.PartitionCount()
	return f
}

// Policy is the part of the configuration the decision table depends on.
type Policy struct {
	MigrateACID                bool `json:"migrate_acid"`
	DowngradeInPlace           bool `json:"downgrade_in_place"`
	MigrateViews               bool `json:"migrate_views"`
	Strict                     bool `json:"strict"`
	ExportImportPartitionLimit int  `json:"export_import_partition_limit"`
	SqlPartitionLimit          int  `json:"sql_partition_limit"`
	AcidPartitionLimit         int  `json:"acid_partition_limit"`
}

func PolicyFrom(cfg *config.Config) Policy {
	return Policy{
		MigrateACID:                cfg.MigrateACID.On,
		DowngradeInPlace:           cfg.MigrateACID.IsDowngradeInPlace(),
		MigrateViews:               cfg.Filter.MigrateViews,
		Strict:                     cfg.Strict,
		ExportImportPartitionLimit: cfg.Hybrid.ExportImportPartitionLimit,
		SqlPartitionLimit:          cfg.Hybrid.SqlPartitionLimit,
		AcidPartitionLimit:         cfg.MigrateACID.PartitionLimit,
	}
}
