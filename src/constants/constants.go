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
package constants

type DataStrategy string

const (
	DUMP              DataStrategy = "DUMP"
	SCHEMA_ONLY       DataStrategy = "SCHEMA_ONLY"
	LINKED            DataStrategy = "LINKED"
	CONVERT_LINKED    DataStrategy = "CONVERT_LINKED"
	COMMON            DataStrategy = "COMMON"
	SQL               DataStrategy = "SQL"
	EXPORT_IMPORT     DataStrategy = "EXPORT_IMPORT"
	HYBRID            DataStrategy = "HYBRID"
	STORAGE_MIGRATION DataStrategy = "STORAGE_MIGRATION"

	// reachable only through delegation
	ACID                                 DataStrategy = "ACID"
	INTERMEDIATE                         DataStrategy = "INTERMEDIATE"
	HYBRID_ACID_DOWNGRADE_INPLACE        DataStrategy = "HYBRID_ACID_DOWNGRADE_INPLACE"
	SQL_ACID_DOWNGRADE_INPLACE           DataStrategy = "SQL_ACID_DOWNGRADE_INPLACE"
	EXPORT_IMPORT_ACID_DOWNGRADE_INPLACE DataStrategy = "EXPORT_IMPORT_ACID_DOWNGRADE_INPLACE"
)

// UserDataStrategies are the strategies accepted as the top-level strategy of a run.
var UserDataStrategies = []DataStrategy{
	DUMP, SCHEMA_ONLY, LINKED, CONVERT_LINKED, COMMON, SQL, EXPORT_IMPORT, HYBRID, STORAGE_MIGRATION,
}

type Environment string

const (
	LEFT     Environment = "LEFT"
	RIGHT    Environment = "RIGHT"
	SHADOW   Environment = "SHADOW"
	TRANSFER Environment = "TRANSFER"
)

var AllEnvironments = []Environment{LEFT, RIGHT, SHADOW, TRANSFER}

type CreateStrategy string

const (
	CREATE_NOTHING CreateStrategy = "NOTHING"
	CREATE_LEAVE   CreateStrategy = "LEAVE"
	CREATE_DROP    CreateStrategy = "DROP"
	CREATE_REPLACE CreateStrategy = "REPLACE"
	CREATE_CREATE  CreateStrategy = "CREATE"
)

type PhaseState string

const (
	PHASE_INIT           PhaseState = "INIT"
	PHASE_STARTED        PhaseState = "STARTED"
	PHASE_CALCULATED_SQL PhaseState = "CALCULATED_SQL"
	PHASE_EXECUTED       PhaseState = "EXECUTED"
	PHASE_ERROR          PhaseState = "ERROR"
)

type TableType string

const (
	MANAGED_TABLE  TableType = "MANAGED_TABLE"
	EXTERNAL_TABLE TableType = "EXTERNAL_TABLE"
	VIRTUAL_VIEW   TableType = "VIRTUAL_VIEW"
)

type DataMovementStrategy string

const (
	MOVEMENT_SQL           DataMovementStrategy = "SQL"
	MOVEMENT_DISTCP        DataMovementStrategy = "DISTCP"
	MOVEMENT_EXPORT_IMPORT DataMovementStrategy = "EXPORT_IMPORT"
)

const (
	OBFUSCATE_STRING = "XXXXX"

	// Hive table properties
	TRANSACTIONAL_PROP      = "transactional"
	TRANSACTIONAL_PROPS     = "transactional_properties"
	EXTERNAL_TABLE_PURGE    = "external.table.purge"
	DISCOVER_PARTITIONS     = "discover.partitions"
	MIGRATED_FROM_LEGACY    = "hive-voyager.legacy_managed"
	CONVERTED_FROM_LINKED   = "hive-voyager.converted_from_linked"
	MIGRATION_STAGE_PROP    = "hive-voyager.stage"
	BUCKETING_VERSION_PROP  = "bucketing_version"
	DEFAULT_DB_DIR_SUFFIX   = ".db"
	DB_LOCATION             = "LOCATION"
	DB_MANAGED_LOCATION     = "MANAGEDLOCATION"
	DB_COMMENT              = "COMMENT"
	DB_OWNER                = "OWNER"
	DEFAULT_SHADOW_PREFIX   = "hv_shadow_"
	DEFAULT_TRANSFER_PREFIX = "hv_transfer_"
	DEFAULT_ARCHIVE_PREFIX  = "hv_archive_"
	DEFAULT_EXPORT_BASE_DIR = "/apps/hive/warehouse/export_"
)
