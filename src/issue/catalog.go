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
package issue

var AcidMigrationDisabled = register(Issue{
	Type:        ACID_MIGRATION_DISABLED,
	Name:        "ACID migration disabled",
	Description: "ACID table migration is disabled",
	Suggestion:  "Set migrate_acid.on to migrate transactional tables",
})

var AcidNotSupported = register(Issue{
	Type:        ACID_NOT_SUPPORTED,
	Name:        "ACID table not supported by strategy",
	Description: "%s does not support ACID tables",
	Suggestion:  "Use HYBRID, SQL or EXPORT_IMPORT with migrate_acid.on",
})

var AcidExportAcrossLegacy = register(Issue{
	Type:        ACID_EXPORT_ACROSS_LEGACY,
	Name:        "ACID EXPORT/IMPORT across Hive generations",
	Description: "EXPORT/IMPORT of ACID tables between legacy and modern Hive is not supported",
	Suggestion:  "Use HYBRID or SQL so the table goes through a transfer table",
})

var AcidPartitionLimit = register(Issue{
	Type:        ACID_PARTITION_LIMIT,
	Name:        "ACID partition limit exceeded",
	Description: "ACID table has %d partitions, above migrate_acid.partition_limit %d",
	Suggestion:  "Raise migrate_acid.partition_limit or migrate the table separately",
})

var ExportImportPartitionLimit = register(Issue{
	Type:        EXPORT_IMPORT_PARTITION_LIMIT,
	Name:        "EXPORT/IMPORT partition limit exceeded",
	Description: "table has %d partitions, above hybrid.export_import_partition_limit %d",
	Suggestion:  "Use HYBRID or SQL for heavily partitioned tables",
})

var SqlPartitionLimit = register(Issue{
	Type:        SQL_PARTITION_LIMIT,
	Name:        "SQL partition limit exceeded",
	Description: "table has %d partitions, above hybrid.sql_partition_limit %d",
	Suggestion:  "Raise hybrid.sql_partition_limit or move the data with distcp",
})

var SqlPartitionLimitBestEffort = register(Issue{
	Type:        SQL_PARTITION_LIMIT_BEST_EFFORT,
	Name:        "SQL partition limit exceeded (best effort)",
	Description: "table has %d partitions, above hybrid.sql_partition_limit %d; continuing with SQL on a best effort basis",
})

var SchemaExistsNoAction = register(Issue{
	Type:        SCHEMA_EXISTS_NO_ACTION,
	Name:        "Schema exists",
	Description: "Schema exists already, no action",
	Suggestion:  "Use sync to reconcile existing tables",
})

var SchemaExistsIfNotExists = register(Issue{
	Type:        SCHEMA_EXISTS_IF_NOT_EXISTS,
	Name:        "Schema exists, create if not exists",
	Description: "Schema exists already; CREATE ... IF NOT EXISTS is used so the existing table is kept",
})

var ImportIntoExisting = register(Issue{
	Type:        IMPORT_INTO_EXISTING,
	Name:        "IMPORT into existing table",
	Description: "IMPORT cannot load into the existing RIGHT table, EXPORT/IMPORT skipped and the table kept",
	Suggestion:  "Use SQL or HYBRID to refresh the data of existing tables",
})

var SchemaExistsMatches = register(Issue{
	Type:        SCHEMA_EXISTS_MATCHES,
	Name:        "Schema exists and matches",
	Description: "Schema exists already and matches, no action",
})

var SchemaExistsReplaced = register(Issue{
	Type:        SCHEMA_EXISTS_REPLACED,
	Name:        "Schema replaced",
	Description: "Schema exists already and differs; it will be dropped and recreated",
})

var SourceMissingDrop = register(Issue{
	Type:        SOURCE_MISSING_DROP,
	Name:        "Source table missing",
	Description: "Table no longer exists on LEFT; it will be dropped on RIGHT",
})

var SourceMissing = register(Issue{
	Type:        SOURCE_MISSING,
	Name:        "Source table missing",
	Description: "Table does not exist on LEFT",
})

var RightMissingConverted = register(Issue{
	Type:        RIGHT_MISSING_CONVERTED,
	Name:        "RIGHT table missing",
	Description: "RIGHT table does not exist; converted to %s",
})

var LocationNotMapped = register(Issue{
	Type:        LOCATION_NOT_MAPPED,
	Name:        "Location not mapped",
	Description: "location %s is not covered by the global location map; using %s",
	Suggestion:  "Add a warehouse plan or a global location map entry",
})

var LocationFinding = register(Issue{
	Type:        LOCATION_FINDING,
	Name:        "Location layout finding",
	Description: "%s",
})

var LocationReset = register(Issue{
	Type:        LOCATION_RESET,
	Name:        "Location reset",
	Description: "LOCATION removed; the table will use the RIGHT warehouse default",
})

var NoLocation = register(Issue{
	Type:        NO_LOCATION,
	Name:        "No location",
	Description: "%s table has no LOCATION",
})

var PartitionDiscovery = register(Issue{
	Type:        PARTITION_DISCOVERY,
	Name:        "Partition discovery",
	Description: "%d partitions will be registered with MSCK REPAIR TABLE",
})

var DistcpRequired = register(Issue{
	Type:        DISTCP_REQUIRED,
	Name:        "Data copy required",
	Description: "data must be copied from %s to %s before the RIGHT table is usable",
	Suggestion:  "See the distcp plan in the run report",
})

var EndpointUnavailable = register(Issue{
	Type:        ENDPOINT_UNAVAILABLE,
	Name:        "Endpoint unavailable",
	Description: "%s could not be queried (%v); assuming the table is absent",
})

var ViewNotMigrated = register(Issue{
	Type:        VIEW_NOT_MIGRATED,
	Name:        "View skipped",
	Description: "views are not migrated by %s",
	Suggestion:  "Set filter.migrate_views to migrate views with SCHEMA_ONLY",
})

var ReadOnlyNoDrop = register(Issue{
	Type:        READ_ONLY_NO_DROP,
	Name:        "Read only",
	Description: "read_only is set; RIGHT table is left in place",
})

var LegacyManagedUpgraded = register(Issue{
	Type:        LEGACY_MANAGED_UPGRADED,
	Name:        "Legacy managed table upgraded",
	Description: "legacy managed table is created as an external table that owns its data",
})
