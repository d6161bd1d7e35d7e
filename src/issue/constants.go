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

// Types
const (
	ACID_MIGRATION_DISABLED         = "ACID_MIGRATION_DISABLED"
	ACID_NOT_SUPPORTED              = "ACID_NOT_SUPPORTED"
	ACID_EXPORT_ACROSS_LEGACY       = "ACID_EXPORT_ACROSS_LEGACY"
	ACID_PARTITION_LIMIT            = "ACID_PARTITION_LIMIT"
	EXPORT_IMPORT_PARTITION_LIMIT   = "EXPORT_IMPORT_PARTITION_LIMIT"
	SQL_PARTITION_LIMIT             = "SQL_PARTITION_LIMIT"
	SQL_PARTITION_LIMIT_BEST_EFFORT = "SQL_PARTITION_LIMIT_BEST_EFFORT"

	SCHEMA_EXISTS_NO_ACTION     = "SCHEMA_EXISTS_NO_ACTION"
	SCHEMA_EXISTS_IF_NOT_EXISTS = "SCHEMA_EXISTS_IF_NOT_EXISTS"
	IMPORT_INTO_EXISTING        = "IMPORT_INTO_EXISTING"
	SCHEMA_EXISTS_MATCHES       = "SCHEMA_EXISTS_MATCHES"
	SCHEMA_EXISTS_REPLACED      = "SCHEMA_EXISTS_REPLACED"
	SOURCE_MISSING_DROP         = "SOURCE_MISSING_DROP"
	SOURCE_MISSING              = "SOURCE_MISSING"
	RIGHT_MISSING_CONVERTED     = "RIGHT_MISSING_CONVERTED"

	LOCATION_NOT_MAPPED     = "LOCATION_NOT_MAPPED"
	LOCATION_FINDING        = "LOCATION_FINDING"
	LOCATION_RESET          = "LOCATION_RESET"
	NO_LOCATION             = "NO_LOCATION"
	PARTITION_DISCOVERY     = "PARTITION_DISCOVERY"
	DISTCP_REQUIRED         = "DISTCP_REQUIRED"
	ENDPOINT_UNAVAILABLE    = "ENDPOINT_UNAVAILABLE"
	VIEW_NOT_MIGRATED       = "VIEW_NOT_MIGRATED"
	READ_ONLY_NO_DROP       = "READ_ONLY_NO_DROP"
	LEGACY_MANAGED_UPGRADED = "LEGACY_MANAGED_UPGRADED"
)
