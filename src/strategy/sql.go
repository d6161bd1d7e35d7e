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

const (
	USE_DESC = "Selecting database"
	USE      = "USE `%s`"

	CREATE_DB_DESC              = "Create database"
	CREATE_DB                   = "CREATE DATABASE IF NOT EXISTS `%s`"
	ALTER_DB_LOCATION_DESC      = "Set database location"
	ALTER_DB_LOCATION           = "ALTER DATABASE `%s` SET LOCATION '%s'"
	ALTER_DB_MNGD_LOCATION_DESC = "Set database managed location"
	ALTER_DB_MNGD_LOCATION      = "ALTER DATABASE `%s` SET MANAGEDLOCATION '%s'"

	CREATE_TABLE_DESC   = "Create table"
	DROP_TABLE_DESC     = "Drop table"
	DROP_TABLE          = "DROP TABLE IF EXISTS `%s`"
	RENAME_TABLE_DESC   = "Rename table"
	RENAME_TABLE        = "ALTER TABLE `%s` RENAME TO `%s`"
	SET_PROPERTY_DESC   = "Set table property"
	SET_TBLPROPERTY     = "ALTER TABLE `%s` SET TBLPROPERTIES ('%s'='%s')"
	ALTER_LOCATION_DESC = "Set table location"
	ALTER_LOCATION      = "ALTER TABLE `%s` SET LOCATION '%s'"

	MSCK_DESC                = "Discover partitions"
	MSCK_REPAIR              = "MSCK REPAIR TABLE `%s`"
	ADD_PARTITION_DESC       = "Add partition"
	ADD_PARTITION_LOCATION   = "ALTER TABLE `%s` ADD IF NOT EXISTS PARTITION (%s) LOCATION '%s'"
	ALTER_PARTITION_DESC     = "Set partition location"
	ALTER_PARTITION_LOCATION = "ALTER TABLE `%s` PARTITION (%s) SET LOCATION '%s'"

	EXPORT_DESC           = "Export table"
	EXPORT_TABLE          = "EXPORT TABLE `%s` TO '%s'"
	IMPORT_DESC           = "Import table"
	IMPORT_TABLE          = "IMPORT TABLE `%s` FROM '%s'"
	IMPORT_EXTERNAL_TABLE = "IMPORT EXTERNAL TABLE `%s` FROM '%s'"
	IMPORT_LOCATION       = " LOCATION '%s'"

	SET_DYNAMIC_PARTITION_DESC   = "Enable dynamic partitions"
	SET_DYNAMIC_PARTITION        = "SET hive.exec.dynamic.partition=true"
	SET_DYNAMIC_PARTITION_MODE   = "SET hive.exec.dynamic.partition.mode=nonstrict"
	INSERT_DESC                  = "Copy data"
	INSERT_OVERWRITE             = "INSERT OVERWRITE TABLE `%s` SELECT * FROM `%s`"
	INSERT_OVERWRITE_PARTITIONED = "INSERT OVERWRITE TABLE `%s` PARTITION (%s) SELECT * FROM `%s`"
)
