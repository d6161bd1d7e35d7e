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
package config

import (
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	goerrors "github.com/go-errors/errors"
	"github.com/samber/lo"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/hiveversion"
	"github.com/yugabyte/hive-voyager/src/location"
)

const (
	DEFAULT_EXPORT_IMPORT_PARTITION_LIMIT = 100
	DEFAULT_SQL_PARTITION_LIMIT           = 500
	DEFAULT_SQL_SIZE_LIMIT                = "1GiB"
	DEFAULT_ACID_PARTITION_LIMIT          = 500
	DEFAULT_CONSOLIDATION_LEVEL           = 1
	DEFAULT_CATALOG_TIMEOUT               = 30 * time.Second
	MAX_DEFAULT_WORKERS                   = 8
)

type Config struct {
	DataStrategy           constants.DataStrategy `mapstructure:"data_strategy" yaml:"data_strategy" json:"data_strategy"`
	Databases              []string               `mapstructure:"databases" yaml:"databases" json:"databases"`
	DbPrefix               string                 `mapstructure:"db_prefix" yaml:"db_prefix" json:"db_prefix"`
	DbRename               string                 `mapstructure:"db_rename" yaml:"db_rename" json:"db_rename"`
	Filter                 Filter                 `mapstructure:"filter" yaml:"filter" json:"filter"`
	ReadOnly               bool                   `mapstructure:"read_only" yaml:"read_only" json:"read_only"`
	NoPurge                bool                   `mapstructure:"no_purge" yaml:"no_purge" json:"no_purge"`
	Sync                   bool                   `mapstructure:"sync" yaml:"sync" json:"sync"`
	CreateIfNotExists      bool                   `mapstructure:"create_if_not_exists" yaml:"create_if_not_exists" json:"create_if_not_exists"`
	Execute                bool                   `mapstructure:"execute" yaml:"execute" json:"execute"`
	Strict                 bool                   `mapstructure:"strict" yaml:"strict" json:"strict"`
	Flip                   bool                   `mapstructure:"flip" yaml:"flip" json:"flip"`
	ResetToDefaultLocation bool                   `mapstructure:"reset_to_default_location" yaml:"reset_to_default_location" json:"reset_to_default_location"`
	Workers                int                    `mapstructure:"workers" yaml:"workers" json:"workers"`
	OutputDir              string                 `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	CatalogTimeout         time.Duration          `mapstructure:"catalog_timeout" yaml:"catalog_timeout" json:"catalog_timeout"`
	MetricsPort            int                    `mapstructure:"metrics_port" yaml:"metrics_port" json:"metrics_port"`

	MigrateACID MigrateACID      `mapstructure:"migrate_acid" yaml:"migrate_acid" json:"migrate_acid"`
	Hybrid      Hybrid           `mapstructure:"hybrid" yaml:"hybrid" json:"hybrid"`
	Transfer    Transfer         `mapstructure:"transfer" yaml:"transfer" json:"transfer"`
	Translator  TranslatorConfig `mapstructure:"translator" yaml:"translator" json:"translator"`
	Clusters    Clusters         `mapstructure:"clusters" yaml:"clusters" json:"clusters"`
}

type Filter struct {
	TableRegex        string `mapstructure:"table_regex" yaml:"table_regex" json:"table_regex"`
	TableExcludeRegex string `mapstructure:"table_exclude_regex" yaml:"table_exclude_regex" json:"table_exclude_regex"`
	MigrateViews      bool   `mapstructure:"migrate_views" yaml:"migrate_views" json:"migrate_views"`
}

type MigrateACID struct {
	On             bool `mapstructure:"on" yaml:"on" json:"on"`
	Only           bool `mapstructure:"only" yaml:"only" json:"only"`
	Downgrade      bool `mapstructure:"downgrade" yaml:"downgrade" json:"downgrade"`
	Inplace        bool `mapstructure:"inplace" yaml:"inplace" json:"inplace"`
	PartitionLimit int  `mapstructure:"partition_limit" yaml:"partition_limit" json:"partition_limit"`
}

// IsDowngradeInPlace reports the in-place conversion of transactional tables on LEFT.
func (m MigrateACID) IsDowngradeInPlace() bool {
	return m.Downgrade && m.Inplace
}

type Hybrid struct {
	ExportImportPartitionLimit int    `mapstructure:"export_import_partition_limit" yaml:"export_import_partition_limit" json:"export_import_partition_limit"`
	SqlPartitionLimit          int    `mapstructure:"sql_partition_limit" yaml:"sql_partition_limit" json:"sql_partition_limit"`
	SqlSizeLimit               string `mapstructure:"sql_size_limit" yaml:"sql_size_limit" json:"sql_size_limit"`
}

func (h Hybrid) SqlSizeLimitBytes() (uint64, error) {
	if h.SqlSizeLimit == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(h.SqlSizeLimit)
	if err != nil {
		return 0, goerrors.Errorf("invalid hybrid.sql_size_limit %q: %v", h.SqlSizeLimit, err)
	}
	return n, nil
}

type StorageMigration struct {
	DataMovementStrategy constants.DataMovementStrategy `mapstructure:"data_movement_strategy" yaml:"data_movement_strategy" json:"data_movement_strategy"`
}

type Transfer struct {
	ShadowPrefix        string              `mapstructure:"shadow_prefix" yaml:"shadow_prefix" json:"shadow_prefix"`
	TransferPrefix      string              `mapstructure:"transfer_prefix" yaml:"transfer_prefix" json:"transfer_prefix"`
	ArchivePrefix       string              `mapstructure:"archive_prefix" yaml:"archive_prefix" json:"archive_prefix"`
	ExportBaseDirPrefix string              `mapstructure:"export_base_dir_prefix" yaml:"export_base_dir_prefix" json:"export_base_dir_prefix"`
	IntermediateStorage string              `mapstructure:"intermediate_storage" yaml:"intermediate_storage" json:"intermediate_storage"`
	CommonStorage       string              `mapstructure:"common_storage" yaml:"common_storage" json:"common_storage"`
	TargetNamespace     string              `mapstructure:"target_namespace" yaml:"target_namespace" json:"target_namespace"`
	StorageMigration    StorageMigration    `mapstructure:"storage_migration" yaml:"storage_migration" json:"storage_migration"`
	Warehouse           *location.Warehouse `mapstructure:"warehouse" yaml:"warehouse" json:"warehouse"`
}

func (t Transfer) StorageOptionsPresent() bool {
	return t.IntermediateStorage != "" || t.CommonStorage != ""
}

type GLMEntry struct {
	Source string `mapstructure:"source" yaml:"source" json:"source"`
	Target string `mapstructure:"target" yaml:"target" json:"target"`
}

// Listed rather than keyed: viper folds map keys to lower case, which would corrupt paths.
type TranslatorConfig struct {
	GlobalLocationMap      []GLMEntry                    `mapstructure:"global_location_map" yaml:"global_location_map" json:"global_location_map"`
	ConsolidationLevel     int                           `mapstructure:"consolidation_level" yaml:"consolidation_level" json:"consolidation_level"`
	PartitionLevelMismatch bool                          `mapstructure:"partition_level_mismatch" yaml:"partition_level_mismatch" json:"partition_level_mismatch"`
	EvaluatePartitions     bool                          `mapstructure:"evaluate_partition_location" yaml:"evaluate_partition_location" json:"evaluate_partition_location"`
	WarehousePlans         map[string]location.Warehouse `mapstructure:"warehouse_plans" yaml:"warehouse_plans" json:"warehouse_plans"`
}

type HiveServer2 struct {
	Uri        string `mapstructure:"uri" yaml:"uri" json:"uri"`
	DriverName string `mapstructure:"driver_name" yaml:"driver_name" json:"driver_name"`
}

type MetastoreDirect struct {
	// mysql or postgres
	Type string `mapstructure:"type" yaml:"type" json:"type"`
	Uri  string `mapstructure:"uri" yaml:"uri" json:"uri"`
}

type PartitionDiscovery struct {
	Auto     bool `mapstructure:"auto" yaml:"auto" json:"auto"`
	InitMSCK bool `mapstructure:"init_msck" yaml:"init_msck" json:"init_msck"`
}

type Cluster struct {
	Version            string             `mapstructure:"version" yaml:"version" json:"version"`
	Legacy             bool               `mapstructure:"legacy" yaml:"legacy" json:"legacy"`
	HcfsNamespace      string             `mapstructure:"hcfs_namespace" yaml:"hcfs_namespace" json:"hcfs_namespace"`
	HiveServer2        *HiveServer2       `mapstructure:"hiveserver2" yaml:"hiveserver2" json:"hiveserver2"`
	MetastoreDirect    *MetastoreDirect   `mapstructure:"metastore_direct" yaml:"metastore_direct" json:"metastore_direct"`
	PartitionDiscovery PartitionDiscovery `mapstructure:"partition_discovery" yaml:"partition_discovery" json:"partition_discovery"`
	SnapshotPath       string             `mapstructure:"snapshot_path" yaml:"snapshot_path" json:"snapshot_path"`
}

// IsLegacy prefers the reported version over the legacy flag.
func (c Cluster) IsLegacy() bool {
	if c.Version != "" {
		if legacy, err := hiveversion.IsLegacyVersion(c.Version); err == nil {
			return legacy
		}
	}
	return c.Legacy
}

func (c Cluster) Configured() bool {
	return c.HiveServer2 != nil || c.SnapshotPath != ""
}

type Clusters struct {
	Left  Cluster `mapstructure:"left" yaml:"left" json:"left"`
	Right Cluster `mapstructure:"right" yaml:"right" json:"right"`
}

func DefaultWorkers() int {
	return lo.Min([]int{runtime.NumCPU(), MAX_DEFAULT_WORKERS})
}

func Default() *Config {
	return &Config{
		DataStrategy:   constants.SCHEMA_ONLY,
		Workers:        DefaultWorkers(),
		OutputDir:      ".",
		CatalogTimeout: DEFAULT_CATALOG_TIMEOUT,
		MigrateACID: MigrateACID{
			PartitionLimit: DEFAULT_ACID_PARTITION_LIMIT,
		},
		Hybrid: Hybrid{
			ExportImportPartitionLimit: DEFAULT_EXPORT_IMPORT_PARTITION_LIMIT,
			SqlPartitionLimit:          DEFAULT_SQL_PARTITION_LIMIT,
			SqlSizeLimit:               DEFAULT_SQL_SIZE_LIMIT,
		},
		Transfer: Transfer{
			ShadowPrefix:        constants.DEFAULT_SHADOW_PREFIX,
			TransferPrefix:      constants.DEFAULT_TRANSFER_PREFIX,
			ArchivePrefix:       constants.DEFAULT_ARCHIVE_PREFIX,
			ExportBaseDirPrefix: constants.DEFAULT_EXPORT_BASE_DIR,
			StorageMigration: StorageMigration{
				DataMovementStrategy: constants.MOVEMENT_SQL,
			},
		},
		Translator: TranslatorConfig{
			ConsolidationLevel: DEFAULT_CONSOLIDATION_LEVEL,
		},
	}
}

// Validate reports run-level faults. Nothing is scanned or executed when it fails.
func (c *Config) Validate() error {
	c.DataStrategy = constants.DataStrategy(strings.ToUpper(string(c.DataStrategy)))
	if !lo.Contains(constants.UserDataStrategies, c.DataStrategy) {
		return goerrors.Errorf("invalid data_strategy: %s. Valid strategies = %v", c.DataStrategy, constants.UserDataStrategies)
	}
	if len(c.Databases) == 0 {
		return goerrors.Errorf("no databases specified")
	}
	if c.Workers < 1 {
		return goerrors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.DbRename != "" && len(c.Databases) > 1 {
		return goerrors.Errorf("db_rename can only be used with a single database, got %d", len(c.Databases))
	}
	if c.Hybrid.ExportImportPartitionLimit < 0 || c.Hybrid.SqlPartitionLimit < 0 || c.MigrateACID.PartitionLimit < 0 {
		return goerrors.Errorf("partition limits cannot be negative; use 0 to disable a limit")
	}
	if _, err := c.Hybrid.SqlSizeLimitBytes(); err != nil {
		return err
	}
	if c.Translator.ConsolidationLevel < 0 {
		return goerrors.Errorf("translator.consolidation_level cannot be negative, got %d", c.Translator.ConsolidationLevel)
	}
	if c.Transfer.IntermediateStorage != "" && c.Transfer.CommonStorage != "" {
		return goerrors.Errorf("transfer.intermediate_storage and transfer.common_storage are mutually exclusive")
	}
	if c.MigrateACID.Inplace && !c.MigrateACID.Downgrade {
		return goerrors.Errorf("migrate_acid.inplace requires migrate_acid.downgrade")
	}
	if c.MigrateACID.Only && !c.MigrateACID.On {
		return goerrors.Errorf("migrate_acid.only requires migrate_acid.on")
	}
	if c.DataStrategy == constants.STORAGE_MIGRATION {
		if c.Transfer.TargetNamespace == "" {
			return goerrors.Errorf("STORAGE_MIGRATION requires transfer.target_namespace")
		}
		dms := c.Transfer.StorageMigration.DataMovementStrategy
		if dms != constants.MOVEMENT_SQL && dms != constants.MOVEMENT_DISTCP {
			return goerrors.Errorf("invalid transfer.storage_migration.data_movement_strategy: %s", dms)
		}
	}
	for _, e := range c.Translator.GlobalLocationMap {
		if e.Source == "" || e.Target == "" {
			return goerrors.Errorf("translator.global_location_map entries need both source and target")
		}
		if strings.Contains(e.Source, "://") {
			return goerrors.Errorf("translator.global_location_map source %q must be a path without a namespace", e.Source)
		}
	}
	for _, re := range []string{c.Filter.TableRegex, c.Filter.TableExcludeRegex} {
		if re == "" {
			continue
		}
		if _, err := regexp.Compile(re); err != nil {
			return goerrors.Errorf("invalid table filter %q: %v", re, err)
		}
	}
	for _, cl := range []struct {
		name    string
		cluster Cluster
	}{{"left", c.Clusters.Left}, {"right", c.Clusters.Right}} {
		if cl.cluster.Version != "" {
			if _, err := hiveversion.NewHiveVersion(cl.cluster.Version); err != nil {
				return goerrors.Errorf("clusters.%s.version: %v", cl.name, err)
			}
		}
		md := cl.cluster.MetastoreDirect
		if md != nil && md.Type != "mysql" && md.Type != "postgres" {
			return goerrors.Errorf("clusters.%s.metastore_direct.type must be mysql or postgres, got %q", cl.name, md.Type)
		}
	}
	return nil
}

// TargetDatabaseName applies db_rename and db_prefix to a LEFT database name.
func (c *Config) TargetDatabaseName(database string) string {
	if c.DbRename != "" {
		return c.DbRename
	}
	return c.DbPrefix + database
}

// SkipTable applies the table filters.
func (c *Config) SkipTable(table string) bool {
	if c.Filter.TableRegex != "" && !regexp.MustCompile(c.Filter.TableRegex).MatchString(table) {
		return true
	}
	if c.Filter.TableExcludeRegex != "" && regexp.MustCompile(c.Filter.TableExcludeRegex).MatchString(table) {
		return true
	}
	return false
}
