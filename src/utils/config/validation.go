package config

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/viper"
)

// ConfigValidationError holds all the invalid configurations detected
type ConfigValidationError struct {
	InvalidGlobalKeys  mapset.Set[string]
	InvalidSectionKeys map[string]mapset.Set[string]
	InvalidSections    mapset.Set[string]
}

// Error implements the error interface for ValidationError
func (e *ConfigValidationError) Error() string {
	var sb strings.Builder

	sb.WriteString("\nConfig file validation failed:\n")

	if e.InvalidGlobalKeys.Cardinality() > 0 {
		sb.WriteString(fmt.Sprintf("Invalid global config keys: [%s]\n", strings.Join(sorted(e.InvalidGlobalKeys), ", ")))
	}

	sections := make([]string, 0, len(e.InvalidSectionKeys))
	for section := range e.InvalidSectionKeys {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	for _, section := range sections {
		sb.WriteString(fmt.Sprintf("Invalid keys in section '%s': [%s]\n", section, strings.Join(sorted(e.InvalidSectionKeys[section]), ", ")))
	}

	if e.InvalidSections.Cardinality() > 0 {
		sb.WriteString(fmt.Sprintf("Invalid sections: [%s]\n", strings.Join(sorted(e.InvalidSections), ", ")))
	}

	return sb.String()
}

func sorted(s mapset.Set[string]) []string {
	out := s.ToSlice()
	sort.Strings(out)
	return out
}

// Allowed global config keys
var AllowedGlobalConfigKeys = mapset.NewThreadUnsafeSet[string](
	"data_strategy", "databases", "db_prefix", "db_rename",
	"read_only", "no_purge", "sync", "create_if_not_exists", "execute", "strict",
	"flip", "reset_to_default_location", "workers", "output_dir", "catalog_timeout", "metrics_port",
	"log_level",
)

var allowedFilterConfigKeys = mapset.NewThreadUnsafeSet[string](
	"table_regex", "table_exclude_regex", "migrate_views",
)

var allowedMigrateACIDConfigKeys = mapset.NewThreadUnsafeSet[string](
	"on", "only", "downgrade", "inplace", "partition_limit",
)

var allowedHybridConfigKeys = mapset.NewThreadUnsafeSet[string](
	"export_import_partition_limit", "sql_partition_limit", "sql_size_limit",
)

var allowedTransferConfigKeys = mapset.NewThreadUnsafeSet[string](
	"shadow_prefix", "transfer_prefix", "archive_prefix", "export_base_dir_prefix",
	"intermediate_storage", "common_storage", "target_namespace",
	"storage_migration.data_movement_strategy",
	"warehouse.external_directory", "warehouse.managed_directory",
)

var allowedTranslatorConfigKeys = mapset.NewThreadUnsafeSet[string](
	"global_location_map", "consolidation_level", "partition_level_mismatch",
	"evaluate_partition_location",
)

var allowedClusterConfigKeys = mapset.NewThreadUnsafeSet[string](
	"version", "legacy", "hcfs_namespace", "snapshot_path",
	"hiveserver2.uri", "hiveserver2.driver_name",
	"metastore_direct.type", "metastore_direct.uri",
	"partition_discovery.auto", "partition_discovery.init_msck",
)

var allowedClustersConfigKeys = mapset.NewThreadUnsafeSet[string]()

func init() {
	for _, env := range []string{"left", "right"} {
		for _, k := range allowedClusterConfigKeys.ToSlice() {
			allowedClustersConfigKeys.Add(env + "." + k)
		}
	}
}

// Define allowed nested sections
var AllowedConfigSections = map[string]mapset.Set[string]{
	"filter":       allowedFilterConfigKeys,
	"migrate_acid": allowedMigrateACIDConfigKeys,
	"hybrid":       allowedHybridConfigKeys,
	"transfer":     allowedTransferConfigKeys,
	"translator":   allowedTranslatorConfigKeys,
	"clusters":     allowedClustersConfigKeys,
}

// keys under a per-database map are only checked for their leaf
var allowedMapLeafKeys = map[string]mapset.Set[string]{
	"translator.warehouse_plans": mapset.NewThreadUnsafeSet[string]("external_directory", "managed_directory"),
}

func isAllowedMapKey(key string) bool {
	for prefix, leaves := range allowedMapLeafKeys {
		if !strings.HasPrefix(key, prefix+".") {
			continue
		}
		parts := strings.Split(strings.TrimPrefix(key, prefix+"."), ".")
		return len(parts) == 2 && leaves.Contains(parts[1])
	}
	return false
}

// ValidateConfigFile reports every unknown key of the config file at once.
func ValidateConfigFile(v *viper.Viper) error {
	invalidGlobalKeys := mapset.NewThreadUnsafeSet[string]()
	invalidSectionKeys := make(map[string]mapset.Set[string])
	invalidSections := mapset.NewThreadUnsafeSet[string]()

	for _, key := range v.AllKeys() {
		parts := strings.Split(key, ".")
		if len(parts) == 1 {
			if !AllowedGlobalConfigKeys.Contains(key) {
				invalidGlobalKeys.Add(key)
			}
			continue
		}
		// "a.b.c" -> section: "a", nestedKey: "b.c"
		section := parts[0]
		nestedKey := strings.Join(parts[1:], ".")

		allowedKeys, ok := AllowedConfigSections[section]
		if !ok {
			invalidSections.Add(section)
			continue
		}
		if allowedKeys.Contains(nestedKey) || isAllowedMapKey(key) {
			continue
		}
		if _, exists := invalidSectionKeys[section]; !exists {
			invalidSectionKeys[section] = mapset.NewThreadUnsafeSet[string]()
		}
		invalidSectionKeys[section].Add(nestedKey)
	}

	if invalidGlobalKeys.Cardinality() > 0 || len(invalidSectionKeys) > 0 || invalidSections.Cardinality() > 0 {
		return &ConfigValidationError{
			InvalidGlobalKeys:  invalidGlobalKeys,
			InvalidSectionKeys: invalidSectionKeys,
			InvalidSections:    invalidSections,
		}
	}
	return nil
}
