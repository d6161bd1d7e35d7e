//go:build unit

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
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/hive-voyager/src/config"
	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/schema"
)

const leftEventsLocation = "hdfs://left/warehouse/tablespace/external/hive/sales.db/events"

var eventsDef = []string{
	"CREATE EXTERNAL TABLE `sales`.`events`(",
	"  `id` int)",
	"PARTITIONED BY (",
	"  `dt` string)",
	"LOCATION",
	"  '" + leftEventsLocation + "'",
	"TBLPROPERTIES (",
	"  'external.table.purge'='true')",
}

var acidEventsDef = []string{
	"CREATE TABLE `sales`.`events`(",
	"  `id` int)",
	"LOCATION",
	"  'hdfs://left/warehouse/tablespace/managed/hive/sales.db/events'",
	"TBLPROPERTIES (",
	"  'transactional'='true')",
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Databases = []string{"sales"}
	cfg.DataStrategy = constants.HYBRID
	cfg.MigrateACID.On = true
	cfg.Clusters.Left = config.Cluster{Version: "3.1.3000", HcfsNamespace: "hdfs://left"}
	cfg.Clusters.Right = config.Cluster{Version: "3.1.3000", HcfsNamespace: "hdfs://right"}
	return cfg
}

func testTranslator(t *testing.T) *location.Translator {
	tr := location.NewTranslator()
	require.NoError(t, tr.AddGlobalLocationMapEntry("/warehouse/tablespace/external/hive", "/data/external"))
	require.NoError(t, tr.AddGlobalLocationMapEntry("/warehouse/tablespace/managed/hive", "/data/managed"))
	return tr
}

func leftUnit(table string, def []string, partitions map[string]string) *migunit.MigrationUnit {
	u := migunit.NewMigrationUnit("sales", table)
	left := u.Env(constants.LEFT)
	left.Exists = true
	left.Definition = def
	left.Partitions = partitions
	left.Partitioned = len(partitions) > 0
	return u
}

func partitionsUnder(base string, n int) map[string]string {
	out := make(map[string]string)
	for i := 0; i < n; i++ {
		spec := fmt.Sprintf("dt=%04d", i)
		out[spec] = base + "/" + spec
	}
	return out
}

func actions(pairs []migunit.Pair) []string {
	return lo.Map(pairs, func(p migunit.Pair, _ int) string { return p.Action })
}

func steps(u *migunit.MigrationUnit) []constants.DataStrategy {
	return lo.Map(u.Steps, func(s migunit.Step, _ int) constants.DataStrategy { return s.Strategy })
}

func TestHybridSQLPlan(t *testing.T) {
	cfg := testConfig()
	cfg.Hybrid.ExportImportPartitionLimit = 500
	cfg.Hybrid.SqlPartitionLimit = 1000
	tr := testTranslator(t)
	d := NewDispatcher(cfg, tr)

	u := leftUnit("events", eventsDef, partitionsUnder(leftEventsLocation, 600))
	require.True(t, d.Dispatch(u, constants.HYBRID))

	assert.Equal(t, []constants.DataStrategy{constants.HYBRID, constants.SQL}, steps(u))
	assert.Equal(t, constants.SQL, u.Strategy)
	assert.Equal(t, constants.PHASE_CALCULATED_SQL, u.Phase)

	shadow := u.Env(constants.SHADOW)
	assert.Equal(t, "hv_shadow_events", shadow.Name)
	assert.Equal(t, leftEventsLocation, schema.TableLocation(shadow.Definition))
	assert.False(t, schema.IsExternalPurge(shadow.Definition))

	right := u.Env(constants.RIGHT)
	assert.Equal(t, "hdfs://right/data/external/sales.db/events", schema.TableLocation(right.Definition))
	assert.True(t, schema.IsExternalPurge(right.Definition))

	sql := actions(right.SQL)
	require.Len(t, sql, 8)
	assert.Equal(t, "USE `sales`", sql[0])
	assert.Equal(t, "DROP TABLE IF EXISTS `hv_shadow_events`", sql[1])
	assert.True(t, strings.HasPrefix(sql[2], "CREATE EXTERNAL TABLE `hv_shadow_events`("))
	assert.Equal(t, "MSCK REPAIR TABLE `hv_shadow_events`", sql[3])
	assert.True(t, strings.HasPrefix(sql[4], "CREATE EXTERNAL TABLE `events`("))
	assert.Equal(t, "INSERT OVERWRITE TABLE `events` PARTITION (`dt`) SELECT * FROM `hv_shadow_events`", sql[7])
	assert.Equal(t, []string{"USE `sales`", "DROP TABLE IF EXISTS `hv_shadow_events`"}, actions(right.CleanUpSQL))

	audit := tr.Translations("sales", constants.RIGHT)
	require.Len(t, audit, 1)
	assert.Equal(t, location.LEVEL_GLOBAL_LOCATION_MAP, audit[0].Level)
}

func TestHybridExportImportPlan(t *testing.T) {
	cfg := testConfig()
	d := NewDispatcher(cfg, testTranslator(t))

	u := leftUnit("orders", ordersDef, nil)
	require.True(t, d.Dispatch(u, constants.HYBRID))
	assert.Equal(t, []constants.DataStrategy{constants.HYBRID, constants.EXPORT_IMPORT}, steps(u))

	assert.Equal(t, []string{
		"USE `sales`",
		"EXPORT TABLE `orders` TO 'hdfs://left/apps/hive/warehouse/export_sales/orders'",
	}, actions(u.Env(constants.LEFT).SQL))
	assert.Equal(t, []string{
		"USE `sales`",
		"IMPORT EXTERNAL TABLE `orders` FROM 'hdfs://left/apps/hive/warehouse/export_sales/orders' LOCATION 'hdfs://right/data/external/sales.db/orders'",
	}, actions(u.Env(constants.RIGHT).SQL))
}

func TestExportImportKeepsExistingRightTable(t *testing.T) {
	cfg := testConfig()
	cfg.Sync = true
	cfg.CreateIfNotExists = true
	d := NewDispatcher(cfg, testTranslator(t))

	u := leftUnit("orders", ordersDef, nil)
	right := u.Env(constants.RIGHT)
	right.Exists = true
	right.Definition = ordersDefChanged
	require.True(t, d.Dispatch(u, constants.EXPORT_IMPORT))

	assert.Equal(t, constants.CREATE_CREATE, right.CreateStrategy)
	assert.Empty(t, u.Env(constants.LEFT).SQL)
	for _, stmt := range actions(right.SQL) {
		assert.NotContains(t, stmt, "IMPORT")
	}
	assert.True(t, lo.ContainsBy(right.Issues, func(i string) bool {
		return strings.HasPrefix(i, "IMPORT cannot load into the existing RIGHT table")
	}))
}

func TestAcidDisabledRejectsTable(t *testing.T) {
	cfg := testConfig()
	cfg.MigrateACID.On = false
	cfg.Clusters.Left.Version = "2.3.9"
	d := NewDispatcher(cfg, testTranslator(t))

	u := leftUnit("events", acidEventsDef, nil)
	assert.False(t, d.Dispatch(u, constants.HYBRID))
	assert.Equal(t, constants.PHASE_ERROR, u.Phase)
	require.Len(t, u.Env(constants.LEFT).Issues, 1)
	assert.True(t, strings.HasPrefix(u.Env(constants.LEFT).Issues[0], "ACID table migration is disabled"))
	assert.Empty(t, u.Env(constants.RIGHT).SQL)
}

func TestStrictModeRefusesUnmappedLocation(t *testing.T) {
	def := []string{"CREATE EXTERNAL TABLE `sales`.`raw`(", "  `id` int)", "LOCATION", "  'hdfs://left/landing/raw'"}

	cfg := testConfig()
	cfg.DataStrategy = constants.SCHEMA_ONLY
	d := NewDispatcher(cfg, testTranslator(t))
	u := leftUnit("raw", def, nil)
	require.True(t, d.Dispatch(u, constants.SCHEMA_ONLY))
	assert.Equal(t, "hdfs://right/landing/raw", schema.TableLocation(u.Env(constants.RIGHT).Definition))
	assert.NotEmpty(t, u.Env(constants.RIGHT).Issues)

	cfg.Strict = true
	d = NewDispatcher(cfg, testTranslator(t))
	u = leftUnit("raw", def, nil)
	assert.False(t, d.Dispatch(u, constants.SCHEMA_ONLY))
	assert.Equal(t, constants.PHASE_ERROR, u.Phase)
	assert.Contains(t, u.Env(constants.LEFT).Errors[0], "strict mode")
}

func TestReconcileFindingsInStrictMode(t *testing.T) {
	cfg := testConfig()
	cfg.DataStrategy = constants.SCHEMA_ONLY
	cfg.Strict = true
	findings := &location.ReconcileResult{Findings: []location.Finding{
		{Database: "sales", Table: "orders", Base: "/", Message: "table location consolidates to the filesystem root"},
	}}
	d := NewDispatcher(cfg, testTranslator(t), WithFindings(findings))
	u := leftUnit("orders", ordersDef, nil)
	assert.False(t, d.Dispatch(u, constants.SCHEMA_ONLY))
	other := leftUnit("other", ordersDef, nil)
	assert.True(t, d.Dispatch(other, constants.SCHEMA_ONLY))
}

func TestRewriteFailureIsolatedToTable(t *testing.T) {
	cfg := testConfig()
	cfg.DataStrategy = constants.SCHEMA_ONLY
	failing := schema.RewriterFunc(func(lines []string, spec schema.CopySpec) ([]string, error) {
		switch schema.TableNameFromDefinition(lines) {
		case "t2":
			return nil, errors.New("cannot parse definition")
		case "t3":
			panic("unexpected clause")
		}
		return schema.Rewrite(lines, spec)
	})
	d := NewDispatcher(cfg, testTranslator(t), WithRewriter(failing))

	units := map[string]*migunit.MigrationUnit{}
	for _, name := range []string{"t1", "t2", "t3", "t4"} {
		def := []string{
			"CREATE EXTERNAL TABLE `sales`.`" + name + "`(",
			"  `id` int)",
			"LOCATION",
			"  'hdfs://left/warehouse/tablespace/external/hive/sales.db/" + name + "'",
		}
		units[name] = leftUnit(name, def, nil)
	}
	results := map[string]bool{}
	for name, u := range units {
		results[name] = d.Dispatch(u, constants.SCHEMA_ONLY)
	}

	assert.Equal(t, map[string]bool{"t1": true, "t2": false, "t3": false, "t4": true}, results)
	assert.Contains(t, units["t2"].Env(constants.LEFT).Errors[0], "cannot parse definition")
	assert.Contains(t, units["t3"].Env(constants.LEFT).Errors[0], "unexpected clause")
	for _, name := range []string{"t2", "t3"} {
		assert.Equal(t, constants.PHASE_ERROR, units[name].Phase)
	}
	for _, name := range []string{"t1", "t4"} {
		assert.Equal(t, constants.PHASE_CALCULATED_SQL, units[name].Phase)
		assert.Empty(t, units[name].Errors())
		assert.Len(t, units[name].Env(constants.RIGHT).SQL, 2)
	}
}

func TestConvertLinkedWithoutRightBecomesSchemaOnly(t *testing.T) {
	cfg := testConfig()
	cfg.DataStrategy = constants.CONVERT_LINKED
	d := NewDispatcher(cfg, testTranslator(t))

	u := leftUnit("orders", ordersDef, nil)
	require.True(t, d.Dispatch(u, constants.CONVERT_LINKED))
	assert.Equal(t, []constants.DataStrategy{constants.CONVERT_LINKED, constants.SCHEMA_ONLY}, steps(u))
	assert.Equal(t, constants.CREATE_CREATE, u.Env(constants.RIGHT).CreateStrategy)
	assert.NotEmpty(t, u.Env(constants.LEFT).Issues)
}

func TestConvertLinkedReplacesLinkedTable(t *testing.T) {
	cfg := testConfig()
	cfg.DataStrategy = constants.CONVERT_LINKED
	d := NewDispatcher(cfg, testTranslator(t))

	u := leftUnit("orders", ordersDef, nil)
	right := u.Env(constants.RIGHT)
	right.Exists = true
	right.Definition = ordersDef
	require.True(t, d.Dispatch(u, constants.CONVERT_LINKED))

	sql := actions(right.SQL)
	require.Len(t, sql, 3)
	assert.Equal(t, "DROP TABLE IF EXISTS `orders`", sql[1])
	assert.Equal(t, "true", schema.Properties(right.Definition)[constants.CONVERTED_FROM_LINKED])
}

func TestLinkedKeepsLeftLocation(t *testing.T) {
	cfg := testConfig()
	cfg.DataStrategy = constants.LINKED
	d := NewDispatcher(cfg, testTranslator(t))

	u := leftUnit("events", eventsDef, partitionsUnder(leftEventsLocation, 3))
	require.True(t, d.Dispatch(u, constants.LINKED))
	right := u.Env(constants.RIGHT)
	assert.Equal(t, leftEventsLocation, schema.TableLocation(right.Definition))
	assert.False(t, schema.IsExternalPurge(right.Definition))
	assert.Equal(t, "MSCK REPAIR TABLE `events`", actions(right.SQL)[2])
}

func TestSqlDowngradeInPlaceOnLegacy(t *testing.T) {
	cfg := testConfig()
	cfg.MigrateACID = config.MigrateACID{On: true, Downgrade: true, Inplace: true}
	cfg.Clusters.Left.Version = "2.3.9"
	d := NewDispatcher(cfg, testTranslator(t))

	u := leftUnit("events", acidEventsDef, nil)
	require.True(t, d.Dispatch(u, constants.HYBRID))
	assert.Equal(t, []constants.DataStrategy{
		constants.HYBRID, constants.HYBRID_ACID_DOWNGRADE_INPLACE, constants.SQL_ACID_DOWNGRADE_INPLACE,
	}, steps(u))

	sql := actions(u.Env(constants.LEFT).SQL)
	assert.Equal(t, "ALTER TABLE `events` RENAME TO `hv_archive_events`", sql[1])
	assert.True(t, strings.HasPrefix(sql[2], "CREATE EXTERNAL TABLE `events`("))
	assert.Equal(t, "INSERT OVERWRITE TABLE `events` SELECT * FROM `hv_archive_events`", sql[3])
	assert.False(t, u.HasEnv(constants.RIGHT))
}

func TestSourceMissingDropsRightTable(t *testing.T) {
	cfg := testConfig()
	cfg.Sync = true
	d := NewDispatcher(cfg, testTranslator(t))

	u := migunit.NewMigrationUnit("sales", "gone")
	u.Env(constants.RIGHT).Exists = true
	require.True(t, d.Dispatch(u, constants.SCHEMA_ONLY))
	assert.Equal(t, []string{"USE `sales`", "DROP TABLE IF EXISTS `gone`"}, actions(u.Env(constants.RIGHT).SQL))
}

func TestStorageMigrationDistcp(t *testing.T) {
	cfg := testConfig()
	cfg.DataStrategy = constants.STORAGE_MIGRATION
	cfg.Transfer.TargetNamespace = "ofs://ozone"
	cfg.Transfer.StorageMigration.DataMovementStrategy = constants.MOVEMENT_DISTCP
	tr := testTranslator(t)
	require.NoError(t, tr.AddGlobalLocationMapEntry("/landing", "/data/landing"))
	d := NewDispatcher(cfg, tr)

	partitions := map[string]string{
		"dt=1": leftEventsLocation + "/dt=1",
		"dt=2": "hdfs://left/landing/events/dt=2",
	}
	u := leftUnit("events", eventsDef, partitions)
	require.True(t, d.Dispatch(u, constants.STORAGE_MIGRATION))
	assert.Equal(t, []string{
		"USE `sales`",
		"ALTER TABLE `events` SET LOCATION 'ofs://ozone/data/external/sales.db/events'",
		"ALTER TABLE `events` PARTITION (`dt`='1') SET LOCATION 'ofs://ozone/data/external/sales.db/events/dt=1'",
		"ALTER TABLE `events` PARTITION (`dt`='2') SET LOCATION 'ofs://ozone/data/landing/events/dt=2'",
	}, actions(u.Env(constants.LEFT).SQL))
	assert.Len(t, tr.Translations("sales", constants.RIGHT), 3)
}

func TestPlanDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.DbPrefix = "mig_"
	d := NewDispatcher(cfg, testTranslator(t))

	du := migunit.NewDatabaseUnit("sales")
	du.Env(constants.LEFT).Exists = true
	du.Env(constants.LEFT).Properties = map[string]string{
		constants.DB_LOCATION: "hdfs://left/warehouse/tablespace/external/hive/sales.db",
	}
	require.NoError(t, d.PlanDatabase(du, &location.Warehouse{ExternalDirectory: "/data/ext", ManagedDirectory: "/data/managed"}))
	assert.Equal(t, []string{
		"CREATE DATABASE IF NOT EXISTS `mig_sales`",
		"ALTER DATABASE `mig_sales` SET LOCATION 'hdfs://right/data/ext/mig_sales.db'",
		"ALTER DATABASE `mig_sales` SET MANAGEDLOCATION 'hdfs://right/data/managed/mig_sales.db'",
	}, actions(du.Env(constants.RIGHT).SQL))
	assert.Equal(t, constants.PHASE_CALCULATED_SQL, du.Phase)

	cfg.Strict = true
	d = NewDispatcher(cfg, location.NewTranslator())
	du = migunit.NewDatabaseUnit("sales")
	du.Env(constants.LEFT).Exists = true
	du.Env(constants.LEFT).Properties = map[string]string{constants.DB_LOCATION: "hdfs://left/somewhere/sales.db"}
	assert.Error(t, d.PlanDatabase(du, nil))
}
