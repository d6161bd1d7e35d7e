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
package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/runner"
)

func testResult(t *testing.T) *runner.Result {
	du := migunit.NewDatabaseUnit("sales")
	du.Env(constants.RIGHT).AddSQL("Create database", "CREATE DATABASE IF NOT EXISTS `sales`")
	du.Phase = constants.PHASE_CALCULATED_SQL
	du.Tables = []string{"bad", "orders"}

	orders := migunit.NewMigrationUnit("sales", "orders")
	orders.Strategy = constants.SCHEMA_ONLY
	orders.AddStep(constants.SCHEMA_ONLY, "")
	orders.Phase = constants.PHASE_CALCULATED_SQL
	orders.Env(constants.RIGHT).AddSQL("Use database", "USE `sales`")
	orders.Env(constants.RIGHT).AddSQL("Create table", "CREATE EXTERNAL TABLE `orders`(`id` int)")
	orders.Env(constants.RIGHT).AddCleanUpSQL("Drop shadow table", "DROP TABLE IF EXISTS `hv_shadow_orders`")
	orders.Env(constants.RIGHT).AddIssue("location translated relative to the namespace")

	bad := migunit.NewMigrationUnit("sales", "bad")
	bad.Strategy = constants.SCHEMA_ONLY
	bad.Env(constants.RIGHT).AddSQL("Use database", "USE `sales`")
	bad.Fail(constants.LEFT, "cannot parse definition")

	tr := location.NewTranslator()
	tr.AddTranslation("sales", constants.RIGHT, "hdfs://left/wh/sales.db/orders", "hdfs://right/data/sales.db/orders", location.LEVEL_GLOBAL_LOCATION_MAP)
	return &runner.Result{
		RunID:      "run-1",
		Status:     runner.RUN_STATUS_DONE,
		Databases:  []*migunit.DatabaseUnit{du},
		Units:      []*migunit.MigrationUnit{bad, orders},
		Translator: tr,
		Findings:   &location.ReconcileResult{},
	}
}

func TestExecuteScript(t *testing.T) {
	res := testResult(t)
	script := ExecuteScript(res.Databases[0], res.Units, constants.RIGHT)
	expected := "-- database sales\n" +
		"-- Create database\nCREATE DATABASE IF NOT EXISTS `sales`;\n" +
		"\n-- table sales.bad skipped: LEFT: cannot parse definition\n" +
		"\n-- table sales.orders (SCHEMA_ONLY)\n" +
		"-- Use database\nUSE `sales`;\n" +
		"-- Create table\nCREATE EXTERNAL TABLE `orders`(`id` int);\n"
	assert.Equal(t, expected, script)

	assert.Equal(t, "-- table sales.orders\n-- Drop shadow table\nDROP TABLE IF EXISTS `hv_shadow_orders`;\n",
		CleanUpScript(res.Units, constants.RIGHT))
	assert.Empty(t, CleanUpScript(res.Units, constants.LEFT))
}

func TestBuildDistcpPlan(t *testing.T) {
	plan := BuildDistcpPlan([]location.Translation{
		{Original: "hdfs://left/wh/sales.db/events", New: "hdfs://right/data/sales.db/events"},
		{Original: "hdfs://left/wh/sales.db/events/dt=1", New: "hdfs://right/data/sales.db/events/dt=1"},
		{Original: "hdfs://left/landing/events/dt=2", New: "hdfs://right/data/landing/events/dt=2"},
		{Original: "hdfs://left/wh/sales.db/orders", New: "hdfs://right/data/sales.db/orders"},
		{Original: "hdfs://left/same", New: "hdfs://left/same"},
	})
	expected := []DistcpEntry{
		{Target: "hdfs://right/data/landing/events", Sources: []string{"hdfs://left/landing/events/dt=2"}},
		{Target: "hdfs://right/data/sales.db", Sources: []string{"hdfs://left/wh/sales.db/events", "hdfs://left/wh/sales.db/orders"}},
	}
	if diff := cmp.Diff(expected, plan); diff != "" {
		t.Errorf("distcp plan mismatch (-want +got):\n%s", diff)
	}
	script := DistcpScript(plan)
	assert.True(t, strings.HasPrefix(script, "#!/usr/bin/env bash\n"))
	assert.Contains(t, script, "  hdfs://left/wh/sales.db/orders \\\n  hdfs://right/data/sales.db\n")
}

func TestDatabaseMarkdown(t *testing.T) {
	res := testResult(t)
	md, err := DatabaseMarkdown(res, res.Databases[0], constants.SCHEMA_ONLY)
	require.NoError(t, err)
	assert.Contains(t, md, "# Migration report: sales")
	assert.Contains(t, md, "| Failed | 1 |")
	assert.Contains(t, md, "| orders | SCHEMA_ONLY | SCHEMA_ONLY | CALCULATED_SQL | 1 | 0 |")
	assert.Contains(t, md, "- **error**: LEFT: cannot parse definition")
	assert.Contains(t, md, "| RIGHT | hdfs://left/wh/sales.db/orders | hdfs://right/data/sales.db/orders |")
	assert.Contains(t, md, "CREATE DATABASE IF NOT EXISTS `sales`;")
}

func TestWriterWritesRunOutput(t *testing.T) {
	dir := t.TempDir()
	res := testResult(t)
	w := NewWriter(dir)
	paths, err := w.Write(res, constants.SCHEMA_ONLY)
	require.NoError(t, err)

	runDir := w.RunDir("run-1")
	var names []string
	for _, p := range paths {
		rel, err := filepath.Rel(runDir, p)
		require.NoError(t, err)
		names = append(names, rel)
	}
	assert.ElementsMatch(t, []string{
		"sales_right_execute.sql",
		"sales_right_cleanup.sql",
		"sales_left_execute.sql",
		"sales_right_distcp.sh",
		"sales_report.md",
		"run.json",
	}, names)

	left, err := os.ReadFile(filepath.Join(runDir, "sales_left_execute.sql"))
	require.NoError(t, err)
	assert.Equal(t, "\n-- table sales.bad skipped: LEFT: cannot parse definition\n", string(left))

	summary, err := ReadRunSummary(filepath.Join(runDir, RUN_SUMMARY_FILE_NAME))
	require.NoError(t, err)
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, map[constants.DataStrategy]int{constants.SCHEMA_ONLY: 1}, summary.Strategies)
	require.Len(t, summary.Databases, 1)
	assert.Equal(t, 1, summary.Databases[0].Phases[constants.PHASE_ERROR])
	assert.Equal(t, []string{"bad", "orders"}, []string{summary.Databases[0].Tables[0].Name, summary.Databases[0].Tables[1].Name})
}
