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
package metadb

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/migunit"
)

func newTestMetaDB(t *testing.T) *MetaDB {
	dir := t.TempDir()
	require.NoError(t, CreateAndInitMetaDBIfRequired(dir))
	// second call is a no-op
	require.NoError(t, CreateAndInitMetaDBIfRequired(dir))
	m, err := NewMetaDB(dir)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestInitMetaDB(t *testing.T) {
	expectedTables := map[string][]string{
		RUN_TABLE_NAME:            {"run_id", "started_at", "finished_at", "data_strategy", "status", "config_json"},
		DATABASE_UNIT_TABLE_NAME:  {"run_id", "database_name", "phase", "json_text"},
		MIGRATION_UNIT_TABLE_NAME: {"run_id", "database_name", "table_name", "strategy", "phase", "json_text"},
		TRANSLATION_TABLE_NAME:    {"run_id", "database_name", "environment", "seq", "original", "new_location", "level"},
		JSON_OBJECTS_TABLE_NAME:   {"key", "json_text"},
	}
	path := filepath.Join(t.TempDir(), "meta.db")
	require.NoError(t, createMetaDBFile(path))
	require.NoError(t, initMetaDB(path))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	require.NoError(t, err)
	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Close())
	assert.ElementsMatch(t, []string{RUN_TABLE_NAME, DATABASE_UNIT_TABLE_NAME, MIGRATION_UNIT_TABLE_NAME,
		TRANSLATION_TABLE_NAME, JSON_OBJECTS_TABLE_NAME}, tables)

	for table, expectedColumns := range expectedTables {
		t.Run(fmt.Sprintf("Check structure of %s table", table), func(t *testing.T) {
			rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
			require.NoError(t, err)
			defer rows.Close()
			var columns []string
			for rows.Next() {
				var cid, notNull, pk int
				var name, typ string
				var dflt sql.NullString
				require.NoError(t, rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk))
				columns = append(columns, name)
			}
			assert.Equal(t, expectedColumns, columns)
		})
	}
}

func TestRunLifecycle(t *testing.T) {
	m := newTestMetaDB(t)

	latest, err := m.LatestRunID()
	require.NoError(t, err)
	assert.Equal(t, "", latest)

	started := time.Unix(1700000000, 0)
	require.NoError(t, m.StartRun(RunRecord{RunID: "r1", StartedAt: started, DataStrategy: constants.HYBRID,
		Status: "RUNNING", Config: map[string]string{"data_strategy": "HYBRID"}}))
	require.NoError(t, m.StartRun(RunRecord{RunID: "r2", StartedAt: started.Add(time.Minute), DataStrategy: constants.SQL, Status: "RUNNING"}))
	require.NoError(t, m.FinishRun("r1", "DONE", started.Add(30*time.Second)))
	assert.Error(t, m.FinishRun("missing", "DONE", started))

	latest, err = m.LatestRunID()
	require.NoError(t, err)
	assert.Equal(t, "r2", latest)

	run, err := m.GetRun("r1")
	require.NoError(t, err)
	assert.Equal(t, "DONE", run.Status)
	assert.Equal(t, constants.HYBRID, run.DataStrategy)
	assert.Equal(t, started.Add(30*time.Second), run.FinishedAt)

	run, err = m.GetRun("nope")
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestMigrationUnitRoundTrip(t *testing.T) {
	m := newTestMetaDB(t)

	u := migunit.NewMigrationUnit("sales", "orders")
	u.Strategy = constants.SQL
	u.AddStep(constants.HYBRID, "partition count above export/import limit")
	u.AddStep(constants.SQL, "")
	u.Env(constants.LEFT).Exists = true
	u.Env(constants.LEFT).Partitions = map[string]string{"dt=1": "hdfs://left/a/dt=1"}
	u.Env(constants.RIGHT).AddSQL("Create table", "CREATE TABLE `orders`(`id` int)")
	require.NoError(t, u.SetPhase(constants.PHASE_STARTED))
	require.NoError(t, u.SetPhase(constants.PHASE_CALCULATED_SQL))
	require.NoError(t, m.SaveMigrationUnit("r1", u))

	// saving again replaces the row
	require.NoError(t, u.SetPhase(constants.PHASE_EXECUTED))
	require.NoError(t, m.SaveMigrationUnit("r1", u))
	require.NoError(t, m.SaveMigrationUnit("r1", migunit.NewMigrationUnit("sales", "customers")))

	units, err := m.GetMigrationUnits("r1")
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "customers", units[0].Name)
	got := units[1]
	assert.Equal(t, constants.PHASE_EXECUTED, got.Phase)
	assert.Equal(t, constants.SQL, got.Strategy)
	assert.Equal(t, u.Steps, got.Steps)
	assert.Equal(t, u.Env(constants.RIGHT).SQL, got.Env(constants.RIGHT).SQL)
	assert.Equal(t, "hdfs://left/a/dt=1", got.Env(constants.LEFT).Partitions["dt=1"])

	units, err = m.GetMigrationUnits("other")
	require.NoError(t, err)
	assert.Empty(t, units)

	du := migunit.NewDatabaseUnit("sales")
	du.Env(constants.RIGHT).AddSQL("Create database", "CREATE DATABASE IF NOT EXISTS `sales`")
	require.NoError(t, m.SaveDatabaseUnit("r1", du))
	dus, err := m.GetDatabaseUnits("r1")
	require.NoError(t, err)
	require.Len(t, dus, 1)
	assert.Equal(t, du.Env(constants.RIGHT).SQL, dus[0].Env(constants.RIGHT).SQL)
}

func TestConcurrentUnitWrites(t *testing.T) {
	m := newTestMetaDB(t)
	var wg sync.WaitGroup
	errCh := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errCh <- m.SaveMigrationUnit("r1", migunit.NewMigrationUnit("sales", fmt.Sprintf("t%02d", i)))
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}
	units, err := m.GetMigrationUnits("r1")
	require.NoError(t, err)
	names := make([]string, 0, len(units))
	for _, u := range units {
		names = append(names, u.Name)
	}
	assert.Len(t, names, 20)
	assert.True(t, sort.StringsAreSorted(names))
}

func TestTranslationsAreReplacedPerDatabase(t *testing.T) {
	m := newTestMetaDB(t)
	first := map[constants.Environment][]location.Translation{
		constants.RIGHT: {
			{Original: "hdfs://left/a", New: "hdfs://right/b", Level: location.LEVEL_GLOBAL_LOCATION_MAP},
			{Original: "hdfs://left/a", New: "hdfs://right/b", Level: location.LEVEL_GLOBAL_LOCATION_MAP},
		},
	}
	require.NoError(t, m.SaveTranslations("r1", "sales", first))
	got, err := m.GetTranslations("r1", "sales")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := map[constants.Environment][]location.Translation{
		constants.RIGHT: {{Original: "hdfs://left/c", New: "hdfs://right/c", Level: location.LEVEL_RELATIVE}},
	}
	require.NoError(t, m.SaveTranslations("r1", "sales", second))
	got, err = m.GetTranslations("r1", "sales")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestPlanStatusRecord(t *testing.T) {
	m := newTestMetaDB(t)
	record, err := m.GetPlanStatusRecord()
	require.NoError(t, err)
	assert.Nil(t, record)

	require.NoError(t, m.InitPlanStatusRecord("uuid-1"))
	require.NoError(t, m.InitPlanStatusRecord("uuid-2"))
	require.NoError(t, m.UpdatePlanStatusRecord(func(r *PlanStatusRecord) {
		r.LastRunID = "r1"
		r.RunCount++
	}))
	record, err = m.GetPlanStatusRecord()
	require.NoError(t, err)
	assert.Equal(t, "uuid-1", record.MigrationUUID)
	assert.Equal(t, "r1", record.LastRunID)
	assert.Equal(t, 1, record.RunCount)

	require.NoError(t, m.DeleteJsonObject(PLAN_STATUS_KEY))
	record, err = m.GetPlanStatusRecord()
	require.NoError(t, err)
	assert.Nil(t, record)
}
