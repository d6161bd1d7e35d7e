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
package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/errs"
	"github.com/yugabyte/hive-voyager/src/migunit"
)

func newHS2Mock(t *testing.T) (*HS2Endpoint, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHS2Endpoint(constants.LEFT, db), mock
}

func TestHS2TableLookups(t *testing.T) {
	ep, mock := newHS2Mock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SHOW TABLES IN `sales` LIKE 'orders'")).
		WillReturnRows(sqlmock.NewRows([]string{"tab_name"}).AddRow("orders"))
	mock.ExpectQuery(regexp.QuoteMeta("SHOW CREATE TABLE `sales`.`orders`")).
		WillReturnRows(sqlmock.NewRows([]string{"createtab_stmt"}).
			AddRow("CREATE EXTERNAL TABLE `sales`.`orders`(").
			AddRow("  `id` int)"))
	mock.ExpectQuery(regexp.QuoteMeta("SHOW PARTITIONS `sales`.`orders`")).
		WillReturnRows(sqlmock.NewRows([]string{"partition"}).AddRow("dt=1").AddRow("dt=2"))

	exists, err := ep.TableExists(ctx, "sales", "orders")
	require.NoError(t, err)
	assert.True(t, exists)

	def, err := ep.GetDefinition(ctx, "sales", "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE EXTERNAL TABLE `sales`.`orders`(", "  `id` int)"}, def)

	parts, err := ep.ListPartitions(ctx, "sales", "orders")
	require.NoError(t, err)
	FillPartitionLocations(parts, "hdfs://left/data/orders")
	assert.Equal(t, map[string]string{
		"dt=1": "hdfs://left/data/orders/dt=1",
		"dt=2": "hdfs://left/data/orders/dt=2",
	}, parts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHS2GetDatabase(t *testing.T) {
	ep, mock := newHS2Mock(t)
	mock.ExpectQuery(regexp.QuoteMeta("DESCRIBE DATABASE EXTENDED `sales`")).
		WillReturnRows(sqlmock.NewRows([]string{"db_name", "comment", "location", "managedLocation", "owner_name", "owner_type", "parameters"}).
			AddRow("sales", "", "hdfs://left/warehouse/tablespace/external/hive/sales.db",
				"hdfs://left/warehouse/tablespace/managed/hive/sales.db", "hive", "USER", ""))

	db, err := ep.GetDatabase(context.Background(), "sales")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		constants.DB_LOCATION:         "hdfs://left/warehouse/tablespace/external/hive/sales.db",
		constants.DB_MANAGED_LOCATION: "hdfs://left/warehouse/tablespace/managed/hive/sales.db",
		constants.DB_OWNER:            "hive",
	}, db.Properties)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHS2RunStatementsStopsAtFirstFailure(t *testing.T) {
	ep, mock := newHS2Mock(t)
	mock.ExpectExec(regexp.QuoteMeta("USE `sales`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE DATABASE IF NOT EXISTS `sales`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS `orders`")).WillReturnError(errors.New("permission denied"))

	err := ep.RunStatements(context.Background(), "sales", []migunit.Pair{
		{Description: "Create database", Action: "CREATE DATABASE IF NOT EXISTS `sales`"},
		{Description: "Drop table", Action: "DROP TABLE IF EXISTS `orders`"},
		{Description: "Create table", Action: "CREATE TABLE `orders`(`id` int)"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2 (Drop table)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetastoreDirectPartitions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	inner := NewSnapshotEndpoint(constants.LEFT, &Snapshot{})
	md, err := NewMetastoreDirect(inner, METASTORE_MYSQL, db)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT P.PART_NAME, S.LOCATION")).
		WithArgs("sales", "events").
		WillReturnRows(sqlmock.NewRows([]string{"PART_NAME", "LOCATION"}).
			AddRow("dt=1", "hdfs://left/data/events/dt=1").
			AddRow("dt=2", "hdfs://left/landing/dt=2"))

	parts, err := md.ListPartitions(context.Background(), "sales", "events")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"dt=1": "hdfs://left/data/events/dt=1",
		"dt=2": "hdfs://left/landing/dt=2",
	}, parts)
	assert.Equal(t, constants.LEFT, md.Environment())
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = NewMetastoreDirect(inner, "oracle", db)
	assert.Error(t, err)
}

const snapshotYAML = `databases:
  sales:
    properties:
      location: hdfs://left/warehouse/tablespace/external/hive/sales.db
    tables:
      orders:
        definition: |
          CREATE EXTERNAL TABLE ` + "`sales`.`orders`(" + `
            ` + "`id` int)" + `
      events:
        definition: |
          CREATE EXTERNAL TABLE ` + "`sales`.`events`(" + `
            ` + "`id` int)" + `
          PARTITIONED BY (
            ` + "`dt` string)" + `
        partitions:
          dt=1: hdfs://left/data/events/dt=1
`

func TestSnapshotEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "left.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshotYAML), 0644))
	ep, err := LoadSnapshotEndpoint(constants.LEFT, path)
	require.NoError(t, err)
	ctx := context.Background()

	tables, err := ep.ListTables(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "orders"}, tables)

	db, err := ep.GetDatabase(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, "hdfs://left/warehouse/tablespace/external/hive/sales.db", db.Properties[constants.DB_LOCATION])

	def, err := ep.GetDefinition(ctx, "sales", "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE EXTERNAL TABLE `sales`.`orders`(", "  `id` int)"}, def)

	parts, err := ep.ListPartitions(ctx, "sales", "events")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dt=1": "hdfs://left/data/events/dt=1"}, parts)

	exists, err := ep.TableExists(ctx, "sales", "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	ep.FailStatementsContaining("DROP")
	err = ep.RunStatements(ctx, "", []migunit.Pair{{Action: "USE `sales`"}, {Action: "DROP TABLE `x`"}})
	assert.Error(t, err)
	assert.Equal(t, []string{"USE `sales`"}, ep.Executed())
}

type blockingEndpoint struct {
	*SnapshotEndpoint
}

func (b blockingEndpoint) TableExists(ctx context.Context, database, table string) (bool, error) {
	<-ctx.Done()
	return true, ctx.Err()
}

func TestDegradingTimeoutAssumesAbsent(t *testing.T) {
	inner := blockingEndpoint{NewSnapshotEndpoint(constants.RIGHT, &Snapshot{})}
	ep := NewDegrading(inner, 20*time.Millisecond)
	assert.Equal(t, Endpoint(inner), ep.Unwrap())
	assert.Equal(t, constants.RIGHT, ep.Environment())

	exists, err := ep.TableExists(context.Background(), "sales", "orders")
	assert.False(t, exists)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var unavailable *errs.EndpointUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "RIGHT", unavailable.Environment)
	assert.Equal(t, "TableExists", unavailable.Operation)
}
