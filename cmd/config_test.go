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
package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/hive-voyager/src/constants"
)

func newTestRunCmd() *cobra.Command {
	c := &cobra.Command{Use: "plan"}
	registerRunFlags(c)
	return c
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hive-voyager-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func withConfigFile(t *testing.T, path string) {
	t.Helper()
	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })
}

func TestConfigKeyForFlag(t *testing.T) {
	assert.Equal(t, "filter.table_regex", configKeyForFlag("table-regex"))
	assert.Equal(t, "migrate_acid.only", configKeyForFlag("migrate-acid-only"))
	assert.Equal(t, "transfer.common_storage", configKeyForFlag("common-storage"))
	assert.Equal(t, "create_if_not_exists", configKeyForFlag("create-if-not-exists"))
}

func TestBindCobraFlagsToViper(t *testing.T) {
	c := newTestRunCmd()
	require.NoError(t, c.Flags().Set("databases", "sales,hr"))
	require.NoError(t, c.Flags().Set("table-regex", "^fact_"))
	require.NoError(t, c.Flags().Set("sync", "true"))
	require.NoError(t, c.Flags().Set("disable-pb", "true"))

	v := viper.New()
	overrides, err := bindCobraFlagsToViper(c, v)
	require.NoError(t, err)

	assert.Equal(t, []string{"sales", "hr"}, v.GetStringSlice("databases"))
	assert.Equal(t, "^fact_", v.GetString("filter.table_regex"))
	assert.True(t, v.GetBool("sync"))
	assert.False(t, v.IsSet("disable_pb"))
	assert.False(t, v.IsSet("workers"))
	assert.Len(t, overrides, 3)
}

func TestInitConfigFlagsWinOverFile(t *testing.T) {
	withConfigFile(t, writeConfigFile(t, `
data_strategy: HYBRID
databases: [sales]
workers: 2
catalog_timeout: 10s
filter:
  table_regex: "^dim_"
transfer:
  intermediate_storage: s3a://bucket/stage
clusters:
  left:
    hcfs_namespace: hdfs://left
    hiveserver2:
      uri: jdbc:hive2://left:10000
`))

	c := newTestRunCmd()
	require.NoError(t, c.Flags().Set("workers", "6"))
	require.NoError(t, c.Flags().Set("catalog-timeout", "45s"))

	got, overrides, err := initConfig(c)
	require.NoError(t, err)

	assert.Equal(t, constants.DataStrategy("HYBRID"), got.DataStrategy)
	assert.Equal(t, []string{"sales"}, got.Databases)
	assert.Equal(t, 6, got.Workers)
	assert.Equal(t, 45*time.Second, got.CatalogTimeout)
	assert.Equal(t, "^dim_", got.Filter.TableRegex)
	assert.Equal(t, "s3a://bucket/stage", got.Transfer.IntermediateStorage)
	assert.Equal(t, "hdfs://left", got.Clusters.Left.HcfsNamespace)
	require.NotNil(t, got.Clusters.Left.HiveServer2)
	assert.Equal(t, "jdbc:hive2://left:10000", got.Clusters.Left.HiveServer2.Uri)
	assert.Len(t, overrides, 2)
}

func TestInitConfigRejectsUnknownKeys(t *testing.T) {
	withConfigFile(t, writeConfigFile(t, `
data_strategy: HYBRID
worker_count: 4
filter:
  table_regexp: "x"
`))

	_, _, err := initConfig(newTestRunCmd())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker_count")
	assert.Contains(t, err.Error(), "table_regexp")
}

func TestRedactURI(t *testing.T) {
	assert.Equal(t, "mysql://hive:XXX@db:3306/metastore", redactURI("mysql://hive:secret@db:3306/metastore"))
	assert.Equal(t, "jdbc:hive2://left:10000", redactURI("jdbc:hive2://left:10000"))
	assert.Equal(t, "postgres://hive@db/metastore", redactURI("postgres://hive@db/metastore"))
}
