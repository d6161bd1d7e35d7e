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
package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduceUrlBy(t *testing.T) {
	tests := []struct {
		location string
		level    int
		expected string
	}{
		{"/w/db.db/tbl/part=1", 0, "/w/db.db/tbl/part=1"},
		{"/w/db.db/tbl/part=1", 1, "/w/db.db/tbl"},
		{"/w/db.db/tbl/part=1", 2, "/w/db.db"},
		{"/w/db.db/tbl/part=1", 4, "/"},
		{"/w/db.db/tbl/part=1", 10, "/"},
		{"/w/db.db/tbl/", 1, "/w/db.db"},
		{"hdfs://ns1:8020/w/db.db/tbl", 1, "hdfs://ns1:8020/w/db.db"},
		{"hdfs://ns1:8020/w/db.db/tbl", 7, "hdfs://ns1:8020/"},
		{"s3a://bucket/w//db.db/tbl", 1, "s3a://bucket/w/db.db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ReduceUrlBy(tt.location, tt.level), "ReduceUrlBy(%q, %d)", tt.location, tt.level)
	}
}

func TestSplitNamespace(t *testing.T) {
	ns, p := SplitNamespace("hdfs://ns1:8020/a/b")
	assert.Equal(t, "hdfs://ns1:8020", ns)
	assert.Equal(t, "/a/b", p)

	ns, p = SplitNamespace("/a/b")
	assert.Equal(t, "", ns)
	assert.Equal(t, "/a/b", p)

	ns, p = SplitNamespace("s3a://bucket")
	assert.Equal(t, "s3a://bucket", ns)
	assert.Equal(t, "/", p)
}

func TestIsSubPath(t *testing.T) {
	assert.True(t, IsSubPath("/w/db.db/tbl", "/w/db.db/tbl/dt=1"))
	assert.True(t, IsSubPath("/w/db.db/tbl", "/w/db.db/tbl"))
	assert.True(t, IsSubPath("hdfs://ns1/w/db.db/tbl", "hdfs://ns1/w/db.db/tbl/dt=1"))
	assert.False(t, IsSubPath("/w/db.db/tbl", "/w/db.db/tbl2/dt=1"))
	assert.False(t, IsSubPath("hdfs://ns1/w/tbl", "hdfs://ns2/w/tbl/dt=1"))
	assert.Equal(t, 2, PartitionDepth("dt=2020-01-01/hr=01"))
}

func TestGLMLongestPrefixWins(t *testing.T) {
	orders := [][]string{
		{"/a/b", "/a/b/c", "/a"},
		{"/a/b/c", "/a", "/a/b"},
		{"/a", "/a/b/c", "/a/b"},
	}
	targets := map[string]string{"/a": "/x", "/a/b": "/y", "/a/b/c": "/z"}
	for _, order := range orders {
		glm := NewGlobalLocationMap()
		for _, src := range order {
			_, err := glm.Put(src, targets[src], LEVEL_GLOBAL_LOCATION_MAP)
			assert.NoError(t, err)
		}
		got, entry, ok := glm.Lookup("/a/b/c/d/file")
		assert.True(t, ok)
		assert.Equal(t, "/a/b/c", entry.Source)
		assert.Equal(t, "/z/d/file", got)

		got, _, ok = glm.Lookup("/a/b/other")
		assert.True(t, ok)
		assert.Equal(t, "/y/other", got)

		got, _, ok = glm.Lookup("/a/bc")
		assert.True(t, ok)
		assert.Equal(t, "/x/bc", got)
	}
}

func TestGLMNoMatchReturnsPath(t *testing.T) {
	glm := NewGlobalLocationMap()
	_, err := glm.Put("/warehouse/tablespace/external/hive", "/data/external", LEVEL_GLOBAL_LOCATION_MAP)
	assert.NoError(t, err)
	got, entry, ok := glm.Lookup("/user/hive/warehouse/db.db/t1")
	assert.False(t, ok)
	assert.Nil(t, entry)
	assert.Equal(t, "/user/hive/warehouse/db.db/t1", got)

	_, err = glm.Put("hdfs://ns1/a", "/b", LEVEL_GLOBAL_LOCATION_MAP)
	assert.Error(t, err)
}

func TestGLMPutReplaces(t *testing.T) {
	glm := NewGlobalLocationMap()
	prev, err := glm.Put("/a/", "/x", LEVEL_GLOBAL_LOCATION_MAP)
	assert.NoError(t, err)
	assert.Nil(t, prev)
	prev, err = glm.Put("/a", "/y", LEVEL_WAREHOUSE_PLAN)
	assert.NoError(t, err)
	assert.Equal(t, "/x", prev.Target)
	assert.Equal(t, 1, glm.Len())
	assert.True(t, glm.Remove("/a"))
	assert.Equal(t, 0, glm.Len())
}

func TestTranslatorAuditIsAppendOnly(t *testing.T) {
	tr := NewTranslator()
	assert.NoError(t, tr.AddGlobalLocationMapEntry("/user/hive/warehouse", "/warehouse/tablespace/external/hive"))
	before := tr.GlobalLocationMap()

	for i := 0; i < 2; i++ {
		got, level, ok := tr.Translate("sales", "RIGHT", "hdfs://ns1/user/hive/warehouse/sales.db/orders")
		assert.True(t, ok)
		assert.Equal(t, LEVEL_GLOBAL_LOCATION_MAP, level)
		assert.Equal(t, "hdfs://ns1/warehouse/tablespace/external/hive/sales.db/orders", got)
	}

	facts := tr.Translations("sales", "RIGHT")
	assert.Len(t, facts, 2)
	assert.Equal(t, facts[0], facts[1])
	assert.Equal(t, before, tr.GlobalLocationMap())

	// unmatched path: unchanged, not recorded
	got, _, ok := tr.Translate("sales", "RIGHT", "/tmp/x")
	assert.False(t, ok)
	assert.Equal(t, "/tmp/x", got)
	assert.Len(t, tr.Translations("sales", "RIGHT"), 2)
}

func TestTranslateLocationRelative(t *testing.T) {
	tr := NewTranslator()
	got, level, ok := tr.TranslateLocation("sales", "RIGHT", "hdfs://old/user/hive/warehouse/sales.db/t1", "hdfs://new")
	assert.False(t, ok)
	assert.Equal(t, LEVEL_RELATIVE, level)
	assert.Equal(t, "hdfs://new/user/hive/warehouse/sales.db/t1", got)
	assert.Len(t, tr.Translations("sales", "RIGHT"), 1)
}

func TestGLMNamespaces(t *testing.T) {
	tr := NewTranslator()
	assert.Error(t, tr.AddGlobalLocationMapEntry("hdfs://ns1/data", "/ext"))
	assert.Empty(t, tr.GlobalLocationMap())

	assert.NoError(t, tr.AddGlobalLocationMapEntry("/data/", "s3a://bucket/ext/"))
	assert.Equal(t, []GLMEntry{{Source: "/data", Target: "s3a://bucket/ext", Origin: LEVEL_GLOBAL_LOCATION_MAP}}, tr.GlobalLocationMap())

	got, level, ok := tr.TranslateLocation("db", "RIGHT", "hdfs://ns1/data/db.db/t", "hdfs://ns2")
	assert.True(t, ok)
	assert.Equal(t, LEVEL_GLOBAL_LOCATION_MAP, level)
	assert.Equal(t, "s3a://bucket/ext/db.db/t", got)

	got, _, ok = tr.Translate("db", "RIGHT", "hdfs://ns1/data/db.db/t")
	assert.True(t, ok)
	assert.Equal(t, "s3a://bucket/ext/db.db/t", got)
}

func TestTranslatorConcurrentUse(t *testing.T) {
	tr := NewTranslator()
	assert.NoError(t, tr.AddGlobalLocationMapEntry("/a", "/b"))
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				tr.TranslateLocation("db", "RIGHT", "hdfs://ns/a/t", "hdfs://ns2")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Len(t, tr.Translations("db", "RIGHT"), 800)
}

func TestWarehouseMapBuilderTableLevel(t *testing.T) {
	b := NewWarehouseMapBuilder()
	err := b.AddSourceLocation("sales", "orders", "EXTERNAL_TABLE", "", "hdfs://ns1/data/sales.db/orders", "", 1, false)
	assert.NoError(t, err)
	err = b.AddSourceLocation("sales", "items", "EXTERNAL_TABLE", "", "hdfs://ns1/data/sales.db/items", "", 1, false)
	assert.NoError(t, err)

	slm := b.Sources("sales")
	assert.Equal(t, []string{"/data/sales.db"}, slm.BaseLocations("EXTERNAL_TABLE"))
	assert.Equal(t, []string{"items", "orders"}, slm.Tables("EXTERNAL_TABLE", "/data/sales.db"))
}

func TestWarehouseMapBuilderPartitionInsideTable(t *testing.T) {
	b := NewWarehouseMapBuilder()
	err := b.AddSourceLocation("sales", "orders", "EXTERNAL_TABLE", "dt=2020-01-01",
		"hdfs://ns1/data/sales.db/orders", "hdfs://ns1/data/sales.db/orders/dt=2020-01-01", 1, false)
	assert.NoError(t, err)
	assert.Nil(t, b.Sources("sales"))
}

func TestWarehouseMapBuilderPartitionOutsideTable(t *testing.T) {
	b := NewWarehouseMapBuilder()
	// partition relocated by hand: drop dt=.. and hr=.. plus the consolidation level
	err := b.AddSourceLocation("sales", "orders", "EXTERNAL_TABLE", "dt=2020-01-01/hr=01",
		"hdfs://ns1/data/sales.db/orders", "hdfs://ns1/archive/sales.db/orders/dt=2020-01-01/hr=01", 1, false)
	assert.NoError(t, err)
	assert.Equal(t, []string{"/archive/sales.db"}, b.Sources("sales").BaseLocations("EXTERNAL_TABLE"))

	// tolerated mismatch: the partition directory is its own base
	err = b.AddSourceLocation("sales", "events", "EXTERNAL_TABLE", "dt=2020-01-01",
		"hdfs://ns1/data/sales.db/events", "hdfs://ns1/landing/events_2020", 1, true)
	assert.NoError(t, err)
	assert.Contains(t, b.Sources("sales").BaseLocations("EXTERNAL_TABLE"), "/landing")
}

func TestWarehouseMapBuilderSealAndPlans(t *testing.T) {
	b := NewWarehouseMapBuilder()
	assert.Nil(t, b.AddWarehousePlan("sales", "/ext/", "/managed"))
	prev := b.AddWarehousePlan("sales", "/ext2", "/managed2")
	assert.Equal(t, "/ext", prev.ExternalDirectory)
	assert.Nil(t, b.AddWarehousePlan("hr", "/ext", "/managed"))
	removed := b.RemoveWarehousePlan("hr")
	assert.NotNil(t, removed)
	assert.Equal(t, "/managed", removed.ManagedDirectory)
	assert.Nil(t, b.RemoveWarehousePlan("hr"))

	b.Seal()
	err := b.AddSourceLocation("sales", "orders", "EXTERNAL_TABLE", "", "/data/sales.db/orders", "", 1, false)
	assert.Error(t, err)

	b.ClearSources()
	assert.False(t, b.IsSealed())
	b.ClearWarehousePlans()
	_, ok := b.WarehousePlan("sales")
	assert.False(t, ok)
}

func TestReconcileSharedBaseAcrossDatabases(t *testing.T) {
	b := NewWarehouseMapBuilder()
	assert.NoError(t, b.AddSourceLocation("db1", "t1", "EXTERNAL_TABLE", "", "hdfs://ns1/data/shared/t1", "", 1, false))
	assert.NoError(t, b.AddSourceLocation("db2", "t2", "EXTERNAL_TABLE", "", "hdfs://ns1/data/shared/t2", "", 1, false))
	assert.NoError(t, b.AddSourceLocation("db2", "t3", "EXTERNAL_TABLE", "", "hdfs://ns1/data/db2.db/t3", "", 1, false))
	b.AddWarehousePlan("db1", "/ext", "/managed")
	b.AddWarehousePlan("db2", "/ext", "/managed")
	b.Seal()

	tr := NewTranslator()
	res := Reconcile(b, tr, ReconcileOptions{})
	assert.Equal(t, []GLMEntry{{Source: "/data/db2.db", Target: "/ext/db2.db", Origin: LEVEL_WAREHOUSE_PLAN}}, res.Entries)
	for _, tbl := range [][2]string{{"db1", "t1"}, {"db2", "t2"}} {
		findings := res.FindingsFor(tbl[0], tbl[1])
		if assert.Len(t, findings, 1, tbl) {
			assert.Contains(t, findings[0].Message, "shared by databases db1, db2")
		}
	}
	assert.Empty(t, res.FindingsFor("db2", "t3"))

	assert.NoError(t, tr.AddDerivedEntries(res.Entries))
	got, level, ok := tr.TranslateLocation("db1", "RIGHT", "hdfs://ns1/data/shared/t1", "hdfs://ns2")
	assert.False(t, ok)
	assert.Equal(t, LEVEL_RELATIVE, level)
	assert.Equal(t, "hdfs://ns2/data/shared/t1", got)
}

func TestReconcile(t *testing.T) {
	b := NewWarehouseMapBuilder()
	assert.NoError(t, b.AddSourceLocation("sales", "orders", "EXTERNAL_TABLE", "", "hdfs://ns1/data/sales.db/orders", "", 1, false))
	assert.NoError(t, b.AddSourceLocation("sales", "facts", "MANAGED_TABLE", "", "hdfs://ns1/user/hive/warehouse/sales.db/facts", "", 1, false))
	assert.NoError(t, b.AddSourceLocation("hr", "people", "EXTERNAL_TABLE", "", "hdfs://ns1/hr/people", "", 1, false))
	assert.NoError(t, b.AddSourceLocation("ops", "logs", "EXTERNAL_TABLE", "", "hdfs://ns1/logs", "", 1, false))
	assert.NoError(t, b.AddSourceLocation("legacy", "t1", "EXTERNAL_TABLE", "", "hdfs://ns1/legacy/t1", "", 1, false))
	b.AddWarehousePlan("sales", "/warehouse/external/hive", "/warehouse/managed/hive")
	b.AddWarehousePlan("ops", "/warehouse/external/hive", "/warehouse/managed/hive")
	b.Seal()

	tr := NewTranslator()
	assert.NoError(t, tr.AddGlobalLocationMapEntry("/hr", "/warehouse/external/hive/hr.db"))

	res := Reconcile(b, tr, ReconcileOptions{})
	assert.ElementsMatch(t, []GLMEntry{
		{Source: "/data/sales.db", Target: "/warehouse/external/hive/sales.db", Origin: LEVEL_WAREHOUSE_PLAN},
		{Source: "/user/hive/warehouse/sales.db", Target: "/warehouse/managed/hive/sales.db", Origin: LEVEL_WAREHOUSE_PLAN},
	}, res.Entries)

	assert.Len(t, res.FindingsFor("ops", "logs"), 1)
	assert.Contains(t, res.FindingsFor("ops", "logs")[0].Message, "filesystem root")
	assert.Len(t, res.FindingsFor("legacy", "t1"), 1)
	assert.Empty(t, res.FindingsFor("hr", "people"))

	assert.NoError(t, tr.AddDerivedEntries(res.Entries))
	got, level, ok := tr.TranslateLocation("sales", "RIGHT", "hdfs://ns1/data/sales.db/orders", "hdfs://ns2")
	assert.True(t, ok)
	assert.Equal(t, LEVEL_WAREHOUSE_PLAN, level)
	assert.Equal(t, "hdfs://ns2/warehouse/external/hive/sales.db/orders", got)
}

func TestReconcileDefaultWarehouseAndRename(t *testing.T) {
	b := NewWarehouseMapBuilder()
	assert.NoError(t, b.AddSourceLocation("sales", "orders", "EXTERNAL_TABLE", "", "/data/sales.db/orders", "", 1, false))
	b.Seal()
	res := Reconcile(b, NewTranslator(), ReconcileOptions{
		DefaultWarehouse:   &Warehouse{ExternalDirectory: "/ext"},
		TargetDatabaseName: func(db string) string { return "mig_" + db },
	})
	assert.Equal(t, []GLMEntry{{Source: "/data/sales.db", Target: "/ext/mig_sales.db", Origin: LEVEL_WAREHOUSE_PLAN}}, res.Entries)
	assert.Empty(t, res.Findings)
}
