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
	"fmt"
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"

	"github.com/yugabyte/hive-voyager/src/constants"
)

// Warehouse holds the desired base directories of a database. Neither directory
// includes the database name; it is appended at use time.
type Warehouse struct {
	ExternalDirectory string `json:"external_directory" mapstructure:"external_directory" yaml:"external_directory"`
	ManagedDirectory  string `json:"managed_directory" mapstructure:"managed_directory" yaml:"managed_directory"`
}

func (w Warehouse) DirectoryFor(tableType constants.TableType) string {
	if tableType == constants.MANAGED_TABLE && w.ManagedDirectory != "" {
		return w.ManagedDirectory
	}
	return w.ExternalDirectory
}

// SourceLocationMap groups the consolidated base locations of one database by table type.
// Each base location carries the set of tables that reduce to it.
type SourceLocationMap struct {
	Locations map[constants.TableType]map[string]mapset.Set[string] `json:"locations"`
}

func newSourceLocationMap() *SourceLocationMap {
	return &SourceLocationMap{Locations: make(map[constants.TableType]map[string]mapset.Set[string])}
}

func (s *SourceLocationMap) add(tableType constants.TableType, base, table string) {
	byBase, ok := s.Locations[tableType]
	if !ok {
		byBase = make(map[string]mapset.Set[string])
		s.Locations[tableType] = byBase
	}
	tables, ok := byBase[base]
	if !ok {
		tables = mapset.NewThreadUnsafeSet[string]()
		byBase[base] = tables
	}
	tables.Add(table)
}

// BaseLocations returns the base locations for a table type, sorted.
func (s *SourceLocationMap) BaseLocations(tableType constants.TableType) []string {
	keys := maps.Keys(s.Locations[tableType])
	sort.Strings(keys)
	return keys
}

// Tables returns the sorted table names behind a base location.
func (s *SourceLocationMap) Tables(tableType constants.TableType, base string) []string {
	set, ok := s.Locations[tableType][base]
	if !ok {
		return nil
	}
	tables := set.ToSlice()
	sort.Strings(tables)
	return tables
}

func (s *SourceLocationMap) TableTypes() []constants.TableType {
	types := maps.Keys(s.Locations)
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

/*
WarehouseMapBuilder collects the observed source locations per database and the
per-database warehouse plan. It only proposes candidate base locations; Reconcile
turns them into location map entries.

The sources are filled during the scan pass, before any table worker starts. Seal
must be called at that point, after which AddSourceLocation fails.
*/
type WarehouseMapBuilder struct {
	mu            sync.RWMutex
	sealed        bool
	sources       map[string]*SourceLocationMap
	warehousePlan map[string]Warehouse
}

func NewWarehouseMapBuilder() *WarehouseMapBuilder {
	return &WarehouseMapBuilder{
		sources:       make(map[string]*SourceLocationMap),
		warehousePlan: make(map[string]Warehouse),
	}
}

/*
AddSourceLocation records the base location of a table or of one of its partitions.

For a table (partitionSpec == "") the table location is reduced by consolidationLevel
segments. For a partition whose location lives under the table location nothing is
recorded, the table entry already covers it. Otherwise the partition location is
reduced by consolidationLevel when partitionLevelMismatch is tolerated, or by
partition depth + consolidationLevel to get back to the ancestor it shares with the table.
*/
func (b *WarehouseMapBuilder) AddSourceLocation(database, table string, tableType constants.TableType,
	partitionSpec, tableLocation, partitionLocation string, consolidationLevel int, partitionLevelMismatch bool) error {

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return fmt.Errorf("add source location for %s.%s: warehouse map is sealed", database, table)
	}

	var base string
	if partitionSpec == "" {
		if tableLocation == "" {
			return fmt.Errorf("add source location for %s.%s: empty table location", database, table)
		}
		base = ReduceUrlBy(tableLocation, consolidationLevel)
	} else {
		if partitionLocation == "" {
			return fmt.Errorf("add source location for %s.%s partition %s: empty partition location", database, table, partitionSpec)
		}
		if tableLocation != "" && IsSubPath(tableLocation, partitionLocation) {
			return nil
		}
		level := consolidationLevel
		if !partitionLevelMismatch {
			level = PartitionDepth(partitionSpec) + consolidationLevel
		}
		base = ReduceUrlBy(partitionLocation, level)
		log.Infof("partition %s of %s.%s is outside the table location, base %s", partitionSpec, database, table, base)
	}

	_, path := SplitNamespace(base)
	slm, ok := b.sources[database]
	if !ok {
		slm = newSourceLocationMap()
		b.sources[database] = slm
	}
	slm.add(tableType, NormalizePath(path), table)
	return nil
}

// Seal freezes the sources. Table workers only ever read a sealed builder.
func (b *WarehouseMapBuilder) Seal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sealed = true
}

func (b *WarehouseMapBuilder) IsSealed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sealed
}

// AddWarehousePlan sets the plan for database and returns the plan it replaced, if any.
func (b *WarehouseMapBuilder) AddWarehousePlan(database, externalDirectory, managedDirectory string) *Warehouse {
	b.mu.Lock()
	defer b.mu.Unlock()
	var prev *Warehouse
	if w, ok := b.warehousePlan[database]; ok {
		prev = &w
	}
	b.warehousePlan[database] = Warehouse{
		ExternalDirectory: NormalizePath(externalDirectory),
		ManagedDirectory:  NormalizePath(managedDirectory),
	}
	return prev
}

func (b *WarehouseMapBuilder) RemoveWarehousePlan(database string) *Warehouse {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.warehousePlan[database]
	if !ok {
		return nil
	}
	delete(b.warehousePlan, database)
	return &w
}

func (b *WarehouseMapBuilder) WarehousePlan(database string) (Warehouse, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	w, ok := b.warehousePlan[database]
	return w, ok
}

func (b *WarehouseMapBuilder) WarehousePlans() map[string]Warehouse {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.warehousePlan)
}

// Sources returns the source location map of a database, nil if none was recorded.
func (b *WarehouseMapBuilder) Sources(database string) *SourceLocationMap {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sources[database]
}

func (b *WarehouseMapBuilder) SourceDatabases() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	dbs := maps.Keys(b.sources)
	sort.Strings(dbs)
	return dbs
}

// ClearSources drops every recorded source location and unseals the builder.
func (b *WarehouseMapBuilder) ClearSources() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = make(map[string]*SourceLocationMap)
	b.sealed = false
}

func (b *WarehouseMapBuilder) ClearWarehousePlans() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.warehousePlan = make(map[string]Warehouse)
}
