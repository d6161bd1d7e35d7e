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
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/migunit"
)

type TableSnapshot struct {
	// SHOW CREATE TABLE output, one statement line per text line
	Definition string            `yaml:"definition"`
	Partitions map[string]string `yaml:"partitions,omitempty"`
}

type DatabaseSnapshot struct {
	Properties map[string]string        `yaml:"properties,omitempty"`
	Tables     map[string]TableSnapshot `yaml:"tables,omitempty"`
}

// Snapshot is an offline copy of a catalog, used to plan without a live cluster.
type Snapshot struct {
	Databases map[string]DatabaseSnapshot `yaml:"databases"`
}

/*
SnapshotEndpoint serves lookups from a Snapshot and records the statements it is asked to
run instead of running them. It is safe for concurrent use.
*/
type SnapshotEndpoint struct {
	env  constants.Environment
	snap *Snapshot

	mu       sync.Mutex
	executed []string
	failOn   []string
}

func LoadSnapshotEndpoint(env constants.Environment, path string) (*SnapshotEndpoint, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s catalog snapshot %q: %w", env, path, err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(bytes, &snap); err != nil {
		return nil, fmt.Errorf("parse %s catalog snapshot %q: %w", env, path, err)
	}
	return NewSnapshotEndpoint(env, &snap), nil
}

func NewSnapshotEndpoint(env constants.Environment, snap *Snapshot) *SnapshotEndpoint {
	if snap.Databases == nil {
		snap.Databases = make(map[string]DatabaseSnapshot)
	}
	return &SnapshotEndpoint{env: env, snap: snap}
}

// FailStatementsContaining makes RunStatements fail on any statement containing one of substrings.
func (s *SnapshotEndpoint) FailStatementsContaining(substrings ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = append(s.failOn, substrings...)
}

// Executed returns the statements run so far, in order.
func (s *SnapshotEndpoint) Executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.executed...)
}

func (s *SnapshotEndpoint) Environment() constants.Environment {
	return s.env
}

func (s *SnapshotEndpoint) table(database, table string) (TableSnapshot, bool) {
	db, ok := s.snap.Databases[database]
	if !ok {
		return TableSnapshot{}, false
	}
	t, ok := db.Tables[table]
	return t, ok
}

func (s *SnapshotEndpoint) DatabaseExists(ctx context.Context, database string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := s.snap.Databases[database]
	return ok, nil
}

func (s *SnapshotEndpoint) GetDatabase(ctx context.Context, database string) (*Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db, ok := s.snap.Databases[database]
	if !ok {
		return nil, fmt.Errorf("database %s not found on %s", database, s.env)
	}
	props := make(map[string]string, len(db.Properties))
	for k, v := range db.Properties {
		props[strings.ToUpper(k)] = v
	}
	return &Database{Name: database, Properties: props}, nil
}

func (s *SnapshotEndpoint) ListTables(ctx context.Context, database string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db, ok := s.snap.Databases[database]
	if !ok {
		return nil, fmt.Errorf("database %s not found on %s", database, s.env)
	}
	names := make([]string, 0, len(db.Tables))
	for name := range db.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *SnapshotEndpoint) TableExists(ctx context.Context, database, table string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := s.table(database, table)
	return ok, nil
}

func (s *SnapshotEndpoint) GetDefinition(ctx context.Context, database, table string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := s.table(database, table)
	if !ok {
		return nil, fmt.Errorf("table %s.%s not found on %s", database, table, s.env)
	}
	return strings.Split(strings.TrimRight(t.Definition, "\n"), "\n"), nil
}

func (s *SnapshotEndpoint) ListPartitions(ctx context.Context, database, table string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := s.table(database, table)
	if !ok {
		return nil, fmt.Errorf("table %s.%s not found on %s", database, table, s.env)
	}
	out := make(map[string]string, len(t.Partitions))
	for k, v := range t.Partitions {
		out[k] = v
	}
	return out, nil
}

func (s *SnapshotEndpoint) RunStatements(ctx context.Context, database string, statements []migunit.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range statements {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, f := range s.failOn {
			if strings.Contains(p.Action, f) {
				return fmt.Errorf("%s statement %d (%s) failed: rejected by snapshot", s.env, i+1, p.Description)
			}
		}
		s.executed = append(s.executed, p.Action)
	}
	return nil
}

func (s *SnapshotEndpoint) Close() error {
	return nil
}
