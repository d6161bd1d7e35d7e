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
package migunit

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"

	"github.com/yugabyte/hive-voyager/src/constants"
)

// Pair is one planned statement: a human readable description and the SQL to run.
type Pair struct {
	Description string `json:"description"`
	Action      string `json:"action"`
}

type EnvironmentTable struct {
	Name           string                   `json:"name"`
	Exists         bool                     `json:"exists"`
	Definition     []string                 `json:"definition,omitempty"`
	Partitioned    bool                     `json:"partitioned"`
	Partitions     map[string]string        `json:"partitions,omitempty"`
	Properties     map[string]string        `json:"properties,omitempty"`
	SQL            []Pair                   `json:"sql,omitempty"`
	CleanUpSQL     []Pair                   `json:"cleanup_sql,omitempty"`
	CreateStrategy constants.CreateStrategy `json:"create_strategy"`
	Issues         []string                 `json:"issues,omitempty"`
	Errors         []string                 `json:"errors,omitempty"`
}

func (e *EnvironmentTable) AddSQL(description, action string) {
	e.SQL = append(e.SQL, Pair{Description: description, Action: action})
}

func (e *EnvironmentTable) AddCleanUpSQL(description, action string) {
	e.CleanUpSQL = append(e.CleanUpSQL, Pair{Description: description, Action: action})
}

func (e *EnvironmentTable) AddIssue(format string, args ...interface{}) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
}

func (e *EnvironmentTable) AddError(format string, args ...interface{}) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *EnvironmentTable) PartitionCount() int {
	return len(e.Partitions)
}

// SortedPartitionSpecs returns the partition specs in lexical order.
func (e *EnvironmentTable) SortedPartitionSpecs() []string {
	specs := maps.Keys(e.Partitions)
	sortStrings(specs)
	return specs
}

type Step struct {
	Strategy constants.DataStrategy `json:"strategy"`
	Note     string                 `json:"note,omitempty"`
}

/*
MigrationUnit is the migration state of one table. It is owned by the single worker
processing the table, so it carries no lock.
*/
type MigrationUnit struct {
	Database     string                                      `json:"database"`
	Name         string                                      `json:"name"`
	Strategy     constants.DataStrategy                      `json:"strategy"`
	Phase        constants.PhaseState                        `json:"phase"`
	Steps        []Step                                      `json:"steps,omitempty"`
	Environments map[constants.Environment]*EnvironmentTable `json:"environments"`
	StartedAt    time.Time                                   `json:"started_at,omitempty"`
	FinishedAt   time.Time                                   `json:"finished_at,omitempty"`
}

func NewMigrationUnit(database, name string) *MigrationUnit {
	return &MigrationUnit{
		Database: database,
		Name:     name,
		Phase:    constants.PHASE_INIT,
		Environments: map[constants.Environment]*EnvironmentTable{
			constants.LEFT:  {Name: name},
			constants.RIGHT: {Name: name},
		},
	}
}

func (u *MigrationUnit) QualifiedName() string {
	return u.Database + "." + u.Name
}

// Env returns the table record of an environment, creating an empty one if needed.
func (u *MigrationUnit) Env(env constants.Environment) *EnvironmentTable {
	et, ok := u.Environments[env]
	if !ok {
		et = &EnvironmentTable{}
		u.Environments[env] = et
	}
	return et
}

func (u *MigrationUnit) HasEnv(env constants.Environment) bool {
	_, ok := u.Environments[env]
	return ok
}

func (u *MigrationUnit) RemoveEnv(env constants.Environment) {
	delete(u.Environments, env)
}

func (u *MigrationUnit) AddStep(strategy constants.DataStrategy, note string) {
	u.Steps = append(u.Steps, Step{Strategy: strategy, Note: note})
}

var phaseRank = map[constants.PhaseState]int{
	constants.PHASE_INIT:           0,
	constants.PHASE_STARTED:        1,
	constants.PHASE_CALCULATED_SQL: 2,
	constants.PHASE_EXECUTED:       3,
}

/*
SetPhase moves the unit forward. Phases only move forward; ERROR is reachable from
every phase and is terminal. Setting the current phase again is a no-op.
*/
func (u *MigrationUnit) SetPhase(phase constants.PhaseState) error {
	if u.Phase == phase {
		return nil
	}
	if u.Phase == constants.PHASE_ERROR {
		return fmt.Errorf("%s: phase %s is terminal, cannot move to %s", u.QualifiedName(), u.Phase, phase)
	}
	if phase == constants.PHASE_ERROR {
		u.Phase = phase
		return nil
	}
	next, ok := phaseRank[phase]
	if !ok {
		return fmt.Errorf("%s: unknown phase %q", u.QualifiedName(), phase)
	}
	if next < phaseRank[u.Phase] {
		return fmt.Errorf("%s: phase cannot move back from %s to %s", u.QualifiedName(), u.Phase, phase)
	}
	log.Debugf("%s: phase %s -> %s", u.QualifiedName(), u.Phase, phase)
	u.Phase = phase
	return nil
}

// Fail records an error on env and moves the unit to ERROR.
func (u *MigrationUnit) Fail(env constants.Environment, format string, args ...interface{}) {
	u.Env(env).AddError(format, args...)
	u.Phase = constants.PHASE_ERROR
}

func (u *MigrationUnit) HasErrors() bool {
	for _, et := range u.Environments {
		if len(et.Errors) > 0 {
			return true
		}
	}
	return false
}

// Issues returns every issue of the unit prefixed with its environment.
func (u *MigrationUnit) Issues() []string {
	var out []string
	for _, env := range constants.AllEnvironments {
		et, ok := u.Environments[env]
		if !ok {
			continue
		}
		for _, i := range et.Issues {
			out = append(out, fmt.Sprintf("%s: %s", env, i))
		}
	}
	return out
}

func (u *MigrationUnit) Errors() []string {
	var out []string
	for _, env := range constants.AllEnvironments {
		et, ok := u.Environments[env]
		if !ok {
			continue
		}
		for _, e := range et.Errors {
			out = append(out, fmt.Sprintf("%s: %s", env, e))
		}
	}
	return out
}
