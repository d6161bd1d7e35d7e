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
	"sort"

	"github.com/yugabyte/hive-voyager/src/constants"
)

type DatabaseEnvironment struct {
	Name       string            `json:"name"`
	Exists     bool              `json:"exists"`
	Properties map[string]string `json:"properties,omitempty"`
	SQL        []Pair            `json:"sql,omitempty"`
	Issues     []string          `json:"issues,omitempty"`
}

func (d *DatabaseEnvironment) AddSQL(description, action string) {
	d.SQL = append(d.SQL, Pair{Description: description, Action: action})
}

func (d *DatabaseEnvironment) AddIssue(format string, args ...interface{}) {
	d.Issues = append(d.Issues, fmt.Sprintf(format, args...))
}

// DatabaseUnit holds the database level DDL, emitted once per database ahead of its tables.
type DatabaseUnit struct {
	Name         string                                         `json:"name"`
	Phase        constants.PhaseState                           `json:"phase"`
	Environments map[constants.Environment]*DatabaseEnvironment `json:"environments"`
	Tables       []string                                       `json:"tables,omitempty"`
}

func NewDatabaseUnit(name string) *DatabaseUnit {
	return &DatabaseUnit{
		Name:  name,
		Phase: constants.PHASE_INIT,
		Environments: map[constants.Environment]*DatabaseEnvironment{
			constants.LEFT:  {Name: name},
			constants.RIGHT: {Name: name},
		},
	}
}

func (d *DatabaseUnit) Env(env constants.Environment) *DatabaseEnvironment {
	de, ok := d.Environments[env]
	if !ok {
		de = &DatabaseEnvironment{Name: d.Name}
		d.Environments[env] = de
	}
	return de
}

func (d *DatabaseUnit) SetPhase(phase constants.PhaseState) error {
	if d.Phase == phase {
		return nil
	}
	if d.Phase == constants.PHASE_ERROR {
		return fmt.Errorf("database %s: phase %s is terminal", d.Name, d.Phase)
	}
	if phase != constants.PHASE_ERROR && phaseRank[phase] < phaseRank[d.Phase] {
		return fmt.Errorf("database %s: phase cannot move back from %s to %s", d.Name, d.Phase, phase)
	}
	d.Phase = phase
	return nil
}

func sortStrings(s []string) {
	sort.Strings(s)
}
