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
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/runner"
	"github.com/yugabyte/hive-voyager/src/utils/jsonfile"
)

type TableSummary struct {
	Name     string                   `json:"name"`
	Strategy constants.DataStrategy   `json:"strategy"`
	Phase    constants.PhaseState     `json:"phase"`
	Steps    []constants.DataStrategy `json:"steps,omitempty"`
	Issues   int                      `json:"issues"`
	Errors   []string                 `json:"errors,omitempty"`
}

type DatabaseSummary struct {
	Name   string                       `json:"name"`
	Phase  constants.PhaseState         `json:"phase"`
	Phases map[constants.PhaseState]int `json:"phases"`
	Tables []TableSummary               `json:"tables"`
}

type RunSummary struct {
	RunID        string                         `json:"run_id"`
	DataStrategy constants.DataStrategy         `json:"data_strategy"`
	Status       string                         `json:"status"`
	StartedAt    time.Time                      `json:"started_at"`
	FinishedAt   time.Time                      `json:"finished_at"`
	Strategies   map[constants.DataStrategy]int `json:"strategies"`
	Failed       int                            `json:"failed"`
	Databases    []DatabaseSummary              `json:"databases"`
	Findings     int                            `json:"location_findings"`
}

func tableSummary(u *migunit.MigrationUnit) TableSummary {
	return TableSummary{
		Name:     u.Name,
		Strategy: u.Strategy,
		Phase:    u.Phase,
		Steps:    lo.Map(u.Steps, func(s migunit.Step, _ int) constants.DataStrategy { return s.Strategy }),
		Issues:   len(u.Issues()),
		Errors:   u.Errors(),
	}
}

func Summarize(res *runner.Result, strategy constants.DataStrategy) *RunSummary {
	s := &RunSummary{
		RunID:        res.RunID,
		DataStrategy: strategy,
		Status:       res.Status,
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
		Strategies:   map[constants.DataStrategy]int{},
	}
	if res.Findings != nil {
		s.Findings = len(res.Findings.Findings)
	}
	for _, du := range res.Databases {
		ds := DatabaseSummary{Name: du.Name, Phase: du.Phase, Phases: map[constants.PhaseState]int{}}
		for _, u := range res.UnitsOf(du.Name) {
			ds.Phases[u.Phase]++
			ds.Tables = append(ds.Tables, tableSummary(u))
			if u.Phase == constants.PHASE_ERROR {
				s.Failed++
			} else {
				s.Strategies[u.Strategy]++
			}
		}
		slices.SortFunc(ds.Tables, func(a, b TableSummary) int { return strings.Compare(a.Name, b.Name) })
		s.Databases = append(s.Databases, ds)
	}
	return s
}

func WriteRunSummary(path string, s *RunSummary) error {
	if err := jsonfile.NewJsonFile[RunSummary](path).Create(s); err != nil {
		return fmt.Errorf("write run summary %s: %w", path, err)
	}
	return nil
}

func ReadRunSummary(path string) (*RunSummary, error) {
	return jsonfile.NewJsonFile[RunSummary](path).Read()
}
