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
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/samber/lo"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/runner"
)

//go:embed templates/database_report.md
var databaseReportTmpl string

type tableRow struct {
	Name     string
	Strategy constants.DataStrategy
	Phase    constants.PhaseState
	Steps    []string
	Issues   []string
	Errors   []string
}

type translationRow struct {
	Environment constants.Environment
	location.Translation
}

type databaseReport struct {
	Database     string
	RunID        string
	Strategy     constants.DataStrategy
	Status       string
	Phase        constants.PhaseState
	Failed       int
	DatabaseSQL  map[constants.Environment][]migunit.Pair
	Tables       []tableRow
	Translations []translationRow
	Findings     []location.Finding
}

var funcMap = template.FuncMap{
	"join": func(arr []string, sep string) string {
		return strings.Join(arr, sep)
	},
}

func DatabaseMarkdown(res *runner.Result, du *migunit.DatabaseUnit, strategy constants.DataStrategy) (string, error) {
	r := databaseReport{
		Database:    du.Name,
		RunID:       res.RunID,
		Strategy:    strategy,
		Status:      res.Status,
		Phase:       du.Phase,
		DatabaseSQL: map[constants.Environment][]migunit.Pair{},
	}
	for env, de := range du.Environments {
		if len(de.SQL) > 0 {
			r.DatabaseSQL[env] = de.SQL
		}
	}
	for _, u := range res.UnitsOf(du.Name) {
		if u.Phase == constants.PHASE_ERROR {
			r.Failed++
		}
		r.Tables = append(r.Tables, tableRow{
			Name:     u.Name,
			Strategy: u.Strategy,
			Phase:    u.Phase,
			Steps:    lo.Map(u.Steps, func(s migunit.Step, _ int) string { return string(s.Strategy) }),
			Issues:   u.Issues(),
			Errors:   u.Errors(),
		})
	}
	if res.Translator != nil {
		byEnv := res.Translator.TranslationsForDatabase(du.Name)
		envs := lo.Keys(byEnv)
		sort.Slice(envs, func(i, j int) bool { return envs[i] < envs[j] })
		for _, env := range envs {
			for _, t := range byEnv[env] {
				r.Translations = append(r.Translations, translationRow{Environment: env, Translation: t})
			}
		}
	}
	if res.Findings != nil {
		r.Findings = lo.Filter(res.Findings.Findings, func(f location.Finding, _ int) bool { return f.Database == du.Name })
	}

	tmpl, err := template.New("database_report").Funcs(funcMap).Parse(databaseReportTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template file: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("failed to execute template for database %s: %w", du.Name, err)
	}
	return buf.String(), nil
}
