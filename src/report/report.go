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
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/runner"
)

const (
	EXECUTE_SCRIPT_SUFFIX = "execute.sql"
	CLEANUP_SCRIPT_SUFFIX = "cleanup.sql"
	DISTCP_SCRIPT_SUFFIX  = "distcp.sh"
	REPORT_SUFFIX         = "report.md"
	RUN_SUMMARY_FILE_NAME = "run.json"
)

// Writer lays a run's output out under <outputDir>/reports/<run id>/.
type Writer struct {
	outputDir string
}

func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

func (w *Writer) RunDir(runID string) string {
	return filepath.Join(w.outputDir, "reports", runID)
}

/*
Write produces, per database, the execute and clean-up scripts of each environment, the
distcp plan of every environment with translated locations, and the markdown report.
The run summary goes to run.json. It returns the paths written.
*/
func (w *Writer) Write(res *runner.Result, strategy constants.DataStrategy) ([]string, error) {
	dir := w.RunDir(res.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create report dir %s: %w", dir, err)
	}
	var written []string
	write := func(name, content string) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Infof("wrote %s", path)
		written = append(written, path)
		return nil
	}

	for _, du := range res.Databases {
		units := res.UnitsOf(du.Name)
		for _, env := range []constants.Environment{constants.LEFT, constants.RIGHT} {
			script := ExecuteScript(du, units, env)
			if script != "" {
				if err := write(fileName(du.Name, env, EXECUTE_SCRIPT_SUFFIX), script); err != nil {
					return written, err
				}
			}
			script = CleanUpScript(units, env)
			if script != "" {
				if err := write(fileName(du.Name, env, CLEANUP_SCRIPT_SUFFIX), script); err != nil {
					return written, err
				}
			}
		}
		if res.Translator != nil {
			for env, translations := range res.Translator.TranslationsForDatabase(du.Name) {
				plan := BuildDistcpPlan(translations)
				if len(plan) == 0 {
					continue
				}
				if err := write(fileName(du.Name, env, DISTCP_SCRIPT_SUFFIX), DistcpScript(plan)); err != nil {
					return written, err
				}
			}
		}
		md, err := DatabaseMarkdown(res, du, strategy)
		if err != nil {
			return written, err
		}
		if err := write(du.Name+"_"+REPORT_SUFFIX, md); err != nil {
			return written, err
		}
	}

	path := filepath.Join(dir, RUN_SUMMARY_FILE_NAME)
	if err := WriteRunSummary(path, Summarize(res, strategy)); err != nil {
		return written, err
	}
	written = append(written, path)
	return written, nil
}

func fileName(database string, env constants.Environment, suffix string) string {
	return fmt.Sprintf("%s_%s_%s", database, strings.ToLower(string(env)), suffix)
}

func writeStatements(sb *strings.Builder, pairs []migunit.Pair) {
	for _, p := range pairs {
		fmt.Fprintf(sb, "-- %s\n%s;\n", p.Description, p.Action)
	}
}

/*
ExecuteScript is the replayable script of one environment: the database statements first,
then every table that reached CALCULATED_SQL or later, in table order. Tables in ERROR are
listed as comments only.
*/
func ExecuteScript(du *migunit.DatabaseUnit, units []*migunit.MigrationUnit, env constants.Environment) string {
	var sb strings.Builder
	if de, ok := du.Environments[env]; ok && len(de.SQL) > 0 {
		fmt.Fprintf(&sb, "-- database %s\n", du.Name)
		writeStatements(&sb, de.SQL)
	}
	for _, u := range units {
		if !u.HasEnv(env) {
			continue
		}
		et := u.Env(env)
		if u.Phase == constants.PHASE_ERROR {
			if len(et.SQL) > 0 || env == constants.LEFT {
				fmt.Fprintf(&sb, "\n-- table %s skipped: %s\n", u.QualifiedName(), strings.Join(u.Errors(), "; "))
			}
			continue
		}
		if len(et.SQL) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n-- table %s (%s)\n", u.QualifiedName(), u.Strategy)
		writeStatements(&sb, et.SQL)
	}
	return sb.String()
}

func CleanUpScript(units []*migunit.MigrationUnit, env constants.Environment) string {
	var sb strings.Builder
	for _, u := range units {
		if !u.HasEnv(env) || u.Phase == constants.PHASE_ERROR {
			continue
		}
		et := u.Env(env)
		if len(et.CleanUpSQL) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "-- table %s\n", u.QualifiedName())
		writeStatements(&sb, et.CleanUpSQL)
	}
	return sb.String()
}

// DistcpEntry copies every source directory into Target.
type DistcpEntry struct {
	Target  string
	Sources []string
}

/*
BuildDistcpPlan groups translated locations by the parent of their new location. A source
nested under another source of the plan is already covered by it and is dropped, so a
table and its partitions are copied once.
*/
func BuildDistcpPlan(translations []location.Translation) []DistcpEntry {
	var originals []string
	newOf := map[string]string{}
	for _, t := range translations {
		if t.Original == "" || t.New == "" || t.Original == t.New {
			continue
		}
		if _, ok := newOf[t.Original]; ok {
			continue
		}
		newOf[t.Original] = t.New
		originals = append(originals, t.Original)
	}
	sort.Strings(originals)

	byTarget := map[string][]string{}
	var kept []string
	for _, o := range originals {
		covered := false
		for _, k := range kept {
			if location.IsSubPath(k, o) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		kept = append(kept, o)
		target := location.ReduceUrlBy(newOf[o], 1)
		byTarget[target] = append(byTarget[target], o)
	}

	targets := make([]string, 0, len(byTarget))
	for t := range byTarget {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	plan := make([]DistcpEntry, 0, len(targets))
	for _, t := range targets {
		plan = append(plan, DistcpEntry{Target: t, Sources: byTarget[t]})
	}
	return plan
}

func DistcpScript(plan []DistcpEntry) string {
	var sb strings.Builder
	sb.WriteString("#!/usr/bin/env bash\nset -e\n")
	for _, e := range plan {
		fmt.Fprintf(&sb, "\nhadoop distcp -update -skipcrccheck \\\n")
		for _, s := range e.Sources {
			fmt.Fprintf(&sb, "  %s \\\n", s)
		}
		fmt.Fprintf(&sb, "  %s\n", e.Target)
	}
	return sb.String()
}
