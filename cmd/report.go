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
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/metadb"
	"github.com/yugabyte/hive-voyager/src/report"
	"github.com/yugabyte/hive-voyager/src/runner"
	"github.com/yugabyte/hive-voyager/src/utils"
)

var reportRunID string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the summary of a past run and rewrite its scripts and report.",

	Run: func(cmd *cobra.Command, args []string) {
		err := runReport()
		if err != nil {
			utils.ErrExit("report: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportRunID, "run-id", "", "run to report on (default: the latest run)")
}

// loadResult rebuilds the result of a persisted run.
func loadResult(mdb *metadb.MetaDB, runID string) (*runner.Result, constants.DataStrategy, error) {
	run, err := mdb.GetRun(runID)
	if err != nil {
		return nil, "", err
	}
	if run == nil {
		return nil, "", fmt.Errorf("run %s not found", runID)
	}
	res := &runner.Result{
		RunID:      run.RunID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Status:     run.Status,
		Translator: location.NewTranslator(),
	}
	res.Databases, err = mdb.GetDatabaseUnits(runID)
	if err != nil {
		return nil, "", err
	}
	res.Units, err = mdb.GetMigrationUnits(runID)
	if err != nil {
		return nil, "", err
	}
	for _, du := range res.Databases {
		translations, err := mdb.GetTranslations(runID, du.Name)
		if err != nil {
			return nil, "", err
		}
		for env, ts := range translations {
			for _, t := range ts {
				res.Translator.AddTranslation(du.Name, env, t.Original, t.New, t.Level)
			}
		}
	}
	return res, run.DataStrategy, nil
}

func runReport() error {
	metaDBPath := metadb.GetMetaDBPath(cfg.OutputDir)
	if !utils.FileOrFolderExists(metaDBPath) {
		return fmt.Errorf("no runs found in %s", cfg.OutputDir)
	}
	mdb, err := metadb.OpenMetaDB(metaDBPath)
	if err != nil {
		return err
	}
	defer mdb.Close()

	runID := reportRunID
	if runID == "" {
		runID, err = mdb.LatestRunID()
		if err != nil {
			return err
		}
		if runID == "" {
			return fmt.Errorf("no runs found in %s", cfg.OutputDir)
		}
	}
	res, strategy, err := loadResult(mdb, runID)
	if err != nil {
		return err
	}
	w := report.NewWriter(cfg.OutputDir)
	if _, err := w.Write(res, strategy); err != nil {
		return err
	}
	took := ""
	if !res.FinishedAt.IsZero() {
		took = fmt.Sprintf(" in %s", res.FinishedAt.Sub(res.StartedAt).Round(time.Second))
	}
	fmt.Printf("Run %s (%s) finished %s%s\n", res.RunID, strategy, res.Status, took)
	report.PrintSummary(res, filepath.Clean(w.RunDir(res.RunID)))
	return nil
}
