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

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/hive-voyager/src/catalog"
	"github.com/yugabyte/hive-voyager/src/config"
	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/metadb"
	"github.com/yugabyte/hive-voyager/src/metrics"
	"github.com/yugabyte/hive-voyager/src/report"
	"github.com/yugabyte/hive-voyager/src/runner"
	"github.com/yugabyte/hive-voyager/src/utils"
)

var (
	disablePb  bool
	startClean bool
)

// cleanOutputDir drops the reports and the run history of earlier runs.
func cleanOutputDir(outputDir string) {
	reportsDir := filepath.Join(outputDir, "reports")
	metaDir := filepath.Dir(metadb.GetMetaDBPath(outputDir))
	if utils.IsDirectoryEmpty(reportsDir) && utils.IsDirectoryEmpty(metaDir) {
		return
	}
	if !utils.AskPrompt("The reports and run history in", outputDir, "will be removed. Do you want to continue") {
		utils.ErrExit("Aborting, the output dir was not cleaned.")
	}
	utils.CleanDir(reportsDir)
	utils.CleanDir(metaDir)
}

func openEndpoint(env constants.Environment, cluster config.Cluster) (catalog.Endpoint, error) {
	if !cluster.Configured() {
		return nil, fmt.Errorf("no catalog configured for %s: set clusters.%s.hiveserver2 or clusters.%s.snapshot_path",
			env, lowerEnv(env), lowerEnv(env))
	}
	ep, err := catalog.NewEndpoint(env, cluster)
	if err != nil {
		return nil, err
	}
	return catalog.NewDegrading(ep, cfg.CatalogTimeout), nil
}

func lowerEnv(env constants.Environment) string {
	if env == constants.LEFT {
		return "left"
	}
	return "right"
}

func openMetaDB(outputDir string) *metadb.MetaDB {
	err := metadb.CreateAndInitMetaDBIfRequired(outputDir)
	if err != nil {
		utils.ErrExit("could not create the meta db: %v", err)
	}
	mdb, err := metadb.NewMetaDB(outputDir)
	if err != nil {
		utils.ErrExit("could not open the meta db: %v", err)
	}
	err = mdb.InitPlanStatusRecord(uuid.New().String())
	if err != nil {
		utils.ErrExit("could not initialise the plan status record: %v", err)
	}
	return mdb
}

/*
runMigration validates the configuration, opens both catalogs and runs. The scripts and
report are written even when the run is cancelled, for the tables that were processed.
*/
func runMigration(execute bool) error {
	cfg.Execute = execute
	if err := cfg.Validate(); err != nil {
		return err
	}

	left, err := openEndpoint(constants.LEFT, cfg.SourceCluster())
	if err != nil {
		return fmt.Errorf("open LEFT catalog: %w", err)
	}
	defer left.Close()
	var right catalog.Endpoint
	if runner.NeedsRight(cfg.DataStrategy) {
		right, err = openEndpoint(constants.RIGHT, cfg.TargetCluster())
		if err != nil {
			return fmt.Errorf("open RIGHT catalog: %w", err)
		}
		defer right.Close()
	}

	if startClean {
		cleanOutputDir(cfg.OutputDir)
	}
	mdb := openMetaDB(cfg.OutputDir)
	defer mdb.Close()

	if cfg.MetricsPort > 0 {
		srv := metrics.StartMetricsServer(cfg.MetricsPort)
		defer srv.Close()
	}

	progress := NewPlanProgressReporter(disablePb)
	r, err := runner.New(cfg, left, right, runner.WithMetaDB(mdb), runner.WithProgress(progress))
	if err != nil {
		return err
	}
	utils.PrintAndLog("Run %s: %s of databases %v", r.RunID(), cfg.DataStrategy, cfg.Databases)
	res, runErr := r.Run(runCtx)
	progress.Wait()
	if runErr != nil && res == nil {
		return runErr
	}
	if res != nil && len(res.Databases) > 0 {
		w := report.NewWriter(cfg.OutputDir)
		if _, err := w.Write(res, cfg.DataStrategy); err != nil {
			log.Errorf("write report: %v", err)
			return err
		}
		report.PrintSummary(res, w.RunDir(res.RunID))
	}
	return runErr
}
