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
	"github.com/spf13/cobra"

	"github.com/yugabyte/hive-voyager/src/config"
	"github.com/yugabyte/hive-voyager/src/utils"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Scan both catalogs and write the migration plan without executing it.",
	Long: `Scan the configured databases on LEFT and RIGHT, decide a data strategy per table and write
the SQL scripts, distcp plans and report of the run under <output-dir>/reports/<run id>.`,

	Run: func(cmd *cobra.Command, args []string) {
		err := runMigration(false)
		if err != nil {
			utils.ErrExit("plan: %v", err)
		}
	},
}

// registerRunFlags adds the flags shared by plan and migrate.
func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-strategy", "SCHEMA_ONLY",
		"data strategy: DUMP, SCHEMA_ONLY, LINKED, CONVERT_LINKED, COMMON, SQL, EXPORT_IMPORT, HYBRID, STORAGE_MIGRATION")
	cmd.Flags().StringSlice("databases", nil, "comma separated list of LEFT databases to migrate")
	cmd.Flags().String("db-prefix", "", "prefix added to the RIGHT database names")
	cmd.Flags().String("db-rename", "", "RIGHT name of the database (single database only)")
	cmd.Flags().String("table-regex", "", "only migrate tables matching this regular expression")
	cmd.Flags().String("table-exclude-regex", "", "skip tables matching this regular expression")
	cmd.Flags().Bool("migrate-views", false, "migrate views (SCHEMA_ONLY and DUMP)")
	cmd.Flags().Bool("migrate-acid", false, "migrate transactional tables")
	cmd.Flags().Bool("migrate-acid-only", false, "migrate transactional tables only")
	cmd.Flags().Bool("acid-downgrade", false, "convert transactional tables to external tables")
	cmd.Flags().Bool("acid-inplace", false, "downgrade transactional tables in place on LEFT")
	cmd.Flags().Bool("read-only", false, "RIGHT tables never purge their data and are never dropped")
	cmd.Flags().Bool("no-purge", false, "do not set external.table.purge on RIGHT tables")
	cmd.Flags().Bool("sync", false, "drop or replace RIGHT tables to match LEFT")
	cmd.Flags().Bool("create-if-not-exists", false, "use CREATE ... IF NOT EXISTS for RIGHT tables")
	cmd.Flags().Bool("flip", false, "swap the roles of the two clusters, e.g. to plan the way back")
	cmd.Flags().Bool("strict", false, "fail tables whose locations cannot be translated instead of reporting an issue")
	cmd.Flags().Bool("reset-to-default-location", false, "strip table locations so RIGHT places them in the database default")
	cmd.Flags().String("target-namespace", "", "namespace of the target storage for STORAGE_MIGRATION")
	cmd.Flags().String("intermediate-storage", "", "storage both clusters can reach, used to stage data")
	cmd.Flags().String("common-storage", "", "storage shared by both clusters, data is written there once")
	cmd.Flags().Int("workers", config.DefaultWorkers(), "number of tables processed concurrently")
	cmd.Flags().Duration("catalog-timeout", config.DEFAULT_CATALOG_TIMEOUT, "timeout of a single catalog lookup")
	cmd.Flags().Int("metrics-port", 0, "serve prometheus metrics on this port while running (0 disables)")
	cmd.Flags().BoolVar(&disablePb, "disable-pb", false, "print one line per table instead of progress bars")
	cmd.Flags().BoolVar(&startClean, "start-clean", false, "remove the reports and run history of earlier runs first")
}

func init() {
	rootCmd.AddCommand(planCmd)
	registerCommonGlobalFlags(rootCmd)
	registerRunFlags(planCmd)
}
