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

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/utils"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Plan the migration and execute it against both clusters.",
	Long: `Plan the configured databases like 'plan' does, then run the statements: database statements
first, then for every table its LEFT statements, its RIGHT statements and finally the clean-up
statements. A table that fails is reported and does not stop the others.`,

	Run: func(cmd *cobra.Command, args []string) {
		if err := cfg.Validate(); err != nil {
			utils.ErrExit("migrate: %v", err)
		}
		if cfg.DataStrategy == constants.DUMP {
			utils.PrintAndLog("DUMP only writes scripts; nothing will be executed.")
		} else if !utils.AskPrompt("Statements will be executed on the configured clusters. Do you want to continue") {
			utils.ErrExit("Aborting migrate.")
		}
		err := runMigration(true)
		if err != nil {
			utils.ErrExit("migrate: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	registerRunFlags(migrateCmd)
}
