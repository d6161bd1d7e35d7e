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
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
	"github.com/nightlyone/lockfile"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/yugabyte/hive-voyager/src/config"
	"github.com/yugabyte/hive-voyager/src/utils"
)

var (
	cfgFile  string
	cfg      *config.Config
	lockFile lockfile.Lockfile
	locked   bool

	runCtx, cancelRun = context.WithCancel(context.Background())
)

var rootCmd = &cobra.Command{
	Use:   "hive-voyager",
	Short: "A CLI to migrate Hive databases and tables between clusters",
	Long: `A CLI that migrates Hive metadata, and optionally data, from a LEFT cluster to a RIGHT cluster.
For every table it picks a data strategy, translates storage locations for the target and writes
an ordered SQL plan per database and environment, which can be executed or reviewed and replayed.`,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Use == "version" || cmd.Use == "hive-voyager" {
			return
		}
		var overrides []ConfigFlagOverride
		var err error
		cfg, overrides, err = initConfig(cmd)
		if err != nil {
			utils.ErrExit("%v", err)
		}
		if err := config.ValidateLogLevel(); err != nil {
			utils.ErrExit("%v", err)
		}
		if err := utils.CreateDirIfNotExists(cfg.OutputDir); err != nil {
			utils.ErrExit("create output dir %q: %v", cfg.OutputDir, err)
		}
		if cmd.Use != "report" {
			lockOutputDir(cfg.OutputDir)
		}
		InitLogging(cfg.OutputDir, false, cmd.Use)
		logEffectiveConfig(cfg, overrides)
	},

	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			os.Exit(0)
		}
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		unlockOutputDir()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// CancelRun stops scheduling new tables; tables already being planned or executed finish.
func CancelRun() {
	cancelRun()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	atexit.Register(unlockOutputDir)
}

func registerCommonGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"path of the YAML config file (default $HOME/hive-voyager-config.yaml)")

	cmd.PersistentFlags().StringP("output-dir", "o", ".",
		"directory holding the run metadata, scripts, reports and logs")

	cmd.PersistentFlags().StringVarP(&config.LogLevel, "log-level", "l", "info",
		"log level for hive-voyager. Accepted values: (trace, debug, info, warn, error, fatal, panic)")

	cmd.PersistentFlags().BoolVarP(&utils.DoNotPrompt, "yes", "y", false,
		"assume answer as yes for all questions during migration (default false)")
}

func lockOutputDir(outputDir string) {
	lockFilePath, err := filepath.Abs(filepath.Join(outputDir, ".lockfile.lck"))
	if err != nil {
		utils.ErrExit("Failed to get absolute path for lockfile in %q: %v\n", outputDir, err)
	}
	createLock(lockFilePath, outputDir)
}

func createLock(lockFileName, outputDir string) {
	var err error
	lockFile, err = lockfile.New(lockFileName)
	if err != nil {
		utils.ErrExit("Failed to create lockfile %q: %v\n", lockFileName, err)
	}

	err = lockFile.TryLock()
	if err == nil {
		locked = true
		return
	} else if err == lockfile.ErrBusy {
		if owner := lockOwner(); owner != "" {
			utils.ErrExit("Another instance of hive-voyager (%s) is running in the output-dir = %s\n", owner, outputDir)
		}
		utils.ErrExit("Another instance of hive-voyager is running in the output-dir = %s\n", outputDir)
	} else {
		utils.ErrExit("Unable to lock the output-dir: %v\n", err)
	}
}

// lockOwner describes the process holding the lock, "" when it cannot be found.
func lockOwner() string {
	proc, err := lockFile.GetOwner()
	if err != nil {
		return ""
	}
	p, err := ps.FindProcess(proc.Pid)
	if err != nil || p == nil {
		return fmt.Sprintf("pid %d", proc.Pid)
	}
	return fmt.Sprintf("pid %d, %s", proc.Pid, p.Executable())
}

func unlockOutputDir() {
	if !locked {
		return
	}
	locked = false
	err := lockFile.Unlock()
	if err != nil {
		utils.PrintAndLog("Unable to unlock %q: %v\n", lockFile, err)
	}
}
