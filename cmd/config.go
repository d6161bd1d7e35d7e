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
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yugabyte/hive-voyager/src/config"
	hvconfig "github.com/yugabyte/hive-voyager/src/utils/config"
)

// flags whose config key is not the flag name with underscores
var flagConfigKeys = map[string]string{
	"table-regex":          "filter.table_regex",
	"table-exclude-regex":  "filter.table_exclude_regex",
	"migrate-views":        "filter.migrate_views",
	"migrate-acid":         "migrate_acid.on",
	"migrate-acid-only":    "migrate_acid.only",
	"acid-downgrade":       "migrate_acid.downgrade",
	"acid-inplace":         "migrate_acid.inplace",
	"target-namespace":     "transfer.target_namespace",
	"intermediate-storage": "transfer.intermediate_storage",
	"common-storage":       "transfer.common_storage",
}

// flags that never map to a config key
var unboundFlags = map[string]bool{
	"config":      true,
	"yes":         true,
	"help":        true,
	"run-id":      true,
	"disable-pb":  true,
	"start-clean": true,
}

func configKeyForFlag(name string) string {
	if key, ok := flagConfigKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// ConfigFlagOverride records a flag given on the command line that replaced a config file value.
type ConfigFlagOverride struct {
	FlagName  string
	ConfigKey string
	Value     string
}

/*
initConfig loads the run configuration for cmd.

	 1. The config file is --config, else $HIVE_VOYAGER_CONFIG_FILE, else
	    ~/hive-voyager-config.yaml if present.
	 2. Every key of the file is checked against the allowed keys.
	 3. Flags set on the command line are written over the file values (CLI > config > defaults).
	 4. The result is decoded over config.Default().
*/
func initConfig(cmd *cobra.Command) (*config.Config, []ConfigFlagOverride, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if os.Getenv("HIVE_VOYAGER_CONFIG_FILE") != "" {
		v.SetConfigFile(os.Getenv("HIVE_VOYAGER_CONFIG_FILE"))
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, err
		}
		v.AddConfigPath(home)
		v.SetConfigName("hive-voyager-config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", v.ConfigFileUsed())
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, err
		}
	}

	err := hvconfig.ValidateConfigFile(v)
	if err != nil {
		return nil, nil, fmt.Errorf("config file %s: %w", v.ConfigFileUsed(), err)
	}

	overrides, err := bindCobraFlagsToViper(cmd, v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to bind cobra flags to viper: %w", err)
	}

	c := config.Default()
	if err := v.Unmarshal(c); err != nil {
		return nil, nil, fmt.Errorf("decode config: %w", err)
	}
	if v.IsSet("log_level") {
		config.LogLevel = v.GetString("log_level")
	}
	return c, overrides, nil
}

/*
bindCobraFlagsToViper writes every flag the user set on the command line into v under its
config key, so the flag wins over the config file. Flags left at their default leave the
config file value, or the built-in default, in place.
*/
func bindCobraFlagsToViper(cmd *cobra.Command, v *viper.Viper) ([]ConfigFlagOverride, error) {
	var bindErr error
	var overrides []ConfigFlagOverride

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || !f.Changed || unboundFlags[f.Name] {
			return
		}
		key := configKeyForFlag(f.Name)
		if f.Value.Type() == "stringSlice" {
			vals, err := cmd.Flags().GetStringSlice(f.Name)
			if err != nil {
				bindErr = err
				return
			}
			v.Set(key, vals)
		} else {
			v.Set(key, f.Value.String())
		}
		overrides = append(overrides, ConfigFlagOverride{
			FlagName:  f.Name,
			ConfigKey: key,
			Value:     f.Value.String(),
		})
	})

	return overrides, bindErr
}
