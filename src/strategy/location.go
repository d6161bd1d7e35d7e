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
package strategy

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/errs"
	"github.com/yugabyte/hive-voyager/src/issue"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/schema"
)

func (d *Dispatcher) rightDatabase(u *migunit.MigrationUnit) string {
	return d.cfg.TargetDatabaseName(u.Database)
}

func (d *Dispatcher) leftLocation(u *migunit.MigrationUnit) string {
	return d.qualifyLeft(schema.TableLocation(u.Env(constants.LEFT).Definition))
}

// qualifyLeft prefixes a bare path with the LEFT namespace.
func (d *Dispatcher) qualifyLeft(loc string) string {
	if loc == "" {
		return ""
	}
	if ns, _ := location.SplitNamespace(loc); ns == "" && d.rc.Left.Namespace != "" {
		return d.rc.Left.Namespace + location.NormalizePath(loc)
	}
	return loc
}

/*
translate maps original into namespace through the translator. A location no rule covers
keeps its path with the namespace swapped and is reported; in strict mode it is refused.
*/
func (d *Dispatcher) translate(u *migunit.MigrationUnit, env constants.Environment, original, namespace string) (string, error) {
	if original == "" {
		return "", nil
	}
	loc, level, matched := d.translator.TranslateLocation(u.Database, env, original, namespace)
	log.Debugf("%s: %s %s -> %s (%s)", u.QualifiedName(), env, original, loc, level)
	if !matched {
		if d.cfg.Strict {
			return "", errs.NewStrictModeViolation(u.Database, u.Name, original, "no global location map entry or warehouse plan covers it")
		}
		addIssue(u, env, issue.LocationNotMapped, original, loc)
	}
	return loc, nil
}

// checkFindings applies the reconciliation findings of the table.
func (d *Dispatcher) checkFindings(u *migunit.MigrationUnit) error {
	for _, f := range d.findings.FindingsFor(u.Database, u.Name) {
		if d.cfg.Strict {
			return errs.NewStrictModeViolation(u.Database, u.Name, f.Base, f.Message)
		}
		addIssue(u, constants.RIGHT, issue.LocationFinding, f.Message)
	}
	return nil
}

// rightLocation is the RIGHT location of the table, "" when the location is reset.
func (d *Dispatcher) rightLocation(u *migunit.MigrationUnit, namespace string) (string, error) {
	if d.cfg.ResetToDefaultLocation {
		addIssue(u, constants.RIGHT, issue.LocationReset)
		return "", nil
	}
	if err := d.checkFindings(u); err != nil {
		return "", err
	}
	return d.translate(u, constants.RIGHT, d.leftLocation(u), namespace)
}

/*
registerPartitions adds the LEFT partitions to table in e. With partition evaluation every
partition is added at its own location (translated unless keepLocation); otherwise the
metastore discovers them from the table directory.
*/
func (d *Dispatcher) registerPartitions(u *migunit.MigrationUnit, f Facts, e *migunit.EnvironmentTable, table, namespace string, keepLocation bool) error {
	if !f.Partitioned {
		return nil
	}
	left := u.Env(constants.LEFT)
	if d.cfg.Translator.EvaluatePartitions && left.PartitionCount() > 0 {
		for _, spec := range left.SortedPartitionSpecs() {
			clause, err := schema.PartitionClause(spec)
			if err != nil {
				return err
			}
			loc := d.qualifyLeft(left.Partitions[spec])
			if !keepLocation {
				loc, err = d.translate(u, constants.RIGHT, loc, namespace)
				if err != nil {
					return err
				}
			}
			e.AddSQL(ADD_PARTITION_DESC, fmt.Sprintf(ADD_PARTITION_LOCATION, table, clause, loc))
		}
		return nil
	}
	if d.rc.Right.InitMSCK || !d.rc.Right.AutoDiscovery {
		e.AddSQL(MSCK_DESC, fmt.Sprintf(MSCK_REPAIR, table))
		addIssue(u, constants.RIGHT, issue.PartitionDiscovery, f.PartitionCount)
	}
	return nil
}

// copyData appends the statements moving all rows of from into to.
func copyData(e *migunit.EnvironmentTable, f Facts, partitionColumns []string, to, from string) {
	if f.Partitioned && len(partitionColumns) > 0 {
		e.AddSQL(SET_DYNAMIC_PARTITION_DESC, SET_DYNAMIC_PARTITION)
		e.AddSQL(SET_DYNAMIC_PARTITION_DESC, SET_DYNAMIC_PARTITION_MODE)
		e.AddSQL(INSERT_DESC, fmt.Sprintf(INSERT_OVERWRITE_PARTITIONED, to, schema.DynamicPartitionClause(partitionColumns), from))
		return
	}
	e.AddSQL(INSERT_DESC, fmt.Sprintf(INSERT_OVERWRITE, to, from))
}
