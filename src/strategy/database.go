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
)

func qualify(namespace, path string) string {
	if ns, _ := location.SplitNamespace(path); ns != "" {
		return path
	}
	return namespace + path
}

/*
PlanDatabase builds the database level DDL. It runs before any table of the database is
scheduled, and its statements are executed ahead of the tables' statements. plan is the
warehouse plan of the database, nil if it has none.
*/
func (d *Dispatcher) PlanDatabase(du *migunit.DatabaseUnit, plan *location.Warehouse) error {
	left := du.Env(constants.LEFT)
	if !left.Exists {
		return fmt.Errorf("database %s does not exist on LEFT", du.Name)
	}
	_ = du.SetPhase(constants.PHASE_STARTED)
	leftLoc := d.qualifyLeft(left.Properties[constants.DB_LOCATION])
	leftManaged := d.qualifyLeft(left.Properties[constants.DB_MANAGED_LOCATION])

	switch d.cfg.DataStrategy {
	case constants.DUMP:
		left.AddSQL(CREATE_DB_DESC, fmt.Sprintf(CREATE_DB, du.Name))
		if leftLoc != "" {
			left.AddSQL(ALTER_DB_LOCATION_DESC, fmt.Sprintf(ALTER_DB_LOCATION, du.Name, leftLoc))
		}
		if leftManaged != "" && !d.rc.Left.Legacy {
			left.AddSQL(ALTER_DB_MNGD_LOCATION_DESC, fmt.Sprintf(ALTER_DB_MNGD_LOCATION, du.Name, leftManaged))
		}

	case constants.STORAGE_MIGRATION:
		ext, managed, err := d.databaseLocations(du, du.Name, plan, leftLoc, leftManaged)
		if err != nil {
			return err
		}
		if ext != "" {
			left.AddSQL(ALTER_DB_LOCATION_DESC, fmt.Sprintf(ALTER_DB_LOCATION, du.Name, ext))
		}
		if managed != "" && !d.rc.Left.Legacy {
			left.AddSQL(ALTER_DB_MNGD_LOCATION_DESC, fmt.Sprintf(ALTER_DB_MNGD_LOCATION, du.Name, managed))
		}

	default:
		rightDB := d.cfg.TargetDatabaseName(du.Name)
		right := du.Env(constants.RIGHT)
		right.Name = rightDB
		if right.Exists && d.cfg.ReadOnly {
			right.AddIssue("database %s exists and read_only is set; its locations are left unchanged", rightDB)
			break
		}
		right.AddSQL(CREATE_DB_DESC, fmt.Sprintf(CREATE_DB, rightDB))
		if d.cfg.DataStrategy == constants.LINKED || d.cfg.DataStrategy == constants.COMMON {
			// tables point at LEFT data; the database keeps the RIGHT defaults
			break
		}
		ext, managed, err := d.databaseLocations(du, rightDB, plan, leftLoc, leftManaged)
		if err != nil {
			return err
		}
		if ext != "" {
			right.AddSQL(ALTER_DB_LOCATION_DESC, fmt.Sprintf(ALTER_DB_LOCATION, rightDB, ext))
		}
		if managed != "" && !d.rc.Right.Legacy {
			right.AddSQL(ALTER_DB_MNGD_LOCATION_DESC, fmt.Sprintf(ALTER_DB_MNGD_LOCATION, rightDB, managed))
		}
	}
	return du.SetPhase(constants.PHASE_CALCULATED_SQL)
}

// databaseLocations returns the external and managed locations of the target database.
func (d *Dispatcher) databaseLocations(du *migunit.DatabaseUnit, targetDB string, plan *location.Warehouse, leftLoc, leftManaged string) (string, string, error) {
	namespace := d.rc.Right.Namespace
	dir := targetDB + constants.DEFAULT_DB_DIR_SUFFIX
	if plan != nil {
		var ext, managed string
		if plan.ExternalDirectory != "" {
			ext = qualify(namespace, location.JoinPath(plan.ExternalDirectory, dir))
			if leftLoc != "" {
				d.translator.AddTranslation(du.Name, constants.RIGHT, leftLoc, ext, location.LEVEL_WAREHOUSE_PLAN)
			}
		}
		if plan.ManagedDirectory != "" {
			managed = qualify(namespace, location.JoinPath(plan.ManagedDirectory, dir))
			if leftManaged != "" {
				d.translator.AddTranslation(du.Name, constants.RIGHT, leftManaged, managed, location.LEVEL_WAREHOUSE_PLAN)
			}
		}
		return ext, managed, nil
	}

	var out [2]string
	for i, loc := range []string{leftLoc, leftManaged} {
		if loc == "" {
			continue
		}
		newLoc, level, matched := d.translator.TranslateLocation(du.Name, constants.RIGHT, loc, namespace)
		log.Debugf("database %s: %s -> %s (%s)", du.Name, loc, newLoc, level)
		if !matched {
			if d.cfg.Strict {
				return "", "", errs.NewStrictModeViolation(du.Name, "", loc, "no warehouse plan or global location map entry covers it")
			}
			du.Env(constants.RIGHT).AddIssue("%s", issue.LocationNotMapped.Instance(loc, newLoc).String())
		}
		out[i] = newLoc
	}
	return out[0], out[1], nil
}
