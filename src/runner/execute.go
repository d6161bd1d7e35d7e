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
package runner

import (
	"context"

	"github.com/sourcegraph/conc/pool"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/hive-voyager/src/catalog"
	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/metrics"
	"github.com/yugabyte/hive-voyager/src/migunit"
)

func (r *Runner) endpoint(env constants.Environment) catalog.Endpoint {
	if env == constants.LEFT {
		return r.left
	}
	return r.right
}

/*
executeDatabase applies a calculated plan. The database statements go first on each side;
a failure there fails every table of the database. Each table then runs LEFT, RIGHT and
finally the clean-up statements of both sides. A table failing does not stop the others.

Plans carry their own USE statements, so statements are run without a current database.
DUMP plans are scripts for the operator and are never applied.
*/
func (r *Runner) executeDatabase(ctx context.Context, sd *scannedDatabase) {
	if r.cfg.DataStrategy == constants.DUMP {
		log.Infof("DUMP plans are not executed")
		return
	}
	du := sd.du
	if du.Phase == constants.PHASE_ERROR {
		return
	}
	for _, env := range []constants.Environment{constants.LEFT, constants.RIGHT} {
		de := du.Env(env)
		ep := r.endpoint(env)
		if de == nil || len(de.SQL) == 0 || ep == nil {
			continue
		}
		if err := ep.RunStatements(ctx, "", de.SQL); err != nil {
			log.Errorf("execute %s statements of database %s: %v", env, du.Name, err)
			de.AddIssue("execution failed: %v", err)
			_ = du.SetPhase(constants.PHASE_ERROR)
			for _, u := range sd.units {
				if u.Phase == constants.PHASE_CALCULATED_SQL {
					u.Fail(env, "database %s statements failed: %v", du.Name, err)
					r.persist(u)
				}
			}
			r.persistDatabase(du)
			return
		}
	}
	_ = du.SetPhase(constants.PHASE_EXECUTED)
	r.persistDatabase(du)

	p := pool.New().WithMaxGoroutines(r.cfg.Workers)
	for _, u := range sd.units {
		if u.Phase != constants.PHASE_CALCULATED_SQL {
			continue
		}
		if ctx.Err() != nil {
			log.Infof("run cancelled, %s not executed", u.QualifiedName())
			continue
		}
		u := u
		p.Go(func() {
			metrics.WorkerStarted()
			defer metrics.WorkerDone()
			outcome := metrics.OUTCOME_EXECUTED
			if !r.executeUnit(ctx, u) {
				outcome = metrics.OUTCOME_FAILED
			}
			metrics.RecordExecution(u, outcome)
			r.persist(u)
		})
	}
	p.Wait()
}

func (r *Runner) executeUnit(ctx context.Context, u *migunit.MigrationUnit) bool {
	envs := []constants.Environment{constants.LEFT, constants.RIGHT}
	for _, cleanUp := range []bool{false, true} {
		for _, env := range envs {
			if !u.HasEnv(env) {
				continue
			}
			et := u.Env(env)
			statements := et.SQL
			if cleanUp {
				statements = et.CleanUpSQL
			}
			ep := r.endpoint(env)
			if len(statements) == 0 || ep == nil {
				continue
			}
			if err := ep.RunStatements(ctx, "", statements); err != nil {
				log.Errorf("%s: executing %s statements: %v", u.QualifiedName(), env, err)
				u.Fail(env, "execution failed: %v", err)
				return false
			}
		}
	}
	if err := u.SetPhase(constants.PHASE_EXECUTED); err != nil {
		log.Warnf("%s: %v", u.QualifiedName(), err)
	}
	log.Infof("%s: executed", u.QualifiedName())
	return true
}
