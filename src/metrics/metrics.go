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
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/migunit"
)

const (
	OUTCOME_PLANNED  = "planned"
	OUTCOME_EXECUTED = "executed"
	OUTCOME_FAILED   = "failed"
	OUTCOME_SKIPPED  = "skipped"
)

var (
	// Tables processed, by final strategy and outcome
	tablesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_voyager_tables_total",
			Help: "Tables processed per database, strategy and outcome",
		},
		[]string{"database", "strategy", "outcome"},
	)

	// Statements planned per environment
	statementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_voyager_statements_planned_total",
			Help: "SQL statements planned per environment",
		},
		[]string{"environment"},
	)

	// Tables run against the endpoints, counted apart from planning
	tablesExecutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_voyager_tables_executed_total",
			Help: "Tables executed per database, strategy and outcome",
		},
		[]string{"database", "strategy", "outcome"},
	)

	tablePlanSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hive_voyager_table_plan_seconds",
			Help:    "Time spent planning one table, catalog lookups included",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		},
		[]string{"strategy"},
	)

	workersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hive_voyager_workers_busy",
			Help: "Table workers currently planning or executing a table",
		},
	)
)

// RecordTable counts a planned table, its planning time and the statements of its plan.
func RecordTable(u *migunit.MigrationUnit, outcome string, took time.Duration) {
	strategy := string(u.Strategy)
	tablesTotal.WithLabelValues(u.Database, strategy, outcome).Inc()
	tablePlanSeconds.WithLabelValues(strategy).Observe(took.Seconds())
	for _, env := range constants.AllEnvironments {
		if !u.HasEnv(env) {
			continue
		}
		if n := len(u.Env(env).SQL); n > 0 {
			statementsTotal.WithLabelValues(string(env)).Add(float64(n))
		}
	}
}

// RecordUnplanned counts a table that failed before planning started. It has no plan
// and no planning time.
func RecordUnplanned(u *migunit.MigrationUnit) {
	tablesTotal.WithLabelValues(u.Database, string(u.Strategy), OUTCOME_FAILED).Inc()
}

func RecordExecution(u *migunit.MigrationUnit, outcome string) {
	tablesExecutedTotal.WithLabelValues(u.Database, string(u.Strategy), outcome).Inc()
}

func WorkerStarted() {
	workersBusy.Inc()
}

func WorkerDone() {
	workersBusy.Dec()
}
