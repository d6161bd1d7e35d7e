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
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/migunit"
)

// PlanProgressReporter shows one bar per database, advanced as its tables are done.
type PlanProgressReporter struct {
	sync.Mutex
	disablePb    bool
	progress     *mpb.Progress
	progressBars map[string]*mpb.Bar
}

func NewPlanProgressReporter(disablePb bool) *PlanProgressReporter {
	return &PlanProgressReporter{
		disablePb:    disablePb,
		progress:     mpb.New(),
		progressBars: make(map[string]*mpb.Bar),
	}
}

func (pr *PlanProgressReporter) StartDatabase(database string, tables int) {
	pr.Lock()
	defer pr.Unlock()

	log.Infof("database %s: %d tables", database, tables)
	if pr.disablePb {
		fmt.Printf("Database %s: %d tables\n", database, tables)
		return
	}
	if tables == 0 {
		return
	}
	bar := pr.progress.AddBar(int64(tables),
		mpb.BarFillerClearOnComplete(),
		mpb.PrependDecorators(
			decor.Name(database, decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.OnComplete(
				decor.NewPercentage("%.2f", decor.WCSyncSpaceR), "completed",
			),
		),
	)
	pr.progressBars[database] = bar
}

func (pr *PlanProgressReporter) TableDone(u *migunit.MigrationUnit) {
	pr.Lock()
	defer pr.Unlock()

	if pr.disablePb {
		if u.Phase == constants.PHASE_ERROR {
			fmt.Printf("Table %s: failed\n", u.QualifiedName())
		} else {
			fmt.Printf("Table %s: %s\n", u.QualifiedName(), u.Strategy)
		}
		return
	}
	if bar, ok := pr.progressBars[u.Database]; ok {
		bar.Increment()
	}
}

func (pr *PlanProgressReporter) DatabaseDone(database string) {
	pr.Lock()
	defer pr.Unlock()

	bar, ok := pr.progressBars[database]
	if !ok {
		return
	}
	// tables left unscheduled by a cancelled run would keep the bar open
	bar.SetTotal(-1, true)
}

func (pr *PlanProgressReporter) Wait() {
	pr.progress.Wait()
}
