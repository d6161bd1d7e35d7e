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
package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/runner"
)

// SummaryTable has one row per table, databases in run order.
func SummaryTable(res *runner.Result) *uitable.Table {
	uiTable := uitable.New()
	uiTable.MaxColWidth = 80
	uiTable.Wrap = true
	headerfmt := color.New(color.FgGreen, color.Underline).SprintFunc()
	uiTable.AddRow(headerfmt("DATABASE"), headerfmt("TABLE"), headerfmt("STRATEGY"), headerfmt("PHASE"), headerfmt("ISSUES"), headerfmt("ERRORS"))
	for _, du := range res.Databases {
		for _, u := range res.UnitsOf(du.Name) {
			phase := string(u.Phase)
			errors := strings.Join(u.Errors(), "; ")
			if u.Phase == constants.PHASE_ERROR {
				phase = color.RedString(phase)
			}
			uiTable.AddRow(du.Name, u.Name, u.Strategy, phase, len(u.Issues()), errors)
		}
	}
	return uiTable
}

func PrintSummary(res *runner.Result, reportDir string) {
	s := Summarize(res, "")
	fmt.Print("\n")
	fmt.Println(SummaryTable(res))
	fmt.Print("\n")
	total := 0
	for _, d := range s.Databases {
		total += len(d.Tables)
	}
	msg := fmt.Sprintf("run %s: %d tables, %d failed, status %s", res.RunID, total, s.Failed, res.Status)
	if s.Failed > 0 || res.Status != runner.RUN_STATUS_DONE {
		color.Yellow(msg)
	} else {
		color.Green(msg)
	}
	if reportDir != "" {
		fmt.Printf("scripts and reports: %s\n", color.BlueString(reportDir))
	}
}
