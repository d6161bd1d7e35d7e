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
package metadb

import (
	"fmt"
)

// PlanStatusRecord tracks which runs produced and executed plans in an output directory.
type PlanStatusRecord struct {
	MigrationUUID     string   `json:"MigrationUUID"`
	LastRunID         string   `json:"LastRunID"`
	LastExecutedRunID string   `json:"LastExecutedRunID"`
	Databases         []string `json:"Databases"`
	RunCount          int      `json:"RunCount"`
}

const PLAN_STATUS_KEY = "plan_status"

func (m *MetaDB) UpdatePlanStatusRecord(updateFn func(*PlanStatusRecord)) error {
	return UpdateJsonObjectInMetaDB(m, PLAN_STATUS_KEY, updateFn)
}

func (m *MetaDB) GetPlanStatusRecord() (*PlanStatusRecord, error) {
	record := new(PlanStatusRecord)
	found, err := m.GetJsonObject(nil, PLAN_STATUS_KEY, record)
	if err != nil {
		return nil, fmt.Errorf("error while getting plan status record from meta db: %w", err)
	}
	if !found {
		return nil, nil
	}
	return record, nil
}

// InitPlanStatusRecord assigns the migration uuid of the output directory once.
func (m *MetaDB) InitPlanStatusRecord(migrationUUID string) error {
	return m.UpdatePlanStatusRecord(func(record *PlanStatusRecord) {
		if record.MigrationUUID != "" {
			return
		}
		record.MigrationUUID = migrationUUID
	})
}
