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

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/issue"
)

// Decision is the outcome of one step of the cascade.
type Decision struct {
	// Strategy is the strategy to continue with. When it equals the resolved strategy,
	// that strategy's handler runs.
	Strategy constants.DataStrategy
	// Reject stops the cascade; the table is not migrated.
	Reject bool
	// Fatal records Issue as an error instead of an advisory issue.
	Fatal  bool
	Issue  *issue.IssueInstance
	Reason string
}

func (d Decision) String() string {
	switch {
	case d.Reject:
		return fmt.Sprintf("reject (%s)", d.Reason)
	default:
		return fmt.Sprintf("%s (%s)", d.Strategy, d.Reason)
	}
}

func execute(s constants.DataStrategy, reason string) Decision {
	return Decision{Strategy: s, Reason: reason}
}

func delegate(s constants.DataStrategy, reason string) Decision {
	return Decision{Strategy: s, Reason: reason}
}

func reject(s constants.DataStrategy, ii issue.IssueInstance) Decision {
	return Decision{Strategy: s, Reject: true, Issue: &ii, Reason: ii.Message}
}

func isDowngradeInPlace(s constants.DataStrategy) bool {
	switch s {
	case constants.HYBRID_ACID_DOWNGRADE_INPLACE, constants.SQL_ACID_DOWNGRADE_INPLACE,
		constants.EXPORT_IMPORT_ACID_DOWNGRADE_INPLACE:
		return true
	}
	return false
}

func overLimit(count, limit int) bool {
	return limit > 0 && count > limit
}

/*
Resolve is the decision table of the cascade. Given the facts of a table and the strategy
currently assigned to it, it returns either the same strategy (run its handler), another
strategy (delegate), or a rejection. It performs no I/O.
*/
func Resolve(f Facts, s constants.DataStrategy, p Policy) Decision {
	if s == constants.DUMP {
		return execute(s, "definition is replayed on LEFT")
	}
	if f.View {
		switch {
		case s == constants.SCHEMA_ONLY:
			return execute(s, "view")
		case p.MigrateViews:
			return delegate(constants.SCHEMA_ONLY, "views carry no data")
		default:
			return reject(s, issue.ViewNotMigrated.Instance(s))
		}
	}
	if f.ACID && !p.MigrateACID {
		return reject(s, issue.AcidMigrationDisabled.Instance())
	}
	if f.ACID && p.DowngradeInPlace && !isDowngradeInPlace(s) {
		return delegate(constants.HYBRID_ACID_DOWNGRADE_INPLACE, "transactional table downgraded in place")
	}

	switch s {
	case constants.HYBRID:
		if f.ACID && f.LegacyMigration {
			return delegate(constants.ACID, "transactional table across Hive generations")
		}
		if f.Partitioned && overLimit(f.PartitionCount, p.ExportImportPartitionLimit) {
			return delegate(constants.SQL, fmt.Sprintf("%d partitions above export/import limit %d", f.PartitionCount, p.ExportImportPartitionLimit))
		}
		return delegate(constants.EXPORT_IMPORT, "within export/import limits")

	case constants.SQL:
		if f.StorageOptionsPresent {
			return delegate(constants.INTERMEDIATE, "intermediate or common storage configured")
		}
		if f.ACID {
			return delegate(constants.ACID, "a shadow table cannot read transactional files")
		}
		if overLimit(f.PartitionCount, p.SqlPartitionLimit) {
			return reject(s, issue.SqlPartitionLimit.Instance(f.PartitionCount, p.SqlPartitionLimit))
		}
		return execute(s, "shadow table copy")

	case constants.EXPORT_IMPORT:
		if f.ACID && f.LegacyMigration {
			return reject(s, issue.AcidExportAcrossLegacy.Instance())
		}
		if overLimit(f.PartitionCount, p.ExportImportPartitionLimit) {
			return reject(s, issue.ExportImportPartitionLimit.Instance(f.PartitionCount, p.ExportImportPartitionLimit))
		}
		return execute(s, "export/import")

	case constants.INTERMEDIATE:
		if f.ACID {
			return delegate(constants.ACID, "transactional table through transfer storage")
		}
		return execute(s, "staged through transfer storage")

	case constants.ACID:
		if overLimit(f.PartitionCount, p.AcidPartitionLimit) {
			return reject(s, issue.AcidPartitionLimit.Instance(f.PartitionCount, p.AcidPartitionLimit))
		}
		return execute(s, "transactional transfer")

	case constants.HYBRID_ACID_DOWNGRADE_INPLACE:
		if f.LeftLegacy {
			return delegate(constants.SQL_ACID_DOWNGRADE_INPLACE, "export/import is unsafe on legacy Hive")
		}
		if p.ExportImportPartitionLimit <= 0 || f.PartitionCount <= p.ExportImportPartitionLimit {
			return delegate(constants.EXPORT_IMPORT_ACID_DOWNGRADE_INPLACE, "within export/import limits")
		}
		if overLimit(f.PartitionCount, p.SqlPartitionLimit) {
			ii := issue.SqlPartitionLimitBestEffort.Instance(f.PartitionCount, p.SqlPartitionLimit)
			if p.Strict {
				return Decision{Strategy: s, Reject: true, Fatal: true, Issue: &ii, Reason: "strict mode refuses best effort"}
			}
			return Decision{Strategy: constants.SQL_ACID_DOWNGRADE_INPLACE, Issue: &ii, Reason: "best effort past the SQL limit"}
		}
		return delegate(constants.SQL_ACID_DOWNGRADE_INPLACE, "above export/import limit")

	case constants.SQL_ACID_DOWNGRADE_INPLACE, constants.EXPORT_IMPORT_ACID_DOWNGRADE_INPLACE:
		if !f.ACID {
			return Decision{Strategy: s, Reject: true, Fatal: true, Reason: "table is not transactional"}
		}
		return execute(s, "in place downgrade")

	case constants.SCHEMA_ONLY, constants.STORAGE_MIGRATION:
		return execute(s, "")

	case constants.LINKED, constants.COMMON:
		if f.ACID {
			return reject(s, issue.AcidNotSupported.Instance(s))
		}
		return execute(s, "")

	case constants.CONVERT_LINKED:
		if !f.RightExists {
			ii := issue.RightMissingConverted.Instance(constants.SCHEMA_ONLY)
			return Decision{Strategy: constants.SCHEMA_ONLY, Issue: &ii, Reason: "RIGHT table missing"}
		}
		return execute(s, "")
	}
	return Decision{Strategy: s, Reject: true, Fatal: true, Reason: fmt.Sprintf("no rule for strategy %s", s)}
}

// maxDelegations bounds the cascade; the table has no cycles but a misconfigured handler map could.
const maxDelegations = 8

// ResolveChain follows delegations from top until a handler would run or the table is
// rejected. The last element is the final decision.
func ResolveChain(f Facts, top constants.DataStrategy, p Policy) ([]constants.DataStrategy, Decision) {
	chain := []constants.DataStrategy{top}
	current := top
	for i := 0; i < maxDelegations; i++ {
		d := Resolve(f, current, p)
		if d.Reject || d.Strategy == current {
			return chain, d
		}
		current = d.Strategy
		chain = append(chain, current)
	}
	return chain, Decision{Strategy: current, Reject: true, Fatal: true, Reason: "delegation limit reached"}
}
