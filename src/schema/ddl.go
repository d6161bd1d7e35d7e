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
package schema

import (
	"regexp"
	"strings"

	"github.com/yugabyte/hive-voyager/src/constants"
)

/*
Helpers that read facts out of a SHOW CREATE TABLE definition. Hive prints one clause
per line, e.g.

	CREATE EXTERNAL TABLE `sales`.`orders`(
	  `id` int,
	  `name` string)
	PARTITIONED BY (
	  `dt` string)
	...
	LOCATION
	  'hdfs://ns1/warehouse/sales.db/orders'
	TBLPROPERTIES (
	  'transactional'='false')
*/

var createTableRe = regexp.MustCompile("(?i)^\\s*CREATE\\s+(EXTERNAL\\s+)?(TEMPORARY\\s+)?TABLE\\s+(IF\\s+NOT\\s+EXISTS\\s+)?((`[^`]+`|\\w+)\\.)?(`[^`]+`|\\w+)(.*)$")
var createViewRe = regexp.MustCompile(`(?i)^\s*CREATE\s+(OR\s+REPLACE\s+)?(MATERIALIZED\s+)?VIEW\b`)
var propertyRe = regexp.MustCompile(`^\s*'([^']*)'\s*=\s*'([^']*)'\s*,?\s*\)?\s*$`)

func createLineIndex(lines []string) int {
	for i, l := range lines {
		if createTableRe.MatchString(l) || createViewRe.MatchString(l) {
			return i
		}
	}
	return -1
}

func IsView(lines []string) bool {
	for _, l := range lines {
		if createViewRe.MatchString(l) {
			return true
		}
	}
	return false
}

func IsExternal(lines []string) bool {
	idx := createLineIndex(lines)
	if idx < 0 {
		return false
	}
	m := createTableRe.FindStringSubmatch(lines[idx])
	return m != nil && m[1] != ""
}

func IsManaged(lines []string) bool {
	return createLineIndex(lines) >= 0 && !IsView(lines) && !IsExternal(lines)
}

// TableNameFromDefinition returns the unqualified, unquoted table name of the CREATE line.
func TableNameFromDefinition(lines []string) string {
	idx := createLineIndex(lines)
	if idx < 0 {
		return ""
	}
	m := createTableRe.FindStringSubmatch(lines[idx])
	if m == nil {
		return ""
	}
	return strings.Trim(m[6], "`")
}

func TableType(lines []string) constants.TableType {
	switch {
	case IsView(lines):
		return constants.VIRTUAL_VIEW
	case IsExternal(lines):
		return constants.EXTERNAL_TABLE
	default:
		return constants.MANAGED_TABLE
	}
}

func locationIndex(lines []string) (start, end int) {
	for i, l := range lines {
		t := strings.TrimSpace(l)
		upper := strings.ToUpper(t)
		if upper == "LOCATION" {
			if i+1 < len(lines) {
				return i, i + 1
			}
			return i, i
		}
		if strings.HasPrefix(upper, "LOCATION ") || strings.HasPrefix(upper, "LOCATION'") {
			return i, i
		}
	}
	return -1, -1
}

// TableLocation returns the LOCATION of the definition, "" if it has none.
func TableLocation(lines []string) string {
	start, end := locationIndex(lines)
	if start < 0 {
		return ""
	}
	v := strings.TrimSpace(lines[end])
	if start == end {
		v = strings.TrimSpace(v[len("LOCATION"):])
	}
	return strings.Trim(v, "'\"")
}

// Property is a TBLPROPERTIES entry; order is preserved on rewrite.
type Property struct {
	Key   string
	Value string
}

func propertiesBlock(lines []string) (start, end int) {
	start = -1
	for i, l := range lines {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(l)), "TBLPROPERTIES") {
			start = i
			break
		}
	}
	if start < 0 {
		return -1, -1
	}
	for i := start; i < len(lines); i++ {
		if strings.HasSuffix(strings.TrimSpace(lines[i]), ")") {
			return start, i
		}
	}
	return start, len(lines) - 1
}

func OrderedProperties(lines []string) []Property {
	start, end := propertiesBlock(lines)
	if start < 0 {
		return nil
	}
	var props []Property
	for i := start; i <= end; i++ {
		l := lines[i]
		if i == start {
			if p := strings.Index(l, "("); p >= 0 {
				l = l[p+1:]
			} else {
				continue
			}
		}
		m := propertyRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		props = append(props, Property{Key: m[1], Value: m[2]})
	}
	return props
}

func Properties(lines []string) map[string]string {
	out := make(map[string]string)
	for _, p := range OrderedProperties(lines) {
		out[p.Key] = p.Value
	}
	return out
}

func propertyIs(lines []string, key, value string) bool {
	v, ok := Properties(lines)[key]
	return ok && strings.EqualFold(v, value)
}

// IsACID reports a transactional table (full ACID or insert-only).
func IsACID(lines []string) bool {
	return propertyIs(lines, constants.TRANSACTIONAL_PROP, "true")
}

func IsInsertOnly(lines []string) bool {
	return IsACID(lines) && propertyIs(lines, constants.TRANSACTIONAL_PROPS, "insert_only")
}

func IsExternalPurge(lines []string) bool {
	return propertyIs(lines, constants.EXTERNAL_TABLE_PURGE, "true")
}

// IsOwned reports whether dropping the table also removes its data.
func IsOwned(lines []string) bool {
	return IsManaged(lines) || IsExternalPurge(lines)
}

// PartitionColumns returns the partition key names of the PARTITIONED BY clause.
func PartitionColumns(lines []string) []string {
	var cols []string
	in := false
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if !in {
			if strings.HasPrefix(strings.ToUpper(t), "PARTITIONED BY") {
				in = true
				if p := strings.Index(t, "("); p >= 0 {
					t = strings.TrimSpace(t[p+1:])
				} else {
					continue
				}
				if t == "" {
					continue
				}
			} else {
				continue
			}
		}
		done := strings.HasSuffix(t, ")")
		for _, part := range strings.Split(strings.TrimSuffix(t, ")"), ",") {
			fields := strings.Fields(strings.TrimSpace(part))
			if len(fields) > 0 {
				cols = append(cols, strings.Trim(fields[0], "`"))
			}
		}
		if done {
			break
		}
	}
	return cols
}

func IsPartitioned(lines []string) bool {
	return len(PartitionColumns(lines)) > 0
}

var clauseKeywords = []string{"COMMENT", "PARTITIONED BY", "CLUSTERED BY", "SKEWED BY", "ROW FORMAT",
	"STORED", "WITH SERDEPROPERTIES", "LOCATION", "TBLPROPERTIES", "OUTPUTFORMAT", "INPUTFORMAT"}

func isClauseLine(line string) bool {
	upper := strings.ToUpper(strings.TrimSpace(line))
	for _, k := range clauseKeywords {
		if strings.HasPrefix(upper, k) {
			return true
		}
	}
	return false
}

// Columns returns the column definitions of the table, one per entry, without separators.
func Columns(lines []string) []string {
	idx := createLineIndex(lines)
	if idx < 0 || IsView(lines) {
		return nil
	}
	var cols []string
	for _, l := range lines[idx+1:] {
		if isClauseLine(l) {
			break
		}
		t := strings.TrimSpace(l)
		t = strings.TrimSuffix(t, ",")
		t = strings.TrimSuffix(t, ")")
		if t != "" {
			cols = append(cols, strings.ToLower(t))
		}
	}
	return cols
}

// SameSchema compares the column and partition layout of two definitions, ignoring
// names, locations and properties.
func SameSchema(a, b []string) bool {
	ca, cb := Columns(a), Columns(b)
	if len(ca) != len(cb) || len(ca) == 0 {
		return false
	}
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	pa, pb := PartitionColumns(a), PartitionColumns(b)
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if !strings.EqualFold(pa[i], pb[i]) {
			return false
		}
	}
	return true
}
