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
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// PartitionClause turns a partition spec as listed by the metastore ("dt=2020-01-01/hr=1")
// into the body of a PARTITION clause ("`dt`='2020-01-01', `hr`='1'").
func PartitionClause(partitionSpec string) (string, error) {
	parts := strings.Split(strings.Trim(partitionSpec, "/"), "/")
	clauses := make([]string, 0, len(parts))
	for _, p := range parts {
		key, value, found := strings.Cut(p, "=")
		if !found || key == "" {
			return "", fmt.Errorf("invalid partition spec %q", partitionSpec)
		}
		if v, err := url.PathUnescape(value); err == nil {
			value = v
		}
		clauses = append(clauses, fmt.Sprintf("`%s`='%s'", key, strings.ReplaceAll(value, "'", "\\'")))
	}
	return strings.Join(clauses, ", "), nil
}

// DynamicPartitionClause lists partition keys for a dynamic-partition insert.
func DynamicPartitionClause(columns []string) string {
	return strings.Join(lo.Map(columns, func(c string, _ int) string {
		return "`" + c + "`"
	}), ", ")
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
