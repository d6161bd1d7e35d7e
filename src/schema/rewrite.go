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
	"strings"

	"github.com/yugabyte/hive-voyager/src/constants"
)

// CopySpec tells the rewriter how to derive a definition for Target from a Source definition.
// It lives for one Rewrite call and is never persisted.
type CopySpec struct {
	Source constants.Environment
	Target constants.Environment

	// Upgrade converts a legacy managed non-ACID table into an external, purge-able one.
	Upgrade              bool
	TakeOwnership        bool
	MakeExternal         bool
	MakeNonTransactional bool
	ReplaceLocation      string
	StripLocation        bool
	TableNamePrefix      string
	// TargetDatabase qualifies the CREATE line when set; the source qualifier is always dropped.
	TargetDatabase    string
	NoPurge           bool
	CreateIfNotExists bool

	AddProperties    map[string]string
	RemoveProperties []string
}

func (c CopySpec) String() string {
	return fmt.Sprintf("%s->%s upgrade=%t owner=%t external=%t location=%q strip=%t prefix=%q",
		c.Source, c.Target, c.Upgrade, c.TakeOwnership, c.MakeExternal, c.ReplaceLocation, c.StripLocation, c.TableNamePrefix)
}

type Rewriter interface {
	Rewrite(lines []string, spec CopySpec) ([]string, error)
}

type RewriterFunc func(lines []string, spec CopySpec) ([]string, error)

func (f RewriterFunc) Rewrite(lines []string, spec CopySpec) ([]string, error) {
	return f(lines, spec)
}

var DefaultRewriter Rewriter = RewriterFunc(Rewrite)

// Hive adds these on every DDL; carrying them over would be misleading.
var droppedProperties = []string{"transient_lastDdlTime", "numFiles", "totalSize", "numRows", "rawDataSize", "COLUMN_STATS_ACCURATE"}

// Rewrite builds the target definition. The input slice is not modified.
func Rewrite(lines []string, spec CopySpec) ([]string, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("rewrite %s definition: empty definition", spec.Source)
	}
	idx := createLineIndex(lines)
	if idx < 0 {
		return nil, fmt.Errorf("rewrite %s definition: no CREATE statement found", spec.Source)
	}
	if IsView(lines) {
		return rewriteView(lines, idx, spec)
	}
	m := createTableRe.FindStringSubmatch(lines[idx])
	if m == nil {
		return nil, fmt.Errorf("rewrite %s definition: unrecognized CREATE line %q", spec.Source, lines[idx])
	}
	acid := IsACID(lines)
	if spec.MakeNonTransactional {
		acid = false
	}
	external := m[1] != "" || spec.MakeExternal || (spec.Upgrade && !acid)

	out := make([]string, 0, len(lines)+4)
	out = append(out, lines[:idx]...)
	out = append(out, buildCreateLine(external, spec, strings.Trim(m[6], "`"), m[7]))
	out = append(out, lines[idx+1:]...)

	out = rewriteLocation(out, spec)

	props := OrderedProperties(out)
	props = removeProperties(props, droppedProperties...)
	if !acid {
		props = removeProperties(props, constants.TRANSACTIONAL_PROP, constants.TRANSACTIONAL_PROPS)
	}
	if external {
		if spec.TakeOwnership && !spec.NoPurge {
			props = setProperty(props, constants.EXTERNAL_TABLE_PURGE, "true")
		} else {
			props = removeProperties(props, constants.EXTERNAL_TABLE_PURGE)
		}
	}
	if spec.Upgrade && m[1] == "" && !acid {
		props = setProperty(props, constants.MIGRATED_FROM_LEGACY, "true")
	}
	for _, k := range sortedKeys(spec.AddProperties) {
		props = setProperty(props, k, spec.AddProperties[k])
	}
	props = removeProperties(props, spec.RemoveProperties...)
	return replacePropertiesBlock(out, props), nil
}

func buildCreateLine(external bool, spec CopySpec, name, rest string) string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if external {
		sb.WriteString("EXTERNAL ")
	}
	sb.WriteString("TABLE ")
	if spec.CreateIfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	if spec.TargetDatabase != "" {
		sb.WriteString("`" + spec.TargetDatabase + "`.")
	}
	sb.WriteString("`" + spec.TableNamePrefix + name + "`")
	sb.WriteString(rest)
	return sb.String()
}

func rewriteView(lines []string, idx int, spec CopySpec) ([]string, error) {
	out := append([]string{}, lines...)
	if spec.CreateIfNotExists {
		out[idx] = createViewRe.ReplaceAllStringFunc(out[idx], func(s string) string {
			return s + " IF NOT EXISTS"
		})
	}
	return out, nil
}

func rewriteLocation(lines []string, spec CopySpec) []string {
	start, end := locationIndex(lines)
	switch {
	case spec.StripLocation:
		if start < 0 {
			return lines
		}
		return append(append([]string{}, lines[:start]...), lines[end+1:]...)
	case spec.ReplaceLocation != "":
		block := []string{"LOCATION", fmt.Sprintf("  '%s'", spec.ReplaceLocation)}
		if start >= 0 {
			out := append([]string{}, lines[:start]...)
			out = append(out, block...)
			return append(out, lines[end+1:]...)
		}
		// LOCATION precedes TBLPROPERTIES in Hive's output.
		pStart, _ := propertiesBlock(lines)
		if pStart < 0 {
			return append(append([]string{}, lines...), block...)
		}
		out := append([]string{}, lines[:pStart]...)
		out = append(out, block...)
		return append(out, lines[pStart:]...)
	}
	return lines
}

func replacePropertiesBlock(lines []string, props []Property) []string {
	start, end := propertiesBlock(lines)
	var block []string
	if len(props) > 0 {
		block = append(block, "TBLPROPERTIES (")
		for i, p := range props {
			sep := ","
			if i == len(props)-1 {
				sep = ")"
			}
			block = append(block, fmt.Sprintf("  '%s'='%s'%s", p.Key, p.Value, sep))
		}
	}
	if start < 0 {
		return append(lines, block...)
	}
	out := append([]string{}, lines[:start]...)
	out = append(out, block...)
	return append(out, lines[end+1:]...)
}

func setProperty(props []Property, key, value string) []Property {
	for i := range props {
		if props[i].Key == key {
			props[i].Value = value
			return props
		}
	}
	return append(props, Property{Key: key, Value: value})
}

func removeProperties(props []Property, keys ...string) []Property {
	if len(keys) == 0 {
		return props
	}
	out := props[:0:0]
	for _, p := range props {
		drop := false
		for _, k := range keys {
			if strings.EqualFold(p.Key, k) {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, p)
		}
	}
	return out
}
