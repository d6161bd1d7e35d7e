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
package location

import (
	"fmt"
	"sort"
	"strings"
)

type TranslationLevel string

const (
	// explicit user entry in the global location map
	LEVEL_GLOBAL_LOCATION_MAP TranslationLevel = "GLOBAL_LOCATION_MAP"
	// entry derived from a database's warehouse plan
	LEVEL_WAREHOUSE_PLAN TranslationLevel = "WAREHOUSE_PLAN"
	// no rule matched, only the namespace was swapped
	LEVEL_RELATIVE TranslationLevel = "RELATIVE"
)

type GLMEntry struct {
	Source string           `json:"source"`
	Target string           `json:"target"`
	Origin TranslationLevel `json:"origin"`
}

/*
GlobalLocationMap is an ordered set of source-prefix -> target-prefix rules.
Entries are kept sorted by descending source length (ties broken lexically) so
that the most specific prefix always wins, whatever the insertion order was.
Keys are namespace-less paths; targets may carry a namespace of their own. It is not safe for concurrent use on its own,
the Translator serializes access to it.
*/
type GlobalLocationMap struct {
	entries []GLMEntry
}

func NewGlobalLocationMap() *GlobalLocationMap {
	return &GlobalLocationMap{}
}

// Put adds or replaces the rule for source. Returns the previous entry if one was replaced.
func (glm *GlobalLocationMap) Put(source, target string, origin TranslationLevel) (*GLMEntry, error) {
	srcNamespace, srcPath := SplitNamespace(source)
	if srcNamespace != "" {
		return nil, fmt.Errorf("global location map: source prefix %q must not include a namespace", source)
	}
	src := NormalizePath(srcPath)
	if src == "" {
		return nil, fmt.Errorf("global location map: empty source prefix")
	}
	// a namespaced target keeps its namespace, e.g. a move onto object storage
	tgtNamespace, tgtPath := SplitNamespace(target)
	tgt := NormalizePath(tgtPath)
	if tgt == "" {
		return nil, fmt.Errorf("global location map: empty target for prefix %q", source)
	}
	tgt = tgtNamespace + tgt
	entry := GLMEntry{Source: src, Target: tgt, Origin: origin}
	for i := range glm.entries {
		if glm.entries[i].Source == src {
			prev := glm.entries[i]
			glm.entries[i] = entry
			return &prev, nil
		}
	}
	glm.entries = append(glm.entries, entry)
	sort.SliceStable(glm.entries, func(i, j int) bool {
		a, b := glm.entries[i].Source, glm.entries[j].Source
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return nil, nil
}

func (glm *GlobalLocationMap) Remove(source string) bool {
	src := NormalizePath(source)
	for i := range glm.entries {
		if glm.entries[i].Source == src {
			glm.entries = append(glm.entries[:i], glm.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Lookup rewrites path with the first (longest) matching prefix. The remainder of
// path after the prefix is appended to the target unchanged.
func (glm *GlobalLocationMap) Lookup(path string) (string, *GLMEntry, bool) {
	p := NormalizePath(path)
	for i := range glm.entries {
		e := glm.entries[i]
		if !hasPathPrefix(p, e.Source) {
			continue
		}
		remainder := strings.TrimPrefix(p, e.Source)
		if e.Source == "/" {
			remainder = p
		}
		return JoinPath(e.Target, remainder), &e, true
	}
	return path, nil, false
}

// Covers reports whether some rule would match path.
func (glm *GlobalLocationMap) Covers(path string) bool {
	_, _, ok := glm.Lookup(path)
	return ok
}

// Entries returns a copy of the rules in match order.
func (glm *GlobalLocationMap) Entries() []GLMEntry {
	out := make([]GLMEntry, len(glm.entries))
	copy(out, glm.entries)
	return out
}

func (glm *GlobalLocationMap) Len() int {
	return len(glm.entries)
}
