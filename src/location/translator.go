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
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/samber/lo"

	"github.com/yugabyte/hive-voyager/src/constants"
)

type Translation struct {
	Original string           `json:"original"`
	New      string           `json:"new"`
	Level    TranslationLevel `json:"level"`
}

/*
Translator owns the run's GlobalLocationMap and the translation audit store.
One Translator is shared by every table worker of a run; a single mutex guards both
structures. The audit store is append-only: translating the same path twice records
two facts and never rewrites the map.
*/
type Translator struct {
	mu           sync.Mutex
	glm          *GlobalLocationMap
	translations map[string]map[constants.Environment][]Translation
}

func NewTranslator() *Translator {
	return &Translator{
		glm:          NewGlobalLocationMap(),
		translations: make(map[string]map[constants.Environment][]Translation),
	}
}

// AddGlobalLocationMapEntry registers an explicit user rule.
func (t *Translator) AddGlobalLocationMapEntry(source, target string) error {
	return t.addEntry(source, target, LEVEL_GLOBAL_LOCATION_MAP)
}

// AddDerivedEntries registers rules produced by reconciliation. Explicit user rules
// for the same prefix are never overwritten.
func (t *Translator) AddDerivedEntries(entries []GLMEntry) error {
	for _, e := range entries {
		t.mu.Lock()
		existing := lo.ContainsBy(t.glm.entries, func(ge GLMEntry) bool {
			return ge.Source == NormalizePath(e.Source) && ge.Origin == LEVEL_GLOBAL_LOCATION_MAP
		})
		t.mu.Unlock()
		if existing {
			log.Infof("skipping derived location map entry %s -> %s, an explicit entry exists", e.Source, e.Target)
			continue
		}
		err := t.addEntry(e.Source, e.Target, e.Origin)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) addEntry(source, target string, origin TranslationLevel) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, err := t.glm.Put(source, target, origin)
	if err != nil {
		return err
	}
	if prev != nil {
		log.Warnf("global location map entry for %s replaced: %s -> %s", prev.Source, prev.Target, target)
	}
	return nil
}

// GlobalLocationMap returns a snapshot of the map in match order.
func (t *Translator) GlobalLocationMap() []GLMEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.glm.Entries()
}

// Covers reports whether the current map has a rule for path (namespace ignored).
func (t *Translator) Covers(path string) bool {
	_, p := SplitNamespace(path)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.glm.Covers(p)
}

/*
Translate maps path with the longest matching prefix rule. The namespace of path,
if any, is kept. If no rule matches the path comes back unmodified with ok=false
and nothing is recorded; the caller decides whether that is acceptable.
*/
func (t *Translator) Translate(database string, env constants.Environment, path string) (string, TranslationLevel, bool) {
	namespace, p := SplitNamespace(path)
	t.mu.Lock()
	defer t.mu.Unlock()
	newPath, entry, ok := t.glm.Lookup(p)
	if !ok {
		return path, "", false
	}
	result := withNamespace(namespace, newPath)
	t.addTranslationLocked(database, env, path, result, entry.Origin)
	return result, entry.Origin, true
}

/*
TranslateLocation is the full pipeline used for table and partition locations:
the source namespace is stripped, the map is consulted, and the target namespace
is prepended unless the matching rule names its own. Without a matching rule the path is kept and only the namespace is
swapped (LEVEL_RELATIVE, matched=false).
*/
func (t *Translator) TranslateLocation(database string, env constants.Environment, original, targetNamespace string) (string, TranslationLevel, bool) {
	if original == "" {
		return "", "", false
	}
	sourceNamespace, p := SplitNamespace(original)
	if targetNamespace == "" {
		targetNamespace = sourceNamespace
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	newPath, entry, ok := t.glm.Lookup(p)
	if ok {
		result := withNamespace(targetNamespace, newPath)
		t.addTranslationLocked(database, env, original, result, entry.Origin)
		return result, entry.Origin, true
	}
	result := targetNamespace + NormalizePath(p)
	t.addTranslationLocked(database, env, original, result, LEVEL_RELATIVE)
	return result, LEVEL_RELATIVE, false
}

// withNamespace prepends namespace unless the rule target already named one.
func withNamespace(namespace, path string) string {
	if ns, _ := SplitNamespace(path); ns != "" {
		return path
	}
	return namespace + path
}

// AddTranslation appends an audit fact.
func (t *Translator) AddTranslation(database string, env constants.Environment, original, newLocation string, level TranslationLevel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addTranslationLocked(database, env, original, newLocation, level)
}

func (t *Translator) addTranslationLocked(database string, env constants.Environment, original, newLocation string, level TranslationLevel) {
	byEnv, ok := t.translations[database]
	if !ok {
		byEnv = make(map[constants.Environment][]Translation)
		t.translations[database] = byEnv
	}
	byEnv[env] = append(byEnv[env], Translation{Original: original, New: newLocation, Level: level})
}

// Translations returns a copy of the audit facts recorded for (database, env).
func (t *Translator) Translations(database string, env constants.Environment) []Translation {
	t.mu.Lock()
	defer t.mu.Unlock()
	facts := t.translations[database][env]
	out := make([]Translation, len(facts))
	copy(out, facts)
	return out
}

// TranslationsForDatabase returns a copy of all audit facts of a database.
func (t *Translator) TranslationsForDatabase(database string) map[constants.Environment][]Translation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[constants.Environment][]Translation)
	for env, facts := range t.translations[database] {
		cp := make([]Translation, len(facts))
		copy(cp, facts)
		out[env] = cp
	}
	return out
}
