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
package hiveversion

import (
	"fmt"
	"regexp"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/hashicorp/go-version"
)

// Major version at which managed tables became transactional by default and the
// warehouse split into managed and external directories.
const MODERN_MAJOR = 3

// distribution builds append their own numbering, e.g. 3.1.3000.7.1.8.0-801 or 2.1.1-cdh6.3.4
var leadingVersionRe = regexp.MustCompile(`^\d+(\.\d+)*`)

/*
HiveVersion is a wrapper around hashicorp/go-version.Version.
Only the leading numeric segments are significant; vendor build suffixes are kept in
the original string for display.
*/
type HiveVersion struct {
	*version.Version
	original string
}

func NewHiveVersion(v string) (*HiveVersion, error) {
	v = strings.TrimSpace(v)
	numeric := leadingVersionRe.FindString(v)
	if numeric == "" {
		return nil, goerrors.Errorf("invalid hive version: %q", v)
	}
	v1, err := version.NewVersion(numeric)
	if err != nil {
		return nil, fmt.Errorf("parse hive version %q: %w", v, err)
	}
	return &HiveVersion{Version: v1, original: v}, nil
}

func (hv *HiveVersion) Major() int {
	return hv.Segments()[0]
}

// IsLegacy reports a pre-3.x release.
func (hv *HiveVersion) IsLegacy() bool {
	return hv.Major() < MODERN_MAJOR
}

func (hv *HiveVersion) SameGeneration(other *HiveVersion) bool {
	return hv.IsLegacy() == other.IsLegacy()
}

func (hv *HiveVersion) GreaterThanOrEqual(other *HiveVersion) bool {
	return hv.Version.GreaterThanOrEqual(other.Version)
}

func (hv *HiveVersion) String() string {
	return hv.original
}

// UnmarshalText implements encoding.TextUnmarshaler interface.
func (hv *HiveVersion) UnmarshalText(b []byte) error {
	temp, err := NewHiveVersion(string(b))
	if err != nil {
		return err
	}
	*hv = *temp
	return nil
}

// IsLegacyVersion is a convenience for configuration values; an unparsable version is an error.
func IsLegacyVersion(v string) (bool, error) {
	hv, err := NewHiveVersion(v)
	if err != nil {
		return false, err
	}
	return hv.IsLegacy(), nil
}
