//go:build unit

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidHiveVersions(t *testing.T) {
	cases := map[string]bool{
		"1.2.1":                true,
		"2.1.1-cdh6.3.4":       true,
		"3.1.3000.7.1.8.0-801": false,
		"4.0.0":                false,
		" 2.3.9 ":              true,
		"3.1.0.3.1.5.0-152":    false,
	}
	for v, legacy := range cases {
		hv, err := NewHiveVersion(v)
		require.NoError(t, err, v)
		assert.Equal(t, legacy, hv.IsLegacy(), v)
	}
}

func TestInvalidHiveVersions(t *testing.T) {
	for _, v := range []string{"", "cdh6", "v"} {
		_, err := NewHiveVersion(v)
		assert.Error(t, err, v)
	}
}

func TestHiveVersionCompare(t *testing.T) {
	v2, _ := NewHiveVersion("2.3.9")
	v3, _ := NewHiveVersion("3.1.3000.7.1.8.0-801")
	assert.True(t, v3.GreaterThanOrEqual(v2))
	assert.False(t, v2.SameGeneration(v3))
	assert.Equal(t, "3.1.3000.7.1.8.0-801", v3.String())
	assert.Equal(t, 3, v3.Major())

	var hv HiveVersion
	require.NoError(t, hv.UnmarshalText([]byte("1.2.1")))
	assert.True(t, hv.IsLegacy())
}
