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
package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirHelpers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "sql")
	assert.False(t, FileOrFolderExists(dir))
	require.NoError(t, CreateDirIfNotExists(dir))
	require.NoError(t, CreateDirIfNotExists(dir))
	assert.True(t, IsDirectoryEmpty(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.sql"), []byte("USE `x`;"), 0644))
	assert.False(t, IsDirectoryEmpty(dir))
	CleanDir(dir)
	assert.True(t, IsDirectoryEmpty(dir))
}

func TestErrExitCallsHook(t *testing.T) {
	code := -1
	SetExitHook(func(c int) { code = c })
	defer SetExitHook(nil)

	ErrExit("open metadb %q: %w", "meta.db", os.ErrNotExist)
	assert.Equal(t, 1, code)
}
