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
package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableMigrationError(t *testing.T) {
	cause := errors.New("rewrite failed")
	err := NewTableMigrationError("sales", "orders", "HYBRID", []string{"HYBRID", "SQL"}, "SQL", cause)
	assert.Equal(t, "error migrating sales.orders in HYBRID at step 'SQL', after steps - (HYBRID, SQL): rewrite failed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "HYBRID", err.Flow())
	assert.Equal(t, "SQL", err.FailedStep())

	err = NewTableMigrationError("sales", "orders", "DUMP", nil, "DUMP", cause)
	assert.Equal(t, "error migrating sales.orders in DUMP at step 'DUMP': rewrite failed", err.Error())
}

func TestStrictModeViolation(t *testing.T) {
	v := NewStrictModeViolation("sales", "orders", "hdfs://ns1/x", "no mapping")
	wrapped := fmt.Errorf("translate: %w", v)
	assert.True(t, IsStrictModeViolation(wrapped))
	assert.False(t, IsStrictModeViolation(errors.New("x")))
	assert.Contains(t, v.Error(), "sales.orders")
}

func TestEndpointUnavailable(t *testing.T) {
	err := &EndpointUnavailableError{Environment: "RIGHT", Operation: "TableExists", Err: context.DeadlineExceeded}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
