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
package catalog

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/errs"
	"github.com/yugabyte/hive-voyager/src/migunit"
)

/*
Degrading bounds every lookup of the wrapped endpoint by timeout. A failed or timed out
lookup returns the zero answer ("unknown, assume absent") together with an
*errs.EndpointUnavailableError so the caller can record it on the table. RunStatements is
not bounded: a statement that already started is left to finish.
*/
type Degrading struct {
	inner   Endpoint
	timeout time.Duration
}

func NewDegrading(inner Endpoint, timeout time.Duration) *Degrading {
	return &Degrading{inner: inner, timeout: timeout}
}

func (d *Degrading) Unwrap() Endpoint {
	return d.inner
}

func (d *Degrading) Environment() constants.Environment {
	return d.inner.Environment()
}

func (d *Degrading) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

func (d *Degrading) unavailable(op string, err error) error {
	log.Warnf("%s catalog %s failed: %v", d.Environment(), op, err)
	return &errs.EndpointUnavailableError{Environment: string(d.Environment()), Operation: op, Err: err}
}

func (d *Degrading) DatabaseExists(ctx context.Context, database string) (bool, error) {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	ok, err := d.inner.DatabaseExists(ctx, database)
	if err != nil {
		return false, d.unavailable("DatabaseExists", err)
	}
	return ok, nil
}

func (d *Degrading) GetDatabase(ctx context.Context, database string) (*Database, error) {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	db, err := d.inner.GetDatabase(ctx, database)
	if err != nil {
		return nil, d.unavailable("GetDatabase", err)
	}
	return db, nil
}

func (d *Degrading) ListTables(ctx context.Context, database string) ([]string, error) {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	tables, err := d.inner.ListTables(ctx, database)
	if err != nil {
		return nil, d.unavailable("ListTables", err)
	}
	return tables, nil
}

func (d *Degrading) TableExists(ctx context.Context, database, table string) (bool, error) {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	ok, err := d.inner.TableExists(ctx, database, table)
	if err != nil {
		return false, d.unavailable("TableExists", err)
	}
	return ok, nil
}

func (d *Degrading) GetDefinition(ctx context.Context, database, table string) ([]string, error) {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	def, err := d.inner.GetDefinition(ctx, database, table)
	if err != nil {
		return nil, d.unavailable("GetDefinition", err)
	}
	return def, nil
}

func (d *Degrading) ListPartitions(ctx context.Context, database, table string) (map[string]string, error) {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	parts, err := d.inner.ListPartitions(ctx, database, table)
	if err != nil {
		return nil, d.unavailable("ListPartitions", err)
	}
	return parts, nil
}

func (d *Degrading) RunStatements(ctx context.Context, database string, statements []migunit.Pair) error {
	return d.inner.RunStatements(ctx, database, statements)
}

func (d *Degrading) Close() error {
	return d.inner.Close()
}

func IsUnavailable(err error) bool {
	var target *errs.EndpointUnavailableError
	return errors.As(err, &target)
}
