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
	"database/sql"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/migunit"
)

const (
	SHOW_DATABASES_LIKE = "SHOW DATABASES LIKE '%s'"
	DESCRIBE_DATABASE   = "DESCRIBE DATABASE EXTENDED `%s`"
	SHOW_TABLES         = "SHOW TABLES IN `%s`"
	SHOW_TABLES_LIKE    = "SHOW TABLES IN `%s` LIKE '%s'"
	SHOW_CREATE_TABLE   = "SHOW CREATE TABLE `%s`.`%s`"
	SHOW_PARTITIONS     = "SHOW PARTITIONS `%s`.`%s`"
	USE_DATABASE        = "USE `%s`"
)

// DESCRIBE DATABASE columns mapped to database properties.
var describeDatabaseColumns = map[string]string{
	"location":        constants.DB_LOCATION,
	"managedlocation": constants.DB_MANAGED_LOCATION,
	"comment":         constants.DB_COMMENT,
	"owner_name":      constants.DB_OWNER,
}

/*
HS2Endpoint talks to HiveServer2 through database/sql. The driver is whatever the binary
registered under DriverName; the endpoint only relies on Hive's SHOW and DESCRIBE output.
HiveServer2 sessions carry the current database, so the pool is pinned to one connection.
*/
type HS2Endpoint struct {
	env constants.Environment
	db  *sql.DB
}

func OpenHS2Endpoint(env constants.Environment, driverName, uri string) (*HS2Endpoint, error) {
	if driverName == "" {
		return nil, fmt.Errorf("%s hiveserver2: driver_name is required", env)
	}
	db, err := sql.Open(driverName, uri)
	if err != nil {
		return nil, fmt.Errorf("open %s hiveserver2 connection: %w", env, err)
	}
	db.SetMaxOpenConns(1)
	return NewHS2Endpoint(env, db), nil
}

func NewHS2Endpoint(env constants.Environment, db *sql.DB) *HS2Endpoint {
	return &HS2Endpoint{env: env, db: db}
}

func (h *HS2Endpoint) Environment() constants.Environment {
	return h.env
}

// queryColumn returns the first column of every row of query.
func (h *HS2Endpoint) queryColumn(ctx context.Context, query string) ([]string, error) {
	log.Debugf("%s: %s", h.env, query)
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("run query %q on %s: %w", query, h.env, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s sql.NullString
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan result of %q: %w", query, err)
		}
		out = append(out, s.String)
	}
	return out, rows.Err()
}

func (h *HS2Endpoint) DatabaseExists(ctx context.Context, database string) (bool, error) {
	names, err := h.queryColumn(ctx, fmt.Sprintf(SHOW_DATABASES_LIKE, database))
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if strings.EqualFold(n, database) {
			return true, nil
		}
	}
	return false, nil
}

func (h *HS2Endpoint) GetDatabase(ctx context.Context, database string) (*Database, error) {
	query := fmt.Sprintf(DESCRIBE_DATABASE, database)
	log.Debugf("%s: %s", h.env, query)
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("run query %q on %s: %w", query, h.env, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %q: %w", query, err)
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("database %s not found on %s", database, h.env)
	}
	values := make([]sql.NullString, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan result of %q: %w", query, err)
	}
	out := &Database{Name: database, Properties: make(map[string]string)}
	for i, c := range cols {
		key, ok := describeDatabaseColumns[strings.ToLower(c)]
		if ok && values[i].String != "" {
			out.Properties[key] = values[i].String
		}
	}
	return out, nil
}

func (h *HS2Endpoint) ListTables(ctx context.Context, database string) ([]string, error) {
	return h.queryColumn(ctx, fmt.Sprintf(SHOW_TABLES, database))
}

func (h *HS2Endpoint) TableExists(ctx context.Context, database, table string) (bool, error) {
	names, err := h.queryColumn(ctx, fmt.Sprintf(SHOW_TABLES_LIKE, database, table))
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if strings.EqualFold(n, table) {
			return true, nil
		}
	}
	return false, nil
}

func (h *HS2Endpoint) GetDefinition(ctx context.Context, database, table string) ([]string, error) {
	lines, err := h.queryColumn(ctx, fmt.Sprintf(SHOW_CREATE_TABLE, database, table))
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty definition for %s.%s on %s", database, table, h.env)
	}
	return lines, nil
}

// ListPartitions only knows the partition specs; locations are left empty.
func (h *HS2Endpoint) ListPartitions(ctx context.Context, database, table string) (map[string]string, error) {
	specs, err := h.queryColumn(ctx, fmt.Sprintf(SHOW_PARTITIONS, database, table))
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(specs))
	for _, s := range specs {
		out[s] = ""
	}
	return out, nil
}

func (h *HS2Endpoint) RunStatements(ctx context.Context, database string, statements []migunit.Pair) error {
	if len(statements) == 0 {
		return nil
	}
	if database != "" {
		if _, err := h.db.ExecContext(ctx, fmt.Sprintf(USE_DATABASE, database)); err != nil {
			return fmt.Errorf("select database %s on %s: %w", database, h.env, err)
		}
	}
	for i, p := range statements {
		log.Infof("%s [%d/%d] %s: %s", h.env, i+1, len(statements), p.Description, p.Action)
		if _, err := h.db.ExecContext(ctx, p.Action); err != nil {
			return fmt.Errorf("%s statement %d (%s) failed: %w", h.env, i+1, p.Description, err)
		}
	}
	return nil
}

func (h *HS2Endpoint) Close() error {
	return h.db.Close()
}
