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

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

const (
	METASTORE_MYSQL    = "mysql"
	METASTORE_POSTGRES = "postgres"
)

var partitionLocationQueries = map[string]string{
	METASTORE_MYSQL: `SELECT P.PART_NAME, S.LOCATION
FROM PARTITIONS P
  JOIN TBLS T ON P.TBL_ID = T.TBL_ID
  JOIN DBS D ON T.DB_ID = D.DB_ID
  JOIN SDS S ON P.SD_ID = S.SD_ID
WHERE D.NAME = ? AND T.TBL_NAME = ?
ORDER BY P.PART_NAME`,
	METASTORE_POSTGRES: `SELECT P."PART_NAME", S."LOCATION"
FROM "PARTITIONS" P
  JOIN "TBLS" T ON P."TBL_ID" = T."TBL_ID"
  JOIN "DBS" D ON T."DB_ID" = D."DB_ID"
  JOIN "SDS" S ON P."SD_ID" = S."SD_ID"
WHERE D."NAME" = $1 AND T."TBL_NAME" = $2
ORDER BY P."PART_NAME"`,
}

var metastoreDrivers = map[string]string{
	METASTORE_MYSQL:    "mysql",
	METASTORE_POSTGRES: "pgx",
}

/*
MetastoreDirect reads partition locations straight from the metastore RDBMS. HiveServer2
has no cheap way to list partition locations, so every other lookup is delegated to the
wrapped endpoint.
*/
type MetastoreDirect struct {
	Endpoint
	dbType string
	db     *sql.DB
}

func OpenMetastoreDirect(inner Endpoint, dbType, uri string) (*MetastoreDirect, error) {
	driver, ok := metastoreDrivers[dbType]
	if !ok {
		return nil, fmt.Errorf("unsupported metastore type %q", dbType)
	}
	db, err := sql.Open(driver, uri)
	if err != nil {
		return nil, fmt.Errorf("open %s metastore connection: %w", dbType, err)
	}
	return NewMetastoreDirect(inner, dbType, db)
}

func NewMetastoreDirect(inner Endpoint, dbType string, db *sql.DB) (*MetastoreDirect, error) {
	if _, ok := partitionLocationQueries[dbType]; !ok {
		return nil, fmt.Errorf("unsupported metastore type %q", dbType)
	}
	return &MetastoreDirect{Endpoint: inner, dbType: dbType, db: db}, nil
}

func (m *MetastoreDirect) ListPartitions(ctx context.Context, database, table string) (map[string]string, error) {
	rows, err := m.db.QueryContext(ctx, partitionLocationQueries[m.dbType], database, table)
	if err != nil {
		return nil, fmt.Errorf("query %s metastore partitions of %s.%s: %w", m.dbType, database, table, err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name string
		var loc sql.NullString
		if err := rows.Scan(&name, &loc); err != nil {
			return nil, fmt.Errorf("scan metastore partition of %s.%s: %w", database, table, err)
		}
		out[name] = loc.String
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	log.Debugf("%s: %d partitions of %s.%s from the %s metastore", m.Environment(), len(out), database, table, m.dbType)
	return out, nil
}

func (m *MetastoreDirect) Close() error {
	err := m.db.Close()
	if ierr := m.Endpoint.Close(); ierr != nil {
		return ierr
	}
	return err
}
