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
package metadb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/migunit"
	"github.com/yugabyte/hive-voyager/src/utils"
)

var (
	RUN_TABLE_NAME            = "run"
	DATABASE_UNIT_TABLE_NAME  = "database_unit"
	MIGRATION_UNIT_TABLE_NAME = "migration_unit"
	TRANSLATION_TABLE_NAME    = "translation"
	JSON_OBJECTS_TABLE_NAME   = "json_objects"
)

const SQLITE_OPTIONS = "?_txlock=exclusive&_timeout=30000"

func GetMetaDBPath(outputDir string) string {
	return filepath.Join(outputDir, "metainfo", "meta.db")
}

func CreateAndInitMetaDBIfRequired(outputDir string) error {
	metaDBPath := GetMetaDBPath(outputDir)
	if utils.FileOrFolderExists(metaDBPath) {
		// already created and initied.
		return nil
	}
	err := os.MkdirAll(filepath.Dir(metaDBPath), 0755)
	if err != nil {
		return fmt.Errorf("create meta db directory: %w", err)
	}
	err = createMetaDBFile(metaDBPath)
	if err != nil {
		return err
	}
	return initMetaDB(metaDBPath)
}

func createMetaDBFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("not able to create meta db file :%w", err)
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("error while closing meta db file: %w", err)
	}
	return nil
}

func initMetaDB(path string) error {
	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s%s", path, SQLITE_OPTIONS))
	if err != nil {
		return fmt.Errorf("error while opening meta db :%w", err)
	}
	defer conn.Close()
	cmds := []string{
		fmt.Sprintf(`CREATE TABLE %s (
			run_id TEXT PRIMARY KEY,
			started_at INTEGER,
			finished_at INTEGER DEFAULT 0,
			data_strategy TEXT,
			status TEXT,
			config_json TEXT);`, RUN_TABLE_NAME),
		fmt.Sprintf(`CREATE TABLE %s (
			run_id TEXT,
			database_name TEXT,
			phase TEXT,
			json_text TEXT,
			PRIMARY KEY(run_id, database_name) );`, DATABASE_UNIT_TABLE_NAME),
		fmt.Sprintf(`CREATE TABLE %s (
			run_id TEXT,
			database_name TEXT,
			table_name TEXT,
			strategy TEXT,
			phase TEXT,
			json_text TEXT,
			PRIMARY KEY(run_id, database_name, table_name) );`, MIGRATION_UNIT_TABLE_NAME),
		fmt.Sprintf(`CREATE TABLE %s (
			run_id TEXT,
			database_name TEXT,
			environment TEXT,
			seq INTEGER,
			original TEXT,
			new_location TEXT,
			level TEXT,
			PRIMARY KEY(run_id, database_name, environment, seq) );`, TRANSLATION_TABLE_NAME),
		fmt.Sprintf(`CREATE TABLE %s (
			key TEXT PRIMARY KEY,
			json_text TEXT);`, JSON_OBJECTS_TABLE_NAME),
	}
	for _, cmd := range cmds {
		_, err = conn.Exec(cmd)
		if err != nil {
			return fmt.Errorf("error while initializating meta db with query-%s :%w", cmd, err)
		}
		log.Infof("Executed query on meta db - %s", cmd)
	}
	return nil
}

// =====================================================================================================================

// MetaDB persists the plan of every run. Table workers write to it concurrently; sqlite
// serializes the writers through the exclusive transaction lock.
type MetaDB struct {
	db *sql.DB
}

func NewMetaDB(outputDir string) (*MetaDB, error) {
	return OpenMetaDB(GetMetaDBPath(outputDir))
}

func OpenMetaDB(path string) (*MetaDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s%s", path, SQLITE_OPTIONS))
	if err != nil {
		return nil, fmt.Errorf("error while opening meta db :%w", err)
	}
	return &MetaDB{db: db}, nil
}

func (m *MetaDB) Close() error {
	return m.db.Close()
}

type RunRecord struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	DataStrategy constants.DataStrategy
	Status       string
	Config       any
}

func (m *MetaDB) StartRun(run RunRecord) error {
	configJson, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("error while marshalling json: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, started_at, data_strategy, status, config_json) VALUES (?, ?, ?, ?, ?)`, RUN_TABLE_NAME)
	_, err = m.db.Exec(query, run.RunID, run.StartedAt.Unix(), string(run.DataStrategy), run.Status, string(configJson))
	if err != nil {
		return fmt.Errorf("error while running query on meta db - %s :%w", query, err)
	}
	log.Infof("Executed query on meta db - %s (run %s)", query, run.RunID)
	return nil
}

func (m *MetaDB) FinishRun(runID, status string, finishedAt time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET status = ?, finished_at = ? WHERE run_id = ?`, RUN_TABLE_NAME)
	result, err := m.db.Exec(query, status, finishedAt.Unix(), runID)
	if err != nil {
		return fmt.Errorf("error while running query on meta db - %s :%w", query, err)
	}
	return checkRowsAffected(result, 1)
}

func (m *MetaDB) GetRun(runID string) (*RunRecord, error) {
	query := fmt.Sprintf(`SELECT started_at, finished_at, data_strategy, status FROM %s WHERE run_id = ?`, RUN_TABLE_NAME)
	var startedAt, finishedAt int64
	var strategy, status string
	err := m.db.QueryRow(query, runID).Scan(&startedAt, &finishedAt, &strategy, &status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error while running query on meta db - %s :%w", query, err)
	}
	run := &RunRecord{
		RunID:        runID,
		StartedAt:    time.Unix(startedAt, 0),
		DataStrategy: constants.DataStrategy(strategy),
		Status:       status,
	}
	if finishedAt > 0 {
		run.FinishedAt = time.Unix(finishedAt, 0)
	}
	return run, nil
}

// LatestRunID returns "" when no run was recorded yet.
func (m *MetaDB) LatestRunID() (string, error) {
	query := fmt.Sprintf(`SELECT run_id FROM %s ORDER BY started_at DESC, rowid DESC LIMIT 1`, RUN_TABLE_NAME)
	var runID string
	err := m.db.QueryRow(query).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error while running query on meta db - %s :%w", query, err)
	}
	return runID, nil
}

func (m *MetaDB) SaveDatabaseUnit(runID string, du *migunit.DatabaseUnit) error {
	jsonText, err := json.Marshal(du)
	if err != nil {
		return fmt.Errorf("error while marshalling json: %w", err)
	}
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (run_id, database_name, phase, json_text) VALUES (?, ?, ?, ?)`, DATABASE_UNIT_TABLE_NAME)
	_, err = m.db.Exec(query, runID, du.Name, string(du.Phase), string(jsonText))
	if err != nil {
		return fmt.Errorf("error while running query on meta db - %s :%w", query, err)
	}
	return nil
}

func (m *MetaDB) SaveMigrationUnit(runID string, u *migunit.MigrationUnit) error {
	jsonText, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("error while marshalling json: %w", err)
	}
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (run_id, database_name, table_name, strategy, phase, json_text) VALUES (?, ?, ?, ?, ?, ?)`,
		MIGRATION_UNIT_TABLE_NAME)
	_, err = m.db.Exec(query, runID, u.Database, u.Name, string(u.Strategy), string(u.Phase), string(jsonText))
	if err != nil {
		return fmt.Errorf("error while running query on meta db - %s :%w", query, err)
	}
	return nil
}

func (m *MetaDB) GetDatabaseUnits(runID string) ([]*migunit.DatabaseUnit, error) {
	query := fmt.Sprintf(`SELECT json_text FROM %s WHERE run_id = ? ORDER BY database_name`, DATABASE_UNIT_TABLE_NAME)
	var out []*migunit.DatabaseUnit
	err := m.scanJson(query, runID, func(jsonText string) error {
		du := new(migunit.DatabaseUnit)
		if err := json.Unmarshal([]byte(jsonText), du); err != nil {
			return err
		}
		out = append(out, du)
		return nil
	})
	return out, err
}

// GetMigrationUnits returns the units of a run ordered by database and table.
func (m *MetaDB) GetMigrationUnits(runID string) ([]*migunit.MigrationUnit, error) {
	query := fmt.Sprintf(`SELECT json_text FROM %s WHERE run_id = ? ORDER BY database_name, table_name`, MIGRATION_UNIT_TABLE_NAME)
	var out []*migunit.MigrationUnit
	err := m.scanJson(query, runID, func(jsonText string) error {
		u := new(migunit.MigrationUnit)
		if err := json.Unmarshal([]byte(jsonText), u); err != nil {
			return err
		}
		out = append(out, u)
		return nil
	})
	return out, err
}

func (m *MetaDB) scanJson(query, runID string, fn func(string) error) error {
	rows, err := m.db.Query(query, runID)
	if err != nil {
		return fmt.Errorf("error while running query on meta db - %s :%w", query, err)
	}
	defer func() {
		err := rows.Close()
		if err != nil {
			log.Errorf("failed to close rows of query %s : %v", query, err)
		}
	}()
	for rows.Next() {
		var jsonText string
		if err := rows.Scan(&jsonText); err != nil {
			return fmt.Errorf("scan rows of query %s : %w", query, err)
		}
		if err := fn(jsonText); err != nil {
			return fmt.Errorf("error while unmarshalling json: %w", err)
		}
	}
	return rows.Err()
}

// SaveTranslations replaces the audit facts of one database with translations.
func (m *MetaDB) SaveTranslations(runID, database string, translations map[constants.Environment][]location.Translation) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("error while starting transaction on meta db: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	del := fmt.Sprintf(`DELETE FROM %s WHERE run_id = ? AND database_name = ?`, TRANSLATION_TABLE_NAME)
	if _, err := tx.Exec(del, runID, database); err != nil {
		return fmt.Errorf("error while running query on meta db - %s :%w", del, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, database_name, environment, seq, original, new_location, level) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		TRANSLATION_TABLE_NAME)
	for env, facts := range translations {
		for i, t := range facts {
			_, err := tx.Exec(query, runID, database, string(env), i, t.Original, t.New, string(t.Level))
			if err != nil {
				return fmt.Errorf("error while running query on meta db - %s :%w", query, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error while commiting transaction on meta db: %w", err)
	}
	return nil
}

func (m *MetaDB) GetTranslations(runID, database string) (map[constants.Environment][]location.Translation, error) {
	query := fmt.Sprintf(`SELECT environment, original, new_location, level FROM %s WHERE run_id = ? AND database_name = ? ORDER BY environment, seq`,
		TRANSLATION_TABLE_NAME)
	rows, err := m.db.Query(query, runID, database)
	if err != nil {
		return nil, fmt.Errorf("error while running query on meta db - %s :%w", query, err)
	}
	defer rows.Close()
	out := make(map[constants.Environment][]location.Translation)
	for rows.Next() {
		var env, original, newLocation, level string
		if err := rows.Scan(&env, &original, &newLocation, &level); err != nil {
			return nil, fmt.Errorf("scan rows of query %s : %w", query, err)
		}
		e := constants.Environment(env)
		out[e] = append(out[e], location.Translation{Original: original, New: newLocation, Level: location.TranslationLevel(level)})
	}
	return out, rows.Err()
}

func (m *MetaDB) InsertJsonObject(tx *sql.Tx, key string, obj any) error {
	jsonText, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("error while marshalling json: %w", err)
	}
	log.Infof("Inserting json object for key: %s", key)
	query := fmt.Sprintf(`INSERT INTO %s (key, json_text) VALUES (?, ?)`, JSON_OBJECTS_TABLE_NAME)
	if tx == nil {
		_, err = m.db.Exec(query, key, jsonText)
	} else {
		_, err = tx.Exec(query, key, jsonText)
	}
	if err != nil {
		return fmt.Errorf("error while running query on meta db - %s :%w", query, err)
	}
	return nil
}

func (m *MetaDB) GetJsonObject(tx *sql.Tx, key string, obj any) (bool, error) {
	query := fmt.Sprintf(`SELECT json_text FROM %s WHERE key = ?`, JSON_OBJECTS_TABLE_NAME)
	var row *sql.Row
	if tx == nil {
		row = m.db.QueryRow(query, key)
	} else {
		row = tx.QueryRow(query, key)
	}
	var jsonText string
	err := row.Scan(&jsonText)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Infof("No json object found for key: %s", key)
			return false, nil
		}
		return false, fmt.Errorf("error while running query on meta db - %s :%w", query, err)
	}
	err = json.Unmarshal([]byte(jsonText), obj)
	if err != nil {
		return true, fmt.Errorf("error while unmarshalling json: %w", err)
	}
	return true, nil
}

func (m *MetaDB) DeleteJsonObject(key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, JSON_OBJECTS_TABLE_NAME)
	_, err := m.db.Exec(query, key)
	if err != nil {
		return fmt.Errorf("error while running query on meta db -%s :%w", query, err)
	}
	return nil
}

func UpdateJsonObjectInMetaDB[T any](m *MetaDB, key string, updateFn func(obj *T)) error {
	conn, err := m.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("error while getting connection to meta db: %w", err)
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Errorf("failed to close connection to meta db: %v", err)
		}
	}()
	tx, err := conn.BeginTx(context.Background(), &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("error while starting transaction on meta db: %w", err)
	}
	defer func() {
		err := tx.Rollback()
		if err != nil && err != sql.ErrTxDone {
			log.Errorf("failed to rollback transaction on meta db: %v", err)
		}
	}()
	obj := new(T)
	found, err := m.GetJsonObject(tx, key, obj)
	if err != nil {
		return fmt.Errorf("error while getting json object from meta db: %w", err)
	}
	updateFn(obj)
	if !found {
		err = m.InsertJsonObject(tx, key, obj)
		if err != nil {
			return fmt.Errorf("error while inserting json object into meta db: %w", err)
		}
	} else {
		newJsonText, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("error while marshalling json: %w", err)
		}
		query := fmt.Sprintf(`UPDATE %s SET json_text = ? WHERE key = ?`, JSON_OBJECTS_TABLE_NAME)
		_, err = tx.Exec(query, string(newJsonText), key)
		if err != nil {
			return fmt.Errorf("error while running query on meta db - %s :%w", query, err)
		}
	}
	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("error while commiting transaction on meta db: %w", err)
	}
	return nil
}

func checkRowsAffected(result sql.Result, expectedRows int) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows updated: %v", err)
	}
	if rowsAffected != int64(expectedRows) {
		return fmt.Errorf("expected %d rows to be updated, got %d", expectedRows, rowsAffected)
	}
	return nil
}
