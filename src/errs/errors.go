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
	"errors"
	"fmt"
	"strings"
)

// TableMigrationError carries the strategy cascade that led to a table-scoped failure.
type TableMigrationError struct {
	database   string
	table      string
	flow       string   // The top level strategy (e.g., "HYBRID")
	steps      []string // Strategies visited before the failing one
	failedStep string   // The strategy whose handler failed
	err        error
}

func (e *TableMigrationError) Error() string {
	if len(e.steps) > 0 {
		return fmt.Sprintf("error migrating %s.%s in %s at step '%s', after steps - (%s): %s",
			e.database, e.table, e.flow, e.failedStep, strings.Join(e.steps, ", "), e.err.Error())
	}
	return fmt.Sprintf("error migrating %s.%s in %s at step '%s': %s",
		e.database, e.table, e.flow, e.failedStep, e.err.Error())
}

func (e *TableMigrationError) Flow() string {
	return e.flow
}

func (e *TableMigrationError) Steps() []string {
	return e.steps
}

func (e *TableMigrationError) FailedStep() string {
	return e.failedStep
}

func (e *TableMigrationError) Unwrap() error {
	return e.err
}

func NewTableMigrationError(database, table, flow string, steps []string, failedStep string, err error) *TableMigrationError {
	return &TableMigrationError{
		database:   database,
		table:      table,
		flow:       flow,
		steps:      steps,
		failedStep: failedStep,
		err:        err,
	}
}

// StrictModeViolation is a location that could not be reconciled while strict mode is on.
type StrictModeViolation struct {
	Database string
	Table    string
	Location string
	Reason   string
}

func (e *StrictModeViolation) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("strict mode: database %s location %q: %s", e.Database, e.Location, e.Reason)
	}
	return fmt.Sprintf("strict mode: %s.%s location %q: %s", e.Database, e.Table, e.Location, e.Reason)
}

func NewStrictModeViolation(database, table, location, reason string) *StrictModeViolation {
	return &StrictModeViolation{Database: database, Table: table, Location: location, Reason: reason}
}

func IsStrictModeViolation(err error) bool {
	var v *StrictModeViolation
	return errors.As(err, &v)
}

// PanicError wraps a value recovered from a strategy handler.
type PanicError struct {
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

type UnknownDatabaseErr struct {
	unknownDatabases []string
	validDatabases   []string
}

func (e *UnknownDatabaseErr) Error() string {
	return fmt.Sprintf("\nUnknown databases on LEFT: %v\nAvailable databases are: %v", e.unknownDatabases, e.validDatabases)
}

func NewUnknownDatabaseErr(unknownDatabases []string, validDatabases []string) *UnknownDatabaseErr {
	return &UnknownDatabaseErr{
		unknownDatabases: unknownDatabases,
		validDatabases:   validDatabases,
	}
}

// EndpointUnavailableError marks a catalog call that failed or timed out.
type EndpointUnavailableError struct {
	Environment string
	Operation   string
	Err         error
}

func (e *EndpointUnavailableError) Error() string {
	return fmt.Sprintf("%s endpoint unavailable during %s: %v", e.Environment, e.Operation, e.Err)
}

func (e *EndpointUnavailableError) Unwrap() error {
	return e.Err
}
