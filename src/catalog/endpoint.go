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
	"fmt"
	"strings"

	"github.com/yugabyte/hive-voyager/src/config"
	"github.com/yugabyte/hive-voyager/src/constants"
	"github.com/yugabyte/hive-voyager/src/location"
	"github.com/yugabyte/hive-voyager/src/migunit"
)

type Database struct {
	Name       string            `json:"name" yaml:"name"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Endpoint is the catalog of one environment. Every lookup is bounded by ctx.
type Endpoint interface {
	Environment() constants.Environment
	DatabaseExists(ctx context.Context, database string) (bool, error)
	GetDatabase(ctx context.Context, database string) (*Database, error)
	ListTables(ctx context.Context, database string) ([]string, error)
	TableExists(ctx context.Context, database, table string) (bool, error)
	GetDefinition(ctx context.Context, database, table string) ([]string, error)
	// ListPartitions maps each partition spec to its location. An empty location
	// means the endpoint only knows the partition name.
	ListPartitions(ctx context.Context, database, table string) (map[string]string, error)
	// RunStatements runs the statements in order and stops at the first failure.
	RunStatements(ctx context.Context, database string, statements []migunit.Pair) error
	Close() error
}

// FillPartitionLocations sets the location of partitions the endpoint could not resolve
// to the conventional <table location>/<spec> directory.
func FillPartitionLocations(partitions map[string]string, tableLocation string) {
	if tableLocation == "" {
		return
	}
	for spec, loc := range partitions {
		if loc == "" {
			partitions[spec] = location.JoinPath(tableLocation, spec)
		}
	}
}

/*
NewEndpoint opens the endpoint configured for an environment. A snapshot path wins over a
live connection; a metastore_direct section adds direct partition lookups on top of either.
*/
func NewEndpoint(env constants.Environment, cluster config.Cluster) (Endpoint, error) {
	var ep Endpoint
	var err error
	switch {
	case cluster.SnapshotPath != "":
		ep, err = LoadSnapshotEndpoint(env, cluster.SnapshotPath)
	case cluster.HiveServer2 != nil && cluster.HiveServer2.Uri != "":
		ep, err = OpenHS2Endpoint(env, cluster.HiveServer2.DriverName, cluster.HiveServer2.Uri)
	default:
		return nil, fmt.Errorf("%s cluster has neither hiveserver2 nor snapshot_path configured", env)
	}
	if err != nil {
		return nil, err
	}
	if cluster.MetastoreDirect != nil && cluster.MetastoreDirect.Uri != "" {
		ep, err = OpenMetastoreDirect(ep, strings.ToLower(cluster.MetastoreDirect.Type), cluster.MetastoreDirect.Uri)
		if err != nil {
			return nil, err
		}
	}
	return ep, nil
}
