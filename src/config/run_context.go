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
package config

import (
	"github.com/yugabyte/hive-voyager/src/constants"
)

// ClusterContext is the slice of a cluster's configuration the strategies need.
type ClusterContext struct {
	Environment   constants.Environment
	Namespace     string
	Version       string
	Legacy        bool
	InitMSCK      bool
	AutoDiscovery bool
}

// RunContext fixes which cluster plays LEFT and which plays RIGHT for one run.
type RunContext struct {
	Left  ClusterContext
	Right ClusterContext
}

func clusterContext(env constants.Environment, c Cluster) ClusterContext {
	return ClusterContext{
		Environment:   env,
		Namespace:     c.HcfsNamespace,
		Version:       c.Version,
		Legacy:        c.IsLegacy(),
		InitMSCK:      c.PartitionDiscovery.InitMSCK,
		AutoDiscovery: c.PartitionDiscovery.Auto,
	}
}

// SourceCluster is the cluster read as LEFT, the right-hand cluster when flip is set.
func (c *Config) SourceCluster() Cluster {
	if c.Flip {
		return c.Clusters.Right
	}
	return c.Clusters.Left
}

func (c *Config) TargetCluster() Cluster {
	if c.Flip {
		return c.Clusters.Left
	}
	return c.Clusters.Right
}

// RunContext derives LEFT/RIGHT from the clusters section. Storage migration stays on the
// LEFT cluster and only moves to the target namespace.
func (c *Config) RunContext() RunContext {
	rc := RunContext{
		Left:  clusterContext(constants.LEFT, c.Clusters.Left),
		Right: clusterContext(constants.RIGHT, c.Clusters.Right),
	}
	if c.Flip {
		rc = rc.Flipped()
	}
	if c.DataStrategy == constants.STORAGE_MIGRATION {
		right := rc.Left
		right.Environment = constants.RIGHT
		right.Namespace = c.Transfer.TargetNamespace
		return RunContext{Left: rc.Left, Right: right}
	}
	if c.Transfer.TargetNamespace != "" {
		rc.Right.Namespace = c.Transfer.TargetNamespace
	}
	return rc
}

// Flipped swaps the roles of the two clusters, e.g. to plan the way back after a cutover.
func (rc RunContext) Flipped() RunContext {
	left, right := rc.Right, rc.Left
	left.Environment = constants.LEFT
	right.Environment = constants.RIGHT
	return RunContext{Left: left, Right: right}
}

// LegacyMigration reports that the two sides are on different major generations.
func (rc RunContext) LegacyMigration() bool {
	return rc.Left.Legacy != rc.Right.Legacy
}
