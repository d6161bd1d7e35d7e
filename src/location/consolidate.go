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
package location

import (
	"strings"
)

// SplitNamespace splits a fully qualified location into its filesystem namespace
// and its path, e.g. "hdfs://ns1:8020/a/b" -> ("hdfs://ns1:8020", "/a/b").
// Locations without a scheme have an empty namespace.
func SplitNamespace(location string) (string, string) {
	idx := strings.Index(location, "://")
	if idx < 0 {
		return "", location
	}
	rest := location[idx+3:]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return location, "/"
	}
	return location[:idx+3+slash], rest[slash:]
}

// NormalizePath removes duplicate and trailing slashes. The root stays "/".
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	segments := pathSegments(path)
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

func pathSegments(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// PathDepth is the number of non-empty segments in the path part of a location.
func PathDepth(location string) int {
	_, path := SplitNamespace(location)
	return len(pathSegments(path))
}

// ReduceUrlBy drops the last `level` path segments of location. The namespace is
// never touched, and reducing past the top yields the filesystem root.
func ReduceUrlBy(location string, level int) string {
	namespace, path := SplitNamespace(location)
	segments := pathSegments(path)
	if level > 0 {
		if level >= len(segments) {
			segments = nil
		} else {
			segments = segments[:len(segments)-level]
		}
	}
	return namespace + "/" + strings.Join(segments, "/")
}

// IsSubPath reports whether child equals parent or lives underneath it. Both are
// compared on whole path segments, so /a/b is not a parent of /a/bc.
func IsSubPath(parent, child string) bool {
	pns, ppath := SplitNamespace(parent)
	cns, cpath := SplitNamespace(child)
	if pns != "" && cns != "" && pns != cns {
		return false
	}
	return hasPathPrefix(NormalizePath(cpath), NormalizePath(ppath))
}

func hasPathPrefix(path, prefix string) bool {
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// PartitionDepth is the number of partition keys in a partition spec such as "dt=2020-01-01/hr=01".
func PartitionDepth(partitionSpec string) int {
	return len(pathSegments(partitionSpec))
}

// JoinPath joins path elements with a single slash, keeping a leading namespace intact.
func JoinPath(base string, elems ...string) string {
	out := strings.TrimRight(base, "/")
	for _, e := range elems {
		e = strings.Trim(e, "/")
		if e == "" {
			continue
		}
		out = out + "/" + e
	}
	if out == "" {
		return "/"
	}
	return out
}
