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
package issue

import (
	"fmt"
)

type Issue struct {
	// Type acts as ID for the issue; should be unique across all issues
	Type string

	// readable name for the issue; used in reports and logs
	Name string
	// printf style; filled in by Instance
	Description string
	Suggestion  string
}

// IssueInstance is one occurrence of an Issue on a table or database.
type IssueInstance struct {
	Issue
	Message string
}

func (i Issue) Instance(args ...interface{}) IssueInstance {
	return IssueInstance{Issue: i, Message: fmt.Sprintf(i.Description, args...)}
}

func (ii IssueInstance) String() string {
	if ii.Suggestion == "" {
		return ii.Message
	}
	return fmt.Sprintf("%s. %s", ii.Message, ii.Suggestion)
}

var registry = map[string]Issue{}

func register(i Issue) Issue {
	if _, ok := registry[i.Type]; ok {
		panic("duplicate issue type: " + i.Type)
	}
	registry[i.Type] = i
	return i
}

func Lookup(issueType string) (Issue, bool) {
	i, ok := registry[issueType]
	return i, ok
}
