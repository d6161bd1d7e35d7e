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
package utils

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

// exitHook ends the process after a fatal error. Tests swap it through SetExitHook.
var exitHook = atexit.Exit

// SetExitHook replaces the exit of ErrExit; nil restores atexit.Exit so the
// output-dir lock is still released.
func SetExitHook(h func(code int)) {
	exitHook = h
	if h == nil {
		exitHook = atexit.Exit
	}
}

// ErrExit reports a fatal error on stderr and in the log, then exits with status 1.
// %w verbs are accepted so callers can reuse their error formats.
func ErrExit(format string, args ...interface{}) {
	msg := strings.TrimRight(fmt.Sprintf(strings.ReplaceAll(format, "%w", "%v"), args...), "\n")
	fmt.Fprintln(os.Stderr, msg)
	log.Error(msg)
	exitHook(1)
}

// PrintAndLog writes a user-facing line to stdout and the same text to the log.
func PrintAndLog(formatString string, args ...interface{}) {
	msg := strings.TrimRight(fmt.Sprintf(formatString, args...), "\n")
	log.Info(msg)
	fmt.Println(msg)
}
