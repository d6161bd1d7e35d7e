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
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

var DoNotPrompt bool

func AskPrompt(args ...string) bool {
	if DoNotPrompt {
		return true
	}
	var input string
	fmt.Printf("%s? [Y/N]: ", strings.Join(args, " "))

	_, err := fmt.Scan(&input)
	if err != nil {
		panic(err)
	}

	input = strings.ToUpper(strings.TrimSpace(input))
	return input == "Y" || input == "YES"
}

func IsDirectoryEmpty(pathPattern string) bool {
	files, _ := filepath.Glob(pathPattern + "/*")
	return len(files) == 0
}

func FileOrFolderExists(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		panic(err)
	}
	return true
}

func CreateDirIfNotExists(dir string) error {
	if FileOrFolderExists(dir) {
		return nil
	}
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

func CleanDir(dir string) {
	if FileOrFolderExists(dir) {
		files, _ := filepath.Glob(dir + "/*")
		log.Infof("cleaning directory: %s", dir)
		for _, file := range files {
			err := os.RemoveAll(file)
			if err != nil {
				ErrExit("clean dir %q: %s", dir, err)
			}
		}
	}
}
