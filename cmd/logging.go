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
package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yugabyte/hive-voyager/src/config"
)

type MyFormatter struct{}

var levelList = []string{
	"PANIC",
	"FATAL",
	"ERROR",
	"WARN",
	"INFO",
	"DEBUG",
	"TRACE",
}

func (mf *MyFormatter) Format(entry *log.Entry) ([]byte, error) {
	level := levelList[int(entry.Level)]
	fileName := filepath.Base(entry.Caller.File)
	// Example log line:
	// 2022-03-23 12:16:42 INFO main.go:27 Logging initialised.
	msg := fmt.Sprintf("%s %s %s:%d %s\n",
		entry.Time.Format("2006-01-02 15:04:05"), level,
		fileName, entry.Caller.Line, entry.Message)
	return []byte(msg), nil
}

func InitLogging(logDir string, disableLogging bool, cmdName string) {
	if disableLogging {
		log.SetOutput(io.Discard)
		return
	}
	logFileName := filepath.Join(logDir, "logs", fmt.Sprintf("hive-voyager-%s.log", cmdName))

	// logRotator handles scenario where "logs" folder, or the log file does not exist.
	logRotator := &lumberjack.Logger{
		Filename:   logFileName,
		MaxSize:    200, // 200 MB log size before rotation
		MaxBackups: 10,  // Allow upto 10 logs at once before deleting oldest logs.
	}
	log.SetOutput(logRotator)

	log.SetReportCaller(true)
	log.SetFormatter(&MyFormatter{})
	level, err := log.ParseLevel(config.LogLevel)
	if err == nil {
		log.SetLevel(level)
	}
	log.Info("Logging initialised.")
	log.Infof("Args: %v", os.Args)
	log.Infof("\n%s", getVersionInfo())
}

// redactURI hides the password of a connection uri before it is logged.
func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	if _, ok := u.User.Password(); !ok {
		return uri
	}
	u.User = url.UserPassword(u.User.Username(), "XXX")
	return u.String()
}

func logEffectiveConfig(c *config.Config, overrides []ConfigFlagOverride) {
	for _, o := range overrides {
		log.Infof("flag --%s set from config key %q", o.FlagName, o.ConfigKey)
	}
	log.Infof("data strategy %s, databases %v, workers %d, output dir %s, execute %v",
		c.DataStrategy, c.Databases, c.Workers, c.OutputDir, c.Execute)
	for name, cl := range map[string]config.Cluster{"LEFT": c.SourceCluster(), "RIGHT": c.TargetCluster()} {
		switch {
		case cl.SnapshotPath != "":
			log.Infof("%s catalog: snapshot %s", name, cl.SnapshotPath)
		case cl.HiveServer2 != nil:
			log.Infof("%s catalog: hiveserver2 %s", name, redactURI(cl.HiveServer2.Uri))
		}
		if cl.MetastoreDirect != nil {
			log.Infof("%s metastore: %s %s", name, cl.MetastoreDirect.Type, redactURI(cl.MetastoreDirect.Uri))
		}
	}
}
