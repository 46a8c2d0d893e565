/*
 * Copyright 2021-present by Nedim Sabic Sabic
 * https://www.fibratus.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/util/log/rotate"
	fs "github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

// Dir returns the directory where log files are stored when no
// explicit path is configured.
func Dir() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to locate the user cache directory")
	}
	return filepath.Join(cache, "procinject", "logs"), nil
}

// InitFromConfig initializes the logrus standard logger from config options.
// Log entries are written to the named file inside the configured logs
// directory, which is created if it doesn't exist.
func InitFromConfig(c Config, filename string) error {
	path := c.Path
	if path == "" {
		var err error
		path, err = Dir()
		if err != nil {
			return err
		}
	}
	if filename == "" {
		return errors.New("got an empty log file name")
	}
	if _, err := os.Stat(path); err != nil {
		if err := os.MkdirAll(path, os.ModePerm); err != nil {
			return errors.Wrapf(err, "unable to create the %s logs directory", path)
		}
	}

	file := filepath.Join(path, filename)

	var formatter logrus.Formatter
	switch c.Formatter {
	case "text":
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		formatter = &logrus.JSONFormatter{}
	}
	logrus.SetFormatter(formatter)

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	if !c.LogStdout {
		logrus.SetOutput(io.Discard)
	} else {
		logrus.SetOutput(os.Stderr)
	}

	rhook, err := rotate.NewHook(rotate.Config{
		MaxAge:     c.MaxAge,
		MaxBackups: c.MaxBackups,
		MaxSize:    c.MaxSize,
		Level:      level,
		Formatter:  formatter,
		Filename:   file,
	})
	if err != nil {
		// fall back to the plain file hook
		var pathMap fs.PathMap = make(map[logrus.Level]string)
		for _, lvl := range logrus.AllLevels[:level+1] {
			pathMap[lvl] = file
		}
		logrus.AddHook(fs.NewHook(pathMap, formatter))
		logrus.Warnf("unable to initialize rotate file hook: %v", err)
		return nil
	}
	logrus.AddHook(rhook)

	return nil
}
