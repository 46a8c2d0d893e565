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

package rotate

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the configuration for the rotate file hook.
type Config struct {
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Level      logrus.Level
	Formatter  logrus.Formatter
}

// File is the logrus hook that writes entries to a size-rotated log file.
type File struct {
	config       Config
	w            io.WriteCloser
	depth        int
	skip         int
	skipPrefixes []string
}

// NewHook builds a new rotate file hook.
func NewHook(config Config) (*File, error) {
	if config.Filename == "" {
		return nil, errors.New("empty log file name")
	}
	if config.MaxSize <= 0 {
		return nil, errors.Errorf("invalid log file size: %d MB", config.MaxSize)
	}
	if config.Formatter == nil {
		config.Formatter = &logrus.JSONFormatter{}
	}
	hook := &File{
		config:       config,
		depth:        20,
		skip:         5,
		skipPrefixes: []string{"logrus/", "logrus@"},
		w: &lumberjack.Logger{
			Filename:   config.Filename,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
		},
	}
	return hook, nil
}

// Levels returns the levels at or above the configured level.
func (hook *File) Levels() []logrus.Level {
	return logrus.AllLevels[:hook.config.Level+1]
}

// Fire formats the entry with the caller location and writes it to the log file.
func (hook *File) Fire(entry *logrus.Entry) error {
	file, line := hook.findCaller()
	modified := entry.WithField("source", fmt.Sprintf("%s:%d", file, line))
	modified.Level = entry.Level
	modified.Message = entry.Message
	modified.Time = entry.Time
	b, err := hook.config.Formatter.Format(modified)
	if err != nil {
		return err
	}
	_, err = hook.w.Write(b)
	return err
}

// Close closes the current log file.
func (hook *File) Close() error { return hook.w.Close() }

func (hook *File) findCaller() (string, int) {
	var (
		file string
		line int
	)
	for i := 0; i < hook.depth; i++ {
		file, line = getCaller(hook.skip + i)
		if !hook.skipFile(file) {
			break
		}
	}
	return file, line
}

func (hook *File) skipFile(file string) bool {
	for _, prefix := range hook.skipPrefixes {
		if strings.HasPrefix(file, prefix) {
			return true
		}
	}
	return false
}

// getCaller returns the caller file trimmed to its last two path components.
func getCaller(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "", 0
	}
	n := 0
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			n++
			if n >= 2 {
				file = file[i+1:]
				break
			}
		}
	}
	return file, line
}
