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
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHook(t *testing.T) {
	var tests = []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Filename: "procinject.log", MaxSize: 10}, false},
		{"empty file name", Config{MaxSize: 10}, true},
		{"zero size", Config{Filename: "procinject.log"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook, err := NewHook(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, hook.config.Formatter)
		})
	}
}

func TestHookLevels(t *testing.T) {
	hook, err := NewHook(Config{Filename: "procinject.log", MaxSize: 1, Level: logrus.WarnLevel})
	require.NoError(t, err)
	assert.Equal(t, []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}, hook.Levels())
}

func TestHookFire(t *testing.T) {
	file := filepath.Join(t.TempDir(), "procinject.log")
	hook, err := NewHook(Config{Filename: file, MaxSize: 1, Level: logrus.InfoLevel, Formatter: &logrus.TextFormatter{DisableTimestamp: true}})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(discard{})
	logger.AddHook(hook)
	logger.WithField("pid", 4242).Info("injected module")
	require.NoError(t, hook.Close())

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "injected module")
	assert.Contains(t, string(b), "pid=4242")
	assert.Contains(t, string(b), "rotate_test.go")
}

type discard struct{}

func (discard) Write(b []byte) (int, error) { return len(b), nil }
