//go:build windows

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

package sys

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestGetMappedFile(t *testing.T) {
	mod, err := windows.LoadLibrary("kernel32.dll")
	require.NoError(t, err)

	var tests = []struct {
		name    string
		addr    uintptr
		wantErr bool
		suffix  string
	}{
		{"image base", uintptr(mod), false, `\kernel32.dll`},
		{"image interior", uintptr(mod) + 0x1000, false, `\kernel32.dll`},
		{"unmapped address", 0x1000, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := GetMappedFileWithError(windows.CurrentProcess(), tt.addr)
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, GetMappedFile(windows.CurrentProcess(), tt.addr))
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(name, `\Device\`), name)
			assert.True(t, strings.HasSuffix(strings.ToLower(name), tt.suffix), name)
		})
	}
}

func TestGetLogicalDrives(t *testing.T) {
	drives := GetLogicalDrives()
	require.NotEmpty(t, drives)
	for _, drive := range drives {
		dev, err := QueryDosDevice(drive)
		if err != nil {
			continue
		}
		assert.True(t, strings.HasPrefix(dev, `\`), dev)
	}
}
