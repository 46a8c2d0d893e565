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

package ps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/windows"
)

func TestAccessMask(t *testing.T) {
	var tests = []struct {
		name   string
		access Access
		mask   uint32
	}{
		{"empty", Access{}, 0},
		{"read", NewAccess(AccessQuery, AccessVMRead), windows.PROCESS_QUERY_INFORMATION | windows.PROCESS_VM_READ},
		{"unknown capability", NewAccess(Capability(20)), 0},
		{"unknown with known", NewAccess(Capability(20), AccessSynchronize), windows.SYNCHRONIZE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.mask, tt.access.Mask())
		})
	}
}

func TestCreationFlagsMask(t *testing.T) {
	var tests = []struct {
		name  string
		flags CreationFlags
		mask  uint32
	}{
		{"empty", CreationFlags{}, 0},
		{"suspended", NewCreationFlags(CreateSuspended, CreateNoWindow), windows.CREATE_SUSPENDED | windows.CREATE_NO_WINDOW},
		{"unknown flag", NewCreationFlags(CreationFlag(9)), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.mask, tt.flags.Mask())
		})
	}
}
