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
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestReadProcessMemory(t *testing.T) {
	mod, err := windows.LoadLibrary("ntdll.dll")
	require.NoError(t, err)

	magic, err := ReadProcessMemory[uint16](windows.CurrentProcess(), uintptr(mod))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x5a4d), *magic)

	b := make([]byte, 64)
	n, err := ReadProcessMemoryBytes(windows.CurrentProcess(), uintptr(mod), b)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
	assert.Equal(t, []byte("MZ"), b[:2])
}

func TestRemoteAllocWrite(t *testing.T) {
	proc := windows.CurrentProcess()
	addr, err := AllocRemote(proc, 4096)
	require.NoError(t, err)
	defer func() { require.NoError(t, FreeRemote(proc, addr)) }()

	require.NoError(t, WriteProcessMemory(proc, addr, []byte("procinject")))
	assert.Equal(t, "procinject", string(unsafe.Slice((*byte)(unsafe.Pointer(addr)), 10)))
}

func TestIsProcessRunning(t *testing.T) {
	assert.True(t, IsProcessRunning(windows.CurrentProcess()))
	_, err := IsWow64(windows.CurrentProcess())
	require.NoError(t, err)
}

func TestMaxApplicationAddress(t *testing.T) {
	assert.Greater(t, uint64(MaxApplicationAddress()), uint64(0x10000))
}
