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
	"golang.org/x/sys/windows"
)

const (
	// MemCommitReserve is the allocation type for committing and reserving pages in one call.
	MemCommitReserve = windows.MEM_COMMIT | windows.MEM_RESERVE
	// MemRelease releases the entire region reserved by the allocation.
	MemRelease = windows.MEM_RELEASE
)

// SystemInfo contains information about the current computer system
// including the range of accessible application addresses.
type SystemInfo struct {
	ProcessorArchitecture     uint16
	Reserved                  uint16
	PageSize                  uint32
	MinimumApplicationAddress uintptr
	MaximumApplicationAddress uintptr
	ActiveProcessorMask       uintptr
	NumberOfProcessors        uint32
	ProcessorType             uint32
	AllocationGranularity     uint32
	ProcessorLevel            uint16
	ProcessorRevision         uint16
}

// MaxApplicationAddress returns the highest memory address accessible
// to applications and DLLs.
func MaxApplicationAddress() uintptr {
	var si SystemInfo
	GetSystemInfo(&si)
	return si.MaximumApplicationAddress
}

// AllocRemote reserves and commits a read/write region of the given
// size in the address space of the specified process.
func AllocRemote(proc windows.Handle, size uintptr) (uintptr, error) {
	return VirtualAllocEx(proc, 0, size, MemCommitReserve, windows.PAGE_READWRITE)
}

// FreeRemote releases the region previously allocated by AllocRemote.
func FreeRemote(proc windows.Handle, addr uintptr) error {
	return VirtualFreeEx(proc, addr, 0, MemRelease)
}

// WriteProcessMemory copies the buffer into the address space of
// the specified process and checks that all bytes were written.
func WriteProcessMemory(proc windows.Handle, addr uintptr, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	var n uintptr
	if err := windows.WriteProcessMemory(proc, addr, &b[0], uintptr(len(b)), &n); err != nil {
		return err
	}
	if n != uintptr(len(b)) {
		return windows.ERROR_PARTIAL_COPY
	}
	return nil
}
