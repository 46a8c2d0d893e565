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
	"unsafe"

	errs "github.com/rabbitstack/procinject/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/sys"
	"golang.org/x/sys/windows"
)

// Info contains the startup parameters of a process as recorded
// in its Process Environment Block (PEB).
type Info struct {
	Image       string
	CommandLine string
	Cwd         string
	SessionID   uint32
}

// Info reads the PEB of the process and the process parameters it points
// to. Both structures reside in the address space of the target process
// and are copied into the current process before their fields are accessed.
// Processes that are suspended before the loader initialized them don't
// have the process parameters yet, in which case only the session is set.
func (p *Process) Info() (*Info, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	proc := windows.Handle(p.Handle())
	pbi, err := sys.QueryInformationProcess[windows.PROCESS_BASIC_INFORMATION](proc, windows.ProcessBasicInformation)
	if err != nil {
		return nil, &errs.OpenFailure{Op: "NtQueryInformationProcess", Pid: p.pid, Err: err}
	}
	peb, err := sys.ReadProcessMemory[windows.PEB](proc, uintptr(unsafe.Pointer(pbi.PebBaseAddress)))
	if err != nil {
		return nil, &errs.ReadFailure{Op: "ReadProcessMemory", Pid: p.pid, Addr: uint64(uintptr(unsafe.Pointer(pbi.PebBaseAddress))), Want: int(unsafe.Sizeof(windows.PEB{})), Err: err}
	}
	info := &Info{SessionID: peb.SessionId}
	if peb.ProcessParameters == nil {
		return info, nil
	}
	params, err := sys.ReadProcessMemory[windows.RTL_USER_PROCESS_PARAMETERS](proc, uintptr(unsafe.Pointer(peb.ProcessParameters)))
	if err != nil {
		return info, nil
	}
	info.Image = readUnicodeString(proc, params.ImagePathName)
	info.CommandLine = readUnicodeString(proc, params.CommandLine)
	info.Cwd = readUnicodeString(proc, params.CurrentDirectory.DosPath)
	return info, nil
}

// readUnicodeString copies the string buffer out of the process memory.
func readUnicodeString(proc windows.Handle, s windows.NTUnicodeString) string {
	if s.Buffer == nil || s.Length == 0 {
		return ""
	}
	b := make([]uint16, s.Length/2)
	n, err := sys.ReadProcessMemoryBytes(proc, uintptr(unsafe.Pointer(s.Buffer)), unsafe.Slice((*byte)(unsafe.Pointer(&b[0])), len(b)*2))
	if err != nil {
		return ""
	}
	return windows.UTF16ToString(b[:n/2])
}
