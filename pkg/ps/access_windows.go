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
	"golang.org/x/sys/windows"
)

var capabilityMasks = [...]uint32{
	AccessQuery:         windows.PROCESS_QUERY_INFORMATION,
	AccessCreateThread:  windows.PROCESS_CREATE_THREAD,
	AccessVMRead:        windows.PROCESS_VM_READ,
	AccessVMWrite:       windows.PROCESS_VM_WRITE,
	AccessVMOperation:   windows.PROCESS_VM_OPERATION,
	AccessSuspendResume: windows.PROCESS_SUSPEND_RESUME,
	AccessTerminate:     windows.PROCESS_TERMINATE,
	AccessSynchronize:   windows.SYNCHRONIZE,
}

// Mask returns the process access rights bitmask.
func (a Access) Mask() uint32 {
	var mask uint32
	for _, c := range a.Capabilities() {
		if int(c) < len(capabilityMasks) {
			mask |= capabilityMasks[c]
		}
	}
	return mask
}

var creationFlagMasks = [...]uint32{
	CreateSuspended:  windows.CREATE_SUSPENDED,
	CreateNewConsole: windows.CREATE_NEW_CONSOLE,
	CreateNoWindow:   windows.CREATE_NO_WINDOW,
}

// Mask returns the process creation flags bitmask.
func (f CreationFlags) Mask() uint32 {
	var mask uint32
	for i := CreationFlag(0); i < creationFlagCount; i++ {
		if f.Has(i) {
			mask |= creationFlagMasks[i]
		}
	}
	return mask
}
