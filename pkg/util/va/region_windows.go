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

package va

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// QueryRegion fetches the metadata of the region of pages containing
// the address inside the virtual address space of the given process.
func QueryRegion(process windows.Handle, addr Address) (Region, error) {
	var m windows.MemoryBasicInformation
	err := windows.VirtualQueryEx(process, addr.Uintptr(), &m, unsafe.Sizeof(m))
	if err != nil {
		return Region{}, err
	}
	return Region{
		BaseAddress:    Address(m.BaseAddress),
		AllocationBase: Address(m.AllocationBase),
		Size:           uint64(m.RegionSize),
		State:          m.State,
		Protect:        m.Protect,
		Type:           m.Type,
	}, nil
}
