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

const (
	// MemImage indicates that the memory pages within the region are mapped
	// into the view of an image section.
	MemImage uint32 = 0x1000000
	// MemMapped indicates that the memory pages within the region are mapped
	// into the view of a section.
	MemMapped uint32 = 0x40000
	// MemPrivate Indicates that the memory pages within the region are private
	// that is, not shared by other processes.
	MemPrivate uint32 = 0x20000
)

const (
	// MemCommit indicates committed pages.
	MemCommit uint32 = 0x1000
	// MemReserve indicates reserved pages.
	MemReserve uint32 = 0x2000
	// MemFree indicates free pages not accessible to the process.
	MemFree uint32 = 0x10000
)

// Region describes the state of a range of pages in the process
// virtual address space. Contiguous regions carved from one allocation
// share the same allocation base.
type Region struct {
	// BaseAddress is the base address of the region of pages.
	BaseAddress Address
	// AllocationBase is the base address of the allocation the region belongs to.
	AllocationBase Address
	// Size is the size of the region in bytes beginning at the base address.
	Size uint64
	// State is the state of the pages in the region.
	State uint32
	// Protect is the access protection of the pages in the region.
	Protect uint32
	// Type is the type of pages in the region.
	Type uint32
}

// IsFree determines if the region is not part of any allocation.
func (r Region) IsFree() bool { return r.State == MemFree || r.AllocationBase == 0 }

// IsMapped determines if the region is backed by the section object.
func (r Region) IsMapped() bool {
	return r.Type == MemImage || r.Type == MemMapped
}

// End returns the address right past the last byte of the region.
func (r Region) End() Address { return r.BaseAddress.Inc(r.Size) }
