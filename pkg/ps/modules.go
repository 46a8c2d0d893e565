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
	"iter"
	"strings"

	"github.com/dustin/go-humanize"
	errs "github.com/rabbitstack/procinject/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/pe"
	"github.com/rabbitstack/procinject/pkg/util/va"
	log "github.com/sirupsen/logrus"
)

// Module is an image mapped into the address space of a process.
type Module struct {
	// BaseAddress is the allocation base of the image.
	BaseAddress va.Address
	// Size is the size of the image as declared in the optional header.
	Size uint64
	// Name is the device path of the image file.
	Name string
}

// SizeKB returns the image size in kilobytes.
func (m Module) SizeKB() float64 { return float64(m.Size) / 1024.0 }

// BaseName returns the file name portion of the module path.
func (m Module) BaseName() string {
	if i := strings.LastIndexAny(m.Name, `\/`); i >= 0 {
		return m.Name[i+1:]
	}
	return m.Name
}

func (m Module) String() string {
	return m.BaseAddress.String() + " " + humanize.IBytes(m.Size) + " " + m.Name
}

// AddressSpace is the virtual address space of a process.
type AddressSpace interface {
	// Pid returns the identifier of the process owning the address space.
	Pid() uint32
	// Query returns the memory region containing addr.
	Query(addr va.Address) (va.Region, error)
	// MappedFile returns the device path of the file mapped at addr or
	// an empty string if the address is not backed by a file.
	MappedFile(addr va.Address) string
	// Read copies memory starting at addr into b and returns the number of bytes read.
	Read(addr va.Address, b []byte) (int, error)
	// MaxApplicationAddress returns the highest address accessible to applications.
	MaxApplicationAddress() va.Address
}

// Modules walks the address space region by region and yields every
// allocation backed by a file that starts with a valid image header.
// Private allocations are never asked for the mapped file name.
// Modules are yielded in ascending base address order. Regions whose
// headers can't be read are skipped, since the address space may change
// while it is walked. The walk stops with an error only when a region
// can't be queried. Each iteration starts a fresh walk.
func Modules(space AddressSpace) iter.Seq2[Module, error] {
	return func(yield func(Module, error) bool) {
		var (
			addr    va.Address
			prev    va.Address
			maxAddr = space.MaxApplicationAddress()
		)
		for addr < maxAddr {
			region, err := space.Query(addr)
			if err != nil {
				yield(Module{}, &errs.ReadFailure{Op: "VirtualQueryEx", Pid: space.Pid(), Addr: addr.Uint64(), Err: err})
				return
			}
			next := region.End()
			if region.Size == 0 || next <= addr {
				return
			}
			addr = next

			base := region.AllocationBase
			if base == prev {
				continue
			}
			prev = base
			if region.IsFree() || !region.IsMapped() {
				continue
			}

			name := space.MappedFile(base)
			if name == "" {
				continue
			}
			hdr, err := readImageHeader(space, base)
			if err != nil {
				log.WithFields(log.Fields{
					"pid":  space.Pid(),
					"base": base,
					"file": name,
				}).Debugf("skipping region: %v", err)
				continue
			}
			if !yield(Module{BaseAddress: base, Size: uint64(hdr.SizeOfImage), Name: name}, nil) {
				return
			}
		}
	}
}

// readImageHeader reads the DOS header at base and the NT headers at the
// offset it points to. Both reads must transfer the full header.
func readImageHeader(space AddressSpace, base va.Address) (*pe.ImageHeader, error) {
	dos := make([]byte, pe.DOSHeaderSize)
	if err := readFull(space, base, dos); err != nil {
		return nil, err
	}
	lfanew, err := pe.ExtendedHeaderOffset(dos)
	if err != nil {
		return nil, err
	}
	nt := make([]byte, pe.NTHeadersSize)
	if err := readFull(space, base.Inc(uint64(lfanew)), nt); err != nil {
		return nil, err
	}
	return pe.ParseImageHeader(dos, nt)
}

func readFull(space AddressSpace, addr va.Address, b []byte) error {
	n, err := space.Read(addr, b)
	if err != nil || n != len(b) {
		return &errs.ReadFailure{Op: "ReadProcessMemory", Pid: space.Pid(), Addr: addr.Uint64(), Want: len(b), Got: n, Err: err}
	}
	return nil
}

// ListModules collects all modules of the address space.
func ListModules(space AddressSpace) ([]Module, error) {
	mods := make([]Module, 0)
	for mod, err := range Modules(space) {
		if err != nil {
			return mods, err
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

// FindModule returns the first module whose file name matches
// name case-insensitively.
func FindModule(space AddressSpace, name string) (Module, bool, error) {
	for mod, err := range Modules(space) {
		if err != nil {
			return Module{}, false, err
		}
		if strings.EqualFold(mod.BaseName(), name) {
			return mod, true, nil
		}
	}
	return Module{}, false, nil
}

// FindModuleByPath returns the module mapped from the given device path.
func FindModuleByPath(space AddressSpace, path string) (Module, bool, error) {
	for mod, err := range Modules(space) {
		if err != nil {
			return Module{}, false, err
		}
		if strings.EqualFold(mod.Name, path) {
			return mod, true, nil
		}
	}
	return Module{}, false, nil
}
