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
	"fmt"
	"strconv"

	"github.com/rabbitstack/procinject/pkg/errors"
)

// Address represents the memory address
type Address uint64

// String returns the hexadecimal representation of the memory address.
func (a Address) String() string   { return strconv.FormatUint(uint64(a), 16) }
func (a Address) Uint64() uint64   { return uint64(a) }
func (a Address) Uintptr() uintptr { return uintptr(a) }

// Inc increments the address by given offset.
func (a Address) Inc(offset uint64) Address {
	a += Address(offset)
	return a
}

// Dec decrements the address by given offset.
func (a Address) Dec(offset uint64) Address {
	a -= Address(offset)
	return a
}

// Space identifies the address space an address belongs to. The zero
// value is the address space of the current process.
type Space struct {
	pid     uint32
	foreign bool
}

// LocalSpace is the address space of the current process.
var LocalSpace = Space{}

// ForeignSpace returns the address space of the foreign process with the given pid.
func ForeignSpace(pid uint32) Space { return Space{pid: pid, foreign: true} }

// Pid returns the process identifier of the foreign address space.
func (s Space) Pid() uint32 { return s.pid }

// IsLocal determines if this is the address space of the current process.
func (s Space) IsLocal() bool { return !s.foreign }

func (s Space) String() string {
	if s.IsLocal() {
		return "local"
	}
	return "pid:" + strconv.FormatUint(uint64(s.pid), 10)
}

// SpaceAddress is the address tagged with the address space it is valid in.
// Arithmetic between addresses is only defined within the same space.
type SpaceAddress struct {
	Space Space
	Addr  Address
}

// Local tags the address as belonging to the current process.
func Local(addr Address) SpaceAddress { return SpaceAddress{Space: LocalSpace, Addr: addr} }

// Foreign tags the address as belonging to the foreign process.
func Foreign(pid uint32, addr Address) SpaceAddress {
	return SpaceAddress{Space: ForeignSpace(pid), Addr: addr}
}

// Add shifts the address by the offset, staying in the same address space.
func (a SpaceAddress) Add(offset uint64) SpaceAddress {
	return SpaceAddress{Space: a.Space, Addr: a.Addr.Inc(offset)}
}

// Sub returns the offset of a from the base. Both addresses must live in the
// same address space and a must not precede the base.
func (a SpaceAddress) Sub(base SpaceAddress) (uint64, error) {
	if a.Space != base.Space {
		return 0, errors.ErrSpaceMismatch
	}
	if a.Addr < base.Addr {
		return 0, fmt.Errorf("address %s precedes base %s in %s space", a.Addr, base.Addr, a.Space)
	}
	return uint64(a.Addr - base.Addr), nil
}

func (a SpaceAddress) String() string { return a.Space.String() + "@" + a.Addr.String() }
