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
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Capability is a single access right requested when opening a process.
type Capability uint

const (
	// AccessQuery permits querying process information and memory regions.
	AccessQuery Capability = iota
	// AccessCreateThread permits creating threads in the process.
	AccessCreateThread
	// AccessVMRead permits reading the process memory.
	AccessVMRead
	// AccessVMWrite permits writing the process memory.
	AccessVMWrite
	// AccessVMOperation permits allocating and releasing the process memory.
	AccessVMOperation
	// AccessSuspendResume permits suspending and resuming the process.
	AccessSuspendResume
	// AccessTerminate permits terminating the process.
	AccessTerminate
	// AccessSynchronize permits waiting on the process.
	AccessSynchronize
	capabilityCount
)

var capabilityNames = [...]string{
	AccessQuery:         "query",
	AccessCreateThread:  "create-thread",
	AccessVMRead:        "vm-read",
	AccessVMWrite:       "vm-write",
	AccessVMOperation:   "vm-operation",
	AccessSuspendResume: "suspend-resume",
	AccessTerminate:     "terminate",
	AccessSynchronize:   "synchronize",
}

func (c Capability) String() string {
	if c >= capabilityCount {
		return "unknown"
	}
	return capabilityNames[c]
}

// Access is the set of capabilities requested for a process handle.
// The zero value is the empty set.
type Access struct {
	caps *bitset.BitSet
}

// DefaultAccess covers everything required to inspect, inject, suspend,
// wait on and terminate the process.
var DefaultAccess = NewAccess(
	AccessQuery,
	AccessCreateThread,
	AccessVMRead,
	AccessVMWrite,
	AccessVMOperation,
	AccessSuspendResume,
	AccessTerminate,
	AccessSynchronize,
)

// NewAccess builds the access set from individual capabilities.
func NewAccess(caps ...Capability) Access {
	b := bitset.New(uint(capabilityCount))
	for _, c := range caps {
		if c >= capabilityCount {
			continue
		}
		b.Set(uint(c))
	}
	return Access{caps: b}
}

// Union returns the set with capabilities of both access sets.
func (a Access) Union(o Access) Access {
	switch {
	case a.caps == nil && o.caps == nil:
		return NewAccess()
	case a.caps == nil:
		return Access{caps: o.caps.Clone()}
	case o.caps == nil:
		return Access{caps: a.caps.Clone()}
	}
	return Access{caps: a.caps.Union(o.caps)}
}

// Without returns the set with the given capability removed.
func (a Access) Without(c Capability) Access {
	if a.caps == nil {
		return NewAccess()
	}
	b := a.caps.Clone()
	b.Clear(uint(c))
	return Access{caps: b}
}

// Has determines if the capability is in the set.
func (a Access) Has(c Capability) bool {
	return a.caps != nil && a.caps.Test(uint(c))
}

// Capabilities returns the capabilities in ascending order.
func (a Access) Capabilities() []Capability {
	if a.caps == nil {
		return nil
	}
	caps := make([]Capability, 0, a.caps.Count())
	for i, ok := a.caps.NextSet(0); ok; i, ok = a.caps.NextSet(i + 1) {
		caps = append(caps, Capability(i))
	}
	return caps
}

func (a Access) String() string {
	caps := a.Capabilities()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.String()
	}
	return strings.Join(names, "|")
}

// CreationFlag controls how a launched process is created.
type CreationFlag uint

const (
	// CreateSuspended starts the primary thread in the suspended state.
	CreateSuspended CreationFlag = iota
	// CreateNewConsole gives the process a new console instead of inheriting the parent's.
	CreateNewConsole
	// CreateNoWindow runs a console process without a console window.
	CreateNoWindow
	creationFlagCount
)

// CreationFlags is the set of flags passed to the launcher.
type CreationFlags struct {
	flags *bitset.BitSet
}

// NewCreationFlags builds the flag set from individual flags.
func NewCreationFlags(flags ...CreationFlag) CreationFlags {
	b := bitset.New(uint(creationFlagCount))
	for _, f := range flags {
		if f >= creationFlagCount {
			continue
		}
		b.Set(uint(f))
	}
	return CreationFlags{flags: b}
}

// Union returns the set with flags of both sets.
func (f CreationFlags) Union(o CreationFlags) CreationFlags {
	b := bitset.New(uint(creationFlagCount))
	if f.flags != nil {
		b.InPlaceUnion(f.flags)
	}
	if o.flags != nil {
		b.InPlaceUnion(o.flags)
	}
	return CreationFlags{flags: b}
}

// Has determines if the flag is in the set.
func (f CreationFlags) Has(flag CreationFlag) bool {
	return f.flags != nil && f.flags.Test(uint(flag))
}
