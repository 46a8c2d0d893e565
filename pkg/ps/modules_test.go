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
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	errs "github.com/rabbitstack/procinject/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/util/va"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSpace is an address space made of contiguous regions.
// Memory is sparse and keyed by address.
type fakeSpace struct {
	regions  []va.Region
	files    map[va.Address]string
	mem      map[va.Address][]byte
	max      va.Address
	queryErr map[va.Address]error
	queries  int
	lookups  []va.Address
}

func (s *fakeSpace) Pid() uint32 { return 4242 }

func (s *fakeSpace) Query(addr va.Address) (va.Region, error) {
	s.queries++
	if err, ok := s.queryErr[addr]; ok {
		return va.Region{}, err
	}
	for _, r := range s.regions {
		if addr >= r.BaseAddress && addr < r.End() {
			return r, nil
		}
	}
	return va.Region{BaseAddress: addr, Size: uint64(s.max - addr), State: va.MemFree}, nil
}

func (s *fakeSpace) MappedFile(addr va.Address) string {
	s.lookups = append(s.lookups, addr)
	return s.files[addr]
}

func (s *fakeSpace) Read(addr va.Address, b []byte) (int, error) {
	for base, data := range s.mem {
		if addr >= base && addr < base.Inc(uint64(len(data))) {
			n := copy(b, data[addr-base:])
			if n < len(b) {
				return n, errors.New("partial copy")
			}
			return n, nil
		}
	}
	return 0, errors.New("invalid access to memory location")
}

func (s *fakeSpace) MaxApplicationAddress() va.Address { return s.max }

// image synthesizes the header page of a 64-bit image.
func image(sizeOfImage uint32) []byte {
	const lfanew = 0x80
	b := make([]byte, 0x1000)
	b[0], b[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(b[0x3c:], lfanew)
	copy(b[lfanew:], "PE\x00\x00")
	fh := b[lfanew+4:]
	binary.LittleEndian.PutUint16(fh[0:], 0x8664)
	binary.LittleEndian.PutUint16(fh[2:], 1)
	binary.LittleEndian.PutUint16(fh[16:], 240)
	binary.LittleEndian.PutUint16(fh[18:], 0x2022)
	oh := b[lfanew+24:]
	binary.LittleEndian.PutUint16(oh[0:], 0x20b)
	binary.LittleEndian.PutUint32(oh[32:], 0x1000)
	binary.LittleEndian.PutUint32(oh[36:], 0x200)
	binary.LittleEndian.PutUint32(oh[56:], sizeOfImage)
	binary.LittleEndian.PutUint32(oh[60:], 0x400)
	binary.LittleEndian.PutUint32(oh[108:], 16)
	return b
}

func imageRegion(base, allocBase va.Address, size uint64) va.Region {
	return va.Region{
		BaseAddress:    base,
		AllocationBase: allocBase,
		Size:           size,
		State:          va.MemCommit,
		Type:           va.MemImage,
	}
}

// twoModuleSpace has A.dll at 0x10000 and B.dll at 0x20000. The
// image of B.dll spans two regions of the same allocation.
func twoModuleSpace() *fakeSpace {
	return &fakeSpace{
		regions: []va.Region{
			{BaseAddress: 0, Size: 0x10000, State: va.MemFree},
			imageRegion(0x10000, 0x10000, 0x1000),
			{BaseAddress: 0x11000, Size: 0xf000, State: va.MemFree},
			imageRegion(0x20000, 0x20000, 0x1000),
			imageRegion(0x21000, 0x20000, 0x1000),
			{BaseAddress: 0x22000, AllocationBase: 0x22000, Size: 0x2000, State: va.MemCommit, Type: va.MemPrivate},
			{BaseAddress: 0x24000, Size: 0xc000, State: va.MemFree},
		},
		files: map[va.Address]string{
			0x10000: `\Device\HarddiskVolume1\A.dll`,
			0x20000: `\Device\HarddiskVolume1\B.dll`,
		},
		mem: map[va.Address][]byte{
			0x10000: image(4096),
			0x20000: image(8192),
		},
		max: 0x30000,
	}
}

func TestModules(t *testing.T) {
	mods, err := ListModules(twoModuleSpace())
	require.NoError(t, err)
	require.Len(t, mods, 2)

	assert.Equal(t, va.Address(0x10000), mods[0].BaseAddress)
	assert.Equal(t, 4.0, mods[0].SizeKB())
	assert.Equal(t, "A.dll", mods[0].BaseName())
	assert.Equal(t, va.Address(0x20000), mods[1].BaseAddress)
	assert.Equal(t, 8.0, mods[1].SizeKB())
	assert.Equal(t, "B.dll", mods[1].BaseName())

	listing := make([]string, len(mods))
	for i, m := range mods {
		listing[i] = fmt.Sprintf("0x%s, %.1f kB, %s", m.BaseAddress, m.SizeKB(), m.BaseName())
	}
	assert.Equal(t, []string{"0x10000, 4.0 kB, A.dll", "0x20000, 8.0 kB, B.dll"}, listing)
}

func TestModulesAscendingAndUnique(t *testing.T) {
	s := twoModuleSpace()
	// a third module right after B.dll with the same file name
	s.regions = append(s.regions[:6],
		imageRegion(0x24000, 0x24000, 0x3000),
		imageRegion(0x27000, 0x24000, 0x1000),
		va.Region{BaseAddress: 0x28000, Size: 0x8000, State: va.MemFree},
	)
	s.files[0x24000] = `\Device\HarddiskVolume1\B.dll`
	s.mem[0x24000] = image(0x4000)

	var prev va.Address
	n := 0
	for mod, err := range Modules(s) {
		require.NoError(t, err)
		assert.Greater(t, mod.BaseAddress.Uint64(), prev.Uint64())
		prev = mod.BaseAddress
		n++
	}
	assert.Equal(t, 3, n)
}

func TestModulesRestartable(t *testing.T) {
	s := twoModuleSpace()
	seq := Modules(s)
	var first, second []Module
	for mod, err := range seq {
		require.NoError(t, err)
		first = append(first, mod)
	}
	for mod, err := range seq {
		require.NoError(t, err)
		second = append(second, mod)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestModulesSkipsPrivateRegions(t *testing.T) {
	s := twoModuleSpace()
	// the file name lookup would succeed but private memory isn't a section view
	s.files[0x22000] = `\Device\HarddiskVolume1\C.dll`
	s.mem[0x22000] = image(8192)

	mods, err := ListModules(s)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, []va.Address{0x10000, 0x20000}, s.lookups)
}

func TestModulesMappedDataFile(t *testing.T) {
	s := twoModuleSpace()
	s.regions[5].Type = va.MemMapped
	s.files[0x22000] = `\Device\HarddiskVolume1\C.dll`
	s.mem[0x22000] = image(8192)

	mods, err := ListModules(s)
	require.NoError(t, err)
	require.Len(t, mods, 3)
	assert.Equal(t, "C.dll", mods[2].BaseName())
}

func TestModulesSkipsUnreadableHeaders(t *testing.T) {
	var tests = []struct {
		name   string
		mutate func(s *fakeSpace)
	}{
		{"unmapped header", func(s *fakeSpace) { delete(s.mem, 0x10000) }},
		{"torn DOS header", func(s *fakeSpace) { s.mem[0x10000] = s.mem[0x10000][:32] }},
		{"torn NT header", func(s *fakeSpace) { s.mem[0x10000] = s.mem[0x10000][:0x100] }},
		{"bad DOS magic", func(s *fakeSpace) { s.mem[0x10000] = make([]byte, 0x1000) }},
		{"bad NT signature", func(s *fakeSpace) {
			b := image(4096)
			b[0x80] = 'X'
			s.mem[0x10000] = b
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := twoModuleSpace()
			tt.mutate(s)
			mods, err := ListModules(s)
			require.NoError(t, err)
			require.Len(t, mods, 1)
			assert.Equal(t, va.Address(0x20000), mods[0].BaseAddress)
		})
	}
}

func TestModulesQueryFailure(t *testing.T) {
	s := twoModuleSpace()
	s.queryErr = map[va.Address]error{0x20000: errors.New("access is denied")}

	mods, err := ListModules(s)
	require.Error(t, err)
	assert.True(t, errs.IsReadFailure(err))
	require.Len(t, mods, 1)
	assert.Equal(t, va.Address(0x10000), mods[0].BaseAddress)
}

func TestModulesEarlyBreak(t *testing.T) {
	s := twoModuleSpace()
	for range Modules(s) {
		break
	}
	assert.LessOrEqual(t, s.queries, 2)
}

func TestFindModule(t *testing.T) {
	s := twoModuleSpace()

	var tests = []struct {
		name  string
		find  func() (Module, bool, error)
		found bool
		base  va.Address
	}{
		{"base name", func() (Module, bool, error) { return FindModule(s, "b.DLL") }, true, 0x20000},
		{"device path", func() (Module, bool, error) {
			return FindModuleByPath(s, `\device\harddiskvolume1\a.dll`)
		}, true, 0x10000},
		{"missing", func() (Module, bool, error) { return FindModule(s, "kernel32.dll") }, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, ok, err := tt.find()
			require.NoError(t, err)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.base, mod.BaseAddress)
		})
	}
}
