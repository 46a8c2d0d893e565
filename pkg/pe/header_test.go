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

package pe

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// synthesizeHeaders builds the DOS header and the NT headers
// of a minimal image as they would be read from process memory.
func synthesizeHeaders(is64 bool, lfanew uint32, sizeOfImage uint32, imageBase uint64) ([]byte, []byte) {
	dos := make([]byte, DOSHeaderSize)
	dos[0], dos[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(dos[0x3c:], lfanew)

	nt := make([]byte, NTHeadersSize)
	copy(nt, "PE\x00\x00")
	fh := nt[4:24]
	oh := nt[24:]
	if is64 {
		binary.LittleEndian.PutUint16(fh[0:], 0x8664)
		binary.LittleEndian.PutUint16(fh[16:], 240)
		binary.LittleEndian.PutUint16(oh[0:], 0x20b)
		binary.LittleEndian.PutUint64(oh[24:], imageBase)
		binary.LittleEndian.PutUint32(oh[108:], 16)
	} else {
		binary.LittleEndian.PutUint16(fh[0:], 0x14c)
		binary.LittleEndian.PutUint16(fh[16:], 224)
		binary.LittleEndian.PutUint16(oh[0:], 0x10b)
		binary.LittleEndian.PutUint32(oh[28:], uint32(imageBase))
		binary.LittleEndian.PutUint32(oh[92:], 16)
	}
	binary.LittleEndian.PutUint16(fh[2:], 1)
	binary.LittleEndian.PutUint16(fh[18:], 0x2022)
	binary.LittleEndian.PutUint32(oh[16:], 0x1000)
	binary.LittleEndian.PutUint32(oh[32:], 0x1000)
	binary.LittleEndian.PutUint32(oh[36:], 0x200)
	binary.LittleEndian.PutUint32(oh[56:], sizeOfImage)
	binary.LittleEndian.PutUint32(oh[60:], 0x400)
	return dos, nt
}

func TestExtendedHeaderOffset(t *testing.T) {
	valid, _ := synthesizeHeaders(true, 0x80, 0x1000, 0x10000)
	zm := append([]byte{}, valid...)
	zm[0], zm[1] = 'Z', 'M'
	bad := append([]byte{}, valid...)
	bad[0] = 0
	far := append([]byte{}, valid...)
	binary.LittleEndian.PutUint32(far[0x3c:], MaxExtendedHeaderOffset+1)

	var tests = []struct {
		name   string
		dos    []byte
		lfanew uint32
		err    error
	}{
		{"valid", valid, 0x80, nil},
		{"ZM signature", zm, 0x80, nil},
		{"bad magic", bad, 0, ErrDOSMagic},
		{"short header", valid[:32], 0, ErrDOSMagic},
		{"offset out of page", far, 0, ErrExtendedHeaderOffset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lfanew, err := ExtendedHeaderOffset(tt.dos)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lfanew, lfanew)
		})
	}
}

func TestParseImageHeader(t *testing.T) {
	var tests = []struct {
		name        string
		is64        bool
		lfanew      uint32
		sizeOfImage uint32
		imageBase   uint64
		machine     uint16
	}{
		{"PE32+", true, 0x80, 0x2000, 0x180000000, 0x8664},
		{"PE32", false, 0xf0, 0x1000, 0x400000, 0x14c},
		{"NT headers follow DOS header", true, 0x40, 0x5000, 0x10000, 0x8664},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dos, nt := synthesizeHeaders(tt.is64, tt.lfanew, tt.sizeOfImage, tt.imageBase)
			hdr, err := ParseImageHeader(dos, nt)
			require.NoError(t, err)
			assert.Equal(t, tt.is64, hdr.Is64)
			assert.Equal(t, tt.sizeOfImage, hdr.SizeOfImage)
			assert.Equal(t, tt.imageBase, hdr.ImageBase)
			assert.Equal(t, tt.machine, hdr.Machine)
			assert.Equal(t, uint32(0x1000), hdr.EntryPoint)
			assert.True(t, hdr.IsDLL())
		})
	}
}

func TestParseImageHeaderCorrupted(t *testing.T) {
	dos, nt := synthesizeHeaders(true, 0x80, 0x1000, 0x10000)
	nt[0] = 'X'
	_, err := ParseImageHeader(dos, nt)
	require.Error(t, err)

	_, err = ParseImageHeader(make([]byte, DOSHeaderSize), nt)
	require.ErrorIs(t, err, ErrDOSMagic)
}
