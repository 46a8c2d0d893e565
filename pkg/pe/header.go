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
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	peparser "github.com/saferwall/pe"
)

const (
	// DOSHeaderSize is the size of the legacy MS-DOS header.
	DOSHeaderSize = 64
	// NTHeadersSize is the size of the PE signature, the file header and the
	// 64-bit optional header including its data directories. The 32-bit optional
	// header is shorter, so reading this many bytes covers both layouts.
	NTHeadersSize = 4 + 20 + 240
	// MaxExtendedHeaderOffset bounds e_lfanew values accepted from foreign memory.
	MaxExtendedHeaderOffset = 0x1000

	imageFileDLL = 0x2000
)

var (
	// ErrDOSMagic is returned when the buffer doesn't start with the MZ signature.
	ErrDOSMagic = errors.New("DOS header magic not found")
	// ErrExtendedHeaderOffset is returned when e_lfanew points outside the header page.
	ErrExtendedHeaderOffset = errors.New("invalid extended header offset")
)

// ImageHeader contains the subset of the DOS and NT headers
// describing how the image is laid out in memory.
type ImageHeader struct {
	Is64             bool
	Machine          uint16
	Characteristics  uint16
	NumberOfSections uint16
	SizeOfImage      uint32
	SizeOfHeaders    uint32
	EntryPoint       uint32
	ImageBase        uint64
}

// IsDLL determines if the image is a dynamic link library.
func (h ImageHeader) IsDLL() bool {
	return h.Characteristics&imageFileDLL != 0
}

// ExtendedHeaderOffset decodes the DOS header and returns the
// e_lfanew field pointing to the NT headers.
func ExtendedHeaderOffset(dos []byte) (uint32, error) {
	if len(dos) < DOSHeaderSize {
		return 0, errors.Wrapf(ErrDOSMagic, "short DOS header (%d bytes)", len(dos))
	}
	var hdr peparser.ImageDOSHeader
	if err := binary.Read(bytes.NewReader(dos[:DOSHeaderSize]), binary.LittleEndian, &hdr); err != nil {
		return 0, err
	}
	if hdr.Magic != uint16(peparser.ImageDOSSignature) && hdr.Magic != uint16(peparser.ImageDOSZMSignature) {
		return 0, ErrDOSMagic
	}
	lfanew := hdr.AddressOfNewEXEHeader
	if lfanew < 4 || lfanew > MaxExtendedHeaderOffset {
		return 0, errors.Wrapf(ErrExtendedHeaderOffset, "e_lfanew=%#x", lfanew)
	}
	return lfanew, nil
}

// ParseImageHeader decodes the image header from the DOS header bytes and
// the NT header bytes that were read at the e_lfanew offset. The two parts
// usually come from separate reads of a foreign address space.
func ParseImageHeader(dos, nt []byte) (*ImageHeader, error) {
	lfanew, err := ExtendedHeaderOffset(dos)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, int(lfanew)+len(nt))
	copy(buf, dos)
	copy(buf[lfanew:], nt)

	pe, err := peparser.NewBytes(buf, newParserOpts())
	if err != nil {
		return nil, err
	}
	// parse the DOS header
	if err := pe.ParseDOSHeader(); err != nil {
		return nil, errors.Wrap(err, "DOS header")
	}
	// parse the NT header
	if err := pe.ParseNTHeader(); err != nil {
		return nil, errors.Wrap(err, "NT header")
	}

	h := &ImageHeader{
		Is64:             pe.Is64,
		Machine:          uint16(pe.NtHeader.FileHeader.Machine),
		Characteristics:  uint16(pe.NtHeader.FileHeader.Characteristics),
		NumberOfSections: pe.NtHeader.FileHeader.NumberOfSections,
	}
	switch oh := pe.NtHeader.OptionalHeader.(type) {
	case peparser.ImageOptionalHeader64:
		h.SizeOfImage = oh.SizeOfImage
		h.SizeOfHeaders = oh.SizeOfHeaders
		h.EntryPoint = oh.AddressOfEntryPoint
		h.ImageBase = oh.ImageBase
	case peparser.ImageOptionalHeader32:
		h.SizeOfImage = oh.SizeOfImage
		h.SizeOfHeaders = oh.SizeOfHeaders
		h.EntryPoint = oh.AddressOfEntryPoint
		h.ImageBase = uint64(oh.ImageBase)
	default:
		return nil, errors.New("unknown optional header layout")
	}
	return h, nil
}
