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

package fs

import (
	"strings"
)

const deviceOffset = 8

const (
	systemRoot = `\systemroot`
	vsmbPrefix = `\device\vmsmb\`
	vsmbOS     = `\os\`
)

// DevMapper is the minimal interface for the device converters.
type DevMapper interface {
	// Convert receives the fully qualified file path and replaces the DOS device name with a drive letter.
	Convert(filename string) string
}

type mapper struct {
	cache   map[string]string
	sysroot string
}

// NewDevMapperFromDrives builds the device converter from the given
// device to drive letter mappings. The sysroot path expands the
// \SystemRoot prefix seen in kernel module paths.
func NewDevMapperFromDrives(devices map[string]string, sysroot string) DevMapper {
	m := &mapper{
		cache:   make(map[string]string, len(devices)),
		sysroot: sysroot,
	}
	for dev, drive := range devices {
		m.cache[dev] = drive
	}
	return m
}

func (m *mapper) Convert(filename string) string {
	if filename == "" || len(filename) < deviceOffset {
		return filename
	}
	lower := strings.ToLower(filename)
	if m.sysroot != "" && strings.HasPrefix(lower, systemRoot) {
		return m.sysroot + filename[len(systemRoot):]
	}
	// container volumes are exposed through the virtual SMB share
	if m.sysroot != "" && strings.HasPrefix(lower, vsmbPrefix) {
		if i := strings.Index(lower, vsmbOS); i > 0 && len(m.sysroot) >= 2 {
			return m.sysroot[:2] + filename[i+len(vsmbOS)-1:]
		}
	}
	i := strings.Index(filename[deviceOffset:], "\\")
	if i < 0 {
		if f, ok := m.cache[filename]; ok {
			return f
		}
		return filename
	}
	dev := filename[:i+deviceOffset]
	if drive, ok := m.cache[dev]; ok {
		return strings.Replace(filename, dev, drive, 1)
	}
	return filename
}
