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

package symbolize

import (
	"sync"

	"github.com/rabbitstack/procinject/pkg/pe"
	"github.com/rabbitstack/procinject/pkg/util/va"
)

// peImage reports export RVAs as local addresses relative to
// the zero base, so the delta is the RVA itself.
type peImage struct {
	exports *pe.Exports
}

func (i *peImage) Base() va.Address { return 0 }

func (i *peImage) ProcAddress(name string) (va.Address, error) {
	rva, err := i.exports.Lookup(name)
	if err != nil {
		return 0, err
	}
	return va.Address(rva), nil
}

func (i *peImage) Close() error { return nil }

// PEImageLoader resolves exports by parsing the export directory of
// the module file instead of mapping it into the current process. It
// works for images the current process can't load, such as modules of
// a different architecture. Parsed export directories are cached by path.
type PEImageLoader struct {
	sync.RWMutex
	exports map[string]*pe.Exports
}

// NewPEImageLoader returns a fresh instance of the export directory parsing loader.
func NewPEImageLoader() *PEImageLoader {
	return &PEImageLoader{exports: make(map[string]*pe.Exports)}
}

// Load returns the image with the export directory of the module at path.
func (l *PEImageLoader) Load(path string) (Image, error) {
	l.RLock()
	exports, ok := l.exports[path]
	l.RUnlock()
	if ok {
		return &peImage{exports: exports}, nil
	}
	exports, err := pe.ParseExports(path)
	if err != nil {
		return nil, err
	}
	l.Lock()
	defer l.Unlock()
	l.exports[path] = exports
	return &peImage{exports: exports}, nil
}

// Clear removes all module exports from the cache.
func (l *PEImageLoader) Clear() {
	l.Lock()
	defer l.Unlock()
	l.exports = make(map[string]*pe.Exports)
}
