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
	"golang.org/x/sys/windows"

	"github.com/rabbitstack/procinject/pkg/util/va"
)

// nativeImage is the module mapped into the current process
// with DONT_RESOLVE_DLL_REFERENCES. Neither the entry point
// nor the imports of the module are processed.
type nativeImage struct {
	mod windows.Handle
}

func (i *nativeImage) Base() va.Address { return va.Address(i.mod) }

func (i *nativeImage) ProcAddress(name string) (va.Address, error) {
	proc, err := windows.GetProcAddress(i.mod, name)
	if err != nil {
		return 0, err
	}
	return va.Address(proc), nil
}

func (i *nativeImage) Close() error { return windows.FreeLibrary(i.mod) }

// NativeLoader loads images with the OS loader.
type NativeLoader struct{}

// Load maps the module at path into the current process.
func (NativeLoader) Load(path string) (Image, error) {
	mod, err := windows.LoadLibraryEx(path, 0, windows.DONT_RESOLVE_DLL_REFERENCES)
	if err != nil {
		return nil, err
	}
	return &nativeImage{mod: mod}, nil
}

func newNativeLoader() (ImageLoader, error) { return NativeLoader{}, nil }
