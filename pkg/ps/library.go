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
	"github.com/pkg/errors"
	errs "github.com/rabbitstack/procinject/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Library is the module injected into the target process.
type Library struct {
	// Path is the file system path of the module.
	Path string
	// Export is the optional function the injector calls once
	// the module is loaded. The function receives no argument.
	Export string
}

// Kernel32 is the system module hosting the loader entry points.
const Kernel32 = "kernel32.dll"

// loadLibraryExport is the loader function run in the target process.
const loadLibraryExport = "LoadLibraryW"

// loadedModule looks up the module the loader mapped from the device
// path. The loader's exit code holds only the low half of the module
// handle on 64-bit targets, so the address space walk decides whether
// the load succeeded.
func loadedModule(space AddressSpace, path string, code uint32) (Module, error) {
	mod, ok, err := FindModuleByPath(space, path)
	if err != nil {
		return Module{}, err
	}
	if !ok {
		return Module{}, &errs.ResolutionFailure{Op: loadLibraryExport, Name: path, Err: errors.Errorf("loader returned %#x in pid %d", code, space.Pid())}
	}
	if uint32(mod.BaseAddress) != code {
		log.Debugf("loader returned %#x for module based at %s", code, mod.BaseAddress)
	}
	return mod, nil
}
