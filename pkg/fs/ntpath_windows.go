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
	"github.com/pkg/errors"
	errs "github.com/rabbitstack/procinject/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/sys"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// ResolveDevicePath returns the device path, e.g. \Device\HarddiskVolume2\Windows\System32\ntdll.dll,
// of the specified file. The OS only hands out that form for addresses backed by an active
// mapping, so the first page of the file is mapped into the current process and the path is
// queried for the view address. The file, mapping and view are released on every return path.
func ResolveDevicePath(path string) (string, error) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return "", &errs.ResolutionFailure{Op: "CreateFile", Name: path, Err: err}
	}
	f, err := windows.CreateFile(
		name,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return "", &errs.ResolutionFailure{Op: "CreateFile", Name: path, Err: err}
	}
	defer windows.CloseHandle(f)

	section, err := windows.CreateFileMapping(f, nil, windows.PAGE_READONLY, 0, 1, nil)
	if err != nil {
		return "", &errs.ResolutionFailure{Op: "CreateFileMapping", Name: path, Err: err}
	}
	defer windows.CloseHandle(section)

	view, err := windows.MapViewOfFile(section, windows.FILE_MAP_READ, 0, 0, 1)
	if err != nil {
		return "", &errs.ResolutionFailure{Op: "MapViewOfFile", Name: path, Err: err}
	}
	defer func() {
		if err := windows.UnmapViewOfFile(view); err != nil {
			log.Debugf("unable to unmap view of %s: %v", path, err)
		}
	}()

	dev, err := sys.GetMappedFileWithError(windows.CurrentProcess(), view)
	if err != nil {
		return "", &errs.ResolutionFailure{Op: "GetMappedFileName", Name: path, Err: errors.Wrapf(err, "view at %#x", view)}
	}
	return dev, nil
}
