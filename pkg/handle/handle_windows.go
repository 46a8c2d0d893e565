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

package handle

import (
	"golang.org/x/sys/windows"
)

// Wrap makes an exclusively owned handle from the Windows handle.
func Wrap(h windows.Handle) *Handle {
	return New(uintptr(h), closeHandle)
}

func closeHandle(h uintptr) error {
	return windows.CloseHandle(windows.Handle(h))
}

// Windows returns the handle as the Windows handle type.
func (h *Handle) Windows() windows.Handle { return windows.Handle(h.Raw()) }

// Windows returns the shared handle as the Windows handle type.
func (s *Shared) Windows() windows.Handle { return windows.Handle(s.Raw()) }
