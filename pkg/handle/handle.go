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
	"sync/atomic"
)

// invalidValue is the value of the INVALID_HANDLE_VALUE sentinel.
const invalidValue = ^uintptr(0)

// CloseFunc releases the raw OS handle.
type CloseFunc func(uintptr) error

// Handle is an exclusively owned OS handle (process, thread, token, file,
// file mapping). The handle is released exactly once. Calling Close on a
// null or invalid handle never reaches the release function.
type Handle struct {
	raw    uintptr
	close  CloseFunc
	closed atomic.Bool
}

// New wraps the raw handle value with the function that releases it.
func New(raw uintptr, close CloseFunc) *Handle {
	return &Handle{raw: raw, close: close}
}

// Raw returns the raw handle value or zero if the handle was closed.
func (h *Handle) Raw() uintptr {
	if h == nil || h.closed.Load() {
		return 0
	}
	return h.raw
}

// IsValid determines if the handle refers to an open OS object.
func (h *Handle) IsValid() bool {
	return h != nil && h.raw != 0 && h.raw != invalidValue && !h.closed.Load()
}

// Close disposes the underlying handle object. Subsequent calls are no-op.
func (h *Handle) Close() error {
	if h == nil || !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	if h.raw == 0 || h.raw == invalidValue || h.close == nil {
		return nil
	}
	return h.close(h.raw)
}

type shared struct {
	h    *Handle
	refs atomic.Int32
}

// Shared is a reference-counted owner of a Handle. Every owner obtained
// via Acquire must call Release. The underlying handle is closed when
// the last owner releases it.
type Shared struct {
	s        *shared
	released atomic.Bool
}

// NewShared makes h the shared handle with a single owner.
func NewShared(h *Handle) *Shared {
	s := &shared{h: h}
	s.refs.Store(1)
	return &Shared{s: s}
}

// Acquire registers a new owner of the same handle.
func (s *Shared) Acquire() *Shared {
	s.s.refs.Add(1)
	return &Shared{s: s.s}
}

// Raw returns the raw handle value. It yields zero for an owner that already released the handle.
func (s *Shared) Raw() uintptr {
	if s == nil || s.released.Load() {
		return 0
	}
	return s.s.h.Raw()
}

// Refs returns the number of live owners.
func (s *Shared) Refs() int32 { return s.s.refs.Load() }

// Release drops this owner's reference. Releasing twice from the same owner is a no-op.
func (s *Shared) Release() error {
	if s == nil || !s.released.CompareAndSwap(false, true) {
		return nil
	}
	if s.s.refs.Add(-1) == 0 {
		return s.s.h.Close()
	}
	return nil
}
