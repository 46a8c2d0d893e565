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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrProcessClosed is returned when an operation is attempted on a process handle that was already closed or killed.
	ErrProcessClosed = errors.New("process handle is closed")
	// ErrSpaceMismatch is returned when address arithmetic is attempted between two different address spaces.
	ErrSpaceMismatch = errors.New("addresses belong to different address spaces")
	// ErrExportForwarded signals the export is forwarded to another module and has no code in the image.
	ErrExportForwarded = errors.New("export is forwarded")
)

// OpenFailure is returned when a handle or a resource can't be acquired.
type OpenFailure struct {
	// Op is the operation that failed (e.g. OpenProcess)
	Op string
	// Pid is the identifier of the subject process. Zero if not applicable.
	Pid uint32
	// Err is the underlying native error.
	Err error
}

func (e *OpenFailure) Error() string {
	if e.Pid != 0 {
		return fmt.Sprintf("%s failed for pid %d: %v", e.Op, e.Pid, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OpenFailure) Unwrap() error { return e.Err }

// ResolutionFailure is returned when a path, symbol, or privilege lookup yields nothing.
type ResolutionFailure struct {
	// Op is the lookup step that failed.
	Op string
	// Name is the subject of the lookup, such as the export or privilege name.
	Name string
	Err  error
}

func (e *ResolutionFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: couldn't resolve %q", e.Op, e.Name)
	}
	return fmt.Sprintf("%s: couldn't resolve %q: %v", e.Op, e.Name, e.Err)
}

func (e *ResolutionFailure) Unwrap() error { return e.Err }

// ReadFailure is returned when a cross-process memory read is rejected or incomplete.
type ReadFailure struct {
	Op   string
	Pid  uint32
	Addr uint64
	// Want is the number of bytes requested.
	Want int
	// Got is the number of bytes actually transferred.
	Got int
	Err error
}

func (e *ReadFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s at 0x%x in pid %d: read %d of %d bytes", e.Op, e.Addr, e.Pid, e.Got, e.Want)
	}
	return fmt.Sprintf("%s at 0x%x in pid %d: read %d of %d bytes: %v", e.Op, e.Addr, e.Pid, e.Got, e.Want, e.Err)
}

func (e *ReadFailure) Unwrap() error { return e.Err }

// WaitFailure is returned when the blocking wait on a foreign process fails. A timeout is not a failure.
type WaitFailure struct {
	Pid uint32
	Err error
}

func (e *WaitFailure) Error() string {
	return fmt.Sprintf("wait failed for pid %d: %v", e.Pid, e.Err)
}

func (e *WaitFailure) Unwrap() error { return e.Err }

// IsOpenFailure returns true if the error chain contains OpenFailure.
func IsOpenFailure(err error) bool {
	var e *OpenFailure
	return errors.As(err, &e)
}

// IsResolutionFailure returns true if the error chain contains ResolutionFailure.
func IsResolutionFailure(err error) bool {
	var e *ResolutionFailure
	return errors.As(err, &e)
}

// IsReadFailure returns true if the error chain contains ReadFailure.
func IsReadFailure(err error) bool {
	var e *ReadFailure
	return errors.As(err, &e)
}

// IsWaitFailure returns true if the error chain contains WaitFailure.
func IsWaitFailure(err error) bool {
	var e *WaitFailure
	return errors.As(err, &e)
}

// IsProcessClosed determines if the error signals a closed process handle.
func IsProcessClosed(err error) bool { return errors.Is(err, ErrProcessClosed) }
