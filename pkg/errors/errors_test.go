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
	"syscall"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureClassification(t *testing.T) {
	var tests = []struct {
		name     string
		err      error
		open     bool
		resolve  bool
		read     bool
		wait     bool
		contains string
	}{
		{
			"open failure",
			&OpenFailure{Op: "OpenProcess", Pid: 1234, Err: syscall.Errno(5)},
			true, false, false, false,
			"OpenProcess failed for pid 1234",
		},
		{
			"wrapped resolution failure",
			pkgerrors.Wrap(&ResolutionFailure{Op: "GetProcAddress", Name: "LoadLibraryW"}, "inject"),
			false, true, false, false,
			`couldn't resolve "LoadLibraryW"`,
		},
		{
			"incomplete read",
			&ReadFailure{Op: "ReadProcessMemory", Pid: 4, Addr: 0x10000, Want: 64, Got: 12},
			false, false, true, false,
			"read 12 of 64 bytes",
		},
		{
			"wait failure",
			&WaitFailure{Pid: 88, Err: syscall.Errno(6)},
			false, false, false, true,
			"wait failed for pid 88",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.open, IsOpenFailure(tt.err))
			assert.Equal(t, tt.resolve, IsResolutionFailure(tt.err))
			assert.Equal(t, tt.read, IsReadFailure(tt.err))
			assert.Equal(t, tt.wait, IsWaitFailure(tt.err))
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}

func TestNativeErrnoPreserved(t *testing.T) {
	errno := syscall.Errno(5)
	err := pkgerrors.Wrapf(&OpenFailure{Op: "OpenProcess", Pid: 1234, Err: errno}, "open %d", 1234)
	require.True(t, errors.Is(err, errno))
	require.False(t, IsProcessClosed(err))
	require.True(t, IsProcessClosed(pkgerrors.Wrap(ErrProcessClosed, "suspend")))
}
