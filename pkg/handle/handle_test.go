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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeCounter struct {
	calls  int
	values []uintptr
	err    error
}

func (c *closeCounter) close(h uintptr) error {
	c.calls++
	c.values = append(c.values, h)
	return c.err
}

func TestHandleClose(t *testing.T) {
	var tests = []struct {
		name  string
		raw   uintptr
		calls int
		valid bool
	}{
		{"valid handle", 0x1a4, 1, true},
		{"null handle", 0, 0, false},
		{"invalid handle value", ^uintptr(0), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &closeCounter{}
			h := New(tt.raw, c.close)
			assert.Equal(t, tt.valid, h.IsValid())
			require.NoError(t, h.Close())
			require.NoError(t, h.Close())
			assert.Equal(t, tt.calls, c.calls)
			assert.False(t, h.IsValid())
			assert.Equal(t, uintptr(0), h.Raw())
		})
	}
}

func TestSharedCloseInvalidHandle(t *testing.T) {
	c := &closeCounter{}
	owner := NewShared(New(^uintptr(0), c.close))
	other := owner.Acquire()
	assert.Equal(t, ^uintptr(0), other.Raw())

	require.NoError(t, owner.Release())
	require.NoError(t, other.Release())
	assert.Equal(t, 0, c.calls)
	assert.Equal(t, uintptr(0), other.Raw())
	assert.Equal(t, uintptr(0), other.s.h.Raw())
}

func TestHandleCloseError(t *testing.T) {
	c := &closeCounter{err: errors.New("invalid handle")}
	h := New(0x20, c.close)
	require.Error(t, h.Close())
	// the handle is considered released even if the OS rejected the close
	require.NoError(t, h.Close())
	assert.Equal(t, 1, c.calls)
}

func TestSharedRelease(t *testing.T) {
	c := &closeCounter{}
	owner := NewShared(New(0x44, c.close))
	other := owner.Acquire()
	third := other.Acquire()

	assert.Equal(t, int32(3), owner.Refs())
	assert.Equal(t, uintptr(0x44), third.Raw())

	require.NoError(t, owner.Release())
	// double release from the same owner doesn't drop other references
	require.NoError(t, owner.Release())
	assert.Equal(t, int32(2), other.Refs())
	assert.Equal(t, uintptr(0), owner.Raw())
	assert.Equal(t, uintptr(0x44), other.Raw())

	require.NoError(t, other.Release())
	assert.Equal(t, 0, c.calls)

	require.NoError(t, third.Release())
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, []uintptr{0x44}, c.values)
}
