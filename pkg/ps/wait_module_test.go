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
	"context"
	"testing"
	"time"

	"github.com/rabbitstack/procinject/pkg/util/va"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lateSpace maps kernel32 after a number of walks.
type lateSpace struct {
	*fakeSpace
	walks int
	after int
}

func (s *lateSpace) Query(addr va.Address) (va.Region, error) {
	if addr == 0 {
		s.walks++
		if s.walks == s.after {
			s.files[0x20000] = `\Device\HarddiskVolume1\Windows\System32\KERNEL32.DLL`
		}
	}
	return s.fakeSpace.Query(addr)
}

func TestWaitForModule(t *testing.T) {
	s := &lateSpace{fakeSpace: twoModuleSpace(), after: 3}
	mod, err := WaitForModule(context.Background(), s, Kernel32, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, va.Address(0x20000), mod.BaseAddress)
	assert.Equal(t, 3, s.walks)
}

func TestWaitForModuleTimeout(t *testing.T) {
	s := &lateSpace{fakeSpace: twoModuleSpace(), after: -1}
	_, err := WaitForModule(context.Background(), s, Kernel32, 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), Kernel32)
}

func TestWaitForModuleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &lateSpace{fakeSpace: twoModuleSpace(), after: -1}
	_, err := WaitForModule(ctx, s, Kernel32, time.Minute)
	require.Error(t, err)
}

func TestWaitForModuleSingleAttempt(t *testing.T) {
	var tests = []struct {
		name    string
		after   int
		timeout time.Duration
		found   bool
	}{
		{"zero timeout missing", -1, 0, false},
		{"negative timeout missing", -1, -time.Second, false},
		{"zero timeout mapped", 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &lateSpace{fakeSpace: twoModuleSpace(), after: tt.after}
			mod, err := WaitForModule(context.Background(), s, Kernel32, tt.timeout)
			assert.Equal(t, 1, s.walks)
			if !tt.found {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, va.Address(0x20000), mod.BaseAddress)
		})
	}
}
