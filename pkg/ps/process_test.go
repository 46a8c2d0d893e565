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
	"errors"
	"sync"
	"testing"
	"time"

	errs "github.com/rabbitstack/procinject/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/handle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOS is a process as observed by the OS. It tracks the suspend
// count and the exit status the way the kernel would.
type fakeOS struct {
	mu           sync.Mutex
	suspendCount int
	exited       bool
	exitCode     uint32
	resumeErr    error
	terminateErr error
	waitErr      error
	closes       []uintptr
}

func (f *fakeOS) suspend(h uintptr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suspendCount++
	return nil
}

func (f *fakeOS) resume(h uintptr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resumeErr != nil {
		return f.resumeErr
	}
	if f.suspendCount > 0 {
		f.suspendCount--
	}
	return nil
}

func (f *fakeOS) terminate(h uintptr, exitCode uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.terminateErr != nil {
		return f.terminateErr
	}
	f.exited = true
	f.exitCode = exitCode
	return nil
}

func (f *fakeOS) wait(h uintptr, timeout time.Duration) (WaitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.waitErr != nil {
		return WaitTimeout, f.waitErr
	}
	if f.exited {
		return WaitSignaled, nil
	}
	return WaitTimeout, nil
}

func (f *fakeOS) close(h uintptr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes = append(f.closes, h)
	return nil
}

func (f *fakeOS) isRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.exited && f.suspendCount == 0
}

func openFake(t *testing.T, f *fakeOS, pid uint32) *Process {
	p, err := open(pid, DefaultAccess, func(pid uint32, access Access) (*handle.Handle, error) {
		return handle.New(0x1a4, f.close), nil
	}, f)
	require.NoError(t, err)
	return p
}

func TestOpenRejectedAccess(t *testing.T) {
	f := &fakeOS{}
	var requested Access
	// the process security descriptor doesn't grant memory reads to the caller
	denyVMRead := func(pid uint32, access Access) (*handle.Handle, error) {
		requested = access
		if access.Has(AccessVMRead) {
			return nil, errors.New("access is denied")
		}
		return handle.New(0x1a4, f.close), nil
	}

	p, err := open(1234, DefaultAccess, denyVMRead, f)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, errs.IsOpenFailure(err))
	assert.Contains(t, err.Error(), "1234")
	assert.True(t, requested.Has(AccessVMRead))
	assert.Empty(t, f.closes)
}

func TestOpenNullHandle(t *testing.T) {
	f := &fakeOS{}
	p, err := open(1234, DefaultAccess, func(pid uint32, access Access) (*handle.Handle, error) {
		return handle.New(0, f.close), nil
	}, f)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, errs.IsOpenFailure(err))
	assert.Empty(t, f.closes)
}

func TestProcessLifecycle(t *testing.T) {
	var tests = []struct {
		name  string
		ops   func(p *Process) error
		state string
		count int
	}{
		{"open", func(p *Process) error { return nil }, stateRunning, 0},
		{"suspend", func(p *Process) error { return p.Suspend() }, stateSuspended, 1},
		{"suspend twice", func(p *Process) error {
			if err := p.Suspend(); err != nil {
				return err
			}
			return p.Suspend()
		}, stateSuspended, 2},
		{"suspend and resume", func(p *Process) error {
			if err := p.Suspend(); err != nil {
				return err
			}
			return p.Resume()
		}, stateRunning, 0},
		{"resume running", func(p *Process) error { return p.Resume() }, stateRunning, 0},
		{"suspend resume toggle", func(p *Process) error {
			if err := p.SuspendResume(true); err != nil {
				return err
			}
			return p.SuspendResume(false)
		}, stateRunning, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeOS{}
			p := openFake(t, f, 4242)
			require.NoError(t, tt.ops(p))
			assert.Equal(t, tt.state, p.State())
			assert.Equal(t, tt.count, f.suspendCount)
			p.Close()
			assert.True(t, p.IsClosed())
			assert.Equal(t, []uintptr{0x1a4}, f.closes)
		})
	}
}

func TestResumeOnDestruction(t *testing.T) {
	var tests = []struct {
		name      string
		resume    bool
		resumeErr error
		running   bool
	}{
		{"resume requested", true, nil, true},
		{"resume not requested", false, nil, false},
		{"resume fails silently", true, errors.New("access is denied"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeOS{}
			p := openFake(t, f, 4242)
			require.NoError(t, p.Suspend())
			p.TryResumeOnDestruction(tt.resume)
			f.resumeErr = tt.resumeErr

			assert.NotPanics(t, p.Close)
			assert.Equal(t, tt.running, f.isRunning())
			assert.Len(t, f.closes, 1)
		})
	}
}

func TestClosedProcessFailsFast(t *testing.T) {
	f := &fakeOS{}
	p := openFake(t, f, 4242)
	p.Close()
	p.Close()
	assert.Len(t, f.closes, 1)
	assert.Zero(t, p.Handle())

	var tests = []struct {
		name string
		op   func() error
	}{
		{"suspend", p.Suspend},
		{"resume", p.Resume},
		{"kill", func() error { return p.Kill(1) }},
		{"wait", func() error { _, err := p.Wait(time.Second); return err }},
		{"share", func() error { _, err := p.Share(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			require.Error(t, err)
			assert.True(t, errs.IsProcessClosed(err))
		})
	}
	assert.Zero(t, f.suspendCount)
}

func TestKill(t *testing.T) {
	f := &fakeOS{}
	p := openFake(t, f, 4242)
	require.NoError(t, p.Suspend())
	p.TryResumeOnDestruction(true)

	require.NoError(t, p.Kill(3))
	assert.True(t, p.IsClosed())
	assert.True(t, f.exited)
	assert.Equal(t, uint32(3), f.exitCode)
	assert.Len(t, f.closes, 1)

	p.Close()
	assert.Len(t, f.closes, 1)
	assert.Equal(t, 1, f.suspendCount)
}

func TestKillFailure(t *testing.T) {
	f := &fakeOS{terminateErr: errors.New("access is denied")}
	p := openFake(t, f, 4242)
	err := p.Kill(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4242")
	assert.Contains(t, err.Error(), "access is denied")
	assert.False(t, p.IsClosed())
	p.Close()
}

func TestWait(t *testing.T) {
	f := &fakeOS{}
	p := openFake(t, f, 4242)
	defer p.Close()

	res, err := p.Wait(10 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, WaitTimeout, res)

	f.exited = true
	res, err = p.Wait(Infinite)
	require.NoError(t, err)
	assert.Equal(t, WaitSignaled, res)

	f.waitErr = errors.New("invalid handle")
	_, err = p.Wait(Infinite)
	require.Error(t, err)
	assert.True(t, errs.IsWaitFailure(err))
}

func TestShare(t *testing.T) {
	f := &fakeOS{}
	p := openFake(t, f, 4242)
	require.NoError(t, p.Suspend())

	owner, err := p.Share()
	require.NoError(t, err)
	assert.Equal(t, p.Pid(), owner.Pid())
	assert.Equal(t, p.Handle(), owner.Handle())
	assert.True(t, owner.IsSuspended())

	p.Close()
	assert.Empty(t, f.closes)
	assert.NotZero(t, owner.Handle())
	require.NoError(t, owner.Resume())

	owner.Close()
	assert.Equal(t, []uintptr{0x1a4}, f.closes)
}

func TestProcessWithThreadClose(t *testing.T) {
	f := &fakeOS{}
	p := &ProcessWithThread{
		Process: newProcess(4242, handle.NewShared(handle.New(0x1a4, f.close)), f, true),
		Thread:  newThread(4243, handle.New(0x1a8, f.close), nil),
	}
	assert.True(t, p.IsSuspended())
	p.TryResumeOnDestruction(true)
	f.suspendCount = 1

	p.Close()
	assert.ElementsMatch(t, []uintptr{0x1a4, 0x1a8}, f.closes)
	assert.True(t, f.isRunning())
}

func TestWaitResultString(t *testing.T) {
	assert.Equal(t, "signaled", WaitSignaled.String())
	assert.Equal(t, "timeout", WaitTimeout.String())
	assert.Equal(t, "abandoned", WaitAbandoned.String())
}

func TestMillis(t *testing.T) {
	var tests = []struct {
		name    string
		timeout time.Duration
		ms      uint32
	}{
		{"infinite", Infinite, infiniteMillis},
		{"negative", -time.Second, infiniteMillis},
		{"zero", 0, 0},
		{"sub millisecond", 300 * time.Microsecond, 1},
		{"partial millisecond", 1500 * time.Microsecond, 2},
		{"whole seconds", 2 * time.Second, 2000},
		{"fifty days", 50 * 24 * time.Hour, infiniteMillis - 1},
		{"max duration", time.Duration(1<<63 - 1), infiniteMillis - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ms, millis(tt.timeout))
		})
	}
}
