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
	"time"

	"github.com/pkg/errors"
	errs "github.com/rabbitstack/procinject/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/handle"
	fsm "github.com/qmuntal/stateless"
	log "github.com/sirupsen/logrus"
)

// Infinite makes Wait block until the process exits.
const Infinite time.Duration = -1

// infiniteMillis is the wait interval that never elapses.
const infiniteMillis uint32 = 0xffffffff

// millis converts the timeout to the wait interval in milliseconds.
// Partial milliseconds round up and intervals that don't fit saturate
// right below infiniteMillis.
func millis(timeout time.Duration) uint32 {
	if timeout < 0 {
		return infiniteMillis
	}
	ms := timeout / time.Millisecond
	if timeout%time.Millisecond != 0 {
		ms++
	}
	if ms >= time.Duration(infiniteMillis) {
		return infiniteMillis - 1
	}
	return uint32(ms)
}

// WaitResult is the outcome of waiting on a process or thread.
type WaitResult uint8

const (
	// WaitSignaled means the object was signaled. For processes and threads this means they exited.
	WaitSignaled WaitResult = iota
	// WaitTimeout means the interval elapsed and the object is not signaled.
	WaitTimeout
	// WaitAbandoned means the wait was satisfied by an abandoned mutex.
	WaitAbandoned
)

func (w WaitResult) String() string {
	switch w {
	case WaitSignaled:
		return "signaled"
	case WaitTimeout:
		return "timeout"
	case WaitAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

const (
	stateUnopened  = "unopened"
	stateRunning   = "running"
	stateSuspended = "suspended"
	stateClosed    = "closed"
)

const (
	triggerOpen    = "open"
	triggerSuspend = "suspend"
	triggerResume  = "resume"
	triggerKill    = "kill"
	triggerClose   = "close"
)

// processOps are the OS primitives the process lifecycle is built on.
// Each of them receives the raw process handle.
type processOps interface {
	suspend(h uintptr) error
	resume(h uintptr) error
	terminate(h uintptr, exitCode uint32) error
	wait(h uintptr, timeout time.Duration) (WaitResult, error)
}

// Process is an opened or launched foreign process. The OS handle may
// be shared between several owners. Each owner must call Close.
type Process struct {
	pid           uint32
	handle        *handle.Shared
	ops           processOps
	sm            *fsm.StateMachine
	resumeOnClose bool
}

func newStateMachine(initial string) *fsm.StateMachine {
	sm := fsm.NewStateMachine(initial)
	sm.Configure(stateUnopened).
		Permit(triggerOpen, stateRunning).
		Permit(triggerSuspend, stateSuspended).
		Permit(triggerClose, stateClosed)
	sm.Configure(stateRunning).
		Permit(triggerSuspend, stateSuspended).
		PermitReentry(triggerResume).
		Permit(triggerKill, stateClosed).
		Permit(triggerClose, stateClosed)
	sm.Configure(stateSuspended).
		PermitReentry(triggerSuspend).
		Permit(triggerResume, stateRunning).
		Permit(triggerKill, stateClosed).
		Permit(triggerClose, stateClosed)
	sm.Configure(stateClosed)
	return sm
}

func newProcess(pid uint32, h *handle.Shared, ops processOps, suspended bool) *Process {
	p := &Process{
		pid:    pid,
		handle: h,
		ops:    ops,
		sm:     newStateMachine(stateUnopened),
	}
	trigger := triggerOpen
	if suspended {
		trigger = triggerSuspend
	}
	p.fire(trigger)
	return p
}

// opener acquires the OS handle of the process with the requested access.
type opener func(pid uint32, access Access) (*handle.Handle, error)

// open acquires the process handle. No handle is created on failure.
func open(pid uint32, access Access, fn opener, ops processOps) (*Process, error) {
	h, err := fn(pid, access)
	if err != nil {
		return nil, &errs.OpenFailure{Op: "OpenProcess", Pid: pid, Err: errors.Wrapf(err, "access %s", access)}
	}
	if !h.IsValid() {
		return nil, &errs.OpenFailure{Op: "OpenProcess", Pid: pid, Err: errors.New("null process handle")}
	}
	return newProcess(pid, handle.NewShared(h), ops, false), nil
}

func (p *Process) fire(trigger string) {
	if err := p.sm.Fire(trigger); err != nil {
		log.Debugf("pid %d: %s in state %v: %v", p.pid, trigger, p.sm.MustState(), err)
	}
}

func (p *Process) state() string { return p.sm.MustState().(string) }

func (p *Process) checkOpen() error {
	if p.state() == stateClosed {
		return errors.Wrapf(errs.ErrProcessClosed, "pid %d", p.pid)
	}
	return nil
}

// Pid returns the process identifier.
func (p *Process) Pid() uint32 { return p.pid }

// State returns the current lifecycle state of this owner.
func (p *Process) State() string { return p.state() }

// IsSuspended returns true if the process was suspended through this owner.
func (p *Process) IsSuspended() bool { return p.state() == stateSuspended }

// IsClosed returns true if this owner was closed or the process was killed.
func (p *Process) IsClosed() bool { return p.state() == stateClosed }

// Handle returns the raw process handle.
func (p *Process) Handle() uintptr { return p.handle.Raw() }

// SuspendResume suspends all threads of the process if suspend is true
// or resumes them otherwise.
func (p *Process) SuspendResume(suspend bool) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	if suspend {
		if err := p.ops.suspend(p.handle.Raw()); err != nil {
			return errors.Wrapf(err, "unable to suspend process %d", p.pid)
		}
		p.fire(triggerSuspend)
		return nil
	}
	if err := p.ops.resume(p.handle.Raw()); err != nil {
		return errors.Wrapf(err, "unable to resume process %d", p.pid)
	}
	p.fire(triggerResume)
	return nil
}

// Suspend suspends all threads of the process.
func (p *Process) Suspend() error { return p.SuspendResume(true) }

// Resume resumes all threads of the process.
func (p *Process) Resume() error { return p.SuspendResume(false) }

// Kill terminates the process with the given exit code. The handle
// owned by this Process is released on success.
func (p *Process) Kill(exitCode uint32) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	if err := p.ops.terminate(p.handle.Raw(), exitCode); err != nil {
		return errors.Wrapf(err, "error killing process %d", p.pid)
	}
	p.resumeOnClose = false
	p.release()
	p.fire(triggerKill)
	return nil
}

// Wait blocks until the process exits or the timeout elapses.
// Pass Infinite to wait without a timeout.
func (p *Process) Wait(timeout time.Duration) (WaitResult, error) {
	if err := p.checkOpen(); err != nil {
		return WaitTimeout, err
	}
	res, err := p.ops.wait(p.handle.Raw(), timeout)
	if err != nil {
		return res, &errs.WaitFailure{Pid: p.pid, Err: err}
	}
	return res, nil
}

// WaitContext is like Wait but gives up when the context is done. The
// process is polled with the given interval.
func (p *Process) WaitContext(ctx context.Context, interval time.Duration) (WaitResult, error) {
	for {
		res, err := p.Wait(interval)
		if err != nil || res != WaitTimeout {
			return res, err
		}
		select {
		case <-ctx.Done():
			return WaitTimeout, ctx.Err()
		default:
		}
	}
}

// TryResumeOnDestruction makes Close resume the process before releasing
// the handle. It is used when the process was suspended to be modified
// and must be restored afterwards.
func (p *Process) TryResumeOnDestruction(resume bool) { p.resumeOnClose = resume }

// Share returns another owner of the same process handle. The owner has
// its own lifecycle and must be closed independently.
func (p *Process) Share() (*Process, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	return &Process{
		pid:    p.pid,
		handle: p.handle.Acquire(),
		ops:    p.ops,
		sm:     newStateMachine(p.state()),
	}, nil
}

// bestEffortResume resumes the process on teardown. Its failures
// are logged and never reach the caller.
func (p *Process) bestEffortResume() {
	if err := p.ops.resume(p.handle.Raw()); err != nil {
		log.Debugf("unable to resume process %d on close: %v", p.pid, err)
	}
}

func (p *Process) release() {
	if err := p.handle.Release(); err != nil {
		log.Debugf("unable to close handle of process %d: %v", p.pid, err)
	}
}

// Close releases this owner of the process handle. If resume on destruction
// was requested, the process is resumed first. Close is idempotent.
func (p *Process) Close() {
	if p.state() == stateClosed {
		return
	}
	if p.resumeOnClose {
		p.bestEffortResume()
	}
	p.release()
	p.fire(triggerClose)
}
