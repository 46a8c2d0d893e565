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
	"time"

	"github.com/pkg/errors"
	errs "github.com/rabbitstack/procinject/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/handle"
	log "github.com/sirupsen/logrus"
)

// threadOps are the OS primitives for controlling a thread.
type threadOps interface {
	resume(h uintptr) (uint32, error)
	wait(h uintptr, timeout time.Duration) (WaitResult, error)
	exitCode(h uintptr) (uint32, error)
}

// Thread is an exclusively owned thread handle.
type Thread struct {
	tid    uint32
	handle *handle.Handle
	ops    threadOps
}

func newThread(tid uint32, h *handle.Handle, ops threadOps) *Thread {
	return &Thread{tid: tid, handle: h, ops: ops}
}

// Tid returns the thread identifier.
func (t *Thread) Tid() uint32 { return t.tid }

// Resume decrements the suspend count of the thread and returns the previous count.
func (t *Thread) Resume() (uint32, error) {
	if !t.handle.IsValid() {
		return 0, errors.Wrapf(errs.ErrProcessClosed, "thread %d", t.tid)
	}
	n, err := t.ops.resume(t.handle.Raw())
	if err != nil {
		return 0, errors.Wrapf(err, "unable to resume thread %d", t.tid)
	}
	return n, nil
}

// Wait blocks until the thread exits or the timeout elapses.
func (t *Thread) Wait(timeout time.Duration) (WaitResult, error) {
	if !t.handle.IsValid() {
		return WaitTimeout, errors.Wrapf(errs.ErrProcessClosed, "thread %d", t.tid)
	}
	res, err := t.ops.wait(t.handle.Raw(), timeout)
	if err != nil {
		return res, errors.Wrapf(err, "unable to wait for thread %d", t.tid)
	}
	return res, nil
}

// ExitCode returns the exit code of the terminated thread.
func (t *Thread) ExitCode() (uint32, error) {
	if !t.handle.IsValid() {
		return 0, errors.Wrapf(errs.ErrProcessClosed, "thread %d", t.tid)
	}
	return t.ops.exitCode(t.handle.Raw())
}

// Close releases the thread handle.
func (t *Thread) Close() {
	if err := t.handle.Close(); err != nil {
		log.Debugf("unable to close handle of thread %d: %v", t.tid, err)
	}
}

// ProcessWithThread is a launched process together with its primary thread.
type ProcessWithThread struct {
	*Process
	Thread *Thread
}

// Close releases the thread and the process handles.
func (p *ProcessWithThread) Close() {
	if p.Thread != nil {
		p.Thread.Close()
	}
	p.Process.Close()
}
