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
	"strings"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	errs "github.com/rabbitstack/procinject/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/handle"
	"github.com/rabbitstack/procinject/pkg/sys"
	"github.com/rabbitstack/procinject/pkg/util/va"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

const (
	imageFileMachineUnknown = 0
	imageFileMachineAMD64   = 0x8664
	imageFileMachineARM64   = 0xaa64
)

func waitForObject(h uintptr, timeout time.Duration) (WaitResult, error) {
	ev, err := windows.WaitForSingleObject(windows.Handle(h), millis(timeout))
	switch ev {
	case windows.WAIT_OBJECT_0:
		return WaitSignaled, nil
	case uint32(windows.WAIT_TIMEOUT):
		return WaitTimeout, nil
	case windows.WAIT_ABANDONED:
		return WaitAbandoned, nil
	}
	if err == nil {
		err = errors.Errorf("unexpected wait event %#x", ev)
	}
	return WaitTimeout, err
}

type ntProcessOps struct{}

func (ntProcessOps) suspend(h uintptr) error { return sys.NtSuspendProcess(windows.Handle(h)) }
func (ntProcessOps) resume(h uintptr) error  { return sys.NtResumeProcess(windows.Handle(h)) }

func (ntProcessOps) terminate(h uintptr, exitCode uint32) error {
	return windows.TerminateProcess(windows.Handle(h), exitCode)
}

func (ntProcessOps) wait(h uintptr, timeout time.Duration) (WaitResult, error) {
	return waitForObject(h, timeout)
}

func openProcess(pid uint32, access Access) (*handle.Handle, error) {
	h, err := windows.OpenProcess(access.Mask(), false, pid)
	if err != nil {
		return nil, err
	}
	return handle.Wrap(h), nil
}

// Open opens the process with the requested access. Use DefaultAccess
// to be able to inject, suspend, wait on and terminate the process.
func Open(pid uint32, access Access) (*Process, error) {
	return open(pid, access, openProcess, ntProcessOps{})
}

// LaunchOptions describe the process to launch.
type LaunchOptions struct {
	// Path is the path of the executable.
	Path string
	// Args are the command line arguments excluding the executable.
	Args []string
	// Env is the environment in KEY=VALUE form. The environment of the
	// calling process is inherited when nil.
	Env []string
	// Dir is the working directory. The working directory of the calling
	// process is used when empty.
	Dir string
	// Flags control how the process is created.
	Flags CreationFlags
	// InheritHandles makes inheritable handles of the caller available to the process.
	InheritHandles bool
}

func environmentBlock(env []string) *uint16 {
	if env == nil {
		return nil
	}
	var b []uint16
	for _, kv := range env {
		b = append(b, windows.StringToUTF16(kv)...)
	}
	// the block terminates with an extra NUL character
	b = append(b, 0)
	if len(env) == 0 {
		b = append(b, 0)
	}
	return &b[0]
}

// Launch creates a new process and its primary thread. The process runs
// in the security context of the calling process. If the suspended creation
// flag is given, the process starts in the suspended state.
func Launch(opts LaunchOptions) (*ProcessWithThread, error) {
	app, err := windows.UTF16PtrFromString(opts.Path)
	if err != nil {
		return nil, &errs.OpenFailure{Op: "CreateProcess", Err: err}
	}
	cmdline, err := windows.UTF16PtrFromString(windows.ComposeCommandLine(append([]string{opts.Path}, opts.Args...)))
	if err != nil {
		return nil, &errs.OpenFailure{Op: "CreateProcess", Err: err}
	}
	var dir *uint16
	if opts.Dir != "" {
		dir, err = windows.UTF16PtrFromString(opts.Dir)
		if err != nil {
			return nil, &errs.OpenFailure{Op: "CreateProcess", Err: err}
		}
	}
	flags := opts.Flags.Mask()
	env := environmentBlock(opts.Env)
	if env != nil {
		flags |= windows.CREATE_UNICODE_ENVIRONMENT
	}

	si := &windows.StartupInfo{Cb: uint32(unsafe.Sizeof(windows.StartupInfo{}))}
	var pi windows.ProcessInformation
	err = windows.CreateProcess(app, cmdline, nil, nil, opts.InheritHandles, flags, env, dir, si, &pi)
	if err != nil {
		return nil, &errs.OpenFailure{Op: "CreateProcess", Err: errors.Wrapf(err, "unable to launch %s", opts.Path)}
	}

	log.WithFields(log.Fields{
		"pid":     pi.ProcessId,
		"tid":     pi.ThreadId,
		"path":    opts.Path,
		"args":    strings.Join(opts.Args, " "),
		"suspend": opts.Flags.Has(CreateSuspended),
	}).Info("launched process")

	proc := newProcess(pi.ProcessId, handle.NewShared(handle.Wrap(pi.Process)), ntProcessOps{}, opts.Flags.Has(CreateSuspended))
	return &ProcessWithThread{
		Process: proc,
		Thread:  newThread(pi.ThreadId, handle.Wrap(pi.Thread), ntThreadOps{}),
	}, nil
}

// WaitForInputIdle waits until the process finished its initialization
// and is waiting for user input with no input pending.
func (p *Process) WaitForInputIdle(timeout time.Duration) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	ev, err := sys.WaitForInputIdle(windows.Handle(p.Handle()), millis(timeout))
	if err != nil {
		return &errs.WaitFailure{Pid: p.pid, Err: err}
	}
	switch ev {
	case 0:
		return nil
	case uint32(windows.WAIT_TIMEOUT):
		return &errs.WaitFailure{Pid: p.pid, Err: errors.New("input idle timeout")}
	default:
		return &errs.WaitFailure{Pid: p.pid, Err: errors.Errorf("unexpected wait event %#x", ev)}
	}
}

// Is64Bit determines whether the process runs natively on a 64-bit system.
func (p *Process) Is64Bit() (bool, error) {
	if err := p.checkOpen(); err != nil {
		return false, err
	}
	var procMachine, nativeMachine uint16
	err := windows.IsWow64Process2(windows.Handle(p.Handle()), &procMachine, &nativeMachine)
	if err == nil {
		if procMachine != imageFileMachineUnknown {
			return false, nil
		}
		return nativeMachine == imageFileMachineAMD64 || nativeMachine == imageFileMachineARM64, nil
	}
	// IsWow64Process2 is missing on older systems
	wow64, err := sys.IsWow64(windows.Handle(p.Handle()))
	if err != nil {
		return false, errors.Wrapf(err, "IsWow64Process failed for pid %d", p.pid)
	}
	return !wow64 && unsafe.Sizeof(uintptr(0)) == 8, nil
}

// IsRunning determines whether the process has not exited yet.
func (p *Process) IsRunning() bool {
	if p.IsClosed() {
		return false
	}
	return sys.IsProcessRunning(windows.Handle(p.Handle()))
}

// ExitCode returns the exit code of the terminated process.
func (p *Process) ExitCode() (uint32, error) {
	if err := p.checkOpen(); err != nil {
		return 0, err
	}
	var code uint32
	if err := windows.GetExitCodeProcess(windows.Handle(p.Handle()), &code); err != nil {
		return 0, err
	}
	return code, nil
}

// ModuleFileName returns the file system path of the module loaded at base.
func (p *Process) ModuleFileName(base va.Address) (string, error) {
	if err := p.checkOpen(); err != nil {
		return "", err
	}
	n := make([]uint16, windows.MAX_LONG_PATH)
	err := windows.GetModuleFileNameEx(windows.Handle(p.Handle()), windows.Handle(base.Uintptr()), &n[0], uint32(len(n)))
	if err != nil {
		return "", err
	}
	return windows.UTF16ToString(n), nil
}

// MappedFile returns the device path of the file mapped at the address.
func (p *Process) MappedFile(addr va.Address) string {
	if p.IsClosed() {
		return ""
	}
	return sys.GetMappedFile(windows.Handle(p.Handle()), addr.Uintptr())
}

// processSpace is the address space of a process seen through its handle.
type processSpace struct {
	p *Process
}

// AddressSpace returns the virtual address space of the process.
func (p *Process) AddressSpace() AddressSpace { return processSpace{p: p} }

func (s processSpace) Pid() uint32 { return s.p.pid }

func (s processSpace) Query(addr va.Address) (va.Region, error) {
	if err := s.p.checkOpen(); err != nil {
		return va.Region{}, err
	}
	return va.QueryRegion(windows.Handle(s.p.Handle()), addr)
}

func (s processSpace) MappedFile(addr va.Address) string { return s.p.MappedFile(addr) }

func (s processSpace) Read(addr va.Address, b []byte) (int, error) {
	if err := s.p.checkOpen(); err != nil {
		return 0, err
	}
	return sys.ReadProcessMemoryBytes(windows.Handle(s.p.Handle()), addr.Uintptr(), b)
}

func (s processSpace) MaxApplicationAddress() va.Address {
	return va.Address(sys.MaxApplicationAddress())
}

// Modules enumerates modules mapped into the process.
func (p *Process) Modules() ([]Module, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	return ListModules(p.AddressSpace())
}
