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
	"path/filepath"
	"time"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	errs "github.com/rabbitstack/procinject/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/fs"
	"github.com/rabbitstack/procinject/pkg/handle"
	"github.com/rabbitstack/procinject/pkg/symbolize"
	"github.com/rabbitstack/procinject/pkg/sys"
	"github.com/rabbitstack/procinject/pkg/util/va"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// Injector loads modules into foreign processes by running the
// loader in a remote thread.
type Injector struct {
	resolver *symbolize.Resolver
	config   Config
}

// NewInjector creates the injector that resolves remote exports with the given resolver.
func NewInjector(resolver *symbolize.Resolver, config Config) *Injector {
	return &Injector{resolver: resolver, config: config}
}

// Inject loads the library into the process using the native image loader
// and the default injector config.
func (p *Process) Inject(lib Library) (Module, error) {
	resolver := symbolize.NewResolver(symbolize.NativeLoader{}, symbolize.WithPathMapper(fs.NewDevMapper().Convert))
	return NewInjector(resolver, DefaultConfig()).Inject(context.Background(), p, lib)
}

// Inject writes the library path into the process, runs the loader in a remote
// thread and returns the module the loader mapped. If the library declares an
// export, it is resolved inside the loaded module and called in another remote
// thread.
func (i *Injector) Inject(ctx context.Context, p *Process, lib Library) (Module, error) {
	if err := p.checkOpen(); err != nil {
		return Module{}, err
	}
	path, err := filepath.Abs(lib.Path)
	if err != nil {
		return Module{}, &errs.ResolutionFailure{Op: "Abs", Name: lib.Path, Err: err}
	}
	dev, err := fs.ResolveDevicePath(path)
	if err != nil {
		return Module{}, err
	}

	space := p.AddressSpace()
	var k32 Module
	if i.config.WaitForModule {
		k32, err = WaitForModule(ctx, space, Kernel32, i.config.WaitTimeout)
		if err != nil {
			return Module{}, err
		}
	} else {
		var ok bool
		k32, ok, err = FindModule(space, Kernel32)
		if err != nil {
			return Module{}, err
		}
		if !ok {
			return Module{}, &errs.ResolutionFailure{Op: "FindModule", Name: Kernel32}
		}
	}
	loadLibrary, err := i.resolver.ResolveRemoteExport(p, k32.BaseAddress, loadLibraryExport)
	if err != nil {
		return Module{}, err
	}

	remote, release, err := p.writeString(path)
	if err != nil {
		return Module{}, err
	}
	code, err := p.runRemoteThread(loadLibrary, remote, i.config.RemoteThreadTimeout)
	// the loader may still be reading the path if the thread didn't exit
	if !errors.Is(err, errRemoteThreadTimeout) {
		release()
	}
	if err != nil {
		return Module{}, errors.Wrapf(err, "%s failed in pid %d", loadLibraryExport, p.pid)
	}
	mod, err := loadedModule(space, dev, code)
	if err != nil {
		return Module{}, err
	}

	log.WithFields(log.Fields{
		"pid":    p.pid,
		"module": path,
		"base":   va.Foreign(p.pid, mod.BaseAddress),
		"size":   humanize.IBytes(mod.Size),
	}).Info("injected module")

	if lib.Export == "" {
		return mod, nil
	}
	fn, err := i.resolver.ResolveRemoteExport(p, mod.BaseAddress, lib.Export)
	if err != nil {
		return mod, err
	}
	code, err = p.runRemoteThread(fn, 0, i.config.RemoteThreadTimeout)
	if err != nil {
		return mod, errors.Wrapf(err, "%s failed in pid %d", lib.Export, p.pid)
	}
	log.WithFields(log.Fields{
		"pid":       p.pid,
		"export":    lib.Export,
		"exit-code": code,
	}).Info("called module export")

	return mod, nil
}

var errRemoteThreadTimeout = errors.New("remote thread didn't finish in time")

// writeString copies the NUL-terminated UTF-16 string into a region
// allocated in the process. The returned function releases the region.
func (p *Process) writeString(s string) (va.Address, func(), error) {
	u, err := windows.UTF16FromString(s)
	if err != nil {
		return 0, nil, err
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&u[0])), len(u)*2)
	proc := windows.Handle(p.Handle())
	addr, err := sys.AllocRemote(proc, uintptr(len(b)))
	if err != nil {
		return 0, nil, errors.Wrapf(err, "unable to allocate %s in pid %d", humanize.IBytes(uint64(len(b))), p.pid)
	}
	release := func() {
		if err := sys.FreeRemote(proc, addr); err != nil {
			log.Debugf("unable to release remote region %#x in pid %d: %v", addr, p.pid, err)
		}
	}
	if err := sys.WriteProcessMemory(proc, addr, b); err != nil {
		release()
		return 0, nil, errors.Wrapf(err, "unable to write process memory at %#x in pid %d", addr, p.pid)
	}
	log.Debugf("wrote %s at %#x in pid %d", humanize.IBytes(uint64(len(b))), addr, p.pid)
	return va.Address(addr), release, nil
}

// runRemoteThread runs the function at addr in a new thread of the
// process, waits for it to finish and returns its exit code.
func (p *Process) runRemoteThread(addr, param va.Address, timeout time.Duration) (uint32, error) {
	var tid uint32
	h, err := sys.CreateRemoteThread(windows.Handle(p.Handle()), nil, 0, addr.Uintptr(), param.Uintptr(), 0, &tid)
	if err != nil {
		return 0, &errs.OpenFailure{Op: "CreateRemoteThread", Pid: p.pid, Err: err}
	}
	thread := newThread(tid, handle.Wrap(h), ntThreadOps{})
	defer thread.Close()

	res, err := thread.Wait(timeout)
	if err != nil {
		return 0, err
	}
	if res != WaitSignaled {
		return 0, errRemoteThreadTimeout
	}
	return thread.ExitCode()
}
