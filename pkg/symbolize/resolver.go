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

// Package symbolize resolves the addresses of exported functions
// inside modules mapped into foreign processes.
package symbolize

import (
	"github.com/pkg/errors"
	errs "github.com/rabbitstack/procinject/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/util/va"
	log "github.com/sirupsen/logrus"
)

// Image is a module loaded into the current process for
// the purpose of looking up its exports.
type Image interface {
	// Base returns the local base address of the image.
	Base() va.Address
	// ProcAddress returns the local address of the named export.
	ProcAddress(name string) (va.Address, error)
	// Close unloads the image.
	Close() error
}

// ImageLoader loads module images without running their initialization code.
type ImageLoader interface {
	Load(path string) (Image, error)
}

// ModuleQuerier exposes the queries the resolver issues
// against the foreign process.
type ModuleQuerier interface {
	// Pid returns the identifier of the foreign process.
	Pid() uint32
	// ModuleFileName returns the file system path of the module loaded at base.
	ModuleFileName(base va.Address) (string, error)
	// MappedFile returns the device path of the file mapped at addr.
	MappedFile(addr va.Address) string
}

// PathMapper converts device paths to paths the loader can open.
type PathMapper func(string) string

// Resolver finds exports of modules mapped into foreign processes. The
// module is loaded locally and the offset of the export from the local
// base is applied to the foreign base. The offset is the same in both
// processes as long as both map the same image.
type Resolver struct {
	loader ImageLoader
	mapper PathMapper
}

// Option customizes the resolver.
type Option func(r *Resolver)

// WithPathMapper sets the function that converts the mapped device path
// of a foreign module when its file name can't be queried directly.
func WithPathMapper(mapper PathMapper) Option {
	return func(r *Resolver) {
		r.mapper = mapper
	}
}

// NewResolver creates a resolver backed by the given image loader.
func NewResolver(loader ImageLoader, opts ...Option) *Resolver {
	r := &Resolver{loader: loader}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ModulePath returns the path of the foreign module mapped at base.
func (r *Resolver) ModulePath(proc ModuleQuerier, base va.Address) (string, error) {
	path, err := proc.ModuleFileName(base)
	if err == nil && path != "" {
		return path, nil
	}
	dev := proc.MappedFile(base)
	if dev == "" {
		if err == nil {
			err = errors.New("no module at base address")
		}
		return "", &errs.ResolutionFailure{Op: "ModulePath", Name: va.Foreign(proc.Pid(), base).String(), Err: err}
	}
	if r.mapper != nil {
		return r.mapper(dev), nil
	}
	return dev, nil
}

// ResolveRemoteExport returns the address of the export inside the module
// mapped at base in the foreign process. The module must already be mapped
// there. The local copy of the module is always unloaded before returning.
func (r *Resolver) ResolveRemoteExport(proc ModuleQuerier, base va.Address, export string) (va.Address, error) {
	path, err := r.ModulePath(proc, base)
	if err != nil {
		return 0, err
	}
	img, err := r.loader.Load(path)
	if err != nil {
		return 0, &errs.ResolutionFailure{Op: "Load", Name: path, Err: err}
	}
	defer func() {
		if err := img.Close(); err != nil {
			log.Debugf("unable to unload %s: %v", path, err)
		}
	}()

	local, err := img.ProcAddress(export)
	if err != nil {
		return 0, &errs.ResolutionFailure{Op: "ProcAddress", Name: export, Err: err}
	}
	delta, err := va.Local(local).Sub(va.Local(img.Base()))
	if err != nil {
		return 0, &errs.ResolutionFailure{Op: "ProcAddress", Name: export, Err: err}
	}
	remote := va.Foreign(proc.Pid(), base).Add(delta)

	log.WithFields(log.Fields{
		"export": export,
		"module": path,
		"offset": delta,
		"remote": remote,
	}).Debug("resolved remote export")

	return remote.Addr, nil
}
