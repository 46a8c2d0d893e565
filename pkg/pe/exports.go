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

package pe

import (
	"fmt"

	"github.com/pkg/errors"
	errs "github.com/rabbitstack/procinject/pkg/errors"
	peparser "github.com/saferwall/pe"
)

// Export describes a single entry of the export directory.
type Export struct {
	Name      string
	Ordinal   uint32
	RVA       uint32
	Forwarder string
}

// IsForwarded returns true if the export is forwarded to another module.
func (e Export) IsForwarded() bool { return e.Forwarder != "" }

// Exports is the export directory of an image indexed by function name.
type Exports struct {
	Module    string
	functions map[string]Export
}

// Len returns the number of named exports.
func (e *Exports) Len() int { return len(e.functions) }

// Lookup returns the RVA of the named export. Forwarded exports
// don't have an RVA inside the image and are rejected.
func (e *Exports) Lookup(name string) (uint32, error) {
	exp, ok := e.functions[name]
	if !ok {
		return 0, &errs.ResolutionFailure{Op: "Lookup", Name: name}
	}
	if exp.IsForwarded() {
		return 0, &errs.ResolutionFailure{Op: "Lookup", Name: name, Err: errors.Wrapf(errs.ErrExportForwarded, "to %s", exp.Forwarder)}
	}
	return exp.RVA, nil
}

// ParseExports parses the export directory of the image at the
// specified file system path.
func ParseExports(path string) (*Exports, error) {
	opts := newParserOpts()
	opts.OmitExportDirectory = false
	pe, err := peparser.New(path, opts)
	if err != nil {
		return nil, err
	}
	defer pe.Close()

	if err := pe.Parse(); err != nil {
		return nil, errors.Wrapf(err, "unable to parse %s", path)
	}
	exports := &Exports{
		Module:    pe.Export.Name,
		functions: make(map[string]Export, len(pe.Export.Functions)),
	}
	for _, fn := range pe.Export.Functions {
		exp := Export{
			Name:      fn.Name,
			Ordinal:   fn.Ordinal,
			RVA:       fn.FunctionRVA,
			Forwarder: fn.Forwarder,
		}
		if exp.Name == "" {
			exp.Name = fmt.Sprintf("Ordinal%d", fn.Ordinal)
		}
		exports.functions[exp.Name] = exp
	}
	return exports, nil
}
