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

package common

import (
	"github.com/rabbitstack/procinject/pkg/config"
	"github.com/rabbitstack/procinject/pkg/fs"
	"github.com/rabbitstack/procinject/pkg/ps"
	"github.com/rabbitstack/procinject/pkg/symbolize"
	"github.com/rabbitstack/procinject/pkg/sys"
)

// Init initializes and validates the configuration
// as given by the commands. This function will also set up
// the logger and adjust the process token with the debug
// privilege if required.
func Init(c *config.Config, debugPrivilege bool) error {
	if err := InitConfigAndLogger(c); err != nil {
		return err
	}
	if c.DebugPrivilege && debugPrivilege {
		sys.SetDebugPrivilege()
	}
	return nil
}

// NewInjector builds the injector from the resolver and inject preferences.
func NewInjector(c *config.Config) (*ps.Injector, error) {
	loader, err := symbolize.NewLoader(c.Resolver.Loader)
	if err != nil {
		return nil, err
	}
	resolver := symbolize.NewResolver(loader, symbolize.WithPathMapper(fs.NewDevMapper().Convert))
	return ps.NewInjector(resolver, c.Inject), nil
}
