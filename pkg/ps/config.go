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

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	waitForModule       = "inject.wait-for-module"
	waitTimeout         = "inject.wait-timeout"
	remoteThreadTimeout = "inject.remote-thread-timeout"
)

// Config stores the preferences that dictate the behaviour of the injector.
type Config struct {
	// WaitForModule makes the injector poll the target until the system
	// modules are mapped. Useful for freshly launched processes.
	WaitForModule bool `json:"inject.wait-for-module" yaml:"inject.wait-for-module"`
	// WaitTimeout is the upper bound of the module poll. Zero checks once.
	WaitTimeout time.Duration `json:"inject.wait-timeout" yaml:"inject.wait-timeout"`
	// RemoteThreadTimeout bounds the wait for threads created in the target.
	RemoteThreadTimeout time.Duration `json:"inject.remote-thread-timeout" yaml:"inject.remote-thread-timeout"`
}

// DefaultConfig returns the injector config with default values.
func DefaultConfig() Config {
	return Config{
		WaitTimeout:         5 * time.Second,
		RemoteThreadTimeout: Infinite,
	}
}

// InitFromViper initializes injector config from Viper.
func (c *Config) InitFromViper(v *viper.Viper) {
	c.WaitForModule = v.GetBool(waitForModule)
	c.WaitTimeout = v.GetDuration(waitTimeout)
	c.RemoteThreadTimeout = v.GetDuration(remoteThreadTimeout)
	if c.RemoteThreadTimeout == 0 {
		c.RemoteThreadTimeout = Infinite
	}
}

// AddFlags registers persistent flags.
func AddFlags(flags *pflag.FlagSet) {
	flags.Bool(waitForModule, false, "Specifies if the injector waits for the system modules to be mapped into the target process")
	flags.Duration(waitTimeout, 5*time.Second, "Determines how long the injector waits for the system modules to appear in the target process. Zero checks only once")
	flags.Duration(remoteThreadTimeout, 0, "Determines how long the injector waits for remote threads to finish. Zero waits indefinitely")
}
