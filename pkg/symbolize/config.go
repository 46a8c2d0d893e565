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

package symbolize

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const loader = "resolver.loader"

// Config stores the preferences of the remote export resolver.
type Config struct {
	// Loader is the image loader used to find local export addresses.
	Loader string `json:"resolver.loader" yaml:"resolver.loader"`
}

// InitFromViper initializes resolver config from Viper.
func (c *Config) InitFromViper(v *viper.Viper) {
	c.Loader = v.GetString(loader)
}

// AddFlags registers persistent flags.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(loader, LoaderNative, "Image loader used to resolve exports (native, pe). The pe loader parses the module file and works across architectures")
}
