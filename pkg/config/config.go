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

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rabbitstack/procinject/pkg/ps"
	"github.com/rabbitstack/procinject/pkg/symbolize"
	"github.com/rabbitstack/procinject/pkg/util/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFile     = "config-file"
	debugPrivilege = "debug-privilege"
	dosPaths       = "modules.dos-paths"
	libraries      = "libraries"

	envPrefix = "procinject"
)

// Config stores configuration options for fine-tuning the behaviour of procinject.
type Config struct {
	// DebugPrivilege dictates if the SeDebugPrivilege is enabled in the
	// access token of the calling process before targets are opened.
	DebugPrivilege bool `json:"debug-privilege" yaml:"debug-privilege"`
	// DosPaths indicates if module paths are printed as DOS paths instead of device paths.
	DosPaths bool `json:"modules.dos-paths" yaml:"modules.dos-paths"`
	// Inject contains the injector preferences.
	Inject ps.Config `json:"inject" yaml:"inject"`
	// Resolver contains the remote export resolver preferences.
	Resolver symbolize.Config `json:"resolver" yaml:"resolver"`
	// Log contains log-specific configuration options.
	Log log.Config `json:"logging" yaml:"logging"`
	// Libraries are the modules injected when none is given on the command line.
	Libraries []LibraryConfig `json:"libraries" yaml:"libraries"`

	flags *pflag.FlagSet
	viper *viper.Viper
	opts  *Options
}

// LibraryConfig describes a module declared in the configuration file.
type LibraryConfig struct {
	Path   string `mapstructure:"path"`
	Export string `mapstructure:"export"`
}

// Options determines which config flags are toggled depending on the command type.
type Options struct {
	inject  bool
	modules bool
}

// Option is the type alias for the config option.
type Option func(*Options)

// WithInject determines the inject command is executed.
func WithInject() Option {
	return func(o *Options) {
		o.inject = true
	}
}

// WithModules determines the modules command is executed.
func WithModules() Option {
	return func(o *Options) {
		o.modules = true
	}
}

// NewWithOpts builds a new configuration store from a variety of sources such as configuration files,
// environment variables or command line flags.
func NewWithOpts(options ...Option) *Config {
	opts := &Options{}

	for _, opt := range options {
		opt(opts)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	c := &Config{
		Inject:   ps.DefaultConfig(),
		Resolver: symbolize.Config{},
		Log:      log.Config{},
		viper:    v,
		flags:    new(pflag.FlagSet),
		opts:     opts,
	}

	c.addFlags()

	return c
}

// GetConfigFile gets the path of the configuration file from Viper value.
func (c *Config) GetConfigFile() string {
	return c.viper.GetString(configFile)
}

// File returns the config file path.
func (c *Config) File() string { return c.GetConfigFile() }

// MustViperize adds the flag set to the Cobra command and binds them within the Viper flags.
func (c *Config) MustViperize(cmd *cobra.Command) {
	cmd.PersistentFlags().AddFlagSet(c.flags)
	if err := c.viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// Init setups the configuration state from Viper.
func (c *Config) Init() error {
	c.Inject.InitFromViper(c.viper)
	c.Resolver.InitFromViper(c.viper)
	c.Log.InitFromViper(c.viper)

	c.DebugPrivilege = c.viper.GetBool(debugPrivilege)
	c.DosPaths = c.viper.GetBool(dosPaths)

	if c.opts.inject {
		if err := c.tryLoadLibraries(); err != nil {
			return err
		}
	}
	return nil
}

// TryLoadFile attempts to load the configuration file from specified path on the file system.
// The default configuration file is optional.
func (c *Config) TryLoadFile(file string) error {
	if file == "" {
		return nil
	}
	if _, err := os.Stat(file); os.IsNotExist(err) && file == defaultConfigFile() {
		return nil
	}
	c.viper.SetConfigFile(file)
	return c.viper.ReadInConfig()
}

// LoadedFile returns the path of the configuration file
// that was read, or an empty string if none was.
func (c *Config) LoadedFile() string { return c.viper.ConfigFileUsed() }

// InjectLibraries returns the modules declared in the configuration file.
func (c *Config) InjectLibraries() []ps.Library {
	libs := make([]ps.Library, len(c.Libraries))
	for i, lib := range c.Libraries {
		libs[i] = ps.Library{Path: lib.Path, Export: lib.Export}
	}
	return libs
}

func (c *Config) tryLoadLibraries() error {
	raw := c.viper.Get(libraries)
	if raw == nil {
		return nil
	}
	var libs []LibraryConfig
	if err := decode(raw, &libs); err != nil {
		return errors.Wrap(err, "invalid libraries config")
	}
	for i, lib := range libs {
		if lib.Path == "" {
			return errors.Errorf("library at index %d has no path", i)
		}
	}
	c.Libraries = libs
	return nil
}

func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "procinject", "procinject.yml")
}

func (c *Config) addFlags() {
	c.flags.String(configFile, defaultConfigFile(), "Indicates the location of the configuration file")
	c.flags.Bool(debugPrivilege, true, "Dictates if the SeDebugPrivilege is enabled in the access token of procinject before targets are opened")
	if c.opts.inject {
		ps.AddFlags(c.flags)
		symbolize.AddFlags(c.flags)
	}
	if c.opts.modules {
		c.flags.Bool(dosPaths, false, "Prints module paths as DOS paths instead of device paths")
	}
	c.Log.AddFlags(c.flags)
}
