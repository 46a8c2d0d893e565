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

package app

import (
	"errors"
	"runtime"

	"github.com/spf13/cobra"
)

// RootCmd is the entrance to procinject CLI
var RootCmd = &cobra.Command{
	Use:   "procinject",
	Short: "Load modules into running processes and inspect their address space",
	Long: `
	procinject loads dynamic-link libraries into foreign processes by running
	the system loader in a remote thread. It can also list the modules mapped
	into a process, control the process lifecycle and adjust the privileges
	of its own access token.
	`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if runtime.GOOS != "windows" && cmd.Name() != "version" {
			return errors.New("procinject can only be run on Windows operating systems")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(configCmd)
}
