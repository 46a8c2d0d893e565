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
	"fmt"
	"os"

	"github.com/enescakir/emoji"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rabbitstack/procinject/cmd/procinject/common"
	"github.com/rabbitstack/procinject/pkg/config"
	"github.com/rabbitstack/procinject/pkg/fs"
	"github.com/rabbitstack/procinject/pkg/ps"
	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List modules mapped into the address space of a process",
	RunE:  listModules,
}

var (
	modulesConfig = config.NewWithOpts(config.WithModules())
	modulesPid    uint32
)

func init() {
	modulesConfig.MustViperize(modulesCmd)
	modulesCmd.Flags().Uint32Var(&modulesPid, "pid", 0, "Identifier of the process whose modules are listed")
	if err := modulesCmd.MarkFlagRequired("pid"); err != nil {
		panic(err)
	}
	RootCmd.AddCommand(modulesCmd)
}

// listModules renders a table with modules mapped into the process in ascending base address order.
func listModules(cmd *cobra.Command, args []string) error {
	if err := common.Init(modulesConfig, true); err != nil {
		return err
	}

	proc, err := ps.Open(modulesPid, ps.NewAccess(ps.AccessQuery, ps.AccessVMRead))
	if err != nil {
		return fmt.Errorf("%v %v", emoji.DisappointedFace, err)
	}
	defer proc.Close()

	mods, err := proc.Modules()
	if err != nil {
		return fmt.Errorf("%v %v", emoji.DisappointedFace, err)
	}

	var mapper fs.DevMapper
	if modulesConfig.DosPaths {
		mapper = fs.NewDevMapper()
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Base", "Size (kB)", "Path"})
	t.SetStyle(table.StyleLight)
	if info, err := proc.Info(); err == nil && info.Image != "" {
		t.SetTitle(fmt.Sprintf("%s (%d)", info.Image, modulesPid))
	}

	for _, mod := range mods {
		path := mod.Name
		if mapper != nil {
			path = mapper.Convert(path)
		}
		t.AppendRow(table.Row{"0x" + mod.BaseAddress.String(), fmt.Sprintf("%.1f", mod.SizeKB()), path})
	}
	t.Render()

	return nil
}
