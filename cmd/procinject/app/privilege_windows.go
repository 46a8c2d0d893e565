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

	"github.com/enescakir/emoji"
	"github.com/rabbitstack/procinject/cmd/procinject/common"
	"github.com/rabbitstack/procinject/pkg/config"
	"github.com/rabbitstack/procinject/pkg/sys"
	"github.com/spf13/cobra"
)

var privilegeCmd = &cobra.Command{
	Use:   "privilege",
	Short: "Enable or disable a privilege in the access token of procinject",
	RunE:  adjustPrivilege,
}

var (
	privilegeConfig = config.NewWithOpts()

	privilegeName string
	disable       bool
)

func init() {
	privilegeConfig.MustViperize(privilegeCmd)
	privilegeCmd.Flags().StringVar(&privilegeName, "name", sys.SeDebugPrivilege, "Name of the privilege")
	privilegeCmd.Flags().BoolVar(&disable, "disable", false, "Disables the privilege instead of enabling it")
	RootCmd.AddCommand(privilegeCmd)
}

func adjustPrivilege(cmd *cobra.Command, args []string) error {
	if err := common.Init(privilegeConfig, false); err != nil {
		return err
	}
	if err := sys.EnablePrivilege(privilegeName, !disable); err != nil {
		return fmt.Errorf("%v %v", emoji.DisappointedFace, err)
	}
	enabled, err := sys.IsPrivilegeEnabled(privilegeName)
	if err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("%s is %s\n", privilegeName, state)
	return nil
}
