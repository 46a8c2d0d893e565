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
	"github.com/rabbitstack/procinject/pkg/ps"
	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Terminate a process",
	RunE:  kill,
}

var suspendCmd = &cobra.Command{
	Use:   "suspend",
	Short: "Suspend all threads of a process",
	RunE:  suspendResume(true),
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume all threads of a process",
	RunE:  suspendResume(false),
}

var (
	processConfig = config.NewWithOpts()

	pid      uint32
	exitCode uint32
)

func init() {
	for _, cmd := range []*cobra.Command{killCmd, suspendCmd, resumeCmd} {
		cmd.Flags().Uint32Var(&pid, "pid", 0, "Identifier of the target process")
		if err := cmd.MarkFlagRequired("pid"); err != nil {
			panic(err)
		}
		RootCmd.AddCommand(cmd)
	}
	processConfig.MustViperize(killCmd)
	processConfig.MustViperize(suspendCmd)
	processConfig.MustViperize(resumeCmd)
	killCmd.Flags().Uint32Var(&exitCode, "exit-code", 1, "Exit code of the terminated process")
}

func kill(cmd *cobra.Command, args []string) error {
	if err := common.Init(processConfig, true); err != nil {
		return err
	}
	proc, err := ps.Open(pid, ps.NewAccess(ps.AccessTerminate, ps.AccessSynchronize))
	if err != nil {
		return fmt.Errorf("%v %v", emoji.DisappointedFace, err)
	}
	defer proc.Close()
	if err := proc.Kill(exitCode); err != nil {
		return fmt.Errorf("%v %v", emoji.DisappointedFace, err)
	}
	fmt.Printf("process %d terminated with exit code %d\n", pid, exitCode)
	return nil
}

func suspendResume(suspend bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := common.Init(processConfig, true); err != nil {
			return err
		}
		proc, err := ps.Open(pid, ps.NewAccess(ps.AccessSuspendResume))
		if err != nil {
			return fmt.Errorf("%v %v", emoji.DisappointedFace, err)
		}
		defer proc.Close()
		if err := proc.SuspendResume(suspend); err != nil {
			return fmt.Errorf("%v %v", emoji.DisappointedFace, err)
		}
		if suspend {
			fmt.Printf("%v process %d suspended\n", emoji.PauseButton, pid)
		} else {
			fmt.Printf("%v process %d resumed\n", emoji.PlayButton, pid)
		}
		return nil
	}
}
