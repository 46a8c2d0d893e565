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
	"strings"
	"time"

	"github.com/enescakir/emoji"
	"github.com/rabbitstack/procinject/cmd/procinject/common"
	"github.com/rabbitstack/procinject/pkg/config"
	"github.com/rabbitstack/procinject/pkg/ps"
	"github.com/spf13/cobra"
)

var launchCmd = &cobra.Command{
	Use:   "launch PATH [ARGS...]",
	Short: "Launch a process",
	Args:  cobra.MinimumNArgs(1),
	RunE:  launch,
}

var (
	launchConfig = config.NewWithOpts()

	launchSuspended  bool
	launchNewConsole bool
	launchNoWindow   bool
	launchDir        string
	launchEnv        []string
	launchWait       time.Duration
)

func init() {
	launchConfig.MustViperize(launchCmd)

	flags := launchCmd.Flags()
	flags.BoolVar(&launchSuspended, "suspended", false, "Starts the primary thread in the suspended state")
	flags.BoolVar(&launchNewConsole, "new-console", false, "Gives the process a new console")
	flags.BoolVar(&launchNoWindow, "no-window", false, "Runs a console process without a console window")
	flags.StringVar(&launchDir, "dir", "", "Working directory of the process")
	flags.StringArrayVar(&launchEnv, "env", nil, "Environment variable in KEY=VALUE form. The environment of procinject is inherited when none is given")
	flags.DurationVar(&launchWait, "wait", 0, "Waits up to the given duration for the process to exit and prints its exit code")

	RootCmd.AddCommand(launchCmd)
}

func launch(cmd *cobra.Command, args []string) error {
	if err := common.Init(launchConfig, false); err != nil {
		return err
	}

	var flags []ps.CreationFlag
	if launchSuspended {
		flags = append(flags, ps.CreateSuspended)
	}
	if launchNewConsole {
		flags = append(flags, ps.CreateNewConsole)
	}
	if launchNoWindow {
		flags = append(flags, ps.CreateNoWindow)
	}

	pt, err := ps.Launch(ps.LaunchOptions{
		Path:  args[0],
		Args:  args[1:],
		Env:   launchEnv,
		Dir:   launchDir,
		Flags: ps.NewCreationFlags(flags...),
	})
	if err != nil {
		return fmt.Errorf("%v %v", emoji.DisappointedFace, err)
	}
	defer pt.Close()

	fmt.Fprintf(os.Stdout, "%v launched %s %s (pid %d, tid %d)\n", emoji.Rocket, args[0], strings.Join(args[1:], " "), pt.Pid(), pt.Thread.Tid())

	if launchWait == 0 || launchSuspended {
		return nil
	}
	res, err := pt.Wait(launchWait)
	if err != nil {
		return err
	}
	if res != ps.WaitSignaled {
		fmt.Fprintf(os.Stdout, "%v process %d is still running (%s)\n", emoji.HourglassNotDone, pt.Pid(), res)
		return nil
	}
	code, err := pt.ExitCode()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "process %d exited with code %d\n", pt.Pid(), code)
	return nil
}
