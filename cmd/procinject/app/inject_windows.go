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
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/enescakir/emoji"
	"github.com/pkg/errors"
	"github.com/rabbitstack/procinject/cmd/procinject/common"
	"github.com/rabbitstack/procinject/pkg/config"
	"github.com/rabbitstack/procinject/pkg/ps"
	"github.com/rabbitstack/procinject/pkg/util/spinner"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Load modules into a running or freshly launched process",
	Example: `  procinject inject --pid 4242 --module C:\hooks\hook.dll --export Install
  procinject inject --launch C:\Windows\System32\notepad.exe --module hook.dll --suspended --resume-on-exit`,
	RunE: inject,
}

var (
	injectConfig = config.NewWithOpts(config.WithInject())

	injectPid    uint32
	launchPath   string
	launchArgs   []string
	modules      []string
	export       string
	wait         time.Duration
	suspended    bool
	resumeOnExit bool
)

func init() {
	injectConfig.MustViperize(injectCmd)

	flags := injectCmd.Flags()
	flags.Uint32Var(&injectPid, "pid", 0, "Identifier of the target process")
	flags.StringVar(&launchPath, "launch", "", "Path of the executable to launch and inject into")
	flags.StringSliceVar(&launchArgs, "args", nil, "Command line arguments of the launched process")
	flags.StringArrayVarP(&modules, "module", "m", nil, "Path of the module to inject. Can be given multiple times. Defaults to the modules from the config file")
	flags.StringVar(&export, "export", "", "Function exported by the module that is called once the module is loaded")
	flags.DurationVar(&wait, "wait", 0, "Waits up to the given duration for the system modules to be mapped into the target. Overrides inject.wait-timeout")
	flags.BoolVar(&suspended, "suspended", false, "Keeps the launched process suspended while and after the modules are injected")
	flags.BoolVar(&resumeOnExit, "resume-on-exit", false, "Resumes the suspended process when procinject exits")

	RootCmd.AddCommand(injectCmd)
}

func libraries() []ps.Library {
	if len(modules) == 0 {
		return injectConfig.InjectLibraries()
	}
	libs := make([]ps.Library, len(modules))
	for i, m := range modules {
		libs[i] = ps.Library{Path: m, Export: export}
	}
	return libs
}

func inject(cmd *cobra.Command, args []string) error {
	if err := common.Init(injectConfig, true); err != nil {
		return err
	}
	if (injectPid == 0) == (launchPath == "") {
		return fmt.Errorf("%v either --pid or --launch is required", emoji.DisappointedFace)
	}
	if wait > 0 {
		injectConfig.Inject.WaitForModule = true
		injectConfig.Inject.WaitTimeout = wait
	}
	libs := libraries()
	if len(libs) == 0 {
		return fmt.Errorf("%v no modules to inject. Use --module or declare libraries in %s", emoji.DisappointedFace, injectConfig.File())
	}
	injector, err := common.NewInjector(injectConfig)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var proc *ps.Process
	if launchPath != "" {
		pt, err := launchForInjection(ctx)
		if err != nil {
			return fmt.Errorf("%v %v", emoji.DisappointedFace, err)
		}
		defer pt.Close()
		proc = pt.Process
	} else {
		proc, err = ps.Open(injectPid, ps.DefaultAccess)
		if err != nil {
			return fmt.Errorf("%v %v", emoji.DisappointedFace, err)
		}
		defer proc.Close()
	}

	for _, lib := range libs {
		mod, err := injector.Inject(ctx, proc, lib)
		if err != nil {
			return fmt.Errorf("%v unable to inject %s: %v", emoji.DisappointedFace, lib.Path, err)
		}
		fmt.Printf("%v %s loaded at 0x%s in process %d\n", emoji.Syringe, mod.BaseName(), mod.BaseAddress, proc.Pid())
	}

	if proc.IsSuspended() {
		if resumeOnExit {
			proc.TryResumeOnDestruction(true)
		} else {
			fmt.Printf("%v process %d is left suspended\n", emoji.PauseButton, proc.Pid())
		}
	}
	return nil
}

// launchForInjection starts the process and waits for the system modules
// to be mapped. The loader runs on the primary thread, so a suspended launch
// lets it initialize the process before all threads are suspended again.
func launchForInjection(ctx context.Context) (*ps.ProcessWithThread, error) {
	var flags ps.CreationFlags
	if suspended {
		flags = ps.NewCreationFlags(ps.CreateSuspended)
	}
	pt, err := ps.Launch(ps.LaunchOptions{Path: launchPath, Args: launchArgs, Flags: flags})
	if err != nil {
		return nil, err
	}
	if suspended {
		if _, err := pt.Thread.Resume(); err != nil {
			pt.Close()
			return nil, errors.Wrap(err, "unable to resume the primary thread")
		}
	}

	s := spinner.Show(fmt.Sprintf("waiting for %s in process %d", ps.Kernel32, pt.Pid()))
	_, err = ps.WaitForModule(ctx, pt.AddressSpace(), ps.Kernel32, injectConfig.Inject.WaitTimeout)
	s.Stop()
	if err != nil {
		_ = pt.Kill(1)
		pt.Close()
		return nil, err
	}

	if suspended {
		if err := pt.Suspend(); err != nil {
			_ = pt.Kill(1)
			pt.Close()
			return nil, err
		}
		log.WithField("pid", pt.Pid()).Info("process suspended for injection")
	}
	return pt, nil
}
