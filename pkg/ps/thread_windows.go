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

	"github.com/rabbitstack/procinject/pkg/sys"
	"golang.org/x/sys/windows"
)

type ntThreadOps struct{}

func (ntThreadOps) resume(h uintptr) (uint32, error) {
	return windows.ResumeThread(windows.Handle(h))
}

func (ntThreadOps) wait(h uintptr, timeout time.Duration) (WaitResult, error) {
	return waitForObject(h, timeout)
}

func (ntThreadOps) exitCode(h uintptr) (uint32, error) {
	var code uint32
	if err := sys.GetExitCodeThread(windows.Handle(h), &code); err != nil {
		return 0, err
	}
	return code, nil
}
