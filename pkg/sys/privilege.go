//go:build windows

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

package sys

import (
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	errs "github.com/rabbitstack/procinject/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

const (
	// SeDebugPrivilege is the name of the privilege used to debug programs.
	SeDebugPrivilege = "SeDebugPrivilege"
)

// lookupPrivilege maps the privilege name to the LUID value. The
// mapping is never cached because the outcome depends on the account
// policy at the time of the call. The zero LUID means the privilege
// doesn't exist on this system.
func lookupPrivilege(name string) (windows.LUID, error) {
	var luid windows.LUID
	n, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return luid, &errs.ResolutionFailure{Op: "LookupPrivilegeValue", Name: name, Err: err}
	}
	if err := windows.LookupPrivilegeValue(nil, n, &luid); err != nil {
		return luid, &errs.ResolutionFailure{Op: "LookupPrivilegeValue", Name: name, Err: err}
	}
	if luid.LowPart == 0 && luid.HighPart == 0 {
		return luid, &errs.ResolutionFailure{Op: "LookupPrivilegeValue", Name: name}
	}
	return luid, nil
}

func openProcessToken(access uint32) (windows.Token, error) {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), access, &token)
	if err != nil {
		return 0, &errs.OpenFailure{Op: "OpenProcessToken", Pid: windows.GetCurrentProcessId(), Err: err}
	}
	return token, nil
}

// EnablePrivilege enables or disables the named privilege in the access
// token of the current process. The adjustment is applied atomically for
// exactly one privilege entry and persists until changed again or the
// process exits. If the token doesn't hold the privilege at all, the
// OS rejects the adjustment and the error is returned as-is. Failures
// are never retried.
func EnablePrivilege(name string, enable bool) error {
	token, err := openProcessToken(windows.TOKEN_ADJUST_PRIVILEGES | windows.TOKEN_QUERY)
	if err != nil {
		return err
	}
	defer token.Close()

	luid, err := lookupPrivilege(name)
	if err != nil {
		return err
	}

	privs := windows.Tokenprivileges{PrivilegeCount: 1}
	privs.Privileges[0].Luid = luid
	if enable {
		privs.Privileges[0].Attributes = windows.SE_PRIVILEGE_ENABLED
	}

	// AdjustTokenPrivileges succeeds even when the privilege is absent
	// from the token. The last error tells the two cases apart
	ret, errno := adjustTokenPrivileges(token, false, &privs, uint32(unsafe.Sizeof(privs)), nil, nil)
	if ret == 0 {
		return errors.Wrapf(syscall.Errno(errno), "AdjustTokenPrivileges failed on %q", name)
	}
	if syscall.Errno(errno) == windows.ERROR_NOT_ALL_ASSIGNED {
		return errors.Wrapf(windows.ERROR_NOT_ALL_ASSIGNED, "%s is not held by the process token", name)
	}
	return nil
}

// TryEnablePrivilege is like EnablePrivilege but reports the outcome as
// a boolean value. The error is logged.
func TryEnablePrivilege(name string, enable bool) bool {
	if err := EnablePrivilege(name, enable); err != nil {
		log.WithField("privilege", name).Warnf("unable to adjust privilege: %v", err)
		return false
	}
	return true
}

// IsPrivilegeEnabled determines whether the named privilege is present
// and enabled in the access token of the current process.
func IsPrivilegeEnabled(name string) (bool, error) {
	token, err := openProcessToken(windows.TOKEN_QUERY)
	if err != nil {
		return false, err
	}
	defer token.Close()

	luid, err := lookupPrivilege(name)
	if err != nil {
		return false, err
	}

	var n uint32
	err = windows.GetTokenInformation(token, windows.TokenPrivileges, nil, 0, &n)
	if err != nil && err != windows.ERROR_INSUFFICIENT_BUFFER {
		return false, errors.Wrap(err, "GetTokenInformation")
	}
	b := make([]byte, n)
	if err := windows.GetTokenInformation(token, windows.TokenPrivileges, &b[0], n, &n); err != nil {
		return false, errors.Wrap(err, "GetTokenInformation")
	}
	privs := (*windows.Tokenprivileges)(unsafe.Pointer(&b[0]))
	for _, p := range unsafe.Slice(&privs.Privileges[0], privs.PrivilegeCount) {
		if p.Luid == luid {
			return p.Attributes&windows.SE_PRIVILEGE_ENABLED != 0, nil
		}
	}
	return false, nil
}

// SetDebugPrivilege sets the debug privilege in the current running process.
func SetDebugPrivilege() {
	_ = TryEnablePrivilege(SeDebugPrivilege, true)
}
