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

//go:generate go run golang.org/x/sys/windows/mkwinsyscall -output zsyscall_windows.go syscall.go

//sys adjustTokenPrivileges(token windows.Token, disableAll bool, newstate *windows.Tokenprivileges, buflen uint32, prevstate *windows.Tokenprivileges, returnlen *uint32) (ret uint32, errno int) = advapi32.AdjustTokenPrivileges
//sys GetMappedFileName(process windows.Handle, addr uintptr, filename *uint16, size uint32) (n uint32, err error) = psapi.GetMappedFileNameW
//sys NtSuspendProcess(process windows.Handle) (ntstatus error) = ntdll.NtSuspendProcess
//sys NtResumeProcess(process windows.Handle) (ntstatus error) = ntdll.NtResumeProcess
//sys VirtualAllocEx(process windows.Handle, addr uintptr, size uintptr, allocType uint32, protect uint32) (base uintptr, err error) = kernel32.VirtualAllocEx
//sys VirtualFreeEx(process windows.Handle, addr uintptr, size uintptr, freeType uint32) (err error) = kernel32.VirtualFreeEx
//sys CreateRemoteThread(process windows.Handle, attributes *windows.SecurityAttributes, stackSize uintptr, startAddress uintptr, param uintptr, creationFlags uint32, threadID *uint32) (handle windows.Handle, err error) = kernel32.CreateRemoteThread
//sys GetExitCodeThread(thread windows.Handle, exitCode *uint32) (err error) = kernel32.GetExitCodeThread
//sys WaitForInputIdle(process windows.Handle, timeout uint32) (event uint32, err error) [failretval==0xffffffff] = user32.WaitForInputIdle
//sys GetSystemInfo(info *SystemInfo) = kernel32.GetSystemInfo
