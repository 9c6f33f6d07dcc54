//go:build windows
// +build windows

// acl_windows.go - Windows ACL verification for the HMAC key file
//
// Mode bits carry no meaning on NTFS, so the 0600 check from key.go is
// replaced by a DACL walk. The check fails closed: any grant to Everyone,
// Users, or Authenticated Users rejects the key file.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// verifyWindowsACL checks that the key file grants access to its owner,
// SYSTEM, and Administrators only.
func verifyWindowsACL(path string) error {
	sd, err := windows.GetNamedSecurityInfo(
		path,
		windows.SE_FILE_OBJECT,
		windows.DACL_SECURITY_INFORMATION|windows.OWNER_SECURITY_INFORMATION,
	)
	if err != nil {
		return fmt.Errorf("failed to get security info: %w", err)
	}

	ownerSid, _, err := sd.Owner()
	if err != nil {
		return fmt.Errorf("failed to get owner SID: %w", err)
	}

	token, err := windows.OpenCurrentProcessToken()
	if err != nil {
		return fmt.Errorf("failed to open process token: %w", err)
	}
	defer token.Close()

	currentUser, err := token.GetTokenUser()
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	dacl, _, err := sd.DACL()
	if err != nil {
		return fmt.Errorf("failed to get DACL: %w", err)
	}

	if err := checkOwnerOnlyACL(dacl, ownerSid, currentUser.User.Sid); err != nil {
		return fmt.Errorf("insecure ACL on key file %s: %w", path, err)
	}
	return nil
}

// checkOwnerOnlyACL rejects the DACL if broad principals hold grants or
// the file is owned by an unexpected principal.
func checkOwnerOnlyACL(dacl *windows.ACL, ownerSid *windows.SID, currentUserSid *windows.SID) error {
	if dacl == nil {
		// A NULL DACL grants full access to everyone.
		return fmt.Errorf("NULL DACL grants full access to everyone")
	}

	adminsSid, err := windows.CreateWellKnownSid(windows.WinBuiltinAdministratorsSid)
	if err != nil {
		return fmt.Errorf("failed to get Administrators SID: %w", err)
	}
	systemSid, err := windows.CreateWellKnownSid(windows.WinLocalSystemSid)
	if err != nil {
		return fmt.Errorf("failed to get SYSTEM SID: %w", err)
	}

	if everyoneSid, err := windows.CreateWellKnownSid(windows.WinWorldSid); err == nil {
		if hasExplicitAccess(dacl, everyoneSid) {
			return fmt.Errorf("Everyone group has access to key file")
		}
	}
	if usersSid, err := windows.CreateWellKnownSid(windows.WinBuiltinUsersSid); err == nil {
		if hasExplicitAccess(dacl, usersSid) {
			return fmt.Errorf("Users group has access to key file")
		}
	}
	if authUsersSid, err := windows.CreateWellKnownSid(windows.WinAuthenticatedUserSid); err == nil {
		if hasExplicitAccess(dacl, authUsersSid) {
			return fmt.Errorf("Authenticated Users have access to key file")
		}
	}

	if ownerSid != nil {
		if !ownerSid.Equals(currentUserSid) && !ownerSid.Equals(adminsSid) && !ownerSid.Equals(systemSid) {
			return fmt.Errorf("key file owned by unexpected principal")
		}
	}
	return nil
}

// hasExplicitAccess reports whether the DACL carries a grant for sid.
func hasExplicitAccess(dacl *windows.ACL, sid *windows.SID) bool {
	if dacl == nil || sid == nil {
		return false
	}

	var entries *windows.EXPLICIT_ACCESS
	var count uint32

	advapi32 := windows.NewLazySystemDLL("advapi32.dll")
	procGetExplicitEntriesFromAcl := advapi32.NewProc("GetExplicitEntriesFromAclW")

	ret, _, _ := procGetExplicitEntriesFromAcl.Call(
		uintptr(unsafe.Pointer(dacl)),
		uintptr(unsafe.Pointer(&count)),
		uintptr(unsafe.Pointer(&entries)),
	)
	if ret != 0 || count == 0 {
		return false
	}
	if entries != nil {
		defer windows.LocalFree(windows.Handle(unsafe.Pointer(entries)))
	}

	entrySlice := unsafe.Slice(entries, count)
	for _, entry := range entrySlice {
		if entry.AccessMode != windows.GRANT_ACCESS && entry.AccessMode != windows.SET_ACCESS {
			continue
		}
		if entry.Trustee.TrusteeForm != windows.TRUSTEE_IS_SID {
			continue
		}
		entrySid := (*windows.SID)(unsafe.Pointer(entry.Trustee.TrusteeValue))
		if entrySid != nil && entrySid.Equals(sid) {
			return true
		}
	}
	return false
}
