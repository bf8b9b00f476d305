package auth

import "errors"

var (
	// ErrAlreadyPrivileged is returned when promoting a user that already
	// holds admin or super-admin rights.
	ErrAlreadyPrivileged = errors.New("auth: user is already privileged")

	// ErrCannotRemoveSuperAdmin is returned when a demotion targets a super-admin.
	ErrCannotRemoveSuperAdmin = errors.New("auth: super-admins cannot be removed")

	// ErrNotAnAdmin is returned when demoting a user that is not an admin.
	ErrNotAnAdmin = errors.New("auth: user is not an admin")

	// ErrPrivilegedActor is returned when blacklisting an admin or super-admin.
	ErrPrivilegedActor = errors.New("auth: privileged users cannot be blacklisted")

	// ErrAlreadyBlacklisted is returned when blacklisting an already listed user.
	ErrAlreadyBlacklisted = errors.New("auth: user is already blacklisted")

	// ErrNotBlacklisted is returned when unblacklisting a user that is not listed.
	ErrNotBlacklisted = errors.New("auth: user is not blacklisted")
)
