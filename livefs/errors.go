package livefs

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Replies sent to the kernel. Every request gets exactly one of these.
const (
	OK              syscall.Errno = 0
	ErrNotFound                   = syscall.ENOENT
	ErrIsDirectory                = syscall.EISDIR
	ErrNotDirectory               = syscall.ENOTDIR
	ErrAccessDenied               = syscall.EACCES
	ErrNotSupported               = syscall.ENOTSUP
	ErrInvalid                    = syscall.EINVAL
)

// Label used for an errno in logs and metrics
func statusName(errno syscall.Errno) string {
	if errno == OK {
		return "OK"
	}
	if name := unix.ErrnoName(errno); name != "" {
		return name
	}
	return errno.Error()
}
