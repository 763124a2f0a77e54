package common

import "time"

type LivefsConfig struct {
	// The directory livefs is mounted on
	MountPoint string

	// How long generated file content is reused before regenerating
	CoalesceWindow time.Duration

	// How long the kernel caches name lookups
	EntryTimeout time.Duration

	// How long the kernel caches file attributes
	AttrTimeout time.Duration

	// Bypass the kernel page cache when reading files
	DirectIO bool

	// Allow other users to access the mount
	AllowOther bool

	// Automatically unmount the directory you mounted to on exit
	AutoUnmount bool

	// Whether to enable go fuse's debug mode
	GoFuseDebug bool

	// How often the background worker records state
	TickInterval time.Duration

	// Builtin files to expose
	Files []string
}
