package livefs

import "time"

// GenerateFunc computes the full content of a file. It runs on the loop
// thread, so it may read application state without locking.
type GenerateFunc func(entry *FileEntry) []byte

// NotifyFunc runs after the reply to a read of the file has been handed to
// the kernel.
type NotifyFunc func(entry *FileEntry)

// Provider is the interface form of a GenerateFunc. Providers that also
// implement ReadNotifier are told about every completed read.
type Provider interface {
	Generate() []byte
}

// ReadNotifier is an optional extension of Provider.
type ReadNotifier interface {
	OnRead()
}

// A single dynamic file in the flat root directory
type FileEntry struct {
	inode           uint64
	name            string
	context         any
	content         []byte
	lastRegenerated time.Time
	generate        GenerateFunc
	notify          NotifyFunc
}

func (e *FileEntry) Inode() uint64 { return e.inode }

func (e *FileEntry) Name() string { return e.name }

// Context returns the opaque value passed at registration.
func (e *FileEntry) Context() any { return e.context }

// Content returns the most recently generated bytes without regenerating.
func (e *FileEntry) Content() []byte { return e.content }

// LastRegenerated is the zero time until the first fetch.
func (e *FileEntry) LastRegenerated() time.Time { return e.lastRegenerated }
