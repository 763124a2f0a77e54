package livefs

import (
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"go.uber.org/zap"
)

const (
	RootMode = syscall.S_IFDIR | 0444
	FileMode = syscall.S_IFREG | 0444
)

// HandlerOptions tune the replies sent to the kernel.
type HandlerOptions struct {
	// How long the kernel may cache a name lookup
	EntryTimeout time.Duration

	// How long the kernel may cache attributes
	AttrTimeout time.Duration

	// Ask the kernel to bypass its page cache for file reads
	DirectIO bool

	// Owner reported for the root and every file
	Owner fuse.Owner

	// Timestamp reported for the root directory
	Started time.Time

	Logger  *zap.SugaredLogger
	Metrics *Metrics
}

// Handlers answers filesystem requests from the Registry and ContentCache.
// They keep no state between requests, and each method returns the single
// status that is replied to the kernel.
type Handlers struct {
	registry *Registry
	cache    *ContentCache
	opts     HandlerOptions
	logger   *zap.SugaredLogger
	metrics  *Metrics
}

func NewHandlers(registry *Registry, cache *ContentCache, opts HandlerOptions) *Handlers {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Started.IsZero() {
		opts.Started = time.Now()
	}
	return &Handlers{
		registry: registry,
		cache:    cache,
		opts:     opts,
		logger:   logger,
		metrics:  opts.Metrics,
	}
}

func (h *Handlers) reply(op string, errno syscall.Errno) syscall.Errno {
	h.metrics.request(op, errno)
	if errno != OK {
		h.logger.Debugw("Request failed", "op", op, "status", statusName(errno))
	}
	return errno
}

func (h *Handlers) rootAttr(out *fuse.Attr) {
	out.Ino = RootInode
	out.Mode = RootMode
	out.Nlink = uint32(2 + h.registry.Len())
	out.Owner = h.opts.Owner
	out.SetTimes(&h.opts.Started, &h.opts.Started, &h.opts.Started)
}

func (h *Handlers) fileAttr(entry *FileEntry, size int, out *fuse.Attr) {
	out.Ino = entry.inode
	out.Mode = FileMode
	out.Nlink = 1
	out.Size = uint64(size)
	out.Blocks = (out.Size + 511) / 512
	out.Owner = h.opts.Owner
	modified := entry.lastRegenerated
	out.SetTimes(&modified, &modified, &modified)
}

// Lookup resolves a name in the root directory. Content is fetched so the
// reported size matches what a read will return.
func (h *Handlers) Lookup(parent uint64, name string, out *fuse.EntryOut) syscall.Errno {
	if parent != RootInode {
		return h.reply("lookup", ErrNotFound)
	}
	entry, ok := h.registry.LookupName(name)
	if !ok {
		return h.reply("lookup", ErrNotFound)
	}

	content := h.cache.Fetch(entry)
	out.NodeId = entry.inode
	h.fileAttr(entry, len(content), &out.Attr)
	out.SetEntryTimeout(h.opts.EntryTimeout)
	out.SetAttrTimeout(h.opts.AttrTimeout)
	return h.reply("lookup", OK)
}

func (h *Handlers) GetAttr(inode uint64, out *fuse.AttrOut) syscall.Errno {
	if inode == RootInode {
		h.rootAttr(&out.Attr)
		out.SetTimeout(h.opts.AttrTimeout)
		return h.reply("getattr", OK)
	}
	entry, ok := h.registry.Get(inode)
	if !ok {
		return h.reply("getattr", ErrNotFound)
	}

	content := h.cache.Fetch(entry)
	h.fileAttr(entry, len(content), &out.Attr)
	out.SetTimeout(h.opts.AttrTimeout)
	return h.reply("getattr", OK)
}

// Open only permits read-only opens of registered files. No per-open state
// is kept.
func (h *Handlers) Open(inode uint64, flags uint32, out *fuse.OpenOut) syscall.Errno {
	if inode == RootInode {
		return h.reply("open", ErrIsDirectory)
	}
	if flags&syscall.O_ACCMODE != syscall.O_RDONLY {
		return h.reply("open", ErrAccessDenied)
	}
	if _, ok := h.registry.Get(inode); !ok {
		return h.reply("open", ErrNotFound)
	}

	if h.opts.DirectIO {
		out.OpenFlags |= fuse.FOPEN_DIRECT_IO
	}
	return h.reply("open", OK)
}

// Read returns the requested window of the file's content and the entry
// whose notify hook must run once the reply has been sent.
func (h *Handlers) Read(inode uint64, size uint32, offset uint64) ([]byte, *FileEntry, syscall.Errno) {
	entry, ok := h.registry.Get(inode)
	if !ok {
		return nil, nil, h.reply("read", ErrNotFound)
	}
	content := h.cache.Fetch(entry)
	return sliceWindow(content, offset, size), entry, h.reply("read", OK)
}

// AfterRead runs the entry's read notify hook, if it has one.
func (h *Handlers) AfterRead(entry *FileEntry) {
	if entry == nil || entry.notify == nil {
		return
	}
	h.logger.Debugw("Running read notify", "file", entry.name, "inode", entry.inode)
	entry.notify(entry)
}

func (h *Handlers) OpenDir(inode uint64) syscall.Errno {
	if inode == RootInode {
		return h.reply("opendir", OK)
	}
	if _, ok := h.registry.Get(inode); ok {
		return h.reply("opendir", ErrNotDirectory)
	}
	return h.reply("opendir", ErrNotFound)
}

// ReadDir encodes ".", ".." and every registered file, in that order, as
// kernel directory records and returns the requested window of the result.
// The buffer is measured first and then filled, so it is allocated once at
// its exact size.
func (h *Handlers) ReadDir(inode uint64, size uint32, offset uint64) ([]byte, syscall.Errno) {
	if inode != RootInode {
		return nil, h.reply("readdir", ErrNotDirectory)
	}

	entries := h.registry.Entries()

	total := encodeDirent(nil, ".", RootInode, RootMode, 0)
	total += encodeDirent(nil, "..", RootInode, RootMode, 0)
	for _, entry := range entries {
		total += encodeDirent(nil, entry.name, entry.inode, FileMode, 0)
	}

	buf := make([]byte, total)
	pos := 0
	add := func(name string, inode uint64, mode uint32) {
		next := pos + direntSize(name)
		pos += encodeDirent(buf[pos:next], name, inode, mode, uint64(next))
	}
	add(".", RootInode, RootMode)
	add("..", RootInode, RootMode)
	for _, entry := range entries {
		add(entry.name, entry.inode, FileMode)
	}

	// A buffer too small for the next record would read as end of
	// directory.
	window := sliceWindow(buf, offset, size)
	if len(window) > 0 && len(decodeDirents(window)) == 0 {
		return nil, h.reply("readdir", ErrInvalid)
	}
	return window, h.reply("readdir", OK)
}

func (h *Handlers) StatFs(out *fuse.StatfsOut) syscall.Errno {
	out.Bsize = 512
	out.Frsize = 512
	out.NameLen = 255
	out.Files = uint64(1 + h.registry.Len())
	return h.reply("statfs", OK)
}

// Extended attributes are not supported on any inode.

func (h *Handlers) SetXAttr(inode uint64, name string, value []byte) syscall.Errno {
	return h.reply("setxattr", ErrNotSupported)
}

func (h *Handlers) GetXAttr(inode uint64, name string) ([]byte, syscall.Errno) {
	return nil, h.reply("getxattr", ErrNotSupported)
}

func (h *Handlers) RemoveXAttr(inode uint64, name string) syscall.Errno {
	return h.reply("removexattr", ErrNotSupported)
}

// sliceWindow returns buf[offset:offset+size] clamped to the buffer. An
// offset past the end yields no bytes.
func sliceWindow(buf []byte, offset uint64, size uint32) []byte {
	if offset >= uint64(len(buf)) {
		return []byte{}
	}
	end := offset + uint64(size)
	if end > uint64(len(buf)) {
		end = uint64(len(buf))
	}
	return buf[offset:end]
}
