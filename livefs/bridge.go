package livefs

import (
	"github.com/hanwen/go-fuse/v2/fuse"
	"go.uber.org/zap"
)

// bridge is the fuse.RawFileSystem handed to the go-fuse server. go-fuse
// calls it from its own goroutines; every call is turned into a task on the
// work queue and runs on the loop thread, while the calling goroutine waits
// for the result and writes the reply. Operations it does not override are
// answered with ENOSYS by the embedded default.
type bridge struct {
	fuse.RawFileSystem
	handlers *Handlers
	queue    *workQueue
	logger   *zap.SugaredLogger
}

func newBridge(handlers *Handlers, queue *workQueue, logger *zap.SugaredLogger) *bridge {
	return &bridge{
		RawFileSystem: fuse.NewDefaultRawFileSystem(),
		handlers:      handlers,
		queue:         queue,
		logger:        logger,
	}
}

// call runs fn on the loop thread and waits for it to finish.
func (b *bridge) call(fn func()) {
	done := make(chan struct{})
	b.queue.push(func() {
		defer close(done)
		fn()
	})
	<-done
}

func (b *bridge) String() string {
	return "livefs"
}

func (b *bridge) Init(server *fuse.Server) {
	settings := server.KernelSettings()
	b.logger.Infow("Kernel connected",
		"protocol", settings.Major,
		"minor", settings.Minor,
		"maxReadAhead", settings.MaxReadAhead,
	)
}

func (b *bridge) OnUnmount() {
	b.logger.Info("Filesystem unmounted")
}

func (b *bridge) Lookup(cancel <-chan struct{}, header *fuse.InHeader, name string, out *fuse.EntryOut) fuse.Status {
	status := fuse.EIO
	b.call(func() {
		status = fuse.Status(b.handlers.Lookup(header.NodeId, name, out))
	})
	return status
}

func (b *bridge) GetAttr(cancel <-chan struct{}, input *fuse.GetAttrIn, out *fuse.AttrOut) fuse.Status {
	status := fuse.EIO
	b.call(func() {
		status = fuse.Status(b.handlers.GetAttr(input.NodeId, out))
	})
	return status
}

func (b *bridge) Open(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	status := fuse.EIO
	b.call(func() {
		status = fuse.Status(b.handlers.Open(input.NodeId, input.Flags, out))
	})
	return status
}

func (b *bridge) Read(cancel <-chan struct{}, input *fuse.ReadIn, buf []byte) (fuse.ReadResult, fuse.Status) {
	status := fuse.EIO
	var result *readResult
	b.call(func() {
		data, entry, errno := b.handlers.Read(input.NodeId, input.Size, input.Offset)
		status = fuse.Status(errno)
		if errno != OK {
			return
		}
		// Copy while still on the loop thread; the entry's content may be
		// replaced by the next fetch.
		if len(buf) < len(data) {
			buf = make([]byte, len(data))
		}
		n := copy(buf, data)
		result = &readResult{data: buf[:n]}
		if entry.notify != nil {
			result.done = func() {
				b.queue.push(func() { b.handlers.AfterRead(entry) })
			}
		}
	})
	if status != fuse.OK {
		return nil, status
	}
	return result, fuse.OK
}

func (b *bridge) Release(cancel <-chan struct{}, input *fuse.ReleaseIn) {}

func (b *bridge) OpenDir(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	status := fuse.EIO
	b.call(func() {
		status = fuse.Status(b.handlers.OpenDir(input.NodeId))
	})
	return status
}

func (b *bridge) ReadDir(cancel <-chan struct{}, input *fuse.ReadIn, out *fuse.DirEntryList) fuse.Status {
	status := fuse.EIO
	var records []dirent
	b.call(func() {
		buf, errno := b.handlers.ReadDir(input.NodeId, input.Size, input.Offset)
		status = fuse.Status(errno)
		records = decodeDirents(buf)
	})
	if status != fuse.OK {
		return status
	}
	for _, record := range records {
		if !out.AddDirEntry(fuse.DirEntry{
			Name: record.Name,
			Ino:  record.Ino,
			Mode: record.Mode(),
			Off:  record.Off,
		}) {
			break
		}
	}
	return fuse.OK
}

func (b *bridge) ReleaseDir(input *fuse.ReleaseIn) {}

func (b *bridge) StatFs(cancel <-chan struct{}, header *fuse.InHeader, out *fuse.StatfsOut) fuse.Status {
	status := fuse.EIO
	b.call(func() {
		status = fuse.Status(b.handlers.StatFs(out))
	})
	return status
}

func (b *bridge) GetXAttr(cancel <-chan struct{}, header *fuse.InHeader, attr string, dest []byte) (uint32, fuse.Status) {
	status := fuse.EIO
	var value []byte
	b.call(func() {
		v, errno := b.handlers.GetXAttr(header.NodeId, attr)
		value, status = v, fuse.Status(errno)
	})
	if status != fuse.OK {
		return 0, status
	}
	if len(dest) < len(value) {
		return uint32(len(value)), fuse.ERANGE
	}
	return uint32(copy(dest, value)), fuse.OK
}

func (b *bridge) SetXAttr(cancel <-chan struct{}, input *fuse.SetXAttrIn, attr string, data []byte) fuse.Status {
	status := fuse.EIO
	b.call(func() {
		status = fuse.Status(b.handlers.SetXAttr(input.NodeId, attr, data))
	})
	return status
}

func (b *bridge) RemoveXAttr(cancel <-chan struct{}, header *fuse.InHeader, attr string) fuse.Status {
	status := fuse.EIO
	b.call(func() {
		status = fuse.Status(b.handlers.RemoveXAttr(header.NodeId, attr))
	})
	return status
}

// readResult is the reply to a read. go-fuse calls Done after the reply has
// been written to the kernel, which is when the read notify hook is queued.
type readResult struct {
	data []byte
	done func()
}

func (r *readResult) Bytes(buf []byte) ([]byte, fuse.Status) {
	return r.data, fuse.OK
}

func (r *readResult) Size() int {
	return len(r.data)
}

func (r *readResult) Done() {
	if r.done != nil {
		r.done()
	}
}
