package livefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/subosito/gozaru"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Options configure a Session. Start from DefaultOptions; zero durations
// are taken literally, so a zero CoalesceWindow regenerates content on
// every request made at a new instant.
type Options struct {
	// Directory the filesystem is mounted on. Created with mode 0700 if
	// it does not exist.
	MountPoint string

	// How long generated content is reused
	CoalesceWindow time.Duration

	EntryTimeout time.Duration
	AttrTimeout  time.Duration

	// Open files with FOPEN_DIRECT_IO so the page cache never serves stale
	// content
	DirectIO bool

	// Let users other than the mounting user access the filesystem.
	// Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Log every FUSE request and reply
	Debug bool

	Clock   Clock
	Logger  *zap.SugaredLogger
	Metrics *Metrics
}

func DefaultOptions(mountPoint string) Options {
	return Options{
		MountPoint:     mountPoint,
		CoalesceWindow: DefaultCoalesceWindow,
		EntryTimeout:   time.Second,
		AttrTimeout:    time.Second,
		DirectIO:       true,
	}
}

// Session is a mounted filesystem. Apart from Unmount, its methods must
// all be called from the same thread: the one that polls
// ReadinessDescriptor and calls ProcessOne.
type Session struct {
	id         string
	mountPoint string
	registry   *Registry
	cache      *ContentCache
	handlers   *Handlers
	queue      *workQueue
	bridge     *bridge
	server     *fuse.Server
	logger     *zap.SugaredLogger
	metrics    *Metrics
}

// Build everything but the kernel connection
func newSession(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	queue, err := newWorkQueue()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger = logger.With("session", id)

	registry := NewRegistry()
	cache := NewContentCache(opts.CoalesceWindow, opts.Clock, metrics)
	handlers := NewHandlers(registry, cache, HandlerOptions{
		EntryTimeout: opts.EntryTimeout,
		AttrTimeout:  opts.AttrTimeout,
		DirectIO:     opts.DirectIO,
		Owner:        fuse.Owner{Uid: uint32(os.Getuid()), Gid: uint32(os.Getgid())},
		Started:      time.Now(),
		Logger:       logger,
		Metrics:      metrics,
	})

	return &Session{
		id:         id,
		mountPoint: opts.MountPoint,
		registry:   registry,
		cache:      cache,
		handlers:   handlers,
		queue:      queue,
		bridge:     newBridge(handlers, queue, logger),
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// Mount creates the mount point if needed and performs the mount handshake
// with the kernel. Requests that arrive during the handshake are served on
// the calling thread.
func Mount(opts Options) (*Session, error) {
	s, err := newSession(opts)
	if err != nil {
		return nil, err
	}

	createMountPoint(opts.MountPoint, s.logger)

	s.logger.Infow("Mounting livefs", "mountPoint", opts.MountPoint)
	server, err := fuse.NewServer(s.bridge, opts.MountPoint, &fuse.MountOptions{
		FsName:             "livefs",
		Name:               "livefs",
		SyncRead:           true,
		DisableReadDirPlus: true,
		AllowOther:         opts.AllowOther,
		Debug:              opts.Debug,
		Logger:             zap.NewStdLog(s.logger.Desugar()),
	})
	if err != nil {
		s.queue.close()
		return nil, fmt.Errorf("mounting %s: %w", opts.MountPoint, err)
	}
	s.server = server
	go server.Serve()

	mounted := make(chan error, 1)
	go func() { mounted <- server.WaitMount() }()
	if err := s.pumpUntil(mounted); err != nil {
		if aerr := s.abort(); aerr != nil {
			s.logger.Warnw("Could not tear down failed mount", "mountPoint", opts.MountPoint, "error", aerr)
		}
		return nil, fmt.Errorf("waiting for mount of %s: %w", opts.MountPoint, err)
	}

	s.logger.Infow("Mounted livefs", "mountPoint", opts.MountPoint)
	return s, nil
}

// Init is Mount for programs that cannot run without the filesystem: a
// failed handshake is logged and the process exits.
func Init(opts Options) *Session {
	s, err := Mount(opts)
	if err != nil {
		logger := opts.Logger
		if logger == nil {
			logger = zap.NewNop().Sugar()
		}
		logger.Fatalw("Mount failed", "mountPoint", opts.MountPoint, "error", err)
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) MountPoint() string { return s.mountPoint }

func (s *Session) Metrics() *Metrics { return s.metrics }

// ReadinessDescriptor becomes readable when ProcessOne has work to do.
func (s *Session) ReadinessDescriptor() int {
	return s.queue.fd
}

// ProcessOne handles at most one pending request and never blocks. It is
// a no-op when nothing is pending. A file's read notify runs on a later
// call, once go-fuse has written the read reply, so its effects show up one
// wake-up after the read itself.
func (s *Session) ProcessOne() {
	s.queue.runOne()
}

// Register adds a file to the root directory. generate is required; notify
// may be nil. Names that cannot appear in a directory are sanitized.
func (s *Session) Register(name string, context any, generate GenerateFunc, notify NotifyFunc) {
	if generate == nil {
		panic(fmt.Sprintf("livefs: file %q registered without a generator", name))
	}
	if !validName(name) {
		safe := gozaru.Sanitize(name)
		if !validName(safe) {
			safe = fmt.Sprintf("file%d", s.registry.NextInode())
		}
		s.logger.Warnw("Sanitized file name", "name", name, "sanitized", safe)
		name = safe
	}

	entry := s.registry.Add(name, context, generate, notify)
	s.metrics.registered()
	s.logger.Infow("Registered file", "name", name, "inode", entry.inode)
}

// RegisterProvider registers p.Generate as the file's generator, and
// p.OnRead as its notify hook if p is a ReadNotifier.
func (s *Session) RegisterProvider(name string, p Provider) {
	var notify NotifyFunc
	if n, ok := p.(ReadNotifier); ok {
		notify = func(*FileEntry) { n.OnRead() }
	}
	s.Register(name, p, func(*FileEntry) []byte { return p.Generate() }, notify)
}

// Files lists the registered files in inode order.
func (s *Session) Files() []*FileEntry {
	return s.registry.Entries()
}

// Unmount detaches the filesystem. It keeps serving queued requests on the
// calling thread until go-fuse has shut down, then closes the readiness
// descriptor.
func (s *Session) Unmount() error {
	if s.server == nil {
		return s.queue.close()
	}
	done := make(chan error, 1)
	go func() { done <- s.server.Unmount() }()
	if err := s.pumpUntil(done); err != nil {
		return fmt.Errorf("unmounting %s: %w", s.mountPoint, err)
	}
	s.logger.Infow("Unmounted livefs", "mountPoint", s.mountPoint)
	return s.queue.close()
}

// abort unmounts a server whose handshake could not be waited on. Polling
// is what failed, so queued requests are drained on a timer instead.
func (s *Session) abort() error {
	var err error
	if s.server != nil {
		done := make(chan error, 1)
		go func() { done <- s.server.Unmount() }()
	drain:
		for {
			select {
			case err = <-done:
				break drain
			default:
			}
			if !s.queue.runOne() {
				time.Sleep(10 * time.Millisecond)
			}
		}
		s.server = nil
	}
	if cerr := s.queue.close(); err == nil {
		err = cerr
	}
	return err
}

// createMountPoint makes path owner-only if it is missing. Any failure is
// left for the mount itself to report.
func createMountPoint(path string, logger *zap.SugaredLogger) {
	if err := os.Mkdir(path, 0700); err != nil && !errors.Is(err, fs.ErrExist) {
		logger.Debugw("Could not create mount point", "path", path, "error", err)
	}
}

// pumpUntil runs queued requests until done yields.
func (s *Session) pumpUntil(done <-chan error) error {
	fds := []unix.PollFd{{Fd: int32(s.queue.fd), Events: unix.POLLIN}}
	for {
		select {
		case err := <-done:
			return err
		default:
		}
		if s.queue.runOne() {
			continue
		}
		if _, err := unix.Poll(fds, 10); err != nil && err != unix.EINTR {
			return fmt.Errorf("polling work queue: %w", err)
		}
	}
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/\x00")
}
