package livefs

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// Pending requests are parked here until the loop thread runs them.
const queueCapacity = 1024

type task func()

// workQueue hands work from FUSE server goroutines to the thread that calls
// ProcessOne. An eventfd in semaphore mode counts queued tasks, so it
// becomes readable exactly when there is something to run.
//
// push adds to the channel before bumping the counter and runOne decrements
// the counter before taking from the channel, so a successful counter read
// always has a task behind it.
type workQueue struct {
	fd     int
	tasks  chan task
	closed bool
}

func newWorkQueue() (*workQueue, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK|unix.EFD_SEMAPHORE)
	if err != nil {
		return nil, fmt.Errorf("creating eventfd: %w", err)
	}
	return &workQueue{fd: fd, tasks: make(chan task, queueCapacity)}, nil
}

func (q *workQueue) push(t task) {
	q.tasks <- t

	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	for {
		if _, err := unix.Write(q.fd, buf[:]); err != unix.EINTR {
			return
		}
	}
}

// runOne runs at most one task. It never blocks: with nothing queued the
// counter read fails with EAGAIN and it returns false, and EINTR is treated
// the same way.
func (q *workQueue) runOne() bool {
	var buf [8]byte
	if _, err := unix.Read(q.fd, buf[:]); err != nil {
		return false
	}
	select {
	case t := <-q.tasks:
		t()
		return true
	default:
		return false
	}
}

// close releases the eventfd. Later calls are no-ops so a descriptor number
// reused elsewhere is never closed twice.
func (q *workQueue) close() error {
	if q.closed {
		return nil
	}
	q.closed = true
	return unix.Close(q.fd)
}
