package livefs_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/404wolf/livefs/livefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// TestData holds a mounted session and the loop serving it
type TestData struct {
	MountPoint string
	Session    *livefs.Session
	Cleanup    func()
}

// SetupTests mounts a session in a temporary directory and serves it from a
// background loop. Tests are skipped where FUSE is unavailable.
func SetupTests(t *testing.T, register func(s *livefs.Session)) TestData {
	t.Helper()

	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("FUSE is not available:", err)
	}

	mountPoint := filepath.Join(t.TempDir(), "mnt")
	opts := livefs.DefaultOptions(mountPoint)
	opts.EntryTimeout = 0
	opts.AttrTimeout = 0
	session, err := livefs.Mount(opts)
	if err != nil {
		t.Skip("Mounting is not permitted here:", err)
	}
	register(session)

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		fds := []unix.PollFd{{Fd: int32(session.ReadinessDescriptor()), Events: unix.POLLIN}}
		for {
			select {
			case <-stop:
				return
			default:
			}
			unix.Poll(fds, 10)
			session.ProcessOne()
		}
	}()

	cleanup := func() {
		close(stop)
		<-stopped
		assert.NoError(t, session.Unmount())
	}

	return TestData{MountPoint: mountPoint, Session: session, Cleanup: cleanup}
}

func TestMountedFilesystem(t *testing.T) {
	var running atomic.Bool
	running.Store(true)

	testData := SetupTests(t, func(s *livefs.Session) {
		s.Register("quit", nil, staticFile("quit\n"), func(*livefs.FileEntry) {
			running.Store(false)
		})
		s.Register("reads", nil, staticFile("generated\n"), nil)
	})
	defer testData.Cleanup()

	t.Run("Directory listing", func(t *testing.T) {
		entries, err := os.ReadDir(testData.MountPoint)
		require.NoError(t, err)
		var names []string
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		assert.ElementsMatch(t, []string{"quit", "reads"}, names)
	})

	t.Run("Stat reports read-only files", func(t *testing.T) {
		info, err := os.Stat(filepath.Join(testData.MountPoint, "reads"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0444), info.Mode().Perm())
		assert.EqualValues(t, len("generated\n"), info.Size())
	})

	t.Run("Reading quit flips the flag", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(testData.MountPoint, "quit"))
		require.NoError(t, err)
		assert.Equal(t, "quit\n", string(data))
		assert.Eventually(t, func() bool { return !running.Load() }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("Writes are refused", func(t *testing.T) {
		err := os.WriteFile(filepath.Join(testData.MountPoint, "quit"), []byte("x"), 0644)
		assert.Error(t, err)
	})

	t.Run("Missing files", func(t *testing.T) {
		_, err := os.Stat(filepath.Join(testData.MountPoint, "missing"))
		assert.True(t, os.IsNotExist(err))
	})
}

// mountAndRelease mounts on path and, if that worked, unmounts again so the
// underlying directory can be inspected. The mount error is returned.
func mountAndRelease(t *testing.T, path string) error {
	t.Helper()
	session, err := livefs.Mount(livefs.DefaultOptions(path))
	if err == nil {
		require.NoError(t, session.Unmount())
	}
	return err
}

func TestMountPointCreation(t *testing.T) {
	t.Run("Missing directory is created owner only", func(t *testing.T) {
		mountPoint := filepath.Join(t.TempDir(), "mnt")
		err := mountAndRelease(t, mountPoint)
		if err != nil {
			t.Log("Mount failed, checking the directory anyway:", err)
		}

		info, statErr := os.Stat(mountPoint)
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})

	t.Run("Existing directory is reused", func(t *testing.T) {
		mountPoint := filepath.Join(t.TempDir(), "mnt")
		require.NoError(t, os.Mkdir(mountPoint, 0755))
		require.NoError(t, os.Chmod(mountPoint, 0755))

		err := mountAndRelease(t, mountPoint)
		assert.NotErrorIs(t, err, os.ErrExist)
		if err != nil {
			assert.NotContains(t, err.Error(), "mkdir")
		}

		info, statErr := os.Stat(mountPoint)
		require.NoError(t, statErr)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	})
}
