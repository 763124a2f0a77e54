package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	builtin "github.com/404wolf/livefs/builtin"
	common "github.com/404wolf/livefs/common"
	"github.com/404wolf/livefs/livefs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"
)

// How long the loop waits on the readiness descriptor before checking for
// signals again
const pollTimeout = 100 * time.Millisecond

var mountCmd = &cobra.Command{
	Use:   "mount <directory>",
	Short: "Mount livefs on a directory and serve it until quit is read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := LoadConfig()
		config.MountPoint = args[0]
		return serve(config)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config := LoadConfig()
		cmd.OutOrStdout().Write(builtin.NewConfig(config).Generate())
	},
}

// serve mounts livefs and runs the event loop on this goroutine until the
// quit file is read or the process is interrupted.
func serve(config *common.LivefsConfig) error {
	started := time.Now()
	session := livefs.Init(livefs.Options{
		MountPoint:     config.MountPoint,
		CoalesceWindow: config.CoalesceWindow,
		EntryTimeout:   config.EntryTimeout,
		AttrTimeout:    config.AttrTimeout,
		DirectIO:       config.DirectIO,
		AllowOther:     config.AllowOther,
		Debug:          config.GoFuseDebug,
		Logger:         common.Logger,
	})

	running := true
	state := builtin.NewState()
	err := builtin.Register(builtin.Env{
		Session: session,
		Config:  config,
		State:   state,
		Running: &running,
		Started: started,
	}, config.Files)
	if err != nil {
		unmount(session)
		return err
	}
	common.Logger.Infof("Serving livefs at %s, read %s to stop", config.MountPoint, filepath.Join(config.MountPoint, builtin.QuitFile))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go recordTicks(ctx, state, config.TickInterval)

	fds := []unix.PollFd{{Fd: int32(session.ReadinessDescriptor()), Events: unix.POLLIN}}
	for running && ctx.Err() == nil {
		if _, err := unix.Poll(fds, int(pollTimeout.Milliseconds())); err != nil && err != unix.EINTR {
			return fmt.Errorf("polling livefs: %w", err)
		}
		session.ProcessOne()
	}

	if ctx.Err() != nil {
		common.Logger.Info("Received interrupt signal")
	} else {
		common.Logger.Info("Quit file was read")
	}

	if !config.AutoUnmount {
		common.Logger.Infof("Leaving livefs mounted, unmount by calling 'fusermount -u %s'", config.MountPoint)
		return nil
	}
	return unmount(session)
}

type unmounter interface {
	Unmount() error
}

// unmount detaches the filesystem and reports any failure.
func unmount(m unmounter) error {
	if err := m.Unmount(); err != nil {
		common.ReportError("Error unmounting", err)
		return err
	}
	return nil
}

func MountInit() {
	flags := mountCmd.Flags()
	flags.Duration("coalesce-window", livefs.DefaultCoalesceWindow, "how long generated content is reused")
	flags.Duration("entry-timeout", time.Second, "how long the kernel caches name lookups")
	flags.Duration("attr-timeout", time.Second, "how long the kernel caches attributes")
	flags.Bool("direct-io", true, "bypass the kernel page cache for reads")
	flags.Bool("allow-other", false, "allow other users to access the mount")
	flags.Bool("auto-unmount", true, "automatically unmount directory on exit")
	flags.Bool("fuse-debug", false, "enable go fuse's debug mode")
	flags.Duration("tick-interval", time.Second, "how often the background worker records state")
	flags.StringSlice("files", builtin.DefaultFiles, "builtin files to expose")

	for key, flag := range map[string]string{
		"coalesceWindow": "coalesce-window",
		"entryTimeout":   "entry-timeout",
		"attrTimeout":    "attr-timeout",
		"directIO":       "direct-io",
		"allowOther":     "allow-other",
		"autoUnmount":    "auto-unmount",
		"goFuseDebug":    "fuse-debug",
		"tickInterval":   "tick-interval",
		"files":          "files",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(mountCmd)
}

func ConfigInit() {
	rootCmd.AddCommand(configCmd)
}
