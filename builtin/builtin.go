// Package builtin provides ready made dynamic files that expose the state
// of the running process through a livefs session.
package builtin

import (
	"fmt"
	"time"

	common "github.com/404wolf/livefs/common"
	"github.com/404wolf/livefs/livefs"
)

// Names of the builtin files, in the order they are registered by default
const (
	QuitFile    = "quit"
	ProcessFile = "process"
	MetricsFile = "metrics"
	ConfigFile  = "config"
	StateFile   = "state"
	FilesFile   = "files"
)

var DefaultFiles = []string{QuitFile, ProcessFile, MetricsFile, ConfigFile, StateFile, FilesFile}

// Env is what the builtin files read from. Running is cleared by a read of
// the quit file and must only be read from the loop thread.
type Env struct {
	Session *livefs.Session
	Config  *common.LivefsConfig
	State   *State
	Running *bool
	Started time.Time
}

// Register the named builtin files on the session, in order. It must be
// called from the loop thread.
func Register(env Env, names []string) error {
	for _, name := range names {
		switch name {
		case QuitFile:
			RegisterQuit(env.Session, env.Running)
		case ProcessFile:
			env.Session.RegisterProvider(ProcessFile, NewProcess(env.Session.ID(), env.Started))
		case MetricsFile:
			env.Session.RegisterProvider(MetricsFile, NewMetrics(env.Session.Metrics()))
		case ConfigFile:
			env.Session.RegisterProvider(ConfigFile, NewConfig(env.Config))
		case StateFile:
			env.Session.RegisterProvider(StateFile, env.State)
		case FilesFile:
			env.Session.RegisterProvider(FilesFile, NewFiles(env.Session))
		default:
			return fmt.Errorf("unknown builtin file %q", name)
		}
		common.Logger.Debugw("Registered builtin file", "name", name)
	}
	return nil
}
