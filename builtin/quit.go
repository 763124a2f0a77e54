package builtin

import "github.com/404wolf/livefs/livefs"

var quitContent = []byte("quit\n")

// RegisterQuit adds a file that reads "quit\n". Reading it sets *running to
// false once the reply has been sent, which lets `cat quit` stop the loop.
func RegisterQuit(session *livefs.Session, running *bool) {
	session.Register(QuitFile, running, quitGenerate, quitNotify)
}

func quitGenerate(*livefs.FileEntry) []byte {
	return quitContent
}

func quitNotify(entry *livefs.FileEntry) {
	if running, ok := entry.Context().(*bool); ok && running != nil {
		*running = false
	}
}
