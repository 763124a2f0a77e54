package builtin

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/404wolf/livefs/livefs"
	"github.com/dustin/go-humanize"
)

// FileLister is implemented by *livefs.Session.
type FileLister interface {
	Files() []*livefs.FileEntry
}

// Files lists every registered file with its inode, last generated size and
// when it was last generated.
type Files struct {
	lister FileLister
	now    func() time.Time
}

func NewFiles(lister FileLister) *Files {
	return &Files{lister: lister, now: time.Now}
}

func (f *Files) Generate() []byte {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INODE\tNAME\tSIZE\tGENERATED")
	for _, entry := range f.lister.Files() {
		generated := "never"
		if last := entry.LastRegenerated(); !last.IsZero() {
			generated = humanize.RelTime(last, f.now(), "ago", "from now")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			entry.Inode(),
			entry.Name(),
			humanize.IBytes(uint64(len(entry.Content()))),
			generated,
		)
	}
	w.Flush()
	return buf.Bytes()
}
