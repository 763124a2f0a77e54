package livefs

// Inode numbers the kernel sees. The root is fixed; files count up from
// firstFileInode and are never reused.
const (
	RootInode      uint64 = 1
	firstFileInode uint64 = 2
)

// Registry maps inodes to files. It is only touched from the loop thread.
type Registry struct {
	nextInode uint64
	entries   []*FileEntry
	byInode   map[uint64]*FileEntry
}

func NewRegistry() *Registry {
	return &Registry{
		nextInode: firstFileInode,
		byInode:   make(map[uint64]*FileEntry),
	}
}

// Add a file and assign it the next inode
func (r *Registry) Add(name string, context any, generate GenerateFunc, notify NotifyFunc) *FileEntry {
	entry := &FileEntry{
		inode:    r.nextInode,
		name:     name,
		context:  context,
		generate: generate,
		notify:   notify,
	}
	r.nextInode++
	r.entries = append(r.entries, entry)
	r.byInode[entry.inode] = entry
	return entry
}

func (r *Registry) Get(inode uint64) (*FileEntry, bool) {
	entry, ok := r.byInode[inode]
	return entry, ok
}

// LookupName scans in registration order, so the first file registered
// under a duplicated name wins.
func (r *Registry) LookupName(name string) (*FileEntry, bool) {
	for _, entry := range r.entries {
		if entry.name == name {
			return entry, true
		}
	}
	return nil, false
}

func (r *Registry) Len() int { return len(r.entries) }

// Entries returns the files in ascending inode order. The slice must not be
// modified.
func (r *Registry) Entries() []*FileEntry { return r.entries }

// NextInode is the inode the next Add will assign.
func (r *Registry) NextInode() uint64 { return r.nextInode }
