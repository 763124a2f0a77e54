package builtin

import (
	"strings"
	"sync"
	"testing"
	"time"

	common "github.com/404wolf/livefs/common"
	"github.com/404wolf/livefs/livefs"
	"github.com/goccy/go-yaml"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlers(registry *livefs.Registry) *livefs.Handlers {
	return livefs.NewHandlers(registry, livefs.NewContentCache(0, nil, nil), livefs.HandlerOptions{})
}

func TestQuit(t *testing.T) {
	registry := livefs.NewRegistry()
	handlers := newHandlers(registry)
	running := true
	registry.Add(QuitFile, &running, quitGenerate, quitNotify)

	var out fuse.EntryOut
	require.Equal(t, livefs.OK, handlers.Lookup(livefs.RootInode, QuitFile, &out))
	assert.EqualValues(t, 5, out.Size)

	data, entry, errno := handlers.Read(out.NodeId, 5, 0)
	require.Equal(t, livefs.OK, errno)
	assert.Equal(t, "quit\n", string(data))
	assert.True(t, running)

	handlers.AfterRead(entry)
	assert.False(t, running)
}

func TestRegisterUnknownFile(t *testing.T) {
	err := Register(Env{}, []string{"bogus"})
	assert.ErrorContains(t, err, "bogus")
}

func TestProcess(t *testing.T) {
	started := time.Now().Add(-90 * time.Second)
	p := NewProcess("session-id", started)
	p.now = func() time.Time { return started.Add(90 * time.Second) }

	out := string(p.Generate())
	assert.Contains(t, out, "session: session-id\n")
	assert.Contains(t, out, "uptime: 1m30s\n")
	assert.Contains(t, out, "goroutines: ")
	assert.Contains(t, out, "heap: ")
}

func TestMetrics(t *testing.T) {
	metrics := livefs.NewMetrics()
	registry := livefs.NewRegistry()
	handlers := livefs.NewHandlers(registry, livefs.NewContentCache(0, nil, metrics), livefs.HandlerOptions{Metrics: metrics})

	var out fuse.EntryOut
	handlers.Lookup(livefs.RootInode, "missing", &out)

	text := string(NewMetrics(metrics).Generate())
	assert.Contains(t, text, "# TYPE livefs_requests_total counter")
	assert.Contains(t, text, `livefs_requests_total{op="lookup",status="ENOENT"} 1`)
}

func TestConfig(t *testing.T) {
	config := &common.LivefsConfig{
		MountPoint:     "/tmp/livefs",
		CoalesceWindow: 100 * time.Millisecond,
		EntryTimeout:   time.Second,
		AttrTimeout:    time.Second,
		DirectIO:       true,
		Files:          []string{QuitFile},
	}

	out := NewConfig(config).Generate()
	assert.Contains(t, string(out), "coalesceWindow: 100ms")

	var parsed struct {
		MountPoint string   `yaml:"mountPoint"`
		DirectIO   bool     `yaml:"directIO"`
		Files      []string `yaml:"files"`
	}
	require.NoError(t, yaml.Unmarshal(out, &parsed))
	assert.Equal(t, "/tmp/livefs", parsed.MountPoint)
	assert.True(t, parsed.DirectIO)
	assert.Equal(t, []string{QuitFile}, parsed.Files)
}

func TestState(t *testing.T) {
	state := NewState()
	assert.Equal(t, "{}\n", string(state.Generate()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				state.Add("ticks", 1)
			}
		}()
	}
	wg.Wait()
	state.Set("b", "second")
	state.Set("a", "first")

	value, ok := state.Get("ticks")
	require.True(t, ok)
	assert.Equal(t, 800, value)

	out := string(state.Generate())
	assert.Equal(t, "a: first\nb: second\nticks: 800\n", out)

	state.Delete("ticks")
	_, ok = state.Get("ticks")
	assert.False(t, ok)
}

type entryList []*livefs.FileEntry

func (l entryList) Files() []*livefs.FileEntry { return l }

func TestFiles(t *testing.T) {
	registry := livefs.NewRegistry()
	cache := livefs.NewContentCache(0, nil, nil)
	generated := registry.Add("windows", nil, func(*livefs.FileEntry) []byte { return []byte("0123456789") }, nil)
	registry.Add("idle", nil, func(*livefs.FileEntry) []byte { return nil }, nil)
	cache.Fetch(generated)

	files := NewFiles(entryList(registry.Entries()))
	files.now = func() time.Time { return generated.LastRegenerated().Add(3 * time.Second) }

	lines := strings.Split(strings.TrimSpace(string(files.Generate())), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"INODE", "NAME", "SIZE", "GENERATED"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"2", "windows", "10", "B", "3", "seconds", "ago"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"3", "idle", "0", "B", "never"}, strings.Fields(lines[2]))
}
