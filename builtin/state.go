package builtin

import (
	"fmt"
	"sort"

	"github.com/goccy/go-yaml"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// State is a key/value store that any goroutine may write to. Its file
// shows a YAML snapshot with the keys sorted.
type State struct {
	values cmap.ConcurrentMap[string, any]
}

func NewState() *State {
	return &State{values: cmap.New[any]()}
}

func (s *State) Set(key string, value any) {
	s.values.Set(key, value)
}

// Add increments an integer counter, starting from zero.
func (s *State) Add(key string, delta int) int {
	result := s.values.Upsert(key, delta, func(exists bool, current any, added any) any {
		if n, ok := current.(int); exists && ok {
			return n + added.(int)
		}
		return added
	})
	return result.(int)
}

func (s *State) Get(key string) (any, bool) {
	return s.values.Get(key)
}

func (s *State) Delete(key string) {
	s.values.Remove(key)
}

func (s *State) Generate() []byte {
	items := s.values.Items()
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	snapshot := make(yaml.MapSlice, 0, len(keys))
	for _, key := range keys {
		snapshot = append(snapshot, yaml.MapItem{Key: key, Value: items[key]})
	}
	if len(snapshot) == 0 {
		return []byte("{}\n")
	}

	out, err := yaml.Marshal(snapshot)
	if err != nil {
		return []byte(fmt.Sprintf("# error rendering state: %v\n", err))
	}
	return out
}
