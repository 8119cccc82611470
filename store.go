package respkv

import (
	"sort"
	"sync"

	"github.com/tidwall/match"
)

// Table is the key-value table shared by every connection. All access, reads included, goes
// through a single mutex that is held for exactly one operation, so a write is never
// partially visible.
type Table struct {
	mu sync.Mutex
	mp map[string]string
}

// NewTable initializes an empty Table
func NewTable() *Table {
	return &Table{
		mp: make(map[string]string),
	}
}

// Get returns the value stored for key, and whether it was present
func (t *Table) Get(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	value, ok := t.mp[key]
	return value, ok
}

// Insert stores value under key, overwriting any existing value. The previous value is returned
// if there was one.
func (t *Table) Insert(key string, value string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	old, existed := t.mp[key]
	t.mp[key] = value
	return old, existed
}

// Exists counts how many of the given keys are present. A key that is repeated is counted
// every time it appears.
func (t *Table) Exists(keys ...string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for _, key := range keys {
		if _, ok := t.mp[key]; ok {
			count++
		}
	}
	return count
}

// Keys returns the sorted list of keys matching a glob pattern. '*' matches any run of
// characters, '/' included, and '?' matches exactly one. A pattern without wildcards is a
// direct lookup.
func (t *Table) Keys(pattern string) []string {
	t.mu.Lock()
	keys := make([]string, 0)
	if !match.IsPattern(pattern) {
		if _, ok := t.mp[pattern]; ok {
			keys = append(keys, pattern)
		}
	} else {
		for key := range t.mp {
			if match.Match(key, pattern) {
				keys = append(keys, key)
			}
		}
	}
	t.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// Len returns the number of keys in the table
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.mp)
}
