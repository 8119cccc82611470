package respkv

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
)

func TestTableBasicTests(t *testing.T) {
	table := NewTable()

	// Test Get non-existent key
	if _, ok := table.Get("nonexistent"); ok {
		t.Errorf("expected nonexistent key to be absent")
	}

	// Test first Insert
	if old, existed := table.Insert("testkey", "testvalue"); existed {
		t.Errorf("expected no previous value, got %q", old)
	}
	val, ok := table.Get("testkey")
	if !ok || val != "testvalue" {
		t.Errorf("expected testvalue, got %q (present %v)", val, ok)
	}

	// Overwrite returns the old value
	old, existed := table.Insert("testkey", "newvalue")
	if !existed || old != "testvalue" {
		t.Errorf("expected old value testvalue, got %q (existed %v)", old, existed)
	}
	if val, _ := table.Get("testkey"); val != "newvalue" {
		t.Errorf("expected newvalue, got %q", val)
	}

	// Empty values are still values
	table.Insert("empty", "")
	if val, ok := table.Get("empty"); !ok || val != "" {
		t.Errorf("expected empty value to be present, got %q (present %v)", val, ok)
	}

	if table.Len() != 2 {
		t.Errorf("expected 2 keys, got %d", table.Len())
	}
}

func TestTableExists(t *testing.T) {
	table := NewTable()
	table.Insert("a", "1")
	table.Insert("b", "2")

	tests := []struct {
		keys []string
		want int
	}{
		{keys: nil, want: 0},
		{keys: []string{"a"}, want: 1},
		{keys: []string{"a", "b", "c"}, want: 2},
		{keys: []string{"a", "a", "a"}, want: 3},
		{keys: []string{"x", "y"}, want: 0},
	}
	for _, tt := range tests {
		if got := table.Exists(tt.keys...); got != tt.want {
			t.Errorf("Exists(%v) = %d, want %d", tt.keys, got, tt.want)
		}
	}
}

func TestTableKeys(t *testing.T) {
	table := NewTable()
	for _, key := range []string{"user:2", "user:1", "session:9", "user:a/b", "a/b"} {
		table.Insert(key, "v")
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{pattern: "*", want: []string{"a/b", "session:9", "user:1", "user:2", "user:a/b"}},
		{pattern: "user:*", want: []string{"user:1", "user:2", "user:a/b"}},
		{pattern: "user:?", want: []string{"user:1", "user:2"}},
		{pattern: "a*", want: []string{"a/b"}},
		{pattern: "*b", want: []string{"a/b", "user:a/b"}},
		{pattern: "*/*", want: []string{"a/b", "user:a/b"}},
		{pattern: "a?b", want: []string{"a/b"}},
		{pattern: "session:9", want: []string{"session:9"}},
		{pattern: "session:8", want: []string{}},
		{pattern: "nomatch*", want: []string{}},
	}
	for _, tt := range tests {
		if got := table.Keys(tt.pattern); !slices.Equal(got, tt.want) {
			t.Errorf("Keys(%q) = %v, want %v", tt.pattern, got, tt.want)
		}
	}

	if got := NewTable().Keys("*"); got == nil || len(got) != 0 {
		t.Errorf("Keys() on empty table = %#v, want empty slice", got)
	}
}

// Two writers racing on the same key must leave exactly one of their values, never a mix
func TestTableConcurrentInsertSameKey(t *testing.T) {
	table := NewTable()
	valueA := strings.Repeat("a", 4096)
	valueB := strings.Repeat("b", 4096)

	var wg sync.WaitGroup
	for _, value := range []string{valueA, valueB} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				table.Insert("shared", value)
			}
		}()
	}
	wg.Wait()

	got, ok := table.Get("shared")
	if !ok {
		t.Fatalf("expected shared key to be present")
	}
	if got != valueA && got != valueB {
		t.Errorf("final value is a mixture of both writes")
	}
}

func TestTableConcurrentDistinctKeys(t *testing.T) {
	table := NewTable()
	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				key := fmt.Sprintf("w%d:k%d", w, i)
				table.Insert(key, key)
				if v, ok := table.Get(key); !ok || v != key {
					t.Errorf("Get(%q) = %q, %v", key, v, ok)
				}
			}
		}()
	}
	wg.Wait()

	if table.Len() != workers*perWorker {
		t.Errorf("expected %d keys, got %d", workers*perWorker, table.Len())
	}
}
