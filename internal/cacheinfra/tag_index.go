package cacheinfra

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryTagIndex maps tags to the cache keys registered under them.
// Every mutation of a tag set runs inside xsync Compute, so a set is never
// read while another goroutine writes it.
type MemoryTagIndex struct {
	tags *xsync.MapOf[string, map[string]struct{}]
}

// NewMemoryTagIndex returns an empty index.
func NewMemoryTagIndex() *MemoryTagIndex {
	return &MemoryTagIndex{tags: xsync.NewMapOf[string, map[string]struct{}]()}
}

// Add registers key under every tag.
func (i *MemoryTagIndex) Add(key string, tags ...string) {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		i.tags.Compute(tag, func(keys map[string]struct{}, loaded bool) (map[string]struct{}, bool) {
			if !loaded {
				keys = make(map[string]struct{}, 1)
			}
			keys[key] = struct{}{}
			return keys, false
		})
	}
}

// Pop removes the given tags and returns the distinct keys they held, sorted.
func (i *MemoryTagIndex) Pop(tags ...string) []string {
	seen := map[string]struct{}{}
	for _, tag := range tags {
		keys, ok := i.tags.LoadAndDelete(tag)
		if !ok {
			continue
		}
		for k := range keys {
			seen[k] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Keys returns the keys registered under tag, sorted.
func (i *MemoryTagIndex) Keys(tag string) []string {
	var out []string
	i.tags.Compute(tag, func(keys map[string]struct{}, loaded bool) (map[string]struct{}, bool) {
		for k := range keys {
			out = append(out, k)
		}
		return keys, !loaded
	})
	sort.Strings(out)
	return out
}

// Len reports the number of tags held.
func (i *MemoryTagIndex) Len() int {
	return i.tags.Size()
}
