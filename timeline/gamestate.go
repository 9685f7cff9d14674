package timeline

import (
	"sort"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
)

// sortedIDEntries returns the numeric-keyed entries of an id-keyed collection
// in ascending id order. String-keyed entries (usually "none" markers) are
// dropped.
func sortedIDEntries(o *save.Object) []save.Entry {
	if o == nil {
		return nil
	}
	entries := make([]save.Entry, 0, o.Len())
	for _, e := range o.Entries() {
		if e.Key.IsNum {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.Num < entries[j].Key.Num
	})
	return entries
}

// yes reports whether a field holds the literal "yes". The source encodes
// booleans as yes/no strings.
func yes(o *save.Object, key string) bool {
	s, _ := o.GetString(key)
	return s == "yes"
}

// hasKey reports whether the object carries the key at all, whatever the
// value holds.
func hasKey(o *save.Object, key string) bool {
	_, ok := o.Get(key)
	return ok
}

// intSeq reads a single-or-list field of integer ids.
func intSeq(o *save.Object, key string) []int64 {
	var out []int64
	for _, v := range o.GetSeq(key) {
		if id, ok := v.Int(); ok {
			out = append(out, id)
		}
	}
	return out
}

// sortedKeys returns the keys of an id-keyed map in ascending order.
func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedStrings[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// pairSet is a set of directed country pairs.
type pairSet map[int64]map[int64]bool

func (p pairSet) add(a, b int64) {
	inner, ok := p[a]
	if !ok {
		inner = make(map[int64]bool)
		p[a] = inner
	}
	inner[b] = true
}

func (p pairSet) has(a, b int64) bool {
	return p[a][b]
}
