package catalog

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Reserved record keys.
const (
	ParamsKey = "params_json"
	TextKey   = "_text"
)

// Record is an insertion-ordered mapping from raw key to value. A key is
// either present with a string value or absent; there are no null values.
type Record struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{m: orderedmap.New[string, string]()}
}

// Set stores v under k, overwriting an existing value in place.
func (r *Record) Set(k, v string) {
	r.m.Set(k, v)
}

// PutIfAbsent stores v under k only if k is not present. It reports whether
// the value was stored.
func (r *Record) PutIfAbsent(k, v string) bool {
	if _, ok := r.m.Get(k); ok {
		return false
	}
	r.m.Set(k, v)
	return true
}

func (r *Record) Get(k string) (string, bool) {
	return r.m.Get(k)
}

func (r *Record) Len() int {
	return r.m.Len()
}

// Keys returns the raw keys in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.m.Len())
	for p := r.m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Each calls fn for every entry in insertion order.
func (r *Record) Each(fn func(k, v string)) {
	for p := r.m.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}

// MarshalJSON renders the record as a JSON object in key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.m.MarshalJSON()
}

// Table is a named, ordered list of records derived from one collection.
type Table struct {
	Name    string
	Records []*Record
}
