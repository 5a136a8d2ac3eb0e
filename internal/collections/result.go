package collections

import (
	"bytes"
	"encoding/json"
)

// Section is an insertion-ordered list of key/value entries. Keys may
// repeat; Add always appends and never overwrites, so contributions from
// nested commands accumulate instead of clobbering each other.
type Section struct {
	entries []Entry
}

// Entry is one key/value pair in a Section. Values are opaque to this
// package; sub-commands decide what they record.
type Entry struct {
	Key   string
	Value any
}

// Add appends an entry.
func (s *Section) Add(key string, value any) {
	s.entries = append(s.entries, Entry{Key: key, Value: value})
}

// AddAll appends every entry of other, preserving order. A nil other is a
// no-op.
func (s *Section) AddAll(other *Section) {
	if other == nil {
		return
	}
	s.entries = append(s.entries, other.entries...)
}

// Len returns the number of entries.
func (s *Section) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Get returns the value of the first entry with the given key.
func (s *Section) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	for _, e := range s.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Entries returns a copy of the entries in insertion order.
func (s *Section) Entries() []Entry {
	if s == nil {
		return nil
	}
	return append([]Entry(nil), s.entries...)
}

// MarshalJSON writes the section as a JSON object in insertion order.
// Repeated keys are written repeatedly; consumers that need the full list
// should use Entries instead of round-tripping through JSON.
func (s *Section) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Result is the caller-owned outcome object populated by side effect during
// a saga. Both sections are optional and created lazily; a nil section means
// "never written", which is distinct from an empty one.
//
// A Result may be shared across sibling commands of a larger batch
// operation, so all writes are append-only per section.
type Result struct {
	Success *Section `json:"success,omitempty"`
	Failure *Section `json:"failure,omitempty"`
}

// AddSuccess appends an entry to the success section, creating it if absent.
func (r *Result) AddSuccess(key string, value any) {
	if r.Success == nil {
		r.Success = &Section{}
	}
	r.Success.Add(key, value)
}

// AddFailure appends an entry to the failure section, creating it if absent.
func (r *Result) AddFailure(key string, value any) {
	if r.Failure == nil {
		r.Failure = &Section{}
	}
	r.Failure.Add(key, value)
}

// HasFailure reports whether a failure section was ever written.
func (r *Result) HasFailure() bool {
	return r.Failure != nil
}

// MergeChild folds a finished sub-command result into parent. If the child
// reported any failure, only its failure entries are appended into the
// parent's failure section; otherwise its success entries are appended into
// the parent's success section. Existing parent entries are never touched.
func MergeChild(parent, child *Result) {
	if child.Failure != nil {
		if parent.Failure == nil {
			parent.Failure = &Section{}
		}
		parent.Failure.AddAll(child.Failure)
		return
	}
	if parent.Success == nil {
		parent.Success = &Section{}
	}
	parent.Success.AddAll(child.Success)
}
