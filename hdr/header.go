/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package hdr

import "io"

// NewHeader returns an empty Header ready for use.
func NewHeader() Header {
	return Header{index: make(map[string]int)}
}

func (h *Header) ensureIndex() {
	if h.index == nil {
		h.index = make(map[string]int, len(h.entries))
		for i, kv := range h.entries {
			h.index[kv.key] = i
		}
	}
}

// Add adds the key, value pair to the header, preserving the order in
// which distinct keys were first seen.
func (h *Header) Add(key, value string) {
	key = CanonicalHeaderKey(key)
	h.ensureIndex()
	if i, ok := h.index[key]; ok {
		h.entries[i].values = append(h.entries[i].values, value)
		return
	}
	h.index[key] = len(h.entries)
	h.entries = append(h.entries, keyValues{key: key, values: []string{value}})
}

// Set sets the header entries associated with key to the single element
// value, replacing any existing values, keeping the key's original position.
func (h *Header) Set(key, value string) {
	key = CanonicalHeaderKey(key)
	h.ensureIndex()
	if i, ok := h.index[key]; ok {
		h.entries[i].values = []string{value}
		return
	}
	h.index[key] = len(h.entries)
	h.entries = append(h.entries, keyValues{key: key, values: []string{value}})
}

// Get gets the first value associated with the given key. It is case
// insensitive; CanonicalHeaderKey is used to canonicalize the provided key.
// If there are no values associated with the key, Get returns "".
func (h Header) Get(key string) string {
	if h.index == nil {
		return ""
	}
	i, ok := h.index[CanonicalHeaderKey(key)]
	if !ok || len(h.entries[i].values) == 0 {
		return ""
	}
	return h.entries[i].values[0]
}

// Values returns all values associated with the given key, in the order
// they were added.
func (h Header) Values(key string) []string {
	if h.index == nil {
		return nil
	}
	i, ok := h.index[CanonicalHeaderKey(key)]
	if !ok {
		return nil
	}
	return h.entries[i].values
}

// Has reports whether key has at least one value set.
func (h Header) Has(key string) bool {
	if h.index == nil {
		return false
	}
	_, ok := h.index[CanonicalHeaderKey(key)]
	return ok
}

// Del deletes the values associated with key.
func (h *Header) Del(key string) {
	key = CanonicalHeaderKey(key)
	h.ensureIndex()
	i, ok := h.index[key]
	if !ok {
		return
	}
	h.entries = append(h.entries[:i], h.entries[i+1:]...)
	delete(h.index, key)
	for k, v := range h.index {
		if v > i {
			h.index[k] = v - 1
		}
	}
}

// Len reports the number of distinct keys.
func (h Header) Len() int { return len(h.entries) }

// Range calls fn for each key in insertion order, once per key, with all
// of that key's values.
func (h Header) Range(fn func(key string, values []string)) {
	for _, kv := range h.entries {
		fn(kv.key, kv.values)
	}
}

// Clone returns a deep copy of h.
func (h Header) Clone() Header {
	h2 := NewHeader()
	h2.entries = make([]keyValues, len(h.entries))
	h2.index = make(map[string]int, len(h.entries))
	for i, kv := range h.entries {
		vv := make([]string, len(kv.values))
		copy(vv, kv.values)
		h2.entries[i] = keyValues{key: kv.key, values: vv}
		h2.index[kv.key] = i
	}
	return h2
}

// Write writes a header in wire format, one "Key: value\r\n" line per
// value, in insertion order.
func (h Header) Write(w io.Writer) error {
	ws, ok := w.(writeStringer)
	if !ok {
		ws = stringWriter{w}
	}
	for _, kv := range h.entries {
		for _, v := range kv.values {
			v = HeaderNewlineToSpace.Replace(v)
			v = TrimString(v)
			for _, s := range []string{kv.key, ": ", v, "\r\n"} {
				if _, err := ws.WriteString(s); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
