// Package orderedmap provides an insertion-ordered map. Report sections keep
// the declaration order of the source file, so every collection exposed by
// the report model is one of these.
package orderedmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Item is a single key/value pair as returned by Items.
type Item[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is a hash map plus a separate key-order sequence. The zero value is
// not usable; construct with New.
//
// Map is not safe for concurrent mutation. Reports are built once and then
// only read, which needs no locking.
type Map[K comparable, V any] struct {
	keys []K
	data map[K]V
}

// New returns an empty map, optionally seeded with items in order.
func New[K comparable, V any](items ...Item[K, V]) *Map[K, V] {
	m := &Map[K, V]{data: make(map[K]V, len(items))}
	for _, it := range items {
		m.Set(it.Key, it.Value)
	}
	return m
}

// Set stores value under key. A new key is appended to the order; an
// existing key keeps its position and only its value changes.
func (m *Map[K, V]) Set(key K, value V) {
	if _, ok := m.data[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.data[key] = value
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.data[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.data[key]
	return ok
}

// Delete removes key. Removing a missing key is a no-op.
func (m *Map[K, V]) Delete(key K) {
	if _, ok := m.data[key]; !ok {
		return
	}
	delete(m.data, key)
	if i := slices.Index(m.keys, key); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Values returns the values in insertion order.
func (m *Map[K, V]) Values() []V {
	if m == nil {
		return nil
	}
	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.data[k])
	}
	return out
}

// Items returns the key/value pairs in insertion order.
func (m *Map[K, V]) Items() []Item[K, V] {
	if m == nil {
		return nil
	}
	out := make([]Item[K, V], 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, Item[K, V]{Key: k, Value: m.data[k]})
	}
	return out
}

// All iterates over the entries in insertion order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.data[k]) {
				return
			}
		}
	}
}

// MarshalJSON encodes the map as a JSON object whose members follow the
// insertion order. Keys are formatted with %v.
func (m *Map[K, V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fmt.Sprint(k))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.data[k])
		if err != nil {
			return nil, fmt.Errorf("orderedmap: encode %v: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping member order. String keys
// are taken as is; other key types are decoded from the member name text.
func (m *Map[K, V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil {
		return err
	} else if tok != json.Delim('{') {
		return fmt.Errorf("orderedmap: want JSON object, got %v", tok)
	}

	m.keys = nil
	m.data = make(map[K]V)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name := tok.(string)
		var key K
		if p, ok := any(&key).(*string); ok {
			*p = name
		} else if err := json.Unmarshal([]byte(name), &key); err != nil {
			return fmt.Errorf("orderedmap: key %q: %w", name, err)
		}
		var val V
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("orderedmap: decode %q: %w", name, err)
		}
		m.Set(key, val)
	}
	_, err := dec.Token()
	return err
}
