// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package orderedmap

import (
	"encoding/json"
)

type Map struct {
	items []MapItem
	index map[string]int
}

type MapItem struct {
	Key   string
	Value interface{}
}

func NewMap() *Map {
	return &Map{index: map[string]int{}}
}

func NewMapWithItems(items []MapItem) *Map {
	m := NewMap()
	for _, item := range items {
		m.Set(item.Key, item.Value)
	}
	return m
}

func (m *Map) Set(key string, value interface{}) {
	if m.index == nil {
		m.index = map[string]int{}
	}
	if i, found := m.index[key]; found {
		m.items[i].Value = value
		return
	}
	m.index[key] = len(m.items)
	m.items = append(m.items, MapItem{key, value})
}

func (m *Map) Get(key string) (interface{}, bool) {
	if i, found := m.index[key]; found {
		return m.items[i].Value, true
	}
	return nil, false
}

func (m *Map) Delete(key string) bool {
	i, found := m.index[key]
	if !found {
		return false
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.items); j++ {
		m.index[m.items[j].Key] = j
	}
	return true
}

func (m *Map) Keys() (keys []string) {
	m.Iterate(func(k string, _ interface{}) {
		keys = append(keys, k)
	})
	return
}

// HasExactKeys reports whether the key set equals keys (order ignored).
func (m *Map) HasExactKeys(keys ...string) bool {
	if m.Len() != len(keys) {
		return false
	}
	for _, k := range keys {
		if _, found := m.index[k]; !found {
			return false
		}
	}
	return true
}

func (m *Map) Iterate(iterFunc func(k string, v interface{})) {
	for _, item := range m.items {
		iterFunc(item.Key, item.Value)
	}
}

func (m *Map) IterateErr(iterFunc func(k string, v interface{}) error) error {
	for _, item := range m.items {
		err := iterFunc(item.Key, item.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Map) Items() []MapItem {
	return append([]MapItem(nil), m.items...)
}

func (m *Map) Len() int { return len(m.items) }

// Below methods disallow marshaling of Map directly;
// document encoders walk items to keep key order.
var _ []json.Marshaler = []json.Marshaler{&Map{}}

func (*Map) MarshalYAML() (interface{}, error) { panic("Unexpected marshaling of *orderedmap.Map") }
func (*Map) MarshalJSON() ([]byte, error)      { panic("Unexpected marshaling of *orderedmap.Map") }
