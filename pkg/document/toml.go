// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"sort"
	"strings"
	"time"

	"carvel.dev/zsyaml/pkg/orderedmap"
	"github.com/BurntSushi/toml"
)

// ParseTOML decodes a TOML document keeping keys in the order they were
// written (toml.MetaData.Keys reports them in document order).
func ParseTOML(bs []byte) (interface{}, error) {
	var decoded map[string]interface{}

	md, err := toml.Decode(string(bs), &decoded)
	if err != nil {
		return nil, err
	}

	order := map[string][]string{}
	seen := map[string]bool{}
	for _, key := range md.Keys() {
		if len(key) == 0 {
			continue
		}
		full := strings.Join(key, "\x00")
		if seen[full] {
			continue
		}
		seen[full] = true
		parent := strings.Join(key[:len(key)-1], "\x00")
		order[parent] = append(order[parent], key[len(key)-1])
	}

	return tomlConversion{order}.convert(decoded, ""), nil
}

type tomlConversion struct {
	order map[string][]string
}

func (c tomlConversion) convert(val interface{}, prefix string) interface{} {
	switch typedVal := val.(type) {
	case map[string]interface{}:
		return c.convertMap(typedVal, prefix)

	case []map[string]interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			result[i] = c.convertMap(item, prefix)
		}
		return result

	case []interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			result[i] = c.convert(item, prefix)
		}
		return result

	case time.Time:
		return typedVal.Format(time.RFC3339Nano)

	default:
		return typedVal
	}
}

func (c tomlConversion) convertMap(m map[string]interface{}, prefix string) *orderedmap.Map {
	result := orderedmap.NewMap()

	for _, key := range c.order[prefix] {
		if val, found := m[key]; found {
			result.Set(key, c.convert(val, c.join(prefix, key)))
		}
	}

	var rest []string
	for key := range m {
		if _, found := result.Get(key); !found {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		result.Set(key, c.convert(m[key], c.join(prefix, key)))
	}

	return result
}

func (tomlConversion) join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "\x00" + key
}
