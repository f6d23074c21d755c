// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cueschema

import (
	"encoding/binary"
	"fmt"
	"math"

	"carvel.dev/zsyaml/pkg/backend"
	"carvel.dev/zsyaml/pkg/orderedmap"
)

type binaryEncoder struct{}

func (e binaryEncoder) Encode(layout *backend.Layout, val interface{}) ([]byte, error) {
	return e.append(nil, layout, val)
}

func (e binaryEncoder) append(buf []byte, layout *backend.Layout, val interface{}) ([]byte, error) {
	switch layout.Kind {
	case backend.KindNull:
		return buf, nil

	case backend.KindBool:
		b, ok := val.(bool)
		if !ok {
			return nil, e.typeErr(layout, val)
		}
		if b {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil

	case backend.KindInt:
		i, ok := val.(int64)
		if !ok {
			return nil, e.typeErr(layout, val)
		}
		return binary.AppendVarint(buf, i), nil

	case backend.KindFloat:
		f, ok := val.(float64)
		if !ok {
			return nil, e.typeErr(layout, val)
		}
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(f)), nil

	case backend.KindString:
		s, ok := val.(string)
		if !ok {
			return nil, e.typeErr(layout, val)
		}
		buf = binary.AppendUvarint(buf, uint64(len(s)))
		return append(buf, s...), nil

	case backend.KindBytes:
		bs, ok := val.([]byte)
		if !ok {
			return nil, e.typeErr(layout, val)
		}
		buf = binary.AppendUvarint(buf, uint64(len(bs)))
		return append(buf, bs...), nil

	case backend.KindList:
		items, ok := val.([]interface{})
		if !ok {
			return nil, e.typeErr(layout, val)
		}
		buf = binary.AppendUvarint(buf, uint64(len(items)))
		for i, item := range items {
			var err error
			buf, err = e.append(buf, layout.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("Item %d: %w", i, err)
			}
		}
		return buf, nil

	case backend.KindStruct:
		m, ok := val.(*orderedmap.Map)
		if !ok {
			return nil, e.typeErr(layout, val)
		}
		for _, field := range layout.Fields {
			fieldVal, found := m.Get(field.Name)
			if field.Optional {
				if !found {
					buf = append(buf, 0)
					continue
				}
				buf = append(buf, 1)
			} else if !found {
				return nil, fmt.Errorf("Expected field '%s' to be set", field.Name)
			}
			var err error
			buf, err = e.append(buf, field.Layout, fieldVal)
			if err != nil {
				return nil, fmt.Errorf("Field '%s': %w", field.Name, err)
			}
		}
		return buf, nil

	default:
		return nil, fmt.Errorf("Unsupported layout kind '%s'", layout.Kind)
	}
}

func (binaryEncoder) typeErr(layout *backend.Layout, val interface{}) error {
	return fmt.Errorf("Expected value of kind %s, but was %T", layout.Kind, val)
}

type binaryDecoder struct{}

func (d binaryDecoder) Decode(layout *backend.Layout, data []byte) (interface{}, error) {
	r := &byteReader{data: data}
	val, err := d.read(r, layout)
	if err != nil {
		return nil, err
	}
	if r.pos != len(data) {
		return nil, fmt.Errorf("Expected end of data at byte %d, but %d bytes remain", r.pos, len(data)-r.pos)
	}
	return val, nil
}

func (d binaryDecoder) read(r *byteReader, layout *backend.Layout) (interface{}, error) {
	switch layout.Kind {
	case backend.KindNull:
		return nil, nil

	case backend.KindBool:
		b, err := r.byte()
		if err != nil {
			return nil, err
		}
		switch b {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, fmt.Errorf("Invalid bool byte 0x%02x at byte %d", b, r.pos-1)
		}

	case backend.KindInt:
		return r.varint()

	case backend.KindFloat:
		bs, err := r.next(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(bs)), nil

	case backend.KindString:
		bs, err := r.lengthPrefixed()
		if err != nil {
			return nil, err
		}
		return string(bs), nil

	case backend.KindBytes:
		bs, err := r.lengthPrefixed()
		if err != nil {
			return nil, err
		}
		return append([]byte{}, bs...), nil

	case backend.KindList:
		count, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		if count > uint64(r.remaining()) && layout.Elem.Kind != backend.KindNull {
			return nil, fmt.Errorf("List count %d exceeds remaining data", count)
		}
		items := []interface{}{}
		for i := uint64(0); i < count; i++ {
			item, err := d.read(r, layout.Elem)
			if err != nil {
				return nil, fmt.Errorf("Item %d: %w", i, err)
			}
			items = append(items, item)
		}
		return items, nil

	case backend.KindStruct:
		result := orderedmap.NewMap()
		for _, field := range layout.Fields {
			if field.Optional {
				present, err := r.byte()
				if err != nil {
					return nil, fmt.Errorf("Field '%s': %w", field.Name, err)
				}
				if present == 0 {
					continue
				}
			}
			val, err := d.read(r, field.Layout)
			if err != nil {
				return nil, fmt.Errorf("Field '%s': %w", field.Name, err)
			}
			result.Set(field.Name, val)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("Unsupported layout kind '%s'", layout.Kind)
	}
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) remaining() int { return len(r.data) - r.pos }

func (r *byteReader) next(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, fmt.Errorf("Unexpected end of data at byte %d (wanted %d bytes)", r.pos, n)
	}
	bs := r.data[r.pos : r.pos+n]
	r.pos += n
	return bs, nil
}

func (r *byteReader) byte() (byte, error) {
	bs, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return bs[0], nil
}

func (r *byteReader) varint() (int64, error) {
	val, n := binary.Varint(r.data[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("Invalid varint at byte %d", r.pos)
	}
	r.pos += n
	return val, nil
}

func (r *byteReader) uvarint() (uint64, error) {
	val, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("Invalid uvarint at byte %d", r.pos)
	}
	r.pos += n
	return val, nil
}

func (r *byteReader) lengthPrefixed() ([]byte, error) {
	size, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if size > uint64(r.remaining()) {
		return nil, fmt.Errorf("Length %d exceeds remaining data at byte %d", size, r.pos)
	}
	return r.next(int(size))
}
