package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// PayloadKind discriminates the variants of a Payload node.
type PayloadKind int

const (
	PayloadKindNull PayloadKind = iota
	PayloadKindBool
	PayloadKindNumber
	PayloadKindString
	PayloadKindSequence
	PayloadKindMapping
)

// Payload is one node of a closed JSON-like tree: null, bool, number,
// string, sequence, or mapping. Only the fields matching Kind are
// meaningful. Numbers are kept as json.Number so integer payloads survive
// round trips untouched. Mappings remember insertion order through Keys.
//
// A nil *Payload is treated as null everywhere.
type Payload struct {
	Kind   PayloadKind
	Bool   bool
	Number json.Number
	Str    string
	Items  []*Payload
	Keys   []string
	Fields map[string]*Payload
}

// NullPayload returns a null node.
func NullPayload() *Payload { return &Payload{Kind: PayloadKindNull} }

// BoolPayload returns a bool node.
func BoolPayload(b bool) *Payload { return &Payload{Kind: PayloadKindBool, Bool: b} }

// NumberPayload returns a number node.
func NumberPayload(n json.Number) *Payload { return &Payload{Kind: PayloadKindNumber, Number: n} }

// StringPayload returns a string node.
func StringPayload(s string) *Payload { return &Payload{Kind: PayloadKindString, Str: s} }

// SequencePayload returns a sequence node holding items in order.
func SequencePayload(items ...*Payload) *Payload {
	return &Payload{Kind: PayloadKindSequence, Items: items}
}

// MappingPayload returns an empty mapping node. Populate it with Set.
func MappingPayload() *Payload {
	return &Payload{Kind: PayloadKindMapping, Fields: make(map[string]*Payload)}
}

// Set stores a key on a mapping node, preserving first-insertion order, and
// returns the node for chaining.
func (p *Payload) Set(key string, v *Payload) *Payload {
	if p.Fields == nil {
		p.Fields = make(map[string]*Payload)
	}
	if _, exists := p.Fields[key]; !exists {
		p.Keys = append(p.Keys, key)
	}
	p.Fields[key] = v
	return p
}

// IsNull reports whether the node is null (or the pointer is nil).
func (p *Payload) IsNull() bool {
	return p == nil || p.Kind == PayloadKindNull
}

// Clone returns a deep copy of the tree.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}
	out := &Payload{Kind: p.Kind, Bool: p.Bool, Number: p.Number, Str: p.Str}
	if p.Items != nil {
		out.Items = make([]*Payload, len(p.Items))
		for i, item := range p.Items {
			out.Items[i] = item.Clone()
		}
	}
	if p.Fields != nil {
		out.Keys = append([]string(nil), p.Keys...)
		out.Fields = make(map[string]*Payload, len(p.Fields))
		for k, v := range p.Fields {
			out.Fields[k] = v.Clone()
		}
	}
	return out
}

// MarshalJSON writes the node back out as the JSON value it models,
// emitting mapping keys in insertion order.
func (p *Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodePayload(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePayload(buf *bytes.Buffer, p *Payload) error {
	if p == nil {
		buf.WriteString("null")
		return nil
	}
	switch p.Kind {
	case PayloadKindNull:
		buf.WriteString("null")
	case PayloadKindBool:
		if p.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case PayloadKindNumber:
		n := p.Number
		if n == "" {
			n = "0"
		}
		buf.WriteString(n.String())
	case PayloadKindString:
		b, err := json.Marshal(p.Str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case PayloadKindSequence:
		buf.WriteByte('[')
		for i, item := range p.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodePayload(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case PayloadKindMapping:
		buf.WriteByte('{')
		for i, key := range p.Keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodePayload(buf, p.Fields[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("payload: unknown kind %d", p.Kind)
	}
	return nil
}

// UnmarshalJSON parses any JSON value into the tree, preserving object key
// order and number text.
func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	node, err := decodePayload(dec)
	if err != nil {
		return err
	}
	tok, err := dec.Token()
	if err == nil {
		return fmt.Errorf("payload: unexpected trailing token %v", tok)
	}
	*p = *node
	return nil
}

// ParsePayload parses a standalone JSON document into a tree.
func ParsePayload(data []byte) (*Payload, error) {
	p := &Payload{}
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return p, nil
}

func decodePayload(dec *json.Decoder) (*Payload, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return NullPayload(), nil
	case bool:
		return BoolPayload(t), nil
	case json.Number:
		return NumberPayload(t), nil
	case string:
		return StringPayload(t), nil
	case json.Delim:
		switch t {
		case '[':
			seq := SequencePayload()
			for dec.More() {
				item, err := decodePayload(dec)
				if err != nil {
					return nil, err
				}
				seq.Items = append(seq.Items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return seq, nil
		case '{':
			m := MappingPayload()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("payload: object key is %T, want string", keyTok)
				}
				val, err := decodePayload(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	return nil, fmt.Errorf("payload: unexpected token %v", tok)
}

// PayloadFromAny converts decoded YAML/JSON interface values into a tree.
// Mapping keys are sorted for determinism since Go maps carry no order.
func PayloadFromAny(v any) (*Payload, error) {
	switch t := v.(type) {
	case nil:
		return NullPayload(), nil
	case *Payload:
		return t, nil
	case bool:
		return BoolPayload(t), nil
	case string:
		return StringPayload(t), nil
	case json.Number:
		return NumberPayload(t), nil
	case int:
		return NumberPayload(json.Number(fmt.Sprintf("%d", t))), nil
	case int32:
		return NumberPayload(json.Number(fmt.Sprintf("%d", t))), nil
	case int64:
		return NumberPayload(json.Number(fmt.Sprintf("%d", t))), nil
	case uint64:
		return NumberPayload(json.Number(fmt.Sprintf("%d", t))), nil
	case float32:
		return NumberPayload(json.Number(formatFloat(float64(t)))), nil
	case float64:
		return NumberPayload(json.Number(formatFloat(t))), nil
	case []any:
		seq := SequencePayload()
		for _, item := range t {
			node, err := PayloadFromAny(item)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, node)
		}
		return seq, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := MappingPayload()
		for _, k := range keys {
			node, err := PayloadFromAny(t[k])
			if err != nil {
				return nil, err
			}
			m.Set(k, node)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("payload: unsupported value type %T", v)
	}
}

func formatFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
