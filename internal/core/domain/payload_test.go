package domain

import (
	"encoding/json"
	"testing"
)

func TestPayload_UnmarshalPreservesKeyOrder(t *testing.T) {
	raw := `{"zeta":1,"alpha":{"nested":true},"mid":[1,"two",null]}`

	p, err := ParsePayload([]byte(raw))
	if err != nil {
		t.Fatalf("ParsePayload() error = %v", err)
	}

	want := []string{"zeta", "alpha", "mid"}
	if len(p.Keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", p.Keys, want)
	}
	for i, k := range want {
		if p.Keys[i] != k {
			t.Errorf("Keys[%d] = %q, want %q", i, p.Keys[i], k)
		}
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != raw {
		t.Errorf("Marshal() = %s, want %s", out, raw)
	}
}

func TestPayload_NumbersSurviveRoundTrip(t *testing.T) {
	tests := []string{
		`9007199254740993`,
		`0.1`,
		`-42`,
		`1e10`,
	}

	for _, raw := range tests {
		p, err := ParsePayload([]byte(raw))
		if err != nil {
			t.Fatalf("ParsePayload(%s) error = %v", raw, err)
		}
		if p.Kind != PayloadKindNumber {
			t.Fatalf("ParsePayload(%s) kind = %v, want number", raw, p.Kind)
		}
		out, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("Marshal(%s) error = %v", raw, err)
		}
		if string(out) != raw {
			t.Errorf("Marshal() = %s, want %s", out, raw)
		}
	}
}

func TestParsePayload_Kinds(t *testing.T) {
	tests := []struct {
		raw  string
		kind PayloadKind
	}{
		{`null`, PayloadKindNull},
		{`true`, PayloadKindBool},
		{`3.14`, PayloadKindNumber},
		{`"text"`, PayloadKindString},
		{`[1,2]`, PayloadKindSequence},
		{`{"a":1}`, PayloadKindMapping},
	}

	for _, tt := range tests {
		p, err := ParsePayload([]byte(tt.raw))
		if err != nil {
			t.Fatalf("ParsePayload(%s) error = %v", tt.raw, err)
		}
		if p.Kind != tt.kind {
			t.Errorf("ParsePayload(%s) kind = %v, want %v", tt.raw, p.Kind, tt.kind)
		}
	}
}

func TestParsePayload_Invalid(t *testing.T) {
	tests := []string{
		``,
		`{`,
		`{"a":1} trailing`,
		`{'single': 1}`,
	}

	for _, raw := range tests {
		if _, err := ParsePayload([]byte(raw)); err == nil {
			t.Errorf("ParsePayload(%q) error = nil, want error", raw)
		}
	}
}

func TestPayload_Set(t *testing.T) {
	p := MappingPayload()
	p.Set("a", NumberPayload("1"))
	p.Set("b", NumberPayload("2"))
	p.Set("a", NumberPayload("3"))

	if len(p.Keys) != 2 {
		t.Fatalf("Keys = %v, want 2 entries", p.Keys)
	}
	if p.Keys[0] != "a" || p.Keys[1] != "b" {
		t.Errorf("Keys = %v, want [a b]", p.Keys)
	}
	if p.Fields["a"].Number != "3" {
		t.Errorf("Fields[a] = %v, want 3", p.Fields["a"].Number)
	}
}

func TestPayload_IsNull(t *testing.T) {
	tests := []struct {
		name     string
		p        *Payload
		expected bool
	}{
		{"nil pointer", nil, true},
		{"null node", NullPayload(), true},
		{"string node", StringPayload(""), false},
		{"bool node", BoolPayload(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.IsNull(); got != tt.expected {
				t.Errorf("IsNull() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPayloadFromAny(t *testing.T) {
	v := map[string]any{
		"name":  "deploy",
		"count": 3,
		"ok":    true,
		"tags":  []any{"a", "b"},
		"extra": nil,
	}

	p, err := PayloadFromAny(v)
	if err != nil {
		t.Fatalf("PayloadFromAny() error = %v", err)
	}
	if p.Kind != PayloadKindMapping {
		t.Fatalf("kind = %v, want mapping", p.Kind)
	}

	// Map keys are sorted for determinism.
	want := []string{"count", "extra", "name", "ok", "tags"}
	for i, k := range want {
		if p.Keys[i] != k {
			t.Errorf("Keys[%d] = %q, want %q", i, p.Keys[i], k)
		}
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	expected := `{"count":3,"extra":null,"name":"deploy","ok":true,"tags":["a","b"]}`
	if string(out) != expected {
		t.Errorf("Marshal() = %s, want %s", out, expected)
	}
}

func TestPayloadFromAny_Unsupported(t *testing.T) {
	if _, err := PayloadFromAny(struct{}{}); err == nil {
		t.Error("PayloadFromAny(struct{}{}) error = nil, want error")
	}
}

func TestPayload_Clone(t *testing.T) {
	p := MappingPayload().
		Set("list", SequencePayload(NumberPayload("1"))).
		Set("s", StringPayload("x"))

	c := p.Clone()
	c.Fields["list"].Items[0] = NumberPayload("9")
	c.Set("s", StringPayload("changed"))

	if p.Fields["list"].Items[0].Number != "1" {
		t.Errorf("original sequence mutated: %v", p.Fields["list"].Items[0].Number)
	}
	if p.Fields["s"].Str != "x" {
		t.Errorf("original string mutated: %q", p.Fields["s"].Str)
	}
}
