package llm

import (
	"encoding/json"
	"testing"
)

func TestMergeParams_OverridesWin(t *testing.T) {
	defaults := Params{ParamModel: "base", ParamTemperature: 0.7, ParamMaxTokens: 1000}
	overrides := Params{ParamTemperature: 0.2, ParamTopP: 0.9}

	got := MergeParams(defaults, overrides)

	if got[ParamTemperature] != 0.2 {
		t.Errorf("override should win, got %v", got[ParamTemperature])
	}
	if got[ParamModel] != "base" || got[ParamMaxTokens] != 1000 {
		t.Errorf("defaults-only keys should be preserved: %v", got)
	}
	if got[ParamTopP] != 0.9 {
		t.Errorf("override-only key missing: %v", got)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 keys, got %d", len(got))
	}
}

func TestMergeParams_DoesNotMutateInputs(t *testing.T) {
	defaults := Params{ParamModel: "base"}
	overrides := Params{ParamModel: "override"}

	got := MergeParams(defaults, overrides)
	got[ParamMaxTokens] = 5

	if defaults[ParamModel] != "base" || len(defaults) != 1 {
		t.Errorf("defaults mutated: %v", defaults)
	}
	if len(overrides) != 1 {
		t.Errorf("overrides mutated: %v", overrides)
	}
}

func TestMergeParams_NilInputs(t *testing.T) {
	if got := MergeParams(nil, nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil map, got %v", got)
	}
	got := MergeParams(nil, Params{ParamModel: "m"})
	if got.Model() != "m" {
		t.Errorf("expected model m, got %q", got.Model())
	}
}

func TestParams_Float(t *testing.T) {
	p := Params{
		"f64":    0.5,
		"f32":    float32(0.25),
		"int":    2,
		"number": json.Number("1.5"),
		"string": " 0.75 ",
		"bad":    "warm",
		"nil":    nil,
	}
	tests := []struct {
		key  string
		want float64
		ok   bool
	}{
		{"f64", 0.5, true},
		{"f32", 0.25, true},
		{"int", 2, true},
		{"number", 1.5, true},
		{"string", 0.75, true},
		{"bad", 0, false},
		{"nil", 0, false},
		{"missing", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got, ok := p.Float(tc.key)
			if ok != tc.ok || got != tc.want {
				t.Errorf("Float(%q) = %v, %v; want %v, %v", tc.key, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestParams_Int(t *testing.T) {
	p := Params{"int": 100, "float": 256.0, "number": json.Number("64"), "string": "32", "bad": "x"}
	for key, want := range map[string]int{"int": 100, "float": 256, "number": 64, "string": 32} {
		got, ok := p.Int(key)
		if !ok || got != want {
			t.Errorf("Int(%q) = %d, %v; want %d", key, got, ok, want)
		}
	}
	if _, ok := p.Int("bad"); ok {
		t.Error("expected non-numeric string to fail")
	}
}

func TestParams_Strings(t *testing.T) {
	p := Params{"one": "END", "many": []string{"a", "b"}, "any": []any{"x", 1}}
	if got, _ := p.Strings("one"); len(got) != 1 || got[0] != "END" {
		t.Errorf("single string: %v", got)
	}
	if got, _ := p.Strings("many"); len(got) != 2 {
		t.Errorf("string slice: %v", got)
	}
	if got, _ := p.Strings("any"); len(got) != 2 || got[1] != "1" {
		t.Errorf("any slice: %v", got)
	}
	if _, ok := p.Strings("missing"); ok {
		t.Error("missing key should report false")
	}
}

func TestParams_FloatPtr(t *testing.T) {
	p := Params{ParamTopP: 0.9}
	if ptr := p.FloatPtr(ParamTopP); ptr == nil || *ptr != 0.9 {
		t.Errorf("expected 0.9, got %v", ptr)
	}
	if ptr := p.FloatPtr(ParamPresencePenalty); ptr != nil {
		t.Errorf("expected nil for unset key, got %v", *ptr)
	}
}

func TestUsage(t *testing.T) {
	u := NewUsage(12, 30)
	if u.TotalTokens != 42 {
		t.Errorf("expected total 42, got %d", u.TotalTokens)
	}
	if got := NormalizeUsage(3, 4, 0); got.TotalTokens != 7 {
		t.Errorf("expected computed total 7, got %d", got.TotalTokens)
	}
	if got := NormalizeUsage(3, 4, 9); got.TotalTokens != 9 {
		t.Errorf("vendor total should be kept, got %d", got.TotalTokens)
	}
}

func TestCapabilityLabel(t *testing.T) {
	tests := map[Capability]string{
		CapabilityTranslation:    "Translation",
		CapabilityCodeGeneration: "Code generation",
		CapabilityMathSolving:    "Math solving",
	}
	for c, want := range tests {
		if got := c.Label(); got != want {
			t.Errorf("%s.Label() = %q, want %q", c, got, want)
		}
	}
}

func TestCapabilitySet(t *testing.T) {
	s := NewCapabilitySet(CapabilityAgent, CapabilityTranslation, CapabilityAgent)
	if s.Len() != 2 {
		t.Fatalf("duplicates should collapse, got %d", s.Len())
	}
	if !s.Has(CapabilityAgent) || s.Has(CapabilityReasoning) {
		t.Errorf("unexpected membership: %v", s.List())
	}
	list := s.List()
	list[0] = CapabilityReasoning
	if s.Has(CapabilityReasoning) {
		t.Error("List must return a copy")
	}
}
