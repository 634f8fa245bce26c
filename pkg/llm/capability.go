package llm

import "strings"

// Capability names a feature a provider may support.
type Capability string

const (
	CapabilityTextGeneration Capability = "text_generation"
	CapabilityTranslation    Capability = "translation"
	CapabilityCodeGeneration Capability = "code_generation"
	CapabilityCodeAnalysis   Capability = "code_analysis"
	CapabilityAgent          Capability = "agent"
	CapabilitySummarization  Capability = "summarization"
	CapabilityReasoning      Capability = "reasoning"
	CapabilityMathSolving    Capability = "math_solving"
)

// AllCapabilities lists every known capability in declaration order.
var AllCapabilities = []Capability{
	CapabilityTextGeneration,
	CapabilityTranslation,
	CapabilityCodeGeneration,
	CapabilityCodeAnalysis,
	CapabilityAgent,
	CapabilitySummarization,
	CapabilityReasoning,
	CapabilityMathSolving,
}

// Label returns the human readable form, e.g. "Code generation".
func (c Capability) Label() string {
	s := strings.ReplaceAll(string(c), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet struct {
	members map[Capability]struct{}
	order   []Capability
}

// NewCapabilitySet builds a set; duplicates are ignored.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := CapabilitySet{members: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		if _, ok := s.members[c]; ok {
			continue
		}
		s.members[c] = struct{}{}
		s.order = append(s.order, c)
	}
	return s
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s.members[c]
	return ok
}

// List returns the capabilities in insertion order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of capabilities.
func (s CapabilitySet) Len() int { return len(s.order) }

// Supports reports whether p declares capability c.
func Supports(p Provider, c Capability) bool {
	return p.Capabilities().Has(c)
}
