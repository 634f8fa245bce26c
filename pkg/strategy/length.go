package strategy

import (
	"strings"
	"unicode/utf8"
)

// DefaultLengthThreshold is the prompt length, in characters, at which a
// prompt stops counting as short.
const DefaultLengthThreshold = 500

// LengthResolver routes prompts shorter than a threshold to a dedicated
// provider (typically a cheap or local model) and everything else to the
// default.
type LengthResolver struct {
	threshold       int
	shortProvider   string
	defaultProvider string
}

func NewLengthResolver(threshold int, shortProvider, defaultProvider string) *LengthResolver {
	if threshold <= 0 {
		threshold = DefaultLengthThreshold
	}
	return &LengthResolver{
		threshold:       threshold,
		shortProvider:   shortProvider,
		defaultProvider: defaultProvider,
	}
}

func (l *LengthResolver) Name() string {
	return "length"
}

func (l *LengthResolver) Resolve(req Request) string {
	if l.shortProvider == "" {
		return l.defaultProvider
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Prompt)) < l.threshold {
		return l.shortProvider
	}
	return l.defaultProvider
}
