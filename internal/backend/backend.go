// Package backend describes the active text-generation backend at the
// granularity the macro engine cares about: whether it can ban tokens at
// inference time, and where collected ban strings go.
package backend

import "strings"

// Kind identifies a generation backend.
type Kind int

const (
	// KindNone means no backend is selected.
	KindNone Kind = iota
	// KindTextGen is a local text-generation server that accepts a
	// custom token ban list with each request.
	KindTextGen
	// KindKobold is a Kobold-compatible API.
	KindKobold
	// KindOpenAI is a chat-completion style hosted API.
	KindOpenAI
)

// ParseKind maps a configuration string to a Kind. Unknown names map to
// KindNone.
func ParseKind(name string) Kind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "textgen", "textgenerationwebui":
		return KindTextGen
	case "kobold", "koboldcpp":
		return KindKobold
	case "openai":
		return KindOpenAI
	default:
		return KindNone
	}
}

func (k Kind) String() string {
	switch k {
	case KindTextGen:
		return "textgen"
	case KindKobold:
		return "kobold"
	case KindOpenAI:
		return "openai"
	default:
		return "none"
	}
}

// SupportsTokenBans reports whether the backend accepts an
// inference-time token ban list.
func (k Kind) SupportsTokenBans() bool {
	return k == KindTextGen
}

// Selector exposes the capability of the currently active backend.
type Selector interface {
	SupportsTokenBans() bool
}

// BanSink collects strings to ban during the next generation request.
// The expander only appends; the generation component owns clearing it
// between requests. Duplicates are kept, order is preserved.
type BanSink struct {
	words []string
}

// Append adds a word to the ban list.
func (s *BanSink) Append(word string) {
	s.words = append(s.words, word)
}

// Words returns the collected ban list in insertion order.
func (s *BanSink) Words() []string {
	return s.words
}

// Clear empties the sink. Called by the generation component, never by
// the expander.
func (s *BanSink) Clear() {
	s.words = s.words[:0]
}
