// Package invocation lexes a raw instruction string into a topic phrase and
// an ordered list of module reference tokens. A reference token is any
// whitespace-delimited word beginning with the reference marker (@ by
// default); everything else, in original order, forms the topic.
package invocation

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// DefaultMarker is the prefix that designates a module reference token.
const DefaultMarker = "@"

// ReferenceToken identifies one knowledge module within an invocation.
// Position records the token's index in the whitespace-delimited token
// stream, preserving order of appearance.
type ReferenceToken struct {
	Raw      string
	Position int
}

// Invocation is the scanned form of a raw instruction string.
type Invocation struct {
	Topic      string
	References []ReferenceToken
}

// EmptyInvocationError reports a raw input with no content at all. It is the
// only fatal scanning condition.
type EmptyInvocationError struct{}

func (EmptyInvocationError) Error() string {
	return "invocation is empty or whitespace-only"
}

// Scanner splits raw invocation strings. Scanning is deterministic: the same
// raw string always yields the same Invocation.
type Scanner struct {
	marker string
}

// Option configures a Scanner.
type Option func(*Scanner) error

// WithMarker overrides the reference marker prefix.
func WithMarker(marker string) Option {
	return func(s *Scanner) error {
		if marker == "" {
			return errors.New("reference marker must not be empty")
		}
		if strings.ContainsFunc(marker, unicode.IsSpace) {
			return errors.New("reference marker must not contain whitespace")
		}
		s.marker = marker
		return nil
	}
}

// NewScanner creates a scanner with the default @ marker unless overridden.
func NewScanner(opts ...Option) (*Scanner, error) {
	s := &Scanner{marker: DefaultMarker}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, errors.Wrap(err, "failed to apply scanner option")
		}
	}
	return s, nil
}

// Scan lexes raw into an Invocation. Reference tokens may appear anywhere in
// the phrase; the topic is the remaining words joined with single spaces in
// their original relative order.
func (s *Scanner) Scan(raw string) (*Invocation, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, EmptyInvocationError{}
	}

	tokens := tokenize(raw)

	inv := &Invocation{}
	var topicWords []string
	for i, tok := range tokens {
		if s.isReference(tok) {
			inv.References = append(inv.References, ReferenceToken{Raw: tok, Position: i})
			continue
		}
		topicWords = append(topicWords, tok)
	}
	inv.Topic = strings.Join(topicWords, " ")

	return inv, nil
}

// isReference reports whether tok is a reference token: it must begin with
// the marker and carry a non-empty name after it. A bare marker or a marker
// embedded mid-word is topic text.
func (s *Scanner) isReference(tok string) bool {
	return strings.HasPrefix(tok, s.marker) && len(tok) > len(s.marker)
}

// tokenize splits raw on whitespace while treating a segment wrapped in
// matching single or double quotes as one token. Quote characters are
// stripped; an unterminated quote extends to the end of the input.
func tokenize(raw string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range raw {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return tokens
}
