// Package validate checks knowledge modules for the required section
// headings. Validation is a pure classification over markdown heading text:
// a section counts as present only when a heading line matches one of the
// required names after normalization, never when the name merely appears in
// body text.
package validate

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/knolhq/knol/pkg/store"
)

// Status is the outcome of validating one module.
type Status string

const (
	// StatusValid means every required section family is present.
	StatusValid Status = "valid"
	// StatusMissingSections means at least one required family is absent.
	StatusMissingSections Status = "missing_sections"
)

// Family is one required section family. Any heading in Headings satisfies
// the family; Name is the canonical name used in reports.
type Family struct {
	Name     string
	Headings []string
}

// DefaultFamilies returns the required families in canonical order. The
// how-to pair (Common Patterns / Implementation Details) is a single family
// satisfied by either heading, as is the validation/troubleshooting pair.
func DefaultFamilies() []Family {
	return []Family{
		{
			Name:     "Key Concepts",
			Headings: []string{"Key Concepts"},
		},
		{
			Name:     "Common Patterns or Implementation Details",
			Headings: []string{"Common Patterns", "Implementation Details"},
		},
		{
			Name: "Validation Methods or Troubleshooting",
			Headings: []string{
				"Validation Methods or Troubleshooting",
				"Validation Methods",
				"Troubleshooting",
			},
		},
		{
			Name:     "Authoritative References",
			Headings: []string{"Authoritative References"},
		},
	}
}

// Report is the result of validating one module. MissingSections lists
// absent family names in canonical (not file) order and is empty when the
// status is valid.
type Report struct {
	ModuleIdentifier string
	Status           Status
	MissingSections  []string
}

// Valid reports whether the module passed validation.
func (r Report) Valid() bool {
	return r.Status == StatusValid
}

// Validator classifies modules against a set of required section families.
type Validator struct {
	families []Family
}

// Option configures a Validator.
type Option func(*Validator) error

// WithFamilies overrides the required section families. Order is preserved
// and becomes the report's canonical order.
func WithFamilies(families ...Family) Option {
	return func(v *Validator) error {
		if len(families) == 0 {
			return errors.New("at least one section family must be specified")
		}
		for _, f := range families {
			if f.Name == "" {
				return errors.New("section family name must not be empty")
			}
			if len(f.Headings) == 0 {
				return errors.Errorf("section family %q must accept at least one heading", f.Name)
			}
		}
		v.families = families
		return nil
	}
}

// New creates a validator with the default families unless overridden.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{families: DefaultFamilies()}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, errors.Wrap(err, "failed to apply validator option")
		}
	}
	return v, nil
}

// Validate checks the module's headings against the required families. It is
// a pure function: the same content always yields the same report.
func (v *Validator) Validate(module *store.Module) Report {
	present := make(map[string]bool)
	for _, h := range Headings(module.RawContent) {
		present[normalizeHeading(h)] = true
	}

	var missing []string
	for _, family := range v.families {
		satisfied := false
		for _, h := range family.Headings {
			if present[normalizeHeading(h)] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, family.Name)
		}
	}

	if len(missing) > 0 {
		return Report{
			ModuleIdentifier: module.Identifier,
			Status:           StatusMissingSections,
			MissingSections:  missing,
		}
	}

	return Report{
		ModuleIdentifier: module.Identifier,
		Status:           StatusValid,
	}
}

// Headings extracts the text of every markdown heading in the document,
// top to bottom.
func Headings(content string) []string {
	source := []byte(content)
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(source))

	var headings []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if _, ok := n.(*ast.Heading); ok {
			headings = append(headings, nodeText(n, source))
		}
		return ast.WalkContinue, nil
	})

	return headings
}

// nodeText collects the plain text of a node and its descendants.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(source))
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// normalizeHeading case-folds heading text, strips punctuation, and
// collapses runs of whitespace so matching tolerates markup noise.
func normalizeHeading(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
