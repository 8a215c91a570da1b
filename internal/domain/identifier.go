package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// IdentifierShape selects which order-code contract a deployment uses.
// Storefront panels disagree on the shape, so it is configuration, not a
// constant: exactly one shape is valid per deployment.
type IdentifierShape string

const (
	ShapeNumeric      IdentifierShape = "numeric"
	ShapeAlphanumeric IdentifierShape = "alphanumeric"
)

// OrderIdentifier is a validated order code ready for lookup. It is produced
// by IdentifierPattern.Extract and carries no other state.
type OrderIdentifier string

func (id OrderIdentifier) String() string { return string(id) }

// EqualsFold reports whether a raw field value matches this identifier,
// ignoring case and surrounding whitespace.
func (id OrderIdentifier) EqualsFold(s string) bool {
	return strings.EqualFold(string(id), strings.TrimSpace(s))
}

// IdentifierPattern extracts and validates order identifiers of one
// configured shape and length.
type IdentifierPattern struct {
	shape  IdentifierShape
	length int
	re     *regexp.Regexp
}

// NewIdentifierPattern builds a pattern for the given shape and length.
func NewIdentifierPattern(shape IdentifierShape, length int) (*IdentifierPattern, error) {
	if length <= 0 {
		return nil, fmt.Errorf("identifier length must be positive, got %d", length)
	}

	var expr string
	switch shape {
	case ShapeNumeric:
		expr = fmt.Sprintf(`(^|[^0-9])([0-9]{%d})([^0-9]|$)`, length)
	case ShapeAlphanumeric:
		expr = fmt.Sprintf(`(?i)(^|[^a-z0-9])([a-z0-9]{%d})([^a-z0-9]|$)`, length)
	default:
		return nil, fmt.Errorf("unknown identifier shape %q", shape)
	}

	return &IdentifierPattern{
		shape:  shape,
		length: length,
		re:     regexp.MustCompile(expr),
	}, nil
}

// Length returns the configured identifier length, for use in prompts.
func (p *IdentifierPattern) Length() int { return p.length }

// Shape returns the configured identifier shape.
func (p *IdentifierPattern) Shape() IdentifierShape { return p.shape }

// Extract scans free-form text for the leftmost token matching the configured
// shape. Leading and trailing whitespace is stripped before scanning; an
// alphanumeric match is normalized to upper case. Returns ok=false when the
// text contains no validly-shaped token.
func (p *IdentifierPattern) Extract(text string) (OrderIdentifier, bool) {
	m := p.re.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	token := m[2]
	if p.shape == ShapeAlphanumeric {
		token = strings.ToUpper(token)
	}
	return OrderIdentifier(token), true
}
