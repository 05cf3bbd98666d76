// Package noderef parses, formats, and normalizes the hierarchical node
// reference strings used to address layers, sublayers, sections, and
// elements inside a Game Definition tree.
package noderef

import (
	"fmt"
	"strings"
)

// Code enumerates the distinct ways a node reference can fail to parse.
type Code string

const (
	CodeEmpty          Code = "empty"
	CodeEmptySegment   Code = "empty-segment"
	CodeBadFormat      Code = "bad-format"
	CodeEmptyID        Code = "empty-id"
	CodeUnknownScope   Code = "unknown-scope"
	CodeDuplicateScope Code = "duplicate-scope"
	CodeOutOfOrder     Code = "out-of-order"
	CodeLayerRequired  Code = "layer-required"
)

// Error is returned by parse/normalize failures; it carries the machine code
// plus the offending raw input for diagnostics.
type Error struct {
	Code  Code
	Input string
}

func (e *Error) Error() string {
	return fmt.Sprintf("noderef: %s: %q", e.Code, e.Input)
}

// scope identifies one of the four levels a reference can name.
type scope int

const (
	scopeLayer scope = iota
	scopeSublayer
	scopeSection
	scopeElement
	scopeCount
)

var scopeNames = [scopeCount]string{
	scopeLayer:    "layer",
	scopeSublayer: "sublayer",
	scopeSection:  "section",
	scopeElement:  "element",
}

func scopeFromName(name string) (scope, bool) {
	for s, n := range scopeNames {
		if n == name {
			return scope(s), true
		}
	}
	return 0, false
}

// Parsed is the decomposed form of a node reference: up to four optional
// scope ids, ordered layer, sublayer, section, element.
type Parsed struct {
	Layer    string
	Sublayer string
	Section  string
	Element  string

	hasSublayer bool
	hasSection  bool
	hasElement  bool
}

// HasSublayer reports whether the reference names a sublayer scope.
func (p Parsed) HasSublayer() bool { return p.hasSublayer }

// HasSection reports whether the reference names a section scope.
func (p Parsed) HasSection() bool { return p.hasSection }

// HasElement reports whether the reference names an element scope.
func (p Parsed) HasElement() bool { return p.hasElement }

// Depth reports how many scopes (1-4) the reference names.
func (p Parsed) Depth() int {
	switch {
	case p.hasElement:
		return 4
	case p.hasSection:
		return 3
	case p.hasSublayer:
		return 2
	default:
		return 1
	}
}

// Parse decomposes a canonical or whitespace-padded node reference string.
// Parse is total: it never mutates its input and always returns either a
// valid Parsed value or a typed Error.
func Parse(raw string) (Parsed, error) {
	if strings.TrimSpace(raw) == "" {
		return Parsed{}, &Error{Code: CodeEmpty, Input: raw}
	}

	segments := strings.Split(raw, "/")
	seen := [scopeCount]bool{}
	var out Parsed

	for _, segment := range segments {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			return Parsed{}, &Error{Code: CodeEmptySegment, Input: raw}
		}

		name, id, ok := strings.Cut(trimmed, ":")
		if !ok {
			return Parsed{}, &Error{Code: CodeBadFormat, Input: raw}
		}
		name = strings.TrimSpace(name)
		id = strings.TrimSpace(id)
		if id == "" {
			return Parsed{}, &Error{Code: CodeEmptyID, Input: raw}
		}

		s, ok := scopeFromName(name)
		if !ok {
			return Parsed{}, &Error{Code: CodeUnknownScope, Input: raw}
		}
		if seen[s] {
			return Parsed{}, &Error{Code: CodeDuplicateScope, Input: raw}
		}
		seen[s] = true

		switch s {
		case scopeLayer:
			out.Layer = id
		case scopeSublayer:
			out.Sublayer = id
			out.hasSublayer = true
		case scopeSection:
			out.Section = id
			out.hasSection = true
		case scopeElement:
			out.Element = id
			out.hasElement = true
		}
	}

	if !seen[scopeLayer] {
		return Parsed{}, &Error{Code: CodeLayerRequired, Input: raw}
	}
	// Out-of-order / gap check: once a deeper scope has been seen, every
	// shallower scope must already be present, and scopes below it must
	// appear strictly after it in the split (Go's ordered split preserves
	// input order, so re-derive order from first appearance).
	order := []scope{}
	for _, segment := range segments {
		trimmed := strings.TrimSpace(segment)
		name, _, _ := strings.Cut(trimmed, ":")
		s, _ := scopeFromName(strings.TrimSpace(name))
		order = append(order, s)
	}
	for i, s := range order {
		if int(s) != i {
			return Parsed{}, &Error{Code: CodeOutOfOrder, Input: raw}
		}
	}

	return out, nil
}

// Format renders a Parsed value back to its canonical text form.
func Format(p Parsed) string {
	var b strings.Builder
	b.WriteString("layer:")
	b.WriteString(p.Layer)
	if p.hasSublayer {
		b.WriteString("/sublayer:")
		b.WriteString(p.Sublayer)
	}
	if p.hasSection {
		b.WriteString("/section:")
		b.WriteString(p.Section)
	}
	if p.hasElement {
		b.WriteString("/element:")
		b.WriteString(p.Element)
	}
	return b.String()
}

// Normalize parses raw and re-renders it through Format, producing a
// byte-identical canonical string for any equivalent (whitespace-padded)
// input.
func Normalize(raw string) (string, error) {
	p, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return Format(p), nil
}

// Child builds a reference one scope deeper than parent, e.g. a section
// reference under a parsed sublayer reference.
func Child(parent Parsed, id string) (Parsed, error) {
	switch {
	case !parent.hasSublayer:
		parent.Sublayer = id
		parent.hasSublayer = true
	case !parent.hasSection:
		parent.Section = id
		parent.hasSection = true
	case !parent.hasElement:
		parent.Element = id
		parent.hasElement = true
	default:
		return Parsed{}, &Error{Code: CodeOutOfOrder, Input: Format(parent)}
	}
	if strings.TrimSpace(id) == "" {
		return Parsed{}, &Error{Code: CodeEmptyID, Input: id}
	}
	return parent, nil
}

// Ancestors returns the chain of ancestor canonical references, shallowest
// first, not including ref itself.
func Ancestors(ref string) ([]string, error) {
	p, err := Parse(ref)
	if err != nil {
		return nil, err
	}
	out := []string{}
	if p.hasElement {
		sec := p
		sec.hasElement = false
		sec.Element = ""
		out = append(out, Format(layerOnly(p)), Format(sublayerOnly(p)), Format(sec))
		return out, nil
	}
	if p.hasSection {
		out = append(out, Format(layerOnly(p)), Format(sublayerOnly(p)))
		return out, nil
	}
	if p.hasSublayer {
		out = append(out, Format(layerOnly(p)))
		return out, nil
	}
	return out, nil
}

func layerOnly(p Parsed) Parsed {
	return Parsed{Layer: p.Layer}
}

func sublayerOnly(p Parsed) Parsed {
	return Parsed{Layer: p.Layer, Sublayer: p.Sublayer, hasSublayer: true}
}
