package formatter

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors surfaced by New and Format. All of them indicate a
// programmer mistake in the template or palette setup, not a runtime
// condition worth retrying.
var (
	ErrInvalidTemplate   = errors.New("invalid template")
	ErrUnresolvedField   = errors.New("unresolved template field")
	ErrUnmatchedRegion   = errors.New("unmatched region marker")
	ErrNestedRegion      = errors.New("nested region marker")
	ErrEmptyRegion       = errors.New("region contains no fields")
	ErrMissingPalette    = errors.New("no palette registered for region field")
	ErrColorSupportUnset = errors.New("color support not determined")
)

type tokenKind uint8

const (
	literalToken tokenKind = iota
	fieldToken
	enterToken
	exitToken
)

// token is one element of a parsed template. For enterToken, name carries
// the first contained field's name, which selects the region's palette.
type token struct {
	kind tokenKind
	text string    // literal text (literalToken only)
	name string    // field name with any leading underscore stripped
	conv byte      // 'r', 's', 'a', or 0
	sp   specParts // parsed format spec
	bare bool      // leading-underscore field: never wrapped individually
}

// parseTemplate splits a bracket-style template into an ordered token
// sequence. Doubled braces escape literal braces; {enter}/{exit} delimit a
// region that is colorized as a single unit. Structural errors (bad
// grammar, unmatched or nested regions) are reported here so that they
// surface at Formatter construction, before any record is rendered.
func parseTemplate(s string) ([]token, error) {
	var tokens []token
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{kind: literalToken, text: lit.String()})
			lit.Reset()
		}
	}

	inRegion := false
	regionStart := -1 // index of the open enterToken
	for i := 0; i < len(s); {
		switch s[i] {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated field at offset %d", ErrInvalidTemplate, i)
			}
			body := s[i+1 : i+1+end]
			i += end + 2

			tok, err := parseField(body)
			if err != nil {
				return nil, err
			}
			flushLit()

			switch tok.kind {
			case enterToken:
				if inRegion {
					return nil, fmt.Errorf("%w: {enter} before previous region was closed", ErrNestedRegion)
				}
				inRegion = true
				regionStart = len(tokens)
			case exitToken:
				if !inRegion {
					return nil, fmt.Errorf("%w: {exit} without a preceding {enter}", ErrUnmatchedRegion)
				}
				if tokens[regionStart].name == "" {
					return nil, fmt.Errorf("%w: at least one field is required between {enter} and {exit}", ErrEmptyRegion)
				}
				inRegion = false
			case fieldToken:
				if inRegion && tokens[regionStart].name == "" {
					// first field inside the region selects its palette
					tokens[regionStart].name = tok.name
				}
			}
			tokens = append(tokens, tok)
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return nil, fmt.Errorf("%w: single '}' at offset %d", ErrInvalidTemplate, i)
		default:
			lit.WriteByte(s[i])
			i++
		}
	}
	if inRegion {
		return nil, fmt.Errorf("%w: {enter} without a matching {exit}", ErrUnmatchedRegion)
	}
	flushLit()
	return tokens, nil
}

// parseField parses the inside of a bracket reference:
// name[!conversion][:format_spec].
func parseField(body string) (token, error) {
	name := body
	var spec string
	hasSpec := false
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name, spec = name[:i], name[i+1:]
		hasSpec = true
	}

	var conv byte
	if i := strings.IndexByte(name, '!'); i >= 0 {
		if i+2 != len(name) {
			return token{}, fmt.Errorf("%w: invalid conversion in %q", ErrInvalidTemplate, body)
		}
		conv = name[i+1]
		name = name[:i]
		if conv != 'r' && conv != 's' && conv != 'a' {
			return token{}, fmt.Errorf("%w: unknown conversion %q in %q", ErrInvalidTemplate, conv, body)
		}
	}

	if name == "" {
		return token{}, fmt.Errorf("%w: empty field name in {%s}", ErrInvalidTemplate, body)
	}

	// The underscore check comes before the marker check: {_enter} is a
	// color-suppressed field literally named "enter", not a marker.
	bare := false
	if name[0] == '_' {
		bare = true
		name = name[1:]
		if name == "" {
			return token{}, fmt.Errorf("%w: empty field name in {%s}", ErrInvalidTemplate, body)
		}
	} else if name == "enter" || name == "exit" {
		if conv != 0 || hasSpec {
			return token{}, fmt.Errorf("%w: region marker %q takes no conversion or format spec", ErrInvalidTemplate, name)
		}
		if name == "enter" {
			return token{kind: enterToken}, nil
		}
		return token{kind: exitToken}, nil
	}

	if !isFieldName(name) {
		return token{}, fmt.Errorf("%w: invalid field name %q", ErrInvalidTemplate, name)
	}

	sp, err := parseSpec(spec)
	if err != nil {
		return token{}, fmt.Errorf("%w: field %q: %v", ErrInvalidTemplate, name, err)
	}

	return token{kind: fieldToken, name: name, conv: conv, sp: sp, bare: bare}, nil
}

// isFieldName reports whether s is a plain identifier. Attribute access and
// index expressions from the full bracket grammar are not supported.
func isFieldName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return len(s) > 0
}
