// Package naming converts hyphen-delimited path segments into capitalized
// identifiers used for generated module directories.
//
// Usage:
//
//	id, err := naming.Translate("xdg-activation") // "XdgActivation"
package naming

import (
	"strings"
	"unicode"

	"go.eggybyte.com/bindgen/internal/errors"
)

// Translate title-cases segment and drops its hyphens: a letter is upper-cased
// when it follows a non-letter or starts the segment, and lower-cased when it
// follows another letter. So "xdg-activation" is "XdgActivation" and
// "foo_bar" is "Foo_Bar".
//
// A segment with no words (empty, or only hyphens) and a segment containing
// anything other than letters, digits, '_' or '-' are rejected with
// errors.CodeTranslation; an identifier is never empty.
func Translate(segment string) (string, error) {
	if segment == "" {
		return "", errors.New(errors.CodeTranslation, "empty path segment")
	}
	for _, r := range segment {
		if !(r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return "", errors.Newf(errors.CodeTranslation, "malformed path segment %q: unexpected %q", segment, r)
		}
	}

	var b strings.Builder
	b.Grow(len(segment))
	afterLetter := false
	for _, r := range segment {
		switch {
		case r == '-':
			afterLetter = false
		case unicode.IsLetter(r):
			if afterLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			afterLetter = true
		default:
			b.WriteRune(r)
			afterLetter = false
		}
	}

	if b.Len() == 0 {
		return "", errors.Newf(errors.CodeTranslation, "path segment %q has no words", segment)
	}
	return b.String(), nil
}

// TranslateAll translates every segment in order and stops at the first error.
func TranslateAll(segments ...string) ([]string, error) {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		id, err := Translate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
