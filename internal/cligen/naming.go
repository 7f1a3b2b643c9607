package cligen

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultPrefixes are the operationId verb prefixes stripped from command
// names, in the order they are tried.
var DefaultPrefixes = []string{"get", "delete", "resolve", "update", "set"}

// ToCommandName strips the first matching prefix from operationID and
// lowercases the first character of the rest. An id equal to a prefix, or
// matching none, only has its first character lowercased.
func ToCommandName(operationID string, prefixes []string) string {
	name := operationID
	for _, p := range prefixes {
		if p != "" && name != p && strings.HasPrefix(name, p) {
			name = strings.TrimPrefix(name, p)
			break
		}
	}
	return lowerFirst(name)
}

// FromCommandName is the inverse of ToCommandName for a known prefix.
func FromCommandName(name, prefix string) string {
	return prefix + upperFirst(name)
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// flagName turns a camelCase parameter name into a flag name:
// processInstanceId -> process-instance-id.
func flagName(param string) string {
	if name := kebabCase(param); name != "" {
		return name
	}
	return param
}

func kebabCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s) + 8)

	prevDash := false
	var prevCat runeCategory

	for _, r := range s {
		cat := categorize(r)
		switch cat {
		case catLower, catUpper, catDigit:
			// Dash on lower->upper boundaries (camelCase).
			if b.Len() > 0 && !prevDash && cat == catUpper && (prevCat == catLower || prevCat == catDigit) {
				b.WriteByte('-')
			}
			if cat == catUpper {
				r = unicode.ToLower(r)
			}
			b.WriteRune(r)
			prevDash = false
		default:
			if b.Len() > 0 && !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
		prevCat = cat
	}

	return strings.Trim(b.String(), "-")
}

type runeCategory int

const (
	catOther runeCategory = iota
	catLower
	catUpper
	catDigit
)

func categorize(r rune) runeCategory {
	switch {
	case r >= 'a' && r <= 'z':
		return catLower
	case r >= 'A' && r <= 'Z':
		return catUpper
	case r >= '0' && r <= '9':
		return catDigit
	default:
		return catOther
	}
}
