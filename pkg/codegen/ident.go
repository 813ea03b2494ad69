package codegen

import (
	"fmt"
	"strings"
	"unicode"
)

// Rust keywords, strict and reserved, that cannot name a variant.
//
//nolint:gochecknoglobals // lookup table
var rustKeywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true,
	"continue": true, "crate": true, "dyn": true, "else": true, "enum": true,
	"extern": true, "false": true, "fn": true, "for": true, "if": true,
	"impl": true, "in": true, "let": true, "loop": true, "match": true,
	"mod": true, "move": true, "mut": true, "pub": true, "ref": true,
	"return": true, "self": true, "Self": true, "static": true, "struct": true,
	"super": true, "trait": true, "true": true, "type": true, "unsafe": true,
	"use": true, "where": true, "while": true, "abstract": true, "become": true,
	"box": true, "do": true, "final": true, "macro": true, "override": true,
	"priv": true, "try": true, "typeof": true, "unsized": true, "virtual": true,
	"yield": true, "gen": true,
}

// IsValidIdentifier reports whether name can be used as a Rust variant name.
// Letter and digit classes approximate Unicode XID_Start and XID_Continue.
func IsValidIdentifier(name string) (valid bool) {
	if name == "" || name == "_" || rustKeywords[name] {
		return valid
	}

	for i, r := range name {
		if i == 0 {
			if r != '_' && !unicode.IsLetter(r) {
				return valid
			}
			continue
		}
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.In(r, unicode.Mn, unicode.Mc, unicode.Pc) {
			return valid
		}
	}

	valid = true
	return valid
}

// QuoteString returns s as a Rust string literal.
func QuoteString(s string) (quoted string) {
	var sb strings.Builder
	sb.WriteByte('"')

	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		default:
			if unicode.IsControl(r) {
				sb.WriteString(fmt.Sprintf(`\u{%x}`, r))
				continue
			}
			sb.WriteRune(r)
		}
	}

	sb.WriteByte('"')
	quoted = sb.String()
	return quoted
}

// IsValidVisibility reports whether v is a Rust visibility qualifier: empty
// (private), pub, pub(crate), pub(super), pub(self) or pub(in path).
func IsValidVisibility(v string) (valid bool) {
	if v == "" || v == "pub" {
		valid = true
		return valid
	}

	if !strings.HasPrefix(v, "pub(") || !strings.HasSuffix(v, ")") {
		return valid
	}

	scope := strings.TrimSpace(v[len("pub(") : len(v)-1])
	switch scope {
	case "crate", "super", "self":
		valid = true
	default:
		path, ok := strings.CutPrefix(scope, "in ")
		valid = ok && strings.TrimSpace(path) != ""
	}

	return valid
}
