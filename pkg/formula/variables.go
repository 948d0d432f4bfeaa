package formula

import (
	"regexp"
	"strings"

	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

var (
	variableRegexp = regexp.MustCompile(`^\{([a-zA-Z0-9_\-.]+)\}$`)
	boolIfRegexp   = regexp.MustCompile(`^\{([0-9a-zA-Z_\-.]+)\s*\?\s*([0-9a-zA-Z_\-.]+)\s*:\s*([0-9a-zA-Z_\-.]+)\}$`)
	cmpIfRegexp    = regexp.MustCompile(`^\{([0-9a-zA-Z_\-.]+)\s*\?\s*([0-9a-zA-Z_\-.]+)\s*==\s*('?[0-9a-zA-Z _\-.]+'?)\s*:\s*([0-9a-zA-Z_\-.]+)\}$`)
)

// Substitute resolves {...} value tokens against attrs:
//
//	{name}              the value of name
//	{cond?a:b}          a if cond is truthy, otherwise b
//	{cond?a=='lit':b}   cond if a equals lit, otherwise b
//
// A missing or null attribute resolves to "0", as does any brace content that
// matches none of the forms. Other tokens pass through unchanged.
func Substitute(tokens []Token, attrs types.Attributes) []Token {
	out := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind != TokenValue || !strings.HasPrefix(tok.Text, "{") || !strings.HasSuffix(tok.Text, "}") {
			out = append(out, tok)
			continue
		}
		out = append(out, Value(resolve(tok.Text, attrs)))
	}
	return out
}

func resolve(ref string, attrs types.Attributes) string {
	if m := variableRegexp.FindStringSubmatch(ref); m != nil {
		return lookup(attrs, m[1])
	}

	if m := cmpIfRegexp.FindStringSubmatch(ref); m != nil {
		cond, subject, literal, otherwise := m[1], m[2], m[3], m[4]
		got, hasSubject := attrs.Get(subject)
		if hasSubject && attrs.Has(cond) {
			if len(literal) >= 2 && strings.HasPrefix(literal, "'") && strings.HasSuffix(literal, "'") {
				literal = literal[1 : len(literal)-1]
			}
			if matchesLiteral(got, literal) {
				return lookup(attrs, cond)
			}
		}
		return lookup(attrs, otherwise)
	}

	if m := boolIfRegexp.FindStringSubmatch(ref); m != nil {
		cond, then, otherwise := m[1], m[2], m[3]
		v, ok := attrs.Get(cond)
		if !ok {
			return "0"
		}
		if v.Truthy() {
			return lookup(attrs, then)
		}
		return lookup(attrs, otherwise)
	}

	return "0"
}

// lookup returns the minimal string form of attrs[key], or "0".
func lookup(attrs types.Attributes, key string) string {
	v, ok := attrs.Get(key)
	if !ok || v.IsNull() {
		return "0"
	}
	return v.MinimalString()
}

func matchesLiteral(v types.Value, literal string) bool {
	if v.Type() == types.TypeString {
		return v.AsString() == literal
	}
	return v.MinimalString() == literal
}
