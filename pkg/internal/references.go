package internal

import (
	"regexp"
	"strings"
	"unicode"
)

// Variable blocks, tags and comments, in order of appearance.
var blockPattern = regexp.MustCompile(`(?s)\{\{(.*?)\}\}|\{%(.*?)%\}|\{#.*?#\}`)

// Identifiers that never name a context variable.
var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"true": true, "false": true, "True": true, "False": true,
	"none": true, "None": true, "nil": true,
	"reversed": true, "sorted": true,
}

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenLiteral
	tokenSymbol
)

type token struct {
	kind tokenKind
	text string
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func tokenize(expr string) []token {
	var tokens []token
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '"' || r == '\'':
			j := i + 1
			for j < len(runes) && runes[j] != r {
				if runes[j] == '\\' {
					j++
				}
				j++
			}
			tokens = append(tokens, token{tokenLiteral, string(runes[i:min(j+1, len(runes))])})
			i = j + 1
		case unicode.IsDigit(r):
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			tokens = append(tokens, token{tokenLiteral, string(runes[i:j])})
			i = j
		case isIdentStart(r):
			j := i
			for j < len(runes) && isIdentPart(runes[j]) {
				j++
			}
			tokens = append(tokens, token{tokenIdent, string(runes[i:j])})
			i = j
		default:
			tokens = append(tokens, token{tokenSymbol, string(r)})
			i++
		}
	}
	return tokens
}

// trimControl drops the whitespace control markers of `{%-`, `-%}` and friends.
func trimControl(inner string) string {
	return strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(inner), "-"), "-")
}

// defaulted reports whether the value starting at rest, after its attribute
// chain, is piped through a default filter.
func defaulted(rest []token) bool {
	i := 0
	for i+1 < len(rest) && rest[i].text == "." {
		i += 2
	}
	for i+1 < len(rest) && rest[i].text == "|" {
		if f := rest[i+1].text; f == "default" || f == "default_if_none" {
			return true
		}
		i += 2
		// skip a filter argument
		if i+1 < len(rest) && rest[i].text == ":" {
			i += 2
		}
	}
	return false
}

// expressionRefs returns the root names an expression reads from its context.
// Attributes and filter names are not references.
func expressionRefs(tokens []token) []string {
	var refs []string
	for i, t := range tokens {
		if t.kind != tokenIdent || keywords[t.text] {
			continue
		}
		if i > 0 && (tokens[i-1].text == "." || tokens[i-1].text == "|") {
			continue
		}
		if defaulted(tokens[i+1:]) {
			continue
		}
		refs = append(refs, t.text)
	}
	return refs
}

// undefinedReferences returns the names text reads that neither vars nor
// the template itself binds, in order of first appearance. Names bound by
// for, with, set, macro and `as` clauses count as defined throughout the
// template. if and elif conditions are not checked, so `{% if x %}` on an
// unbound x is simply false.
func undefinedReferences(text string, vars map[string]interface{}) []string {
	bound := map[string]bool{"forloop": true}
	var refs []string
	skipUntil := ""

	for _, m := range blockPattern.FindAllStringSubmatchIndex(text, -1) {
		switch {
		case m[2] >= 0:
			if skipUntil == "" {
				refs = append(refs, expressionRefs(tokenize(trimControl(text[m[2]:m[3]])))...)
			}
		case m[4] >= 0:
			tokens := tokenize(trimControl(text[m[4]:m[5]]))
			if len(tokens) == 0 || tokens[0].kind != tokenIdent {
				continue
			}
			tag, args := tokens[0].text, tokens[1:]
			if skipUntil != "" {
				if tag == skipUntil {
					skipUntil = ""
				}
				continue
			}

			switch tag {
			case "verbatim", "comment":
				skipUntil = "end" + tag
			case "for":
				in := len(args)
				for i, t := range args {
					if t.kind == tokenIdent && t.text == "in" {
						in = i
						break
					}
				}
				for _, t := range args[:in] {
					if t.kind == tokenIdent {
						bound[t.text] = true
					}
				}
				if in < len(args) {
					refs = append(refs, expressionRefs(args[in+1:])...)
				}
			case "with", "set":
				var expr []token
				for i := 0; i < len(args); i++ {
					t := args[i]
					assigns := i+1 < len(args) && args[i+1].text == "=" && (i+2 >= len(args) || args[i+2].text != "=")
					if t.kind == tokenIdent && assigns {
						bound[t.text] = true
						i++
						continue
					}
					if t.kind == tokenIdent && t.text == "as" && i+1 < len(args) {
						bound[args[i+1].text] = true
						i++
						continue
					}
					expr = append(expr, t)
				}
				refs = append(refs, expressionRefs(expr)...)
			case "macro":
				for _, t := range args {
					if t.kind == tokenIdent {
						bound[t.text] = true
					}
				}
			default:
				for i, t := range args {
					if t.kind == tokenIdent && t.text == "as" && i+1 < len(args) {
						bound[args[i+1].text] = true
					}
				}
			}
		}
	}

	var undefined []string
	seen := map[string]bool{}
	for _, name := range refs {
		if _, ok := vars[name]; ok || bound[name] || seen[name] {
			continue
		}
		seen[name] = true
		undefined = append(undefined, name)
	}
	return undefined
}
