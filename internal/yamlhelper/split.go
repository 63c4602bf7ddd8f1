package yamlhelper

import (
	"regexp"
	"strings"
	"unicode"
)

var kvKeyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SplitArgs splits a module argument string on whitespace. Quoted strings and
// Jinja2 blocks ({{ }}, {% %}, {# #}) stay inside a single token, quotes included.
func SplitArgs(s string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune
	depth := 0
	inToken := false

	runes := []rune(s)
	next := func(i int) rune {
		if i+1 < len(runes) {
			return runes[i+1]
		}
		return 0
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == '\\' && i+1 < len(runes) {
				cur.WriteRune(runes[i+1])
				i++
				continue
			}
			if r == quote {
				quote = 0
			}
		case depth > 0:
			cur.WriteRune(r)
			switch {
			case strings.ContainsRune("}%#", r) && next(i) == '}':
				cur.WriteRune('}')
				i++
				depth--
			case r == '{' && strings.ContainsRune("{%#", next(i)):
				cur.WriteRune(next(i))
				i++
				depth++
			}
		case r == '{' && next(i) != 0 && strings.ContainsRune("{%#", next(i)):
			cur.WriteRune(r)
			cur.WriteRune(next(i))
			i++
			depth++
			inToken = true
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
			inToken = true
		case unicode.IsSpace(r):
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// parseKV turns leading key=value tokens into params. Everything from the
// first token that is not key=value on is kept as a free-form argument.
func parseKV(tokens []string, params map[string]any) []string {
	var args []string
	free := false
	for _, tok := range tokens {
		if !free {
			if k, v, ok := strings.Cut(tok, "="); ok && kvKeyRe.MatchString(k) {
				params[k] = unquote(v)
				continue
			}
			free = true
		}
		args = append(args, tok)
	}
	return args
}

// Free-form modules accept these key=value controls at any position of their arguments.
var freeFormModules = map[string]bool{"command": true, "shell": true, "raw": true, "script": true}

var freeFormControls = map[string]bool{
	"creates": true, "removes": true, "chdir": true, "executable": true,
	"stdin": true, "stdin_add_newline": true, "strip_empty_ends": true, "warn": true,
}

// parseFreeForm moves the control keys of a free-form module into params.
// Every other token, key=value or not, stays a free-form argument.
func parseFreeForm(tokens []string, params map[string]any) []string {
	var args []string
	for _, tok := range tokens {
		if k, v, ok := strings.Cut(tok, "="); ok && freeFormControls[k] {
			params[k] = unquote(v)
			continue
		}
		args = append(args, tok)
	}
	return args
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
