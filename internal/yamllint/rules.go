package yamllint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	hyphenRe       = regexp.MustCompile(`^(\s*)-( +)\S`)
	implicitOctal  = regexp.MustCompile(`^0[0-7]+$`)
	explicitOctal  = regexp.MustCompile(`^0o[0-7]+$`)
	listValueRe    = regexp.MustCompile(`^\s*-\s+(\S.*)$`)
	docStartMarker = "---"
	docEndMarker   = "..."
)

func checkEmptyLines(doc *document, opts options) []Problem {
	maxMiddle := opts.intOpt("max", 2)
	maxStart := opts.intOpt("max-start", 0)
	maxEnd := opts.intOpt("max-end", 0)

	var problems []Problem
	n := len(doc.lines)
	for i := 0; i < n; {
		if !isBlank(doc.lines[i]) {
			i++
			continue
		}
		start := i
		for i < n && isBlank(doc.lines[i]) {
			i++
		}
		count := i - start
		limit := maxMiddle
		switch {
		case start == 0:
			limit = maxStart
		case i == n:
			limit = maxEnd
		}
		if count > limit {
			problems = append(problems, Problem{
				Line: i,
				Desc: fmt.Sprintf("too many blank lines (%d > %d)", count, limit),
			})
		}
	}
	return problems
}

func firstContent(doc *document) int {
	for i, line := range doc.lines {
		if !isBlank(line) && !isComment(line) && !strings.HasPrefix(line, "%") {
			return i
		}
	}
	return -1
}

func lastContent(doc *document) int {
	for i := len(doc.lines) - 1; i >= 0; i-- {
		if !isBlank(doc.lines[i]) && !isComment(doc.lines[i]) {
			return i
		}
	}
	return -1
}

func checkDocumentStart(doc *document, opts options) []Problem {
	present := opts.boolOpt("present", true)
	i := firstContent(doc)
	if i < 0 {
		return nil
	}
	found := strings.HasPrefix(doc.lines[i], docStartMarker)
	switch {
	case present && !found:
		return []Problem{{Line: i + 1, Desc: `missing document start "---"`}}
	case !present && found:
		return []Problem{{Line: i + 1, Desc: `found forbidden document start "---"`}}
	}
	return nil
}

func checkDocumentEnd(doc *document, opts options) []Problem {
	present := opts.boolOpt("present", true)
	i := lastContent(doc)
	if i < 0 {
		return nil
	}
	found := strings.TrimSpace(stripComment(doc.lines[i])) == docEndMarker
	switch {
	case present && !found:
		return []Problem{{Line: i + 1, Desc: `missing document end "..."`}}
	case !present && found:
		return []Problem{{Line: i + 1, Desc: `found forbidden document end "..."`}}
	}
	return nil
}

// colonPositions returns the byte offsets of mapping colons outside quotes and Jinja2 blocks.
func colonPositions(code string) []int {
	var out []int
	var quote byte
	jinja := 0
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			if i == 0 || strings.ContainsRune(" :[{,-", rune(code[i-1])) {
				quote = c
			}
		case c == '{' && i+1 < len(code) && (code[i+1] == '{' || code[i+1] == '%'):
			jinja++
			i++
		case (c == '}' || c == '%') && i+1 < len(code) && code[i+1] == '}' && jinja > 0:
			jinja--
			i++
		case jinja > 0:
		case c == ':' && (i+1 == len(code) || code[i+1] == ' '):
			out = append(out, i)
		}
	}
	return out
}

func checkColons(doc *document, opts options) []Problem {
	maxBefore := opts.intOpt("max-spaces-before", 0)
	maxAfter := opts.intOpt("max-spaces-after", 1)

	var problems []Problem
	for i, line := range doc.lines {
		if !doc.content(i) {
			continue
		}
		code := stripComment(line)
		for _, pos := range colonPositions(code) {
			before := 0
			for j := pos - 1; j >= 0 && code[j] == ' '; j-- {
				before++
			}
			if maxBefore >= 0 && before > maxBefore && before < pos {
				problems = append(problems, Problem{Line: i + 1, Desc: "too many spaces before colon"})
			}

			after := 0
			for j := pos + 1; j < len(code) && code[j] == ' '; j++ {
				after++
			}
			if maxAfter >= 0 && after > maxAfter && pos+1+after < len(code) {
				problems = append(problems, Problem{Line: i + 1, Desc: "too many spaces after colon"})
			}
		}
	}
	return problems
}

func checkHyphens(doc *document, opts options) []Problem {
	maxAfter := opts.intOpt("max-spaces-after", 1)

	var problems []Problem
	for i, line := range doc.lines {
		if !doc.content(i) || strings.HasPrefix(line, docStartMarker) {
			continue
		}
		if m := hyphenRe.FindStringSubmatch(line); m != nil && len(m[2]) > maxAfter {
			problems = append(problems, Problem{Line: i + 1, Desc: "too many spaces after hyphen"})
		}
	}
	return problems
}

// plainValues returns the unquoted scalar values on a line: mapping values and list items.
func plainValues(code string) []string {
	var values []string
	if positions := colonPositions(code); len(positions) > 0 {
		last := positions[len(positions)-1]
		values = append(values, strings.TrimSpace(code[last+1:]))
	} else if m := listValueRe.FindStringSubmatch(code); m != nil {
		values = append(values, strings.TrimSpace(m[1]))
	}
	if len(values) == 1 && strings.HasPrefix(values[0], "[") && strings.HasSuffix(values[0], "]") {
		inner := strings.Trim(values[0], "[]")
		values = values[:0]
		for _, item := range strings.Split(inner, ",") {
			values = append(values, strings.TrimSpace(item))
		}
	}
	return values
}

func checkOctalValues(doc *document, opts options) []Problem {
	forbidImplicit := opts.boolOpt("forbid-implicit-octal", true)
	forbidExplicit := opts.boolOpt("forbid-explicit-octal", true)

	var problems []Problem
	for i, line := range doc.lines {
		if !doc.content(i) {
			continue
		}
		for _, value := range plainValues(stripComment(line)) {
			switch {
			case forbidImplicit && implicitOctal.MatchString(value):
				problems = append(problems, Problem{Line: i + 1, Desc: fmt.Sprintf("forbidden implicit octal value %q", value)})
			case forbidExplicit && explicitOctal.MatchString(value):
				problems = append(problems, Problem{Line: i + 1, Desc: fmt.Sprintf("forbidden explicit octal value %q", value)})
			}
		}
	}
	return problems
}

type level struct {
	indent int
	// seq marks the column the content after "- " starts at.
	seq bool
}

func checkIndentation(doc *document, opts options) []Problem {
	spaces := 0
	if v := opts.value("spaces"); v != "" && v != "consistent" {
		spaces, _ = strconv.Atoi(v)
	}
	indentSeq := opts.value("indent-sequences")
	if indentSeq == "" {
		indentSeq = "true"
	}

	var problems []Problem
	stack := []level{{indent: 0}}
	opener := false
	prevIndent := 0
	seqChoice := ""

	for i, line := range doc.lines {
		if !doc.content(i) || doc.flow[i] {
			continue
		}
		code := stripComment(line)
		trimmed := strings.TrimSpace(code)
		if trimmed == docStartMarker || trimmed == docEndMarker {
			continue
		}
		ind := indentOf(line)
		isSeq := trimmed == "-" || strings.HasPrefix(trimmed, "- ")

		for len(stack) > 1 && stack[len(stack)-1].indent > ind {
			stack = stack[:len(stack)-1]
		}
		top := stack[len(stack)-1].indent

		switch {
		case ind > top && opener:
			if spaces == 0 {
				spaces = ind - top
			}
			if isSeq && indentSeq == "consistent" && seqChoice == "" {
				seqChoice = "true"
			}
			if isSeq && (indentSeq == "false" || seqChoice == "false") {
				problems = append(problems, Problem{Line: i + 1, Desc: fmt.Sprintf("wrong indentation: expected %d but found %d", top, ind)})
			} else if ind != top+spaces && !(isSeq && indentSeq == "whatever") {
				problems = append(problems, Problem{Line: i + 1, Desc: fmt.Sprintf("wrong indentation: expected %d but found %d", top+spaces, ind)})
			}
			stack = append(stack, level{indent: ind})
		case ind > top:
			// continuation of a multi-line plain scalar
			continue
		case ind == top && opener && isSeq && ind == prevIndent:
			if indentSeq == "consistent" && seqChoice == "" {
				seqChoice = "false"
			}
			if indentSeq == "true" || seqChoice == "true" {
				want := top + spaces
				if spaces == 0 {
					want = top + 2
				}
				problems = append(problems, Problem{Line: i + 1, Desc: fmt.Sprintf("wrong indentation: expected %d but found %d", want, ind)})
			}
		}

		if isSeq {
			rest := strings.TrimLeft(trimmed[1:], " ")
			offset := ind + len(trimmed) - len(rest)
			if rest != "" && stack[len(stack)-1].indent < offset {
				stack = append(stack, level{indent: offset, seq: true})
			}
		}
		opener = strings.HasSuffix(trimmed, ":") || trimmed == "-"
		prevIndent = ind
	}
	return problems
}
