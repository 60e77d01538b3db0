package script

import (
	"strconv"
	"strings"
)

// Structural keywords recognized by the scanner.
const (
	symbolBlockKeyword = "DEFINE_SYMBOLS"
	graphBlockKeyword  = "MEM_GRAPH"
	sectionKeyword     = "WR_SECT"
	evalKeyword        = "EVAL_SECT"
)

// Parse scans src into a Script. It reports structural defects only
// (unterminated comments, unbalanced delimiters, malformed entries);
// semantic checks such as define-before-use live in Validate. Unrecognized
// tokens outside the known blocks are tolerated.
func Parse(src string) (*Script, error) {
	clean, err := stripComments(src)
	if err != nil {
		return nil, err
	}

	s := &Script{
		Source:  src,
		Symbols: make(map[string]Symbol),
	}

	// Symbol definition block.
	if body, start, _, err := findBlock(clean, symbolBlockKeyword); err != nil {
		return nil, err
	} else if start >= 0 {
		s.hasSymbolBlock = true
		s.Preamble = strings.TrimSpace(clean[:start])
		if err := s.parseSymbols(body); err != nil {
			return nil, err
		}
	}

	// Memory graph block.
	if body, start, _, err := findBlock(clean, graphBlockKeyword); err != nil {
		return nil, err
	} else if start >= 0 {
		s.hasGraphBlock = true
		if err := s.parseGraph(body); err != nil {
			return nil, err
		}
	}

	// Section directives, in declaration order.
	sectArgs, err := findCalls(clean, sectionKeyword)
	if err != nil {
		return nil, err
	}
	for i, args := range sectArgs {
		sec, err := parseSection(args)
		if err != nil {
			return nil, err
		}
		sec.Order = i
		s.Sections = append(s.Sections, sec)
	}

	// Evaluation directives.
	evalArgs, err := findCalls(clean, evalKeyword)
	if err != nil {
		return nil, err
	}
	for _, args := range evalArgs {
		ev, err := parseEval(args)
		if err != nil {
			return nil, err
		}
		s.evals = append(s.evals, ev)
		if sec := s.Section(ev.Symbol); sec != nil && sec.Eval == nil {
			sec.Eval = &EvalCriteria{Threshold: ev.Threshold, MaxIterations: ev.MaxIterations}
		}
	}

	return s, nil
}

// evalDirective is a parsed EVAL_SECT before it is attached to a section.
type evalDirective struct {
	Symbol        string
	Threshold     int
	MaxIterations int
}

// stripComments blanks out /* ... */ spans, preserving offsets and newlines
// so positions in the cleaned text match the source.
func stripComments(src string) (string, error) {
	var b strings.Builder
	b.Grow(len(src))

	for i := 0; i < len(src); {
		if strings.HasPrefix(src[i:], "/*") {
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return "", structuralf("unterminated comment starting at offset %d", i)
			}
			span := src[i : i+2+end+2]
			for _, r := range span {
				if r == '\n' {
					b.WriteByte('\n')
				} else {
					b.WriteByte(' ')
				}
			}
			i += len(span)
			continue
		}
		b.WriteByte(src[i])
		i++
	}
	return b.String(), nil
}

// findBlock locates `keyword { ... }` and returns the brace body plus the
// keyword's start offset and the offset just past the closing brace.
// start is -1 when the keyword does not occur. An opened block with no
// closing brace is a structural error.
func findBlock(src, keyword string) (body string, start, end int, err error) {
	idx := indexKeyword(src, keyword)
	if idx < 0 {
		return "", -1, -1, nil
	}

	// The opening brace must be the next non-space character.
	open := idx + len(keyword)
	for open < len(src) && (src[open] == ' ' || src[open] == '\t' || src[open] == '\n' || src[open] == '\r') {
		open++
	}
	if open >= len(src) || src[open] != '{' {
		return "", -1, -1, structuralf("%s must be followed by \"{\"", keyword)
	}

	close, err := matchDelimiter(src, open, '{', '}')
	if err != nil {
		return "", -1, -1, structuralf("missing closing \"}\" for %s block", keyword)
	}
	return src[open+1 : close], idx, close + 1, nil
}

// findCalls collects the argument text of every `keyword( ... )` invocation,
// in source order.
func findCalls(src, keyword string) ([]string, error) {
	var calls []string
	for from := 0; ; {
		idx := indexKeyword(src[from:], keyword)
		if idx < 0 {
			return calls, nil
		}
		idx += from

		open := idx + len(keyword)
		for open < len(src) && (src[open] == ' ' || src[open] == '\t') {
			open++
		}
		if open >= len(src) || src[open] != '(' {
			// Bare keyword with no invocation; tolerate and move on.
			from = idx + len(keyword)
			continue
		}

		close, err := matchDelimiter(src, open, '(', ')')
		if err != nil {
			return nil, structuralf("missing closing \")\" for %s directive", keyword)
		}
		calls = append(calls, src[open+1:close])
		from = close + 1
	}
}

// indexKeyword finds keyword at an identifier boundary. WR_SECT must not
// match inside EVAL_WR_SECTish tokens.
func indexKeyword(src, keyword string) int {
	for from := 0; ; {
		idx := strings.Index(src[from:], keyword)
		if idx < 0 {
			return -1
		}
		idx += from
		before := byte(0)
		if idx > 0 {
			before = src[idx-1]
		}
		after := byte(0)
		if idx+len(keyword) < len(src) {
			after = src[idx+len(keyword)]
		}
		if !isIdentByte(before) && !isIdentByte(after) {
			return idx
		}
		from = idx + len(keyword)
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '@' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// matchDelimiter returns the index of the delimiter closing the one at
// open, tracking nesting and quoted strings.
func matchDelimiter(src string, open int, oc, cc byte) (int, error) {
	depth := 0
	inQuote := false
	for i := open; i < len(src); i++ {
		c := src[i]
		if inQuote {
			if c == '\\' {
				i++
			} else if c == '"' {
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case oc:
			depth++
		case cc:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, structuralf("unbalanced %q", string(oc))
}

// splitTop splits s on any of the separator bytes at nesting depth zero,
// outside quoted strings. Separators nested in (), [], {} or quotes do not
// split.
func splitTop(s string, seps string) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			if c == '\\' {
				i++
			} else if c == '"' {
				inQuote = false
			}
			continue
		}
		switch {
		case c == '"':
			inQuote = true
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case depth == 0 && strings.IndexByte(seps, c) >= 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// parseSymbols fills the symbol table from the DEFINE_SYMBOLS body.
// Entries are comma-separated: @TOK="Label" [optional description].
func (s *Script) parseSymbols(body string) error {
	for _, entry := range splitTop(body, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		tok, rest, err := readToken(entry)
		if err != nil {
			return structuralf("malformed symbol entry %q: %v", entry, err)
		}

		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, "=") {
			return structuralf("symbol %s: expected = after token", tok)
		}
		rest = strings.TrimSpace(rest[1:])

		label, rest, err := readQuoted(rest)
		if err != nil {
			return structuralf("symbol %s: %v", tok, err)
		}

		desc := strings.TrimSpace(rest)
		if strings.HasPrefix(desc, "[") && strings.HasSuffix(desc, "]") {
			desc = strings.TrimSpace(desc[1 : len(desc)-1])
		}

		if _, exists := s.Symbols[tok]; exists {
			s.duplicates = append(s.duplicates, tok)
			continue
		}
		s.Symbols[tok] = Symbol{Token: tok, Label: label, Description: desc}
	}
	return nil
}

// parseGraph fills the edge list from the MEM_GRAPH body. Entries are
// separated by semicolons or newlines: @A -> [@B, @C].
func (s *Script) parseGraph(body string) error {
	for _, entry := range splitTop(body, ";\n") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		fromPart, toPart, found := strings.Cut(entry, "->")
		if !found {
			return structuralf("malformed memory graph entry %q: expected \"->\"", entry)
		}

		from, rest, err := readToken(strings.TrimSpace(fromPart))
		if err != nil || strings.TrimSpace(rest) != "" {
			return structuralf("malformed memory graph entry %q: left side must be a single token", entry)
		}

		edge := Edge{From: from}
		seen := make(map[string]bool)

		rhs := strings.TrimSpace(toPart)
		if strings.HasPrefix(rhs, "[") {
			if !strings.HasSuffix(rhs, "]") {
				return structuralf("malformed memory graph entry %q: missing closing \"]\"", entry)
			}
			rhs = rhs[1 : len(rhs)-1]
			for _, part := range splitTop(rhs, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				to, rest, err := readToken(part)
				if err != nil || strings.TrimSpace(rest) != "" {
					return structuralf("malformed memory graph entry %q: bad dependency %q", entry, part)
				}
				if !seen[to] {
					seen[to] = true
					edge.To = append(edge.To, to)
				}
			}
		} else {
			to, rest, err := readToken(rhs)
			if err != nil || strings.TrimSpace(rest) != "" {
				return structuralf("malformed memory graph entry %q: right side must be a token or [token, ...]", entry)
			}
			edge.To = []string{to}
		}

		s.Edges = append(s.Edges, edge)
	}
	return nil
}

// parseSection parses WR_SECT arguments: @TOK, then key="value" pairs.
// Unknown keys are tolerated.
func parseSection(args string) (*Section, error) {
	parts := splitTop(args, ",")
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return nil, structuralf("%s requires a symbol argument", sectionKeyword)
	}

	tok, rest, err := readToken(strings.TrimSpace(parts[0]))
	if err != nil || strings.TrimSpace(rest) != "" {
		return nil, structuralf("%s: first argument must be a symbol token", sectionKeyword)
	}

	sec := &Section{Symbol: tok}
	for _, part := range parts[1:] {
		key, val, err := parseKeyValue(part)
		if err != nil {
			return nil, structuralf("%s(%s): %v", sectionKeyword, tok, err)
		}
		switch key {
		case "t", "title":
			sec.Title = val
		case "d", "desc":
			sec.Description = val
		}
	}
	return sec, nil
}

// parseEval parses EVAL_SECT arguments: @TOK, th=<0-100>, iter=<n>.
// iter defaults to 1 when omitted; range checks happen during validation.
func parseEval(args string) (evalDirective, error) {
	parts := splitTop(args, ",")
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return evalDirective{}, structuralf("%s requires a symbol argument", evalKeyword)
	}

	tok, rest, err := readToken(strings.TrimSpace(parts[0]))
	if err != nil || strings.TrimSpace(rest) != "" {
		return evalDirective{}, structuralf("%s: first argument must be a symbol token", evalKeyword)
	}

	ev := evalDirective{Symbol: tok, Threshold: -1, MaxIterations: 1}
	for _, part := range parts[1:] {
		key, val, err := parseKeyValue(part)
		if err != nil {
			return evalDirective{}, structuralf("%s(%s): %v", evalKeyword, tok, err)
		}
		switch key {
		case "th", "threshold":
			n, err := strconv.Atoi(val)
			if err != nil {
				return evalDirective{}, structuralf("%s(%s): th must be an integer, got %q", evalKeyword, tok, val)
			}
			ev.Threshold = n
		case "iter", "iterations":
			n, err := strconv.Atoi(val)
			if err != nil {
				return evalDirective{}, structuralf("%s(%s): iter must be an integer, got %q", evalKeyword, tok, val)
			}
			ev.MaxIterations = n
		}
	}
	if ev.Threshold < 0 {
		return evalDirective{}, structuralf("%s(%s): missing th argument", evalKeyword, tok)
	}
	return ev, nil
}

// parseKeyValue parses key="value" or key=value.
func parseKeyValue(part string) (key, val string, err error) {
	part = strings.TrimSpace(part)
	if part == "" {
		return "", "", nil
	}
	key, rest, found := strings.Cut(part, "=")
	if !found {
		return "", "", structuralf("expected key=value, got %q", part)
	}
	key = strings.TrimSpace(key)
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, `"`) {
		val, tail, err := readQuoted(rest)
		if err != nil {
			return "", "", err
		}
		if strings.TrimSpace(tail) != "" {
			return "", "", structuralf("unexpected trailing text after %s value", key)
		}
		return key, val, nil
	}
	return key, rest, nil
}

// readToken consumes an @-prefixed identifier and returns it with the
// remaining text.
func readToken(s string) (token, rest string, err error) {
	if !strings.HasPrefix(s, "@") {
		return "", "", structuralf("expected @token, got %q", s)
	}
	i := 1
	for i < len(s) && isIdentByte(s[i]) && s[i] != '@' {
		i++
	}
	if i == 1 {
		return "", "", structuralf("empty token in %q", s)
	}
	return s[:i], s[i:], nil
}

// readQuoted consumes a double-quoted string with backslash escapes and
// returns its value with the remaining text.
func readQuoted(s string) (val, rest string, err error) {
	if !strings.HasPrefix(s, `"`) {
		return "", "", structuralf("expected quoted string, got %q", s)
	}
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		if c == '"' {
			return b.String(), s[i+1:], nil
		}
		b.WriteByte(c)
	}
	return "", "", structuralf("unterminated quoted string")
}
