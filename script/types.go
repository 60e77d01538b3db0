package script

// Symbol maps a short token to a human-readable label and description.
// Symbols are referenced by section directives and the memory graph.
type Symbol struct {
	// Token is the @-prefixed identifier, e.g. "@SUM"
	Token string

	// Label is the quoted display name
	Label string

	// Description is optional free text following the label
	Description string
}

// Section is one WR_SECT directive: an instruction to generate one named
// unit of output content.
type Section struct {
	// Symbol is the token of the symbol this section renders
	Symbol string

	// Title is the optional t="..." argument
	Title string

	// Description is the d="..." free-text payload
	Description string

	// Content is populated by the generation coordinator and may be
	// overwritten by the evaluation loop during refinement
	Content string

	// Eval carries the optional evaluation criteria for this section
	Eval *EvalCriteria

	// Order is the zero-based declaration position, fixed at parse time.
	// Final assembly uses it regardless of generation order.
	Order int
}

// EvalCriteria is the quality threshold and iteration bound attached to a
// section by an EVAL_SECT directive.
type EvalCriteria struct {
	// Threshold is the minimum acceptable score, 0-100
	Threshold int

	// MaxIterations bounds refinement rounds (>= 1)
	MaxIterations int
}

// Edge is one memory-graph entry. From depends on every token in To: each
// To section is generated before From, and its content feeds From's prompt.
type Edge struct {
	From string
	To   []string
}

// Script is the parsed, immutable form of one Omega script. All fields are
// fixed at parse time except Section.Content, which one execution's
// coordinator fills in.
type Script struct {
	// Source is the raw input text, never mutated
	Source string

	// Preamble is everything before the DEFINE_SYMBOLS block
	Preamble string

	// Symbols indexes symbol definitions by token
	Symbols map[string]Symbol

	// Sections in declaration order
	Sections []*Section

	// Edges are the memory-graph entries in declaration order
	Edges []Edge

	// duplicates records symbol tokens defined more than once; the first
	// definition wins, validation reports the rest
	duplicates []string

	// evals are the raw EVAL_SECT directives; Parse attaches them to
	// matching sections, validation reports dangling ones
	evals []evalDirective

	// hasSymbolBlock and hasGraphBlock record block presence for the
	// required-block checks
	hasSymbolBlock bool
	hasGraphBlock  bool
}

// Section returns the section for a token, or nil.
func (s *Script) Section(token string) *Section {
	for _, sec := range s.Sections {
		if sec.Symbol == token {
			return sec
		}
	}
	return nil
}

// Dependencies returns the ordered, de-duplicated tokens the given section
// depends on, across all memory-graph entries naming it.
func (s *Script) Dependencies(token string) []string {
	var deps []string
	seen := make(map[string]bool)
	for _, e := range s.Edges {
		if e.From != token {
			continue
		}
		for _, to := range e.To {
			if !seen[to] {
				seen[to] = true
				deps = append(deps, to)
			}
		}
	}
	return deps
}
