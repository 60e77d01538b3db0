package script

// Validate runs the full structural and semantic check on raw script text
// without touching any backend. A nil/empty result means the script is safe
// to execute.
func Validate(src string) []*ValidationError {
	s, err := Parse(src)
	if err != nil {
		if ve, ok := err.(*ValidationError); ok {
			return []*ValidationError{ve}
		}
		return []*ValidationError{structuralf("%v", err)}
	}
	return s.Validate()
}

// Validate checks a parsed script: required blocks, duplicate symbols,
// define-before-use for every section, graph and evaluation reference, the
// evaluation criteria ranges, and memory-graph acyclicity. Errors are
// returned in a stable order.
func (s *Script) Validate() []*ValidationError {
	var errs []*ValidationError

	if !s.hasSymbolBlock {
		errs = append(errs, structuralf("missing %s block", symbolBlockKeyword))
	}
	if len(s.Sections) == 0 {
		errs = append(errs, structuralf("script declares no %s directives", sectionKeyword))
	}

	for _, tok := range s.duplicates {
		errs = append(errs, structuralf("symbol %s defined more than once", tok))
	}

	seenSect := make(map[string]bool)
	for _, sec := range s.Sections {
		if _, ok := s.Symbols[sec.Symbol]; !ok {
			errs = append(errs, undefinedf("%s references undefined symbol %s", sectionKeyword, sec.Symbol))
		}
		if seenSect[sec.Symbol] {
			errs = append(errs, structuralf("duplicate %s directive for %s", sectionKeyword, sec.Symbol))
		}
		seenSect[sec.Symbol] = true
	}

	for _, e := range s.Edges {
		if _, ok := s.Symbols[e.From]; !ok {
			errs = append(errs, undefinedf("%s references undefined symbol %s", graphBlockKeyword, e.From))
		}
		for _, to := range e.To {
			if _, ok := s.Symbols[to]; !ok {
				errs = append(errs, undefinedf("%s references undefined symbol %s", graphBlockKeyword, to))
			}
		}
	}

	seenEval := make(map[string]bool)
	for _, ev := range s.evals {
		if _, ok := s.Symbols[ev.Symbol]; !ok {
			errs = append(errs, undefinedf("%s references undefined symbol %s", evalKeyword, ev.Symbol))
			continue
		}
		if s.Section(ev.Symbol) == nil {
			errs = append(errs, structuralf("%s(%s) has no matching %s directive", evalKeyword, ev.Symbol, sectionKeyword))
		}
		if seenEval[ev.Symbol] {
			errs = append(errs, structuralf("duplicate %s directive for %s", evalKeyword, ev.Symbol))
		}
		seenEval[ev.Symbol] = true
		if ev.Threshold < 0 || ev.Threshold > 100 {
			errs = append(errs, structuralf("%s(%s): th must be in [0,100], got %d", evalKeyword, ev.Symbol, ev.Threshold))
		}
		if ev.MaxIterations < 1 {
			errs = append(errs, structuralf("%s(%s): iter must be at least 1, got %d", evalKeyword, ev.Symbol, ev.MaxIterations))
		}
	}

	// Acyclicity is only meaningful once every reference resolves.
	if len(errs) == 0 {
		if _, err := s.GenerationOrder(); err != nil {
			if ve, ok := err.(*ValidationError); ok {
				errs = append(errs, ve)
			}
		}
	}

	return errs
}
