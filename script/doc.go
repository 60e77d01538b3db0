// Package script parses and validates Omega scripts, the compact symbolic
// instruction language that drives multi-step text generation.
//
// # Script Overview
//
// An Omega script declares symbols, an optional dependency graph between
// sections, and one section directive per unit of output:
//
//	Ω=>δ(write a short technical report)
//
//	DEFINE_SYMBOLS{
//	    @SUM="Summary" [one-paragraph overview],
//	    @BODY="Body" [detailed findings],
//	}
//
//	MEM_GRAPH{
//	    @SUM -> [@BODY];
//	}
//
//	WR_SECT(@BODY, d="Describe the findings in detail.")
//	WR_SECT(@SUM, t="Executive Summary", d="Summarize the findings.")
//	EVAL_SECT(@SUM, th=90, iter=2)
//
// Everything before DEFINE_SYMBOLS is the preamble and is carried verbatim
// into every generation prompt. A memory graph entry @A -> [@B] means that
// the section for @A depends on @B: @B is generated first and its content is
// included in @A's prompt. Block comments use /* ... */ and are ignored.
//
// # Using the package
//
// Parse and validate a script:
//
//	s, err := script.Parse(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if errs := s.Validate(); len(errs) > 0 {
//	    for _, e := range errs {
//	        fmt.Println(e)
//	    }
//	}
//
//	order, err := s.GenerationOrder()
//
// Validation is purely textual: it never contacts a generation backend, so a
// malformed script is rejected at zero generation cost.
package script
