// Package omega is an interpreter and orchestration engine for Omega
// scripts: compact symbolic instructions that drive a generative text
// backend through multi-step, dependency-ordered, self-evaluating workflows.
//
// The engine provides:
//
//   - Structural parsing and validation of Omega scripts (package script)
//   - Dependency-ordered section generation with a bounded worker pool
//   - Bounded self-evaluation and refinement loops per section
//   - Bounded automatic script correction through the backend
//   - Deterministic output assembly in declaration order
//   - Best-effort interaction logging (package querylog)
//
// # Quick Start
//
// Create an interpreter and execute a script:
//
//	cfg := omega.ConfigFromEnv()
//	interp, err := omega.NewInterpreter(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := interp.Execute(ctx, src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Text)
//	for _, w := range result.Warnings {
//	    fmt.Println("warning:", w)
//	}
//
// # Validation
//
// Scripts can be checked without any backend call:
//
//	v := interp.Validate(src)
//	if !v.Valid {
//	    for _, e := range v.Errors {
//	        fmt.Println(e)
//	    }
//	}
//
// Every execution owns isolated state; interpreters are safe for concurrent
// use and hold no cross-request conversational state.
package omega
