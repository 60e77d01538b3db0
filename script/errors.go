package script

import "fmt"

// Kind is the closed taxonomy of script validation failures.
type Kind string

const (
	// KindStructural covers unbalanced delimiters, unterminated comments,
	// malformed entries, duplicate symbols and missing required blocks.
	KindStructural Kind = "structural"

	// KindUndefinedSymbol covers any reference to a token with no
	// DEFINE_SYMBOLS entry.
	KindUndefinedSymbol Kind = "undefined_symbol"

	// KindCyclicDependency covers cycles in the memory graph.
	KindCyclicDependency Kind = "cyclic_dependency"
)

// ValidationError is one script defect. Messages describe the script text
// only; they never carry prompts or backend detail.
type ValidationError struct {
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func structuralf(format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindStructural, Message: fmt.Sprintf(format, args...)}
}

func undefinedf(format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindUndefinedSymbol, Message: fmt.Sprintf(format, args...)}
}

func cyclicf(format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindCyclicDependency, Message: fmt.Sprintf(format, args...)}
}
