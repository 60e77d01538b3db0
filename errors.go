package omega

import (
	"errors"
	"fmt"
	"strings"

	"github.com/omegalang/omega/script"
)

// Sentinel errors for backend failures. Execute and Correct wrap these;
// check with errors.Is. The wrapped messages are sanitized: they never
// carry prompts, raw response bodies or credentials.
var (
	// ErrBackendUnavailable marks a transient backend failure that
	// persisted through one retry with identical input.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrBackendRefusal marks an explicit policy refusal; never retried.
	ErrBackendRefusal = errors.New("backend refused generation")
)

// InvalidScriptError is returned by Execute when validation fails before
// any backend call.
type InvalidScriptError struct {
	Errors []*script.ValidationError
}

func (e *InvalidScriptError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("invalid script: %s", strings.Join(msgs, "; "))
}

// CorrectionExhaustedError is returned by Correct when the script still
// fails validation after the configured number of repair rounds.
type CorrectionExhaustedError struct {
	// Attempts is the number of repair rounds performed
	Attempts int

	// Errors are the validation failures of the final attempt
	Errors []*script.ValidationError
}

func (e *CorrectionExhaustedError) Error() string {
	return fmt.Sprintf("correction exhausted after %d attempts: %d validation errors remain", e.Attempts, len(e.Errors))
}
