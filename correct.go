package omega

import (
	"context"
	"log/slog"

	"github.com/omegalang/omega/llm"
	"github.com/omegalang/omega/script"
)

// correctionTemperature leans deterministic for script repair.
const correctionTemperature = 0.1

// Correction is the outcome of a successful repair.
type Correction struct {
	// Script is the corrected script text
	Script string

	// Attempts is the number of backend rounds used; zero when the input
	// was already valid
	Attempts int
}

// Correct round-trips an invalid script and its validation errors through
// the backend until the result validates, bounded by
// Config.MaxCorrectionAttempts. A valid input returns immediately with zero
// attempts. The loop is explicitly iterative, so stack depth is constant
// regardless of the bound.
func (in *Interpreter) Correct(ctx context.Context, src string) (*Correction, error) {
	current := src
	errs := script.Validate(current)
	if len(errs) == 0 {
		return &Correction{Script: current, Attempts: 0}, nil
	}

	for attempt := 1; attempt <= in.cfg.MaxCorrectionAttempts; attempt++ {
		slog.Debug("correction attempt", "attempt", attempt, "errors", len(errs))

		repaired, _, err := in.call(ctx, llm.Request{
			System:      systemCorrector,
			Prompt:      correctionPrompt(current, errs),
			Temperature: correctionTemperature,
		})
		if err != nil {
			return nil, err
		}

		current = repaired
		errs = script.Validate(current)
		if len(errs) == 0 {
			return &Correction{Script: current, Attempts: attempt}, nil
		}
	}

	return nil, &CorrectionExhaustedError{
		Attempts: in.cfg.MaxCorrectionAttempts,
		Errors:   errs,
	}
}
