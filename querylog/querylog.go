// Package querylog persists backend interaction logs. Recording is
// best-effort by contract: the engine reports a sink failure as a local
// warning and never fails an execution over it.
package querylog

import (
	"context"
	"time"
)

// Record is one logged backend interaction.
type Record struct {
	// ID is assigned by the sink when empty
	ID string

	// Prompt sent to the backend
	Prompt string

	// Response returned by the backend
	Response string

	// Model that served the request
	Model string

	// CreatedAt defaults to the insert time when zero
	CreatedAt time.Time
}

// Sink receives interaction records.
type Sink interface {
	Record(ctx context.Context, rec Record) error
}

// Nop discards all records.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(ctx context.Context, rec Record) error {
	return nil
}
