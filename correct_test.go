package omega

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/omegalang/omega/llm"
)

const brokenScript = `
DEFINE_SYMBOLS{@A="Alpha"}
WR_SECT(@MISSING, d="references an undefined symbol")
`

const repairedScript = `
DEFINE_SYMBOLS{@A="Alpha"}
WR_SECT(@A, d="references a defined symbol")
`

func TestCorrectValidInputNoBackendCalls(t *testing.T) {
	stub := &stubBackend{}
	in := newTestInterpreter(t, stub, Config{})

	c, err := in.Correct(context.Background(), repairedScript)
	if err != nil {
		t.Fatalf("Correct() returned error: %v", err)
	}
	if c.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0", c.Attempts)
	}
	if c.Script != repairedScript {
		t.Error("valid input was not returned unchanged")
	}
	if stub.count() != 0 {
		t.Errorf("backend calls = %d, want 0", stub.count())
	}
}

func TestCorrectFirstAttemptSucceeds(t *testing.T) {
	stub := &stubBackend{reply: func(req llm.Request, n int) (string, error) {
		return repairedScript, nil
	}}
	in := newTestInterpreter(t, stub, Config{})

	c, err := in.Correct(context.Background(), brokenScript)
	if err != nil {
		t.Fatalf("Correct() returned error: %v", err)
	}
	if c.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", c.Attempts)
	}
	if c.Script != repairedScript {
		t.Errorf("Script = %q, want the repaired text", c.Script)
	}

	req := stub.request(0)
	if req.System != systemCorrector {
		t.Errorf("System = %q, want the corrector role", req.System)
	}
	if !strings.Contains(req.Prompt, "@MISSING") {
		t.Errorf("prompt %q does not carry the failing script", req.Prompt)
	}
	if !strings.Contains(req.Prompt, "undefined symbol") {
		t.Errorf("prompt %q does not carry the validation errors", req.Prompt)
	}
}

func TestCorrectSecondAttemptSucceeds(t *testing.T) {
	stub := &stubBackend{reply: func(req llm.Request, n int) (string, error) {
		if n == 1 {
			// Still broken: one symbol, still the wrong reference.
			return brokenScript, nil
		}
		return repairedScript, nil
	}}
	in := newTestInterpreter(t, stub, Config{})

	c, err := in.Correct(context.Background(), brokenScript)
	if err != nil {
		t.Fatalf("Correct() returned error: %v", err)
	}
	if c.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", c.Attempts)
	}
	if stub.count() != 2 {
		t.Errorf("backend calls = %d, want 2", stub.count())
	}
}

func TestCorrectExhaustsAttempts(t *testing.T) {
	stub := &stubBackend{reply: func(req llm.Request, n int) (string, error) {
		return brokenScript, nil
	}}
	in := newTestInterpreter(t, stub, Config{MaxCorrectionAttempts: 2})

	_, err := in.Correct(context.Background(), brokenScript)
	var cee *CorrectionExhaustedError
	if !errors.As(err, &cee) {
		t.Fatalf("error = %v, want *CorrectionExhaustedError", err)
	}
	if cee.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", cee.Attempts)
	}
	if len(cee.Errors) == 0 {
		t.Error("exhaustion error carries no validation errors")
	}
	if stub.count() != 2 {
		t.Errorf("backend calls = %d, want exactly the configured bound", stub.count())
	}
}

func TestCorrectBackendFailurePropagates(t *testing.T) {
	stub := &stubBackend{reply: func(req llm.Request, n int) (string, error) {
		return "", &llm.UnavailableError{Err: errors.New("down")}
	}}
	in := newTestInterpreter(t, stub, Config{})

	_, err := in.Correct(context.Background(), brokenScript)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("error = %v, want ErrBackendUnavailable", err)
	}
}
