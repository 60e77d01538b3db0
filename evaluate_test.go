package omega

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/omegalang/omega/llm"
)

// evalStub routes calls by role: generations come from gen, scores from
// scores in order, feedback is fixed. Counters are its own because the
// evaluation loop for one section is sequential.
type evalStub struct {
	mu       sync.Mutex
	gen      []string
	scores   []string
	genCalls int
	scoreN   int
	feedback int
}

func (s *evalStub) backend() *stubBackend {
	return &stubBackend{reply: func(req llm.Request, n int) (string, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		switch req.System {
		case systemSection:
			if s.genCalls >= len(s.gen) {
				return "", fmt.Errorf("unexpected generation call %d", s.genCalls+1)
			}
			s.genCalls++
			return s.gen[s.genCalls-1], nil
		case systemScorer:
			if s.scoreN >= len(s.scores) {
				return "", fmt.Errorf("unexpected scoring call %d", s.scoreN+1)
			}
			s.scoreN++
			return s.scores[s.scoreN-1], nil
		case systemFeedback:
			s.feedback++
			return "needs more detail", nil
		}
		return "", fmt.Errorf("unexpected system prompt %q", req.System)
	}}
}

const evaluatedScript = `
DEFINE_SYMBOLS{@SUM="Summary"}
WR_SECT(@SUM, d="Summarize the findings.")
EVAL_SECT(@SUM, th=90, iter=2)
`

func TestEvaluateThresholdMetFirstTry(t *testing.T) {
	es := &evalStub{gen: []string{"v1"}, scores: []string{"95 solid work"}}
	stub := es.backend()
	in := newTestInterpreter(t, stub, Config{})

	res, err := in.Execute(context.Background(), evaluatedScript)
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if res.Text != "v1" {
		t.Errorf("Text = %q, want %q", res.Text, "v1")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
	if stub.count() != 2 {
		t.Errorf("backend calls = %d, want 2 (generate, score)", stub.count())
	}
	if es.feedback != 0 {
		t.Errorf("feedback calls = %d, want 0", es.feedback)
	}
}

func TestEvaluateRefinementPasses(t *testing.T) {
	es := &evalStub{gen: []string{"v1", "v2"}, scores: []string{"Score: 50", "Score: 92"}}
	stub := es.backend()
	in := newTestInterpreter(t, stub, Config{})

	res, err := in.Execute(context.Background(), evaluatedScript)
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if res.Text != "v2" {
		t.Errorf("Text = %q, want the refined attempt", res.Text)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
	if stub.count() != 5 {
		t.Errorf("backend calls = %d, want 5", stub.count())
	}

	// The refinement prompt carries the previous attempt and the feedback.
	var refine llm.Request
	found := false
	for i := 0; i < stub.count(); i++ {
		req := stub.request(i)
		if req.System == systemSection && strings.Contains(req.Prompt, "Previous attempt") {
			refine = req
			found = true
		}
	}
	if !found {
		t.Fatal("no refinement request issued")
	}
	if !strings.Contains(refine.Prompt, "v1") || !strings.Contains(refine.Prompt, "needs more detail") {
		t.Errorf("refinement prompt missing previous attempt or feedback: %q", refine.Prompt)
	}
}

func TestEvaluateExhaustionKeepsBestAttempt(t *testing.T) {
	es := &evalStub{gen: []string{"v1", "v2", "v3"}, scores: []string{"50", "70", "60"}}
	stub := es.backend()
	in := newTestInterpreter(t, stub, Config{})

	res, err := in.Execute(context.Background(), evaluatedScript)
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if res.Text != "v2" {
		t.Errorf("Text = %q, want the best-scoring attempt v2", res.Text)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want exactly one", res.Warnings)
	}
	warn := res.Warnings[0]
	if !strings.Contains(warn, "quality threshold unmet") ||
		!strings.Contains(warn, "70") || !strings.Contains(warn, "90") {
		t.Errorf("warning %q does not carry best score and threshold", warn)
	}
	// One initial generation plus exactly iter regenerations.
	if es.genCalls != 3 {
		t.Errorf("generation calls = %d, want 3", es.genCalls)
	}
}

func TestEvaluateInitialAttemptCanBeBest(t *testing.T) {
	es := &evalStub{gen: []string{"v1", "v2", "v3"}, scores: []string{"40", "30", "20"}}
	in := newTestInterpreter(t, es.backend(), Config{})

	res, err := in.Execute(context.Background(), evaluatedScript)
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if res.Text != "v1" {
		t.Errorf("Text = %q, want the initial attempt v1", res.Text)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "best score 40") {
		t.Errorf("Warnings = %v, want best score 40 reported", res.Warnings)
	}
}

func TestEvaluateUnparseableScoreIsZero(t *testing.T) {
	es := &evalStub{
		gen:    []string{"v1", "v2", "v3"},
		scores: []string{"no idea", "hard to say", "pass"},
	}
	in := newTestInterpreter(t, es.backend(), Config{})

	res, err := in.Execute(context.Background(), evaluatedScript)
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	var unparseable, unmet bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "unparseable score") {
			unparseable = true
		}
		if strings.Contains(w, "quality threshold unmet") {
			unmet = true
		}
	}
	if !unparseable || !unmet {
		t.Errorf("Warnings = %v, want unparseable-score and threshold-unmet warnings", res.Warnings)
	}
}

func TestEvaluateBackendFailureIsFatal(t *testing.T) {
	stub := &stubBackend{reply: func(req llm.Request, n int) (string, error) {
		if req.System == systemScorer {
			return "", &llm.RefusalError{Reason: "policy"}
		}
		return "v1", nil
	}}
	in := newTestInterpreter(t, stub, Config{})

	if _, err := in.Execute(context.Background(), evaluatedScript); err == nil {
		t.Fatal("Execute() returned nil error when scoring was refused")
	}
}
