package omega

import (
	"context"
	"log/slog"

	"github.com/omegalang/omega/script"
)

// Temperatures for the evaluator roles; scoring and feedback lean fully
// deterministic.
const (
	scoreTemperature    = 0.1
	feedbackTemperature = 0.1
)

// evaluateSection scores a section's content and refines it until the
// threshold passes or MaxIterations regenerations are spent. When the bound
// is exhausted, the highest-scoring attempt across all iterations is kept
// and a quality warning is attached; this is never fatal. basePrompt is the
// section's original generation prompt, reused for refinement.
func (e *execution) evaluateSection(ctx context.Context, sec *script.Section, basePrompt string) error {
	best := sec.Content
	bestScore, err := e.scoreContent(ctx, sec, sec.Content)
	if err != nil {
		return err
	}

	if bestScore >= sec.Eval.Threshold {
		return nil
	}

	for iteration := 1; iteration <= sec.Eval.MaxIterations; iteration++ {
		feedback, err := e.callBackend(ctx, systemFeedback, feedbackPrompt(sec, sec.Content), feedbackTemperature)
		if err != nil {
			return err
		}

		content, err := e.callBackend(ctx, systemSection, refinementPrompt(basePrompt, sec.Content, feedback), e.in.cfg.Temperature)
		if err != nil {
			return err
		}
		sec.Content = content

		score, err := e.scoreContent(ctx, sec, content)
		if err != nil {
			return err
		}
		slog.Debug("section rescored", "run", e.id, "symbol", sec.Symbol, "iteration", iteration, "score", score)

		if score > bestScore {
			bestScore = score
			best = content
		}
		if score >= sec.Eval.Threshold {
			return nil
		}
	}

	sec.Content = best
	e.warnf("quality threshold unmet for %s: best score %d below threshold %d",
		sec.Symbol, bestScore, sec.Eval.Threshold)
	return nil
}

// scoreContent asks the scorer role for a 0-100 score. An unparseable
// response counts as zero with a local warning rather than failing the
// execution.
func (e *execution) scoreContent(ctx context.Context, sec *script.Section, content string) (int, error) {
	reply, err := e.callBackend(ctx, systemScorer, scorePrompt(sec, content), scoreTemperature)
	if err != nil {
		return 0, err
	}

	score, err := parseScore(reply)
	if err != nil {
		e.warnf("unparseable score for %s, treating as 0", sec.Symbol)
		return 0, nil
	}
	return score, nil
}
