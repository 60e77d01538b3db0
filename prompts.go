package omega

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/omegalang/omega/script"
)

// System prompts for the different backend roles. Adapted from the original
// Omega translator prompts; each role pins its own temperature (see the
// call sites).
const (
	systemSection = "You are an expert writer executing one section of an Omega script. " +
		"Write only the section content. No headings, preamble or commentary."

	systemCorrector = "You are an expert in the Omega symbolic language. " +
		"Correct the following Omega script so that it passes validation while preserving its intent. " +
		"Return only the corrected script."

	systemScorer = "You are an expert evaluator of generated text. " +
		"Score the text against its stated goal on a scale of 0 to 100. " +
		"Reply with the integer score on the first line, then a brief justification."

	systemFeedback = "You are an expert editor. Describe the concrete weaknesses of the text " +
		"relative to its stated goal as actionable feedback. Do not rewrite the text."

	systemHumanToOmega = "You are an expert in the Omega symbolic language. " +
		"Convert natural language instructions into a valid Omega script following best practices. " +
		"Return only the script."

	systemOmegaToHuman = "You are an expert in interpreting Omega scripts. " +
		"Translate the following Omega script into plain, natural language."

	systemReflection = "You are an expert in the Omega symbolic language. " +
		"Evaluate the following Omega script for structure, assign a quality score from 0 to 100, " +
		"and provide detailed recommendations for improvement. " +
		"Reply with the integer score on the first line."
)

// sectionPrompt composes the generation prompt for one section: global
// preamble, the symbol's definition, the directive's description, and the
// already-generated content of every dependency.
func sectionPrompt(s *script.Script, sec *script.Section, deps map[string]string) string {
	var b strings.Builder

	if s.Preamble != "" {
		b.WriteString(s.Preamble)
		b.WriteString("\n\n")
	}

	sym := s.Symbols[sec.Symbol]
	fmt.Fprintf(&b, "Section symbol: %s (%s)\n", sym.Token, sym.Label)
	if sym.Description != "" {
		fmt.Fprintf(&b, "Symbol description: %s\n", sym.Description)
	}
	if sec.Title != "" {
		fmt.Fprintf(&b, "Section title: %s\n", sec.Title)
	}
	fmt.Fprintf(&b, "\nWrite this section: %s\n", sec.Description)

	depTokens := s.Dependencies(sec.Symbol)
	if len(depTokens) > 0 {
		b.WriteString("\nContent of sections this one builds on:\n")
		for _, tok := range depTokens {
			content, ok := deps[tok]
			if !ok {
				continue
			}
			label := s.Symbols[tok].Label
			fmt.Fprintf(&b, "\n[%s %s]\n%s\n", tok, label, content)
		}
	}

	return b.String()
}

// refinementPrompt asks for a regeneration of a section incorporating
// evaluator feedback.
func refinementPrompt(base, previous, feedback string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nPrevious attempt:\n")
	b.WriteString(previous)
	b.WriteString("\n\nFeedback on the previous attempt:\n")
	b.WriteString(feedback)
	b.WriteString("\n\nRewrite the section, addressing every point of feedback.")
	return b.String()
}

// scorePrompt asks the scorer role for a 0-100 score of section content.
func scorePrompt(sec *script.Section, content string) string {
	return fmt.Sprintf("Goal: %s\n\nText to score:\n%s", sec.Description, content)
}

// feedbackPrompt asks the editor role for weaknesses of section content.
func feedbackPrompt(sec *script.Section, content string) string {
	return fmt.Sprintf("Goal: %s\n\nText to critique:\n%s", sec.Description, content)
}

// correctionPrompt embeds the failing script and its concrete validation
// errors for one repair round.
func correctionPrompt(src string, errs []*script.ValidationError) string {
	var b strings.Builder
	b.WriteString("The following Omega script fails validation.\n\nScript:\n")
	b.WriteString(src)
	b.WriteString("\n\nValidation errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&b, "- %s\n", e.Error())
	}
	b.WriteString("\nReturn the corrected script only.")
	return b.String()
}

var scorePattern = regexp.MustCompile(`\b(\d{1,3})\b`)

// parseScore extracts the first plausible 0-100 integer from evaluator
// output. Backend responses are opaque text; nothing beyond this integer is
// assumed.
func parseScore(text string) (int, error) {
	for _, m := range scorePattern.FindAllString(text, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if n >= 0 && n <= 100 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("no score in evaluator response")
}
