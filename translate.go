package omega

import (
	"context"

	"github.com/omegalang/omega/llm"
)

// Temperatures for the translator roles, matching the original translator
// settings: conversion into Omega leaves slight room, interpretation out of
// Omega is fully deterministic.
const (
	humanToOmegaTemperature = 0.2
	omegaToHumanTemperature = 0.0
	reflectionTemperature   = 0.1
)

// HumanToOmega converts natural language instructions into an Omega script.
// The result is backend output and is not implicitly validated; run
// Validate or Correct on it before executing.
func (in *Interpreter) HumanToOmega(ctx context.Context, text string) (string, error) {
	out, _, err := in.call(ctx, llm.Request{
		System:      systemHumanToOmega,
		Prompt:      text,
		Temperature: humanToOmegaTemperature,
	})
	return out, err
}

// OmegaToHuman translates an Omega script into plain natural language.
func (in *Interpreter) OmegaToHuman(ctx context.Context, src string) (string, error) {
	out, _, err := in.call(ctx, llm.Request{
		System:      systemOmegaToHuman,
		Prompt:      src,
		Temperature: omegaToHumanTemperature,
	})
	return out, err
}

// Reflection is a whole-script quality assessment.
type Reflection struct {
	// Score is the structural quality score, 0-100
	Score int

	// Feedback is the full evaluator response including recommendations
	Feedback string
}

// Reflect asks the backend to evaluate an Omega script's structure and
// recommend improvements.
func (in *Interpreter) Reflect(ctx context.Context, src string) (*Reflection, error) {
	out, _, err := in.call(ctx, llm.Request{
		System:      systemReflection,
		Prompt:      src,
		Temperature: reflectionTemperature,
	})
	if err != nil {
		return nil, err
	}

	score, err := parseScore(out)
	if err != nil {
		return nil, err
	}
	return &Reflection{Score: score, Feedback: out}, nil
}
