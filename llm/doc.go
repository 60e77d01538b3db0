// Package llm provides generative text backend implementations.
//
// The engine depends only on the Backend interface; OpenAI is the shipped
// implementation. Transport failures are classified so callers can
// distinguish transient unavailability (timeouts, rate limits, 5xx) from an
// explicit refusal to generate, without ever inspecting raw HTTP errors:
//
//	resp, err := backend.Generate(ctx, llm.Request{Prompt: prompt})
//	switch {
//	case llm.IsRefusal(err):
//	    // do not retry
//	case llm.IsUnavailable(err):
//	    // safe to retry with identical input
//	}
package llm
