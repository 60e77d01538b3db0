package omega

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omegalang/omega/llm"
	"github.com/omegalang/omega/querylog"
	"github.com/omegalang/omega/script"
)

// Interpreter executes Omega scripts against a generative backend. It holds
// configuration only; every execution constructs its own isolated state, so
// an Interpreter is safe for concurrent use.
type Interpreter struct {
	cfg     Config
	backend llm.Backend
	sink    querylog.Sink
	closers []func() error
}

// Option configures the interpreter.
type Option func(*Interpreter)

// WithBackend sets the generation backend, replacing the one built from
// Config.Provider. Used by tests and embedders with their own client.
func WithBackend(b llm.Backend) Option {
	return func(in *Interpreter) {
		in.backend = b
	}
}

// WithSink sets the interaction log sink.
func WithSink(s querylog.Sink) Option {
	return func(in *Interpreter) {
		in.sink = s
	}
}

// NewInterpreter creates an interpreter from cfg. Unset config fields take
// defaults. When no WithBackend option is given, the backend is built from
// cfg.Provider; when cfg.LogDB is set and no WithSink is given, a SQLite
// query log is opened there.
func NewInterpreter(cfg Config, opts ...Option) (*Interpreter, error) {
	in := &Interpreter{cfg: cfg.withDefaults()}

	for _, opt := range opts {
		opt(in)
	}

	if in.backend == nil {
		switch in.cfg.Provider {
		case "openai":
			in.backend = llm.NewOpenAI(
				llm.WithAPIKey(in.cfg.APIKey),
				llm.WithModel(in.cfg.DefaultModel),
			)
		default:
			return nil, fmt.Errorf("unknown model provider %q", in.cfg.Provider)
		}
	}

	if in.sink == nil {
		if in.cfg.LogDB != "" {
			store, err := querylog.Open(in.cfg.LogDB)
			if err != nil {
				return nil, fmt.Errorf("open query log: %w", err)
			}
			in.sink = store
			in.closers = append(in.closers, store.Close)
		} else {
			in.sink = querylog.Nop{}
		}
	}

	return in, nil
}

// Close releases resources the interpreter opened itself (the query log).
func (in *Interpreter) Close() error {
	var err error
	for _, c := range in.closers {
		if cerr := c(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Validation is the outcome of a dry-run check.
type Validation struct {
	Valid  bool
	Errors []*script.ValidationError
}

// Validate checks a script without any backend call.
func (in *Interpreter) Validate(src string) *Validation {
	errs := script.Validate(src)
	return &Validation{Valid: len(errs) == 0, Errors: errs}
}

// Result is the externally observable output of one successful execution.
type Result struct {
	// Text is the assembled output, sections in declaration order
	Text string

	// Warnings are non-fatal conditions such as an unmet quality
	// threshold or a failed interaction log write
	Warnings []string
}

// ExecOption configures one execution.
type ExecOption func(*execution)

// WithModel overrides the configured default model for this execution.
func WithModel(model string) ExecOption {
	return func(e *execution) {
		if model != "" {
			e.model = model
		}
	}
}

// Execute runs one Omega script end to end: validation (fail fast, zero
// backend cost on malformed input), dependency-ordered generation,
// per-section evaluation, and declaration-order assembly.
func (in *Interpreter) Execute(ctx context.Context, src string, opts ...ExecOption) (*Result, error) {
	scr, perr := script.Parse(src)
	if perr != nil {
		if ve, ok := perr.(*script.ValidationError); ok {
			return nil, &InvalidScriptError{Errors: []*script.ValidationError{ve}}
		}
		return nil, perr
	}
	if errs := scr.Validate(); len(errs) > 0 {
		return nil, &InvalidScriptError{Errors: errs}
	}

	order, err := scr.GenerationOrder()
	if err != nil {
		// Unreachable after validation; kept as a guard.
		if ve, ok := err.(*script.ValidationError); ok {
			return nil, &InvalidScriptError{Errors: []*script.ValidationError{ve}}
		}
		return nil, err
	}

	e := &execution{
		in:       in,
		scr:      scr,
		id:       uuid.NewString(),
		model:    in.cfg.DefaultModel,
		contents: make(map[string]string, len(order)),
	}
	for _, opt := range opts {
		opt(e)
	}

	slog.Debug("executing script", "run", e.id, "sections", len(order), "model", e.model)

	if err := e.generateAll(ctx, order); err != nil {
		return nil, err
	}

	text, warns := assemble(scr)
	return &Result{Text: text, Warnings: append(e.warnings, warns...)}, nil
}

// execution is the mutable state of one Execute call. It is never shared
// across executions.
type execution struct {
	in    *Interpreter
	scr   *script.Script
	id    string
	model string

	mu       sync.Mutex
	contents map[string]string
	warnings []string
}

func (e *execution) warnf(format string, args ...any) {
	e.mu.Lock()
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
	e.mu.Unlock()
}

func (e *execution) setContent(token, content string) {
	e.mu.Lock()
	e.contents[token] = content
	e.mu.Unlock()
}

func (e *execution) snapshot() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := make(map[string]string, len(e.contents))
	for k, v := range e.contents {
		m[k] = v
	}
	return m
}

// callBackend issues one backend call for this execution, collecting any
// log-sink warning locally.
func (e *execution) callBackend(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	content, warn, err := e.in.call(ctx, llm.Request{
		System:      system,
		Prompt:      prompt,
		Model:       e.model,
		Temperature: temperature,
	})
	if warn != "" {
		e.warnf("%s", warn)
	}
	return content, err
}

// call issues one backend request with the configured timeout, retrying
// exactly once on a transient failure with identical input. Refusals are
// never retried. Errors crossing this boundary are sanitized: detail goes
// to the log, callers see only the error kind.
func (in *Interpreter) call(ctx context.Context, req llm.Request) (content, warning string, err error) {
	if req.Model == "" {
		req.Model = in.cfg.DefaultModel
	}

	resp, err := in.generateOnce(ctx, req)
	if err != nil && llm.IsUnavailable(err) && ctx.Err() == nil {
		slog.Warn("backend call failed, retrying once", "model", req.Model, "err", err)
		resp, err = in.generateOnce(ctx, req)
	}
	if err != nil {
		switch {
		case llm.IsRefusal(err):
			slog.Warn("backend refused generation", "model", req.Model)
			return "", "", ErrBackendRefusal
		case llm.IsUnavailable(err):
			slog.Warn("backend unavailable", "model", req.Model, "err", err)
			return "", "", ErrBackendUnavailable
		default:
			slog.Error("backend request failed", "model", req.Model, "err", err)
			return "", "", fmt.Errorf("backend request rejected")
		}
	}

	warning = in.record(ctx, req, resp)
	return resp.Content, warning, nil
}

func (in *Interpreter) generateOnce(ctx context.Context, req llm.Request) (*llm.Response, error) {
	cctx, cancel := context.WithTimeout(ctx, in.cfg.RequestTimeout)
	defer cancel()

	resp, err := in.backend.Generate(cctx, req)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		// The per-call timeout fired, not the caller's context.
		err = &llm.UnavailableError{Err: err}
	}
	return resp, err
}

// record writes the interaction to the query log. Best-effort: a failure is
// returned as a local warning, never as an error.
func (in *Interpreter) record(ctx context.Context, req llm.Request, resp *llm.Response) string {
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err := in.sink.Record(lctx, querylog.Record{
		Prompt:   req.Prompt,
		Response: resp.Content,
		Model:    req.Model,
	})
	if err != nil {
		slog.Warn("interaction log failed", "err", err)
		return fmt.Sprintf("interaction log failed: %v", err)
	}
	return ""
}
