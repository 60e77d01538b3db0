package omega

import (
	"context"
	"log/slog"
	"sync"
)

// generateAll runs every section in the resolved order. Sections with no
// dependency relation run concurrently under a worker pool of
// Config.Workers; a section blocks until all of its dependencies' content
// exists. The first failure cancels everything still in flight for this
// execution only.
func (e *execution) generateAll(ctx context.Context, order []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(map[string]chan struct{}, len(order))
	for _, tok := range order {
		done[tok] = make(chan struct{})
	}

	sem := make(chan struct{}, e.in.cfg.Workers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for _, tok := range order {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			defer close(done[tok])

			// Wait for every dependency. The ordering invariant
			// guarantees each one has a goroutine of its own.
			for _, dep := range e.scr.Dependencies(tok) {
				ch, ok := done[dep]
				if !ok {
					continue
				}
				select {
				case <-ch:
				case <-ctx.Done():
					return
				}
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			if err := e.generateSection(ctx, tok); err != nil {
				fail(err)
			}
		}(tok)
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// generateSection produces content for one section, then runs its
// evaluation loop if the section carries criteria. The evaluation loop is
// sequential per section and runs inside the section's worker slot.
func (e *execution) generateSection(ctx context.Context, token string) error {
	sec := e.scr.Section(token)

	prompt := sectionPrompt(e.scr, sec, e.snapshot())
	content, err := e.callBackend(ctx, systemSection, prompt, e.in.cfg.Temperature)
	if err != nil {
		return err
	}

	sec.Content = content
	e.setContent(token, content)
	slog.Debug("section generated", "run", e.id, "symbol", token, "bytes", len(content))

	if sec.Eval != nil {
		if err := e.evaluateSection(ctx, sec, prompt); err != nil {
			return err
		}
		e.setContent(token, sec.Content)
	}
	return nil
}
