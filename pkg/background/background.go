package background

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bonikcommerce/bonik-backend/pkg/logger"
)

// Group runs fire-and-forget tasks whose completion is still guaranteed
// before shutdown. Tasks detach from the caller's request context so an
// HTTP response can return while the task finishes against the group's
// base context.
type Group struct {
	eg     *errgroup.Group
	base   context.Context
	cancel context.CancelFunc
	logg   *logger.Logger

	mu     sync.Mutex
	closed bool
}

// New builds a task group. limit caps concurrent tasks; zero disables
// the cap.
func New(logg *logger.Logger, limit int) *Group {
	base, cancel := context.WithCancel(context.Background())
	eg := &errgroup.Group{}
	if limit > 0 {
		eg.SetLimit(limit)
	}
	return &Group{
		eg:     eg,
		base:   base,
		cancel: cancel,
		logg:   logg,
	}
}

// Go schedules a task. Errors are logged, never propagated to callers.
func (g *Group) Go(name string, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("task fn is required")
	}
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return errors.New("background group is shut down")
	}
	g.mu.Unlock()

	g.eg.Go(func() error {
		defer func() {
			if r := recover(); r != nil && g.logg != nil {
				ctx := g.logg.WithField(g.base, "task", name)
				g.logg.Error(ctx, "background task panicked", fmt.Errorf("panic: %v", r))
			}
		}()
		if err := fn(g.base); err != nil && g.logg != nil {
			ctx := g.logg.WithField(g.base, "task", name)
			g.logg.Error(ctx, "background task failed", err)
		}
		return nil
	})
	return nil
}

// Shutdown stops accepting tasks and waits for in-flight ones, bounded by
// ctx.
func (g *Group) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = g.eg.Wait()
		close(done)
	}()

	select {
	case <-done:
		g.cancel()
		return nil
	case <-ctx.Done():
		g.cancel()
		return ctx.Err()
	}
}
