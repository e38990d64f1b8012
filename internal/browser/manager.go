// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/config"
)

// Manager owns the shared browser allocator and tracks the sessions
// spawned from it. One Manager serves the whole process; each task gets
// its own Session (an isolated browser context).
type Manager struct {
	cfg      *config.Config
	logger   *zap.Logger
	allocCtx context.Context
	cancel   context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
	wg       sync.WaitGroup
	closed   bool
}

// NewManager builds the exec allocator from configuration. The browser
// binary itself is launched lazily on the first session.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Manager {
	opts := append([]chromedp.ExecAllocatorOption{},
		chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.WindowSize(cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight),
	)
	if cfg.Browser.DisableCache {
		opts = append(opts, chromedp.Flag("disable-application-cache", true))
	}
	for _, arg := range cfg.Browser.Args {
		name := strings.TrimLeft(arg, "-")
		if key, value, found := strings.Cut(name, "="); found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	return &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser"),
		allocCtx: allocCtx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// NewSession opens an isolated browser context and starts the browser if
// it is not running yet.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("browser manager is shut down")
	}
	m.wg.Add(1)
	m.mu.Unlock()

	s, err := newSession(ctx, m.allocCtx, m.cfg, m.logger)
	if err != nil {
		m.wg.Done()
		return nil, fmt.Errorf("creating browser session: %w", err)
	}
	s.onClose = func(id string) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		m.wg.Done()
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Debug("Session created", zap.String("session_id", s.ID()))
	return s, nil
}

// Shutdown closes all live sessions and tears down the allocator. It
// waits for session cleanup, bounded by ctx.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("Session close failed during shutdown",
				zap.String("session_id", s.ID()), zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.cancel()
		return fmt.Errorf("browser shutdown interrupted: %w", ctx.Err())
	}

	m.cancel()
	m.logger.Info("Browser manager shut down")
	return nil
}
