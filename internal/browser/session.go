// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/config"
)

// NavigationOutcome reports where a navigation landed. Partial is set
// when the readiness wait timed out but the page kept loading; callers
// treat that as usable.
type NavigationOutcome struct {
	URL     string
	Title   string
	Partial bool
}

// Session is one isolated browser context driven over CDP. All methods
// take an operational context that is combined with the session context,
// so caller deadlines apply without severing the CDP connection.
type Session struct {
	id      string
	cfg     *config.Config
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	onClose func(id string)

	closeOnce sync.Once
	closeErr  error
}

func newSession(ctx context.Context, allocCtx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	id := uuid.NewString()
	sessionCtx, cancel := chromedp.NewContext(allocCtx)

	// An empty run forces the browser (and this context's target) up now,
	// so later operations fail fast if the binary is missing.
	startCtx, startCancel := CombineContext(sessionCtx, ctx)
	defer startCancel()
	if err := chromedp.Run(startCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("starting browser target: %w", err)
	}

	return &Session{
		id:     id,
		cfg:    cfg,
		logger: logger.With(zap.String("session_id", id)),
		ctx:    sessionCtx,
		cancel: cancel,
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Context exposes the session's chromedp context for collaborators that
// need to compose their own action batches.
func (s *Session) Context() context.Context { return s.ctx }

// Navigate drives the page to url and waits for document readiness plus
// the configured post-load settle. A deadline overrun during the
// readiness wait is reported as a partial (still usable) load rather
// than a failure; any other error is fatal for the operation.
func (s *Session) Navigate(ctx context.Context, url string) (NavigationOutcome, error) {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.Network.NavigationTimeout)
	defer cancel()
	runCtx, runCancel := CombineContext(s.ctx, navCtx)
	defer runCancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)

	outcome := NavigationOutcome{}
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		outcome.Partial = true
		s.logger.Warn("Navigation timed out, continuing with partial load",
			zap.String("url", url),
			zap.Duration("timeout", s.cfg.Network.NavigationTimeout))
	default:
		return outcome, fmt.Errorf("navigating to %s: %w", url, err)
	}

	if wait := s.cfg.Network.PostLoadWait; wait > 0 && !outcome.Partial {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return outcome, ctx.Err()
		}
	}

	// Probe the landing spot on the detached session context so a spent
	// operational deadline does not hide where we ended up.
	probeCtx, probeCancel := context.WithTimeout(Detach(s.ctx), 5*time.Second)
	defer probeCancel()
	if probeErr := chromedp.Run(probeCtx,
		chromedp.Location(&outcome.URL),
		chromedp.Title(&outcome.Title),
	); probeErr != nil {
		s.logger.Debug("Post-navigation probe failed", zap.Error(probeErr))
	}

	return outcome, nil
}

// Location returns the current page URL and title.
func (s *Session) Location(ctx context.Context) (url, title string, err error) {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	err = chromedp.Run(runCtx, chromedp.Location(&url), chromedp.Title(&title))
	return url, title, err
}

// RunScript evaluates a JavaScript expression on the page, awaiting
// promises, and unmarshals the completion value into out. Pass a nil out
// to discard the result.
func (s *Session) RunScript(ctx context.Context, script string, out any) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	awaitPromise := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}
	if out == nil {
		var discard any
		out = &discard
	}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, out, awaitPromise)); err != nil {
		return fmt.Errorf("evaluating script: %w", err)
	}
	return nil
}

// Screenshot captures the page as PNG bytes. Full selects a full-page
// capture over the viewport.
func (s *Session) Screenshot(ctx context.Context, full bool) ([]byte, error) {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	var buf []byte
	var action chromedp.Action
	if full {
		action = chromedp.FullScreenshot(&buf, 90)
	} else {
		action = chromedp.CaptureScreenshot(&buf)
	}
	if err := chromedp.Run(runCtx, action); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}

// Run executes raw chromedp actions against this session under ctx.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Close stops the page and releases the browser context. Safe to call
// more than once.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		runCtx, runCancel := CombineContext(Detach(s.ctx), ctx)
		defer runCancel()
		stopCtx, cancel := context.WithTimeout(runCtx, 5*time.Second)
		defer cancel()
		if err := chromedp.Run(stopCtx, page.Close()); err != nil {
			s.logger.Debug("Page close failed", zap.Error(err))
			s.closeErr = err
		}
		s.cancel()
		if s.onClose != nil {
			s.onClose(s.id)
		}
		s.logger.Debug("Session closed")
	})
	return s.closeErr
}
