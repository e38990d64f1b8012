// internal/browser/executor/executor.go
package executor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/browser"
	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Page is the slice of the browser session the executor drives.
type Page interface {
	Navigate(ctx context.Context, url string) (browser.NavigationOutcome, error)
	RunScript(ctx context.Context, script string, out any) error
	Run(ctx context.Context, actions ...chromedp.Action) error
}

// scriptOutcome is the shape every fallback script resolves to.
type scriptOutcome struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
}

// Executor turns typed Actions into browser operations. The primary
// strategy uses native CDP interaction on the indexed selector; when
// that fails, a synthetic-event script takes over. Every call returns an
// ActionResult, never an error: failures are data for the control loop.
type Executor struct {
	page   Page
	logger *zap.Logger
}

// New returns an Executor over the given page.
func New(page Page, logger *zap.Logger) *Executor {
	return &Executor{page: page, logger: logger.Named("executor")}
}

// Execute runs one action against the current page. Element-directed
// actions resolve their target through index; indices from a different
// generation than the supplied table are a caller bug and fail cleanly.
func (ex *Executor) Execute(ctx context.Context, action schemas.Action, index *schemas.ElementIndex) schemas.ActionResult {
	start := time.Now()

	timeout := time.Duration(action.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Duration(schemas.DefaultActionTimeoutMs) * time.Millisecond
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := ex.dispatch(opCtx, action, index)
	result.Action = action
	result.ExecutionTime = time.Since(start).Seconds()

	// Best effort: a failed probe never downgrades the action outcome.
	if state, err := ex.PageState(ctx); err == nil {
		result.PageState = state
	} else {
		ex.logger.Debug("Page state probe failed", zap.Error(err))
	}

	if result.Success {
		ex.logger.Debug("Action executed",
			zap.String("type", string(action.Type)),
			zap.String("target", action.Target),
			zap.Float64("seconds", result.ExecutionTime))
	} else {
		ex.logger.Warn("Action failed",
			zap.String("type", string(action.Type)),
			zap.String("target", action.Target),
			zap.String("error", result.Error))
	}
	return result
}

func (ex *Executor) dispatch(ctx context.Context, action schemas.Action, index *schemas.ElementIndex) schemas.ActionResult {
	switch action.Type {
	case schemas.ActionNavigate:
		return ex.navigate(ctx, action)
	case schemas.ActionClick:
		return ex.click(ctx, action, index)
	case schemas.ActionInput:
		return ex.input(ctx, action, index)
	case schemas.ActionHover:
		return ex.hover(ctx, action, index)
	case schemas.ActionScroll:
		return ex.scroll(ctx, action, index)
	case schemas.ActionWait:
		return ex.wait(ctx, action)
	case schemas.ActionExtract:
		return ex.extract(ctx)
	case schemas.ActionCheckGoal:
		return ex.checkGoal(ctx, action)
	case schemas.ActionComplete:
		return schemas.ActionResult{Success: true, Data: map[string]any{"completed": true}}
	default:
		return failure(fmt.Sprintf("unknown action type %q", action.Type))
	}
}

func (ex *Executor) navigate(ctx context.Context, action schemas.Action) schemas.ActionResult {
	if action.Target == "" {
		return failure("navigate requires a target URL")
	}
	outcome, err := ex.page.Navigate(ctx, action.Target)
	if err != nil {
		return failure(fmt.Sprintf("navigation failed: %v", err))
	}
	data := map[string]any{"url": outcome.URL, "title": outcome.Title}
	if outcome.Partial {
		data["partial_load"] = true
	}
	return schemas.ActionResult{Success: true, Data: data}
}

func (ex *Executor) click(ctx context.Context, action schemas.Action, index *schemas.ElementIndex) schemas.ActionResult {
	el, res, ok := ex.resolve(action, index)
	if !ok {
		return res
	}
	button, clicks := parseClickOptions(action.Value)

	if button == "left" && clicks == 1 {
		err := ex.page.Run(ctx,
			chromedp.ScrollIntoView(el.Selector, chromedp.ByQuery),
			chromedp.Click(el.Selector, chromedp.ByQuery, chromedp.NodeVisible),
		)
		if err == nil {
			return success(map[string]any{"clicked": el.Index})
		}
		ex.logger.Debug("Native click failed, using synthetic events",
			zap.Int("index", el.Index), zap.Error(err))
	}

	script := fmt.Sprintf(clickScriptTemplate, quote(el.Selector), quote(button), clicks)
	return ex.runFallback(ctx, script, map[string]any{"clicked": el.Index, "button": button, "clicks": clicks})
}

func (ex *Executor) hover(ctx context.Context, action schemas.Action, index *schemas.ElementIndex) schemas.ActionResult {
	el, res, ok := ex.resolve(action, index)
	if !ok {
		return res
	}
	script := fmt.Sprintf(hoverScriptTemplate, quote(el.Selector))
	return ex.runFallback(ctx, script, map[string]any{"hovered": el.Index})
}

func (ex *Executor) scroll(ctx context.Context, action schemas.Action, index *schemas.ElementIndex) schemas.ActionResult {
	if action.Target != "" && index != nil {
		el, res, ok := ex.resolve(action, index)
		if !ok {
			return res
		}
		if err := ex.page.Run(ctx, chromedp.ScrollIntoView(el.Selector, chromedp.ByQuery)); err == nil {
			return success(map[string]any{"scrolled_to": el.Index})
		}
	}

	mode, px := parseScroll(action.Value)
	script := fmt.Sprintf(scrollScriptTemplate, quote(mode), px)
	return ex.runFallback(ctx, script, map[string]any{"scrolled": mode})
}

func (ex *Executor) wait(ctx context.Context, action schemas.Action) schemas.ActionResult {
	ms := 1000
	if action.Value != "" {
		if parsed, err := strconv.Atoi(action.Value); err == nil && parsed > 0 {
			ms = parsed
		}
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return success(map[string]any{"waited_ms": ms})
	case <-ctx.Done():
		return failure(fmt.Sprintf("wait interrupted: %v", ctx.Err()))
	}
}

// resolve parses the element target and looks it up in the current
// generation's table.
func (ex *Executor) resolve(action schemas.Action, index *schemas.ElementIndex) (schemas.InteractiveElement, schemas.ActionResult, bool) {
	if index == nil || index.Len() == 0 {
		return schemas.InteractiveElement{}, failure("no indexed elements on the page"), false
	}
	n, err := strconv.Atoi(action.Target)
	if err != nil {
		return schemas.InteractiveElement{}, failure(fmt.Sprintf("element target %q is not an index", action.Target)), false
	}
	el, ok := index.Lookup(n)
	if !ok {
		return schemas.InteractiveElement{}, failure(fmt.Sprintf("element index %d not present in generation %d", n, index.Generation)), false
	}
	return el, schemas.ActionResult{}, true
}

// runFallback evaluates a synthetic-event script and maps its outcome to
// an ActionResult.
func (ex *Executor) runFallback(ctx context.Context, script string, data map[string]any) schemas.ActionResult {
	var out scriptOutcome
	if err := ex.page.RunScript(ctx, script, &out); err != nil {
		return failure(fmt.Sprintf("synthetic event script failed: %v", err))
	}
	if !out.OK {
		return failure(out.Reason)
	}
	return success(data)
}

// PageState probes the page's structural summary.
func (ex *Executor) PageState(ctx context.Context) (*schemas.PageState, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var state schemas.PageState
	if err := ex.page.RunScript(probeCtx, pageStateScript, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func success(data map[string]any) schemas.ActionResult {
	return schemas.ActionResult{Success: true, Data: data}
}

func failure(msg string) schemas.ActionResult {
	return schemas.ActionResult{Success: false, Error: msg}
}

// quote renders s as a JS string literal.
func quote(s string) string {
	raw, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(raw)
}

// parseClickOptions reads the click modifiers from the action value.
// Accepts plain words ("right", "middle", "double") or a JSON object
// {"button":"right","clicks":2}. Defaults to a single left click.
func parseClickOptions(value string) (button string, clicks int) {
	button, clicks = "left", 1
	switch value {
	case "":
		return button, clicks
	case "right", "middle":
		return value, 1
	case "double":
		return "left", 2
	}
	var opts struct {
		Button string `json:"button"`
		Clicks int    `json:"clicks"`
	}
	if err := json.UnmarshalFromString(value, &opts); err == nil {
		if opts.Button == "right" || opts.Button == "middle" {
			button = opts.Button
		}
		if opts.Clicks > 1 {
			clicks = opts.Clicks
		}
	}
	return button, clicks
}

// parseScroll interprets the scroll value as a direction word or a
// signed pixel amount. The zero value scrolls down one viewport.
func parseScroll(value string) (mode string, px int) {
	switch value {
	case "", "down":
		return "down", 0
	case "up", "top", "bottom":
		return value, 0
	}
	if n, err := strconv.Atoi(value); err == nil {
		return "by", n
	}
	return "down", 0
}
