// internal/browser/executor/input.go
package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

// enterMarker suffixed to an input value asks for an Enter key sequence
// after the text lands.
const enterMarker = "|ENTER"

// ParseInputValue splits the typed text from the Enter marker.
func ParseInputValue(value string) (text string, pressEnter bool) {
	if strings.HasSuffix(value, enterMarker) {
		return strings.TrimSuffix(value, enterMarker), true
	}
	return value, false
}

func (ex *Executor) input(ctx context.Context, action schemas.Action, index *schemas.ElementIndex) schemas.ActionResult {
	el, res, ok := ex.resolve(action, index)
	if !ok {
		return res
	}
	text, pressEnter := ParseInputValue(action.Value)

	if el.Tag == "select" {
		script := fmt.Sprintf(selectScriptTemplate, quote(el.Selector), quote(text))
		return ex.runFallback(ctx, script, map[string]any{"selected": text, "index": el.Index})
	}

	// Plain inputs take the native path; containers and contenteditable
	// need the descending script from the start.
	if el.Tag == "input" || el.Tag == "textarea" {
		keys := text
		if pressEnter {
			keys += kb.Enter
		}
		err := ex.page.Run(ctx,
			chromedp.Click(el.Selector, chromedp.ByQuery, chromedp.NodeVisible),
			chromedp.SetValue(el.Selector, "", chromedp.ByQuery),
			chromedp.SendKeys(el.Selector, keys, chromedp.ByQuery),
		)
		if err == nil {
			return success(map[string]any{"typed": text, "index": el.Index, "enter": pressEnter})
		}
		ex.logger.Debug("Native typing failed, using synthetic events",
			zap.Int("index", el.Index), zap.Error(err))
	}

	script := fmt.Sprintf(typingScriptTemplate, quote(el.Selector), quote(text), pressEnter)
	return ex.runFallback(ctx, script, map[string]any{"typed": text, "index": el.Index, "enter": pressEnter})
}
