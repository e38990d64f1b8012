// internal/browser/executor/scripts.go
package executor

// Fallback interaction scripts. Each template takes the element's index
// tag selector and dispatches synthetic events mirroring what a real
// interaction would produce. They return a small JSON-friendly object so
// failures surface as data instead of evaluation exceptions.

// clickScriptTemplate: %s selector JSON, %s button name JSON, %d clicks.
const clickScriptTemplate = `((sel, button, clicks) => {
  const el = document.querySelector(sel);
  if (!el) return { ok: false, reason: 'element not found' };
  el.scrollIntoView({ block: 'center', inline: 'center' });
  const rect = el.getBoundingClientRect();
  const opts = {
    bubbles: true, cancelable: true, view: window,
    clientX: rect.x + rect.width / 2, clientY: rect.y + rect.height / 2,
  };
  const btn = button === 'right' ? 2 : button === 'middle' ? 1 : 0;
  for (let i = 0; i < clicks; i++) {
    el.dispatchEvent(new MouseEvent('mousedown', { ...opts, button: btn }));
    el.dispatchEvent(new MouseEvent('mouseup', { ...opts, button: btn }));
    if (btn === 2) {
      el.dispatchEvent(new MouseEvent('contextmenu', { ...opts, button: btn }));
    } else {
      el.dispatchEvent(new MouseEvent('click', { ...opts, button: btn }));
    }
  }
  return { ok: true };
})(%s, %s, %d)`

// typingScriptTemplate: %s selector JSON, %s text JSON, %t pressEnter.
// Descends into containers to find the editable node, sets the value
// through the prototype setter so framework bindings notice, then
// dispatches input and, when asked, the Enter key sequence.
const typingScriptTemplate = `((sel, text, pressEnter) => {
  let el = document.querySelector(sel);
  if (!el) return { ok: false, reason: 'element not found' };

  const editable = (node) =>
    node && (node.tagName === 'INPUT' || node.tagName === 'TEXTAREA' || node.isContentEditable);
  if (!editable(el)) {
    if (el.tagName === 'IFRAME') {
      return { ok: false, reason: 'iframe targets are not supported' };
    }
    const inner = el.querySelector('input, textarea, [contenteditable="true"]');
    if (!inner) return { ok: false, reason: 'no editable node inside target' };
    el = inner;
  }

  el.focus();
  if (el.isContentEditable) {
    el.textContent = text;
  } else {
    const proto = el.tagName === 'TEXTAREA'
      ? window.HTMLTextAreaElement.prototype
      : window.HTMLInputElement.prototype;
    const setter = Object.getOwnPropertyDescriptor(proto, 'value').set;
    setter.call(el, text);
  }
  el.dispatchEvent(new Event('input', { bubbles: true }));

  if (pressEnter) {
    const key = { key: 'Enter', code: 'Enter', keyCode: 13, which: 13, bubbles: true, cancelable: true };
    el.dispatchEvent(new KeyboardEvent('keydown', key));
    el.dispatchEvent(new KeyboardEvent('keypress', key));
    el.dispatchEvent(new KeyboardEvent('keyup', key));
    const form = el.form;
    if (form && typeof form.requestSubmit === 'function') form.requestSubmit();
  }
  return { ok: true };
})(%s, %s, %t)`

// hoverScriptTemplate: %s selector JSON.
const hoverScriptTemplate = `((sel) => {
  const el = document.querySelector(sel);
  if (!el) return { ok: false, reason: 'element not found' };
  el.scrollIntoView({ block: 'center', inline: 'center' });
  const rect = el.getBoundingClientRect();
  const opts = {
    bubbles: true, cancelable: true, view: window,
    clientX: rect.x + rect.width / 2, clientY: rect.y + rect.height / 2,
  };
  el.dispatchEvent(new MouseEvent('mouseover', opts));
  el.dispatchEvent(new MouseEvent('mouseenter', { ...opts, bubbles: false }));
  return { ok: true };
})(%s)`

// scrollScriptTemplate: %s mode JSON ("up"/"down"/"top"/"bottom"/"by"),
// %d pixel amount for mode "by".
const scrollScriptTemplate = `((mode, px) => {
  switch (mode) {
    case 'top': window.scrollTo({ top: 0 }); break;
    case 'bottom': window.scrollTo({ top: document.body.scrollHeight }); break;
    case 'up': window.scrollBy({ top: -window.innerHeight * 0.8 }); break;
    case 'down': window.scrollBy({ top: window.innerHeight * 0.8 }); break;
    default: window.scrollBy({ top: px });
  }
  return { ok: true, y: window.scrollY };
})(%s, %d)`

// selectScriptTemplate: %s selector JSON, %s option JSON. Matches the
// option by value first, then by visible label.
const selectScriptTemplate = `((sel, wanted) => {
  const el = document.querySelector(sel);
  if (!el || el.tagName !== 'SELECT') return { ok: false, reason: 'not a select element' };
  let matched = false;
  for (const opt of el.options) {
    if (opt.value === wanted || opt.textContent.trim() === wanted) {
      el.value = opt.value;
      matched = true;
      break;
    }
  }
  if (!matched) return { ok: false, reason: 'no matching option' };
  el.dispatchEvent(new Event('change', { bubbles: true }));
  return { ok: true };
})(%s, %s)`

// extractScript pulls one structured record: page identity, the visible
// text with scripts and styles stripped, and one item per indexed
// element.
const extractScript = `(() => {
  const clone = document.body ? document.body.cloneNode(true) : null;
  let text = '';
  if (clone) {
    clone.querySelectorAll('script, style, noscript, .pp-element-marker').forEach(n => n.remove());
    text = (clone.textContent || '').replace(/\s+/g, ' ').trim().slice(0, 5000);
  }
  const items = [];
  document.querySelectorAll('[data-pp-index]').forEach(el => {
    const item = {
      index: parseInt(el.getAttribute('data-pp-index'), 10),
      tag: el.tagName.toLowerCase(),
      text: (el.textContent || el.value || '').trim().replace(/\s+/g, ' ').slice(0, 200),
    };
    const href = el.getAttribute('href');
    if (href) item.href = href;
    items.push(item);
  });
  items.sort((a, b) => a.index - b.index);
  return { url: window.location.href, title: document.title, text: text, items: items };
})()`

// pageStateScript probes cheap structural signals the planner and the
// goal heuristic key on.
const pageStateScript = `(() => {
  const hasSearch = !!document.querySelector(
    'input[type="search"], textarea[name="q"], [role="combobox"], ' +
    'input[name="q"], input[placeholder*="search" i], input[aria-label*="search" i]');
  const links = document.querySelectorAll('a[href]').length;
  const url = window.location.href.toLowerCase();
  const isResults = url.includes('search') || url.includes('q=') || url.includes('query=') ||
    /results?/i.test(document.title);
  return {
    url: window.location.href,
    title: document.title,
    has_search_box: hasSearch,
    links_count: links,
    is_search_results: isResults,
  };
})()`
