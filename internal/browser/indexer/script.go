// internal/browser/indexer/script.go
package indexer

// scanScript walks the DOM once and returns every interactive candidate
// with its geometry, a role classification, and a raw id stamped on the
// node (data-pp-raw). The raw ids let the apply step find the nodes the
// ranking selected without re-querying by geometry. Previous generation
// attributes and markers are cleared first.
const scanScript = `(() => {
  const MAX_Y = 2000;
  const MIN_SIZE = 10;

  document.querySelectorAll('.pp-element-marker').forEach(m => m.remove());
  document.querySelectorAll('[data-pp-raw]').forEach(el => el.removeAttribute('data-pp-raw'));
  document.querySelectorAll('[data-pp-index]').forEach(el => el.removeAttribute('data-pp-index'));

  const isVisible = (el, rect) => {
    if (rect.width < MIN_SIZE || rect.height < MIN_SIZE) return false;
    if (rect.x < 0 || rect.x > window.innerWidth) return false;
    if (rect.y < 0 || rect.y > MAX_Y) return false;
    const style = window.getComputedStyle(el);
    if (style.display === 'none' || style.visibility === 'hidden') return false;
    if (parseFloat(style.opacity) <= 0.01) return false;
    return true;
  };

  const looksLikeSearch = (el) => {
    const probe = ((el.getAttribute('placeholder') || '') + ' ' +
                   (el.getAttribute('aria-label') || '') + ' ' +
                   (el.getAttribute('name') || '') + ' ' +
                   (el.getAttribute('title') || '')).toLowerCase();
    return probe.includes('search') || probe.includes('query') || el.getAttribute('name') === 'q' ||
           probe.includes('搜索');
  };

  const roleOf = (el) => {
    const tag = el.tagName.toLowerCase();
    const type = (el.getAttribute('type') || '').toLowerCase();
    if (tag === 'input' || tag === 'textarea') {
      if (type === 'search' || el.getAttribute('role') === 'combobox' || looksLikeSearch(el)) {
        return 'search_input';
      }
      if (type === 'submit' || type === 'button') {
        const label = (el.value || el.getAttribute('aria-label') || '').toLowerCase();
        if (label.includes('search') || label.includes('搜索')) return 'search_button';
        return el.closest('form') ? 'form_button' : 'action_button';
      }
      if (type === 'hidden') return '';
      return 'form_input';
    }
    if (el.isContentEditable) return 'form_input';
    if (tag === 'select') return 'form_input';
    if (tag === 'button' || el.getAttribute('role') === 'button') {
      const label = (el.textContent || el.getAttribute('aria-label') || '').toLowerCase();
      if (label.includes('search') || label.includes('搜索')) return 'search_button';
      return el.closest('form') ? 'form_button' : 'action_button';
    }
    if (tag === 'a') {
      const href = el.getAttribute('href');
      if (!href || href === '#') return '';
      return 'navigation_link';
    }
    if (el.hasAttribute('onclick')) return 'action_button';
    const tabindex = el.getAttribute('tabindex');
    if (tabindex !== null && tabindex !== '-1') return 'interactive_element';
    return '';
  };

  const textOf = (el) => {
    let text = (el.textContent || '').trim();
    if (!text) text = el.value || el.getAttribute('placeholder') || el.getAttribute('aria-label') || '';
    return text.trim().replace(/\s+/g, ' ').slice(0, 80);
  };

  const selectors = [
    'textarea[name="q"]', 'input[type="search"]', '[role="combobox"]',
    'input:not([type="hidden"])', 'textarea', '[contenteditable="true"]',
    'button', '[role="button"]', 'select',
    'a[href]:not([href="#"])', '[onclick]', '[tabindex]:not([tabindex="-1"])',
  ];

  const seen = new Set();
  const out = [];
  let raw = 0;
  for (const sel of selectors) {
    for (const el of document.querySelectorAll(sel)) {
      if (seen.has(el)) continue;
      seen.add(el);
      const rect = el.getBoundingClientRect();
      if (!isVisible(el, rect)) continue;
      const role = roleOf(el);
      if (!role) continue;
      el.setAttribute('data-pp-raw', String(raw));
      const attrs = {};
      for (const name of ['href', 'name', 'type', 'placeholder', 'aria-label']) {
        const v = el.getAttribute(name);
        if (v) attrs[name] = v.slice(0, 120);
      }
      out.push({
        raw: raw,
        tag: el.tagName.toLowerCase(),
        role: role,
        text: textOf(el),
        x: rect.x, y: rect.y, width: rect.width, height: rect.height,
        attrs: attrs,
      });
      raw++;
    }
  }
  return out;
})()`

// applyScriptTemplate receives a JSON object mapping raw ids to final
// indices and a draw flag. Selected nodes get data-pp-index; everything
// else loses the scratch attribute. Markers are numbered overlay badges.
const applyScriptTemplate = `((assignment, draw) => {
  document.querySelectorAll('[data-pp-raw]').forEach(el => {
    const raw = el.getAttribute('data-pp-raw');
    el.removeAttribute('data-pp-raw');
    const index = assignment[raw];
    if (index === undefined) return;
    el.setAttribute('data-pp-index', String(index));
    if (!draw) return;
    const rect = el.getBoundingClientRect();
    const marker = document.createElement('div');
    marker.className = 'pp-element-marker';
    marker.textContent = String(index);
    marker.style.cssText =
      'position:fixed;z-index:2147483646;background:#ff5722;color:#fff;' +
      'font:bold 11px/16px monospace;padding:0 4px;border-radius:3px;' +
      'pointer-events:none;left:' + Math.max(0, rect.x - 2) + 'px;top:' +
      Math.max(0, rect.y - 14) + 'px;';
    document.body.appendChild(marker);
  });
  return true;
})(%s, %t)`
