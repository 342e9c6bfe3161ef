package service

import (
	"fmt"

	"github.com/bytedance/sonic"
)

const indicatorID = "__macro_indicator"

// bridgeScript ставится на каждый новый документ: путь элемента в том же
// формате, что htmldom.Path, очередь событий и исполнитель действий.
const bridgeScript = `(function () {
  if (window.__macroBridge) return;
  window.__macroBridge = true;
  window.__macroQueue = [];

  window.__macroPath = function (el) {
    var parts = [];
    for (var n = el; n && n.nodeType === 1; n = n.parentElement) {
      if (!n.parentElement) { parts.push(n.localName); break; }
      var i = 1;
      for (var s = n.previousElementSibling; s; s = s.previousElementSibling) i++;
      parts.push(n.localName + ':nth-child(' + i + ')');
    }
    return parts.reverse().join(' > ');
  };

  var push = function (e) {
    var t = e.target;
    if (!t || t.nodeType !== 1) return;
    if (t.closest && t.closest('#` + indicatorID + `')) return;
    window.__macroQueue.push({
      type: e.type,
      path: window.__macroPath(t),
      key: e.key || '',
      value: ('value' in t && t.value != null) ? String(t.value) : ''
    });
    if (window.__macroQueue.length > 500) window.__macroQueue.splice(0, 250);
  };
  ['click', 'input', 'change', 'keydown'].forEach(function (t) {
    document.addEventListener(t, push, true);
  });

  window.__macroAct = function (path, op, arg, key) {
    var el = document.querySelector(path);
    if (!el) return false;
    switch (op) {
      case 'focus':
        el.focus();
        return true;
      case 'setValue':
        var proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype
          : el instanceof HTMLSelectElement ? HTMLSelectElement.prototype
          : HTMLInputElement.prototype;
        var desc = Object.getOwnPropertyDescriptor(proto, 'value');
        if (desc && desc.set) desc.set.call(el, arg); else el.value = arg;
        return true;
      case 'click':
        el.click();
        return true;
      case 'dispatch':
        var ev = arg === 'keydown'
          ? new KeyboardEvent('keydown', { key: key, bubbles: true })
          : new Event(arg, { bubbles: true });
        el.dispatchEvent(ev);
        return true;
    }
    return false;
  };
})(); true`

// snapshotScript: разметка плюс то, чего нет в HTML: прямоугольники и текущие значения полей.
const snapshotScript = `(function () {
  var nodes = [];
  var all = document.documentElement.querySelectorAll('*');
  for (var i = 0; i < all.length; i++) {
    var el = all[i];
    var r = el.getBoundingClientRect();
    var n = { p: window.__macroPath(el), r: [r.left, r.top, r.width, r.height] };
    if (el instanceof HTMLInputElement || el instanceof HTMLTextAreaElement || el instanceof HTMLSelectElement) {
      n.v = String(el.value);
    }
    nodes.push(n);
  }
  return { html: document.documentElement.outerHTML, url: location.href, nodes: nodes };
})()`

const drainScript = `(window.__macroQueue || []).splice(0)`

func actScript(path, op, arg, key string) string {
	return fmt.Sprintf("window.__macroAct(%s, %s, %s, %s)", jsString(path), jsString(op), jsString(arg), jsString(key))
}

func showIndicatorScript(text string) string {
	return fmt.Sprintf(`(function () {
  var el = document.getElementById('%[1]s');
  if (!el) {
    el = document.createElement('div');
    el.id = '%[1]s';
    el.style.cssText = 'position:fixed;top:8px;right:8px;z-index:2147483647;padding:4px 10px;' +
      'background:#d32f2f;color:#fff;font:bold 12px sans-serif;border-radius:4px;pointer-events:none';
    document.body.appendChild(el);
  }
  el.textContent = %[2]s;
  return true;
})()`, indicatorID, jsString(text))
}

func hideIndicatorScript() string {
	return fmt.Sprintf(`(function () {
  var el = document.getElementById('%s');
  if (el) el.remove();
  return true;
})()`, indicatorID)
}

// jsString: строковый литерал JS. JSON-строка им является.
func jsString(s string) string {
	b, err := sonic.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
