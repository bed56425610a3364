package cdp

import (
	"encoding/json"
	"strings"

	"github.com/wonny/tvbatch/internal/surface"
)

// helpers is prepended to every page script. SEL and ATTRS are bound per Surface.
const helpers = `
const $widget = () => document.querySelector(SEL.watchlist_widget);
const $list = () => {
  const w = $widget();
  if (!w) return null;
  for (const c of SEL.list_containers) {
    const el = w.querySelector(c);
    if (el) return el;
  }
  return null;
};
const $norm = (v) => {
  v = (v || "").trim();
  const i = v.lastIndexOf(":");
  return i >= 0 ? v.slice(i + 1).trim() : v;
};
const $row = (id) => {
  const l = $list();
  if (!l) return null;
  for (const el of l.querySelectorAll(SEL.row)) {
    for (const a of ATTRS) {
      const v = el.getAttribute(a);
      if (v && $norm(v) === id) return el;
    }
  }
  return null;
};
const $text = (el) => (el.innerText || el.textContent || "").trim();
const $visible = (el) => !!el && el.getClientRects().length > 0;
const $byText = (sel, test) =>
  Array.from(document.querySelectorAll(sel)).find((el) => $visible(el) && test($text(el)));
const $setValue = (el, value) => {
  const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
  const setter = Object.getOwnPropertyDescriptor(proto, "value").set;
  el.focus();
  setter.call(el, "");
  el.dispatchEvent(new Event("input", { bubbles: true }));
  setter.call(el, value);
  el.dispatchEvent(new Event("input", { bubbles: true }));
  el.dispatchEvent(new Event("change", { bubbles: true }));
};
`

// Page script bodies. Each one sees the helpers plus "arg".
// Action scripts answer "ok", "absent" or "stale".
const (
	scriptCollectionTitle = `
const el = ($widget() || document).querySelector(SEL.collection_title);
return el ? $text(el) : null;`

	scriptViewport = `
const l = $list();
if (!l) return null;
const r = l.querySelector(SEL.row);
return { rowHeight: r ? r.getBoundingClientRect().height : 0, scrollHeight: l.scrollHeight, scrollTop: l.scrollTop };`

	scriptScrollTo = `
const l = $list();
if (!l) return "absent";
l.scrollTop = arg;
l.dispatchEvent(new Event("scroll", { bubbles: true }));
return "ok";`

	scriptRenderedRows = `
const l = $list();
if (!l) return null;
return Array.from(l.querySelectorAll(SEL.row)).map((el) => el.outerHTML).join("");`

	scriptTableRows = `
const t = document.querySelector(SEL.table);
return t ? t.outerHTML : null;`

	scriptFindRow = `
const r = $row(arg);
if (!r) return null;
return r.getAttribute("data-symbol-full") || arg;`

	scriptRowState = `
const r = $row(arg);
if (!r) return null;
const snap = (el) => {
  const attrs = {};
  for (const a of el.attributes) attrs[a.name] = a.value;
  return { attrs, class: typeof el.className === "string" ? el.className : "" };
};
const out = snap(r);
out.ancestors = [];
for (let p = r.parentElement; p && out.ancestors.length < 8; p = p.parentElement) out.ancestors.push(snap(p));
return out;`

	scriptScrollIntoView = `
const r = $row(arg);
if (!r) return "stale";
r.scrollIntoView({ block: "center" });
return "ok";`

	// clicks land on the symbol text of the row wrapper, where the site listens
	scriptRowPoint = `
const r = $row(arg);
if (!r) return null;
const wrap = r.closest(SEL.row_wrap) || r;
const target = wrap.querySelector(SEL.row_symbol_text) || wrap;
const b = target.getBoundingClientRect();
if (b.width === 0 && b.height === 0) return null;
return { x: b.left + b.width / 2, y: b.top + b.height / 2 };`

	scriptFocusListing = `
const l = $list();
if (!l) return "absent";
if (!l.hasAttribute("tabindex")) l.setAttribute("tabindex", "-1");
l.focus();
return "ok";`

	scriptRemoveRow = `
const r = $row(arg);
if (!r) return "stale";
const wrap = r.closest(SEL.row_wrap) || r;
const btn = wrap.querySelector(SEL.remove_button);
if (!btn) return "absent";
btn.click();
return "ok";`

	scriptClickSelector = `
const el = document.querySelector(arg);
if (!el) return "absent";
el.click();
return "ok";`

	// arg: {tabs, then, require}
	scriptOpenTab = `
const tab = $byText("button, div, span", (t) => arg.tabs.some((l) => t.includes(l)));
if (!tab) return "absent";
tab.click();
if (arg.then && arg.then.length) {
  const sub = $byText("button, div, span", (t) => arg.then.includes(t));
  if (sub) sub.click();
}
if (arg.require && !arg.require.some((s) => document.querySelector(s))) return "absent";
return "ok";`

	// arg: {label, fold}
	scriptChooseOption = `
const want = arg.fold ? arg.label.toLowerCase() : arg.label;
const el = $byText(SEL.option_candidates, (t) => (arg.fold ? t.toLowerCase() : t) === want);
if (!el) return "absent";
el.click();
return "ok";`

	// arg: {selector, value}
	scriptSetField = `
const el = document.querySelector(arg.selector);
if (!el) return "absent";
$setValue(el, arg.value);
return "ok";`

	// arg: {source, flags}
	scriptConfirm = `
const re = new RegExp(arg.source, arg.flags);
const el = $byText("button", (t) => re.test(t));
if (!el) return "absent";
el.click();
return "ok";`

	scriptOutdatedNotice = `
if (document.querySelector(SEL.outdated_snackbar)) return true;
return !!$byText("button", (t) => SEL.update_report_labels.some((l) => t.includes(l)));`

	scriptConfirmOutdated = `
const snack = document.querySelector(SEL.outdated_snackbar);
const btn = (snack && snack.querySelector(SEL.snackbar_button)) ||
  $byText("button, span, div", (t) => SEL.update_report_labels.some((l) => t.includes(l)));
if (!btn) return "absent";
btn.click();
return "ok";`

	scriptReportMarkup = `
const root = document.querySelector(SEL.report_root);
if (!root) return null;
let html = root.outerHTML;
const title = document.querySelector(SEL.strategy_title);
if (title && !root.contains(title)) html += title.outerHTML;
return html;`
)

// program assembles one self-contained expression
type program struct {
	prelude string
}

func newProgram(sel surface.Selectors) program {
	var b strings.Builder
	b.WriteString("const SEL = ")
	b.WriteString(literal(sel))
	b.WriteString(";\nconst ATTRS = ")
	b.WriteString(literal(surface.SymbolAttrs))
	b.WriteString(";\n")
	b.WriteString(helpers)
	return program{prelude: b.String()}
}

// build wraps body in an IIFE with arg bound to the JSON form of arg
func (p program) build(body string, arg interface{}) string {
	var b strings.Builder
	b.WriteString("(() => {\n")
	b.WriteString(p.prelude)
	b.WriteString("const arg = ")
	b.WriteString(literal(arg))
	b.WriteString(";\n")
	b.WriteString(body)
	b.WriteString("\n})()")
	return b.String()
}

// literal renders v as a JavaScript literal; encoding/json already escapes
// the line separators JSON allows but JS string literals do not
func literal(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// jsPattern converts a Go regexp with an optional leading (?i) into a JS source/flags pair
func jsPattern(pattern string) (string, string) {
	if strings.HasPrefix(pattern, "(?i)") {
		return strings.TrimPrefix(pattern, "(?i)"), "i"
	}
	return pattern, ""
}
