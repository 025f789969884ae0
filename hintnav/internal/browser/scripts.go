package browser

// queryJS evaluates an XPath expression in the frame and returns the
// element matches in document order.
const queryJS = `(expr, ns) => {
	const resolver = (prefix) => ns[prefix] || null;
	const res = document.evaluate(expr, document, resolver, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = 0; i < res.snapshotLength; i++) {
		const n = res.snapshotItem(i);
		if (n.nodeType === Node.ELEMENT_NODE) out.push(n);
	}
	return out;
}`

// infoJS collects every fact the engine reads about an element in one
// round trip.
const infoJS = `function () {
	const r = this.getBoundingClientRect();
	const cs = window.getComputedStyle(this, null);
	let href = "";
	if (typeof this.href === "string") href = this.href;
	else if (this.href && typeof this.href.baseVal === "string") href = new URL(this.href.baseVal, document.baseURI).href;
	return {
		tag: this.nodeName,
		text: this.textContent || "",
		href: href,
		frame: this.tagName === "IFRAME" || this.tagName === "FRAME",
		has_rect: this.getClientRects().length > 0,
		rect: {left: r.left, top: r.top, right: r.right, bottom: r.bottom},
		style: {
			visibility: cs.getPropertyValue("visibility"),
			display: cs.getPropertyValue("display"),
			opacity: cs.getPropertyValue("opacity"),
		},
		background: this.style ? this.style.background : "",
		color: this.style ? this.style.color : "",
	};
}`

const colorsJS = `function (bg, fg) {
	this.style.background = bg;
	this.style.color = fg;
}`

const dispatchJS = `function (type) {
	this.dispatchEvent(new MouseEvent(type, {view: window, bubbles: true, cancelable: true}));
}`

const viewportJS = `() => ({
	width: window.innerWidth,
	height: window.innerHeight,
	scroll_x: window.scrollX,
	scroll_y: window.scrollY,
})`

const overlayJS = `(label, bg, fg, left, top) => {
	const s = document.createElement("span");
	s.textContent = String(label);
	s.setAttribute("data-hint-overlay", "");
	s.style.background = bg;
	s.style.color = fg;
	s.style.position = "absolute";
	s.style.zIndex = "2147483647";
	s.style.left = left + "px";
	s.style.top = top + "px";
	s.style.display = "initial";
	document.documentElement.appendChild(s);
	return s;
}`

const overlayLabelJS = `function (label) { this.textContent = String(label); }`

const overlayVisibleJS = `function (visible) { this.style.display = visible ? "initial" : "none"; }`

const removeJS = `function () { this.remove(); }`

const locationJS = `() => location.href`
