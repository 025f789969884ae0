package locator

import "strings"

// Clickable matches everything a user can interact with by pointer.
const Clickable = "//*[@onclick or @onmouseover or @onmousedown or @onmouseup or @oncommand" +
	" or @role='link' or @role='button' or @role='menuitem']" +
	" | //input[not(@type='hidden')] | //a[@href] | //area | //iframe | //textarea | //button" +
	" | //select | //*[@contenteditable = 'true']" +
	" | //xhtml:*[@onclick or @onmouseover or @onmousedown or @onmouseup or @oncommand" +
	" or @role='link' or @role='button' or @role='menuitem']" +
	" | //xhtml:input[not(@type='hidden')] | //xhtml:a[@href] | //xhtml:area | //xhtml:iframe" +
	" | //xhtml:textarea | //xhtml:button | //xhtml:select | //xhtml:*[@contenteditable = 'true']" +
	" | //svg:a"

// Link matches anchors with a target.
const Link = "//a[@href]"

// Frames is appended to link-only selectors so nested documents are still
// searched.
const Frames = "//iframe | //frame"

// Resolve maps a preset name to its XPath. Anything else is taken as XPath.
// The link preset also matches frames, otherwise links inside frames would
// never be reached.
func Resolve(selector string) string {
	switch s := strings.TrimSpace(selector); s {
	case "", "clickable":
		return Clickable
	case "link":
		return Link + " | " + Frames
	default:
		return s
	}
}

// Presets lists the preset names.
func Presets() []string {
	return []string{"clickable", "link"}
}
