package htmldoc

import (
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"

	"github.com/hazyhaar/hintnav/hintnav/internal/dom"
)

type declaration struct {
	property string
	value    string
}

// declarations parses an inline style attribute.
func declarations(style string) []declaration {
	if strings.TrimSpace(style) == "" {
		return nil
	}
	var out []declaration
	p := css.NewParser(parse.NewInput(strings.NewReader(style)), true)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return out
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			var b strings.Builder
			for _, t := range p.Values() {
				if t.TokenType == css.WhitespaceToken {
					b.WriteByte(' ')
					continue
				}
				b.Write(t.Data)
			}
			out = append(out, declaration{
				property: strings.ToLower(string(data)),
				value:    strings.TrimSpace(b.String()),
			})
		}
	}
}

func lookup(decls []declaration, property string) (string, bool) {
	v, ok := "", false
	for _, d := range decls {
		if d.property == property {
			v, ok = d.value, true
		}
	}
	return v, ok
}

func serialize(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.property+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// setDeclaration replaces property in the style attribute of n. An empty
// value removes it; an empty style removes the attribute.
func setDeclaration(n *html.Node, property, value string) {
	style, _ := attr(n, "style")
	decls := declarations(style)
	out := decls[:0]
	for _, d := range decls {
		if d.property != property {
			out = append(out, d)
		}
	}
	if value != "" {
		out = append(out, declaration{property: property, value: value})
	}
	if len(out) == 0 {
		removeAttr(n, "style")
		return
	}
	setAttr(n, "style", serialize(out))
}

var notRendered = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
	"title": true, "meta": true, "link": true, "noscript": true,
}

// displayNone reports whether n itself generates no box.
func displayNone(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.Namespace == "" && notRendered[n.Data] {
		return true
	}
	if _, ok := attr(n, "hidden"); ok {
		return true
	}
	if n.Data == "input" {
		if t, _ := attr(n, "type"); strings.EqualFold(t, "hidden") {
			return true
		}
	}
	style, _ := attr(n, "style")
	v, _ := lookup(declarations(style), "display")
	return v == "none"
}

// computedStyle resolves the style the locator filters on, plus whether
// the element has any box at all.
func computedStyle(n *html.Node) (dom.Style, bool) {
	st := dom.Style{Visibility: "visible", Display: "block", Opacity: "1"}
	style, _ := attr(n, "style")
	own := declarations(style)
	if v, ok := lookup(own, "display"); ok {
		st.Display = v
	}
	if v, ok := lookup(own, "opacity"); ok {
		st.Opacity = v
		if f, err := strconv.ParseFloat(v, 64); err == nil && f == 0 {
			st.Opacity = "0"
		}
	}
	if displayNone(n) {
		st.Display = "none"
	}

	for p := n; p != nil && p.Type == html.ElementNode; p = p.Parent {
		s, _ := attr(p, "style")
		if v, ok := lookup(declarations(s), "visibility"); ok && v != "inherit" {
			st.Visibility = v
			break
		}
	}

	rendered := true
	for p := n; p != nil && p.Type == html.ElementNode; p = p.Parent {
		if displayNone(p) {
			rendered = false
			break
		}
	}
	return st, rendered
}
