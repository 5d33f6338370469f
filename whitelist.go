package htmlclean

import (
	"strings"

	"golang.org/x/net/html/atom"
)

// Whitelist maps element and attribute names to descriptors. Names are
// passed in lowercase. Implementations must be safe for concurrent
// reads: one Whitelist is typically shared by many parsers.
type Whitelist interface {
	LookupElement(name string) (*Element, bool)
	LookupAttribute(name string) (*Attribute, bool)
}

// chain consults its sources most-recently-added first.
type chain []Whitelist

func (c chain) element(name string) (*Element, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if e, ok := c[i].LookupElement(name); ok {
			return e, true
		}
	}
	return nil, false
}

func (c chain) attribute(name string) (*Attribute, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if a, ok := c[i].LookupAttribute(name); ok {
			return a, true
		}
	}
	return nil, false
}

// mapWhitelist is an immutable table keyed by atom where the name has
// one, and by string otherwise.
type mapWhitelist struct {
	elemAtoms map[atom.Atom]*Element
	elemNames map[string]*Element
	attrAtoms map[atom.Atom]*Attribute
	attrNames map[string]*Attribute
}

// NewWhitelist builds an immutable Whitelist from the given descriptors.
// Descriptors are copied; later changes to the arguments are not seen.
func NewWhitelist(elements []Element, attributes []Attribute) Whitelist {
	w := &mapWhitelist{
		elemAtoms: make(map[atom.Atom]*Element),
		elemNames: make(map[string]*Element),
		attrAtoms: make(map[atom.Atom]*Attribute),
		attrNames: make(map[string]*Attribute),
	}
	for i := range elements {
		e := elements[i]
		e.Name = strings.ToLower(e.Name)
		e.unknown = false
		if a := lookupAtom(e.Name); a != 0 {
			w.elemAtoms[a] = &e
		} else {
			w.elemNames[e.Name] = &e
		}
	}
	for i := range attributes {
		attr := attributes[i]
		attr.Name = strings.ToLower(attr.Name)
		attr.unknown = false
		values := make([]string, len(attr.Values))
		for j, v := range attr.Values {
			values[j] = strings.ToLower(v)
		}
		attr.Values = values
		if a := lookupAtom(attr.Name); a != 0 {
			w.attrAtoms[a] = &attr
		} else {
			w.attrNames[attr.Name] = &attr
		}
	}
	return w
}

func (w *mapWhitelist) LookupElement(name string) (*Element, bool) {
	if a := lookupAtom(name); a != 0 {
		e, ok := w.elemAtoms[a]
		return e, ok
	}
	e, ok := w.elemNames[name]
	return e, ok
}

func (w *mapWhitelist) LookupAttribute(name string) (*Attribute, bool) {
	if a := lookupAtom(name); a != 0 {
		attr, ok := w.attrAtoms[a]
		return attr, ok
	}
	attr, ok := w.attrNames[name]
	return attr, ok
}

// lookupAtom returns the atom for name, or 0 when name is not a known
// HTML name spelled exactly that way.
func lookupAtom(name string) atom.Atom {
	a := atom.Lookup([]byte(name))
	if a != 0 && a.String() != name {
		return 0
	}
	return a
}

func inline(name string) Element { return Element{Name: name, Flow: FlowInline} }
func block(name string) Element {
	return Element{Name: name, Flow: FlowBlock, BreaksFlow: true}
}
func void(name string, flow FlowKind, breaks bool) Element {
	return Element{Name: name, Empty: true, Flow: flow, BreaksFlow: breaks}
}
func optional(e Element) Element {
	e.OptionalEndTag = true
	return e
}
func structural(e Element) Element {
	e.Structural = StructuralTable
	return e
}

var defaultElements = []Element{
	// headings and blocks
	block("h1"), block("h2"), block("h3"), block("h4"), block("h5"), block("h6"),
	optional(block("p")), block("div"), block("pre"), block("blockquote"),
	block("address"), block("center"), block("section"), block("article"),
	block("header"), block("footer"), block("aside"), block("nav"),
	block("figure"), block("figcaption"), block("details"), block("summary"),
	block("form"),
	void("br", FlowInline, true), void("hr", FlowBlock, true),
	void("img", FlowInline, false), void("wbr", FlowInline, false),

	// lists
	block("ul"), block("ol"), optional(block("li")),
	block("dl"), optional(block("dt")), optional(block("dd")),

	// inline formatting
	inline("a"), inline("abbr"), inline("acronym"), inline("b"), inline("big"),
	inline("cite"), inline("code"), inline("del"), inline("dfn"), inline("em"),
	inline("font"), inline("i"), inline("ins"), inline("kbd"), inline("label"),
	inline("mark"), inline("q"), inline("s"), inline("samp"), inline("small"),
	inline("span"), inline("strike"), inline("strong"), inline("sub"),
	inline("sup"), inline("tt"), inline("u"), inline("var"),

	// tables
	structural(block("table")),
	structural(block("caption")),
	structural(optional(Element{Name: "colgroup"})),
	structural(void("col", FlowNone, false)),
	structural(optional(Element{Name: "thead"})),
	structural(optional(Element{Name: "tbody"})),
	structural(optional(Element{Name: "tfoot"})),
	structural(optional(Element{Name: "tr", BreaksFlow: true})),
	structural(optional(Element{Name: "td"})),
	structural(optional(Element{Name: "th"})),

	// raw text
	{Name: "style"},
}

var defaultAttributes = []Attribute{
	{Name: "id"}, {Name: "class"}, {Name: "lang"}, {Name: "title"},
	{Name: "dir", Kind: ValueEnum, Values: []string{"ltr", "rtl", "auto"}},

	{Name: "href", Kind: ValueURI}, {Name: "src", Kind: ValueURI},
	{Name: "cite", Kind: ValueURI}, {Name: "action", Kind: ValueURI},
	{Name: "background", Kind: ValueURI},

	{Name: "alt"}, {Name: "width"}, {Name: "height"}, {Name: "border"},
	{Name: "rel"}, {Name: "start"}, {Name: "span"},
	{Name: "colspan"}, {Name: "rowspan"},
	{Name: "cellpadding"}, {Name: "cellspacing"},
	{Name: "bgcolor"}, {Name: "color"}, {Name: "face"}, {Name: "size"},
	{Name: "nowrap", Kind: ValueBoolean},
	{Name: "align", Kind: ValueEnum, Values: []string{"left", "center", "right", "justify", "char"}},
	{Name: "valign", Kind: ValueEnum, Values: []string{"top", "middle", "bottom", "baseline"}},
	{Name: "scope", Kind: ValueEnum, Values: []string{"row", "col", "rowgroup", "colgroup"}},
	{Name: "target", Kind: ValueEnum, Values: []string{"_blank", "_self", "_parent", "_top"}},
	{Name: "loading", Kind: ValueEnum, Values: []string{"lazy", "eager"}},
	{Name: "method", Kind: ValueEnum, Values: []string{"get", "post"}},

	// Recognized so PreserveAll keeps their kind; always dropped otherwise.
	{Name: "onclick", Kind: ValueScript}, {Name: "onload", Kind: ValueScript},
	{Name: "onerror", Kind: ValueScript}, {Name: "onmouseover", Kind: ValueScript},
}

var builtin = NewWhitelist(defaultElements, defaultAttributes)

// DefaultWhitelist returns the built-in whitelist: common content and
// email-body markup, tables and forms, without script.
func DefaultWhitelist() Whitelist { return builtin }

var strictWhitelist = NewWhitelist(
	[]Element{
		inline("b"), inline("i"), inline("em"), inline("strong"),
		void("br", FlowInline, true), optional(block("p")),
		block("ul"), block("ol"), optional(block("li")),
	},
	nil,
)

// Synthesized wrappers use these descriptors whatever the policy's
// chain holds. They match any whitelist's table and td by name.
var (
	tableElement, _ = builtin.LookupElement("table")
	cellElement, _  = builtin.LookupElement("td")
)
