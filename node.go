package htmlclean

import (
	"strings"

	"golang.org/x/net/html"
)

// Node is one item of the flat document produced by Parser.Parse. The
// set of implementations is closed: *Text, *Tag, *EndTag, *Comment and
// *CData.
//
// Nodes are immutable once the parser returns them.
type Node interface {
	// HTML renders the node. Preserved nodes return their original
	// text, others their canonical form.
	HTML() string

	node()
}

// Text is character data. Content is entity-unescaped.
type Text struct {
	Content string

	// Original is the source text, kept when Preserved is set.
	Original  string
	Preserved bool
}

func (*Text) node() {}

func (t *Text) HTML() string {
	if t.Preserved {
		return t.Original
	}
	return html.EscapeString(t.Content)
}

// IsWhitespace reports whether t holds only whitespace.
func (t *Text) IsWhitespace() bool {
	return strings.TrimLeft(t.Content, " \t\n\f\r") == ""
}

// CData is the raw body of a <script> or <style> element.
type CData struct {
	Content string
}

func (*CData) node() {}

func (c *CData) HTML() string { return c.Content }

// Comment is an HTML comment including its delimiters. Only PreserveAll
// parsing produces comments.
type Comment struct {
	Raw string
}

func (*Comment) node() {}

func (c *Comment) HTML() string { return c.Raw }

// TagAttribute is one attribute of a start tag.
type TagAttribute struct {
	Attr *Attribute

	// Value is entity-unescaped. HasValue is false for a bare name.
	Value    string
	HasValue bool

	// Original is the source text including its leading whitespace,
	// kept when Preserved is set.
	Original  string
	Preserved bool
}

func (a *TagAttribute) html() string {
	if a.Preserved {
		return a.Original
	}
	if !a.HasValue {
		return " " + a.Attr.Name
	}
	return " " + a.Attr.Name + `="` + html.EscapeString(a.Value) + `"`
}

// Tag is a start tag.
type Tag struct {
	Element    *Element
	Attributes []TagAttribute

	// SelfTerminating is set for tags written as <x/>.
	SelfTerminating bool

	// BeforeAttrs holds the original "<name" and AfterAttrs the original
	// text following the last attribute, ">" or "/>" included. Both are
	// kept when Preserved is set.
	BeforeAttrs string
	AfterAttrs  string
	Preserved   bool
}

func (*Tag) node() {}

// Name returns the lowercase element name.
func (t *Tag) Name() string { return t.Element.Name }

func (t *Tag) HTML() string {
	var sb strings.Builder
	if t.Preserved {
		sb.WriteString(t.BeforeAttrs)
	} else {
		sb.WriteByte('<')
		sb.WriteString(t.Element.Name)
	}
	for i := range t.Attributes {
		sb.WriteString(t.Attributes[i].html())
	}
	switch {
	case t.Preserved:
		sb.WriteString(t.AfterAttrs)
	case t.SelfTerminating || t.Element.Empty:
		sb.WriteString(" />")
	default:
		sb.WriteByte('>')
	}
	return sb.String()
}

// Attr returns the value of the first attribute called name.
func (t *Tag) Attr(name string) (string, bool) {
	for _, a := range t.Attributes {
		if strings.EqualFold(a.Attr.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// WithAttr returns a copy of t with attr set to value. An existing
// attribute of the same name is replaced in place.
func (t *Tag) WithAttr(attr *Attribute, value string) *Tag {
	c := t.clone()
	set := TagAttribute{Attr: attr, Value: value, HasValue: true}
	for i := range c.Attributes {
		if c.Attributes[i].Attr.SameAs(attr) {
			c.Attributes[i] = set
			return c
		}
	}
	c.Attributes = append(c.Attributes, set)
	return c
}

// WithoutAttr returns a copy of t with every attribute called name
// removed.
func (t *Tag) WithoutAttr(name string) *Tag {
	c := t.clone()
	attrs := c.Attributes[:0]
	for _, a := range c.Attributes {
		if !strings.EqualFold(a.Attr.Name, name) {
			attrs = append(attrs, a)
		}
	}
	c.Attributes = attrs
	return c
}

func (t *Tag) clone() *Tag {
	c := *t
	c.Attributes = append([]TagAttribute(nil), t.Attributes...)
	return &c
}

// opened returns the non-self-terminating form of a self-terminating
// tag, so that it can be paired with a separate end tag.
func (t *Tag) opened() *Tag {
	c := t.clone()
	c.SelfTerminating = false
	if c.Preserved {
		if i := strings.LastIndexByte(c.AfterAttrs, '/'); i >= 0 {
			c.AfterAttrs = c.AfterAttrs[:i] + c.AfterAttrs[i+1:]
		}
	}
	return c
}

// EndTag is an end tag.
type EndTag struct {
	Element *Element

	// Original is the source text, kept when Preserved is set.
	Original  string
	Preserved bool
}

func (*EndTag) node() {}

// Name returns the lowercase element name.
func (t *EndTag) Name() string { return t.Element.Name }

func (t *EndTag) HTML() string {
	if t.Preserved {
		return t.Original
	}
	return "</" + t.Element.Name + ">"
}

// Render concatenates the HTML of nodes.
func Render(nodes []Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(n.HTML())
	}
	return sb.String()
}
