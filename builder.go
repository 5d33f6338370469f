package htmlclean

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Visitor receives the nodes of a flat document in order.
type Visitor interface {
	OnTag(t *Tag)
	OnEndTag(t *EndTag)
	OnText(t *Text)
	OnComment(c *Comment)
	OnCData(c *CData)
}

// Walk feeds nodes to v.
func Walk(nodes []Node, v Visitor) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Tag:
			v.OnTag(n)
		case *EndTag:
			v.OnEndTag(n)
		case *Text:
			v.OnText(n)
		case *Comment:
			v.OnComment(n)
		case *CData:
			v.OnCData(n)
		default:
			panic(fmt.Sprintf("htmlclean: unexpected node type %T", n))
		}
	}
}

// optionalGroup says which open siblings an element with an optional
// end tag implicitly closes, and where the search for them stops.
type optionalGroup struct {
	siblings []string
	scope    []string
}

var optionalGroups = map[string]optionalGroup{
	"td":       {siblings: []string{"td", "th"}, scope: []string{"tr", "tbody", "thead", "tfoot", "table"}},
	"th":       {siblings: []string{"td", "th"}, scope: []string{"tr", "tbody", "thead", "tfoot", "table"}},
	"tr":       {siblings: []string{"tr"}, scope: []string{"tbody", "thead", "tfoot", "table"}},
	"thead":    {siblings: []string{"thead", "tbody", "tfoot"}, scope: []string{"table"}},
	"tbody":    {siblings: []string{"thead", "tbody", "tfoot"}, scope: []string{"table"}},
	"tfoot":    {siblings: []string{"thead", "tbody", "tfoot"}, scope: []string{"table"}},
	"colgroup": {siblings: []string{"colgroup"}, scope: []string{"table"}},
	"li":       {siblings: []string{"li"}, scope: []string{"ul", "ol", "td", "th", "table"}},
	"dt":       {siblings: []string{"dt", "dd"}, scope: []string{"dl", "td", "th", "table"}},
	"dd":       {siblings: []string{"dt", "dd"}, scope: []string{"dl", "td", "th", "table"}},
	"option":   {siblings: []string{"option"}, scope: []string{"select", "table"}},
	"p":        {siblings: []string{"p"}, scope: []string{"div", "blockquote", "li", "dd", "form", "section", "article", "td", "th", "caption", "table"}},
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// TreeBuilder turns a flat node list into a balanced Tree. It keeps a
// stack of open elements, closes unbalanced tags, discards orphan end
// tags and repairs table structure.
//
// A TreeBuilder builds exactly one tree and is not safe for concurrent
// use.
type TreeBuilder struct {
	policy   Policy
	log      *zap.Logger
	tree     *Tree
	stack    []int
	fixer    tableFixer
	finished bool
}

// NewTreeBuilder returns a TreeBuilder configured from a snapshot of p.
// If p is nil, DefaultPolicy is used.
func NewTreeBuilder(p *Policy) (*TreeBuilder, error) {
	if p == nil {
		p = DefaultPolicy()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	snap := p.snapshot()
	return &TreeBuilder{
		policy: snap,
		log:    snap.Logger.Named("tree"),
		tree:   newTree(snap.Linkify, snap.MaxDepth),
	}, nil
}

func (b *TreeBuilder) OnTag(t *Tag) {
	b.checkOpen()
	for _, fn := range b.policy.Transformers {
		if t = fn(t); t == nil {
			b.log.Debug("transformer removed tag")
			return
		}
	}

	b.closeOptional(t.Element)
	b.fixer.seeTag(b, t.Element)
	switch {
	case t.Element.Empty:
		b.tree.add(b.top(), t)
		// An empty element never sees an end tag, so whatever table
		// context it opened ends with it.
		b.fixer.seeEndTag(t.Element)
	case t.SelfTerminating:
		// An open/close pair keeps every rendering balanced; a preserved
		// "<span/>" followed by "</span>" would not be.
		i := b.tree.add(b.top(), t.opened())
		b.tree.nodes[i].end = &EndTag{Element: t.Element}
		b.fixer.seeEndTag(t.Element)
	default:
		b.stack = append(b.stack, b.tree.add(b.top(), t))
	}
}

func (b *TreeBuilder) OnEndTag(t *EndTag) {
	b.checkOpen()
	d := b.find(t.Element)
	if d < 0 {
		b.log.Debug("discarded orphan end tag", zap.String("name", t.Element.Name))
		return
	}
	b.closeTo(d, t)
}

func (b *TreeBuilder) OnText(t *Text) {
	b.checkOpen()
	b.fixer.seeText(b, !t.IsWhitespace())
	b.tree.add(b.top(), t)
}

func (b *TreeBuilder) OnCData(c *CData) {
	b.checkOpen()
	b.fixer.seeText(b, strings.TrimSpace(c.Content) != "")
	b.tree.add(b.top(), c)
}

// OnComment adds c where it appears. Comments never contribute
// structure, so they do not open a table cell.
func (b *TreeBuilder) OnComment(c *Comment) {
	b.checkOpen()
	b.fixer.seeText(b, false)
	b.tree.add(b.top(), c)
}

// Finish closes every open element and returns the tree. It panics if
// the table fixer is not balanced afterwards, which indicates a defect
// in the builder rather than in the input.
func (b *TreeBuilder) Finish() *Tree {
	b.checkOpen()
	for len(b.stack) > 0 {
		b.pop(nil)
	}
	b.finished = true
	if !b.fixer.balanced() {
		panic(fmt.Sprintf("htmlclean: table fixer unbalanced at finish: tables=%d state=%s",
			b.fixer.tables, b.fixer.state))
	}
	return b.tree
}

// openSynthetic opens e as if it had been parsed, implicit closes
// included, so that re-parsing the output reproduces the same tree.
func (b *TreeBuilder) openSynthetic(e *Element) {
	b.log.Debug("synthesized element", zap.String("name", e.Name))
	b.closeOptional(e)
	b.stack = append(b.stack, b.tree.add(b.top(), &Tag{Element: e}))
}

func (b *TreeBuilder) checkOpen() {
	if b.finished {
		panic("htmlclean: TreeBuilder used after Finish")
	}
}

func (b *TreeBuilder) top() int {
	if len(b.stack) == 0 {
		return 0
	}
	return b.stack[len(b.stack)-1]
}

func (b *TreeBuilder) element(depth int) *Element {
	return b.tree.nodes[b.stack[depth]].node.(*Tag).Element
}

// find returns the stack depth of the innermost open e, or -1.
func (b *TreeBuilder) find(e *Element) int {
	for d := len(b.stack) - 1; d >= 0; d-- {
		if b.element(d).SameAs(e) {
			return d
		}
	}
	return -1
}

// closeTo closes every element above depth d with synthesized end tags,
// then closes d itself with end, or a synthesized end tag if end is nil.
func (b *TreeBuilder) closeTo(d int, end *EndTag) {
	for len(b.stack)-1 > d {
		b.pop(nil)
	}
	b.pop(end)
}

func (b *TreeBuilder) pop(end *EndTag) {
	i := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	e := b.tree.nodes[i].node.(*Tag).Element
	if end == nil {
		end = &EndTag{Element: e}
	}
	b.tree.nodes[i].end = end
	b.fixer.seeEndTag(e)
}

// closeOptional implicitly closes an open sibling of e when e's end tag
// is optional, e.g. an open <li> when the next <li> starts.
func (b *TreeBuilder) closeOptional(e *Element) {
	if !e.OptionalEndTag {
		return
	}
	group, ok := optionalGroups[e.Name]
	if !ok {
		return
	}
	for d := len(b.stack) - 1; d >= 0; d-- {
		name := b.element(d).Name
		if contains(group.siblings, name) {
			b.closeTo(d, nil)
			return
		}
		if contains(group.scope, name) {
			return
		}
	}
}
