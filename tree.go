package htmlclean

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// treeNode is one arena slot. Element slots hold a *Tag in node and the
// end tag that closed it in end; empty elements and leaves have no end.
type treeNode struct {
	node     Node
	end      *EndTag
	parent   int
	children []int
}

// Tree is a balanced document. Nodes live in an append-only arena and
// refer to each other by index; index 0 is the document root, which has
// no node of its own.
type Tree struct {
	nodes    []treeNode
	linkify  bool
	maxDepth int
}

func newTree(linkify bool, maxDepth int) *Tree {
	return &Tree{
		nodes:    []treeNode{{parent: -1}},
		linkify:  linkify,
		maxDepth: maxDepth,
	}
}

func (t *Tree) add(parent int, n Node) int {
	i := len(t.nodes)
	t.nodes = append(t.nodes, treeNode{node: n, parent: parent})
	t.nodes[parent].children = append(t.nodes[parent].children, i)
	return i
}

// Root returns the index of the document root.
func (t *Tree) Root() int { return 0 }

// Len returns the number of nodes, not counting the root.
func (t *Tree) Len() int { return len(t.nodes) - 1 }

// Node returns the node at i; nil for the root.
func (t *Tree) Node(i int) Node { return t.nodes[i].node }

// End returns the end tag closing the element at i, or nil for leaves
// and empty elements.
func (t *Tree) End(i int) *EndTag { return t.nodes[i].end }

// Parent returns the index of the parent of i, or -1 for the root.
func (t *Tree) Parent(i int) int { return t.nodes[i].parent }

// Children returns the indices of the children of i in document order.
// The slice must not be modified.
func (t *Tree) Children(i int) []int { return t.nodes[i].children }

// Walk calls fn for every node in document order with its depth
// (top-level nodes have depth 1). Returning false skips the children.
func (t *Tree) Walk(fn func(i int, n Node, depth int) bool) {
	var walk func(i, depth int)
	walk = func(i, depth int) {
		for _, c := range t.nodes[i].children {
			if fn(c, t.nodes[c].node, depth) {
				walk(c, depth+1)
			}
		}
	}
	walk(0, 1)
}

// Flatten returns the tree as a balanced open/close node stream.
func (t *Tree) Flatten() []Node {
	out := make([]Node, 0, len(t.nodes))
	var walk func(i int)
	walk = func(i int) {
		for _, c := range t.nodes[i].children {
			out = append(out, t.nodes[c].node)
			walk(c)
			if end := t.nodes[c].end; end != nil {
				out = append(out, end)
			}
		}
	}
	walk(0)
	return out
}

// HTML renders the tree.
func (t *Tree) HTML() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

// Render writes the tree to w. Elements nested deeper than the policy's
// MaxDepth are stripped with their children promoted; with Linkify,
// URLs in normalized text outside links become anchors.
func (t *Tree) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	r := renderer{tree: t, w: bw}
	r.children(0, 1, false, false)
	return bw.Flush()
}

type renderer struct {
	tree *Tree
	w    *bufio.Writer
}

// children renders the children of i. rawText is set when i is a
// rendered script or style element, the only place CDATA is emitted
// verbatim.
func (r *renderer) children(i, depth int, inAnchor, rawText bool) {
	for _, c := range r.tree.nodes[i].children {
		r.node(c, depth, inAnchor, rawText)
	}
}

func (r *renderer) node(i, depth int, inAnchor, rawText bool) {
	tn := &r.tree.nodes[i]
	switch n := tn.node.(type) {
	case *Tag:
		strip := r.tree.maxDepth > 0 && depth > r.tree.maxDepth
		if !strip {
			r.w.WriteString(n.HTML())
		}
		name := n.Name()
		r.children(i, depth+1, inAnchor || name == "a", !strip && (name == "script" || name == "style"))
		if !strip && tn.end != nil {
			r.w.WriteString(tn.end.HTML())
		}
	case *Text:
		if r.tree.linkify && !n.Preserved && !inAnchor {
			writeLinkedText(r.w, n.Content)
			return
		}
		r.w.WriteString(n.HTML())
	case *CData:
		if rawText {
			r.w.WriteString(n.Content)
			return
		}
		r.w.WriteString(html.EscapeString(n.Content))
	case *Comment:
		r.w.WriteString(n.HTML())
	default:
		panic(fmt.Sprintf("htmlclean: unexpected tree node %T", n))
	}
}

// Text returns the character data of the tree with all markup removed.
// Script and style bodies are not included.
func (t *Tree) Text() string {
	var sb strings.Builder
	t.Walk(func(_ int, n Node, _ int) bool {
		if txt, ok := n.(*Text); ok {
			sb.WriteString(txt.Content)
		}
		return true
	})
	return sb.String()
}

// urlRegexp matches http/https URLs inside plain text.
var urlRegexp = regexp.MustCompile(`https?://[^\s<>"]+[^\s<>".,;:!?)\]]`)

func writeLinkedText(w *bufio.Writer, text string) {
	last := 0
	for _, m := range urlRegexp.FindAllStringIndex(text, -1) {
		w.WriteString(html.EscapeString(text[last:m[0]]))
		rawURL := text[m[0]:m[1]]
		w.WriteString(`<a href="`)
		w.WriteString(html.EscapeString(rawURL))
		w.WriteString(`" rel="noopener noreferrer">`)
		w.WriteString(html.EscapeString(rawURL))
		w.WriteString(`</a>`)
		last = m[1]
	}
	w.WriteString(html.EscapeString(text[last:]))
}
