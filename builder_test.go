package htmlclean_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/njchilds90/htmlclean"
)

func TestBuild_AutoClose(t *testing.T) {
	tree := build(t, nil, `<p>Hi<b>there`)
	want := []string{"<p>", "text:Hi", "<b>", "text:there", "</b>", "</p>"}
	if diff := cmp.Diff(want, describe(tree.Flatten())); diff != "" {
		t.Errorf("flatten mismatch (-want +got):\n%s", diff)
	}
	if got := tree.HTML(); got != `<p>Hi<b>there</b></p>` {
		t.Errorf("got %q", got)
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"orphan end tags", `</b></b></p>text`, `text`},
		{"misnested", `<b><i>x</b>y</i>`, `<b><i>x</i></b>y`},
		{"stray table text", `<table><tr>stray<td>cell</table>`,
			`<table><tr><td>stray</td><td>cell</td></tr></table>`},
		{"nested tables", `<table><table><tr><td>x</table>y</table>`,
			`<table><td><table><tr><td>x</td></tr></table>y</td></table>`},
		{"cell without table", `<td>x</td>`, `<table><td>x</td></table>`},
		{"form straddles table", `<table><form><tr><td>x</td></tr></form>y</table>`,
			`<table><form><tr><td>x</td></tr></form><td>y</td></table>`},
		{"whitespace not wrapped", `<table> <tr><td>x</td></tr> </table>`,
			`<table> <tr><td>x</td></tr> </table>`},
		{"caption", `<table><caption>c</caption>x</table>`,
			`<table><caption>c</caption><td>x</td></table>`},
		{"element in table", `<table><b>x</b></table>`, `<table><td><b>x</b></td></table>`},
		{"style in table", `<table><style>x</style></table>`,
			`<table><td><style>x</style></td></table>`},
		{"synthetic cell closes open cell", `<table><td><tr></tr><b>x</b></table>`,
			`<table><td><tr></tr></td><td><b>x</b></td></table>`},
		{"list items", `<ul><li>1<li>2</ul>`, `<ul><li>1</li><li>2</li></ul>`},
		{"nested lists", `<ul><li>1<ol><li>a<li>b</ol><li>2</ul>`,
			`<ul><li>1<ol><li>a</li><li>b</li></ol></li><li>2</li></ul>`},
		{"paragraphs", `<p>a<p>b`, `<p>a</p><p>b</p>`},
		{"definition list", `<dl><dt>t<dd>d<dt>u</dl>`, `<dl><dt>t</dt><dd>d</dd><dt>u</dt></dl>`},
		{"self-terminating pair", `<span/>x`, `<span></span>x`},
		{"empty element", `<hr/><br>x</br>`, `<hr /><br />x`},
		{"raw style", `<style>a>b</style>`, `<style>a>b</style>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := build(t, nil, tc.in).HTML(); got != tc.want {
				t.Errorf("got  %q\nwant %q", got, tc.want)
			}
		})
	}
}

func TestBuild_Preserved(t *testing.T) {
	tests := []struct {
		mode     htmlclean.Fidelity
		in, want string
	}{
		{htmlclean.PreserveAll, `<span/>`, `<span></span>`},
		{htmlclean.PreserveAll, `<SPAN class=x />`, `<SPAN class=x ></span>`},
		{htmlclean.PreserveAll, `<hr/>`, `<hr/>`},
		{htmlclean.PreserveAll, `<table><!-- c --></table>`, `<table><!-- c --></table>`},
		{htmlclean.PreserveAll, `<x-a>b`, `<x-a>b</x-a>`},
		{htmlclean.PreserveValid, `<table><tr>stray`, `<table><tr><td>stray</td></tr></table>`},
		{htmlclean.PreserveValid, `<B >x</B >`, `<B >x</B >`},
	}
	for _, tc := range tests {
		if got := build(t, withFidelity(tc.mode), tc.in).HTML(); got != tc.want {
			t.Errorf("%s %q: got %q want %q", tc.mode, tc.in, got, tc.want)
		}
	}
}

func TestBuild_SelfTerminatingPair(t *testing.T) {
	nodes, _ := parse(t, withFidelity(htmlclean.PreserveAll), `<span/>`)
	if len(nodes) != 1 || !nodes[0].(*htmlclean.Tag).SelfTerminating {
		t.Fatalf("expected one self-terminating tag, got %v", describe(nodes))
	}
	tree := build(t, withFidelity(htmlclean.PreserveAll), `<span/>`)
	if diff := cmp.Diff([]string{"<span>", "</span>"}, describe(tree.Flatten())); diff != "" {
		t.Errorf("flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_EmptyTableDescriptors(t *testing.T) {
	p := htmlclean.DefaultPolicy()
	w := htmlclean.NewWhitelist([]htmlclean.Element{
		{Name: "table", Empty: true, Structural: htmlclean.StructuralTable},
		{Name: "td", Empty: true, Structural: htmlclean.StructuralTable},
	}, nil)
	if err := p.AddWhitelist(w); err != nil {
		t.Fatal(err)
	}

	if got := sanitize(t, p, `<table>x`); got != `<table />x` {
		t.Errorf("empty table: got %q", got)
	}
	if got := sanitize(t, p, `<td>x`); got != `<table><td /><td>x</td></table>` {
		t.Errorf("empty cell: got %q", got)
	}
	for _, input := range malformed {
		sanitize(t, p, input)
	}
}

// leaksFromTable reports whether node i has a table ancestor that is
// nearer than any cell or caption.
func leaksFromTable(tree *htmlclean.Tree, i int) bool {
	for p := tree.Parent(i); p > tree.Root(); p = tree.Parent(p) {
		switch tree.Node(p).(*htmlclean.Tag).Name() {
		case "td", "th", "caption":
			return false
		case "table":
			return true
		}
	}
	return false
}

func TestBuild_BalancedAndContained(t *testing.T) {
	for _, mode := range modes {
		for _, input := range malformed {
			tree := build(t, withFidelity(mode), input)

			var stack []*htmlclean.Element
			for _, n := range tree.Flatten() {
				switch n := n.(type) {
				case *htmlclean.Tag:
					if !n.Element.Empty {
						stack = append(stack, n.Element)
					}
				case *htmlclean.EndTag:
					if len(stack) == 0 || !stack[len(stack)-1].SameAs(n.Element) {
						t.Fatalf("%s %q: unbalanced </%s>", mode, input, n.Name())
					}
					stack = stack[:len(stack)-1]
				}
			}
			if len(stack) != 0 {
				t.Errorf("%s %q: %d elements left open", mode, input, len(stack))
			}

			tree.Walk(func(i int, n htmlclean.Node, _ int) bool {
				leaf := false
				switch n := n.(type) {
				case *htmlclean.Text:
					leaf = !n.IsWhitespace()
				case *htmlclean.CData:
					leaf = strings.TrimSpace(n.Content) != ""
				case *htmlclean.Tag:
					leaf = n.Element.Structural == htmlclean.StructuralNone && n.Name() != "form"
				}
				if leaf && leaksFromTable(tree, i) {
					t.Errorf("%s %q: node %d escaped its table cell", mode, input, i)
				}
				return true
			})
		}
	}
}

func TestTree_Accessors(t *testing.T) {
	tree := build(t, nil, `<p>a<b>c</b></p>`)
	if tree.Len() != 4 {
		t.Fatalf("Len = %d", tree.Len())
	}
	root := tree.Root()
	if tree.Parent(root) != -1 || tree.Node(root) != nil {
		t.Error("root should have no parent and no node")
	}
	if diff := cmp.Diff([]int{1}, tree.Children(root)); diff != "" {
		t.Errorf("root children (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 3}, tree.Children(1)); diff != "" {
		t.Errorf("p children (-want +got):\n%s", diff)
	}
	if tree.Parent(4) != 3 {
		t.Errorf("Parent(4) = %d", tree.Parent(4))
	}
	if end := tree.End(1); end == nil || end.Name() != "p" {
		t.Errorf("End(1) = %v", end)
	}
	if tree.End(2) != nil {
		t.Error("text has no end tag")
	}

	var depths []int
	tree.Walk(func(_ int, _ htmlclean.Node, depth int) bool {
		depths = append(depths, depth)
		return true
	})
	if diff := cmp.Diff([]int{1, 2, 2, 3}, depths); diff != "" {
		t.Errorf("walk depths (-want +got):\n%s", diff)
	}

	var visited []int
	tree.Walk(func(i int, n htmlclean.Node, _ int) bool {
		visited = append(visited, i)
		tag, ok := n.(*htmlclean.Tag)
		return !ok || tag.Name() != "b"
	})
	if diff := cmp.Diff([]int{1, 2, 3}, visited); diff != "" {
		t.Errorf("pruned walk (-want +got):\n%s", diff)
	}

	if got := tree.Text(); got != "ac" {
		t.Errorf("Text = %q", got)
	}
	var buf bytes.Buffer
	if err := tree.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != tree.HTML() {
		t.Errorf("Render %q != HTML %q", buf.String(), tree.HTML())
	}
}

func TestTree_MaxDepthEscapesStrippedStyle(t *testing.T) {
	p := htmlclean.DefaultPolicy()
	p.MaxDepth = 1
	if got := build(t, p, `<div><style>a>b</style></div>`).HTML(); got != `<div>a&gt;b</div>` {
		t.Errorf("got %q", got)
	}
}

type countingVisitor struct{ tags, ends, texts, comments, cdata int }

func (v *countingVisitor) OnTag(*htmlclean.Tag)         { v.tags++ }
func (v *countingVisitor) OnEndTag(*htmlclean.EndTag)   { v.ends++ }
func (v *countingVisitor) OnText(*htmlclean.Text)       { v.texts++ }
func (v *countingVisitor) OnComment(*htmlclean.Comment) { v.comments++ }
func (v *countingVisitor) OnCData(*htmlclean.CData)     { v.cdata++ }

func TestWalk_Dispatch(t *testing.T) {
	nodes, _ := parse(t, withFidelity(htmlclean.PreserveAll), `<p>a<!-- c --><style>s</style></p>`)
	var v countingVisitor
	htmlclean.Walk(nodes, &v)
	want := countingVisitor{tags: 2, ends: 2, texts: 1, comments: 1, cdata: 1}
	if v != want {
		t.Errorf("got %+v want %+v", v, want)
	}
}

func TestTreeBuilder_UseAfterFinish(t *testing.T) {
	b, err := htmlclean.NewTreeBuilder(nil)
	if err != nil {
		t.Fatal(err)
	}
	nodes, _ := parse(t, nil, `<b>x`)
	htmlclean.Walk(nodes, b)
	if got := b.Finish().HTML(); got != `<b>x</b>` {
		t.Errorf("got %q", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected a panic when feeding a finished builder")
		}
	}()
	b.OnText(&htmlclean.Text{Content: "late"})
}
