package htmlclean_test

import (
	"testing"

	"github.com/njchilds90/htmlclean"
)

// describe renders nodes as short strings for cmp.Diff.
func describe(nodes []htmlclean.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		switch n := n.(type) {
		case *htmlclean.Tag:
			if n.SelfTerminating {
				out = append(out, "<"+n.Name()+"/>")
			} else {
				out = append(out, "<"+n.Name()+">")
			}
		case *htmlclean.EndTag:
			out = append(out, "</"+n.Name()+">")
		case *htmlclean.Text:
			out = append(out, "text:"+n.Content)
		case *htmlclean.Comment:
			out = append(out, "comment:"+n.Raw)
		case *htmlclean.CData:
			out = append(out, "cdata:"+n.Content)
		}
	}
	return out
}

func withFidelity(f htmlclean.Fidelity) *htmlclean.Policy {
	p := htmlclean.DefaultPolicy()
	p.Fidelity = f
	return p
}

func parse(t *testing.T, p *htmlclean.Policy, src string) ([]htmlclean.Node, bool) {
	t.Helper()
	parser, err := htmlclean.NewParser(p)
	if err != nil {
		t.Fatal(err)
	}
	return parser.Parse(src)
}

func build(t *testing.T, p *htmlclean.Policy, src string) *htmlclean.Tree {
	t.Helper()
	tree, _, err := htmlclean.Build(src, p)
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

// malformed is a corpus of broken markup shared by the property tests.
var malformed = []string{
	``,
	`<`,
	`</`,
	`<<<>>>`,
	`<p>Hi<b>there`,
	`</b></b></p>text`,
	`<a href="unterminated`,
	`<a href='x' <b>bold</b>`,
	`<div class=x/>after`,
	`</b <i>italic</i>`,
	`<!-- open comment`,
	`<!-->x<!--->y`,
	`<!DOCTYPE html><html><body>x</body></html>`,
	`<?xml version="1.0"?><p>x</p>`,
	`<script>alert("<b>")</script>tail`,
	`<style>p{}</STYLE >`,
	`<scr<script>ipt>alert(1)</script>`,
	`<table><tr>stray<td>cell</table>`,
	`<table><table><tr><td>x</table>y</table>`,
	`<td>a</td>b<tr>c<th>d`,
	`<table><caption>c<table>x</table>y</caption>z</table>`,
	`<table><form><tr><td>x</td></tr></form>y</table>`,
	`<table><td><tr></tr><b>x</b></table>`,
	`<table><colgroup>x<col>y</table>`,
	`<table><td><p>a<table><p>b</table>c</td>d</table>`,
	`<table><td>a</table><td>b<li>c<li>d`,
	`<ul><li>1<li>2<ol><li>a</ul>3`,
	`<p>a<p>b<div><p>c</div>`,
	`<dl><dt>t<dd>d<dt>u</dl>`,
	`<span/><hr/><table/><td/>text`,
	`<b><i>x</b>y</i>`,
	`&amp&lt;&#60;&#x3c;&bogus;&`,
	`<a href="jav&#x09;ascript:alert(1)">x</a>`,
	`<img src=x onerror=alert(1)>`,
	`<a title=a"b href=/x>y</a>`,
	"<p>café über</p>",
	`<a / / junk =>x</a>`,
	`<=>`,
	`</ >x</>`,
}
