package htmlclean

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

type scanState int

const (
	stateText scanState = iota
	stateTag
	stateComment
	stateCData
)

func (s scanState) String() string {
	switch s {
	case stateText:
		return "text"
	case stateTag:
		return "tag"
	case stateComment:
		return "comment"
	case stateCData:
		return "cdata"
	}
	return fmt.Sprintf("scanState(%d)", int(s))
}

// truncatedEntity matches a character reference cut off by the clip
// boundary.
var truncatedEntity = regexp.MustCompile(`&#?[0-9A-Za-z]{0,8}$`)

// Parser turns HTML text into a flat list of nodes. It accepts any
// input: malformed markup degrades to text or is dropped, never
// reported as an error.
//
// A Parser is not safe for concurrent use. Parse may be called again
// once the previous call returned.
type Parser struct {
	policy  Policy
	lookup  chain
	schemes map[string]bool
	log     *zap.Logger

	src     string
	cur     cursor
	state   scanState
	nodes   []Node
	clipped bool

	// cdataName is the element that switched the scanner to CDATA;
	// cdataKeep is false when that element was dropped.
	cdataName string
	cdataKeep bool

	unknownElems map[string]*Element
	unknownAttrs map[string]*Attribute
}

// NewParser returns a Parser configured from a snapshot of p. If p is
// nil, DefaultPolicy is used.
func NewParser(p *Policy) (*Parser, error) {
	if p == nil {
		p = DefaultPolicy()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	snap := p.snapshot()
	return &Parser{
		policy:       snap,
		lookup:       snap.whitelists,
		schemes:      sliceToSet(snap.AllowedSchemes),
		log:          snap.Logger.Named("parser"),
		unknownElems: make(map[string]*Element),
		unknownAttrs: make(map[string]*Attribute),
	}, nil
}

// Fidelity returns the fidelity mode the parser was built with.
func (p *Parser) Fidelity() Fidelity { return p.policy.Fidelity }

// Clipped reports whether the last Parse stopped at the clip length.
func (p *Parser) Clipped() bool { return p.clipped }

// Parse scans src and returns its nodes. No two adjacent nodes are
// *Text. clipped reports whether scanning stopped at the clip length.
func (p *Parser) Parse(src string) (nodes []Node, clipped bool) {
	p.src = src
	limit := clipOffset(src, p.policy.clipLength)
	p.cur = newCursor(src, limit)
	p.clipped = limit < len(src)
	p.state = stateText
	p.nodes = nil

	for !p.cur.eof() {
		before, state := p.cur.off, p.state
		p.step()
		if p.cur.off <= before && (state != stateText || p.cur.off != p.cur.limit) {
			panic(fmt.Sprintf("htmlclean: scanner made no progress in %s state at offset %d", state, before))
		}
	}
	if p.clipped {
		p.log.Debug("input clipped", zap.Int("limit", limit), zap.Int("length", len(src)))
	}

	p.nodes = coalesceText(p.nodes)
	return p.nodes, p.clipped
}

func (p *Parser) step() {
	switch p.state {
	case stateText:
		if !p.scanText() {
			// The text ended before it began: hand straight over to the
			// markup state found at this position.
			p.step()
		}
	case stateTag:
		p.scanTag()
	case stateComment:
		p.scanComment()
	case stateCData:
		p.scanCData()
	default:
		panic(fmt.Sprintf("htmlclean: unknown scanner state %d", int(p.state)))
	}
}

// scanText consumes text up to the next markup and reports whether any
// input was consumed.
func (p *Parser) scanText() bool {
	c := &p.cur
	start := c.off
	for !c.eof() {
		if c.peek() == '<' && p.markupAt(c.off+1) {
			if c.hasPrefix("<!--") {
				p.state = stateComment
			} else {
				p.state = stateTag
			}
			break
		}
		c.off++
	}

	end := c.off
	if end == c.limit && p.clipped {
		end = start + trimTruncated(p.src[start:end])
	}
	p.emitText(p.src[start:end])
	return c.off > start
}

// markupAt reports whether the byte at i can follow '<' to open markup.
func (p *Parser) markupAt(i int) bool {
	if i >= p.cur.limit {
		return false
	}
	switch b := p.src[i]; {
	case b == '/' || b == '!' || b == '?':
		return true
	case b < utf8.RuneSelf:
		return 'a' <= b|0x20 && b|0x20 <= 'z'
	}
	r, _ := utf8.DecodeRuneInString(p.src[i:p.cur.limit])
	return unicode.IsLetter(r)
}

// trimTruncated returns the length of text once a character reference
// or '<' cut off at its end is removed.
func trimTruncated(text string) int {
	if strings.HasSuffix(text, "<") {
		return len(text) - 1
	}
	if loc := truncatedEntity.FindStringIndex(text); loc != nil {
		return loc[0]
	}
	return len(text)
}

func (p *Parser) emitText(raw string) {
	if raw == "" {
		return
	}
	t := &Text{Content: html.UnescapeString(raw)}
	switch p.policy.Fidelity {
	case PreserveAll:
		t.Original, t.Preserved = raw, true
	case PreserveValid:
		t.Original, t.Preserved = strings.ReplaceAll(raw, "<", "&lt;"), true
	}
	p.nodes = append(p.nodes, t)
}

// scanComment consumes a comment: up to the first "-->", or failing
// that the first '>', or failing that the end of input.
func (p *Parser) scanComment() {
	p.state = stateText
	c := &p.cur
	start := c.off
	body := p.src[start+len("<!--") : c.limit]

	var end int
	switch {
	case strings.Contains(body, "-->"):
		end = start + len("<!--") + strings.Index(body, "-->") + len("-->")
	case strings.IndexByte(body, '>') >= 0:
		end = start + len("<!--") + strings.IndexByte(body, '>') + 1
	default:
		c.off = c.limit
		if p.clipped {
			return
		}
		end = c.limit
	}
	c.off = end
	if p.policy.Fidelity == PreserveAll {
		p.nodes = append(p.nodes, &Comment{Raw: p.src[start:end]})
	}
}

// scanCData consumes the raw body of a script or style element and then
// the end tag that closes it. A body cut off by the clip is discarded.
func (p *Parser) scanCData() {
	c := &p.cur
	start := c.off
	end := indexEndTag(p.src[start:c.limit], p.cdataName)
	keep := p.cdataKeep
	if end < 0 {
		end = c.limit - start
		p.state = stateText
		if p.clipped {
			p.log.Debug("dropped cdata cut by clip", zap.Int("offset", start))
			keep = false
		}
	} else {
		p.state = stateTag
	}
	c.off = start + end
	if end > 0 && keep {
		p.nodes = append(p.nodes, &CData{Content: p.src[start:c.off]})
	}
	if p.state == stateTag {
		p.scanTag()
	}
}

// indexEndTag returns the offset of the first "</name" in s, matched
// case-insensitively and followed by a name delimiter, or -1.
func indexEndTag(s, name string) int {
	for i := 0; i+2+len(name) <= len(s); i++ {
		if s[i] != '<' || s[i+1] != '/' || !strings.EqualFold(s[i+2:i+2+len(name)], name) {
			continue
		}
		j := i + 2 + len(name)
		if j == len(s) || isNameDelim(s[j]) {
			return i
		}
	}
	return -1
}

// lookupElement resolves name through the whitelist chain. Unknown names
// get a cached placeholder in PreserveAll and nil otherwise.
func (p *Parser) lookupElement(name string) *Element {
	if e, ok := p.lookup.element(name); ok {
		return e
	}
	if p.policy.Fidelity != PreserveAll {
		return nil
	}
	e, ok := p.unknownElems[name]
	if !ok {
		e = &Element{Name: name, unknown: true}
		p.unknownElems[name] = e
	}
	return e
}

func (p *Parser) lookupAttribute(name string) *Attribute {
	if a, ok := p.lookup.attribute(name); ok {
		return a
	}
	if p.policy.Fidelity != PreserveAll {
		return nil
	}
	a, ok := p.unknownAttrs[name]
	if !ok {
		a = &Attribute{Name: name, unknown: true}
		p.unknownAttrs[name] = a
	}
	return a
}

// coalesceText merges every run of adjacent *Text nodes into its first
// node. The merged node keeps an original only if every part had one.
func coalesceText(nodes []Node) []Node {
	out := nodes[:0]
	for _, n := range nodes {
		t, ok := n.(*Text)
		if ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(*Text); ok {
				prev.Content += t.Content
				if prev.Preserved && t.Preserved {
					prev.Original += t.Original
				} else {
					prev.Original, prev.Preserved = "", false
				}
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// clipOffset returns the byte offset just past the first n characters
// of src, or len(src) when n is zero or src is shorter.
func clipOffset(src string, n int) int {
	if n <= 0 || n >= len(src) {
		return len(src)
	}
	i := 0
	for off := range src {
		if i == n {
			return off
		}
		i++
	}
	return len(src)
}
