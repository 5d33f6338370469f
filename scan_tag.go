package htmlclean

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// rawAttr is one attribute as it appears in the source. Offsets index
// Parser.src.
type rawAttr struct {
	lead       int // start of the whitespace before the name
	nameStart  int
	nameEnd    int
	hasValue   bool
	quote      byte
	valueStart int
	valueEnd   int
	end        int
}

// scanTag consumes a start or end tag beginning at '<'.
func (p *Parser) scanTag() {
	p.state = stateText
	c := &p.cur
	start := c.off
	c.bump()
	isEnd := c.eat('/')

	nameStart := c.off
	p.scanName()
	nameEnd := c.off
	name := p.src[nameStart:nameEnd]
	if name == "" && !isEnd {
		p.emitText("<")
		return
	}

	var elem *Element
	if name != "" {
		elem = p.lookupElement(strings.ToLower(name))
	}

	var (
		attrs    []TagAttribute
		selfTerm bool
		tagEnd   = -1
		prev     = nameEnd
	)
scan:
	for {
		c.skipSpace()
		if c.eof() {
			break
		}
		switch b := c.peek(); {
		case b == '>':
			c.bump()
			tagEnd = c.off
			break scan
		case b == '/' && c.peekAt(1) == '>':
			c.off += 2
			selfTerm = true
			tagEnd = c.off
			break scan
		case b == '<' && isEnd:
			// Browsers end a malformed end tag where the next one starts.
			tagEnd = c.off
			break scan
		}
		a, ok := p.scanAttribute(prev)
		if !ok {
			// Junk stays in the next span only when everything is kept.
			if p.policy.Fidelity != PreserveAll {
				prev = c.off
			}
			continue
		}
		if elem != nil && !isEnd {
			if ta, keep := p.makeAttribute(a); keep {
				attrs = append(attrs, ta)
			}
		}
		prev = c.off
	}

	if tagEnd < 0 {
		if p.clipped {
			p.log.Debug("dropped tag cut by clip", zap.Int("offset", start))
			return
		}
		p.emitText(p.src[start:c.limit])
		return
	}

	lname := strings.ToLower(name)
	if !isEnd && !selfTerm && (lname == "script" || lname == "style") {
		p.state = stateCData
		p.cdataName = lname
		p.cdataKeep = elem != nil
	}

	if elem == nil {
		switch {
		case name != "":
			p.log.Debug("dropped element", zap.String("name", lname), zap.Int("offset", start))
		case p.policy.Fidelity == PreserveAll:
			p.emitText(p.src[start:tagEnd])
		}
		return
	}

	if isEnd {
		p.nodes = append(p.nodes, p.makeEndTag(elem, name, start, nameEnd, tagEnd))
		return
	}
	t := &Tag{Element: elem, Attributes: attrs, SelfTerminating: selfTerm}
	switch p.policy.Fidelity {
	case PreserveAll:
		t.BeforeAttrs = p.src[start:nameEnd]
		t.AfterAttrs = p.src[prev:tagEnd]
		t.Preserved = true
	case PreserveValid:
		t.BeforeAttrs = "<" + html.EscapeString(name)
		t.AfterAttrs = p.src[prev:tagEnd]
		t.Preserved = true
	}
	p.nodes = append(p.nodes, t)
}

func (p *Parser) makeEndTag(elem *Element, name string, start, nameEnd, tagEnd int) *EndTag {
	t := &EndTag{Element: elem}
	switch p.policy.Fidelity {
	case PreserveAll:
		t.Original, t.Preserved = p.src[start:tagEnd], true
	case PreserveValid:
		tail := p.src[nameEnd:tagEnd]
		if strings.TrimLeft(tail, " \t\n\r\f") != ">" {
			tail = ">"
		}
		t.Original, t.Preserved = "</"+html.EscapeString(name)+tail, true
	}
	return t
}

// scanName consumes a tag or attribute name: everything up to '>', '/',
// '=' or whitespace.
func (p *Parser) scanName() {
	c := &p.cur
	for !c.eof() && !isNameDelim(c.peek()) {
		c.off++
	}
}

func isNameDelim(b byte) bool {
	return b == '>' || b == '/' || b == '=' || isSpace(b)
}

// scanAttribute consumes one attribute. lead is where the whitespace
// before it started. A position that cannot start a name is consumed as
// a single junk byte and reported with ok false.
func (p *Parser) scanAttribute(lead int) (a rawAttr, ok bool) {
	c := &p.cur
	a.lead = lead
	a.nameStart = c.off
	p.scanName()
	a.nameEnd = c.off
	if a.nameEnd == a.nameStart {
		c.bump()
		return a, false
	}

	a.end = c.off
	c.skipSpace()
	if !c.eat('=') {
		c.off = a.end
		return a, true
	}
	c.skipSpace()
	a.hasValue = true
	switch q := c.peek(); q {
	case '"', '\'':
		c.bump()
		a.quote = q
		a.valueStart = c.off
		for !c.eof() && c.peek() != q {
			c.off++
		}
		a.valueEnd = c.off
		c.eat(q)
	default:
		a.valueStart = c.off
		for !c.eof() && c.peek() != '>' && !isSpace(c.peek()) {
			c.off++
		}
		a.valueEnd = c.off
	}
	a.end = c.off
	return a, true
}

// makeAttribute resolves a scanned attribute and reports whether it is
// kept.
func (p *Parser) makeAttribute(a rawAttr) (TagAttribute, bool) {
	name := p.src[a.nameStart:a.nameEnd]
	lname := strings.ToLower(name)
	attr := p.lookupAttribute(lname)
	if attr == nil {
		p.log.Debug("dropped attribute", zap.String("name", lname), zap.Int("offset", a.nameStart))
		return TagAttribute{}, false
	}

	raw := p.src[a.valueStart:a.valueEnd]
	ta := TagAttribute{Attr: attr, HasValue: a.hasValue}
	if a.hasValue {
		ta.Value = html.UnescapeString(raw)
	}
	if p.policy.Fidelity != PreserveAll && !p.valueAllowed(attr, ta.Value, a.hasValue) {
		p.log.Debug("dropped attribute value",
			zap.String("name", lname), zap.Stringer("kind", attr.Kind), zap.Int("offset", a.nameStart))
		return TagAttribute{}, false
	}

	switch p.policy.Fidelity {
	case PreserveAll:
		ta.Original, ta.Preserved = p.src[a.lead:a.end], true
	case PreserveValid:
		ta.Original, ta.Preserved = p.preservedAttr(a, name, raw, ta.Value), true
	}
	return ta, true
}

// preservedAttr rebuilds the original attribute text with its name
// escaped, '<' in quoted values escaped and risky unquoted values
// requoted.
func (p *Parser) preservedAttr(a rawAttr, name, raw, value string) string {
	var sb strings.Builder
	sb.WriteString(p.src[a.lead:a.nameStart])
	sb.WriteString(html.EscapeString(name))
	if !a.hasValue {
		return sb.String()
	}
	valueStart := a.valueStart
	if a.quote != 0 {
		valueStart--
	}
	sb.WriteString(p.src[a.nameEnd:valueStart])
	switch {
	case a.quote != 0:
		sb.WriteByte(a.quote)
		sb.WriteString(strings.ReplaceAll(raw, "<", "&lt;"))
		sb.WriteByte(a.quote)
	case strings.ContainsAny(raw, "\"'&<>= \t\n\r\f"):
		sb.WriteByte('"')
		sb.WriteString(html.EscapeString(value))
		sb.WriteByte('"')
	default:
		sb.WriteString(raw)
	}
	return sb.String()
}

// valueAllowed applies the value checks of the attribute's kind.
func (p *Parser) valueAllowed(attr *Attribute, value string, hasValue bool) bool {
	switch attr.Kind {
	case ValueScript:
		return false
	case ValueURI:
		return !hasValue || schemeAllowed(value, p.schemes)
	case ValueEnum:
		return hasValue && attr.allows(value)
	}
	return true
}
