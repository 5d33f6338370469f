package htmlclean

import "fmt"

type cellState int

const (
	cellNone cellState = iota
	inCell
	inCaption
)

func (s cellState) String() string {
	switch s {
	case cellNone:
		return "none"
	case inCell:
		return "cell"
	case inCaption:
		return "caption"
	}
	return fmt.Sprintf("cellState(%d)", int(s))
}

// opener is the part of the tree builder the table fixer drives: it
// opens a synthesized element exactly as if it had been parsed.
type opener interface {
	openSynthetic(e *Element)
}

// tableFixer keeps the direct non-structural content of a table inside
// a cell. It only ever opens wrappers; they are closed by the builder's
// ordinary end tag matching.
type tableFixer struct {
	// tables is the nesting depth of open tables.
	tables int
	// state describes the innermost open table.
	state cellState
}

func (f *tableFixer) seeTag(b opener, e *Element) {
	switch {
	case e.IsTable():
		if f.tables > 0 {
			f.ensureCell(b)
		}
		f.tables++
		f.state = cellNone
	case e.Structural == StructuralTable:
		if f.tables == 0 {
			b.openSynthetic(tableElement)
			f.tables = 1
			f.state = cellNone
		}
		switch e.Name {
		case "td", "th":
			f.state = inCell
		case "caption":
			f.state = inCaption
		}
	case f.tables > 0:
		// Forms may straddle table structure.
		if e.Name == "form" {
			return
		}
		f.ensureCell(b)
	}
}

func (f *tableFixer) seeText(b opener, nonSpace bool) {
	if nonSpace && f.tables > 0 {
		f.ensureCell(b)
	}
}

func (f *tableFixer) seeEndTag(e *Element) {
	if e.Structural != StructuralTable {
		return
	}
	switch {
	case e.IsTable():
		f.tables--
		if f.tables > 0 {
			f.state = inCell
		} else {
			f.state = cellNone
		}
	case e.Name == "td" || e.Name == "th" || e.Name == "tr" || e.Name == "caption":
		f.state = cellNone
	}
}

// ensureCell opens a cell unless content is already inside a cell or a
// caption.
func (f *tableFixer) ensureCell(b opener) {
	if f.state == cellNone {
		b.openSynthetic(cellElement)
		f.state = inCell
	}
}

func (f *tableFixer) balanced() bool {
	return f.tables == 0 && f.state == cellNone
}
