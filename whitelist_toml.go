package htmlclean

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// whitelistFile is the TOML layout accepted by LoadWhitelist:
//
//	[[element]]
//	name = "marquee"
//	flow = "block"
//
//	[[attribute]]
//	name = "align"
//	kind = "enum"
//	values = ["left", "right"]
type whitelistFile struct {
	Elements   []elementEntry   `toml:"element"`
	Attributes []attributeEntry `toml:"attribute"`
}

type elementEntry struct {
	Name           string `toml:"name"`
	Empty          bool   `toml:"empty"`
	OptionalEndTag bool   `toml:"optional_end_tag"`
	BreaksFlow     bool   `toml:"breaks_flow"`
	Flow           string `toml:"flow"`
	Structural     string `toml:"structural"`
}

type attributeEntry struct {
	Name   string   `toml:"name"`
	Kind   string   `toml:"kind"`
	Values []string `toml:"values"`
}

// LoadWhitelist decodes a TOML whitelist source from r.
func LoadWhitelist(r io.Reader) (Whitelist, error) {
	var f whitelistFile
	meta, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("decode whitelist: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode whitelist: unknown key %q", undecoded[0].String())
	}
	return f.build()
}

// LoadWhitelistFile decodes the TOML whitelist source at path.
func LoadWhitelistFile(path string) (Whitelist, error) {
	var f whitelistFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("decode whitelist %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode whitelist %s: unknown key %q", path, undecoded[0].String())
	}
	w, err := f.build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

func (f *whitelistFile) build() (Whitelist, error) {
	elements := make([]Element, 0, len(f.Elements))
	for i, e := range f.Elements {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("element #%d: %w", i+1, errMissingName)
		}
		flow, err := parseFlow(e.Flow)
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", e.Name, err)
		}
		st, err := parseStructural(e.Structural)
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", e.Name, err)
		}
		if e.Empty && st == StructuralTable && isTableContainer(e.Name) {
			return nil, fmt.Errorf("element %q: %w", e.Name, errEmptyContainer)
		}
		elements = append(elements, Element{
			Name:           e.Name,
			Empty:          e.Empty,
			OptionalEndTag: e.OptionalEndTag,
			BreaksFlow:     e.BreaksFlow,
			Flow:           flow,
			Structural:     st,
		})
	}

	attributes := make([]Attribute, 0, len(f.Attributes))
	for i, a := range f.Attributes {
		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("attribute #%d: %w", i+1, errMissingName)
		}
		kind, err := parseValueKind(a.Kind)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		if kind != ValueEnum && len(a.Values) > 0 {
			return nil, fmt.Errorf("attribute %q: values given for kind %s", a.Name, kind)
		}
		attributes = append(attributes, Attribute{Name: a.Name, Kind: kind, Values: a.Values})
	}
	return NewWhitelist(elements, attributes), nil
}

var (
	errMissingName    = errors.New("missing name")
	errEmptyContainer = errors.New("table container elements cannot be empty")
)

// isTableContainer reports whether name holds table content and so
// needs an end tag.
func isTableContainer(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "table", "td", "th", "tr", "caption":
		return true
	}
	return false
}

func parseFlow(s string) (FlowKind, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return FlowNone, nil
	case "inline":
		return FlowInline, nil
	case "block":
		return FlowBlock, nil
	}
	return FlowNone, fmt.Errorf("unknown flow %q", s)
}

func parseStructural(s string) (StructuralType, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return StructuralNone, nil
	case "table":
		return StructuralTable, nil
	}
	return StructuralNone, fmt.Errorf("unknown structural type %q", s)
}

func parseValueKind(s string) (ValueKind, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return ValueNone, nil
	case "uri":
		return ValueURI, nil
	case "script":
		return ValueScript, nil
	case "enum":
		return ValueEnum, nil
	case "boolean", "bool":
		return ValueBoolean, nil
	}
	return ValueNone, fmt.Errorf("unknown value kind %q", s)
}
