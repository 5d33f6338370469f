package htmlclean

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Fidelity controls how much of the original markup text is retained.
type Fidelity int

const (
	// Normalize re-serializes canonically: comments, unknown tags and
	// attributes are dropped and every literal '<' in text is escaped.
	Normalize Fidelity = iota

	// PreserveValid keeps the original layout of recognized constructs
	// but re-escapes names, requotes risky unquoted values and escapes
	// '<' in text and attribute values.
	PreserveValid

	// PreserveAll keeps everything literally, including invalid and
	// unsafe markup. Use it only for content that is already trusted.
	PreserveAll
)

func (f Fidelity) String() string {
	switch f {
	case Normalize:
		return "normalize"
	case PreserveValid:
		return "preserve-valid"
	case PreserveAll:
		return "preserve-all"
	}
	return fmt.Sprintf("Fidelity(%d)", int(f))
}

// ParseFidelity maps a mode name as printed by Fidelity.String back to
// its value.
func ParseFidelity(s string) (Fidelity, error) {
	for _, f := range []Fidelity{Normalize, PreserveValid, PreserveAll} {
		if f.String() == s {
			return f, nil
		}
	}
	return Normalize, fmt.Errorf("%w: %q", ErrInvalidFidelity, s)
}

// Configuration errors. These report programmer mistakes and are
// returned at the call that introduced them.
var (
	ErrInvalidClipLength = errors.New("htmlclean: clip length must be positive")
	ErrNilWhitelist      = errors.New("htmlclean: nil whitelist")
	ErrInvalidFidelity   = errors.New("htmlclean: invalid fidelity")
)

// Transformer receives every start tag that survived the whitelist and
// may return a replacement. Returning nil removes the tag but keeps its
// content. Its end tag then closes the nearest enclosing element of the
// same name, or is discarded when none is open.
type Transformer func(t *Tag) *Tag

// Policy defines how HTML is parsed and what is considered safe. A
// Policy is copied by NewParser and NewTreeBuilder, so changing it
// afterwards does not affect parsers already built from it.
type Policy struct {
	// Fidelity selects Normalize, PreserveValid or PreserveAll output.
	Fidelity Fidelity

	// AllowedSchemes lists the URL schemes (e.g. "http", "https",
	// "mailto") permitted in URI attributes. Relative URLs are always
	// allowed. Ignored in PreserveAll.
	AllowedSchemes []string

	// Transformers are applied in order to every kept start tag before
	// tree building.
	Transformers []Transformer

	// Linkify converts plain-text URLs in normalized text into <a>
	// elements when the tree is rendered.
	Linkify bool

	// MaxDepth limits how deeply nested rendered elements may be.
	// Deeper elements are stripped and their children promoted. Zero
	// means unlimited.
	MaxDepth int

	// Logger receives debug events about dropped and synthesized
	// markup. Nil means no logging.
	Logger *zap.Logger

	clipLength int
	whitelists chain
	replaced   bool
}

// DefaultPolicy returns a Normalize policy over the built-in whitelist.
// Links and image sources must use http, https, or mailto.
func DefaultPolicy() *Policy {
	return &Policy{
		Fidelity:       Normalize,
		AllowedSchemes: []string{"http", "https", "mailto"},
	}
}

// StrictPolicy returns a Policy that allows only the most basic inline
// formatting tags with no attributes at all.
func StrictPolicy() *Policy {
	p := &Policy{
		Fidelity:       Normalize,
		AllowedSchemes: []string{"https"},
	}
	p.whitelists = chain{strictWhitelist}
	p.replaced = true
	return p
}

// SetClipLength bounds scanning to the first n characters of the input.
func (p *Policy) SetClipLength(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidClipLength, n)
	}
	p.clipLength = n
	return nil
}

// ClipLength returns the configured clip length, or 0 when unbounded.
func (p *Policy) ClipLength() int { return p.clipLength }

// AddWhitelist adds w with the highest precedence. The built-in
// whitelist stays the last fallback unless SetWhitelist was called.
func (p *Policy) AddWhitelist(w Whitelist) error {
	if w == nil {
		return ErrNilWhitelist
	}
	p.whitelists = append(p.whitelists[:len(p.whitelists):len(p.whitelists)], w)
	return nil
}

// SetWhitelist replaces the whole chain with w. The built-in whitelist
// is no longer consulted, except that table and cell wrappers opened
// around stray table content always use the built-in table and td,
// whether or not w recognizes them.
func (p *Policy) SetWhitelist(w Whitelist) error {
	if w == nil {
		return ErrNilWhitelist
	}
	p.whitelists = chain{w}
	p.replaced = true
	return nil
}

// Validate reports configuration values that cannot be used.
func (p *Policy) Validate() error {
	switch p.Fidelity {
	case Normalize, PreserveValid, PreserveAll:
	default:
		return fmt.Errorf("%w: %d", ErrInvalidFidelity, int(p.Fidelity))
	}
	if p.clipLength < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidClipLength, p.clipLength)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("htmlclean: max depth must not be negative: %d", p.MaxDepth)
	}
	return nil
}

// chain returns the lookup chain with the built-in fallback in place.
func (p *Policy) chain() chain {
	if p.replaced {
		return append(chain(nil), p.whitelists...)
	}
	c := make(chain, 0, len(p.whitelists)+1)
	c = append(c, builtin)
	return append(c, p.whitelists...)
}

func (p *Policy) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// snapshot copies p so later changes do not leak into a parser or
// builder already built from it.
func (p *Policy) snapshot() Policy {
	c := *p
	c.AllowedSchemes = append([]string(nil), p.AllowedSchemes...)
	c.Transformers = append([]Transformer(nil), p.Transformers...)
	c.whitelists = p.chain()
	c.replaced = true
	c.Logger = p.logger()
	return c
}
