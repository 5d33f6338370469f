package htmlclean

import (
	"fmt"
	"io"
)

// Sanitize parses htmlStr, applies p, and returns the balanced HTML.
// If p is nil, DefaultPolicy is used. The only errors come from an
// invalid Policy; malformed input is never an error.
func Sanitize(htmlStr string, p *Policy) (string, error) {
	tree, _, err := Build(htmlStr, p)
	if err != nil {
		return "", err
	}
	return tree.HTML(), nil
}

// SanitizeReader reads HTML from r, applies p, and returns the
// sanitized HTML string.
func SanitizeReader(r io.Reader, p *Policy) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return Sanitize(string(b), p)
}

// Build parses htmlStr under p and returns the balanced tree and whether
// the input was clipped.
func Build(htmlStr string, p *Policy) (*Tree, bool, error) {
	parser, err := NewParser(p)
	if err != nil {
		return nil, false, err
	}
	builder, err := NewTreeBuilder(p)
	if err != nil {
		return nil, false, err
	}
	nodes, clipped := parser.Parse(htmlStr)
	Walk(nodes, builder)
	return builder.Finish(), clipped, nil
}

// StripTags removes all markup and returns plain text. Entity
// references are decoded.
func StripTags(htmlStr string) (string, error) {
	tree, _, err := Build(htmlStr, DefaultPolicy())
	if err != nil {
		return "", err
	}
	return tree.Text(), nil
}
