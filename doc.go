// Package htmlclean provides a lenient, whitelist-driven HTML sanitizer
// and normalizer for untrusted markup such as email bodies.
//
// # Overview
//
// Sanitizing runs in two stages. A [Parser] scans the input into a flat
// list of [Node] values ([*Text], [*Tag], [*EndTag], [*Comment],
// [*CData]). A [TreeBuilder] consumes that list through the [Visitor]
// protocol and produces a balanced [Tree]: unbalanced tags are closed,
// orphan end tags are discarded and content that would leak out of a
// table cell is wrapped in synthesized <table>/<td> elements.
//
// Neither stage ever fails on input. Unterminated tags degrade to text,
// unknown elements and attributes are dropped, and character references
// cut off by the clip length are removed.
//
// # Fidelity
//
// A [Policy] selects one of three fidelity modes:
//   - [Normalize] re-serializes canonically and drops comments and
//     everything the whitelist does not recognize.
//   - [PreserveValid] keeps the original whitespace and quoting of
//     recognized markup but re-escapes names and '<' in values.
//   - [PreserveAll] reproduces the input, unsafe parts included. Its
//     output is exactly as trusted as its input.
//
// # Whitelists
//
// Element and attribute names are resolved through a chain of
// [Whitelist] sources, most recently added first, ending in
// [DefaultWhitelist] unless [Policy.SetWhitelist] replaced the chain.
// Sources can be built in code with [NewWhitelist] or loaded from TOML
// with [LoadWhitelist].
//
// # Thread Safety
//
// Sanitize, Build and StripTags are safe for concurrent use. A Parser or
// TreeBuilder must not be shared between goroutines; whitelists must not
// change once handed to a Policy.
//
// # Example
//
//	p := htmlclean.DefaultPolicy()
//	clean, err := htmlclean.Sanitize(userInput, p)
package htmlclean
