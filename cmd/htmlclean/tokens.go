package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/njchilds90/htmlclean"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [flags] [file]",
	Short: "Dump the flat node list the parser produces",
	Long:  `Tokens parses a file, or stdin, and prints its nodes before tree building`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTokens,
}

func init() {
	tokensCmd.Flags().String("format", "pretty", "output format (pretty|json|msgpack)")
	tokensCmd.Flags().Int("width", 60, "maximum display width of text previews in pretty output")
}

// nodeOutput is the serialized form of one parsed node.
type nodeOutput struct {
	Kind            string       `json:"kind" msgpack:"kind"`
	Name            string       `json:"name,omitempty" msgpack:"name,omitempty"`
	Text            string       `json:"text,omitempty" msgpack:"text,omitempty"`
	Original        string       `json:"original,omitempty" msgpack:"original,omitempty"`
	Attrs           []attrOutput `json:"attrs,omitempty" msgpack:"attrs,omitempty"`
	SelfTerminating bool         `json:"self_terminating,omitempty" msgpack:"self_terminating,omitempty"`
	Unknown         bool         `json:"unknown,omitempty" msgpack:"unknown,omitempty"`
}

type attrOutput struct {
	Name     string `json:"name" msgpack:"name"`
	Kind     string `json:"kind" msgpack:"kind"`
	Value    string `json:"value,omitempty" msgpack:"value,omitempty"`
	HasValue bool   `json:"has_value" msgpack:"has_value"`
}

func runTokens(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return fmt.Errorf("failed to get width flag: %w", err)
	}
	p, err := policyFromFlags(cmd)
	if err != nil {
		return err
	}

	name, src := "<stdin>", []byte(nil)
	if len(args) == 1 {
		name = args[0]
		src, err = os.ReadFile(name)
	} else {
		src, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	parser, err := htmlclean.NewParser(p)
	if err != nil {
		return err
	}
	nodes, clipped := parser.Parse(string(src))
	if clipped {
		logger.Warn("input clipped", zap.String("input", name), zap.Int("clip", p.ClipLength()))
	}

	out := toOutput(nodes)
	w := cmd.OutOrStdout()
	switch format {
	case "pretty":
		f, _ := w.(*os.File)
		return formatNodesPretty(w, out, width, f != nil && useColor(cmd, f))
	case "json":
		return formatNodesJSON(w, out)
	case "msgpack":
		return formatNodesMsgpack(w, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func toOutput(nodes []htmlclean.Node) []nodeOutput {
	out := make([]nodeOutput, 0, len(nodes))
	for _, n := range nodes {
		var o nodeOutput
		switch n := n.(type) {
		case *htmlclean.Text:
			o = nodeOutput{Kind: "text", Text: n.Content}
			if n.Preserved {
				o.Original = n.Original
			}
		case *htmlclean.Tag:
			o = nodeOutput{
				Kind:            "tag",
				Name:            n.Name(),
				SelfTerminating: n.SelfTerminating,
				Unknown:         n.Element.Unknown(),
			}
			if n.Preserved {
				o.Original = n.HTML()
			}
			for _, a := range n.Attributes {
				o.Attrs = append(o.Attrs, attrOutput{
					Name:     a.Attr.Name,
					Kind:     a.Attr.Kind.String(),
					Value:    a.Value,
					HasValue: a.HasValue,
				})
			}
		case *htmlclean.EndTag:
			o = nodeOutput{Kind: "end", Name: n.Name(), Unknown: n.Element.Unknown()}
			if n.Preserved {
				o.Original = n.Original
			}
		case *htmlclean.Comment:
			o = nodeOutput{Kind: "comment", Original: n.Raw}
		case *htmlclean.CData:
			o = nodeOutput{Kind: "cdata", Text: n.Content}
		default:
			panic(fmt.Sprintf("htmlclean: unexpected node type %T", n))
		}
		out = append(out, o)
	}
	return out
}

var (
	kindColor    = color.New(color.FgCyan)
	nameColor    = color.New(color.FgYellow, color.Bold)
	unknownColor = color.New(color.FgRed)
	attrColor    = color.New(color.FgGreen)
)

// formatNodesPretty prints one node per line with text previews cut to
// width display columns.
func formatNodesPretty(w io.Writer, nodes []nodeOutput, width int, colored bool) error {
	paint := func(c *color.Color, s string) string {
		if !colored {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}

	for i, n := range nodes {
		line := fmt.Sprintf("%3d: %s", i+1, paint(kindColor, fmt.Sprintf("%-8s", n.Kind)))
		if n.Name != "" {
			c := nameColor
			if n.Unknown {
				c = unknownColor
			}
			line += " " + paint(c, n.Name)
		}
		for _, a := range n.Attrs {
			attr := a.Name
			if a.HasValue {
				attr += "=" + fmt.Sprintf("%q", truncate(a.Value, width))
			}
			line += " " + paint(attrColor, attr)
		}
		switch {
		case n.Text != "":
			line += fmt.Sprintf(" %q", truncate(n.Text, width))
		case n.Kind == "comment":
			line += fmt.Sprintf(" %q", truncate(n.Original, width))
		}
		if n.SelfTerminating {
			line += " (self-terminating)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// truncate shortens value to at most width display columns.
func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

func formatNodesJSON(w io.Writer, nodes []nodeOutput) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(nodes)
}

func formatNodesMsgpack(w io.Writer, nodes []nodeOutput) error {
	return msgpack.NewEncoder(w).Encode(nodes)
}
