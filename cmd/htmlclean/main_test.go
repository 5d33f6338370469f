package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/pflag"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap/zapcore"

	"github.com/njchilds90/htmlclean"
)

// resetFlags puts every flag back at its default; cobra keeps flag values
// between Execute calls.
func resetFlags(t *testing.T) {
	t.Helper()
	for _, fs := range []*pflag.FlagSet{
		rootCmd.PersistentFlags(),
		normalizeCmd.Flags(),
		tokensCmd.Flags(),
	} {
		fs.VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				if err := sv.Replace(nil); err != nil {
					t.Fatal(err)
				}
			} else if err := f.Value.Set(f.DefValue); err != nil {
				t.Fatal(err)
			}
			f.Changed = false
		})
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNormalize_FilesKeepArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.html", "<p>a")
	b := writeFile(t, dir, "b.html", "<b>b<script>x</script>")

	for _, jobs := range []string{"1", "2", "0"} {
		got, err := execute(t, "", "normalize", "--jobs", jobs, a, b)
		if err != nil {
			t.Fatalf("jobs=%s: %v", jobs, err)
		}
		if want := "<p>a</p>\n<b>b</b>\n"; got != want {
			t.Errorf("jobs=%s: got %q, want %q", jobs, got, want)
		}
	}
}

func TestNormalize_Stdin(t *testing.T) {
	got, err := execute(t, `<b onclick="x()">Hello</b> <i>world`, "normalize")
	if err != nil {
		t.Fatal(err)
	}
	if want := "<b>Hello</b> <i>world</i>\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got, err = execute(t, `<b>Hello</b> <i>world`, "normalize", "--text")
	if err != nil {
		t.Fatal(err)
	}
	if want := "Hello world\n"; got != want {
		t.Errorf("--text: got %q, want %q", got, want)
	}
}

func TestNormalize_Clip(t *testing.T) {
	got, err := execute(t, "<b>hello</b>", "normalize", "--clip", "5")
	if err != nil {
		t.Fatal(err)
	}
	if want := "<b>he</b>\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_Whitelist(t *testing.T) {
	dir := t.TempDir()
	card := writeFile(t, dir, "card.toml", `
[[element]]
name = "x-card"
flow = "block"

[[attribute]]
name = "data-id"
`)

	got, err := execute(t, `<x-card data-id=7>hi</x-card>`, "normalize", "--whitelist", card)
	if err != nil {
		t.Fatal(err)
	}
	if want := "<x-card data-id=\"7\">hi</x-card>\n"; got != want {
		t.Errorf("added: got %q, want %q", got, want)
	}

	got, err = execute(t, `<p>a</p><x-card>b</x-card>`, "normalize", "--whitelist", card, "--replace-whitelist")
	if err != nil {
		t.Fatal(err)
	}
	if want := "a<x-card>b</x-card>\n"; got != want {
		t.Errorf("replaced: got %q, want %q", got, want)
	}
}

func TestNormalize_Errors(t *testing.T) {
	dir := t.TempDir()
	for name, args := range map[string][]string{
		"missing file":           {"normalize", filepath.Join(dir, "missing.html")},
		"bad mode":               {"normalize", "--mode", "loose"},
		"negative clip":          {"normalize", "--clip", "-1"},
		"replace without files":  {"normalize", "--replace-whitelist"},
		"missing whitelist":      {"normalize", "--whitelist", filepath.Join(dir, "missing.toml")},
		"tokens with two files":  {"tokens", "a", "b"},
		"tokens with bad format": {"tokens", "--format", "xml"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := execute(t, "<p>x", args...); err == nil {
				t.Errorf("%v: expected error", args)
			}
		})
	}
}

func TestTokens_JSON(t *testing.T) {
	got, err := execute(t, "<p class=x>a", "tokens", "--mode", "preserve-all", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"original": "<p class=x>"`, `"kind": "tag"`, `"text": "a"`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %s:\n%s", want, got)
		}
	}
}

func TestTokens_Pretty(t *testing.T) {
	got, err := execute(t, `<p class=x>héllo<!-- c --></p>`, "tokens", "--mode", "preserve-all")
	if err != nil {
		t.Fatal(err)
	}
	want := "  1: tag      p class=\"x\"\n" +
		"  2: text     \"héllo\"\n" +
		"  3: comment  \"<!-- c -->\"\n" +
		"  4: end      p\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pretty output mismatch (-want +got):\n%s", diff)
	}
}

func TestToOutput(t *testing.T) {
	parser, err := htmlclean.NewParser(htmlclean.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	nodes, _ := parser.Parse(`<p class=x>a</p><br/><script>s</script>`)

	want := []nodeOutput{
		{Kind: "tag", Name: "p", Attrs: []attrOutput{{Name: "class", Kind: "none", Value: "x", HasValue: true}}},
		{Kind: "text", Text: "a"},
		{Kind: "end", Name: "p"},
		{Kind: "tag", Name: "br", SelfTerminating: true},
	}
	if diff := cmp.Diff(want, toOutput(nodes)); diff != "" {
		t.Errorf("toOutput mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatNodesMsgpack(t *testing.T) {
	want := []nodeOutput{
		{Kind: "tag", Name: "a", Attrs: []attrOutput{{Name: "href", Kind: "uri", Value: "/x", HasValue: true}}},
		{Kind: "text", Text: "link"},
		{Kind: "end", Name: "a", Unknown: true},
	}
	var buf bytes.Buffer
	if err := formatNodesMsgpack(&buf, want); err != nil {
		t.Fatal(err)
	}
	var got []nodeOutput
	if err := msgpack.NewDecoder(&buf).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("msgpack mismatch (-want +got):\n%s", diff)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		value string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"abcdef", 0, "abcdef"},
		{"abcdef", 2, "ab"},
		{"abcdefghij", 6, "abc..."},
		{"日本語テキスト", 8, "日本..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.value, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.value, tt.width, got, tt.want)
		}
	}
}

func TestLoggerConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		dev     string
		level   string
		want    loggerConfig
		wantErr bool
	}{
		{name: "defaults", want: loggerConfig{Level: zapcore.WarnLevel}},
		{name: "development", dev: "true", want: loggerConfig{Development: true, Level: zapcore.DebugLevel}},
		{name: "explicit level", dev: "true", level: "error", want: loggerConfig{Development: true, Level: zapcore.ErrorLevel}},
		{name: "bad level", level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HTMLCLEAN_DEVELOPMENT", tt.dev)
			t.Setenv("HTMLCLEAN_LOG_LEVEL", tt.level)

			got, err := loggerConfigFromEnv()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, dev := range []bool{false, true} {
		l, err := newLogger(loggerConfig{Development: dev, Level: zapcore.InfoLevel})
		if err != nil {
			t.Fatal(err)
		}
		if l.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("development=%v: debug enabled at info level", dev)
		}
	}
}
