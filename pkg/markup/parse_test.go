package markup

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return root
}

func TestParseListScenario(t *testing.T) {
	src := `<ul><li>first</li><li>second</li></ul>`
	root := mustParse(t, src)

	if !root.IsFragment() {
		t.Fatal("root should be a fragment")
	}
	if len(root.Children) != 1 {
		t.Fatalf("root children = %d, want 1", len(root.Children))
	}
	ul := root.Children[0]
	if ul.Kind != KindElement || ul.Tag != "UL" {
		t.Fatalf("child = %v %q, want Element UL", ul.Kind, ul.Tag)
	}
	if len(ul.Children) != 2 {
		t.Fatalf("UL children = %d, want 2", len(ul.Children))
	}
	for i, want := range []string{"first", "second"} {
		li := ul.Children[i]
		if li.Tag != "LI" {
			t.Errorf("child %d Tag = %q, want LI", i, li.Tag)
		}
		if len(li.Children) != 1 || li.Children[0].Kind != KindText {
			t.Fatalf("LI %d should have exactly one text child", i)
		}
		if li.Children[0].Content != want {
			t.Errorf("LI %d text = %q, want %q", i, li.Children[0].Content, want)
		}
	}

	if got := RenderString(root); got != src {
		t.Errorf("RenderString = %q, want %q", got, src)
	}
}

func TestParseVoidElement(t *testing.T) {
	root := mustParse(t, `<img src="x">after`)
	if len(root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(root.Children))
	}
	img := root.Children[0]
	if !img.Void {
		t.Error("IMG should be void")
	}
	if len(img.Children) != 0 {
		t.Errorf("IMG children = %d, want 0", len(img.Children))
	}
	if root.Children[1].Content != "after" {
		t.Errorf("sibling text = %q, want after", root.Children[1].Content)
	}
	if got := RenderString(root); got != `<img src="x">after` {
		t.Errorf("RenderString = %q", got)
	}
}

func TestParseAutoClose(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string // top-level tags
	}{
		{"paragraphs", `<p>A<p>B`, []string{"P", "P"}},
		{"block closes inline", `<span>a<div>b</div>`, []string{"SPAN", "DIV"}},
		{"self closing syntax", `<div/><span></span>`, []string{"DIV", "SPAN"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.src)
			if len(root.Children) != len(tt.want) {
				t.Fatalf("top-level = %d, want %d", len(root.Children), len(tt.want))
			}
			for i, tag := range tt.want {
				if root.Children[i].Tag != tag {
					t.Errorf("child %d = %q, want %q", i, root.Children[i].Tag, tag)
				}
			}
		})
	}
}

func TestParseParagraphSiblingsKeepText(t *testing.T) {
	root := mustParse(t, `<p>A<p>B`)
	for i, want := range []string{"A", "B"} {
		p := root.Children[i]
		if len(p.Children) != 1 || p.Children[0].Content != want {
			t.Errorf("P %d content = %q, want %q", i, p.RawText(), want)
		}
	}
}

func TestParseListItemsImplicitClose(t *testing.T) {
	root := mustParse(t, `<ul><li>a<li>b</ul>`)
	ul := root.Children[0]
	if len(ul.Children) != 2 {
		t.Fatalf("UL children = %d, want 2", len(ul.Children))
	}
	if ul.Children[1].RawText() != "b" {
		t.Errorf("second LI = %q, want b", ul.Children[1].RawText())
	}
}

func TestParseClosingTags(t *testing.T) {
	t.Run("nearest match closes interior", func(t *testing.T) {
		root := mustParse(t, `<div><span><b>x</span>y</div>`)
		div := root.Children[0]
		if len(div.Children) != 2 {
			t.Fatalf("DIV children = %d, want 2", len(div.Children))
		}
		if div.Children[0].Tag != "SPAN" || div.Children[1].Content != "y" {
			t.Errorf("DIV children = %q, %q", div.Children[0].Tag, div.Children[1].Content)
		}
	})

	t.Run("unmatched closes everything", func(t *testing.T) {
		root := mustParse(t, `<div><span>a</b>c</div>`)
		if len(root.Children) != 2 {
			t.Fatalf("root children = %d, want 2", len(root.Children))
		}
		if root.Children[1].Kind != KindText || root.Children[1].Content != "c" {
			t.Errorf("second child = %v %q, want text c", root.Children[1].Kind, root.Children[1].Content)
		}
	})

	t.Run("nameless close", func(t *testing.T) {
		root := mustParse(t, `<div>a</>b`)
		if len(root.Children) != 2 {
			t.Fatalf("root children = %d, want 2", len(root.Children))
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		root := mustParse(t, `<DIV>x</div>`)
		if len(root.Children) != 1 || root.Children[0].Tag != "DIV" {
			t.Fatalf("unexpected tree %q", RenderString(root))
		}
	})
}

func TestParseAttributes(t *testing.T) {
	root := mustParse(t, `<input type=text disabled value='a b' data-x="" type="dup"><div hidden></div>`)
	input := root.Children[0]

	want := []Attr{
		{"type", "text"},
		{"disabled", "disabled"},
		{"value", "a b"},
		{"data-x", ""},
	}
	if len(input.Attrs) != len(want) {
		t.Fatalf("attrs = %v, want %v", input.Attrs, want)
	}
	for i, a := range want {
		if input.Attrs[i] != a {
			t.Errorf("attr %d = %v, want %v", i, input.Attrs[i], a)
		}
	}

	hidden, ok := root.Children[1].Attr("HIDDEN")
	if !ok || hidden != "" {
		t.Errorf("hidden = %q, %v; want empty, true", hidden, ok)
	}
}

func TestParseRawText(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"script keeps markup", `<script>if (a < b) { x = "<div>" }</script>`, `if (a < b) { x = "<div>" }`},
		{"comment markers stripped", `<style><!-- p { color: red } --></style>`, ` p { color: red } `},
		{"cdata markers stripped", `<script><![CDATA[x < 1]]></script>`, `x < 1`},
		{"uppercase closing", `<SCRIPT>a</SCRIPT>`, `a`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.src)
			el := root.Children[0]
			if len(el.Children) != 1 {
				t.Fatalf("children = %d, want 1", len(el.Children))
			}
			if got := el.RawText(); got != tt.want {
				t.Errorf("RawText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseComment(t *testing.T) {
	root := mustParse(t, `a<!-- hi -->b`)
	if len(root.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(root.Children))
	}
	c := root.Children[1]
	if c.Kind != KindComment || c.Content != " hi " {
		t.Errorf("comment = %v %q", c.Kind, c.Content)
	}
	if got := RenderString(root); got != `a<!-- hi -->b` {
		t.Errorf("RenderString = %q", got)
	}
}

func TestParseSkipsDoctype(t *testing.T) {
	root := mustParse(t, `<!DOCTYPE html><p>x</p>`)
	if len(root.Children) != 1 || root.Children[0].Tag != "P" {
		t.Errorf("unexpected tree %q", RenderString(root))
	}
}

func TestParseNoProgress(t *testing.T) {
	_, err := Parse(`a < b`)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrNoProgress) {
		t.Errorf("error %v should match ErrNoProgress", err)
	}
	if !strings.Contains(err.Error(), "offset 2") {
		t.Errorf("error %q should carry offset 2", err.Error())
	}
}

func TestParseUnclosedComment(t *testing.T) {
	_, err := Parse(`x<!-- never closed`)
	if !errors.Is(err, ErrNoProgress) {
		t.Errorf("error = %v, want ErrNoProgress", err)
	}
}

func TestParseUnclosedRawText(t *testing.T) {
	_, err := Parse(`<script>var a = 1;`)
	if !errors.Is(err, ErrUnclosedRawText) {
		t.Errorf("error = %v, want ErrUnclosedRawText", err)
	}
}

func TestParseRawTextKeepsBytes(t *testing.T) {
	tests := []struct {
		src      string
		tag      string
		interior string
	}{
		{"<script>İİ</script><b>x</b>", "SCRIPT", "İİ"},
		{"<style>ȺȺȺ</style><b>x</b>", "STYLE", "ȺȺȺ"},
		{"<script>\xff\xff</script><b>x</b>", "SCRIPT", "\xff\xff"},
		{"<script>a</b>b</ScRiPt><b>x</b>", "SCRIPT", "a</b>b"},
		{"<style>K</styl</STYLE><b>x</b>", "STYLE", "K</styl"},
	}

	for _, tt := range tests {
		root := mustParse(t, tt.src)
		if len(root.Children) != 2 {
			t.Fatalf("%q: top-level nodes = %d, want 2", tt.src, len(root.Children))
		}
		el := root.Children[0]
		if el.Tag != tt.tag {
			t.Errorf("%q: tag = %q, want %q", tt.src, el.Tag, tt.tag)
		}
		if len(el.Children) != 1 || el.Children[0].Kind != KindText {
			t.Fatalf("%q: raw-text children = %v, want one text node", tt.src, el.Children)
		}
		if got := el.Children[0].Content; got != tt.interior {
			t.Errorf("%q: interior = %q, want %q", tt.src, got, tt.interior)
		}
		if b := root.Children[1]; b.Tag != "B" || RenderString(b) != "<b>x</b>" {
			t.Errorf("%q: sibling = %q, want <b>x</b>", tt.src, RenderString(b))
		}
	}
}

func TestIsParseError(t *testing.T) {
	_, noProgress := Parse("a < b")
	_, unclosed := Parse("<style>p {}")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no progress", noProgress, true},
		{"unclosed raw text", unclosed, true},
		{"unrelated", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		if got := IsParseError(tt.err); got != tt.want {
			t.Errorf("IsParseError(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if errors.Is(unclosed, ErrNoProgress) {
		t.Errorf("unclosed raw text matched ErrNoProgress")
	}
}

func TestRoundTripPreservesEntities(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`<a title="a &amp; b">x &lt; y</a>`, `<a title="a &amp; b">x &lt; y</a>`},
		{`<a title='say "hi"'>x</a>`, `<a title="say &quot;hi&quot;">x</a>`},
		{`<div class="a b" id="m"><br><span>t</span></div>`, `<div class="a b" id="m"><br><span>t</span></div>`},
		{"<p>\n  text\n</p>", "<p>\n  text\n</p>"},
	}

	for _, tt := range tests {
		root := mustParse(t, tt.src)
		if got := RenderString(root); got != tt.want {
			t.Errorf("RenderString(Parse(%q)) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	if got := Decode("a &amp; b"); got != "a & b" {
		t.Errorf("Decode = %q, want %q", got, "a & b")
	}
	if got := Decode("plain"); got != "plain" {
		t.Errorf("Decode = %q, want plain", got)
	}
}

func TestParseFragment(t *testing.T) {
	nodes, err := ParseFragment(`<b>1</b><i>2</i>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(nodes))
	}
}
