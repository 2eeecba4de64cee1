package treedump

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/shadowdom/pkg/live/memdom"
	"github.com/vango-dev/shadowdom/pkg/markup"
	"github.com/vango-dev/shadowdom/pkg/shadow"
)

func TestParse(t *testing.T) {
	root, err := markup.Parse(`<ul class="m"><li>first</li><br><!--x--></ul>`)
	if err != nil {
		t.Fatal(err)
	}
	out := Parse(root)

	for _, want := range []string{
		"#fragment",
		`<ul class="m">`,
		"<li>",
		`#text "first"`,
		"<br> (void)",
		`#comment "x"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestShadow(t *testing.T) {
	host := memdom.New()
	d := shadow.New(host, host.Root(), shadow.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err := d.Mount(context.Background(), `<p id="a">hello</p>`); err != nil {
		t.Fatal(err)
	}
	out := Shadow(d.Root())

	if !strings.HasPrefix(out, "#document") {
		t.Errorf("dump should start with #document:\n%s", out)
	}
	if !strings.Contains(out, `<p id="a"> @1.0`) {
		t.Errorf("dump should label elements with their ref:\n%s", out)
	}
	if !strings.Contains(out, `#text "hello"`) {
		t.Errorf("dump missing text:\n%s", out)
	}
}

func TestClip(t *testing.T) {
	long := strings.Repeat("x", 50)
	if got := clip(long); len(got) != maxText+3 {
		t.Errorf("clip length = %d, want %d", len(got), maxText+3)
	}
	if got := clip("short"); got != "short" {
		t.Errorf("clip(short) = %q", got)
	}
}
