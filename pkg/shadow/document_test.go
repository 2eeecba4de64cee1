package shadow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/shadowdom/pkg/live"
	"github.com/vango-dev/shadowdom/pkg/live/memdom"
	"github.com/vango-dev/shadowdom/pkg/markup"
	"github.com/vango-dev/shadowdom/pkg/telemetry"
)

var ctx = context.Background()

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mount creates a document over a fresh memdom host, mounts src and
// clears the host's op log.
func mount(t *testing.T, src string) (*Document, *memdom.Document) {
	t.Helper()
	host := memdom.New()
	d := New(host, host.Root(), Options{Logger: quietLogger()})
	if err := d.Mount(ctx, src); err != nil {
		t.Fatalf("Mount(%q): %v", src, err)
	}
	host.Reset()
	return d, host
}

func liveID(n *Node) string {
	return n.Handle().(*memdom.Node).ID
}

func TestMountListScenario(t *testing.T) {
	src := `<ul><li>first</li><li>second</li></ul>`
	d, host := mount(t, src)

	root := d.Root()
	if root.ChildCount() != 1 {
		t.Fatalf("root children = %d, want 1", root.ChildCount())
	}
	ul := root.Child(0)
	if ul.Tag() != "UL" || ul.ChildCount() != 2 {
		t.Fatalf("ul = %s with %d children", ul.Tag(), ul.ChildCount())
	}
	for i, want := range []string{"first", "second"} {
		li := ul.Child(i)
		if li.Tag() != "LI" || li.ChildCount() != 1 {
			t.Fatalf("li[%d] = %s with %d children", i, li.Tag(), li.ChildCount())
		}
		if got := li.Child(0); got.Kind() != KindText || got.Content() != want {
			t.Errorf("li[%d] text = %q, want %q", i, got.Content(), want)
		}
	}

	if got := root.OuterHTML(); got != src {
		t.Errorf("OuterHTML() = %q, want %q", got, src)
	}
	if got := host.HTML(); got != src {
		t.Errorf("live HTML = %q, want %q", got, src)
	}
	if got := d.Len(); got != 6 {
		t.Errorf("Len() = %d, want 6", got)
	}
}

func TestReconcileOwnSerializationIsNoop(t *testing.T) {
	sources := []string{
		`<ul><li>first</li><li>second</li></ul>`,
		`<div id="a" class="x y"><p>t</p>text<span>s</span></div>`,
		`<a href="?a=1&amp;b=2" title='say "hi"'>x &lt; y</a>`,
		`<img src="x"><br><input disabled>`,
		`<script>if (a < b) { go(); }</script><style>p > a {}</style>`,
		`<table><tr><td>1<td>2</tr></table>`,
		"<pre>\n  spaced\n</pre>",
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			d, host := mount(t, src)
			if err := d.SetInnerHTML(ctx, d.Root(), d.Root().InnerHTML()); err != nil {
				t.Fatalf("SetInnerHTML: %v", err)
			}
			if ops := host.Ops(); len(ops) != 0 {
				t.Errorf("reconciling own serialization issued %d ops: %v", len(ops), ops)
			}
		})
	}
}

func TestPositionalDiffMinimality(t *testing.T) {
	d, host := mount(t, `<div><p>a</p><p>b</p><p>c</p></div>`)
	div := d.Root().Child(0)
	oldP := div.Child(1)
	oldID := liveID(oldP)
	first, last := div.Child(0), div.Child(2)

	if err := d.SetInnerHTML(ctx, d.Root(), `<div><p>a</p><h2>b</h2><p>c</p></div>`); err != nil {
		t.Fatal(err)
	}

	if got := host.Count(live.OpReplaceChild); got != 1 {
		t.Fatalf("ReplaceChild calls = %d, want 1", got)
	}
	for _, op := range []live.Op{live.OpRemoveChild, live.OpSetAttribute, live.OpRemoveAttribute} {
		if got := host.Count(op); got != 0 {
			t.Errorf("%s calls = %d, want 0", op, got)
		}
	}
	for _, r := range host.Ops() {
		if r.Op == live.OpReplaceChild {
			if r.Parent != liveID(div) || r.Old != oldID {
				t.Errorf("replace = %+v, want parent div and old p", r)
			}
		}
		if r.Op == live.OpAppendChild && r.Parent == liveID(div) {
			t.Errorf("unexpected append into div: %v", r)
		}
	}

	if div.Child(0) != first || div.Child(2) != last {
		t.Error("untouched positions must keep their nodes")
	}
	if got := div.Child(1).Tag(); got != "H2" {
		t.Errorf("child 1 = %s, want H2", got)
	}
	if oldP.Handle() != nil {
		t.Error("replaced node should be destroyed")
	}
	if _, ok := d.Node(oldP.Ref()); ok {
		t.Error("stale Ref should not resolve")
	}
	if err := d.SetAttr(ctx, oldP, "id", "x"); !errors.Is(err, ErrDetached) {
		t.Errorf("SetAttr on destroyed node = %v, want ErrDetached", err)
	}
}

func TestTextChangeKeepsNodeIdentity(t *testing.T) {
	d, host := mount(t, `<p>old</p>`)
	txt := d.Root().Child(0).Child(0)
	oldHandle := txt.Handle()

	if err := d.SetInnerHTML(ctx, d.Root(), `<p>new</p>`); err != nil {
		t.Fatal(err)
	}

	if got := d.Root().Child(0).Child(0); got != txt {
		t.Fatal("text node identity should survive a content change")
	}
	if txt.Content() != "new" {
		t.Errorf("Content() = %q, want new", txt.Content())
	}
	if host.Count(live.OpCreateText) != 1 || host.Count(live.OpReplaceChild) != 1 {
		t.Errorf("ops = %v, want one create and one replace", host.Ops())
	}
	if n, ok := d.NodeFor(txt.Handle()); !ok || n != txt {
		t.Error("new handle should map to the text node")
	}
	if _, ok := d.NodeFor(oldHandle); ok {
		t.Error("old handle should be unregistered")
	}
	if got := host.HTML(); got != `<p>new</p>` {
		t.Errorf("live HTML = %q", got)
	}
}

func TestAttributeDiffRemovesThenSets(t *testing.T) {
	d, host := mount(t, `<div id="a" title="t" class="x"></div>`)
	div := d.Root().Child(0)

	if err := d.SetInnerHTML(ctx, d.Root(), `<div id="b" class="x" data-k="1"></div>`); err != nil {
		t.Fatal(err)
	}

	ops := host.Ops()
	if len(ops) != 3 {
		t.Fatalf("ops = %v, want 3", ops)
	}
	if ops[0].Op != live.OpRemoveAttribute || ops[0].Name != "title" {
		t.Errorf("first op = %v, want remove title", ops[0])
	}
	if d.Root().Child(0) != div {
		t.Error("same-tag element should be updated in place")
	}
	if div.ID() != "b" {
		t.Errorf("ID() = %q, want b", div.ID())
	}
	if _, ok := d.LookupByID("a"); ok {
		t.Error("old id should be unregistered")
	}
	if h, ok := d.LookupByID("b"); !ok || h != div.Handle() {
		t.Error("new id should map to the div's handle")
	}
}

func TestAppendAndTrimChildren(t *testing.T) {
	d, host := mount(t, `<ul><li>1</li></ul>`)
	ul := d.Root().Child(0)
	before := d.Len()

	if err := d.SetInnerHTML(ctx, ul, `<li>1</li><li>2</li><li>3</li>`); err != nil {
		t.Fatal(err)
	}
	appendsToUL := 0
	for _, r := range host.Ops() {
		if r.Op == live.OpAppendChild && r.Parent == liveID(ul) {
			appendsToUL++
		}
	}
	if appendsToUL != 2 {
		t.Errorf("appends to ul = %d, want 2", appendsToUL)
	}
	if got := d.Len(); got != before+4 {
		t.Errorf("Len() = %d, want %d", got, before+4)
	}

	host.Reset()
	if err := d.SetInnerHTML(ctx, ul, `<li>1</li>`); err != nil {
		t.Fatal(err)
	}
	if got := host.Count(live.OpRemoveChild); got != 2 {
		t.Errorf("RemoveChild calls = %d, want 2", got)
	}
	if got := d.Len(); got != before {
		t.Errorf("Len() = %d, want %d", got, before)
	}
	if got := host.HTML(); got != `<ul><li>1</li></ul>` {
		t.Errorf("live HTML = %q", got)
	}
}

func TestKindChangeReplaces(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
	}{
		{"text to element", `<div>text</div>`, `<div><b>x</b></div>`},
		{"element to text", `<div><b>x</b></div>`, `<div>text</div>`},
		{"comment to text", `<div><!--c--></div>`, `<div>c</div>`},
		{"raw text content", `<script>a()</script>`, `<script>b()</script>`},
		{"different tag", `<div><i>x</i></div>`, `<div><em>x</em></div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, host := mount(t, tt.from)
			if err := d.SetInnerHTML(ctx, d.Root(), tt.to); err != nil {
				t.Fatal(err)
			}
			if got := host.Count(live.OpReplaceChild); got != 1 {
				t.Errorf("ReplaceChild calls = %d, want 1 (ops %v)", got, host.Ops())
			}
			if got := d.Root().InnerHTML(); got != tt.to {
				t.Errorf("InnerHTML() = %q, want %q", got, tt.to)
			}
		})
	}
}

func TestRawTextSameContentPatchesAttributes(t *testing.T) {
	d, host := mount(t, `<script type="a">x()</script>`)
	script := d.Root().Child(0)

	if err := d.SetInnerHTML(ctx, d.Root(), `<script type="b">x()</script>`); err != nil {
		t.Fatal(err)
	}
	if d.Root().Child(0) != script {
		t.Error("script with unchanged content should be kept")
	}
	if got := len(host.Ops()); got != 1 || host.Count(live.OpSetAttribute) != 1 {
		t.Errorf("ops = %v, want one set_attribute", host.Ops())
	}
}

func TestIdentifierRegistry(t *testing.T) {
	d, _ := mount(t, `<div id="a"><span id="b"></span></div>`)
	div := d.Root().Child(0)
	span := div.Child(0)

	if h, ok := d.LookupByID("b"); !ok || h != span.Handle() {
		t.Errorf("LookupByID(b) = %v, %v", h, ok)
	}
	if n, ok := d.ElementByID("a"); !ok || n != div {
		t.Errorf("ElementByID(a) = %v, %v", n, ok)
	}

	if err := d.Remove(ctx, div); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b"} {
		if _, ok := d.LookupByID(id); ok {
			t.Errorf("id %q should be gone after removal", id)
		}
	}
	if got := d.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

func TestIdentifierCollisionLastWriterWins(t *testing.T) {
	d, _ := mount(t, `<i id="x"></i><b id="x"></b>`)
	b := d.Root().Child(1)

	if n, _ := d.ElementByID("x"); n != b {
		t.Fatalf("ElementByID(x) = %v, want the later element", n)
	}
	if err := d.SetAttr(ctx, b, "id", "y"); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.LookupByID("x"); ok {
		t.Error("x pointed at b and should be dropped with b's old id")
	}
	if n, _ := d.ElementByID("y"); n != b {
		t.Error("y should map to b")
	}
}

func TestParseErrorLeavesDocumentUntouched(t *testing.T) {
	d, host := mount(t, `<p>a</p>`)

	err := d.SetInnerHTML(ctx, d.Root(), `<p>b</p> a < b`)
	if !errors.Is(err, markup.ErrNoProgress) {
		t.Fatalf("SetInnerHTML error = %v, want ErrNoProgress", err)
	}
	if len(host.Ops()) != 0 {
		t.Errorf("parse failure issued ops: %v", host.Ops())
	}
	if got := d.HTML(); got != `<p>a</p>` {
		t.Errorf("HTML() = %q", got)
	}
}

func TestHostFailurePropagates(t *testing.T) {
	d, host := mount(t, `<p>x</p>`)
	boom := errors.New("boom")
	host.FailOn(live.OpCreateElement, boom)

	err := d.SetInnerHTML(ctx, d.Root(), `<p>x</p><div></div>`)
	if !errors.Is(err, ErrHost) {
		t.Errorf("error = %v, want ErrHost", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error = %v should wrap the host error", err)
	}
	if got := d.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestFailedBuildRegistersNothing(t *testing.T) {
	host := memdom.New()
	d := New(host, host.Root(), Options{Logger: quietLogger()})
	host.FailOn(live.OpAppendChild, errors.New("boom"))

	if err := d.Mount(ctx, `<ul id="l"><li>a</li></ul>`); !errors.Is(err, ErrHost) {
		t.Fatalf("Mount error = %v, want ErrHost", err)
	}
	if got := d.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
	if _, ok := d.LookupByID("l"); ok {
		t.Error("id of a discarded subtree must not stay registered")
	}
	if d.Root().ChildCount() != 0 {
		t.Error("root should have no children")
	}
}

func TestSetOuterHTML(t *testing.T) {
	d, host := mount(t, `<ul><li>a</li><li>b</li></ul>`)
	ul := d.Root().Child(0)
	li := ul.Child(1)

	if err := d.SetOuterHTML(ctx, li, "  <li class='x'>b</li>\n"); err != nil {
		t.Fatal(err)
	}
	if got := len(host.Ops()); got != 1 {
		t.Errorf("ops = %v, want one set_attribute", host.Ops())
	}
	if got := li.OuterHTML(); got != `<li class="x">b</li>` {
		t.Errorf("OuterHTML() = %q", got)
	}

	if err := d.SetOuterHTML(ctx, li, `<li>1</li><li>2</li>`); !errors.Is(err, ErrNotSingleNode) {
		t.Errorf("two nodes error = %v, want ErrNotSingleNode", err)
	}
	if err := d.SetOuterHTML(ctx, d.Root(), `<p></p>`); !errors.Is(err, ErrNoParent) {
		t.Errorf("root error = %v, want ErrNoParent", err)
	}

	if err := d.SetOuterHTML(ctx, li, `<p>c</p>`); err != nil {
		t.Fatal(err)
	}
	if got := ul.OuterHTML(); got != `<ul><li>a</li><p>c</p></ul>` {
		t.Errorf("OuterHTML() = %q", got)
	}
}

func TestRawTextContentIsText(t *testing.T) {
	tests := []struct {
		name  string
		set   func(d *Document, script *Node) error
		want  string
		lives string
	}{
		{
			name:  "inner",
			set:   func(d *Document, script *Node) error { return d.SetInnerHTML(ctx, script, "<b>x</b>") },
			want:  "<b>x</b>",
			lives: "<b>x</b>",
		},
		{
			name:  "inner unclosed tag",
			set:   func(d *Document, script *Node) error { return d.SetInnerHTML(ctx, script, "if (a < b) {}") },
			want:  "if (a < b) {}",
			lives: "if (a < b) {}",
		},
		{
			name:  "outer of text child",
			set:   func(d *Document, script *Node) error { return d.SetOuterHTML(ctx, script.Child(0), " <i>y</i> ") },
			want:  " <i>y</i> ",
			lives: " <i>y</i> ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, host := mount(t, `<div><script>var a = 1;</script></div>`)
			script := d.Root().Child(0).Child(0)

			if err := tt.set(d, script); err != nil {
				t.Fatal(err)
			}
			if script.ChildCount() != 1 {
				t.Fatalf("script children = %d, want 1", script.ChildCount())
			}
			text := script.Child(0)
			if text.Kind() != KindText || text.Content() != tt.want {
				t.Errorf("script child = %v %q, want text %q", text.Kind(), text.Content(), tt.want)
			}
			if got := text.Handle().(*memdom.Node).Data; got != tt.lives {
				t.Errorf("live text = %q, want %q", got, tt.lives)
			}

			host.Reset()
			if err := d.SetInnerHTML(ctx, d.Root(), d.HTML()); err != nil {
				t.Fatal(err)
			}
			if ops := host.Ops(); len(ops) != 0 {
				t.Errorf("re-applying HTML() = %v, want no ops", ops)
			}
		})
	}
}

func TestRawTextClear(t *testing.T) {
	d, _ := mount(t, `<style>p {}</style>`)
	style := d.Root().Child(0)

	if err := d.SetInnerHTML(ctx, style, ""); err != nil {
		t.Fatal(err)
	}
	if style.ChildCount() != 0 {
		t.Errorf("style children = %d, want 0", style.ChildCount())
	}

	if err := d.SetInnerHTML(ctx, style, "a { color: red }"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetOuterHTML(ctx, style.Child(0), ""); !errors.Is(err, ErrNotSingleNode) {
		t.Errorf("empty outer error = %v, want ErrNotSingleNode", err)
	}
}

func TestTextAndCommentOuterHTML(t *testing.T) {
	d, _ := mount(t, `<p>a &amp; b<!--note--></p>`)
	p := d.Root().Child(0)

	if got := p.Child(0).OuterHTML(); got != "a &amp; b" {
		t.Errorf("text OuterHTML() = %q", got)
	}
	if got := p.Child(1).OuterHTML(); got != "note" {
		t.Errorf("comment OuterHTML() = %q", got)
	}
	if got := p.InnerHTML(); got != "a &amp; b" {
		t.Errorf("InnerHTML() = %q, comments should be omitted", got)
	}
	if got := p.TextContent(); got != "a & b" {
		t.Errorf("TextContent() = %q", got)
	}
}

func TestLiveReceivesDecodedValues(t *testing.T) {
	src := `<a href="?a=1&amp;b=2">x &lt; y</a>`
	d, host := mount(t, src)
	a := d.Root().Child(0)

	liveA := a.Handle().(*memdom.Node)
	if v, _ := liveA.Attr("href"); v != "?a=1&b=2" {
		t.Errorf("live href = %q, want decoded", v)
	}
	if v, _ := a.Attr("href"); v != "?a=1&b=2" {
		t.Errorf("Attr(href) = %q, want decoded", v)
	}
	if v, _ := a.RawAttr("href"); v != "?a=1&amp;b=2" {
		t.Errorf("RawAttr(href) = %q, want raw", v)
	}
	if got := host.HTML(); got != src {
		t.Errorf("live HTML = %q, want %q", got, src)
	}
}

func TestSetAttrEscapesPlainValue(t *testing.T) {
	d, host := mount(t, `<div></div>`)
	div := d.Root().Child(0)

	if err := div.SetAttr("Title", `a "q" & b`); err != nil {
		t.Fatal(err)
	}
	if v, _ := div.RawAttr("title"); v != `a &quot;q&quot; &amp; b` {
		t.Errorf("RawAttr = %q", v)
	}
	if v, _ := div.Attr("title"); v != `a "q" & b` {
		t.Errorf("Attr = %q", v)
	}
	if got := host.Count(live.OpSetAttribute); got != 1 {
		t.Errorf("SetAttribute calls = %d, want 1", got)
	}

	if err := div.RemoveAttr("title"); err != nil {
		t.Fatal(err)
	}
	if div.HasAttr("title") {
		t.Error("title should be removed")
	}
	if err := div.RemoveAttr("missing"); err != nil {
		t.Errorf("removing a missing attribute: %v", err)
	}
	if got := host.Count(live.OpRemoveAttribute); got != 1 {
		t.Errorf("RemoveAttribute calls = %d, want 1", got)
	}
}

func TestRemove(t *testing.T) {
	d, host := mount(t, `<ul><li>a</li><li>b</li></ul>`)
	ul := d.Root().Child(0)
	li := ul.Child(0)

	if err := li.Remove(); err != nil {
		t.Fatal(err)
	}
	if got := host.Count(live.OpRemoveChild); got != 1 {
		t.Errorf("RemoveChild calls = %d, want 1", got)
	}
	if ul.ChildCount() != 1 || ul.InnerHTML() != `<li>b</li>` {
		t.Errorf("ul = %q", ul.InnerHTML())
	}
	if err := li.Remove(); !errors.Is(err, ErrDetached) {
		t.Errorf("second Remove = %v, want ErrDetached", err)
	}
	if err := d.Remove(ctx, d.Root()); !errors.Is(err, ErrNoParent) {
		t.Errorf("Remove(root) = %v, want ErrNoParent", err)
	}
}

func TestWrongKind(t *testing.T) {
	d, _ := mount(t, `<p>x</p><br>`)
	text := d.Root().Child(0).Child(0)
	br := d.Root().Child(1)

	if err := d.SetInnerHTML(ctx, text, "y"); !errors.Is(err, ErrWrongKind) {
		t.Errorf("SetInnerHTML(text) = %v, want ErrWrongKind", err)
	}
	if err := d.SetInnerHTML(ctx, br, "y"); !errors.Is(err, ErrWrongKind) {
		t.Errorf("SetInnerHTML(br) = %v, want ErrWrongKind", err)
	}
	if err := d.SetAttr(ctx, text, "id", "x"); !errors.Is(err, ErrWrongKind) {
		t.Errorf("SetAttr(text) = %v, want ErrWrongKind", err)
	}
}

func TestReconcileParsedForest(t *testing.T) {
	d, host := mount(t, `<p>a</p>`)
	forest := []*markup.Node{
		markup.Element("p", nil, markup.Text("a")),
		markup.Element("hr", nil),
	}

	stats, err := d.Reconcile(ctx, d.Root(), forest)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Appended != 1 || stats.Created != 1 || stats.Mutations() != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if got := host.HTML(); got != `<p>a</p><hr>` {
		t.Errorf("live HTML = %q", got)
	}
}

func TestConcurrentEntryPoints(t *testing.T) {
	d, _ := mount(t, `<ul id="l"></ul>`)
	ul, _ := d.ElementByID("l")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = d.SetInnerHTML(ctx, ul, `<li>a</li><li>b</li>`)
		}()
		go func() {
			defer wg.Done()
			d.View(func(root *Node) {
				_ = root.InnerHTML()
			})
			_, _ = d.QueryAll("li")
		}()
	}
	wg.Wait()

	if got := d.HTML(); got != `<ul id="l"><li>a</li><li>b</li></ul>` {
		t.Errorf("HTML() = %q", got)
	}
}

func TestMetricsWired(t *testing.T) {
	reg := prometheus.NewRegistry()
	host := memdom.New()
	d := New(host, host.Root(), Options{
		Logger:  quietLogger(),
		Metrics: telemetry.NewMetrics(telemetry.WithRegistry(reg)),
		Tracer:  telemetry.NewTracer(""),
	})
	if err := d.Mount(ctx, `<p>x</p>`); err != nil {
		t.Fatal(err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, f := range families {
		seen[f.GetName()] = true
	}
	for _, name := range []string{
		"shadowdom_host_ops_total",
		"shadowdom_reconcile_total",
		"shadowdom_parse_total",
		"shadowdom_shadow_nodes",
	} {
		if !seen[name] {
			t.Errorf("metric %s not recorded", name)
		}
	}
}
