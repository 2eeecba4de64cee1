package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/shadowdom/internal/errors"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "<UL><li>a<li>b</ul>", "parse", "-")
	if err != nil {
		t.Fatal(err)
	}
	if out != "<ul><li>a</li><li>b</li></ul>\n" {
		t.Errorf("parse output = %q", out)
	}

	out, err = run(t, "<p>x</p>", "parse", "--tree", "-")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "#fragment") || !strings.Contains(out, `#text "x"`) {
		t.Errorf("parse --tree output = %q", out)
	}

	if _, err := run(t, "a < b", "parse", "-"); errors.CodeOf(err) != "E100" {
		t.Errorf("parse error = %v, want E100", err)
	}
}

func TestQueryCommand(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "page.html", `<p>1</p><div><p>2</p><p class="x">3</p></div>`)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"query", page, "div p"}, "<p>2</p>\n<p class=\"x\">3</p>\n"},
		{[]string{"query", "--count", page, "p"}, "3\n"},
		{[]string{"query", page, ".x:last-child"}, "<p class=\"x\">3</p>\n"},
		{[]string{"query", "--count", page, "span"}, "0\n"},
	}
	for _, tt := range tests {
		out, err := run(t, "", tt.args...)
		if err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if out != tt.want {
			t.Errorf("%v = %q, want %q", tt.args, out, tt.want)
		}
	}

	if _, err := run(t, "", "query", page, "p[x"); errors.CodeOf(err) != "E110" {
		t.Errorf("bad selector error = %v, want E110", err)
	}
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	before := writeFile(t, dir, "before.html", `<ul><li class="a">x</li><li>y</li></ul>`)
	after := writeFile(t, dir, "after.html", `<ul><li class="b">x</li></ul>`)

	out, err := run(t, "", "diff", before, after)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"set_attribute", `class="b"`, "remove_child", "2 mutations"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "", "diff", "--quiet", before, before)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "0 mutations") {
		t.Errorf("diff of identical files = %q", out)
	}
}

func TestSnapshotCommands(t *testing.T) {
	dir := t.TempDir()
	snaps := filepath.Join(dir, "snaps")
	cfg := writeFile(t, dir, "shadowdom.json", `{"snapshot": {"dir": "`+filepath.ToSlash(snaps)+`"}}`)
	page := writeFile(t, dir, "page.html", `<main><!-- note --><h1>Hi</h1></main>`)

	if _, err := run(t, "", "--config", cfg, "snapshot", "save", "home", page); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "", "--config", cfg, "snapshot", "load", "home")
	if err != nil {
		t.Fatal(err)
	}
	if out != "<main><h1>Hi</h1></main>" {
		t.Errorf("load = %q, want the serialized document", out)
	}

	out, err = run(t, "", "--config", cfg, "snapshot", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "home") {
		t.Errorf("list = %q", out)
	}

	if _, err := run(t, "", "--config", cfg, "snapshot", "delete", "home"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "", "--config", cfg, "snapshot", "load", "home"); errors.CodeOf(err) != "E160" {
		t.Errorf("load deleted = %v, want E160", err)
	}
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "shadowdom.json", `{"log": {"level": "loud"}}`)

	if _, err := run(t, "", "--config", bad, "snapshot", "list"); errors.CodeOf(err) != "E152" {
		t.Errorf("bad config = %v, want E152", err)
	}
	if _, err := run(t, "", "--config", filepath.Join(dir, "none.json"), "snapshot", "list"); errors.CodeOf(err) != "E150" {
		t.Errorf("missing config = %v, want E150", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != "dev\n" {
		t.Errorf("version --short = %q, want dev", out)
	}
}
