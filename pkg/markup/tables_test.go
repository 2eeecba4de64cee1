package markup

import "testing"

func TestIsVoid(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"BR", true},
		{"IMG", true},
		{"ISINDEX", true},
		{"DIV", false},
		{"SPAN", false},
		{"SCRIPT", false},
		// Not in the tables; answered by probing.
		{"KEYGEN", true},
		{"X-WIDGET", false},
		{"ARTICLE", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := IsVoid(tt.tag); got != tt.want {
				t.Errorf("IsVoid(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestIsVoidMemoized(t *testing.T) {
	first := IsVoid("MY-ELEMENT")
	if _, ok := probed.Load("MY-ELEMENT"); !ok {
		t.Fatal("probe result should be memoized")
	}
	for i := 0; i < 3; i++ {
		if IsVoid("MY-ELEMENT") != first {
			t.Fatal("IsVoid should be idempotent")
		}
	}
}

func TestClassificationTables(t *testing.T) {
	if !IsBlock("DIV") || IsBlock("SPAN") {
		t.Error("block table wrong for DIV/SPAN")
	}
	if !IsInline("SPAN") || IsInline("DIV") {
		t.Error("inline table wrong for SPAN/DIV")
	}
	if !IsCloseSelf("LI") || IsCloseSelf("UL") {
		t.Error("close-self table wrong for LI/UL")
	}
	if !IsRawText("STYLE") || IsRawText("DIV") {
		t.Error("raw-text table wrong for STYLE/DIV")
	}
	if !IsFillAttr("checked") || IsFillAttr("hidden") {
		t.Error("fill-attr table wrong for checked/hidden")
	}
}

func TestElementConstructor(t *testing.T) {
	n := Element("hr", nil)
	if n.Tag != "HR" || !n.Void {
		t.Errorf("Element(hr) = %q void=%v", n.Tag, n.Void)
	}
}
