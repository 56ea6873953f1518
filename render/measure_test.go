package render

import (
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	cases := map[string]string{
		"plain ascii":      "plain ascii",
		"₹ 500":            "Rs. 500",
		"Café – “menu”":    "Caf\xe9 - \"menu\"",
		"tab\there":        "tab here",
		"bell\a":           "bell",
		"日本":               "??",
		"line one\nline 2": "line one\nline 2",
	}
	for in, want := range cases {
		if got := encode(in); got != want {
			t.Fatalf("encode(%q) expected %q, got %q", in, want, got)
		}
	}
}

func TestWrap(t *testing.T) {
	m := newMeasurer()
	f := font("", 10)

	if got := m.wrap(f, "short text", 100); len(got) != 1 || got[0] != "short text" {
		t.Fatalf("unexpected wrap %q", got)
	}

	lines := m.wrap(f, strings.Repeat("word ", 60), 50)
	if len(lines) < 3 {
		t.Fatalf("expected several lines, got %q", lines)
	}
	for _, ln := range lines {
		if m.width(f, ln) > 50 {
			t.Fatalf("line %q exceeds width", ln)
		}
	}

	long := m.wrap(f, strings.Repeat("x", 200), 30)
	if len(long) < 2 || strings.Join(long, "") != strings.Repeat("x", 200) {
		t.Fatalf("overlong word not split losslessly: %q", long)
	}

	kept := m.wrap(f, "a\n\nb\n\n", 100)
	if len(kept) != 3 || kept[1] != "" {
		t.Fatalf("expected blank line kept and trailing ones dropped, got %q", kept)
	}
}
