package tgui

import (
	"strings"
	"testing"
)

func TestEscSpecialSet(t *testing.T) {
	t.Parallel()
	in := "_*[]()~`>#!+-.|{}"
	got := Esc(in).String()
	for i, r := range []rune(in) {
		want := "\\" + string(r)
		if !strings.Contains(got, want) {
			t.Fatalf("Esc(%q) = %q, missing escaped %q at %d", in, got, want, i)
		}
	}
	if len(got) != 2*len(in) {
		t.Fatalf("Esc(%q) = %q, want every char escaped exactly once", in, got)
	}
}

func TestEscLeavesPlainTextAlone(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"", "Carpe diem", "Горация", "quote \"quoted\""} {
		if got := Esc(s).String(); got != s {
			t.Fatalf("Esc(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestEscTwiceIsNotIdempotent(t *testing.T) {
	t.Parallel()
	// Escaping M again would double-escape; the type system is the guard,
	// this test documents the behavior behind it.
	once := Esc("a.b").String()
	twice := Esc(once).String()
	if once == twice {
		t.Fatalf("double escape should differ: %q vs %q", once, twice)
	}
	if once != `a\.b` {
		t.Fatalf("Esc(a.b) = %q, want a\\.b", once)
	}
	if twice != `a\\.b` {
		t.Fatalf("Esc(Esc(a.b)) = %q, want a\\\\.b", twice)
	}
}

func TestQuoteCard(t *testing.T) {
	t.Parallel()
	got := QuoteCard("Carpe diem", "Horace").String()
	want := `*"Carpe diem"* — _Horace_`
	if got != want {
		t.Fatalf("QuoteCard = %q, want %q", got, want)
	}
}

func TestQuoteCardEscapesOnce(t *testing.T) {
	t.Parallel()
	got := QuoteCard("To be. Or not!", "W. Shakespeare").String()
	want := `*"To be\. Or not\!"* — _W\. Shakespeare_`
	if got != want {
		t.Fatalf("QuoteCard = %q, want %q", got, want)
	}
}

func TestJoinMSkipsBlank(t *testing.T) {
	t.Parallel()
	got := JoinM(" ", Esc("a"), Raw("  "), Esc("b")).String()
	if got != "a b" {
		t.Fatalf("JoinM = %q, want %q", got, "a b")
	}
}

func TestWrappers(t *testing.T) {
	t.Parallel()
	if got := B("x.y").String(); got != `*x\.y*` {
		t.Fatalf("B = %q", got)
	}
	if got := I("hi").String(); got != "_hi_" {
		t.Fatalf("I = %q", got)
	}
	if got := Code("a|b").String(); got != "`a\\|b`" {
		t.Fatalf("Code = %q", got)
	}
}
