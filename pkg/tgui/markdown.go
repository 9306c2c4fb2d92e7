package tgui

import "strings"

// ParseModeMarkdownV2 is the Telegram parse mode all rendered cards use.
const ParseModeMarkdownV2 = "MarkdownV2"

// mdSpecial is the set of characters Telegram MarkdownV2 treats as markup.
// Each of them must be backslash-prefixed when it appears in user text.
const mdSpecial = "_*[]()~`>#!+-.|{}"

// M represents MarkdownV2 that is safe to pass to Telegram when
// ParseMode="MarkdownV2". Values of type M should be treated as
// already-escaped; escaping an M again would double-escape it.
type M string

func (m M) String() string { return string(m) }

// Esc escapes text for Telegram MarkdownV2 parse mode.
// It is a pure function of its input and must be applied exactly once
// per rendered string.
func Esc(s string) M {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 && strings.ContainsRune(mdSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return M(b.String())
}

// Raw marks a string as already-safe MarkdownV2.
// Use sparingly.
func Raw(s string) M { return M(s) }

// B renders bold text.
func B(s string) M { return "*" + Esc(s) + "*" }

// I renders italic text.
func I(s string) M { return "_" + Esc(s) + "_" }

// Code renders inline monospace text.
func Code(s string) M { return "`" + Esc(s) + "`" }

// JoinM joins safe MarkdownV2 parts with sep, skipping blank parts.
func JoinM(sep string, parts ...M) M {
	ss := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p.String()) == "" {
			continue
		}
		ss = append(ss, p.String())
	}
	return M(strings.Join(ss, sep))
}

// QuoteCard renders a quote/author pair the way the bot presents quotes:
//
//	*"text"* — _author_
//
// Both segments are escaped here; callers must pass raw (unescaped) text.
func QuoteCard(text, author string) M {
	return `*"` + Esc(text) + `"* — _` + Esc(author) + "_"
}
