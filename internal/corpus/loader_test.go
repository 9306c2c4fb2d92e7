package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/malyarq/happiness-bot/internal/storage"
	logx "github.com/malyarq/happiness-bot/pkg/logx"
)

// seedStore records inserted quotes; the other Store methods are unused here.
type seedStore struct {
	storage.Store
	preloaded int
	added     []storage.Quote
}

func (s *seedStore) CountQuotes(ctx context.Context) (int, error) {
	return s.preloaded + len(s.added), nil
}

func (s *seedStore) AddQuote(ctx context.Context, text, author string) (int64, error) {
	s.added = append(s.added, storage.Quote{ID: int64(len(s.added) + 1), Text: text, Author: author})
	return int64(len(s.added)), nil
}

func TestParseLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in     string
		text   string
		author string
		ok     bool
	}{
		{"Carpe diem - Horace", "Carpe diem", "Horace", true},
		{`"Carpe diem" - Horace`, "Carpe diem", "Horace", true},
		{"“Мир” - Толстой", "Мир", "Толстой", true},
		// Split happens on the LAST " - ", the quote text keeps earlier ones.
		{"Жизнь - это дар - Автор", "Жизнь - это дар", "Автор", true},
		{"well-known saying - Someone", "well-known saying", "Someone", true},
		{"no separator", "", "", false},
		{" - Author", "", "", false},
		{"Text - ", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		text, author, ok := ParseLine(tt.in)
		if ok != tt.ok {
			t.Fatalf("ParseLine(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
		if !ok {
			continue
		}
		if text != tt.text || author != tt.author {
			t.Fatalf("ParseLine(%q) = (%q, %q), want (%q, %q)", tt.in, text, author, tt.text, tt.author)
		}
	}
}

func TestLoadDropsNearDuplicates(t *testing.T) {
	t.Parallel()
	st := &seedStore{}
	l := NewLoader(st, DefaultThreshold, logx.Nop())

	lines := []string{
		"The quick brown fox jumps - Aesop",
		"The quick brown fox jumps! - Aesop", // one rune away from the first
		"Carpe diem - Horace",
		"",
		"   ",
	}
	n, err := l.Load(context.Background(), lines)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 2 {
		t.Fatalf("Load inserted %d, want 2", n)
	}
	// Keep-first: the earlier near-duplicate survives.
	if st.added[0].Text != "The quick brown fox jumps" || st.added[0].Author != "Aesop" {
		t.Fatalf("first kept quote = %+v", st.added[0])
	}
	if st.added[1].Text != "Carpe diem" || st.added[1].Author != "Horace" {
		t.Fatalf("second kept quote = %+v", st.added[1])
	}
}

func TestLoadSkipsPopulatedStore(t *testing.T) {
	t.Parallel()
	st := &seedStore{preloaded: 3}
	l := NewLoader(st, DefaultThreshold, logx.Nop())

	n, err := l.Load(context.Background(), []string{"Carpe diem - Horace"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 0 || len(st.added) != 0 {
		t.Fatalf("Load against populated store inserted %d, want 0", n)
	}
}

func TestLoadSkipsUnparsableLines(t *testing.T) {
	t.Parallel()
	st := &seedStore{}
	l := NewLoader(st, DefaultThreshold, logx.Nop())

	n, err := l.Load(context.Background(), []string{
		"stray line without author",
		"Carpe diem - Horace",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 1 {
		t.Fatalf("Load inserted %d, want 1", n)
	}
}

func TestLoadFileMissingIsNoop(t *testing.T) {
	t.Parallel()
	st := &seedStore{}
	l := NewLoader(st, DefaultThreshold, logx.Nop())

	n, err := l.LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if n != 0 {
		t.Fatalf("LoadFile inserted %d, want 0", n)
	}
}

func TestLoadFileReadsSeed(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "seed.txt")
	seed := "Carpe diem - Horace\nCogito ergo sum - Descartes\n"
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	st := &seedStore{}
	l := NewLoader(st, DefaultThreshold, logx.Nop())
	n, err := l.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if n != 2 {
		t.Fatalf("LoadFile inserted %d, want 2", n)
	}
	// Idempotent: the second run sees a populated store and does nothing.
	n, err = l.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile rerun: %v", err)
	}
	if n != 0 {
		t.Fatalf("LoadFile rerun inserted %d, want 0", n)
	}
}
