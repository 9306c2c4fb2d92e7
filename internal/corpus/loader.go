// Package corpus loads the one-time quote seed file into an empty store.
//
// The near-duplicate scan is O(n²) over the seed set. That is fine for a
// bounded one-shot ingestion and is NOT meant as a general continuous dedup
// path; online dedup over a growing corpus would need index-based detection.
package corpus

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/malyarq/happiness-bot/internal/storage"
	logx "github.com/malyarq/happiness-bot/pkg/logx"
)

// DefaultThreshold is the similarity at or above which two seed lines are
// considered the same quote.
const DefaultThreshold = 0.85

// separator splits a seed line into quote text and author. The split happens
// on the LAST occurrence, so quote text may itself contain " - ".
const separator = " - "

type Loader struct {
	store     storage.Store
	log       logx.Logger
	threshold float64
}

func NewLoader(store storage.Store, threshold float64, log logx.Logger) *Loader {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Loader{store: store, log: log, threshold: threshold}
}

// LoadFile reads the seed file and feeds it to Load. A missing seed file is
// not an error: the bot can run with an empty corpus until an admin adds
// quotes.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.log.Warn("seed file not found, skipping corpus load", logx.String("path", path))
			return 0, nil
		}
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	return l.Load(ctx, lines)
}

// Load collapses near-duplicate lines and inserts the survivors.
// It runs only against an empty quote corpus; re-running against a
// populated store is a no-op, which makes the whole load idempotent.
func (l *Loader) Load(ctx context.Context, lines []string) (int, error) {
	n, err := l.store.CountQuotes(ctx)
	if err != nil {
		return 0, fmt.Errorf("count quotes: %w", err)
	}
	if n > 0 {
		l.log.Info("corpus already loaded, skipping", logx.Int("quotes", n))
		return 0, nil
	}

	unique := dedupe(lines, l.threshold)

	inserted := 0
	for _, line := range unique {
		text, author, ok := ParseLine(line)
		if !ok {
			continue
		}
		if _, err := l.store.AddQuote(ctx, text, author); err != nil {
			return inserted, fmt.Errorf("insert quote: %w", err)
		}
		inserted++
	}
	l.log.Info("corpus loaded",
		logx.Int("raw_lines", len(lines)),
		logx.Int("unique_lines", len(unique)),
		logx.Int("inserted", inserted))
	return inserted, nil
}

// dedupe keeps the first of every group of near-identical lines, in input
// order. A candidate is dropped when it is at least threshold-similar to any
// line already kept.
func dedupe(lines []string, threshold float64) []string {
	var unique []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		dup := false
		for _, kept := range unique {
			if Similarity(line, kept) >= threshold {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, line)
		}
	}
	return unique
}

// ParseLine splits a seed line into quote text and author on the last " - ".
// Lines without the separator, or with an empty segment after trimming, are
// rejected.
func ParseLine(line string) (text, author string, ok bool) {
	i := strings.LastIndex(line, separator)
	if i < 0 {
		return "", "", false
	}
	text = strings.Trim(strings.TrimSpace(line[:i]), `"“”`)
	author = strings.TrimSpace(line[i+len(separator):])
	if text == "" || author == "" {
		return "", "", false
	}
	return text, author, true
}
