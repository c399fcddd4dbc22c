// Package chunker splits normalized document text into overlapping,
// fixed-size word windows that are fed to the embedder and the lexical index.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/docmind/internal/domain"
)

// Defaults used when the config does not override them.
const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

var (
	paragraphBreak = regexp.MustCompile(`\n{2,}`)
	// Go's RE2 has no lookbehind, so the terminator is matched and kept by hand.
	sentenceEnd = regexp.MustCompile(`[.!?]\s+`)
	nonASCII    = regexp.MustCompile(`[^\x00-\x7F]+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Params controls window size and overlap, both in words.
type Params struct {
	Size    int
	Overlap int
}

// Validate rejects windows that cannot make progress.
func (p Params) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d: %w", p.Size, domain.ErrInvalidConfig)
	}
	if p.Overlap < 0 {
		return fmt.Errorf("chunk overlap must not be negative, got %d: %w", p.Overlap, domain.ErrInvalidConfig)
	}
	if p.Overlap >= p.Size {
		return fmt.Errorf("chunk overlap %d must be less than size %d: %w", p.Overlap, p.Size, domain.ErrInvalidConfig)
	}
	return nil
}

// Piece is one chunker output.
type Piece struct {
	Content string
	Index   int
}

// Split cuts text into pieces of at most p.Size words. Consecutive pieces
// share exactly p.Overlap words. Empty input yields no pieces.
func Split(text string, p Params) ([]Piece, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var (
		pieces []Piece
		buf    []string
	)
	emit := func(words []string) {
		pieces = append(pieces, Piece{Content: strings.Join(words, " "), Index: len(pieces)})
	}

	for _, sentence := range Sentences(text) {
		buf = append(buf, strings.Fields(sentence)...)
		for len(buf) >= p.Size {
			emit(buf[:p.Size])
			// copy so the retained tail does not alias the emitted window
			buf = append([]string(nil), buf[p.Size-p.Overlap:]...)
		}
	}
	if len(buf) > 0 {
		emit(buf)
	}
	return pieces, nil
}

// Sentences splits text on paragraph breaks and then after sentence
// terminators. Each unit is cleaned; empty units are dropped.
func Sentences(text string) []string {
	var out []string
	for _, para := range paragraphBreak.Split(text, -1) {
		start := 0
		for _, loc := range sentenceEnd.FindAllStringIndex(para, -1) {
			// keep the terminator, drop the whitespace after it
			out = appendClean(out, para[start:loc[0]+1])
			start = loc[1]
		}
		out = appendClean(out, para[start:])
	}
	return out
}

func appendClean(out []string, s string) []string {
	if c := Clean(s); c != "" {
		return append(out, c)
	}
	return out
}

// Clean collapses whitespace, replaces non-ASCII runs with a space and trims.
func Clean(s string) string {
	s = nonASCII.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
