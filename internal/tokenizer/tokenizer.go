// Package tokenizer segments free text into search tokens. Narration content
// is mostly Chinese, so splitting on whitespace is not enough; the same
// segmenter must run at index time and at query time or tokens will not match.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-ego/gse"
)

// maxTokenRunes bounds a single token so it fits the post_tokens column
const maxTokenRunes = 32

// Tokenizer turns text into a de-duplicated list of lowercase search tokens
type Tokenizer interface {
	Tokens(text string) []string
}

// Segmenter is the gse-backed Tokenizer. It is safe for concurrent use once
// constructed.
type Segmenter struct {
	seg gse.Segmenter
}

// New loads the embedded Chinese dictionary. This takes a moment; build one
// Segmenter per process.
func New() (*Segmenter, error) {
	s := &Segmenter{}
	s.seg.SkipLog = true
	if err := s.seg.LoadDictEmbed(); err != nil {
		return nil, fmt.Errorf("failed to load segmentation dictionary: %w", err)
	}
	return s, nil
}

var (
	defaultSegmenter *Segmenter
	defaultErr       error
	defaultOnce      sync.Once
)

// Default returns a process-wide Segmenter, loading the dictionary on first use
func Default() (*Segmenter, error) {
	defaultOnce.Do(func() {
		defaultSegmenter, defaultErr = New()
	})
	return defaultSegmenter, defaultErr
}

// Tokens segments text in search mode (overlapping sub-words) and drops
// punctuation and whitespace.
func (s *Segmenter) Tokens(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}
	return normalize(s.seg.Trim(s.seg.CutSearch(text, true)))
}

// Join renders tokens the way they are stored in PostNarration.ContentTokens
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}

func normalize(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimFunc(token, func(r rune) bool {
			return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if token == "" || seen[token] || utf8.RuneCountInString(token) > maxTokenRunes {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}
	return tokens
}
