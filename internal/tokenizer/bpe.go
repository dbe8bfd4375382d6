package tokenizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/bpe/internal/trie"
	"github.com/born-ml/bpe/internal/vocab"
)

// Common errors.
var (
	ErrNotFrozen  = errors.New("vocabulary must be frozen before encoding")
	ErrBadUnknown = errors.New("unknown token must be a special vocabulary entry")
)

// BPETokenizer encodes text by greedy longest match against a trained
// vocabulary.
//
// The vocabulary and trie are read-only after construction, so one
// BPETokenizer can serve any number of concurrent Encode and Decode calls.
type BPETokenizer struct {
	vocab    *vocab.Vocabulary
	trie     *trie.Trie
	unkToken int32
}

// NewBPETokenizer builds the match trie for a frozen vocabulary. unk must be
// an id added with AddSpecial.
func NewBPETokenizer(v *vocab.Vocabulary, unk int32) (*BPETokenizer, error) {
	if !v.Frozen() {
		return nil, ErrNotFrozen
	}
	if !v.IsSpecial(unk) {
		return nil, fmt.Errorf("%w: id %d", ErrBadUnknown, unk)
	}

	return &BPETokenizer{
		vocab:    v,
		trie:     trie.Build(v),
		unkToken: unk,
	}, nil
}

// Encode converts text to token IDs. At each position it emits the longest
// vocabulary token that matches; a rune that starts no token is emitted as
// the unknown token. Encode never fails on content.
func (b *BPETokenizer) Encode(text string) ([]int32, error) {
	if text == "" {
		return []int32{}, nil
	}

	runes := []rune(text)
	tokens := make([]int32, 0, len(runes))

	for pos := 0; pos < len(runes); {
		id, n, ok := b.trie.SearchLongest(runes, pos)
		if !ok {
			tokens = append(tokens, b.unkToken)
			pos++
			continue
		}
		tokens = append(tokens, id)
		pos += n
	}

	return tokens, nil
}

// EncodeBatch encodes texts concurrently with at most workers goroutines.
// workers <= 0 means no limit.
func (b *BPETokenizer) EncodeBatch(ctx context.Context, texts []string, workers int) ([][]int32, error) {
	out := make([][]int32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tokens, err := b.Encode(text)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			out[i] = tokens
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode concatenates the strings of tokens. Any id outside the vocabulary
// fails with vocab.ErrInvalidID. The unknown token decodes to its own string,
// so text that needed the fallback does not round-trip.
func (b *BPETokenizer) Decode(tokens []int32) (string, error) {
	var sb strings.Builder

	for i, token := range tokens {
		text, err := b.vocab.Token(token)
		if err != nil {
			return "", fmt.Errorf("position %d: %w", i, err)
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

// VocabSize returns the total vocabulary size.
func (b *BPETokenizer) VocabSize() int {
	return b.vocab.Size()
}

// UnkToken returns the unknown token ID.
func (b *BPETokenizer) UnkToken() int32 {
	return b.unkToken
}

// IsSpecialToken checks if a token ID is a special token.
func (b *BPETokenizer) IsSpecialToken(token int32) bool {
	return b.vocab.IsSpecial(token)
}

// MaxTokenLength returns the rune length of the longest matchable token.
func (b *BPETokenizer) MaxTokenLength() int {
	return b.trie.MaxDepth()
}

// Vocabulary returns the underlying vocabulary. Callers must not modify it.
func (b *BPETokenizer) Vocabulary() *vocab.Vocabulary {
	return b.vocab
}
