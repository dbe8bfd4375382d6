// Package tokenizer trains byte-pair-encoding vocabularies and encodes text
// with them.
//
// This package wires the internal vocabulary, trainer, pre-tokenizer, trie
// encoder and .bpev format into a small public API.
//
// Example usage:
//
//	import "github.com/born-ml/bpe/tokenizer"
//
//	tok, err := tokenizer.Train(corpus, tokenizer.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ids, _ := tok.Encode("Hello, world!")
//	text, err := tok.Decode(ids)
//
//	// Persist and reload without retraining.
//	if err := tok.Save("corpus.bpev"); err != nil {
//	    log.Fatal(err)
//	}
//	tok, err = tokenizer.Load("corpus.bpev")
package tokenizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/born-ml/bpe/internal/logutil"
	"github.com/born-ml/bpe/internal/pretokenize"
	"github.com/born-ml/bpe/internal/serialization"
	"github.com/born-ml/bpe/internal/tokenizer"
	"github.com/born-ml/bpe/internal/trainer"
	"github.com/born-ml/bpe/internal/vocab"
)

// ErrEmptyUnknown is returned when Options.UnknownToken is empty.
var ErrEmptyUnknown = errors.New("unknown token must not be empty")

// Encoder is the encode/decode interface shared by trained tokenizers and
// tiktoken baselines.
type Encoder = tokenizer.Tokenizer

// Merge is one learned pair: Tokens()[Left]+Tokens()[Right] == Tokens()[Result].
type Merge = trainer.Merge

// Options controls Train.
type Options struct {
	Language     string // BCP 47 tag; "en" selects the GPT-2 regex, others split on whitespace.
	Iterations   int
	MinFrequency int
	UnknownToken string
	Workers      int // EncodeBatch concurrency; 0 means unlimited.
	Logger       *slog.Logger
}

// DefaultOptions returns English, 3 iterations, a minimum pair count of 5
// and "<unk>".
func DefaultOptions() Options {
	return Options{
		Language:     "en",
		Iterations:   3,
		MinFrequency: 5,
		UnknownToken: "<unk>",
	}
}

// Tokenizer is a trained, frozen BPE tokenizer. It is safe for concurrent
// use.
type Tokenizer struct {
	opts    Options
	enc     *tokenizer.BPETokenizer
	merges  []trainer.Merge
	trained []int32
	logger  *slog.Logger
}

// Train normalizes and pre-tokenizes corpus, learns merges, appends the
// unknown token as a special entry and freezes the result.
func Train(corpus string, opts Options) (*Tokenizer, error) {
	if opts.UnknownToken == "" {
		return nil, ErrEmptyUnknown
	}
	logger := logutil.Or(opts.Logger)

	pre, err := pretokenize.ForLanguage(opts.Language)
	if err != nil {
		return nil, err
	}
	text := pretokenize.Normalize(corpus, opts.Language)
	words, err := pre.Split(text)
	if err != nil {
		return nil, fmt.Errorf("pre-tokenize: %w", err)
	}

	v := vocab.FromCorpus(text)
	logger.Debug("initial vocabulary", "runes", v.Size(), "words", len(words))

	tr, err := trainer.New(trainer.Config{
		Iterations:   opts.Iterations,
		MinFrequency: opts.MinFrequency,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	res, err := tr.Train(v, words)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	unk, err := v.AddSpecial(opts.UnknownToken)
	if err != nil {
		return nil, fmt.Errorf("unknown token: %w", err)
	}
	v.Freeze()

	t, err := newTokenizer(v, unk, opts, logger)
	if err != nil {
		return nil, err
	}
	t.merges = res.Merges
	t.trained = res.Tokens()
	return t, nil
}

func newTokenizer(v *vocab.Vocabulary, unk int32, opts Options, logger *slog.Logger) (*Tokenizer, error) {
	enc, err := tokenizer.NewBPETokenizer(v, unk)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{opts: opts, enc: enc, logger: logger}, nil
}

// Encode normalizes text the way the corpus was normalized and encodes it by
// greedy longest match. Runes that start no vocabulary token become
// UnkToken.
//
// Coverage and length bounds hold against the normalized text, not the
// caller's: lowercasing can change the rune count (U+0130 "İ" lowers to
// "i" plus a combining dot), so the result may have more ids than text has
// runes.
func (t *Tokenizer) Encode(text string) ([]int32, error) {
	return t.enc.Encode(pretokenize.Normalize(text, t.opts.Language))
}

// EncodeBatch encodes texts concurrently, preserving order.
func (t *Tokenizer) EncodeBatch(ctx context.Context, texts []string) ([][]int32, error) {
	normalized := make([]string, len(texts))
	for i, s := range texts {
		normalized[i] = pretokenize.Normalize(s, t.opts.Language)
	}
	return t.enc.EncodeBatch(ctx, normalized, t.opts.Workers)
}

// Decode concatenates the token strings of ids. UnkToken decodes to the
// unknown token string.
func (t *Tokenizer) Decode(ids []int32) (string, error) {
	return t.enc.Decode(ids)
}

// VocabSize returns the number of entries, the unknown token included.
func (t *Tokenizer) VocabSize() int { return t.enc.VocabSize() }

// UnkToken returns the id of the unknown token.
func (t *Tokenizer) UnkToken() int32 { return t.enc.UnkToken() }

// IsSpecialToken reports whether id is a special entry.
func (t *Tokenizer) IsSpecialToken(id int32) bool { return t.enc.IsSpecialToken(id) }

// Tokens returns the vocabulary in id order.
func (t *Tokenizer) Tokens() []string { return t.enc.Vocabulary().Tokens() }

// Merges returns the learned merges in selection order.
func (t *Tokenizer) Merges() []Merge {
	out := make([]Merge, len(t.merges))
	copy(out, t.merges)
	return out
}

// TrainedTokens returns the training corpus as the trainer left it, every
// word concatenated. It is nil for a tokenizer obtained from Load.
func (t *Tokenizer) TrainedTokens() []int32 {
	if t.trained == nil {
		return nil
	}
	out := make([]int32, len(t.trained))
	copy(out, t.trained)
	return out
}

// WithWorkers returns a copy of t whose EncodeBatch runs at most n encoders
// at once. t itself is unchanged.
func (t *Tokenizer) WithWorkers(n int) *Tokenizer {
	c := *t
	c.opts.Workers = n
	return &c
}

// Options returns the options the tokenizer was trained or loaded with.
func (t *Tokenizer) Options() Options { return t.opts }

// Save writes the vocabulary, merges and training options to path in the
// .bpev format.
func (t *Tokenizer) Save(path string) error {
	h := serialization.Header{
		Language:     t.opts.Language,
		Iterations:   t.opts.Iterations,
		MinFrequency: t.opts.MinFrequency,
		UnknownToken: t.enc.UnkToken(),
		Tokens:       t.enc.Vocabulary().Tokens(),
		Special:      t.enc.Vocabulary().Specials(),
		Merges:       make([]serialization.MergeMeta, len(t.merges)),
	}
	for i, m := range t.merges {
		h.Merges[i] = serialization.MergeMeta{
			Left:      m.Left,
			Right:     m.Right,
			Result:    m.Result,
			Count:     m.Count,
			Iteration: m.Iteration,
		}
	}

	if err := serialization.WriteFile(path, h); err != nil {
		return err
	}
	t.logger.Info("saved vocabulary", "path", path, "tokens", len(h.Tokens), "merges", len(h.Merges))
	return nil
}

// Load reads a .bpev file written by Save, validating it strictly.
func Load(path string) (*Tokenizer, error) {
	return LoadWithLogger(path, nil)
}

// LoadWithLogger is Load with an explicit logger for later Save calls.
func LoadWithLogger(path string, logger *slog.Logger) (*Tokenizer, error) {
	r, err := serialization.ReadFile(path, serialization.ReaderOptions{ValidationLevel: serialization.ValidationStrict})
	if err != nil {
		return nil, err
	}
	h := r.Header()

	v, err := vocab.FromTokens(h.Tokens, h.Special)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	v.Freeze()

	opts := Options{
		Language:     h.Language,
		Iterations:   h.Iterations,
		MinFrequency: h.MinFrequency,
		UnknownToken: h.Tokens[h.UnknownToken],
		Logger:       logger,
	}
	t, err := newTokenizer(v, h.UnknownToken, opts, logutil.Or(logger))
	if err != nil {
		return nil, err
	}

	t.merges = make([]trainer.Merge, len(h.Merges))
	for i, m := range h.Merges {
		t.merges[i] = trainer.Merge{
			Left:      m.Left,
			Right:     m.Right,
			Result:    m.Result,
			Count:     m.Count,
			Iteration: m.Iteration,
		}
	}
	return t, nil
}

// NewTikToken returns an OpenAI encoding such as "cl100k_base", for
// comparing token counts against a trained vocabulary.
func NewTikToken(encodingName string) (Encoder, error) {
	tok, err := tokenizer.NewTikToken(encodingName)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// NewTikTokenForModel returns the tiktoken encoding used by a model, for
// example "gpt-4".
func NewTikTokenForModel(modelName string) (Encoder, error) {
	tok, err := tokenizer.NewTikTokenForModel(modelName)
	if err != nil {
		return nil, err
	}
	return tok, nil
}
