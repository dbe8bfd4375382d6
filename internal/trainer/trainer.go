// Package trainer implements batch byte-pair-encoding training over
// pre-tokenized words.
//
// Each iteration counts every adjacent id pair across all words, selects
// every pair seen at least MinFrequency times, adds their concatenations to
// the vocabulary and rewrites all words in a single left-to-right pass that
// applies any selected pair. Several merges can therefore land in one
// iteration, and overlapping candidates are resolved by position, not rank.
package trainer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/born-ml/bpe/internal/logutil"
	"github.com/born-ml/bpe/internal/vocab"
)

// ErrInvalidConfig is returned for negative iteration counts or thresholds.
var ErrInvalidConfig = errors.New("invalid trainer config")

// Config controls a training run.
type Config struct {
	Iterations   int          // Number of merge iterations to run.
	MinFrequency int          // Minimum pair count for a pair to merge; 0 admits every pair.
	Logger       *slog.Logger // Defaults to slog.Default().
}

// Pair is an ordered pair of adjacent token ids.
type Pair struct {
	Left  int32
	Right int32
}

// Merge records one selected pair and the id its concatenation maps to.
type Merge struct {
	Left      int32 `json:"left"`
	Right     int32 `json:"right"`
	Result    int32 `json:"result"`
	Count     int   `json:"count"`
	Iteration int   `json:"iteration"`
}

// IterationStats summarizes one training iteration.
type IterationStats struct {
	Iteration    int
	Pairs        int // Distinct adjacent pairs counted.
	Selected     int // Pairs at or above MinFrequency.
	Added        int // New vocabulary entries.
	VocabSize    int
	StreamLength int // Total tokens across all words after the rewrite.
}

// Result is the output of Train.
type Result struct {
	Words      [][]int32 // Per-word token ids after the final iteration.
	Merges     []Merge   // Selected pairs in selection order.
	Iterations []IterationStats
}

// Tokens returns the trained token stream, all words concatenated.
func (r *Result) Tokens() []int32 {
	n := 0
	for _, w := range r.Words {
		n += len(w)
	}
	out := make([]int32, 0, n)
	for _, w := range r.Words {
		out = append(out, w...)
	}
	return out
}

// Trainer runs BPE training. It is not safe for concurrent use.
type Trainer struct {
	cfg    Config
	logger *slog.Logger
}

// New validates cfg and returns a Trainer.
func New(cfg Config) (*Trainer, error) {
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("%w: iterations %d < 0", ErrInvalidConfig, cfg.Iterations)
	}
	if cfg.MinFrequency < 0 {
		return nil, fmt.Errorf("%w: min frequency %d < 0", ErrInvalidConfig, cfg.MinFrequency)
	}
	return &Trainer{cfg: cfg, logger: logutil.Or(cfg.Logger)}, nil
}

// Train merges pairs in v for the configured number of iterations. v must
// contain every rune of words; it is mutated in place.
func (t *Trainer) Train(v *vocab.Vocabulary, words []string) (*Result, error) {
	seqs, err := toSequences(v, words)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for it := 1; it <= t.cfg.Iterations; it++ {
		counts := CountPairs(seqs)
		selected := t.selectPairs(v, counts)
		if len(selected) == 0 {
			logutil.Trace(t.logger, "no pair reaches min frequency",
				"iteration", it, "pairs", len(counts), "min_frequency", t.cfg.MinFrequency)
		}

		before := v.Size()
		merged := make(map[Pair]int32, len(selected))
		for _, c := range selected {
			left, _ := v.Token(c.pair.Left)
			right, _ := v.Token(c.pair.Right)
			id, err := v.Add(left + right)
			if err != nil {
				return nil, fmt.Errorf("iteration %d: merge %q+%q: %w", it, left, right, err)
			}
			merged[c.pair] = id
			res.Merges = append(res.Merges, Merge{
				Left:      c.pair.Left,
				Right:     c.pair.Right,
				Result:    id,
				Count:     c.count,
				Iteration: it,
			})
			logutil.Trace(t.logger, "merge", "iteration", it, "left", left, "right", right, "id", id, "count", c.count)
		}

		streamLen := 0
		for i, seq := range seqs {
			seqs[i] = applyMerges(seq, merged)
			streamLen += len(seqs[i])
		}

		stats := IterationStats{
			Iteration:    it,
			Pairs:        len(counts),
			Selected:     len(selected),
			Added:        v.Size() - before,
			VocabSize:    v.Size(),
			StreamLength: streamLen,
		}
		res.Iterations = append(res.Iterations, stats)
		t.logger.Debug("bpe iteration",
			"iteration", it,
			"pairs", stats.Pairs,
			"selected", stats.Selected,
			"added", stats.Added,
			"vocab", stats.VocabSize,
			"stream", stats.StreamLength)
	}

	res.Words = seqs
	t.logger.Info("bpe training finished",
		"iterations", t.cfg.Iterations,
		"words", len(seqs),
		"merges", len(res.Merges),
		"vocab", v.Size())
	return res, nil
}

func toSequences(v *vocab.Vocabulary, words []string) ([][]int32, error) {
	seqs := make([][]int32, len(words))
	for i, w := range words {
		seq := make([]int32, 0, len(w))
		for _, r := range w {
			id, err := v.ID(string(r))
			if err != nil {
				return nil, fmt.Errorf("word %d: %w", i, err)
			}
			seq = append(seq, id)
		}
		seqs[i] = seq
	}
	return seqs, nil
}

// CountPairs counts every adjacent pair in every sequence. Overlapping pairs
// such as the two (a, a) in "aaa" are counted independently.
func CountPairs(seqs [][]int32) map[Pair]int {
	counts := make(map[Pair]int)
	for _, seq := range seqs {
		for i := 0; i+1 < len(seq); i++ {
			counts[Pair{seq[i], seq[i+1]}]++
		}
	}
	return counts
}

type candidate struct {
	pair  Pair
	count int
	left  string
	right string
}

// selectPairs returns the pairs with count >= MinFrequency ordered by count
// descending, then by left and right token text, then by id.
func (t *Trainer) selectPairs(v *vocab.Vocabulary, counts map[Pair]int) []candidate {
	h := binaryheap.NewWith(compareCandidates)
	for p, n := range counts {
		if n < t.cfg.MinFrequency {
			continue
		}
		left, _ := v.Token(p.Left)
		right, _ := v.Token(p.Right)
		h.Push(candidate{pair: p, count: n, left: left, right: right})
	}

	out := make([]candidate, 0, h.Size())
	for {
		c, ok := h.Pop()
		if !ok {
			break
		}
		out = append(out, c.(candidate))
	}
	return out
}

func compareCandidates(a, b interface{}) int {
	x := a.(candidate)
	y := b.(candidate)
	switch {
	case x.count != y.count:
		// Higher counts pop first.
		if x.count > y.count {
			return -1
		}
		return 1
	case x.left != y.left:
		return strings.Compare(x.left, y.left)
	case x.right != y.right:
		return strings.Compare(x.right, y.right)
	case x.pair.Left != y.pair.Left:
		return int(x.pair.Left - y.pair.Left)
	default:
		return int(x.pair.Right - y.pair.Right)
	}
}

// applyMerges rewrites seq in one left-to-right pass. A pair found in merged
// collapses to its id and both positions are consumed.
func applyMerges(seq []int32, merged map[Pair]int32) []int32 {
	if len(merged) == 0 || len(seq) < 2 {
		return seq
	}
	out := make([]int32, 0, len(seq))
	for i := 0; i < len(seq); {
		if i+1 < len(seq) {
			if id, ok := merged[Pair{seq[i], seq[i+1]}]; ok {
				out = append(out, id)
				i += 2
				continue
			}
		}
		out = append(out, seq[i])
		i++
	}
	return out
}
