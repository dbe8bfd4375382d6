// Package trie provides the prefix tree used for greedy longest-match
// encoding.
//
// Nodes live in one slice and are addressed by int32 handles; all edges share
// a single map keyed by (parent handle, rune), so inserting a token costs no
// per-node map allocations.
package trie

import (
	"errors"

	"github.com/born-ml/bpe/internal/vocab"
)

// ErrEmptyToken is returned when inserting an empty string.
var ErrEmptyToken = errors.New("empty token")

const (
	root = int32(0)
	none = int32(-1)
)

type edge struct {
	parent int32
	r      rune
}

// Trie is a character prefix tree mapping token strings to ids. It is safe
// for concurrent reads once no more Inserts happen.
type Trie struct {
	terminal []int32 // terminal[node] is the id ending at node, or -1.
	edges    map[edge]int32
	tokens   int
	maxDepth int
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{
		terminal: []int32{none},
		edges:    make(map[edge]int32),
	}
}

// Build returns a trie of every non-special entry in v.
func Build(v *vocab.Vocabulary) *Trie {
	t := New()
	for id, tok := range v.Tokens() {
		if v.IsSpecial(int32(id)) { //nolint:gosec // G115: vocabulary size < 2^31.
			continue
		}
		// Vocabulary tokens are never empty.
		_ = t.Insert(tok, int32(id)) //nolint:gosec // G115: vocabulary size < 2^31.
	}
	return t
}

// Insert adds token with the given id. Re-inserting a token replaces its id.
func (t *Trie) Insert(token string, id int32) error {
	if token == "" {
		return ErrEmptyToken
	}

	node := root
	depth := 0
	for _, r := range token {
		depth++
		next, ok := t.edges[edge{node, r}]
		if !ok {
			next = int32(len(t.terminal)) //nolint:gosec // G115: node count < 2^31.
			t.terminal = append(t.terminal, none)
			t.edges[edge{node, r}] = next
		}
		node = next
	}

	if t.terminal[node] == none {
		t.tokens++
	}
	t.terminal[node] = id
	t.maxDepth = max(t.maxDepth, depth)
	return nil
}

// SearchLongest walks text from start and returns the id and rune length of
// the longest token that is a prefix of text[start:]. The walk stops at the
// first rune without a child or at the end of text; the match returned is the
// deepest terminal seen on the way, not the deepest node reached.
func (t *Trie) SearchLongest(text []rune, start int) (id int32, length int, ok bool) {
	if start < 0 || start >= len(text) {
		return none, 0, false
	}

	id = none
	node := root
	for i := start; i < len(text); i++ {
		next, found := t.edges[edge{node, text[i]}]
		if !found {
			break
		}
		node = next
		if tid := t.terminal[node]; tid != none {
			id = tid
			length = i - start + 1
		}
	}
	return id, length, length > 0
}

// Len returns the number of tokens stored.
func (t *Trie) Len() int {
	return t.tokens
}

// MaxDepth returns the rune length of the longest token stored.
func (t *Trie) MaxDepth() int {
	return t.maxDepth
}
