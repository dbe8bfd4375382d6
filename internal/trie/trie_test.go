package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bpe/internal/vocab"
)

func newTestTrie(t *testing.T, tokens ...string) *Trie {
	t.Helper()
	tr := New()
	for i, tok := range tokens {
		require.NoError(t, tr.Insert(tok, int32(i)))
	}
	return tr
}

func TestSearchLongest(t *testing.T) {
	// ids: a=0 ab=1 abcd=2 b=3
	tr := newTestTrie(t, "a", "ab", "abcd", "b")

	tests := []struct {
		name    string
		text    string
		start   int
		wantID  int32
		wantLen int
		wantOK  bool
	}{
		{"longest wins", "abcd", 0, 2, 4, true},
		{"falls back to shorter terminal", "abce", 0, 1, 2, true},
		{"walk stops before terminal", "abc", 0, 1, 2, true},
		{"single rune", "a", 0, 0, 1, true},
		{"offset start", "xab", 1, 1, 2, true},
		{"no match", "xyz", 0, -1, 0, false},
		{"start at end", "ab", 2, -1, 0, false},
		{"negative start", "ab", -1, -1, 0, false},
		{"mid text", "aab", 1, 1, 2, true},
		{"b only", "bcd", 0, 3, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, n, ok := tr.SearchLongest([]rune(tt.text), tt.start)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantLen, n)
		})
	}
}

func TestSearchLongest_NoTerminalPrefix(t *testing.T) {
	// "abc" is a path but neither "a" nor "ab" ends a token.
	tr := newTestTrie(t, "abc")

	_, _, ok := tr.SearchLongest([]rune("abx"), 0)
	assert.False(t, ok)

	id, n, ok := tr.SearchLongest([]rune("abcabc"), 0)
	require.True(t, ok)
	assert.Equal(t, int32(0), id)
	assert.Equal(t, 3, n)
}

func TestSearchLongest_IsLongestAmongPrefixes(t *testing.T) {
	tokens := []string{"t", "th", "the", "them", "e", "m", "he", "hem"}
	tr := newTestTrie(t, tokens...)
	text := []rune("themthehem")

	for start := range text {
		id, n, ok := tr.SearchLongest(text, start)

		best := 0
		for _, tok := range tokens {
			r := []rune(tok)
			if start+len(r) <= len(text) && string(text[start:start+len(r)]) == tok {
				best = max(best, len(r))
			}
		}
		if best == 0 {
			assert.False(t, ok, "start %d", start)
			continue
		}
		require.True(t, ok, "start %d", start)
		assert.Equal(t, best, n, "start %d", start)
		assert.Equal(t, string(text[start:start+n]), tokens[id])
	}
}

func TestSearchLongest_Unicode(t *testing.T) {
	tr := newTestTrie(t, "ہ", "ہے", "ی")

	id, n, ok := tr.SearchLongest([]rune("ہےی"), 0)
	require.True(t, ok)
	assert.Equal(t, int32(1), id)
	assert.Equal(t, 2, n)
}

func TestInsert(t *testing.T) {
	tr := New()
	assert.ErrorIs(t, tr.Insert("", 0), ErrEmptyToken)

	require.NoError(t, tr.Insert("abc", 0))
	require.NoError(t, tr.Insert("ab", 1))
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 3, tr.MaxDepth())

	// Replacing keeps the count.
	require.NoError(t, tr.Insert("ab", 7))
	assert.Equal(t, 2, tr.Len())
	id, _, ok := tr.SearchLongest([]rune("ab"), 0)
	require.True(t, ok)
	assert.Equal(t, int32(7), id)
}

func TestBuild_SkipsSpecials(t *testing.T) {
	v := vocab.FromCorpus("<>knu")
	_, err := v.Add("un")
	require.NoError(t, err)
	unk, err := v.AddSpecial("<unk>")
	require.NoError(t, err)

	tr := Build(v)
	assert.Equal(t, v.Size()-1, tr.Len())

	id, n, ok := tr.SearchLongest([]rune("<unk>"), 0)
	require.True(t, ok)
	assert.NotEqual(t, unk, id)
	assert.Equal(t, 1, n)
}
