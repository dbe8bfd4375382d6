// Package vocab implements the bijective token/id table that BPE training
// grows and the encoder reads.
package vocab

import (
	"errors"
	"fmt"
	"sort"
)

// Common errors.
var (
	ErrUnknownToken   = errors.New("unknown token")
	ErrInvalidID      = errors.New("invalid token id")
	ErrEmptyToken     = errors.New("empty token")
	ErrDuplicateToken = errors.New("token already in vocabulary")
	ErrFrozen         = errors.New("vocabulary is frozen")
)

// Vocabulary maps token strings to dense int32 ids and back.
//
// stoi and itos are only ever written together, so for every id in
// [0, Size()) stoi[itos[id]] == id.
type Vocabulary struct {
	stoi    map[string]int32
	itos    []string
	special map[int32]bool
	frozen  bool
}

// New creates an empty vocabulary.
func New() *Vocabulary {
	return &Vocabulary{
		stoi:    make(map[string]int32),
		special: make(map[int32]bool),
	}
}

// FromCorpus creates a vocabulary holding every distinct rune of text,
// sorted by code point so ids are deterministic.
func FromCorpus(text string) *Vocabulary {
	seen := make(map[rune]struct{})
	for _, r := range text {
		seen[r] = struct{}{}
	}

	chars := make([]rune, 0, len(seen))
	for r := range seen {
		chars = append(chars, r)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })

	v := New()
	v.itos = make([]string, 0, len(chars))
	for _, r := range chars {
		v.insert(string(r))
	}
	return v
}

// FromTokens rebuilds a vocabulary from tokens in id order, marking the
// given ids as special. It is the inverse of Tokens and Specials.
func FromTokens(tokens []string, specials []int32) (*Vocabulary, error) {
	v := New()
	v.itos = make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if tok == "" {
			return nil, fmt.Errorf("token %d: %w", i, ErrEmptyToken)
		}
		if prev, ok := v.stoi[tok]; ok {
			return nil, fmt.Errorf("token %d %q (first seen as %d): %w", i, tok, prev, ErrDuplicateToken)
		}
		v.insert(tok)
	}
	for _, id := range specials {
		if id < 0 || int(id) >= len(v.itos) {
			return nil, fmt.Errorf("special %w: %d", ErrInvalidID, id)
		}
		v.special[id] = true
	}
	return v, nil
}

// Add returns the id of token, inserting it with the next free id if absent.
func (v *Vocabulary) Add(token string) (int32, error) {
	if token == "" {
		return -1, ErrEmptyToken
	}
	if id, ok := v.stoi[token]; ok {
		return id, nil
	}
	if v.frozen {
		return -1, fmt.Errorf("add %q: %w", token, ErrFrozen)
	}
	return v.insert(token), nil
}

// AddSpecial inserts a reserved token such as UNKNOWN. Unlike Add it refuses
// strings that are already present, so a special id never aliases a learned one.
func (v *Vocabulary) AddSpecial(token string) (int32, error) {
	if token == "" {
		return -1, ErrEmptyToken
	}
	if _, ok := v.stoi[token]; ok {
		return -1, fmt.Errorf("add special %q: %w", token, ErrDuplicateToken)
	}
	if v.frozen {
		return -1, fmt.Errorf("add special %q: %w", token, ErrFrozen)
	}
	id := v.insert(token)
	v.special[id] = true
	return id, nil
}

func (v *Vocabulary) insert(token string) int32 {
	id := int32(len(v.itos)) //nolint:gosec // G115: vocabulary size < 2^31.
	v.stoi[token] = id
	v.itos = append(v.itos, token)
	return id
}

// ID looks up the id of token.
func (v *Vocabulary) ID(token string) (int32, error) {
	id, ok := v.stoi[token]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}
	return id, nil
}

// Token looks up the string of id.
func (v *Vocabulary) Token(id int32) (string, error) {
	if id < 0 || int(id) >= len(v.itos) {
		return "", fmt.Errorf("%w: %d (size %d)", ErrInvalidID, id, len(v.itos))
	}
	return v.itos[id], nil
}

// Contains reports whether token is present.
func (v *Vocabulary) Contains(token string) bool {
	_, ok := v.stoi[token]
	return ok
}

// IsSpecial reports whether id was added with AddSpecial.
func (v *Vocabulary) IsSpecial(id int32) bool {
	return v.special[id]
}

// Specials returns the special ids in ascending order.
func (v *Vocabulary) Specials() []int32 {
	ids := make([]int32, 0, len(v.special))
	for id := range v.special {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Size returns the number of entries, specials included.
func (v *Vocabulary) Size() int {
	return len(v.itos)
}

// Tokens returns a copy of all token strings in id order.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.itos))
	copy(out, v.itos)
	return out
}

// Freeze makes the vocabulary read-only. Lookups of existing tokens through
// Add still succeed.
func (v *Vocabulary) Freeze() {
	v.frozen = true
}

// Frozen reports whether Freeze has been called.
func (v *Vocabulary) Frozen() bool {
	return v.frozen
}
