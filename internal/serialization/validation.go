package serialization

import (
	"fmt"
	"unicode/utf8"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize = 100 * 1024 * 1024 // 100MB - maximum header size, which also bounds token length
	MaxTokenCount = 10_000_000        // Maximum number of tokens in a file
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default, recommended for production).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks tokens and special ids but not merges.
	ValidationNormal
	// ValidationNone skips validation (dangerous! Use only with trusted input).
	ValidationNone
)

// ValidateTokens checks that tokens are non-empty, valid UTF-8 and unique.
// Unique tokens are what keep the rebuilt vocabulary a bijection.
func ValidateTokens(tokens []string) error {
	if len(tokens) > MaxTokenCount {
		return &ValidationError{
			Type:    "too_many_tokens",
			ID:      -1,
			Details: fmt.Sprintf("got %d, max %d", len(tokens), MaxTokenCount),
		}
	}

	seen := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		id := int32(i) //nolint:gosec // G115: bounded by MaxTokenCount.
		switch {
		case tok == "":
			return &ValidationError{Type: "empty_token", ID: id, Details: "tokens must be non-empty"}
		case !utf8.ValidString(tok):
			return &ValidationError{Type: "invalid_utf8", ID: id, Details: "token is not valid UTF-8"}
		}
		if prev, ok := seen[tok]; ok {
			return &ValidationError{
				Type:    "duplicate_token",
				Token:   tok,
				ID:      id,
				Details: fmt.Sprintf("already assigned id %d", prev),
			}
		}
		seen[tok] = i
	}
	return nil
}

// ValidateSpecial checks that special ids are in range and that the unknown
// token is one of them.
func ValidateSpecial(h *Header) error {
	n := int32(len(h.Tokens)) //nolint:gosec // G115: bounded by MaxTokenCount.
	isSpecial := make(map[int32]bool, len(h.Special))
	for _, id := range h.Special {
		if id < 0 || id >= n {
			return &ValidationError{Type: "special_out_of_range", ID: id, Details: fmt.Sprintf("vocabulary size %d", n)}
		}
		isSpecial[id] = true
	}
	if !isSpecial[h.UnknownToken] {
		return &ValidationError{Type: "unknown_not_special", ID: h.UnknownToken, Details: "unknown token must be a special id"}
	}
	return nil
}

// ValidateMerges checks that every merge concatenates to its result and that
// every learned multi-rune token was created by a merge of two older entries.
// Single-rune tokens must all precede the first learned token.
//
//nolint:gocognit // One pass per invariant keeps the error types distinct.
func ValidateMerges(h *Header) error {
	n := int32(len(h.Tokens)) //nolint:gosec // G115: bounded by MaxTokenCount.
	special := make(map[int32]bool, len(h.Special))
	for _, id := range h.Special {
		special[id] = true
	}

	created := make(map[int32]bool)
	for _, m := range h.Merges {
		if m.Left < 0 || m.Left >= n || m.Right < 0 || m.Right >= n || m.Result < 0 || m.Result >= n {
			return &ValidationError{
				Type:    "merge_out_of_range",
				ID:      m.Result,
				Details: fmt.Sprintf("merge (%d, %d) -> %d, vocabulary size %d", m.Left, m.Right, m.Result, n),
			}
		}
		if h.Tokens[m.Left]+h.Tokens[m.Right] != h.Tokens[m.Result] {
			return &ValidationError{
				Type:    "bad_merge",
				Token:   h.Tokens[m.Result],
				ID:      m.Result,
				Details: fmt.Sprintf("%q + %q", h.Tokens[m.Left], h.Tokens[m.Right]),
			}
		}
		if m.Left < m.Result && m.Right < m.Result {
			created[m.Result] = true
		}
	}

	learned := false
	for i, tok := range h.Tokens {
		id := int32(i) //nolint:gosec // G115: bounded by MaxTokenCount.
		if special[id] {
			continue
		}
		if utf8.RuneCountInString(tok) == 1 {
			if learned {
				return &ValidationError{
					Type:    "late_base_token",
					Token:   tok,
					ID:      id,
					Details: "single-rune token after learned tokens",
				}
			}
			continue
		}
		learned = true
		if !created[id] {
			return &ValidationError{
				Type:    "orphan_token",
				Token:   tok,
				ID:      id,
				Details: "no merge of two older tokens produces it",
			}
		}
	}
	return nil
}

// ValidateHeader performs header validation at the given level.
func ValidateHeader(h *Header, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if err := ValidateTokens(h.Tokens); err != nil {
		return err
	}
	if err := ValidateSpecial(h); err != nil {
		return err
	}

	// Merge checks only in strict mode.
	if level == ValidationStrict {
		if err := ValidateMerges(h); err != nil {
			return err
		}
	}

	return nil
}
