package serialization

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHeader_Valid(t *testing.T) {
	h := testHeader()
	for _, level := range []ValidationLevel{ValidationStrict, ValidationNormal, ValidationNone} {
		assert.NoError(t, ValidateHeader(&h, level))
	}
}

func TestValidateHeader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(h *Header)
		wantType string
		normal   bool // also rejected at ValidationNormal
	}{
		{
			name:     "empty token",
			mutate:   func(h *Header) { h.Tokens[1] = "" },
			wantType: "empty_token",
			normal:   true,
		},
		{
			name:     "duplicate token",
			mutate:   func(h *Header) { h.Tokens[1] = "a" },
			wantType: "duplicate_token",
			normal:   true,
		},
		{
			name:     "invalid utf8",
			mutate:   func(h *Header) { h.Tokens[1] = "\xff" },
			wantType: "invalid_utf8",
			normal:   true,
		},
		{
			name:     "special out of range",
			mutate:   func(h *Header) { h.Special = []int32{3, 10} },
			wantType: "special_out_of_range",
			normal:   true,
		},
		{
			name:     "unknown not special",
			mutate:   func(h *Header) { h.UnknownToken = 2 },
			wantType: "unknown_not_special",
			normal:   true,
		},
		{
			name:     "merge does not concatenate",
			mutate:   func(h *Header) { h.Merges = []MergeMeta{{Left: 1, Right: 0, Result: 2}} },
			wantType: "bad_merge",
		},
		{
			name:     "merge out of range",
			mutate:   func(h *Header) { h.Merges = []MergeMeta{{Left: 0, Right: 9, Result: 2}} },
			wantType: "merge_out_of_range",
		},
		{
			name:     "learned token without merge",
			mutate:   func(h *Header) { h.Merges = nil },
			wantType: "orphan_token",
		},
		{
			name: "base token after learned token",
			mutate: func(h *Header) {
				h.Tokens = []string{"a", "b", "ab", "c", "<unk>"}
				h.Special = []int32{4}
				h.UnknownToken = 4
			},
			wantType: "late_base_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHeader()
			tt.mutate(&h)

			err := ValidateHeader(&h, ValidationStrict)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantType, verr.Type)
			assert.NotEmpty(t, verr.Error())

			err = ValidateHeader(&h, ValidationNormal)
			if tt.normal {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, ValidateHeader(&h, ValidationNone))
		})
	}
}

func TestValidateMerges_ReusedResult(t *testing.T) {
	// "aab" is created from (a, ab) and later also reached by (aa, b).
	h := Header{
		Tokens:       []string{"a", "b", "ab", "aab", "aa", "<unk>"},
		Special:      []int32{5},
		UnknownToken: 5,
		Merges: []MergeMeta{
			{Left: 0, Right: 1, Result: 2},
			{Left: 0, Right: 2, Result: 3},
			{Left: 0, Right: 0, Result: 4},
			{Left: 4, Right: 1, Result: 3},
		},
	}
	assert.NoError(t, ValidateHeader(&h, ValidationStrict))
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		err  *ValidationError
		want string
	}{
		{&ValidationError{Type: "t", Token: "ab", ID: 2, Details: "d"}, `t: token "ab" (id 2): d`},
		{&ValidationError{Type: "t", ID: 4, Details: "d"}, "t: id 4: d"},
		{&ValidationError{Type: "t", ID: -1, Details: "d"}, "t: d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestValidateTokens_LongTokenAccepted(t *testing.T) {
	// Batch merging doubles token length per iteration; only the header size
	// bounds a token.
	long := strings.Repeat("a", 64*1024)
	assert.NoError(t, ValidateTokens([]string{"a", long}))
}
