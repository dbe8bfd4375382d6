package serialization

import (
	"crypto/sha256"
	"time"
)

// Format constants.
const (
	MagicBytes      = "BPEV"
	FormatVersion   = 1
	FixedHeaderSize = 64   // 0x40 bytes
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Flags for the .bpev format.
const (
	FlagHasMerges   uint32 = 1 << 0 // bit 0: merge list included
	FlagHasMetadata uint32 = 1 << 1 // bit 1: custom metadata included
)

// Header is the JSON header of a .bpev file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	LibraryVersion string            `json:"library_version"`
	ID             string            `json:"id"` // Random UUID identifying this vocabulary
	CreatedAt      time.Time         `json:"created_at"`
	Language       string            `json:"language"`
	Iterations     int               `json:"iterations"`
	MinFrequency   int               `json:"min_frequency"`
	UnknownToken   int32             `json:"unknown_token"`
	Tokens         []string          `json:"tokens"`  // Token strings in id order
	Special        []int32           `json:"special"` // Ids added as special tokens
	Merges         []MergeMeta       `json:"merges,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// MergeMeta is one recorded merge: Tokens[Left]+Tokens[Right] == Tokens[Result].
type MergeMeta struct {
	Left   int32 `json:"left"`
	Right  int32 `json:"right"`
	Result int32 `json:"result"`

	Count     int `json:"count,omitempty"`     // Pair count when selected
	Iteration int `json:"iteration,omitempty"` // 1-based training iteration
}

func headerFlags(h *Header) uint32 {
	var flags uint32
	if len(h.Merges) > 0 {
		flags |= FlagHasMerges
	}
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	return flags
}

// ComputeChecksum computes the SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum returns ErrChecksumMismatch unless computed equals stored.
func ValidateChecksum(computed, stored [32]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}
