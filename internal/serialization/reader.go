package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReaderOptions configures the behavior of Reader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level, strict by default
}

// Reader parses a .bpev stream.
type Reader struct {
	header   Header
	flags    uint32
	version  uint32
	checksum [32]byte
}

// NewReader reads and validates a complete .bpev stream from r.
func NewReader(r io.Reader, opts ReaderOptions) (*Reader, error) {
	reader := &Reader{}

	fixedHeader := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixedHeader); err != nil {
		return nil, fmt.Errorf("failed to read fixed header: %w", err)
	}

	// 0x00-0x03: magic
	if string(fixedHeader[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}

	// 0x04-0x07: version
	reader.version = binary.LittleEndian.Uint32(fixedHeader[4:8])
	if reader.version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, reader.version, FormatVersion)
	}

	// 0x08-0x0B: flags
	reader.flags = binary.LittleEndian.Uint32(fixedHeader[8:12])

	// 0x10-0x17: header size
	headerSize := binary.LittleEndian.Uint64(fixedHeader[16:24])
	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}

	// 0x18-0x1F: token count
	tokenCount := binary.LittleEndian.Uint64(fixedHeader[24:32])
	if tokenCount > MaxTokenCount {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyTokens, tokenCount, MaxTokenCount)
	}

	// 0x20-0x3F: SHA-256 checksum
	copy(reader.checksum[:], fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header JSON: %w", err)
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(headerBytes), reader.checksum); err != nil {
			return nil, err
		}
	}

	if err := json.Unmarshal(headerBytes, &reader.header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	if uint64(len(reader.header.Tokens)) != tokenCount {
		return nil, fmt.Errorf("%w: fixed header says %d, header has %d",
			ErrTokenCountMismatch, tokenCount, len(reader.header.Tokens))
	}

	if err := ValidateHeader(&reader.header, opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return reader, nil
}

// ReadFile opens path and parses it with NewReader.
func ReadFile(path string, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for vocabulary loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return NewReader(file, opts)
}

// Header returns the parsed header.
func (r *Reader) Header() Header {
	return r.header
}

// Flags returns the flags word of the fixed header.
func (r *Reader) Flags() uint32 {
	return r.flags
}

// Checksum returns the stored SHA-256 of the header JSON.
func (r *Reader) Checksum() [32]byte {
	return r.checksum
}
