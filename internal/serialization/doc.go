// Package serialization provides the .bpev format for saving and loading
// trained vocabularies without retraining.
//
//	Format Structure:
//	  0x00 [4 bytes: Magic "BPEV"]
//	  0x04 [4 bytes: Version (uint32 LE)]
//	  0x08 [4 bytes: Flags (uint32 LE)]
//	  0x0C [4 bytes: Reserved]
//	  0x10 [8 bytes: Header Size (uint64 LE)]
//	  0x18 [8 bytes: Token Count (uint64 LE)]
//	  0x20 [32 bytes: SHA-256 of the header JSON]
//	  0x40 [Header: JSON, tokens in id order plus training metadata]
//
// The header carries everything needed to rebuild the vocabulary and its
// match trie: the token strings in id order, the special ids and the merge
// list that produced every multi-rune token.
//
// Example usage:
//
//	if err := serialization.WriteFile("en.bpev", header); err != nil {
//	    log.Fatal(err)
//	}
//
//	header, err := serialization.ReadFile("en.bpev", serialization.ReaderOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
package serialization
