// Package tokenizer turns a trained BPE vocabulary into an encoder/decoder.
//
// Implementations:
//   - BPETokenizer: greedy longest-match over a trie of the vocabulary,
//     falling back to the unknown token one rune at a time
//   - TikToken: OpenAI encodings (cl100k_base, p50k_base) used as a baseline
//
// Example usage:
//
//	v := vocab.FromCorpus(corpus)
//	// ... train, then:
//	unk, _ := v.AddSpecial("<unk>")
//	v.Freeze()
//
//	tok, err := tokenizer.NewBPETokenizer(v, unk)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ids, _ := tok.Encode("hello world")
//	text, err := tok.Decode(ids)
package tokenizer
