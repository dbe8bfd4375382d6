package pretokenize

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize composes text to NFC and lowercases it with the casing rules of
// tag. Training and encoding must use the same tag or ids will not line up.
func Normalize(text, tag string) string {
	// A fresh Caser per call; Casers keep state and are not safe to share.
	return cases.Lower(language.Make(tag)).String(norm.NFC.String(text))
}
