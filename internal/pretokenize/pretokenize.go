// Package pretokenize splits normalized text into the word chunks that BPE
// training merges within.
//
// Every PreTokenizer guarantees that concatenating the returned chunks
// reproduces the input exactly, whitespace included.
package pretokenize

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/language"
)

// ErrUnsupportedLanguage is returned for malformed language tags.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// GPT2Pattern is the GPT-2 word split pattern. The \s+(?!\S) alternative
// leaves the last space of a run for the following word, which needs the
// lookahead support of regexp2.
const GPT2Pattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

// PreTokenizer splits text into word chunks.
type PreTokenizer interface {
	Split(text string) ([]string, error)
}

// Regex splits text with a regular expression whose matches tile the input.
type Regex struct {
	re *regexp2.Regexp
}

// NewRegex returns a Regex using GPT2Pattern.
func NewRegex() *Regex {
	return &Regex{re: regexp2.MustCompile(GPT2Pattern, regexp2.None)}
}

// NewRegexPattern compiles a custom split pattern.
func NewRegexPattern(pattern string) (*Regex, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("failed to compile split pattern: %w", err)
	}
	return &Regex{re: re}, nil
}

// Split returns all matches in order. Text between matches, which a custom
// pattern may leave uncovered, is emitted as its own chunk.
func (p *Regex) Split(text string) ([]string, error) {
	var chunks []string
	runes := []rune(text)
	last := 0

	m, err := p.re.FindStringMatch(text)
	for ; m != nil && err == nil; m, err = p.re.FindNextMatch(m) {
		// Match.Index and Match.Length count runes.
		if m.Index > last {
			chunks = append(chunks, string(runes[last:m.Index]))
		}
		if m.Length > 0 {
			chunks = append(chunks, m.String())
		}
		last = m.Index + m.Length
	}
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	if last < len(runes) {
		chunks = append(chunks, string(runes[last:]))
	}
	return chunks, nil
}

// Whitespace splits text into runs of non-space runes, each carrying the
// whitespace that precedes it. Trailing whitespace is its own chunk.
type Whitespace struct{}

// NewWhitespace returns a Whitespace splitter.
func NewWhitespace() Whitespace {
	return Whitespace{}
}

// Split implements PreTokenizer.
func (Whitespace) Split(text string) ([]string, error) {
	var chunks []string
	var b strings.Builder
	inWord := false

	for _, r := range text {
		space := unicode.IsSpace(r)
		if space && inWord {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		inWord = !space
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks, nil
}

// ForLanguage picks the splitter for a BCP-47 tag: English gets the GPT-2
// regex, everything else splits on whitespace.
func ForLanguage(tag string) (PreTokenizer, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnsupportedLanguage, tag, err)
	}
	if base, _ := t.Base(); base.String() == "en" {
		return NewRegex(), nil
	}
	return NewWhitespace(), nil
}
