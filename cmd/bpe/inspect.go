package main

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/bpe/tokenizer"
)

// VocabHandler lists vocabulary entries with their kind.
func VocabHandler(cmd *cobra.Command, args []string) error {
	tok, _, err := loadVocab(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	opts := tok.Options()
	fmt.Fprintf(cmd.OutOrStdout(), "language %s, %d iterations, min frequency %d, unknown %q, %d tokens, %d merges\n\n",
		opts.Language, opts.Iterations, opts.MinFrequency, opts.UnknownToken, tok.VocabSize(), len(tok.Merges()))

	tokens := tok.Tokens()
	if limit > 0 && limit < len(tokens) {
		tokens = tokens[:limit]
	}

	var data [][]string
	for i, s := range tokens {
		id := int32(i) //nolint:gosec // G115: bounded by vocabulary size.
		kind := "merged"
		switch {
		case tok.IsSpecialToken(id):
			kind = "special"
		case utf8.RuneCountInString(s) == 1:
			kind = "base"
		}
		data = append(data, []string{strconv.Itoa(i), strconv.Quote(s), kind})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"ID", "TOKEN", "KIND"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

// CompareHandler encodes FILE with the trained vocabulary and a tiktoken
// encoding and prints both token counts.
func CompareHandler(cmd *cobra.Command, args []string) error {
	tok, _, err := loadVocab(cmd)
	if err != nil {
		return err
	}
	text, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	baselineName, _ := cmd.Flags().GetString("baseline")
	baseline, err := tokenizer.NewTikToken(baselineName)
	if err != nil {
		return fmt.Errorf("baseline %s: %w", baselineName, err)
	}

	runes := utf8.RuneCountInString(text)
	var data [][]string
	for _, e := range []struct {
		name string
		enc  tokenizer.Encoder
	}{
		{"trained", tok},
		{baselineName, baseline},
	} {
		ids, err := e.enc.Encode(text)
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		unknown := 0
		for _, id := range ids {
			if id == e.enc.UnkToken() {
				unknown++
			}
		}
		ratio := "-"
		if len(ids) > 0 {
			ratio = strconv.FormatFloat(float64(runes)/float64(len(ids)), 'f', 2, 64)
		}
		data = append(data, []string{
			e.name,
			strconv.Itoa(e.enc.VocabSize()),
			strconv.Itoa(len(ids)),
			strconv.Itoa(unknown),
			ratio,
		})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"ENCODER", "VOCAB", "TOKENS", "UNKNOWN", "CHARS/TOKEN"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}
