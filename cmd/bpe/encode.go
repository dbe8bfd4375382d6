package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// EncodeHandler prints the ids of TEXT on one line, or one line of ids per
// line of standard input.
func EncodeHandler(cmd *cobra.Command, args []string) error {
	tok, cfg, err := loadVocab(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 && args[0] != "-" {
		ids, err := tok.Encode(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatIDs(ids))
		return nil
	}

	lines, err := readLines(cmd.InOrStdin())
	if err != nil {
		return err
	}

	workers := cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers, _ = cmd.Flags().GetInt("workers")
	}
	batch, err := tok.WithWorkers(workers).EncodeBatch(cmd.Context(), lines)
	if err != nil {
		return err
	}
	for _, ids := range batch {
		fmt.Fprintln(out, formatIDs(ids))
	}
	return nil
}

// DecodeHandler prints the text of the given ids.
func DecodeHandler(cmd *cobra.Command, args []string) error {
	tok, _, err := loadVocab(cmd)
	if err != nil {
		return err
	}

	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	text, err := tok.Decode(ids)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func formatIDs(ids []int32) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, " ")
}

// parseIDs accepts ids as separate arguments or comma separated.
func parseIDs(args []string) ([]int32, error) {
	var ids []int32
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			n, err := strconv.ParseInt(field, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid token id %q: %w", field, err)
			}
			ids = append(ids, int32(n))
		}
	}
	return ids, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
