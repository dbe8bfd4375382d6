package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/bpe/tokenizer"
)

// TrainHandler trains on CORPUS and writes the vocabulary. Flags override
// the config file and environment.
func TrainHandler(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("iterations") {
		cfg.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("min-frequency") {
		cfg.MinFrequency, _ = flags.GetInt("min-frequency")
	}
	if flags.Changed("lang") {
		cfg.Language, _ = flags.GetString("lang")
	}
	if flags.Changed("unk") {
		cfg.UnknownToken, _ = flags.GetString("unk")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	corpus, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	tok, err := tokenizer.Train(corpus, tokenizer.Options{
		Language:     cfg.Language,
		Iterations:   cfg.Iterations,
		MinFrequency: cfg.MinFrequency,
		UnknownToken: cfg.UnknownToken,
		Workers:      cfg.Workers,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	output, _ := flags.GetString("output")
	if output == "" {
		if args[0] == "-" {
			return fmt.Errorf("--output is required when reading the corpus from stdin")
		}
		output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".bpev"
	}
	if err := tok.Save(output); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d tokens, %d merges, %d corpus tokens\n",
		output, tok.VocabSize(), len(tok.Merges()), len(tok.TrainedTokens()))
	return nil
}
