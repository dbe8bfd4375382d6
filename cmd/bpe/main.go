// Package main provides the bpe command line tool.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/bpe/internal/config"
	"github.com/born-ml/bpe/internal/logutil"
	"github.com/born-ml/bpe/tokenizer"
)

const version = "v0.1.0"

func main() {
	cobra.CheckErr(NewCLI().ExecuteContext(context.Background()))
}

// NewCLI builds the root command and its subcommands.
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bpe",
		Short: "Train and apply byte-pair-encoding vocabularies",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
	}

	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().Count("verbose", "Log debug output; repeat for per-merge trace output")
	rootCmd.SetUsageTemplate(rootCmd.UsageTemplate() + envUsage())

	trainCmd := &cobra.Command{
		Use:   "train CORPUS",
		Short: "Train a vocabulary from a text file",
		Args:  cobra.ExactArgs(1),
		RunE:  TrainHandler,
	}
	trainCmd.Flags().StringP("output", "o", "", "Output .bpev file (default: CORPUS with .bpev extension)")
	trainCmd.Flags().Int("iterations", 0, "Number of merge iterations")
	trainCmd.Flags().Int("min-frequency", 0, "Minimum pair count to merge")
	trainCmd.Flags().String("lang", "", "Language tag of the corpus")
	trainCmd.Flags().String("unk", "", "Unknown token string")

	encodeCmd := &cobra.Command{
		Use:   "encode [TEXT|-]",
		Short: "Encode text to token ids",
		Long:  "Encode TEXT, or each line of standard input when TEXT is '-' or missing.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  EncodeHandler,
	}
	encodeCmd.Flags().Int("workers", 0, "Concurrent encoders for standard input")

	decodeCmd := &cobra.Command{
		Use:   "decode ID...",
		Short: "Decode token ids to text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  DecodeHandler,
	}

	vocabCmd := &cobra.Command{
		Use:   "vocab",
		Short: "List vocabulary entries",
		Args:  cobra.NoArgs,
		RunE:  VocabHandler,
	}
	vocabCmd.Flags().Int("limit", 0, "Show at most this many entries (0 for all)")

	compareCmd := &cobra.Command{
		Use:   "compare FILE",
		Short: "Compare token counts against a tiktoken encoding",
		Args:  cobra.ExactArgs(1),
		RunE:  CompareHandler,
	}
	compareCmd.Flags().String("baseline", "cl100k_base", "tiktoken encoding name")

	for _, cmd := range []*cobra.Command{encodeCmd, decodeCmd, vocabCmd, compareCmd} {
		cmd.Flags().StringP("vocab", "v", "", "Trained .bpev file")
		_ = cmd.MarkFlagRequired("vocab")
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bpe %s\n", version)
		},
	}

	rootCmd.AddCommand(trainCmd, encodeCmd, decodeCmd, vocabCmd, compareCmd, versionCmd)
	return rootCmd
}

// loadConfig resolves the config file and environment, then applies --verbose.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if verbose, _ := cmd.Flags().GetCount("verbose"); config.Verbosity(verbose) > cfg.Debug {
		cfg.Debug = config.Verbosity(verbose)
	}
	return cfg, logutil.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel()), nil
}

// envUsage documents the environment overrides in the help output.
func envUsage() string {
	vars := config.Default().AsMap()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.Sort(names)

	var sb strings.Builder
	sb.WriteString("\nEnvironment Variables:\n\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "    %-18s %s\n", name, vars[name].Description)
	}
	return sb.String()
}

// loadVocab opens the file named by --vocab.
func loadVocab(cmd *cobra.Command) (*tokenizer.Tokenizer, config.Config, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	path, _ := cmd.Flags().GetString("vocab")
	tok, err := tokenizer.LoadWithLogger(path, logger)
	if err != nil {
		return nil, cfg, fmt.Errorf("load %s: %w", path, err)
	}
	return tok, cfg, nil
}

// readInput reads the named file, or standard input for "-".
func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(name) //nolint:gosec // G304: Path is a command line argument
	if err != nil {
		return "", err
	}
	return string(data), nil
}
