package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCorpus = "the cat sat on the mat. the cat ate the rat. the rat sat on the cat."

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := runWithStderr(t, stdin, args...)
	return out, err
}

func runWithStderr(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewCLI()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// trainFixture writes the test corpus and trains a vocabulary from it.
func trainFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(corpus, []byte(testCorpus), 0o600))

	out, err := run(t, "", "train", corpus, "--iterations", "3", "--min-frequency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote ")

	path := filepath.Join(dir, "corpus.bpev")
	require.FileExists(t, path)
	return path
}

func TestTrainEncodeDecode(t *testing.T) {
	vocab := trainFixture(t)

	out, err := run(t, "", "encode", "-v", vocab, "the cat sat")
	require.NoError(t, err)
	ids := strings.Fields(out)
	require.NotEmpty(t, ids)

	out, err = run(t, "", append([]string{"decode", "-v", vocab}, ids...)...)
	require.NoError(t, err)
	assert.Equal(t, "the cat sat\n", out)

	out, err = run(t, "", "decode", "-v", vocab, strings.Join(ids, ","))
	require.NoError(t, err)
	assert.Equal(t, "the cat sat\n", out)
}

func TestEncodeStdin(t *testing.T) {
	vocab := trainFixture(t)

	out, err := run(t, "the cat\nthe rat\n", "encode", "-v", vocab, "--workers", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)

	single, err := run(t, "", "encode", "-v", vocab, "the rat")
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(single), lines[1])
}

func TestTrainFromStdin(t *testing.T) {
	output := filepath.Join(t.TempDir(), "stdin.bpev")

	_, err := run(t, testCorpus, "train", "-", "-o", output, "--lang", "ur", "--unk", "[UNK]")
	require.NoError(t, err)
	require.FileExists(t, output)

	out, err := run(t, "", "vocab", "-v", output)
	require.NoError(t, err)
	assert.Contains(t, out, `"[UNK]"`)
	assert.Contains(t, out, "special")

	_, err = run(t, testCorpus, "train", "-")
	assert.Error(t, err)
}

func TestTrainConfigFile(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(corpus, []byte(testCorpus), 0o600))
	cfg := filepath.Join(dir, "bpe.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("iterations: 0\nunknown_token: \"<oov>\"\n"), 0o600))

	_, err := run(t, "", "train", corpus, "--config", cfg)
	require.NoError(t, err)

	out, err := run(t, "", "vocab", "-v", filepath.Join(dir, "corpus.bpev"))
	require.NoError(t, err)
	assert.Contains(t, out, `"<oov>"`)
	assert.NotContains(t, out, "merged")
}

func TestVocabLimit(t *testing.T) {
	vocab := trainFixture(t)

	out, err := run(t, "", "vocab", "-v", vocab, "--limit", "3")
	require.NoError(t, err)

	summary, table, ok := strings.Cut(out, "\n\n")
	require.True(t, ok)
	assert.Contains(t, summary, "language en, 3 iterations, min frequency 2, unknown \"<unk>\"")

	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	assert.Len(t, lines, 4) // header plus three entries
	assert.Contains(t, lines[0], "TOKEN")
	assert.Contains(t, table, "base")
}

func TestErrors(t *testing.T) {
	vocab := trainFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing vocab flag", []string{"encode", "hello"}},
		{"missing vocab file", []string{"encode", "-v", filepath.Join(t.TempDir(), "none.bpev"), "hi"}},
		{"bad id", []string{"decode", "-v", vocab, "abc"}},
		{"id out of range", []string{"decode", "-v", vocab, "99999"}},
		{"negative iterations", []string{"train", "corpus.txt", "--iterations", "-1"}},
		{"unknown baseline", []string{"compare", "-v", vocab, vocab, "--baseline", "no_such_encoding"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestVerboseLevels(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(corpus, []byte(testCorpus), 0o600))

	_, logs, err := runWithStderr(t, "", "train", corpus, "--min-frequency", "2")
	require.NoError(t, err)
	assert.Contains(t, logs, "level=INFO")
	assert.NotContains(t, logs, "level=DEBUG")

	_, logs, err = runWithStderr(t, "", "train", corpus, "--min-frequency", "2", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, logs, "level=DEBUG")
	assert.NotContains(t, logs, "level=TRACE")

	_, logs, err = runWithStderr(t, "", "train", corpus, "--min-frequency", "2", "--verbose", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, logs, "level=TRACE")
	assert.Contains(t, logs, "msg=merge")

	t.Setenv("BPE_DEBUG", "2")
	_, logs, err = runWithStderr(t, "", "train", corpus, "--min-frequency", "2")
	require.NoError(t, err)
	assert.Contains(t, logs, "level=TRACE")
}

func TestHelpListsEnvironment(t *testing.T) {
	out, err := run(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Environment Variables:")
	for _, name := range []string{"BPE_LANG", "BPE_ITERATIONS", "BPE_MIN_FREQUENCY", "BPE_UNK", "BPE_WORKERS", "BPE_DEBUG"} {
		assert.Contains(t, out, name)
	}

	out, err = run(t, "", "train", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "BPE_ITERATIONS")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "bpe "+version+"\n", out)
}
