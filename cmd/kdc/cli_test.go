package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kdcflow/internal/config"
	"kdcflow/internal/decision"
	"kdcflow/internal/evidence"
	"kdcflow/internal/generator"
	"kdcflow/internal/kdc"
	"kdcflow/internal/models"
	"kdcflow/internal/pipeline"
	"kdcflow/internal/providers"
)

type staticBooks map[string]models.Book

func (s staticBooks) Lookup(_ context.Context, isbn string) (models.Book, error) {
	return s[isbn], nil
}

type staticHints map[string]string

func (s staticHints) ClassHint(_ context.Context, isbn string) (string, error) {
	return s[isbn], nil
}

const novelISBN = "9788937462849"

func setup(t *testing.T) *bytes.Buffer {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.Config{Pipeline: config.DefaultPipeline(), BatchMaxConcurrent: 2}
	timeout = time.Minute
	newPipeline = func(cfg config.Config, log *zap.Logger) (*pipeline.Pipeline, error) {
		gen := generator.New(providers.NewManagerWith(), generator.Options{PreviewLimit: 20}, nil)
		engine := decision.New(kdc.Default(), gen, pipeline.EngineOptions(cfg.Pipeline), nil)
		books := staticBooks{novelISBN: {Title: "한국 현대 단편소설집", ISBN13: novelISBN}}
		return pipeline.New(books, staticHints{novelISBN: "813"}, engine, nil), nil
	}
	return &bytes.Buffer{}
}

func command(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd
}

func TestClassifyCommand(t *testing.T) {
	out := setup(t)
	dir := t.TempDir()
	list := filepath.Join(dir, "isbns.txt")
	require.NoError(t, os.WriteFile(list, []byte("# list\n"+novelISBN+"\n\nbad\n"), 0o644))
	classifyFile = list
	classifyOut = filepath.Join(dir, "out.jsonl")
	classifyJSON = false
	defer func() { classifyFile, classifyOut = "", "" }()

	require.NoError(t, runClassify(command(out), nil))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], novelISBN+"\t813\tclassified"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "bad\t-\tfailed"), lines[1])

	raw, err := os.ReadFile(classifyOut)
	require.NoError(t, err)
	var res pipeline.Result
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &res))
	assert.Equal(t, "813", res.Code)
}

func TestSummaryRow(t *testing.T) {
	classified := pipeline.Result{
		ISBN:   novelISBN,
		Code:   "813",
		Record: evidence.Record{Status: evidence.StatusClassified, FinalLabel: "한국 소설"},
	}
	assert.Equal(t, novelISBN+"\t813\tclassified\t한국 소설", summaryRow(classified))

	undetermined := pipeline.Result{
		ISBN:   novelISBN,
		Code:   "813",
		Record: evidence.Record{Status: evidence.StatusUndetermined, Reason: "low margin"},
	}
	assert.Equal(t, novelISBN+"\t-\tundetermined\tlow margin", summaryRow(undetermined))
}

func TestClassifyCommandNeedsInput(t *testing.T) {
	out := setup(t)
	assert.Error(t, runClassify(command(out), nil))
}

func TestDecideCommand(t *testing.T) {
	out := setup(t)
	decideBook = models.Book{Title: "한국 현대 단편소설집"}
	decideAnchor = "813"
	defer func() { decideBook, decideAnchor = models.Book{}, "" }()

	require.NoError(t, runDecide(command(out), nil))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "813", rec["final_code"])
	assert.Equal(t, "classified", rec["status"])
}

func TestDecideCommandNeedsBook(t *testing.T) {
	out := setup(t)
	assert.Error(t, runDecide(command(out), nil))
}

func TestTaxonomyCommand(t *testing.T) {
	out := setup(t)
	taxonomyAnchor = "810"
	defer func() { taxonomyAnchor = "" }()

	require.NoError(t, runTaxonomy(command(out), nil))
	text := out.String()
	assert.Contains(t, text, "# anchor 81_: 10 classes")
	assert.Contains(t, text, "813")
	assert.Contains(t, text, "한국 소설")
}

func TestPinProvider(t *testing.T) {
	pm := providers.NewManagerWith(
		providers.NamedLLMProvider{Ref: providers.ProviderRef{Raw: "mock", Name: "mock"}, Provider: providers.NewMockProvider()},
		providers.NamedLLMProvider{Ref: providers.ProviderRef{Raw: "ollama", Name: "ollama"}, Provider: providers.NewMockProvider()},
	)

	same, err := pinProvider(pm, "")
	require.NoError(t, err)
	assert.Same(t, pm, same)

	pinned, err := pinProvider(pm, "Ollama")
	require.NoError(t, err)
	assert.Equal(t, 1, pinned.LLMCount())
	_, ref, ok := pinned.FindLLMProviderByName("ollama")
	assert.True(t, ok)
	assert.Equal(t, "ollama", ref.Name)

	_, err = pinProvider(pm, "gemini")
	assert.Error(t, err)
}
