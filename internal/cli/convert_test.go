package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/pageforge/pageforge/pkg/pipeline"
)

const testManifest = `
metadata:
  title: CLI Page
  description: converted from the command line
structure:
  div:
    text: hello from the CLI
`

func quietContext() context.Context {
	return withLogger(context.Background(), newLogger(io.Discard, log.FatalLevel))
}

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunConvertSingle(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	path := writeManifest(t, dir, "page.yaml", testManifest)

	runner := pipeline.NewRunner(nil, newLogger(io.Discard, log.FatalLevel))
	err := runConvert(quietContext(), runner, []string{path}, pipeline.Options{}, outDir, 1)
	if err != nil {
		t.Fatalf("runConvert: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "cli-page.html"))
	if err != nil {
		t.Fatalf("output file: %v", err)
	}
	if !strings.Contains(string(data), "<title>CLI Page</title>") {
		t.Error("output missing converted head")
	}
	if !strings.Contains(string(data), "hello from the CLI") {
		t.Error("output missing body content")
	}
}

func TestRunConvertBatch(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	good := writeManifest(t, dir, "good.yaml", testManifest)
	broken := writeManifest(t, dir, "broken.yaml", "metadata:\n  description: no title\nstructure:\n  p:\n    text: x\n")

	runner := pipeline.NewRunner(nil, newLogger(io.Discard, log.FatalLevel))
	err := runConvert(quietContext(), runner, []string{good, broken}, pipeline.Options{}, outDir, 2)
	if err == nil {
		t.Fatal("batch with a broken manifest should fail")
	}

	if _, statErr := os.Stat(filepath.Join(outDir, "cli-page.html")); statErr != nil {
		t.Error("good manifest should still be written when a sibling fails")
	}
}

func TestWriteOutputsMultipleFormats(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "page.yaml", testManifest)

	runner := pipeline.NewRunner(nil, newLogger(io.Discard, log.FatalLevel))
	res, err := runner.Execute(quietContext(), pipeline.Options{
		ManifestPath: path,
		Formats:      []string{"html", "react", "vue", "php"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	written, err := writeOutputs(res, dir)
	if err != nil {
		t.Fatalf("writeOutputs: %v", err)
	}
	if len(written) != 4 {
		t.Fatalf("written = %d files, want 4", len(written))
	}
	for _, ext := range []string{".html", ".jsx", ".vue", ".php"} {
		found := false
		for _, p := range written {
			if strings.HasSuffix(p, ext) {
				found = true
			}
		}
		if !found {
			t.Errorf("no output with extension %s", ext)
		}
	}
}
