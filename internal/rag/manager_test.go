package rag

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/minbar-app/minbar-backend/internal/platform/apierr"
)

func saveIndexForNamespace(t *testing.T, cacheDir, namespace string, chunks []Chunk, vectors [][]float32) {
	t.Helper()
	ix, err := NewIndex(namespace, chunks, vectors)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if err := ix.Save(filepath.Join(cacheDir, namespace, "index.json")); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestManagerInitLoadsPersistedIndexes(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	cacheDir := t.TempDir()
	for _, ns := range []string{"duas", "history"} {
		if err := os.MkdirAll(filepath.Join(baseDir, ns), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	saveIndexForNamespace(t, cacheDir, "duas",
		[]Chunk{{Text: "dua text", SourceFile: "duas.pdf", PageNumber: 1}},
		[][]float32{{1, 0}})
	saveIndexForNamespace(t, cacheDir, "history",
		[]Chunk{{Text: "history text", SourceFile: "history.pdf", PageNumber: 3}},
		[][]float32{{0, 1}})

	emb := &fakeEmbedder{zeroVec: []float32{0, 0}}
	m := newTestManager(t, emb, baseDir, cacheDir)

	if m.Ready() {
		t.Fatalf("manager should not be ready before Init")
	}
	if err := m.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !m.Ready() {
		t.Fatalf("manager should be ready after Init")
	}
	// The fast path loads from disk without embedding anything.
	if n := emb.calls.Load(); n != 0 {
		t.Fatalf("expected no embed calls during cached init, got %d", n)
	}
	if got := m.Namespaces(); !reflect.DeepEqual(got, []string{"duas", "history"}) {
		t.Fatalf("expected sorted namespaces, got %v", got)
	}
}

func TestManagerSearchUnknownNamespace(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, &fakeEmbedder{zeroVec: []float32{0}}, t.TempDir(), t.TempDir())
	if err := m.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	_, err := m.Search(context.Background(), "ghaib", "question", 5)
	if err == nil {
		t.Fatalf("expected error for unknown namespace")
	}
	if apierr.CodeOf(err) != apierr.CodeNamespaceNotFound {
		t.Fatalf("expected namespace_not_found, got %q", apierr.CodeOf(err))
	}
	if apierr.StatusOf(err) != 400 {
		t.Fatalf("expected 400, got %d", apierr.StatusOf(err))
	}
	if want := "Namespace 'ghaib' not loaded"; err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestManagerSearchReturnsNamespaceMatchesOnly(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	cacheDir := t.TempDir()
	for _, ns := range []string{"one", "two"} {
		if err := os.MkdirAll(filepath.Join(baseDir, ns), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	saveIndexForNamespace(t, cacheDir, "one",
		[]Chunk{{Text: "from one", SourceFile: "one.pdf", PageNumber: 1}},
		[][]float32{{1, 0}})
	saveIndexForNamespace(t, cacheDir, "two",
		[]Chunk{{Text: "from two", SourceFile: "two.pdf", PageNumber: 1}},
		[][]float32{{1, 0}})

	emb := &fakeEmbedder{zeroVec: []float32{1, 0}}
	m := newTestManager(t, emb, baseDir, cacheDir)
	if err := m.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	matches, err := m.Search(context.Background(), "one", "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, match := range matches {
		if match.Chunk.SourceFile != "one.pdf" {
			t.Fatalf("namespace leak: got chunk from %q", match.Chunk.SourceFile)
		}
	}
}

func TestManagerSearchEmptyIndex(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	cacheDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(baseDir, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	saveIndexForNamespace(t, cacheDir, "empty", nil, nil)

	emb := &fakeEmbedder{zeroVec: []float32{1}}
	m := newTestManager(t, emb, baseDir, cacheDir)
	if err := m.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	matches, err := m.Search(context.Background(), "empty", "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
	// No query embedding for an empty index.
	if n := emb.calls.Load(); n != 0 {
		t.Fatalf("expected no embed calls, got %d", n)
	}
}

func TestManagerInitMissingBaseDir(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, &fakeEmbedder{zeroVec: []float32{0}}, "/nonexistent/pdfs", t.TempDir())
	if err := m.Init(context.Background()); err == nil {
		t.Fatalf("expected error for missing base dir")
	}
	if m.Ready() {
		t.Fatalf("manager must not report ready after failed init")
	}
}
