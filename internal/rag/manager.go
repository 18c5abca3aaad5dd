package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/minbar-app/minbar-backend/internal/logger"
	"github.com/minbar-app/minbar-backend/internal/platform/apierr"
)

const embedBatchSize = 128

// Embedder computes embedding vectors for a batch of texts.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Manager owns one vector index per namespace. Namespaces are the immediate
// subfolders of the PDF base dir, registered at startup; dynamic registration
// is not supported.
type Manager struct {
	log      *logger.Logger
	embedder Embedder

	baseDir      string
	cacheDir     string
	chunkSize    int
	chunkOverlap int

	mu      sync.RWMutex
	indexes map[string]*Index
	ready   atomic.Bool
}

func NewManager(log *logger.Logger, embedder Embedder, baseDir, cacheDir string, chunkSize, chunkOverlap int) (*Manager, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	return &Manager{
		log:          log.With("service", "RAGManager"),
		embedder:     embedder,
		baseDir:      baseDir,
		cacheDir:     cacheDir,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		indexes:      map[string]*Index{},
	}, nil
}

// Init discovers namespaces and builds or loads each index concurrently.
// It must complete before the server accepts /ask traffic.
func (m *Manager) Init(ctx context.Context) error {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return fmt.Errorf("read pdf base dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		namespace := e.Name()
		g.Go(func() error {
			ix, err := m.buildOrLoad(ctx, namespace)
			if err != nil {
				return fmt.Errorf("namespace %s: %w", namespace, err)
			}
			m.mu.Lock()
			m.indexes[namespace] = ix
			m.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.ready.Store(true)
	return nil
}

func (m *Manager) buildOrLoad(ctx context.Context, namespace string) (*Index, error) {
	indexPath := filepath.Join(m.cacheDir, namespace, "index.json")

	if _, err := os.Stat(indexPath); err == nil {
		ix, err := LoadIndex(indexPath)
		if err != nil {
			return nil, err
		}
		m.log.Info("loaded vector store from disk", "namespace", namespace, "chunks", ix.Len())
		return ix, nil
	}

	chunks, err := LoadFolder(filepath.Join(m.baseDir, namespace), m.chunkSize, m.chunkOverlap)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		batch, err := m.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		vectors = append(vectors, batch...)
	}

	ix, err := NewIndex(namespace, chunks, vectors)
	if err != nil {
		return nil, err
	}
	if err := ix.Save(indexPath); err != nil {
		return nil, err
	}
	m.log.Info("created and saved vector store", "namespace", namespace, "chunks", ix.Len())
	return ix, nil
}

// Ready reports whether startup initialization finished.
func (m *Manager) Ready() bool { return m.ready.Load() }

// Namespaces lists the registered namespaces in sorted order.
func (m *Manager) Namespaces() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.indexes))
	for ns := range m.indexes {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Search embeds the query and returns the namespace's top-k matches,
// nearest first. Unknown namespaces are an input error naming the namespace.
func (m *Manager) Search(ctx context.Context, namespace, query string, k int) ([]Match, error) {
	m.mu.RLock()
	ix, ok := m.indexes[namespace]
	m.mu.RUnlock()
	if !ok {
		return nil, apierr.WithCode(apierr.CodeNamespaceNotFound, fmt.Errorf("Namespace '%s' not loaded", namespace))
	}
	if ix.Len() == 0 {
		return []Match{}, nil
	}

	vecs, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vecs))
	}
	return ix.Search(vecs[0], k), nil
}
