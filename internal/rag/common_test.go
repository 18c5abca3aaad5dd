package rag

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/minbar-app/minbar-backend/internal/logger"
	"github.com/minbar-app/minbar-backend/internal/services"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// fakeEmbedder maps each input to a fixed-dimension vector. Inputs seen in
// vecs get their canned vector; everything else gets zeroVec.
type fakeEmbedder struct {
	vecs    map[string][]float32
	zeroVec []float32
	calls   atomic.Int64
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(inputs))
	for _, in := range inputs {
		if v, ok := f.vecs[in]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, f.zeroVec)
	}
	return out, nil
}

// fakeAI implements services.OpenAIClient for chain tests; only the methods
// the chain touches do anything.
type fakeAI struct {
	fakeEmbedder
	completion  string
	lastPrompt  string
	completeErr error
}

func (f *fakeAI) Complete(_ context.Context, _ []services.ChatMessage, _ services.ChatOptions) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeAI) CompleteText(_ context.Context, messages []services.ChatMessage, _ services.ChatOptions) (string, error) {
	if f.completeErr != nil {
		return "", f.completeErr
	}
	if len(messages) > 0 {
		f.lastPrompt = messages[len(messages)-1].Content
	}
	return f.completion, nil
}

func (f *fakeAI) Transcribe(_ context.Context, _ string, _ []byte) (string, error) {
	return "", nil
}

func (f *fakeAI) GenerateJSON(_ context.Context, _, _, _ string, _ map[string]any) (map[string]any, error) {
	return nil, nil
}

func newTestManager(t *testing.T, embedder Embedder, baseDir, cacheDir string) *Manager {
	t.Helper()
	m, err := NewManager(logger.NewNop(), embedder, baseDir, cacheDir, 500, 100)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}
