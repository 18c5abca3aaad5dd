package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "PDF_DIR", "CACHE_DIR", "LOGS_DIR", "UPLOAD_DIR", "OCR_PROVIDER", "TRANSCRIBE_PROVIDER"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "3000" {
		t.Fatalf("expected default port 3000, got %q", cfg.Port)
	}
	if cfg.PDFDir != "pdfs" || cfg.CacheDir != "cache" || cfg.LogsDir != "logs" || cfg.UploadDir != "uploads" {
		t.Fatalf("unexpected dir defaults: %+v", cfg)
	}
	if cfg.OCRProvider != "gemini" || cfg.TranscribeProvider != "whisper" {
		t.Fatalf("unexpected provider defaults: %+v", cfg)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 100 || cfg.RAG.TopK != 5 {
		t.Fatalf("unexpected RAG defaults: %+v", cfg.RAG)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "9090"
pdf_dir: /data/pdfs
ocr_provider: vision
rag:
  chunk_size: 800
  chunk_overlap: 200
  top_k: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.PDFDir != "/data/pdfs" || cfg.OCRProvider != "vision" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.RAG.ChunkSize != 800 || cfg.RAG.ChunkOverlap != 200 || cfg.RAG.TopK != 3 {
		t.Fatalf("RAG file values not applied: %+v", cfg.RAG)
	}
	// Unset fields still get defaults.
	if cfg.CacheDir != "cache" {
		t.Fatalf("expected cache default, got %q", cfg.CacheDir)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"9090\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PORT", "4000")
	t.Setenv("OCR_PROVIDER", "vision")
	t.Setenv("TRANSCRIBE_PROVIDER", "gcp_speech")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "4000" {
		t.Fatalf("env should override file, got %q", cfg.Port)
	}
	if cfg.OCRProvider != "vision" || cfg.TranscribeProvider != "gcp_speech" {
		t.Fatalf("provider env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsBadProviders(t *testing.T) {
	t.Setenv("OCR_PROVIDER", "tesseract")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for unknown ocr provider")
	}
}

func TestLoadRejectsOverlapNotSmallerThanSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
rag:
  chunk_size: 100
  chunk_overlap: 100
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for overlap >= size")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: [broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
