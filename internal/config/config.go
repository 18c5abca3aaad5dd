package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RAGConfig configures document chunking and retrieval.
type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

// Config is the root application configuration. Every field can be
// overridden by an environment variable, so a config file is optional.
type Config struct {
	Port      string `yaml:"port"`
	PDFDir    string `yaml:"pdf_dir"`
	CacheDir  string `yaml:"cache_dir"`
	LogsDir   string `yaml:"logs_dir"`
	UploadDir string `yaml:"upload_dir"`

	// OCRProvider selects the image text extraction backend: "gemini"
	// (generative vision model) or "vision" (Cloud Vision OCR API).
	OCRProvider string `yaml:"ocr_provider"`

	// TranscribeProvider selects the audio transcription backend:
	// "whisper" or "gcp_speech".
	TranscribeProvider string `yaml:"transcribe_provider"`

	RAG RAGConfig `yaml:"rag"`
}

// Load reads the config file at path when it exists, then applies env
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideStr(&cfg.Port, "PORT")
	overrideStr(&cfg.PDFDir, "PDF_DIR")
	overrideStr(&cfg.CacheDir, "CACHE_DIR")
	overrideStr(&cfg.LogsDir, "LOGS_DIR")
	overrideStr(&cfg.UploadDir, "UPLOAD_DIR")
	overrideStr(&cfg.OCRProvider, "OCR_PROVIDER")
	overrideStr(&cfg.TranscribeProvider, "TRANSCRIBE_PROVIDER")
}

func overrideStr(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	if cfg.PDFDir == "" {
		cfg.PDFDir = "pdfs"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "cache"
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = "logs"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.OCRProvider == "" {
		cfg.OCRProvider = "gemini"
	}
	if cfg.TranscribeProvider == "" {
		cfg.TranscribeProvider = "whisper"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 500
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 100
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}
}

func validate(cfg *Config) error {
	switch cfg.OCRProvider {
	case "gemini", "vision":
	default:
		return fmt.Errorf("invalid ocr_provider %q (want gemini or vision)", cfg.OCRProvider)
	}
	switch cfg.TranscribeProvider {
	case "whisper", "gcp_speech":
	default:
		return fmt.Errorf("invalid transcribe_provider %q (want whisper or gcp_speech)", cfg.TranscribeProvider)
	}
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return fmt.Errorf("chunk_overlap %d must be smaller than chunk_size %d", cfg.RAG.ChunkOverlap, cfg.RAG.ChunkSize)
	}
	return nil
}
