package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// Chunk is the unit of retrieval: a bounded span of document text with its
// provenance. Immutable once created.
type Chunk struct {
	Text       string `json:"text"`
	SourceFile string `json:"source_file"`
	ChunkIndex int    `json:"chunk_index"`
	PageNumber int    `json:"page_number"`
}

// LoadFolder reads every PDF in dir, extracts text per page, and splits each
// page into overlapping windows. One traversal, no partial success: a missing
// folder or unreadable file fails the whole namespace.
func LoadFolder(dir string, chunkSize, overlap int) ([]Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read namespace folder: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var chunks []Chunk
	for _, name := range names {
		fileChunks, err := loadPDF(filepath.Join(dir, name), name, chunkSize, overlap)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		chunks = append(chunks, fileChunks...)
	}
	return chunks, nil
}

func loadPDF(path, sourceName string, chunkSize, overlap int) ([]Chunk, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdf open: %w", err)
	}
	defer f.Close()

	var chunks []Chunk
	// Position counter is per text unit (page), zero-based; windows split
	// from the same page share it.
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf page %d: %w", pageNum, err)
		}
		for _, window := range splitOverlapping(text, chunkSize, overlap) {
			chunks = append(chunks, Chunk{
				Text:       window,
				SourceFile: sourceName,
				ChunkIndex: pageNum - 1,
				PageNumber: pageNum,
			})
		}
	}
	return chunks, nil
}

// splitOverlapping cuts text into windows of chunkSize characters advancing
// by chunkSize-overlap, so context at window boundaries is not lost.
func splitOverlapping(text string, chunkSize, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	runes := []rune(text)
	out := []string{}
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		p := strings.TrimSpace(string(runes[start:end]))
		if p != "" {
			out = append(out, p)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
