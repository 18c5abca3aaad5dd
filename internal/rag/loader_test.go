package rag

import (
	"strings"
	"testing"
)

func TestSplitOverlappingWindows(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("a", 10)
	got := splitOverlapping(text, 4, 2)

	// Windows start every step=2 runes; the walk stops once a window reaches
	// the end of the text.
	want := []string{"aaaa", "aaaa", "aaaa", "aaaa"}
	if len(got) != len(want) {
		t.Fatalf("expected %d windows, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplitOverlappingSharesBoundaryText(t *testing.T) {
	t.Parallel()

	text := "0123456789"
	got := splitOverlapping(text, 6, 3)
	if len(got) < 2 {
		t.Fatalf("expected at least 2 windows, got %v", got)
	}
	// With overlap 3 the tail of one window starts the next.
	if got[0][3:] != got[1][:3] {
		t.Fatalf("expected windows to overlap: %q vs %q", got[0], got[1])
	}
}

func TestSplitOverlappingEmptyInput(t *testing.T) {
	t.Parallel()

	if got := splitOverlapping("", 500, 100); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := splitOverlapping("   \n\t  ", 500, 100); got != nil {
		t.Fatalf("expected nil for whitespace input, got %v", got)
	}
}

func TestSplitOverlappingShortText(t *testing.T) {
	t.Parallel()

	got := splitOverlapping("short text", 500, 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Fatalf("expected single window, got %v", got)
	}
}

func TestSplitOverlappingRuneSafe(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("بسم", 4) // 12 Arabic runes
	got := splitOverlapping(text, 5, 1)
	for i, w := range got {
		if strings.ContainsRune(w, '�') {
			t.Fatalf("window %d contains a broken rune: %q", i, w)
		}
	}
}

func TestSplitOverlappingBadParams(t *testing.T) {
	t.Parallel()

	// Overlap >= size must not loop forever; step falls back to the size.
	got := splitOverlapping("abcdefgh", 3, 5)
	if len(got) == 0 {
		t.Fatalf("expected windows, got none")
	}
	joined := strings.Join(got, "")
	if joined != "abcdefgh" {
		t.Fatalf("expected windows to cover the text, got %v", got)
	}
}

func TestLoadFolderMissingDir(t *testing.T) {
	t.Parallel()

	if _, err := LoadFolder("/nonexistent/namespace", 500, 100); err == nil {
		t.Fatalf("expected error for missing folder")
	}
}

func TestLoadFolderIgnoresNonPDF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// No PDFs present, only an unrelated file.
	writeFile(t, dir, "notes.txt", "plain text")

	chunks, err := LoadFolder(dir, 500, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}
