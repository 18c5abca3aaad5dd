package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minbar-app/minbar-backend/internal/logger"
)

// AuditRecorder persists a record of every applied edit. Cache hits are not
// recorded; only calls that reached the provider.
type AuditRecorder interface {
	RecordUpdate(instruction string, original, updated map[string]any)
}

type auditRecord struct {
	Timestamp   string         `json:"timestamp"`
	Instruction string         `json:"instruction"`
	Original    map[string]any `json:"original"`
	Updated     map[string]any `json:"updated"`
}

type fileAuditRecorder struct {
	log *logger.Logger
	dir string
}

// NewFileAuditRecorder writes one JSON file per edit under dir, named by
// timestamp. Audit failures are logged and swallowed; they never fail the edit.
func NewFileAuditRecorder(log *logger.Logger, dir string) (AuditRecorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("audit dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	return &fileAuditRecorder{
		log: log.With("service", "AuditRecorder"),
		dir: dir,
	}, nil
}

func (a *fileAuditRecorder) RecordUpdate(instruction string, original, updated map[string]any) {
	now := time.Now()
	rec := auditRecord{
		Timestamp:   now.UTC().Format(time.RFC3339),
		Instruction: instruction,
		Original:    original,
		Updated:     updated,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		a.log.Error("audit record encode failed", "error", err)
		return
	}
	path := filepath.Join(a.dir, fmt.Sprintf("update-%d.json", now.UnixMilli()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.log.Error("audit record write failed", "path", path, "error", err)
	}
}
