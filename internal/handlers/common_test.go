package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/minbar-app/minbar-backend/internal/schemas"
	"github.com/minbar-app/minbar-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

type fakeEditor struct {
	applyFn    func(original map[string]any, instruction string, schema *schemas.Schema) (map[string]any, error)
	lastSchema *schemas.Schema
}

func (f *fakeEditor) Apply(_ context.Context, original map[string]any, instruction string, schema *schemas.Schema) (map[string]any, error) {
	f.lastSchema = schema
	if f.applyFn != nil {
		return f.applyFn(original, instruction, schema)
	}
	return original, nil
}

type fakeImageText struct {
	result *services.ImageTextResult
	err    error
}

func (f *fakeImageText) ProcessImage(_ context.Context, _ []byte, _ string) (*services.ImageTextResult, error) {
	return f.result, f.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, _ []byte) (string, error) {
	return f.text, f.err
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env ErrorEnvelope
	decodeBody(t, w, &env)
	return env.Error.Code
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}
