package services

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
)

// fakeOpenAI is a programmable OpenAIClient. Counters track how often the
// provider was actually hit, which the caching tests assert on.
type fakeOpenAI struct {
	completeTextFn func(messages []ChatMessage, opts ChatOptions) (string, error)
	generateJSONFn func(system, user, schemaName string, schema map[string]any) (map[string]any, error)
	transcribeFn   func(filename string, audio []byte) (string, error)

	completeTextCalls atomic.Int64
	generateJSONCalls atomic.Int64

	// release, when set, blocks provider calls until closed. Used to pile up
	// concurrent requests behind one in-flight call.
	release chan struct{}
}

func (f *fakeOpenAI) Complete(_ context.Context, _ []ChatMessage, _ ChatOptions) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (f *fakeOpenAI) CompleteText(_ context.Context, messages []ChatMessage, opts ChatOptions) (string, error) {
	f.completeTextCalls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.completeTextFn != nil {
		return f.completeTextFn(messages, opts)
	}
	return "", nil
}

func (f *fakeOpenAI) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range out {
		out[i] = []float32{0}
	}
	return out, nil
}

func (f *fakeOpenAI) Transcribe(_ context.Context, filename string, audio []byte) (string, error) {
	if f.transcribeFn != nil {
		return f.transcribeFn(filename, audio)
	}
	return "", nil
}

func (f *fakeOpenAI) GenerateJSON(_ context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.generateJSONCalls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.generateJSONFn != nil {
		return f.generateJSONFn(system, user, schemaName, schema)
	}
	return map[string]any{}, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	records []recordedUpdate
}

type recordedUpdate struct {
	instruction string
	original    map[string]any
	updated     map[string]any
}

func (f *fakeAudit) RecordUpdate(instruction string, original, updated map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, recordedUpdate{instruction, original, updated})
}

func (f *fakeAudit) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) ExtractText(_ context.Context, _ []byte, _ string) (string, error) {
	return f.text, f.err
}
