package services

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "mime/multipart"
  "net/http"
  "os"
  "time"

  "github.com/minbar-app/minbar-backend/internal/logger"
  "github.com/minbar-app/minbar-backend/internal/platform/apierr"
  "github.com/minbar-app/minbar-backend/internal/utils"
)

type ChatMessage struct {
  Role    string `json:"role"`
  Content string `json:"content"`
}

type ChatOptions struct {
  Model       string
  Temperature float64
  MaxTokens   int
  Logprobs    bool
  TopLogprobs int
}

type OpenAIClient interface {
  // Complete runs a chat completion and returns the provider's first
  // choice object untouched.
  Complete(ctx context.Context, messages []ChatMessage, opts ChatOptions) (json.RawMessage, error)
  // CompleteText returns just the assistant message content of the first choice.
  CompleteText(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)
  Embed(ctx context.Context, inputs []string) ([][]float32, error)
  Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
  GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

type openAIClient struct {
  log             *logger.Logger
  baseURL         string
  apiKey          string
  model           string
  structuredModel string
  embedModel      string
  whisperModel    string
  httpClient      *http.Client
}

func NewOpenAIClient(log *logger.Logger) (OpenAIClient, error) {
  apiKey := os.Getenv("OPENAI_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing OPENAI_API_KEY")
  }

  baseURL := os.Getenv("OPENAI_BASE_URL")
  if baseURL == "" {
    baseURL = "https://api.openai.com"
  }

  model := os.Getenv("OPENAI_MODEL")
  if model == "" {
    model = "gpt-4o-mini"
  }

  structured := os.Getenv("OPENAI_STRUCTURED_MODEL")
  if structured == "" {
    structured = "gpt-4o-2024-08-06"
  }

  embed := os.Getenv("OPENAI_EMBED_MODEL")
  if embed == "" {
    embed = "text-embedding-ada-002"
  }

  whisper := os.Getenv("OPENAI_WHISPER_MODEL")
  if whisper == "" {
    whisper = "whisper-1"
  }

  timeoutSec := utils.GetEnvAsInt("OPENAI_TIMEOUT_SECONDS", 180, log)
  if timeoutSec <= 0 {
    timeoutSec = 180
  }

  return &openAIClient{
    log:             log.With("service", "OpenAIClient"),
    baseURL:         baseURL,
    apiKey:          apiKey,
    model:           model,
    structuredModel: structured,
    embedModel:      embed,
    whisperModel:    whisper,
    httpClient:      &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
  }, nil
}

type openAIHTTPError struct {
  StatusCode int
  Body       string
}

func (e *openAIHTTPError) Error() string {
  return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

// tagProviderErr converts transport failures into tagged error kinds so
// handlers can map status codes without inspecting message text.
func tagProviderErr(err error) error {
  if err == nil {
    return nil
  }
  if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
    return apierr.WithCode(apierr.CodeProviderError, err)
  }
  var httpErr *openAIHTTPError
  if errors.As(err, &httpErr) {
    switch {
    case httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden:
      return apierr.WithCode(apierr.CodeProviderAuth, err)
    case httpErr.StatusCode == http.StatusTooManyRequests:
      return apierr.WithCode(apierr.CodeRateLimited, err)
    }
  }
  return apierr.WithCode(apierr.CodeProviderError, err)
}

func (c *openAIClient) do(ctx context.Context, method, path string, body any, out any) error {
  var buf bytes.Buffer
  if body != nil {
    if err := json.NewEncoder(&buf).Encode(body); err != nil {
      return err
    }
  }

  req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
  if err != nil {
    return err
  }
  req.Header.Set("Authorization", "Bearer "+c.apiKey)
  req.Header.Set("Content-Type", "application/json")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return tagProviderErr(err)
  }

  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return tagProviderErr(readErr)
  }

  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return tagProviderErr(&openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)})
  }
  if out == nil {
    return nil
  }
  if uErr := json.Unmarshal(raw, out); uErr != nil {
    return apierr.WithCode(apierr.CodeProviderError, fmt.Errorf("openai decode error: %w; raw=%s", uErr, string(raw)))
  }
  return nil
}

// ---- Chat completions ----

type chatCompletionsRequest struct {
  Model       string        `json:"model"`
  Messages    []ChatMessage `json:"messages"`
  Temperature float64       `json:"temperature,omitempty"`
  MaxTokens   int           `json:"max_tokens,omitempty"`
  Logprobs    bool          `json:"logprobs,omitempty"`
  TopLogprobs int           `json:"top_logprobs,omitempty"`
}

type chatCompletionsResponse struct {
  Choices []json.RawMessage `json:"choices"`
}

func (c *openAIClient) Complete(ctx context.Context, messages []ChatMessage, opts ChatOptions) (json.RawMessage, error) {
  model := opts.Model
  if model == "" {
    model = c.model
  }
  req := chatCompletionsRequest{
    Model:       model,
    Messages:    messages,
    Temperature: opts.Temperature,
    MaxTokens:   opts.MaxTokens,
    Logprobs:    opts.Logprobs,
    TopLogprobs: opts.TopLogprobs,
  }
  var resp chatCompletionsResponse
  if err := c.do(ctx, "POST", "/v1/chat/completions", req, &resp); err != nil {
    return nil, err
  }
  if len(resp.Choices) == 0 {
    return nil, apierr.WithCode(apierr.CodeProviderError, fmt.Errorf("openai returned no choices"))
  }
  return resp.Choices[0], nil
}

func (c *openAIClient) CompleteText(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error) {
  choice, err := c.Complete(ctx, messages, opts)
  if err != nil {
    return "", err
  }
  var parsed struct {
    Message struct {
      Content string `json:"content"`
    } `json:"message"`
  }
  if err := json.Unmarshal(choice, &parsed); err != nil {
    return "", apierr.WithCode(apierr.CodeProviderError, fmt.Errorf("openai choice decode: %w", err))
  }
  return parsed.Message.Content, nil
}

// ---- Embeddings ----

type embeddingsRequest struct {
  Model string   `json:"model"`
  Input []string `json:"input"`
}

type embeddingsResponse struct {
  Data []struct {
    Embedding []float64 `json:"embedding"`
    Index     int       `json:"index"`
  } `json:"data"`
}

func (c *openAIClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
  if len(inputs) == 0 {
    return [][]float32{}, nil
  }
  req := embeddingsRequest{
    Model: c.embedModel,
    Input: inputs,
  }
  var resp embeddingsResponse
  if err := c.do(ctx, "POST", "/v1/embeddings", req, &resp); err != nil {
    return nil, err
  }
  out := make([][]float32, len(inputs))
  for _, d := range resp.Data {
    vec := make([]float32, len(d.Embedding))
    for i, f := range d.Embedding {
      vec[i] = float32(f)
    }
    if d.Index >= 0 && d.Index < len(out) {
      out[d.Index] = vec
    }
  }
  for i := range out {
    if out[i] == nil {
      return nil, apierr.WithCode(apierr.CodeProviderError, fmt.Errorf("missing embedding for index %d", i))
    }
  }
  return out, nil
}

// ---- Audio transcription (multipart) ----

type transcriptionResponse struct {
  Text string `json:"text"`
}

func (c *openAIClient) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
  var buf bytes.Buffer
  mw := multipart.NewWriter(&buf)
  if err := mw.WriteField("model", c.whisperModel); err != nil {
    return "", err
  }
  fw, err := mw.CreateFormFile("file", filename)
  if err != nil {
    return "", err
  }
  if _, err := fw.Write(audio); err != nil {
    return "", err
  }
  if err := mw.Close(); err != nil {
    return "", err
  }

  req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/audio/transcriptions", &buf)
  if err != nil {
    return "", err
  }
  req.Header.Set("Authorization", "Bearer "+c.apiKey)
  req.Header.Set("Content-Type", mw.FormDataContentType())

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return "", tagProviderErr(err)
  }
  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return "", tagProviderErr(readErr)
  }
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return "", tagProviderErr(&openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)})
  }

  var parsed transcriptionResponse
  if err := json.Unmarshal(raw, &parsed); err != nil {
    return "", apierr.WithCode(apierr.CodeProviderError, fmt.Errorf("transcription decode: %w", err))
  }
  return parsed.Text, nil
}

// ---- Responses JSON (Structured Outputs via text.format json_schema) ----

type responsesRequest struct {
  Model string `json:"model"`
  Input []struct {
    Role    string `json:"role"`
    Content string `json:"content"`
  } `json:"input"`
  Text struct {
    Format map[string]any `json:"format"`
  } `json:"text"`
  Temperature float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
  Output []struct {
    Type    string `json:"type"`
    Role    string `json:"role,omitempty"`
    Content []struct {
      Type string `json:"type"`
      Text string `json:"text,omitempty"`
    } `json:"content,omitempty"`
  } `json:"output"`
  Refusal string `json:"refusal,omitempty"`
}

func (c *openAIClient) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
  if schemaName == "" {
    return nil, errors.New("schemaName required")
  }
  if schema == nil {
    return nil, errors.New("schema required")
  }

  req := responsesRequest{
    Model: c.structuredModel,
    Input: []struct {
      Role    string `json:"role"`
      Content string `json:"content"`
    }{
      {Role: "system", Content: system},
      {Role: "user", Content: user},
    },
    Temperature: 0.2,
  }
  req.Text.Format = map[string]any{
    "type":   "json_schema",
    "name":   schemaName,
    "schema": schema,
    "strict": true,
  }

  var resp responsesResponse
  if err := c.do(ctx, "POST", "/v1/responses", req, &resp); err != nil {
    return nil, err
  }
  if resp.Refusal != "" {
    return nil, apierr.WithCode(apierr.CodeValidationError, fmt.Errorf("model refused: %s", resp.Refusal))
  }

  var jsonText string
  for _, item := range resp.Output {
    if item.Type == "message" && item.Role == "assistant" {
      for _, c := range item.Content {
        if c.Type == "output_text" && c.Text != "" {
          jsonText += c.Text
        }
      }
    }
  }
  if jsonText == "" {
    return nil, apierr.WithCode(apierr.CodeProviderError, fmt.Errorf("no output_text found in response"))
  }

  var obj map[string]any
  if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
    return nil, apierr.WithCode(apierr.CodeParseError, fmt.Errorf("failed to parse model JSON: %w; text=%s", err, jsonText))
  }
  return obj, nil
}
