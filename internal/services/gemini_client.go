package services

import (
  "bytes"
  "context"
  "encoding/base64"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "net/url"
  "os"
  "strings"
  "time"

  "github.com/minbar-app/minbar-backend/internal/logger"
  "github.com/minbar-app/minbar-backend/internal/platform/apierr"
)

// GeminiClient calls the Generative Language API directly over HTTP.
type GeminiClient interface {
  GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

type geminiClient struct {
  log        *logger.Logger
  baseURL    string
  apiKey     string
  model      string
  httpClient *http.Client
}

func NewGeminiClient(log *logger.Logger) (GeminiClient, error) {
  apiKey := os.Getenv("GEMINI_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing GEMINI_API_KEY")
  }

  baseURL := os.Getenv("GEMINI_BASE_URL")
  if baseURL == "" {
    baseURL = "https://generativelanguage.googleapis.com"
  }

  model := os.Getenv("GEMINI_MODEL")
  if model == "" {
    model = "gemini-2.0-flash"
  }

  return &geminiClient{
    log:        log.With("service", "GeminiClient"),
    baseURL:    baseURL,
    apiKey:     apiKey,
    model:      model,
    httpClient: &http.Client{Timeout: 120 * time.Second},
  }, nil
}

type geminiInline struct {
  MimeType string `json:"mimeType"`
  Data     string `json:"data"`
}

type geminiPart struct {
  Text       string        `json:"text,omitempty"`
  InlineData *geminiInline `json:"inlineData,omitempty"`
}

type geminiContent struct {
  Parts []geminiPart `json:"parts"`
  Role  string       `json:"role,omitempty"`
}

type geminiGenerateRequest struct {
  Contents []geminiContent `json:"contents"`
}

type geminiGenerateResponse struct {
  Candidates []struct {
    Content struct {
      Parts []struct {
        Text string `json:"text,omitempty"`
      } `json:"parts"`
    } `json:"content"`
  } `json:"candidates"`
}

func (c *geminiClient) GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
  if len(image) == 0 {
    return "", apierr.WithCode(apierr.CodeInvalidInput, fmt.Errorf("empty image payload"))
  }
  if mimeType == "" {
    mimeType = "image/jpeg"
  }

  reqBody := geminiGenerateRequest{
    Contents: []geminiContent{{
      Parts: []geminiPart{
        {Text: prompt},
        {InlineData: &geminiInline{
          MimeType: mimeType,
          Data:     base64.StdEncoding.EncodeToString(image),
        }},
      },
    }},
  }

  var buf bytes.Buffer
  if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
    return "", err
  }

  endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
  req, err := http.NewRequestWithContext(ctx, "POST", endpoint, &buf)
  if err != nil {
    return "", err
  }
  req.Header.Set("Content-Type", "application/json")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return "", apierr.WithCode(apierr.CodeProviderError, err)
  }
  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return "", apierr.WithCode(apierr.CodeProviderError, readErr)
  }
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    ge := fmt.Errorf("gemini http %d: %s", resp.StatusCode, string(raw))
    switch resp.StatusCode {
    case http.StatusUnauthorized, http.StatusForbidden:
      return "", apierr.WithCode(apierr.CodeProviderAuth, ge)
    case http.StatusTooManyRequests:
      return "", apierr.WithCode(apierr.CodeRateLimited, ge)
    }
    return "", apierr.WithCode(apierr.CodeProviderError, ge)
  }

  var parsed geminiGenerateResponse
  if err := json.Unmarshal(raw, &parsed); err != nil {
    return "", apierr.WithCode(apierr.CodeProviderError, fmt.Errorf("gemini decode: %w", err))
  }
  if len(parsed.Candidates) == 0 {
    return "", apierr.WithCode(apierr.CodeProviderError, fmt.Errorf("gemini returned no candidates"))
  }

  var out strings.Builder
  for _, p := range parsed.Candidates[0].Content.Parts {
    out.WriteString(p.Text)
  }
  return strings.TrimSpace(out.String()), nil
}
