package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/minbar-app/minbar-backend/internal/logger"
	"github.com/minbar-app/minbar-backend/internal/services"
)

const snippetLength = 200

const answerPromptTemplate = `Answer the user's question using the provided context. Include citations in square brackets referencing the source and page, e.g. [filename.pdf p.3].

Context:
%s

Question:
%s`

// Citation points from an answer back to the retrieved chunk supporting it.
type Citation struct {
	Index   int    `json:"index"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
	Anchor  string `json:"anchor"`
}

type Answer struct {
	Text      string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// Chain is the retrieve-then-generate pipeline: top-k retrieval, one prompt,
// one model call, citations in retrieval order.
type Chain struct {
	log     *logger.Logger
	manager *Manager
	ai      services.OpenAIClient
	topK    int
}

func NewChain(log *logger.Logger, manager *Manager, ai services.OpenAIClient, topK int) (*Chain, error) {
	if manager == nil {
		return nil, fmt.Errorf("manager required")
	}
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	if topK <= 0 {
		topK = 5
	}
	return &Chain{
		log:     log.With("service", "RAGChain"),
		manager: manager,
		ai:      ai,
		topK:    topK,
	}, nil
}

func (c *Chain) Answer(ctx context.Context, namespace, question string) (*Answer, error) {
	matches, err := c.manager.Search(ctx, namespace, question, c.topK)
	if err != nil {
		return nil, err
	}

	contexts := make([]string, 0, len(matches))
	for _, m := range matches {
		contexts = append(contexts, m.Chunk.Text)
	}
	prompt := fmt.Sprintf(answerPromptTemplate, strings.Join(contexts, "\n\n"), question)

	text, err := c.ai.CompleteText(ctx, []services.ChatMessage{
		{Role: "user", Content: prompt},
	}, services.ChatOptions{Temperature: 0.2})
	if err != nil {
		return nil, err
	}

	return &Answer{
		Text:      text,
		Citations: buildCitations(matches),
	}, nil
}

// buildCitations maps matches to citations in retrieval order: 1-based rank,
// source defaulting to "Unknown", snippet capped at 200 characters, anchor
// "<source>#page=<n>" with page defaulting to 1.
func buildCitations(matches []Match) []Citation {
	citations := make([]Citation, 0, len(matches))
	for i, m := range matches {
		source := m.Chunk.SourceFile
		if source == "" {
			source = "Unknown"
		}
		page := m.Chunk.PageNumber
		if page <= 0 {
			page = 1
		}
		citations = append(citations, Citation{
			Index:   i + 1,
			Source:  source,
			Snippet: snippet(m.Chunk.Text, snippetLength),
			Anchor:  fmt.Sprintf("%s#page=%d", source, page),
		})
	}
	return citations
}

func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
