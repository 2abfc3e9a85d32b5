// Package openai provides a document extractor backed by the OpenAI Chat
// Completions API, mirroring the Anthropic extractor's contract.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/extract"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI extractor.
type Options struct {
	Model               string
	MaxCompletionTokens int64
}

// Extractor implements extract.DocumentExtractor via Chat Completions.
type Extractor struct {
	client *openai.Client
	opts   Options
}

// NewExtractor creates a new OpenAI-backed extractor using the official client.
func NewExtractor(optFns ...func(o *Options)) *Extractor {
	client := openai.NewClient()
	return NewExtractorFromClient(&client, optFns...)
}

// NewExtractorFromClient creates a new OpenAI-backed extractor from an existing client.
func NewExtractorFromClient(client *openai.Client, optFns ...func(o *Options)) *Extractor {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{client: client, opts: opts}
}

// Extract implements extract.DocumentExtractor.
func (e *Extractor) Extract(ctx context.Context, doc core.Document) (*extract.Extraction, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               e.opts.Model,
		MaxCompletionTokens: openai.Int(e.opts.MaxCompletionTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf(
				"Classify and extract document %q (declared type %q, file name %q).",
				doc.ID, doc.Type, doc.FileName)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response contained no choices")
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var out extract.Extraction
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	return &out, nil
}

const systemPrompt = "You are a mortgage document analyst. Reply with a single JSON object " +
	`{"document_type": string, "fields": object, "confidence": number between 0 and 1} and nothing else.`
