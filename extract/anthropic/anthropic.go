// Package anthropic provides a document extractor backed by the Anthropic
// Claude Messages API. The model receives the document reference and returns
// a JSON object with the classified type and extracted fields.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/extract"
)

// Options configures the Anthropic extractor (model id, max tokens, API key).
type Options struct {
	Model     anthropic.Model
	MaxTokens int64
	APIKey    string
}

// Extractor implements extract.DocumentExtractor via the Messages API.
type Extractor struct {
	client *anthropic.Client
	opts   Options
}

// NewExtractor creates a new Anthropic-backed extractor using the official client.
func NewExtractor(optFns ...func(o *Options)) *Extractor {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Extractor{client: &client, opts: opts}
}

// NewExtractorFromClient creates a new Anthropic-backed extractor from an existing client.
func NewExtractorFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Extractor {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{client: client, opts: opts}
}

// Extract implements extract.DocumentExtractor.
func (e *Extractor) Extract(ctx context.Context, doc core.Document) (*extract.Extraction, error) {
	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.opts.Model,
		MaxTokens: e.opts.MaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(doc))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	return decodeExtraction(text.String())
}

const systemPrompt = "You are a mortgage document analyst. Reply with a single JSON object " +
	`{"document_type": string, "fields": object, "confidence": number between 0 and 1} and nothing else.`

func userPrompt(doc core.Document) string {
	return fmt.Sprintf("Classify and extract document %q (declared type %q, file name %q).",
		doc.ID, doc.Type, doc.FileName)
}

func decodeExtraction(raw string) (*extract.Extraction, error) {
	raw = strings.TrimSpace(raw)
	// Tolerate fenced output.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var out extract.Extraction
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	return &out, nil
}
