package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Client implements Embedder and Generator against any OpenAI-compatible
// endpoint. The document and query embedding models are configured
// separately so asymmetric providers can be addressed per role.
type Client struct {
	api             *openai.Client
	documentModel   string
	queryModel      string
	generationModel string
	dimensions      int
}

// ClientOptions configures a Client.
type ClientOptions struct {
	APIKey          string
	BaseURL         string // empty uses the provider default
	DocumentModel   string
	QueryModel      string // empty falls back to DocumentModel
	GenerationModel string
	Dimensions      int
}

// NewClient creates a service client. The API key must be non-empty.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("llm: API key is empty")
	}
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("llm: dimensions must be positive, got %d", opts.Dimensions)
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	queryModel := opts.QueryModel
	if queryModel == "" {
		queryModel = opts.DocumentModel
	}
	return &Client{
		api:             openai.NewClientWithConfig(cfg),
		documentModel:   opts.DocumentModel,
		queryModel:      queryModel,
		generationModel: opts.GenerationModel,
		dimensions:      opts.Dimensions,
	}, nil
}

// EmbedBatch embeds all texts in a single request using the model configured
// for the given role.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	model := c.documentModel
	if role == RoleQuery {
		model = c.queryModel
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbeddingService, len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrEmbeddingService, d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Generate sends prompt to the generation model. When structured is true the
// request asks for JSON object output mode.
func (c *Client) Generate(ctx context.Context, prompt string, structured bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.generationModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if structured {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationService, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrGenerationService)
	}
	return resp.Choices[0].Message.Content, nil
}
