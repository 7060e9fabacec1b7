package gepa

import (
	"context"
	"fmt"

	"github.com/XiaoConstantine/dspy-go/pkg/core"

	"github.com/korhaliv/promptforge/internal/llm"
)

// ClientAdapter adapts the chat client to dspy-go's LLM interface. GEPA
// only exercises Generate; the remaining interface methods report
// themselves unimplemented.
type ClientAdapter struct {
	client *llm.Client
}

func NewClientAdapter(client *llm.Client) *ClientAdapter {
	return &ClientAdapter{client: client}
}

func (a *ClientAdapter) Generate(ctx context.Context, prompt string, opts ...core.GenerateOption) (*core.LLMResponse, error) {
	resp, err := a.client.Chat(ctx, []llm.ChatMessage{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	return &core.LLMResponse{
		Content: resp.Choices[0].Message.Content,
	}, nil
}

func (a *ClientAdapter) GenerateWithJSON(ctx context.Context, prompt string, opts ...core.GenerateOption) (map[string]interface{}, error) {
	return nil, fmt.Errorf("GenerateWithJSON not implemented: not required for GEPA optimization")
}

func (a *ClientAdapter) GenerateWithFunctions(ctx context.Context, prompt string, functions []map[string]interface{}, opts ...core.GenerateOption) (map[string]interface{}, error) {
	return nil, fmt.Errorf("GenerateWithFunctions not implemented: not required for GEPA optimization")
}

func (a *ClientAdapter) CreateEmbedding(ctx context.Context, input string, opts ...core.EmbeddingOption) (*core.EmbeddingResult, error) {
	return nil, fmt.Errorf("CreateEmbedding not implemented: use the embedding adapter instead")
}

func (a *ClientAdapter) CreateEmbeddings(ctx context.Context, inputs []string, opts ...core.EmbeddingOption) (*core.BatchEmbeddingResult, error) {
	return nil, fmt.Errorf("CreateEmbeddings not implemented: use the embedding adapter instead")
}

func (a *ClientAdapter) StreamGenerate(ctx context.Context, prompt string, opts ...core.GenerateOption) (*core.StreamResponse, error) {
	return nil, fmt.Errorf("StreamGenerate not implemented: optimization runs in batch mode")
}

func (a *ClientAdapter) GenerateWithContent(ctx context.Context, content []core.ContentBlock, opts ...core.GenerateOption) (*core.LLMResponse, error) {
	return nil, fmt.Errorf("GenerateWithContent not implemented: text prompts only")
}

func (a *ClientAdapter) StreamGenerateWithContent(ctx context.Context, content []core.ContentBlock, opts ...core.GenerateOption) (*core.StreamResponse, error) {
	return nil, fmt.Errorf("StreamGenerateWithContent not implemented: text prompts only")
}

func (a *ClientAdapter) ProviderName() string {
	return "promptforge"
}

func (a *ClientAdapter) ModelID() string {
	return a.client.Model()
}

func (a *ClientAdapter) Capabilities() []core.Capability {
	return []core.Capability{core.CapabilityChat, core.CapabilityCompletion}
}
