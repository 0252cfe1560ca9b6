// Package gemini 提供 Google Gemini LLM 供应商实现。
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/astramed/pkg/llm"
	"github.com/kart-io/astramed/pkg/utils/httpclient"
)

// ProviderName 供应商名称
const ProviderName = "gemini"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *llm.CommonConfig {
	return &llm.CommonConfig{
		BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
		EmbedModel: "text-embedding-004",
		ChatModel:  "gemini-1.5-pro",
		Timeout:    60 * time.Second,
	}
}

// Provider Gemini 供应商实现。
type Provider struct {
	config *llm.CommonConfig
	client *httpclient.Client
}

var (
	_ llm.Provider = (*Provider)(nil)
	_ llm.Pinger   = (*Provider)(nil)
)

// NewProvider 从配置 map 创建 Gemini 供应商。
func NewProvider(configMap map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()
	cfg.Merge(configMap)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api_key is required")
	}
	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建 Gemini 供应商。
func NewProviderWithConfig(cfg *llm.CommonConfig) *Provider {
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) headers() map[string]string {
	return map[string]string{"x-goog-api-key": p.config.APIKey}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type embedContentRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type embedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type embedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// Embed 通过 batchEmbedContents 为多个文本生成向量嵌入。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := "models/" + p.config.EmbedModel
	reqBody := embedRequest{Requests: make([]embedContentRequest, len(texts))}
	for i, text := range texts {
		reqBody.Requests[i] = embedContentRequest{
			Model:   model,
			Content: content{Parts: []part{{Text: text}}},
		}
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", p.config.BaseURL, p.config.EmbedModel)
	var resp embedResponse
	if err := p.client.PostJSON(ctx, url, p.headers(), reqBody, &resp); err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embed: got %d embeddings for %d texts: %w", len(resp.Embeddings), len(texts), llm.ErrEmptyResponse)
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

// EmbedSingle 为单个文本生成向量嵌入。
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type chatRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type chatResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Chat 调用 generateContent 进行多轮对话。
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	o := llm.ApplyGenerateOptions(opts...)

	var reqBody chatRequest
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			reqBody.SystemInstruction = &content{Parts: []part{{Text: msg.Content}}}
		case llm.RoleUser:
			reqBody.Contents = append(reqBody.Contents, content{Role: "user", Parts: []part{{Text: msg.Content}}})
		case llm.RoleAssistant:
			reqBody.Contents = append(reqBody.Contents, content{Role: "model", Parts: []part{{Text: msg.Content}}})
		}
	}
	if o.Temperature != nil || o.MaxTokens > 0 {
		reqBody.GenerationConfig = &generationConfig{
			Temperature:     o.Temperature,
			MaxOutputTokens: o.MaxTokens,
		}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.config.BaseURL, p.config.ChatModel)
	var resp chatResponse
	if err := p.client.PostJSON(ctx, url, p.headers(), reqBody, &resp); err != nil {
		return "", fmt.Errorf("gemini chat: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini chat: %w", llm.ErrEmptyResponse)
	}

	var text string
	for _, pt := range resp.Candidates[0].Content.Parts {
		text += pt.Text
	}
	return text, nil
}

// Generate 根据提示生成文本。
func (p *Provider) Generate(ctx context.Context, prompt string, systemPrompt string, opts ...llm.GenerateOption) (string, error) {
	return p.Chat(ctx, llm.BuildMessages(prompt, systemPrompt), opts...)
}

type modelsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Ping 列出一个模型，用于检查服务可达且 API 密钥有效。
func (p *Provider) Ping(ctx context.Context) error {
	var resp modelsResponse
	if err := p.client.GetJSON(ctx, p.config.BaseURL+"/models?pageSize=1", p.headers(), &resp); err != nil {
		return fmt.Errorf("gemini ping: %w", err)
	}
	return nil
}
