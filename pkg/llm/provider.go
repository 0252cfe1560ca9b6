// Package llm 提供统一的 LLM 供应商抽象层。
// Embedding 和 Chat 可以使用不同供应商的模型。
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrEmptyResponse 供应商返回了空结果。
var ErrEmptyResponse = errors.New("llm: empty response")

// EmbeddingProvider 定义 Embedding 供应商接口。
type EmbeddingProvider interface {
	// Embed 为多个文本生成向量嵌入，结果顺序与输入一致。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 为单个文本生成向量嵌入。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name 返回供应商名称。
	Name() string
}

// ChatProvider 定义 Chat 供应商接口。
type ChatProvider interface {
	// Chat 进行多轮对话。
	Chat(ctx context.Context, messages []Message, opts ...GenerateOption) (string, error)

	// Generate 根据提示生成文本（单轮），systemPrompt 可为空。
	Generate(ctx context.Context, prompt string, systemPrompt string, opts ...GenerateOption) (string, error)

	// Name 返回供应商名称。
	Name() string
}

// Pinger 由能够探测服务可达性的供应商实现。
type Pinger interface {
	// Ping 发起一次轻量请求，服务不可达或鉴权失败时返回错误。
	Ping(ctx context.Context) error
}

// Ping 探测供应商是否可达。未实现 Pinger 的供应商视为可达。
func Ping(ctx context.Context, p any) error {
	if pinger, ok := p.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// Provider 同时支持 Embedding 和 Chat 的完整供应商。
type Provider interface {
	EmbeddingProvider
	ChatProvider
}

// Message 表示对话中的一条消息。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role 定义消息角色。
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// GenerateOptions 单次生成调用的参数，nil 字段表示使用供应商默认值。
type GenerateOptions struct {
	Temperature *float64
	MaxTokens   int
}

// GenerateOption 修改 GenerateOptions。
type GenerateOption func(*GenerateOptions)

// WithTemperature 设置采样温度。
func WithTemperature(t float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = &t
	}
}

// WithMaxTokens 设置最大输出 token 数。
func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = n
	}
}

// ApplyGenerateOptions 合并选项。
func ApplyGenerateOptions(opts ...GenerateOption) GenerateOptions {
	var o GenerateOptions
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// BuildMessages 组装单轮对话消息。
func BuildMessages(prompt, systemPrompt string) []Message {
	messages := make([]Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	return append(messages, Message{Role: RoleUser, Content: prompt})
}

// ProviderFactory 供应商工厂函数类型。
type ProviderFactory func(config map[string]any) (Provider, error)

var registry = struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}{factories: make(map[string]ProviderFactory)}

// RegisterProvider 注册供应商工厂，同名注册会覆盖。
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.factories[name] = factory
}

func lookup(name string) (ProviderFactory, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	factory, ok := registry.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %q (registered: %v)", name, listLocked())
	}
	return factory, nil
}

// NewProvider 根据名称创建完整供应商实例。
func NewProvider(name string, config map[string]any) (Provider, error) {
	factory, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return factory(config)
}

// NewEmbeddingProvider 根据名称创建 Embedding 供应商实例。
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	return NewProvider(name, config)
}

// NewChatProvider 根据名称创建 Chat 供应商实例。
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	return NewProvider(name, config)
}

// ListProviders 返回已注册的供应商名称（已排序）。
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return listLocked()
}

func listLocked() []string {
	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommonConfig 各供应商共享的配置项。
type CommonConfig struct {
	BaseURL      string
	APIKey       string
	EmbedModel   string
	ChatModel    string
	Timeout      time.Duration
	MaxRetries   int
	Organization string
}

// Merge 将配置 map 中的非零值覆盖到 c 上，键名与 ProviderOptions.ToConfigMap 一致。
func (c *CommonConfig) Merge(config map[string]any) {
	if v, ok := config["base_url"].(string); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := config["api_key"].(string); ok && v != "" {
		c.APIKey = v
	}
	if v, ok := config["embed_model"].(string); ok && v != "" {
		c.EmbedModel = v
	}
	if v, ok := config["chat_model"].(string); ok && v != "" {
		c.ChatModel = v
	}
	if v, ok := config["timeout"].(time.Duration); ok && v > 0 {
		c.Timeout = v
	}
	if v, ok := config["max_retries"].(int); ok && v >= 0 {
		c.MaxRetries = v
	}
	if v, ok := config["organization"].(string); ok && v != "" {
		c.Organization = v
	}
}
