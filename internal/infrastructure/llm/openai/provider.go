package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Nyukimin/tabitenki/internal/domain/llm"
)

const (
	// DefaultBaseURL はOpenAI APIのベースURL
	DefaultBaseURL = "https://api.openai.com/v1/"
	// DefaultModel は既定のモデル
	DefaultModel = "gpt-4o-mini"

	requestTimeout = 120 * time.Second
)

// ErrMissingAPIKey はAPIキー未設定エラー
var ErrMissingAPIKey = errors.New("openai: API key is required")

// OpenAIProvider はOpenAI Chat Completions APIプロバイダーの実装
// OpenAI互換APIでも prefix と baseURL を変えて利用する
type OpenAIProvider struct {
	client sdk.Client
	model  string
	prefix string
}

// NewOpenAIProvider は新しいOpenAIProviderを作成
func NewOpenAIProvider(apiKey, model string, opts ...option.RequestOption) (*OpenAIProvider, error) {
	return NewCompatibleProvider("openai", apiKey, model, DefaultBaseURL, opts...)
}

// NewCompatibleProvider はOpenAI互換エンドポイント向けのプロバイダーを作成
func NewCompatibleProvider(prefix, apiKey, model, baseURL string, opts ...option.RequestOption) (*OpenAIProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%s: %w", prefix, ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultModel
	}

	// リトライは行わない。後ろのオプションが優先される
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(requestTimeout),
	}

	return &OpenAIProvider{
		client: sdk.NewClient(append(base, opts...)...),
		model:  model,
		prefix: prefix,
	}, nil
}

// Generate はLLM生成を実行
func (p *OpenAIProvider) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(p.model),
		Messages: p.convertMessages(req),
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("%s API error: %w", p.prefix, err)
	}

	// コンテンツ抽出
	var content, finishReason string
	if len(completion.Choices) > 0 {
		content = completion.Choices[0].Message.Content
		finishReason = string(completion.Choices[0].FinishReason)
	}

	return llm.GenerateResponse{
		Content:      content,
		TokensUsed:   int(completion.Usage.TotalTokens),
		FinishReason: finishReason,
	}, nil
}

// Name はプロバイダー名を返す
func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("%s-%s", p.prefix, p.model)
}

// convertMessages はドメインメッセージをChat Completionsのメッセージに変換
func (p *OpenAIProvider) convertMessages(req llm.GenerateRequest) []sdk.ChatCompletionMessageParamUnion {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)

	// システムプロンプトを最初に追加
	if req.SystemPrompt != "" {
		messages = append(messages, sdk.SystemMessage(req.SystemPrompt))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			messages = append(messages, sdk.SystemMessage(msg.Content))
		case "assistant":
			messages = append(messages, sdk.AssistantMessage(msg.Content))
		default:
			messages = append(messages, sdk.UserMessage(msg.Content))
		}
	}

	return messages
}
