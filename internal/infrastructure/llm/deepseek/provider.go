package deepseek

import (
	"github.com/openai/openai-go/v3/option"

	"github.com/Nyukimin/tabitenki/internal/infrastructure/llm/openai"
)

const (
	// DefaultBaseURL はDeepSeek APIのベースURL
	DefaultBaseURL = "https://api.deepseek.com/v1/"
	// DefaultModel は既定のモデル
	DefaultModel = "deepseek-chat"
)

// DeepSeekProvider はDeepSeek APIプロバイダーの実装
// DeepSeek APIはOpenAI互換のため、OpenAIProviderにベースURLを与えて利用する
type DeepSeekProvider struct {
	*openai.OpenAIProvider
}

// NewDeepSeekProvider は新しいDeepSeekProviderを作成
func NewDeepSeekProvider(apiKey, model string, opts ...option.RequestOption) (*DeepSeekProvider, error) {
	if model == "" {
		model = DefaultModel
	}

	inner, err := openai.NewCompatibleProvider("deepseek", apiKey, model, DefaultBaseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &DeepSeekProvider{OpenAIProvider: inner}, nil
}
