package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"

	"github.com/Nyukimin/tabitenki/internal/domain/llm"
)

// DefaultModel は既定のGeminiモデル
const DefaultModel = "gemini-1.5-flash"

// ErrMissingAPIKey はAPIキー未設定エラー
var ErrMissingAPIKey = errors.New("gemini: API key is required")

// GeminiProvider はGoogle Gen AI SDKによるプロバイダー実装
type GeminiProvider struct {
	model  string
	client *genai.Client
}

// Option はクライアント設定の追加オプション
type Option func(*genai.ClientConfig)

// WithBaseURL はAPIのベースURLを差し替える（テスト用）
func WithBaseURL(url string) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = url
	}
}

// NewGeminiProvider は新しいGeminiProviderを作成
// キーが空の場合は初期化時点で失敗する
func NewGeminiProvider(ctx context.Context, apiKey, model string, opts ...Option) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{
		model:  model,
		client: client,
	}, nil
}

// Generate はLLM生成を実行
func (p *GeminiProvider) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 && req.MaxTokens <= math.MaxInt32 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents, system := p.buildContents(req)
	if system != nil {
		config.SystemInstruction = system
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("gemini API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return llm.GenerateResponse{}, fmt.Errorf("gemini API error: no candidates in response")
	}

	candidate := resp.Candidates[0]
	var content strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				content.WriteString(part.Text)
			}
		}
	}

	finishReason := strings.ToLower(string(candidate.FinishReason))
	if finishReason == "" {
		finishReason = "stop"
	}

	var tokens int
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return llm.GenerateResponse{
		Content:      content.String(),
		TokensUsed:   tokens,
		FinishReason: finishReason,
	}, nil
}

// Name はプロバイダー名を返す
func (p *GeminiProvider) Name() string {
	return fmt.Sprintf("gemini-%s", p.model)
}

// buildContents はドメインメッセージをGen AIのContentに変換
// system ロールは SystemInstruction にまとめる
func (p *GeminiProvider) buildContents(req llm.GenerateRequest) ([]*genai.Content, *genai.Content) {
	var systemParts []*genai.Part
	if req.SystemPrompt != "" {
		systemParts = append(systemParts, &genai.Part{Text: req.SystemPrompt})
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			systemParts = append(systemParts, &genai.Part{Text: msg.Content})
		case "assistant":
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	if len(systemParts) == 0 {
		return contents, nil
	}
	return contents, &genai.Content{Parts: systemParts}
}
