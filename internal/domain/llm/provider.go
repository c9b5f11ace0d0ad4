package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse はLLMが空の応答を返した場合のエラー
var ErrEmptyResponse = errors.New("llm returned empty response")

// Message はLLMメッセージを表す
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// GenerateRequest はLLM生成リクエスト
type GenerateRequest struct {
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
}

// GenerateResponse はLLM生成レスポンス
type GenerateResponse struct {
	Content      string
	TokensUsed   int
	FinishReason string
}

// LLMProvider はLLMプロバイダーの抽象化
type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}

// Prompt は単一のユーザープロンプトからリクエストを作成
func Prompt(text string) GenerateRequest {
	return GenerateRequest{
		Messages: []Message{{Role: "user", Content: text}},
	}
}

// Complete はプロンプトを送信し応答本文を返す
// 空白のみの応答は ErrEmptyResponse とする
func Complete(ctx context.Context, p LLMProvider, req GenerateRequest) (string, error) {
	resp, err := p.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.Name(), err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%s: %w", p.Name(), ErrEmptyResponse)
	}
	return resp.Content, nil
}
