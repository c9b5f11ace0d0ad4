package location

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Nyukimin/tabitenki/internal/domain/city"
	"github.com/Nyukimin/tabitenki/internal/domain/llm"
	"github.com/Nyukimin/tabitenki/internal/domain/location"
)

// LLMExtractor はLLMにJSONで地名を答えさせる抽出器
type LLMExtractor struct {
	llmProvider llm.LLMProvider
}

// NewLLMExtractor は新しいLLMExtractorを作成
func NewLLMExtractor(llmProvider llm.LLMProvider) *LLMExtractor {
	return &LLMExtractor{
		llmProvider: llmProvider,
	}
}

// extraction はLLM応答のJSON
type extraction struct {
	City       string        `json:"city"`
	Confidence flexibleFloat `json:"confidence"`
	Type       string        `json:"type"`
}

// flexibleFloat は数値・文字列の両方を受け付ける
type flexibleFloat float64

func (f *flexibleFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexibleFloat(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("confidence must be a number or string: %w", err)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexibleFloat(n)
	return nil
}

// Extract はテキストから地名を抽出
// 地名が無い場合は nil, nil を返す
func (e *LLMExtractor) Extract(ctx context.Context, text string) (*location.Result, error) {
	req := llm.GenerateRequest{
		Messages: []llm.Message{
			{Role: "user", Content: e.buildPrompt(text)},
		},
		MaxTokens:   100,
		Temperature: 0.1, // 低温度で安定した抽出
	}

	resp, err := e.llmProvider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM location extraction failed: %w", err)
	}

	parsed, err := parseExtraction(resp.Content)
	if err != nil {
		return nil, err
	}

	if parsed.City == "" || strings.EqualFold(strings.TrimSpace(parsed.City), "none") {
		return nil, nil
	}

	confidence := float64(parsed.Confidence)
	if confidence == 0 {
		confidence = location.DefaultAIConfidence
	}
	kind := parsed.Type
	if kind == "" {
		kind = "unknown"
	}

	result := location.NewResult(city.Capitalize(city.ParentCity(strings.TrimSpace(parsed.City))), confidence, location.MethodAIExtraction)
	result.Type = kind
	return result, nil
}

// parseExtraction はLLM応答からJSONを取り出してパース
// コードフェンスで囲まれた応答も受け付ける
func parseExtraction(content string) (extraction, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}

	var parsed extraction
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &parsed); err != nil {
		return extraction{}, fmt.Errorf("failed to parse location JSON: %w", err)
	}
	return parsed, nil
}

// buildPrompt は抽出用のプロンプトを構築
func (e *LLMExtractor) buildPrompt(text string) string {
	return fmt.Sprintf(`Extract location/city information from the following text.
Only consider Japanese locations (cities, districts, regions, landmarks).

Text: %q

Respond ONLY in valid JSON with this schema:
{
  "city": "string | none",
  "confidence": "number between 0.0 and 1.0",
  "type": "city | district | region | landmark | unknown"
}

Rules:
- If no location is found, use "city": "none" and confidence: 0.0.
- Always use standardized English names (Tokyo, Osaka, Kyoto, etc.).
- Example: "How's the weather in Shibuya?" → {"city": "Shibuya", "confidence": 0.85, "type": "district"}`, text)
}
