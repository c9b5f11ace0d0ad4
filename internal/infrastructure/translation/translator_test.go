package translation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyukimin/tabitenki/internal/domain/llm"
	"github.com/Nyukimin/tabitenki/internal/domain/translation"
)

// mockLLMProvider はプロンプトごとに応答を返すテスト用プロバイダー
type mockLLMProvider struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
	prompts []string
}

func (m *mockLLMProvider) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	prompt := req.Messages[0].Content

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	content, err := m.respond(prompt)
	if err != nil {
		return llm.GenerateResponse{}, err
	}
	return llm.GenerateResponse{Content: content}, nil
}

func (m *mockLLMProvider) Name() string {
	return "mock-llm"
}

func fixed(content string) *mockLLMProvider {
	return &mockLLMProvider{respond: func(string) (string, error) { return content, nil }}
}

func TestTranslator_TranslateAndExtractIntent(t *testing.T) {
	mock := fixed("TRANSLATION: What should I wear in Kyoto?\nINTENT: clothing advice\nLOCATION: Kyoto\nACTIVITY_TYPE: fashion\n")
	tr := NewTranslator(mock)

	res, err := tr.TranslateAndExtractIntent(context.Background(), "京都で何を着ればいい？")
	require.NoError(t, err)

	assert.Equal(t, "京都で何を着ればいい？", res.OriginalText)
	assert.Equal(t, "What should I wear in Kyoto?", res.Translation)
	assert.Equal(t, "clothing advice", res.Intent)
	assert.Equal(t, "Kyoto", res.Location)
	assert.Equal(t, "fashion", res.ActivityType)
	assert.True(t, res.IsJapanese)
	assert.False(t, res.Timestamp.IsZero())

	require.Len(t, mock.prompts, 1)
	assert.Contains(t, mock.prompts[0], `Japanese text: "京都で何を着ればいい？"`)
	assert.Contains(t, mock.prompts[0], "ACTIVITY_TYPE:")
}

func TestTranslator_TranslateAndExtractIntent_NoneLocation(t *testing.T) {
	tr := NewTranslator(fixed("TRANSLATION: Is it hot?\nINTENT: weather\nLOCATION: none\nACTIVITY_TYPE: general"))

	res, err := tr.TranslateAndExtractIntent(context.Background(), "暑い？")
	require.NoError(t, err)
	assert.Empty(t, res.Location)
}

func TestTranslator_FailurePropagates(t *testing.T) {
	boom := errors.New("quota")
	tr := NewTranslator(&mockLLMProvider{respond: func(string) (string, error) { return "", boom }})

	_, err := tr.TranslateAndExtractIntent(context.Background(), "こんにちは")
	assert.ErrorIs(t, err, translation.ErrTranslationFailed)
	assert.Contains(t, err.Error(), "quota")

	_, err = tr.TranslateSimple(context.Background(), "こんにちは")
	assert.ErrorIs(t, err, translation.ErrTranslationFailed)
}

func TestTranslator_EmptyResponseFails(t *testing.T) {
	tr := NewTranslator(fixed("   "))

	_, err := tr.TranslateSimple(context.Background(), "こんにちは")
	assert.ErrorIs(t, err, translation.ErrTranslationFailed)
}

func TestTranslator_TranslateSimple(t *testing.T) {
	tr := NewTranslator(fixed("  Hello  \n"))

	res, err := tr.TranslateSimple(context.Background(), "こんにちは")
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.TranslatedText)
	assert.Equal(t, "こんにちは", res.OriginalText)
}

func TestTranslator_TranslateWithContext(t *testing.T) {
	mock := fixed("Bridge")
	tr := NewTranslator(mock)

	res, err := tr.TranslateWithContext(context.Background(), "橋", "sightseeing in Kyoto")
	require.NoError(t, err)
	assert.Equal(t, "Bridge", res.TranslatedText)
	assert.Equal(t, "sightseeing in Kyoto", res.Context)
	assert.Contains(t, mock.prompts[0], "Context: sightseeing in Kyoto")
}

func TestTranslator_TranslateBatch(t *testing.T) {
	mock := &mockLLMProvider{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "失敗") {
			return "", errors.New("blocked")
		}
		return "ok", nil
	}}
	tr := NewTranslator(mock)
	tr.SetBatchDelay(0)

	results := tr.TranslateBatch(context.Background(), []string{"一", "失敗", "三"})
	require.Len(t, results, 3)

	assert.Equal(t, "ok", results[0].TranslatedText)
	assert.Empty(t, results[0].Error)
	assert.Empty(t, results[1].TranslatedText)
	assert.Contains(t, results[1].Error, "blocked")
	assert.Equal(t, "失敗", results[1].OriginalText)
	assert.Equal(t, "ok", results[2].TranslatedText)
}

func TestTranslator_IsJapanese(t *testing.T) {
	tr := NewTranslator(fixed(""))
	assert.True(t, tr.IsJapanese("渋谷"))
	assert.False(t, tr.IsJapanese("Shibuya"))
}
