package translation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Nyukimin/tabitenki/internal/domain/llm"
	"github.com/Nyukimin/tabitenki/internal/domain/translation"
)

// DefaultBatchDelay はバッチ翻訳の間隔
const DefaultBatchDelay = 100 * time.Millisecond

// Translator はLLMによる日本語→英語翻訳
type Translator struct {
	llmProvider llm.LLMProvider
	batchDelay  time.Duration
	now         func() time.Time
}

// NewTranslator は新しいTranslatorを作成
func NewTranslator(llmProvider llm.LLMProvider) *Translator {
	return &Translator{
		llmProvider: llmProvider,
		batchDelay:  DefaultBatchDelay,
		now:         time.Now,
	}
}

// SetBatchDelay はバッチ翻訳の間隔を設定（テスト用）
func (t *Translator) SetBatchDelay(d time.Duration) {
	t.batchDelay = d
}

// IsJapanese は翻訳が必要な文字を含むかを判定
func (t *Translator) IsJapanese(text string) bool {
	return translation.IsJapanese(text)
}

// TranslateAndExtractIntent は翻訳と同時に意図・地名・活動種別を抽出
func (t *Translator) TranslateAndExtractIntent(ctx context.Context, text string) (*translation.Result, error) {
	prompt := fmt.Sprintf(`Translate this Japanese text to English and extract travel-related information.

Japanese text: "%s"

Provide response in this exact format:
TRANSLATION: [English translation]
INTENT: [what the user wants to know/do]
LOCATION: [any location mentioned, or "none"]
ACTIVITY_TYPE: [travel/food/sports/fashion/general]

Be precise and literal in translation.`, text)

	content, err := t.generate(ctx, prompt, 0.2)
	if err != nil {
		return nil, err
	}

	labels := translation.ParseLabels(content)
	return &translation.Result{
		OriginalText: text,
		Translation:  labels.Translation,
		Intent:       labels.Intent,
		Location:     labels.Location,
		ActivityType: labels.ActivityType,
		IsJapanese:   true,
		Timestamp:    t.now(),
	}, nil
}

// TranslateSimple は翻訳文のみを返す
func (t *Translator) TranslateSimple(ctx context.Context, text string) (*translation.Simple, error) {
	prompt := fmt.Sprintf("Translate this Japanese text to English. Provide only the translation, nothing else:\n\"%s\"", text)

	content, err := t.generate(ctx, prompt, 0.2)
	if err != nil {
		return nil, err
	}

	return &translation.Simple{
		OriginalText:   text,
		TranslatedText: strings.TrimSpace(content),
		Timestamp:      t.now(),
	}, nil
}

// TranslateWithContext は文脈を添えて翻訳
func (t *Translator) TranslateWithContext(ctx context.Context, text, contextHint string) (*translation.Simple, error) {
	prompt := fmt.Sprintf("Translate this Japanese text to English.\nContext: %s\nJapanese text: \"%s\"\nProvide only the English translation:", contextHint, text)

	content, err := t.generate(ctx, prompt, 0.2)
	if err != nil {
		return nil, err
	}

	return &translation.Simple{
		OriginalText:   text,
		TranslatedText: strings.TrimSpace(content),
		Context:        contextHint,
		Timestamp:      t.now(),
	}, nil
}

// TranslateBatch は順番に翻訳し、個別の失敗は結果に記録する
// 成功ごとに batchDelay だけ待機する
func (t *Translator) TranslateBatch(ctx context.Context, texts []string) []translation.Simple {
	results := make([]translation.Simple, 0, len(texts))

	for _, text := range texts {
		res, err := t.TranslateSimple(ctx, text)
		if err != nil {
			results = append(results, translation.Simple{
				OriginalText: text,
				Error:        err.Error(),
				Timestamp:    t.now(),
			})
			continue
		}
		results = append(results, *res)

		if t.batchDelay > 0 {
			timer := time.NewTimer(t.batchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}

	return results
}

func (t *Translator) generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	req := llm.Prompt(prompt)
	req.Temperature = temperature

	content, err := llm.Complete(ctx, t.llmProvider, req)
	if err != nil {
		log.Printf("[Translation] %s failed: %v", t.llmProvider.Name(), err)
		return "", fmt.Errorf("%w: %v", translation.ErrTranslationFailed, err)
	}
	return content, nil
}
