package suggestion

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Nyukimin/tabitenki/internal/domain/llm"
	"github.com/Nyukimin/tabitenki/internal/domain/suggestion"
)

// Generator はLLMで天気に応じた旅行提案を生成する
type Generator struct {
	llmProvider llm.LLMProvider
	maxTokens   int
}

// NewGenerator は新しいGeneratorを作成
func NewGenerator(llmProvider llm.LLMProvider) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		maxTokens:   2048,
	}
}

// GenerateBilingual は英語・日本語の二言語で提案を生成
func (g *Generator) GenerateBilingual(ctx context.Context, enhancedPrompt, city string) (*suggestion.Suggestions, error) {
	log.Printf("[Suggestion] Generating bilingual travel suggestions for %s via %s", city, g.llmProvider.Name())

	content, err := g.generate(ctx, bilingualPrompt(enhancedPrompt, city))
	if err != nil {
		return nil, err
	}
	return suggestion.ParseBilingual(content), nil
}

// GenerateMonolingual は英語のみで提案を生成
func (g *Generator) GenerateMonolingual(ctx context.Context, enhancedPrompt, city string) (*suggestion.Suggestions, error) {
	log.Printf("[Suggestion] Generating travel suggestions for %s via %s", city, g.llmProvider.Name())

	content, err := g.generate(ctx, monolingualPrompt(enhancedPrompt, city))
	if err != nil {
		return nil, err
	}
	return suggestion.Monolingual(strings.TrimSpace(content)), nil
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	req := llm.Prompt(prompt)
	req.MaxTokens = g.maxTokens
	req.Temperature = 0.7

	content, err := llm.Complete(ctx, g.llmProvider, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", suggestion.ErrGenerationFailed, err)
	}
	return content, nil
}

func bilingualPrompt(enhancedPrompt, city string) string {
	return fmt.Sprintf(`You are a travel assistant for %[1]s, Japan. Respond naturally to what the user is asking.

%[2]s

RESPONSE APPROACH:
1. Read the user's message carefully and answer THAT specific question first
2. Let the weather conditions inform your advice (don't just list weather stats)
3. Be conversational, not formulaic
4. Use simple text in the response: no bold font, emoji, icons or other decoration

CONTEXT-AWARE GUIDELINES:
- If user asks about weather → Focus on conditions and how they affect plans
- If user asks what to wear → Specific clothing advice for the temperature/conditions
- If user asks what to do → Activities that work well with current weather
- If user asks about food → Weather-appropriate dining suggestions
- If general travel question → Brief weather context, then relevant suggestions

BILINGUAL OUTPUT FORMAT:

%[3]s
[Natural conversational response that directly addresses what they asked]
[Include 3-5 practical suggestions relevant to their question and the weather]
[Mention specific places in %[1]s when applicable]

%[4]s
[Natural Japanese translation using appropriate politeness]
[Maintain the helpful tone but allow natural Japanese sentence flow]

QUALITY GUIDELINES:
- Avoid bold text, emoji and icons; keep the response simple and polite
- Start with what they're actually asking about
- If weather is severe (storm/extreme heat/cold), mention safety first
- Keep suggestions specific to %[1]s, not generic Japan
- Total response: 5-8 sentences in each language
- Adapt your response style to the question - don't force categories if not needed`,
		city, enhancedPrompt, suggestion.EnglishMarker, suggestion.JapaneseMarker)
}

func monolingualPrompt(enhancedPrompt, city string) string {
	return fmt.Sprintf(`You are a knowledgeable travel assistant specializing in Japan.
Generate personalized suggestions based on the weather conditions and user request provided below.

%[2]s

Give an accurate answer to the user's request in 4 sentences, then add concise suggestions in these categories:

1. Travel & Sightseeing:
   - List 3-4 key attractions suitable for the weather.

2. Outdoor Activities & Sports:
   - Suggest weather-appropriate activities (hiking, cycling, beach, etc.).
   - Consider temperature and wind conditions.

3. Fashion & Clothing Recommendations:
   - Suggest clothing for current temperature.
   - Include layering advice for temperature changes.
   - Recommend necessary accessories (umbrella, sunglasses, etc.).

4. Practical Tips:
   - Transportation recommendations.
   - Budget-friendly alternatives.

Requirements:
- Use bullet points only; no emojis, icons, or bold text.
- One sentence per suggestion; avoid long explanations or extra commentary.
- Focus on actionable, realistic advice suitable for a traveler in Japan.
- Be specific about locations in %[1]s, times, and practical details.`,
		city, enhancedPrompt)
}
