package suggestion

import (
	"context"
	"errors"
	"strings"
)

// ErrGenerationFailed は応答生成の失敗を示す
var ErrGenerationFailed = errors.New("AI suggestion error")

// 二言語応答のセクション見出し
const (
	EnglishMarker  = "=== ENGLISH ==="
	JapaneseMarker = "=== JAPANESE ==="
)

// Suggestions は生成された旅行提案
// 日本語見出しが無い二言語応答では Japanese が nil のまま IsBilingual が true になる
type Suggestions struct {
	English     string  `json:"english"`
	Japanese    *string `json:"japanese"`
	IsBilingual bool    `json:"isBilingual"`
}

// Generator は天気を織り込んだプロンプトから提案を生成する
type Generator interface {
	GenerateBilingual(ctx context.Context, enhancedPrompt, city string) (*Suggestions, error)
	GenerateMonolingual(ctx context.Context, enhancedPrompt, city string) (*Suggestions, error)
}

// ParseBilingual は見出しで区切られた応答を英語と日本語に分割
func ParseBilingual(full string) *Suggestions {
	s := &Suggestions{English: full, IsBilingual: true}

	if i := strings.Index(full, EnglishMarker); i >= 0 {
		rest := full[i+len(EnglishMarker):]
		if j := strings.Index(rest, JapaneseMarker); j >= 0 {
			rest = rest[:j]
		}
		s.English = strings.TrimSpace(rest)
	}

	if i := strings.Index(full, JapaneseMarker); i >= 0 {
		ja := strings.TrimSpace(full[i+len(JapaneseMarker):])
		s.Japanese = &ja
	}

	return s
}

// Monolingual は英語のみの提案を作成
func Monolingual(text string) *Suggestions {
	return &Suggestions{English: text}
}
