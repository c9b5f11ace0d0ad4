package translation

import (
	"errors"
	"time"
)

// ErrTranslationFailed は翻訳モデル呼び出しが失敗した場合のエラー
var ErrTranslationFailed = errors.New("translation failed")

// Result は翻訳と意図抽出の結果
type Result struct {
	OriginalText string    `json:"originalText"`
	Translation  string    `json:"englishTranslation"`
	Intent       string    `json:"userIntent,omitempty"`
	Location     string    `json:"location,omitempty"`
	ActivityType string    `json:"activityType,omitempty"`
	IsJapanese   bool      `json:"isJapanese"`
	Timestamp    time.Time `json:"timestamp"`
}

// Simple は単純翻訳の結果
type Simple struct {
	OriginalText   string    `json:"originalText"`
	TranslatedText string    `json:"translatedText"`
	Context        string    `json:"context,omitempty"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// IsJapanese は text にひらがな・カタカナ・漢字が含まれるかを判定
func IsJapanese(text string) bool {
	for _, r := range text {
		switch {
		case r >= 0x3040 && r <= 0x309F: // ひらがな
			return true
		case r >= 0x30A0 && r <= 0x30FF: // カタカナ
			return true
		case r >= 0x4E00 && r <= 0x9FAF: // CJK統合漢字
			return true
		}
	}
	return false
}
