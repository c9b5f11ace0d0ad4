package location

// Method は都市の抽出方法を表す型
type Method string

// 抽出方法の定数定義
const (
	MethodPatternMatch          Method = "pattern_match"          // 既知表記の部分一致
	MethodAIExtraction          Method = "ai_extraction"          // LLMによるJSON抽出
	MethodTranslationExtraction Method = "translation_extraction" // 翻訳結果のLOCATION欄
)

// 固定の確信度
const (
	PatternMatchConfidence = 0.95
	TranslationConfidence  = 0.8
	DefaultAIConfidence    = 0.5
)

// String はMethodの文字列表現を返す
func (m Method) String() string {
	return string(m)
}

// Result は位置抽出の結果を表す。リクエストごとに一度だけ消費される
type Result struct {
	City         string  `json:"city"`
	Confidence   float64 `json:"confidence"`
	Method       Method  `json:"method"`
	OriginalText string  `json:"originalText,omitempty"` // 一致した表記
	Type         string  `json:"type,omitempty"`         // city/district/region/landmark/unknown
}

// NewResult は新しいResultを作成
func NewResult(city string, confidence float64, method Method) *Result {
	return &Result{
		City:       city,
		Confidence: confidence,
		Method:     method,
	}
}

// FromTranslationHint は翻訳のLOCATION欄から低確信度の結果を作る
func FromTranslationHint(hint string) *Result {
	if hint == "" {
		return nil
	}
	return NewResult(hint, TranslationConfidence, MethodTranslationExtraction)
}
