package translation

import "strings"

// 翻訳応答のラベル
const (
	LabelTranslation  = "TRANSLATION:"
	LabelIntent       = "INTENT:"
	LabelLocation     = "LOCATION:"
	LabelActivityType = "ACTIVITY_TYPE:"
)

// noneSentinel はモデルが「該当なし」を表す値
const noneSentinel = "none"

// Labels はラベル付き行形式の応答を解析した結果
type Labels struct {
	Translation  string
	Intent       string
	Location     string
	ActivityType string
}

// ParseLabels はラベル付き行形式の応答を解析
func ParseLabels(text string) Labels {
	return Labels{
		Translation:  ExtractLabel(text, LabelTranslation),
		Intent:       ExtractLabel(text, LabelIntent),
		Location:     ExtractLabel(text, LabelLocation),
		ActivityType: ExtractLabel(text, LabelActivityType),
	}
}

// ExtractLabel は label を含む最初の行から値を取り出す
// ラベル行がない場合と値が "none" の場合は空文字を返す
func ExtractLabel(text, label string) string {
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, label) {
			continue
		}

		value := strings.TrimSpace(strings.Replace(line, label, "", 1))
		if strings.EqualFold(value, noneSentinel) {
			return ""
		}
		return value
	}
	return ""
}
