package city

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultCity は都市名が与えられない場合の既定値
const DefaultCity = "Tokyo"

// districtToCity は地区名（小文字）から親都市への対応表
var districtToCity = map[string]string{
	// 東京
	"shibuya":       "Tokyo",
	"shinjuku":      "Tokyo",
	"harajuku":      "Tokyo",
	"ginza":         "Tokyo",
	"asakusa":       "Tokyo",
	"akihabara":     "Tokyo",
	"roppongi":      "Tokyo",
	"ueno":          "Tokyo",
	"ikebukuro":     "Tokyo",
	"odaiba":        "Tokyo",
	"shinagawa":     "Tokyo",
	"ebisu":         "Tokyo",
	"meguro":        "Tokyo",
	"nakano":        "Tokyo",
	"kichijoji":     "Tokyo",
	"shimokitazawa": "Tokyo",
	"daikanyama":    "Tokyo",
	"omotesando":    "Tokyo",
	"kagurazaka":    "Tokyo",
	"yanaka":        "Tokyo",
	"ryogoku":       "Tokyo",
	"tsukiji":       "Tokyo",
	"toyosu":        "Tokyo",
	"marunouchi":    "Tokyo",
	"nihonbashi":    "Tokyo",
	"kabukicho":     "Tokyo",
	"minato":        "Tokyo",
	"chiyoda":       "Tokyo",

	// 大阪
	"namba":        "Osaka",
	"umeda":        "Osaka",
	"dotonbori":    "Osaka",
	"shinsaibashi": "Osaka",
	"tennoji":      "Osaka",
	"kitashinchi":  "Osaka",
	"shinsekai":    "Osaka",
	"amerikamura":  "Osaka",
	"nakanoshima":  "Osaka",

	// 京都
	"gion":        "Kyoto",
	"arashiyama":  "Kyoto",
	"higashiyama": "Kyoto",
	"kawaramachi": "Kyoto",
	"pontocho":    "Kyoto",
	"fushimi":     "Kyoto",
	"kiyomizu":    "Kyoto",
	"nijo":        "Kyoto",

	// 横浜
	"minato-mirai":       "Yokohama",
	"chinatown-yokohama": "Yokohama",
	"motomachi":          "Yokohama",
	"kannai":             "Yokohama",

	// 名古屋
	"sakae":  "Nagoya",
	"osu":    "Nagoya",
	"meieki": "Nagoya",

	// 神戸
	"sannomiya":      "Kobe",
	"motomachi-kobe": "Kobe",
	"kitano":         "Kobe",

	// 福岡
	"hakata": "Fukuoka",
	"tenjin": "Fukuoka",
	"nakasu": "Fukuoka",

	// 札幌
	"susukino": "Sapporo",
	"odori":    "Sapporo",
	"maruyama": "Sapporo",
}

// specialCases は単純な先頭大文字化では表現できない表示名
var specialCases = map[string]string{
	"minato-mirai":       "Minato Mirai",
	"chinatown-yokohama": "Yokohama Chinatown",
	"motomachi-kobe":     "Kobe Motomachi",
}

// Normalizer は地区名・別名を正規の都市名へ変換する
type Normalizer struct {
	defaultCity string
}

// NewNormalizer は新しいNormalizerを作成（空なら DefaultCity）
func NewNormalizer(defaultCity string) *Normalizer {
	if strings.TrimSpace(defaultCity) == "" {
		defaultCity = DefaultCity
	}
	return &Normalizer{defaultCity: defaultCity}
}

// DefaultCity は既定都市を返す
func (n *Normalizer) DefaultCity() string {
	return n.defaultCity
}

// Normalize は rawName を正規の都市名に変換する。失敗はしない
func (n *Normalizer) Normalize(rawName string) string {
	trimmed := strings.TrimSpace(rawName)
	if trimmed == "" {
		return n.defaultCity
	}

	mapped := trimmed
	if parent, ok := districtToCity[strings.ToLower(trimmed)]; ok {
		mapped = parent
	}

	return Capitalize(mapped)
}

// ParentCity は地区名に対応する親都市を返す。対応がなければ name をそのまま返す
func ParentCity(name string) string {
	if parent, ok := districtToCity[strings.ToLower(strings.TrimSpace(name))]; ok {
		return parent
	}
	return name
}

// Capitalize は先頭を大文字・残りを小文字にする（特殊表示名を除く）
func Capitalize(name string) string {
	if name == "" {
		return name
	}

	lower := strings.ToLower(name)
	if display, ok := specialCases[lower]; ok {
		return display
	}

	first, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(first)) + lower[size:]
}

// IsKnownDistrict は name が地区表に含まれるかを判定
func IsKnownDistrict(name string) bool {
	_, ok := districtToCity[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Districts は地区名と親都市の対応のコピーを返す
func Districts() map[string]string {
	result := make(map[string]string, len(districtToCity))
	for k, v := range districtToCity {
		result[k] = v
	}
	return result
}
