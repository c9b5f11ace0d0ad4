package location

import (
	"strings"

	"github.com/Nyukimin/tabitenki/internal/domain/city"
	"github.com/Nyukimin/tabitenki/internal/domain/location"
)

// entry は地名と表記ゆれ（ローマ字・漢字・ひらがな）の組
type entry struct {
	key      string
	variants []string
}

// defaultEntries は地名辞書
// 順序に意味がある: 複数の表記に一致する場合は先の項目が優先される
var defaultEntries = []entry{
	// 主要都市
	{"tokyo", []string{"tokyo", "tokio", "東京", "とうきょう"}},
	{"osaka", []string{"osaka", "ōsaka", "大阪", "おおさか"}},
	{"kyoto", []string{"kyoto", "kyōto", "京都", "きょうと"}},
	{"yokohama", []string{"yokohama", "横浜", "よこはま"}},
	{"nagoya", []string{"nagoya", "名古屋", "なごや"}},
	{"sapporo", []string{"sapporo", "札幌", "さっぽろ"}},
	{"fukuoka", []string{"fukuoka", "福岡", "ふくおか"}},
	{"kobe", []string{"kobe", "kōbe", "神戸", "こうべ"}},
	{"kawasaki", []string{"kawasaki", "川崎", "かわさき"}},
	{"saitama", []string{"saitama", "埼玉", "さいたま"}},
	{"hiroshima", []string{"hiroshima", "広島", "ひろしま"}},
	{"sendai", []string{"sendai", "仙台", "せんだい"}},
	{"chiba", []string{"chiba", "千葉", "ちば"}},
	{"kitakyushu", []string{"kitakyushu", "北九州", "きたきゅうしゅう"}},
	{"sakai", []string{"sakai", "堺", "さかい"}},
	{"niigata", []string{"niigata", "新潟", "にいがた"}},
	{"hamamatsu", []string{"hamamatsu", "浜松", "はままつ"}},
	{"kumamoto", []string{"kumamoto", "熊本", "くまもと"}},
	{"sagamihara", []string{"sagamihara", "相模原", "さがみはら"}},
	{"okayama", []string{"okayama", "岡山", "おかやま"}},
	{"shizuoka", []string{"shizuoka", "静岡", "しずおか"}},
	{"kagoshima", []string{"kagoshima", "鹿児島", "かごしま"}},
	{"funabashi", []string{"funabashi", "船橋", "ふなばし"}},
	{"kawaguchi", []string{"kawaguchi", "川口", "かわぐち"}},
	{"himeji", []string{"himeji", "姫路", "ひめじ"}},
	{"matsuyama", []string{"matsuyama", "松山", "まつやま"}},
	{"utsunomiya", []string{"utsunomiya", "宇都宮", "うつのみや"}},
	{"matsudo", []string{"matsudo", "松戸", "まつど"}},
	{"nishinomiya", []string{"nishinomiya", "西宮", "にしのみや"}},
	{"kurashiki", []string{"kurashiki", "倉敷", "くらしき"}},
	{"ichikawa", []string{"ichikawa", "市川", "いちかわ"}},
	{"fukuyama", []string{"fukuyama", "福山", "ふくやま"}},
	{"amagasaki", []string{"amagasaki", "尼崎", "あまがさき"}},
	{"kanazawa", []string{"kanazawa", "金沢", "かなざわ"}},
	{"nagasaki", []string{"nagasaki", "長崎", "ながさき"}},
	{"takamatsu", []string{"takamatsu", "高松", "たかまつ"}},
	{"toyama", []string{"toyama", "富山", "とやま"}},
	{"gifu", []string{"gifu", "岐阜", "ぎふ"}},
	{"wakayama", []string{"wakayama", "和歌山", "わかやま"}},
	{"nara", []string{"nara", "奈良", "なら"}},
	{"takasaki", []string{"takasaki", "高崎", "たかさき"}},
	{"oita", []string{"oita", "ōita", "大分", "おおいた"}},
	{"tsu", []string{"tsu", "津", "つ"}},
	{"akita", []string{"akita", "秋田", "あきた"}},
	{"kochi", []string{"kochi", "kōchi", "高知", "こうち"}},
	{"miyazaki", []string{"miyazaki", "宮崎", "みやざき"}},
	{"naha", []string{"naha", "那覇", "なは"}},
	{"aomori", []string{"aomori", "青森", "あおもり"}},
	{"morioka", []string{"morioka", "盛岡", "もりおか"}},
	{"fukushima", []string{"fukushima", "福島", "ふくしま"}},
	{"yamagata", []string{"yamagata", "山形", "やまがた"}},
	{"maebashi", []string{"maebashi", "前橋", "まえばし"}},
	{"mito", []string{"mito", "水戸", "みと"}},
	{"kofu", []string{"kofu", "kōfu", "甲府", "こうふ"}},
	{"nagano", []string{"nagano", "長野", "ながの"}},
	{"matsumoto", []string{"matsumoto", "松本", "まつもと"}},
	{"fukui", []string{"fukui", "福井", "ふくい"}},
	{"otsu", []string{"otsu", "ōtsu", "大津", "おおつ"}},
	{"tottori", []string{"tottori", "鳥取", "とっとり"}},
	{"matsue", []string{"matsue", "松江", "まつえ"}},
	{"yamaguchi", []string{"yamaguchi", "山口", "やまぐち"}},
	{"tokushima", []string{"tokushima", "徳島", "とくしま"}},
	{"saga", []string{"saga", "佐賀", "さが"}},

	// 観光地
	{"nikko", []string{"nikko", "nikkō", "日光", "にっこう"}},
	{"kamakura", []string{"kamakura", "鎌倉", "かまくら"}},
	{"hakone", []string{"hakone", "箱根", "はこね"}},
	{"takayama", []string{"takayama", "高山", "たかやま"}},
	{"ise", []string{"ise", "伊勢", "いせ"}},
	{"beppu", []string{"beppu", "別府", "べっぷ"}},
	{"atami", []string{"atami", "熱海", "あたみ"}},
	{"otaru", []string{"otaru", "小樽", "おたる"}},
	{"hakodate", []string{"hakodate", "函館", "はこだて"}},
	{"asahikawa", []string{"asahikawa", "旭川", "あさひかわ"}},
	{"kushiro", []string{"kushiro", "釧路", "くしろ"}},
	{"obihiro", []string{"obihiro", "帯広", "おびひろ"}},
	{"karuizawa", []string{"karuizawa", "軽井沢", "かるいざわ"}},
	{"furano", []string{"furano", "富良野", "ふらの"}},
	{"noboribetsu", []string{"noboribetsu", "登別", "のぼりべつ"}},

	// 東京の地区
	{"shibuya", []string{"shibuya", "渋谷", "しぶや"}},
	{"shinjuku", []string{"shinjuku", "新宿", "しんじゅく"}},
	{"harajuku", []string{"harajuku", "原宿", "はらじゅく"}},
	{"ginza", []string{"ginza", "銀座", "ぎんざ"}},
	{"asakusa", []string{"asakusa", "浅草", "あさくさ"}},
	{"akihabara", []string{"akihabara", "秋葉原", "あきはばら"}},
	{"roppongi", []string{"roppongi", "六本木", "ろっぽんぎ"}},
	{"ueno", []string{"ueno", "上野", "うえの"}},
	{"ikebukuro", []string{"ikebukuro", "池袋", "いけぶくろ"}},
	{"odaiba", []string{"odaiba", "お台場", "おだいば"}},
	{"shinagawa", []string{"shinagawa", "品川", "しながわ"}},
	{"ebisu", []string{"ebisu", "えびす", "恵比寿"}},
	{"meguro", []string{"meguro", "目黒", "めぐろ"}},
	{"nakano", []string{"nakano", "中野", "なかの"}},
	{"kichijoji", []string{"kichijoji", "吉祥寺", "きちじょうじ"}},
	{"shimokitazawa", []string{"shimokitazawa", "下北沢", "しもきたざわ"}},
	{"daikanyama", []string{"daikanyama", "代官山", "だいかんやま"}},
	{"omotesando", []string{"omotesando", "表参道", "おもてさんどう"}},
	{"kagurazaka", []string{"kagurazaka", "神楽坂", "かぐらざか"}},
	{"yanaka", []string{"yanaka", "谷中", "やなか"}},
	{"ryogoku", []string{"ryogoku", "両国", "りょうごく"}},
	{"tsukiji", []string{"tsukiji", "築地", "つきじ"}},
	{"toyosu", []string{"toyosu", "豊洲", "とよす"}},
	{"marunouchi", []string{"marunouchi", "丸の内", "まるのうち"}},
	{"nihonbashi", []string{"nihonbashi", "日本橋", "にほんばし"}},
	{"kabukicho", []string{"kabukicho", "歌舞伎町", "かぶきちょう"}},

	// 大阪の地区
	{"namba", []string{"namba", "nanba", "難波", "なんば"}},
	{"umeda", []string{"umeda", "梅田", "うめだ"}},
	{"dotonbori", []string{"dotonbori", "dōtonbori", "道頓堀", "どうとんぼり"}},
	{"shinsaibashi", []string{"shinsaibashi", "心斎橋", "しんさいばし"}},
	{"tennoji", []string{"tennoji", "tennōji", "天王寺", "てんのうじ"}},
	{"kitashinchi", []string{"kitashinchi", "北新地", "きたしんち"}},
	{"shinsekai", []string{"shinsekai", "新世界", "しんせかい"}},
	{"amerikamura", []string{"amerikamura", "アメリカ村", "あめりかむら"}},
	{"nakanoshima", []string{"nakanoshima", "中之島", "なかのしま"}},

	// 京都の地区
	{"gion", []string{"gion", "祇園", "ぎおん"}},
	{"arashiyama", []string{"arashiyama", "嵐山", "あらしやま"}},
	{"higashiyama", []string{"higashiyama", "東山", "ひがしやま"}},
	{"kawaramachi", []string{"kawaramachi", "河原町", "かわらまち"}},
	{"pontocho", []string{"pontocho", "pontochō", "先斗町", "ぽんとちょう"}},
	{"fushimi", []string{"fushimi", "伏見", "ふしみ"}},
	{"kiyomizu", []string{"kiyomizu", "清水", "きよみず"}},
	{"nijo", []string{"nijo", "nijō", "二条", "にじょう"}},

	// 横浜の地区
	{"minato-mirai", []string{"minato mirai", "minatomirai", "みなとみらい"}},
	{"chinatown-yokohama", []string{"chinatown", "中華街", "ちゅうかがい"}},
	{"motomachi", []string{"motomachi", "元町", "もとまち"}},
	{"kannai", []string{"kannai", "関内", "かんない"}},

	// 名古屋の地区
	{"sakae", []string{"sakae", "栄", "さかえ"}},
	{"osu", []string{"osu", "ōsu", "大須", "おおす"}},
	{"meieki", []string{"meieki", "名駅", "めいえき"}},

	// 神戸の地区
	{"sannomiya", []string{"sannomiya", "三宮", "さんのみや"}},
	{"motomachi-kobe", []string{"motomachi", "元町", "もとまち"}},
	{"kitano", []string{"kitano", "北野", "きたの"}},

	// 福岡の地区
	{"hakata", []string{"hakata", "博多", "はかた"}},
	{"tenjin", []string{"tenjin", "天神", "てんじん"}},
	{"nakasu", []string{"nakasu", "中洲", "なかす"}},

	// 札幌の地区
	{"susukino", []string{"susukino", "すすきの", "薄野"}},
	{"odori", []string{"odori", "ōdori", "大通", "おおどおり"}},
	{"maruyama", []string{"maruyama", "円山", "まるやま"}},
}

// VariantDictionary は表記ゆれ辞書による地名の即時判定
type VariantDictionary struct {
	entries []entry
}

// NewVariantDictionary は新しいVariantDictionaryを作成
func NewVariantDictionary() *VariantDictionary {
	return &VariantDictionary{entries: defaultEntries}
}

// Match はテキストに含まれる最初の地名を返す
// 部分一致のため、英単語の一部（"wise" の "ise" など）にも一致しうる
func (d *VariantDictionary) Match(text string) (*location.Result, bool) {
	lower := strings.ToLower(text)

	// 辞書を順番にチェック
	for _, e := range d.entries {
		for _, v := range e.variants {
			if strings.Contains(lower, strings.ToLower(v)) {
				result := location.NewResult(city.Capitalize(city.ParentCity(e.key)), location.PatternMatchConfidence, location.MethodPatternMatch)
				result.OriginalText = v
				return result, true
			}
		}
	}

	return nil, false
}

// Len は辞書の項目数を返す
func (d *VariantDictionary) Len() int {
	return len(d.entries)
}
