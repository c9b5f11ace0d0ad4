package session

import (
	"errors"
	"sort"
	"time"

	"github.com/Nyukimin/tabitenki/internal/domain/weather"
)

// ErrSessionNotFound はセッションが見つからない場合のエラー
var ErrSessionNotFound = errors.New("session not found")

// 履歴の上限
const (
	MaxCityHistory    = 10
	MaxMessageHistory = 20
)

// Preferences は利用者の表示設定
type Preferences struct {
	Language string `json:"language"`
	TempUnit string `json:"tempUnit"`
}

// DefaultPreferences は新規セッションの表示設定
func DefaultPreferences() Preferences {
	return Preferences{Language: "en", TempUnit: "celsius"}
}

// Message は会話履歴の1往復
type Message struct {
	Timestamp         time.Time `json:"timestamp"`
	UserMessage       string    `json:"userMessage"`
	AssistantResponse string    `json:"assistantResponse"`
	City              string    `json:"city"`
}

// CacheEntry は都市ごとの天気キャッシュ
type CacheEntry struct {
	City      string
	Data      *weather.Complete
	FetchedAt time.Time
}

// Age は取得からの経過時間を返す
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// CacheStatus はキャッシュ参照の結果
type CacheStatus string

const (
	CacheHit     CacheStatus = "hit"
	CacheMiss    CacheStatus = "miss"
	CacheExpired CacheStatus = "expired"
)

// Context は1つの会話を表すエンティティ
// 現在の都市・都市履歴・天気キャッシュ・会話履歴を保持
type Context struct {
	id             string                // セッションID（"session_1741234567890_1a2b3c4d"）
	currentCity    string                // 正規化済みの都市名
	cityHistory    []string              // 直近10件
	weatherCache   map[string]CacheEntry // 正規化済みの都市名 → キャッシュ
	cacheStale     bool                  // 都市変更後に未取得なら true（参考情報のみ）
	messageHistory []Message             // 直近20件
	messageCount   int
	preferences    Preferences
	createdAt      time.Time
	lastActivity   time.Time
}

// NewContext は新しいセッションを作成
// defaultCity は正規化済みであること
func NewContext(id, defaultCity string, now time.Time) *Context {
	return &Context{
		id:             id,
		currentCity:    defaultCity,
		cityHistory:    []string{defaultCity},
		weatherCache:   make(map[string]CacheEntry),
		messageHistory: make([]Message, 0),
		preferences:    DefaultPreferences(),
		createdAt:      now,
		lastActivity:   now,
	}
}

// ID はセッションIDを返す
func (c *Context) ID() string {
	return c.id
}

// CurrentCity は現在の都市を返す
func (c *Context) CurrentCity() string {
	return c.currentCity
}

// CityHistory は都市履歴のコピーを返す
func (c *Context) CityHistory() []string {
	return append([]string(nil), c.cityHistory...)
}

// MessageCount は位置を伴う更新の回数を返す
func (c *Context) MessageCount() int {
	return c.messageCount
}

// CacheStale は都市変更後の再取得待ちかを返す
func (c *Context) CacheStale() bool {
	return c.cacheStale
}

// Preferences は表示設定を返す
func (c *Context) Preferences() Preferences {
	return c.preferences
}

// CreatedAt は作成時刻を返す
func (c *Context) CreatedAt() time.Time {
	return c.createdAt
}

// LastActivity は最終アクセス時刻を返す
func (c *Context) LastActivity() time.Time {
	return c.lastActivity
}

// Touch は最終アクセス時刻を更新
func (c *Context) Touch(now time.Time) {
	c.lastActivity = now
}

// SetCity は現在の都市を更新し、変更があったかを返す
// 変更時は履歴に追加してキャッシュを要再取得としてマークする（既存エントリは消さない）
// messageCount は変更の有無に関わらず加算
func (c *Context) SetCity(city string) bool {
	changed := city != c.currentCity
	if changed {
		c.currentCity = city
		c.cityHistory = appendBounded(c.cityHistory, city, MaxCityHistory)
		c.cacheStale = true
	}
	c.messageCount++
	return changed
}

// LookupWeather はTTL内のキャッシュを返す
// 期限切れのエントリは削除して CacheExpired を返す
func (c *Context) LookupWeather(city string, now time.Time, ttl time.Duration) (CacheEntry, CacheStatus) {
	entry, ok := c.weatherCache[city]
	if !ok {
		return CacheEntry{}, CacheMiss
	}
	if entry.Age(now) >= ttl {
		delete(c.weatherCache, city)
		return entry, CacheExpired
	}
	return entry, CacheHit
}

// StoreWeather は天気をキャッシュし、要再取得フラグを戻す
func (c *Context) StoreWeather(city string, data *weather.Complete, now time.Time) {
	c.weatherCache[city] = CacheEntry{City: city, Data: data, FetchedAt: now}
	c.cacheStale = false
}

// CachedCities はキャッシュ済みの都市名を昇順で返す
func (c *Context) CachedCities() []string {
	cities := make([]string, 0, len(c.weatherCache))
	for city := range c.weatherCache {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities
}

// AppendMessage は会話履歴に追加（現在の都市を記録）
func (c *Context) AppendMessage(userMessage, assistantResponse string, now time.Time) {
	c.messageHistory = appendBounded(c.messageHistory, Message{
		Timestamp:         now,
		UserMessage:       userMessage,
		AssistantResponse: assistantResponse,
		City:              c.currentCity,
	}, MaxMessageHistory)
}

// RecentMessages は最近N件の履歴を返す
func (c *Context) RecentMessages(n int) []Message {
	if n <= 0 || len(c.messageHistory) <= n {
		return append([]Message(nil), c.messageHistory...)
	}
	return append([]Message(nil), c.messageHistory[len(c.messageHistory)-n:]...)
}

// HasRecentLocationMention は within 以内に現在と異なる都市での会話があったかを判定
func (c *Context) HasRecentLocationMention(now time.Time, within time.Duration) bool {
	cutoff := now.Add(-within)
	for _, m := range c.messageHistory {
		if m.Timestamp.After(cutoff) && m.City != c.currentCity {
			return true
		}
	}
	return false
}

// UniqueCities は都市履歴中の重複を除いた都市数を返す
func (c *Context) UniqueCities() int {
	seen := make(map[string]struct{}, len(c.cityHistory))
	for _, city := range c.cityHistory {
		seen[city] = struct{}{}
	}
	return len(seen)
}

// RecentCities は都市履歴の末尾N件を返す
func (c *Context) RecentCities(n int) []string {
	if len(c.cityHistory) <= n {
		return c.CityHistory()
	}
	return append([]string(nil), c.cityHistory[len(c.cityHistory)-n:]...)
}

// Clone は独立したコピーを返す
// キャッシュされた天気データ自体は読み取り専用として共有する
func (c *Context) Clone() *Context {
	cp := *c
	cp.cityHistory = c.CityHistory()
	cp.messageHistory = append([]Message(nil), c.messageHistory...)
	cp.weatherCache = make(map[string]CacheEntry, len(c.weatherCache))
	for k, v := range c.weatherCache {
		cp.weatherCache[k] = v
	}
	return &cp
}

func appendBounded[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if len(s) > limit {
		s = append([]T(nil), s[len(s)-limit:]...)
	}
	return s
}
