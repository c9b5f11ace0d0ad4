package contextstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Nyukimin/tabitenki/internal/domain/city"
	"github.com/Nyukimin/tabitenki/internal/domain/session"
	"github.com/Nyukimin/tabitenki/internal/domain/weather"
	"github.com/Nyukimin/tabitenki/pkg/keylock"
)

// 既定値
const (
	DefaultWeatherTTL     = 15 * time.Minute
	DefaultMaxAge         = 24 * time.Hour
	DefaultHistoryLimit   = 5
	DefaultMentionWindow  = 5 * time.Minute
	recentCitiesInContext = 3
)

// Observer はストアの内部イベントを受け取る（メトリクス用）
type Observer interface {
	CacheLookup(status session.CacheStatus)
	SessionCreated()
	SessionsRemoved(reason string, n int)
}

type nopObserver struct{}

func (nopObserver) CacheLookup(session.CacheStatus) {}
func (nopObserver) SessionCreated()                 {}
func (nopObserver) SessionsRemoved(string, int)     {}

// Config はストアの設定
type Config struct {
	WeatherTTL time.Duration
	MaxAge     time.Duration
	Now        func() time.Time
	Observer   Observer
}

// Stats はセッションの統計情報
type Stats struct {
	SessionID     string   `json:"sessionId"`
	CurrentCity   string   `json:"currentCity"`
	MessageCount  int      `json:"messageCount"`
	CitiesVisited int      `json:"citiesVisited"`
	SessionAge    string   `json:"sessionAge"`
	CachedCities  []string `json:"cachedCities"`
	CacheStale    bool     `json:"cacheStale"`
}

// ContextSummary はチャット応答に含めるセッション概要
type ContextSummary struct {
	MessageCount  int      `json:"messageCount"`
	CitiesVisited int      `json:"citiesVisited"`
	RecentCities  []string `json:"recentCities"`
}

// Store はセッションコンテキストを一元管理するサービス
// 各操作はセッション単位でロックされ、読み込み・変更・保存を一括で行う
type Store struct {
	repo       session.Repository
	normalizer *city.Normalizer
	locks      *keylock.Locker
	ttl        time.Duration
	maxAge     time.Duration
	now        func() time.Time
	observer   Observer
}

// New は新しいStoreを作成
func New(repo session.Repository, normalizer *city.Normalizer, cfg Config) *Store {
	if cfg.WeatherTTL <= 0 {
		cfg.WeatherTTL = DefaultWeatherTTL
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}

	return &Store{
		repo:       repo,
		normalizer: normalizer,
		locks:      keylock.New(),
		ttl:        cfg.WeatherTTL,
		maxAge:     cfg.MaxAge,
		now:        cfg.Now,
		observer:   cfg.Observer,
	}
}

// MaxAge は掃除対象となる非アクティブ期間を返す
func (s *Store) MaxAge() time.Duration {
	return s.maxAge
}

// Normalize は都市名を正規化
func (s *Store) Normalize(raw string) string {
	return s.normalizer.Normalize(raw)
}

// mutate はセッションを読み込み（無ければ作成）、最終アクセス時刻を更新して fn を適用し保存する
func (s *Store) mutate(ctx context.Context, id string, fn func(c *session.Context) error) (*session.Context, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	now := s.now()

	c, err := s.repo.Load(ctx, id)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c = session.NewContext(id, s.normalizer.DefaultCity(), now)
		s.observer.SessionCreated()
		log.Printf("[ContextStore] Created session %s (city=%s)", id, c.CurrentCity())
	case err != nil:
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	c.Touch(now)

	if fn != nil {
		if err := fn(c); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save session %s: %w", id, err)
	}
	return c, nil
}

// GetOrCreate はセッションを取得、無ければ作成
// id が空の場合は新しいIDを採番する
func (s *Store) GetOrCreate(ctx context.Context, id string) (*session.Context, error) {
	if id == "" {
		id = session.NewID(s.now())
	}
	return s.mutate(ctx, id, nil)
}

// UpdateCity は都市名を正規化して現在の都市を更新
// 都市名が空の場合はセッションに触れず nil を返す
func (s *Store) UpdateCity(ctx context.Context, id, rawCity string) (*session.Context, error) {
	if rawCity == "" {
		return nil, nil
	}

	normalized := s.normalizer.Normalize(rawCity)

	return s.mutate(ctx, id, func(c *session.Context) error {
		previous := c.CurrentCity()
		if c.SetCity(normalized) {
			log.Printf("[ContextStore] City updated for session %s: %s -> %s", id, previous, normalized)
		}
		return nil
	})
}

// CurrentCity は現在の都市を返す
func (s *Store) CurrentCity(ctx context.Context, id string) (string, error) {
	c, err := s.mutate(ctx, id, nil)
	if err != nil {
		return "", err
	}
	return c.CurrentCity(), nil
}

// CachedWeather はTTL内のキャッシュ済み天気を返す
// 無い、または期限切れなら nil（期限切れのエントリは削除）
func (s *Store) CachedWeather(ctx context.Context, id, rawCity string) (*weather.Complete, error) {
	normalized := s.normalizer.Normalize(rawCity)

	var data *weather.Complete
	_, err := s.mutate(ctx, id, func(c *session.Context) error {
		now := s.now()
		entry, status := c.LookupWeather(normalized, now, s.ttl)
		s.observer.CacheLookup(status)

		switch status {
		case session.CacheHit:
			log.Printf("[ContextStore] Using cached weather for %s (%.1f min old)", normalized, entry.Age(now).Minutes())
			data = entry.Data
		case session.CacheExpired:
			log.Printf("[ContextStore] Cached weather for %s expired (%.1f min old)", normalized, entry.Age(now).Minutes())
		default:
			log.Printf("[ContextStore] No cached weather for %s", normalized)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// CacheWeather は天気をキャッシュ
func (s *Store) CacheWeather(ctx context.Context, id, rawCity string, data *weather.Complete) error {
	normalized := s.normalizer.Normalize(rawCity)

	_, err := s.mutate(ctx, id, func(c *session.Context) error {
		c.StoreWeather(normalized, data, s.now())
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[ContextStore] Weather cached for %s in session %s", normalized, id)
	return nil
}

// AddMessage は会話履歴に追加
func (s *Store) AddMessage(ctx context.Context, id, userMessage, assistantResponse string) (*session.Context, error) {
	return s.mutate(ctx, id, func(c *session.Context) error {
		c.AppendMessage(userMessage, assistantResponse, s.now())
		return nil
	})
}

// History は最近の会話履歴を返す（limit が0以下なら既定の5件）
func (s *Store) History(ctx context.Context, id string, limit int) ([]session.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	c, err := s.mutate(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return c.RecentMessages(limit), nil
}

// HasRecentLocationMention は直近に別の都市についての会話があったかを判定
func (s *Store) HasRecentLocationMention(ctx context.Context, id string, within time.Duration) (bool, error) {
	if within <= 0 {
		within = DefaultMentionWindow
	}
	c, err := s.mutate(ctx, id, nil)
	if err != nil {
		return false, err
	}
	return c.HasRecentLocationMention(s.now(), within), nil
}

// Stats はセッションの統計情報を返す（未知のIDなら作成される）
func (s *Store) Stats(ctx context.Context, id string) (Stats, error) {
	c, err := s.mutate(ctx, id, nil)
	if err != nil {
		return Stats{}, err
	}

	age := s.now().Sub(c.CreatedAt())
	return Stats{
		SessionID:     c.ID(),
		CurrentCity:   c.CurrentCity(),
		MessageCount:  c.MessageCount(),
		CitiesVisited: c.UniqueCities(),
		SessionAge:    fmt.Sprintf("%d minutes", int(age.Round(time.Minute).Minutes())),
		CachedCities:  c.CachedCities(),
		CacheStale:    c.CacheStale(),
	}, nil
}

// Summarize はチャット応答用のセッション概要を作成
func Summarize(c *session.Context) ContextSummary {
	return ContextSummary{
		MessageCount:  c.MessageCount(),
		CitiesVisited: c.UniqueCities(),
		RecentCities:  c.RecentCities(recentCitiesInContext),
	}
}

// Clear はセッションを削除し、存在したかを返す
func (s *Store) Clear(ctx context.Context, id string) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", id, err)
	}
	if deleted {
		s.observer.SessionsRemoved("cleared", 1)
		log.Printf("[ContextStore] Session %s cleared", id)
	}
	return deleted, nil
}

// Sweep は maxAge を超えて非アクティブなセッションを削除し、件数を返す
// 対象は呼び出し時点のスナップショットで、途中で作成されたセッションは次回に回る
func (s *Store) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = s.maxAge
	}

	ids, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	cleaned := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return cleaned, err
		}

		removed, err := s.sweepOne(ctx, id, maxAge)
		if err != nil {
			log.Printf("[ContextStore] Sweep of %s failed: %v", id, err)
			continue
		}
		if removed {
			cleaned++
		}
	}

	if cleaned > 0 {
		s.observer.SessionsRemoved("expired", cleaned)
		log.Printf("[ContextStore] Cleaned up %d old sessions", cleaned)
	}
	return cleaned, nil
}

func (s *Store) sweepOne(ctx context.Context, id string, maxAge time.Duration) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	c, err := s.repo.Load(ctx, id)
	if errors.Is(err, session.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if s.now().Sub(c.LastActivity()) <= maxAge {
		return false, nil
	}
	return s.repo.Delete(ctx, id)
}
