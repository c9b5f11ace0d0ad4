package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Nyukimin/tabitenki/internal/domain/weather"
)

// 既定値
const (
	DefaultBaseURL           = "https://api.openweathermap.org/data/2.5"
	DefaultCurrentTimeout    = 5 * time.Second
	DefaultForecastTimeout   = 10 * time.Second
	DefaultRequestsPerMinute = 60
)

// ErrMissingAPIKey はAPIキー未設定のエラー
var ErrMissingAPIKey = errors.New("OpenWeather API key is not configured")

// Observer は取得結果を受け取る（メトリクス用）
type Observer interface {
	FetchObserved(endpoint, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) FetchObserved(string, string, time.Duration) {}

// Config はクライアントの設定
type Config struct {
	APIKey            string
	BaseURL           string
	CurrentTimeout    time.Duration
	ForecastTimeout   time.Duration
	RequestsPerMinute int
	HTTPClient        *http.Client
	Observer          Observer
	Now               func() time.Time
}

// Client はOpenWeatherMap APIによる weather.Gateway 実装
type Client struct {
	apiKey          string
	baseURL         string
	currentTimeout  time.Duration
	forecastTimeout time.Duration
	limiter         *rate.Limiter
	client          *http.Client
	observer        Observer
	now             func() time.Time
}

var _ weather.Gateway = (*Client)(nil)

// NewClient は新しいClientを作成
// APIキーが空の場合はエラー
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CurrentTimeout <= 0 {
		cfg.CurrentTimeout = DefaultCurrentTimeout
	}
	if cfg.ForecastTimeout <= 0 {
		cfg.ForecastTimeout = DefaultForecastTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	burst := cfg.RequestsPerMinute / 6
	if burst < 2 {
		burst = 2
	}

	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		currentTimeout:  cfg.CurrentTimeout,
		forecastTimeout: cfg.ForecastTimeout,
		limiter:         rate.NewLimiter(perSecond, burst),
		client:          cfg.HTTPClient,
		observer:        cfg.Observer,
		now:             cfg.Now,
	}, nil
}

// GetCurrent は現在の天気を取得
func (c *Client) GetCurrent(ctx context.Context, q weather.Query) (*weather.Current, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	log.Printf("[OpenWeather] Fetching current weather for: %s", q)

	var resp currentResponse
	if err := c.get(ctx, "weather", q, c.currentTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(c.now()), nil
}

// GetForecast は5日間予報を取得し日ごとに集計
func (c *Client) GetForecast(ctx context.Context, q weather.Query) (*weather.Forecast, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	log.Printf("[OpenWeather] Fetching 5-day forecast for: %s", q)

	var resp forecastResponse
	if err := c.get(ctx, "forecast", q, c.forecastTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// GetComplete は現在の天気と予報を並行して取得
// どちらかが失敗すれば全体を失敗とする
func (c *Client) GetComplete(ctx context.Context, q weather.Query) (*weather.Complete, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var (
		current  *weather.Current
		forecast *weather.Forecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = c.GetCurrent(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = c.GetForecast(gctx, q)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Printf("[OpenWeather] Complete weather data error for %s: %v", q, err)
		return nil, err
	}

	return &weather.Complete{
		Current:   current,
		Forecast:  forecast,
		City:      current.City,
		Country:   current.Country,
		Timestamp: c.now(),
	}, nil
}

// get はAPIを呼び出して out にデコード
func (c *Client) get(ctx context.Context, endpoint string, q weather.Query, timeout time.Duration, out any) error {
	start := time.Now()
	outcome := "error"
	defer func() {
		c.observer.FetchObserved(endpoint, outcome, time.Since(start))
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return weather.Unavailable(q, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+c.params(q).Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome = "canceled"
			return ctxErr
		}
		return weather.Unavailable(q, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(body, &apiErr)

		werr := weather.FromStatus(q, resp.StatusCode, apiErr.Message)
		outcome = kindLabel(werr.Kind)
		log.Printf("[OpenWeather] %s API error: status=%d", endpoint, resp.StatusCode)
		return werr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return weather.ProviderFailure(q, resp.StatusCode, fmt.Sprintf("invalid response: %v", err))
	}

	outcome = "ok"
	return nil
}

func (c *Client) params(q weather.Query) url.Values {
	v := url.Values{}
	if q.ByCoords() {
		v.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
		v.Set("lon", strconv.FormatFloat(q.Lon, 'f', -1, 64))
	} else {
		v.Set("q", strings.TrimSpace(q.City))
	}
	v.Set("appid", c.apiKey)
	v.Set("units", "metric")
	v.Set("lang", "en")
	return v
}

func kindLabel(kind error) string {
	switch kind {
	case weather.ErrLocationNotFound:
		return "not_found"
	case weather.ErrInvalidCredential:
		return "unauthorized"
	case weather.ErrRateLimited:
		return "rate_limited"
	default:
		return "error"
	}
}
