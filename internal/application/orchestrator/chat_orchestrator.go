package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Nyukimin/tabitenki/internal/application/contextstore"
	"github.com/Nyukimin/tabitenki/internal/domain/location"
	"github.com/Nyukimin/tabitenki/internal/domain/prompt"
	"github.com/Nyukimin/tabitenki/internal/domain/session"
	"github.com/Nyukimin/tabitenki/internal/domain/suggestion"
	"github.com/Nyukimin/tabitenki/internal/domain/translation"
	"github.com/Nyukimin/tabitenki/internal/domain/weather"
	"github.com/Nyukimin/tabitenki/pkg/keylock"
)

const tracerName = "github.com/Nyukimin/tabitenki/internal/application/orchestrator"

// ErrInvalidMessage はメッセージが空の場合のエラー
var ErrInvalidMessage = errors.New("message is required and must be a string")

// ChatRequest はチャット処理リクエスト
type ChatRequest struct {
	Message         string
	SessionID       string
	PreferBilingual bool
}

// ChatResponse はチャット処理レスポンス
type ChatResponse struct {
	Response          *suggestion.Suggestions     `json:"response"`
	Weather           *weather.Complete           `json:"weather"`
	WeatherSummary    prompt.Summary              `json:"weatherSummary"`
	CurrentCity       string                      `json:"currentCity"`
	ExtractedLocation *location.Result            `json:"extractedLocation"`
	Translation       *translation.Result         `json:"translation"`
	SessionID         string                      `json:"sessionId"`
	Context           contextstore.ContextSummary `json:"context"`
	Timestamp         time.Time                   `json:"timestamp"`
}

// Translator は日本語入力を英語へ翻訳し意図を抽出する
type Translator interface {
	TranslateAndExtractIntent(ctx context.Context, text string) (*translation.Result, error)
}

// LocationResolver は自由文から都市を推定する
type LocationResolver interface {
	Resolve(ctx context.Context, text string) *location.Result
}

// Observer はパイプラインの結果を受け取る（メトリクス用）
type Observer interface {
	ChatCompleted(status string, elapsed time.Duration)
	LocationResolved(method string)
}

type nopObserver struct{}

func (nopObserver) ChatCompleted(string, time.Duration) {}
func (nopObserver) LocationResolved(string)             {}

// Config はオーケストレーターの設定
type Config struct {
	// SerializeSessions が true の場合、同一セッションのリクエストを直列化する
	SerializeSessions bool
	Observer          Observer
	Now               func() time.Time
}

// ChatOrchestrator は翻訳・地名抽出・天気取得・提案生成を統括
type ChatOrchestrator struct {
	store      *contextstore.Store
	translator Translator
	resolver   LocationResolver
	weather    weather.Gateway
	generator  suggestion.Generator

	locks    *keylock.Locker
	observer Observer
	now      func() time.Time
	tracer   trace.Tracer
}

// NewChatOrchestrator は新しいChatOrchestratorを作成
func NewChatOrchestrator(
	store *contextstore.Store,
	translator Translator,
	resolver LocationResolver,
	gateway weather.Gateway,
	generator suggestion.Generator,
	cfg Config,
) *ChatOrchestrator {
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	o := &ChatOrchestrator{
		store:      store,
		translator: translator,
		resolver:   resolver,
		weather:    gateway,
		generator:  generator,
		observer:   cfg.Observer,
		now:        cfg.Now,
		tracer:     otel.Tracer(tracerName),
	}
	if cfg.SerializeSessions {
		o.locks = keylock.New()
	}
	return o
}

// Chat は1メッセージ分のパイプラインを実行する
// 翻訳・天気取得・生成のいずれかが失敗した場合は部分的な応答を返さない
func (o *ChatOrchestrator) Chat(ctx context.Context, req ChatRequest) (resp *ChatResponse, err error) {
	start := o.now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		o.observer.ChatCompleted(status, o.now().Sub(start))
	}()

	// 1. 入力検証
	if req.Message == "" {
		return nil, ErrInvalidMessage
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.NewID(start)
	}

	ctx, span := o.tracer.Start(ctx, "chat", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Bool("chat.bilingual", req.PreferBilingual),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if o.locks != nil {
		unlock := o.locks.Lock(sessionID)
		defer unlock()
	}

	// 2. セッション取得
	sess, err := o.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	log.Printf("[Orchestrator] Processing message for session: %s", sessionID)
	log.Printf("[Orchestrator] Original message: %q", req.Message)

	// 3. 日本語なら翻訳（失敗はリクエスト全体の失敗）
	processed := req.Message
	translated, err := o.translate(ctx, req.Message)
	if err != nil {
		return nil, err
	}
	if translated != nil && strings.TrimSpace(translated.Translation) != "" {
		processed = translated.Translation
	}

	// 4. 地名抽出（失敗しても継続）
	extracted := o.extractLocation(ctx, processed, translated)

	// 5. 都市の更新
	currentCity := sess.CurrentCity()
	if extracted != nil && extracted.City != "" {
		sess, err = o.store.UpdateCity(ctx, sessionID, extracted.City)
		if err != nil {
			return nil, err
		}
		currentCity = sess.CurrentCity()
		log.Printf("[Orchestrator] City updated to: %s", currentCity)
	} else {
		log.Printf("[Orchestrator] Using existing city: %s", currentCity)
	}
	span.SetAttributes(attribute.String("weather.city", currentCity))

	// 6. 天気データ（キャッシュ優先）
	data, err := o.resolveWeather(ctx, sessionID, currentCity)
	if err != nil {
		return nil, err
	}

	// 7. プロンプト構築
	_, composeSpan := o.tracer.Start(ctx, "compose_prompt")
	summary := prompt.Summarize(data, o.now())
	enhanced := prompt.Enhance(prompt.FormatForPrompt(summary), processed)
	composeSpan.End()

	// 8. 提案生成
	suggestions, err := o.generate(ctx, enhanced, currentCity, req.PreferBilingual)
	if err != nil {
		return nil, err
	}

	// 9. 履歴追加（英語部分を記録）
	sess, err = o.store.AddMessage(ctx, sessionID, req.Message, suggestions.English)
	if err != nil {
		return nil, err
	}

	return &ChatResponse{
		Response:          suggestions,
		Weather:           data,
		WeatherSummary:    summary,
		CurrentCity:       currentCity,
		ExtractedLocation: extracted,
		Translation:       translated,
		SessionID:         sessionID,
		Context:           contextstore.Summarize(sess),
		Timestamp:         o.now(),
	}, nil
}

// translate は日本語の場合のみ翻訳し、それ以外は nil を返す
func (o *ChatOrchestrator) translate(ctx context.Context, text string) (*translation.Result, error) {
	if !translation.IsJapanese(text) {
		return nil, nil
	}

	ctx, span := o.tracer.Start(ctx, "translate")
	defer span.End()

	log.Printf("[Orchestrator] Detected Japanese text, translating...")
	result, err := o.translator.TranslateAndExtractIntent(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	log.Printf("[Orchestrator] Translated message: %q", result.Translation)
	return result, nil
}

// extractLocation は地名を推定し、見つからなければ翻訳の LOCATION 欄で補う
func (o *ChatOrchestrator) extractLocation(ctx context.Context, text string, translated *translation.Result) *location.Result {
	ctx, span := o.tracer.Start(ctx, "extract_location")
	defer span.End()

	var result *location.Result
	if o.resolver != nil {
		result = o.resolver.Resolve(ctx, text)
	}
	if result == nil && translated != nil {
		result = location.FromTranslationHint(translated.Location)
	}

	if result == nil {
		o.observer.LocationResolved("none")
		span.SetAttributes(attribute.String("location.method", "none"))
		return nil
	}

	o.observer.LocationResolved(result.Method.String())
	span.SetAttributes(
		attribute.String("location.city", result.City),
		attribute.String("location.method", result.Method.String()),
		attribute.Float64("location.confidence", result.Confidence),
	)
	log.Printf("[Orchestrator] Location extracted: %s (method=%s)", result.City, result.Method)
	return result
}

// resolveWeather はキャッシュを参照し、無ければ取得してキャッシュする
func (o *ChatOrchestrator) resolveWeather(ctx context.Context, sessionID, city string) (*weather.Complete, error) {
	ctx, span := o.tracer.Start(ctx, "resolve_weather", trace.WithAttributes(attribute.String("weather.city", city)))
	defer span.End()

	cached, err := o.store.CachedWeather(ctx, sessionID, city)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		span.SetAttributes(attribute.Bool("weather.cached", true))
		log.Printf("[Orchestrator] Using cached weather for %s", city)
		return cached, nil
	}

	span.SetAttributes(attribute.Bool("weather.cached", false))
	log.Printf("[Orchestrator] Fetching fresh weather for %s...", city)
	data, err := o.weather.GetComplete(ctx, weather.CityQuery(city))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := o.store.CacheWeather(ctx, sessionID, city, data); err != nil {
		return nil, err
	}
	return data, nil
}

// generate はバイリンガルまたは英語のみの提案を生成
func (o *ChatOrchestrator) generate(ctx context.Context, enhanced, city string, bilingual bool) (*suggestion.Suggestions, error) {
	ctx, span := o.tracer.Start(ctx, "generate", trace.WithAttributes(attribute.Bool("chat.bilingual", bilingual)))
	defer span.End()

	log.Printf("[Orchestrator] Generating AI response...")

	var (
		result *suggestion.Suggestions
		err    error
	)
	if bilingual {
		result, err = o.generator.GenerateBilingual(ctx, enhanced, city)
	} else {
		result, err = o.generator.GenerateMonolingual(ctx, enhanced, city)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: empty result", suggestion.ErrGenerationFailed)
	}
	return result, nil
}
