package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Nyukimin/tabitenki/internal/application/contextstore"
	"github.com/Nyukimin/tabitenki/internal/domain/city"
	"github.com/Nyukimin/tabitenki/internal/domain/location"
	"github.com/Nyukimin/tabitenki/internal/domain/prompt"
	"github.com/Nyukimin/tabitenki/internal/domain/session"
	"github.com/Nyukimin/tabitenki/internal/domain/suggestion"
	"github.com/Nyukimin/tabitenki/internal/domain/translation"
	"github.com/Nyukimin/tabitenki/internal/domain/weather"
	sessionrepo "github.com/Nyukimin/tabitenki/internal/infrastructure/persistence/session"
)

// mockTranslator はテスト用のTranslator
type mockTranslator struct {
	result *translation.Result
	err    error
	calls  int
}

func (m *mockTranslator) TranslateAndExtractIntent(ctx context.Context, text string) (*translation.Result, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	r := *m.result
	r.OriginalText = text
	return &r, nil
}

// mockResolver は既知の都市名が含まれていれば返す
type mockResolver struct {
	cities []string
	calls  []string
}

func (m *mockResolver) Resolve(ctx context.Context, text string) *location.Result {
	m.calls = append(m.calls, text)
	for _, c := range m.cities {
		if strings.Contains(text, c) {
			return location.NewResult(c, location.PatternMatchConfidence, location.MethodPatternMatch)
		}
	}
	return nil
}

// mockGateway はテスト用のWeather Gateway
type mockGateway struct {
	mu      sync.Mutex
	err     error
	queries []string
}

func (m *mockGateway) GetCurrent(ctx context.Context, q weather.Query) (*weather.Current, error) {
	data, err := m.GetComplete(ctx, q)
	if err != nil {
		return nil, err
	}
	return data.Current, nil
}

func (m *mockGateway) GetForecast(ctx context.Context, q weather.Query) (*weather.Forecast, error) {
	data, err := m.GetComplete(ctx, q)
	if err != nil {
		return nil, err
	}
	return data.Forecast, nil
}

func (m *mockGateway) GetComplete(ctx context.Context, q weather.Query) (*weather.Complete, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q.String())
	if m.err != nil {
		return nil, m.err
	}
	return rainyComplete(q.String()), nil
}

func (m *mockGateway) fetches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// mockGenerator はテスト用のsuggestion.Generator
type mockGenerator struct {
	err         error
	prompts     []string
	monolingual int
}

func (m *mockGenerator) GenerateBilingual(ctx context.Context, enhancedPrompt, city string) (*suggestion.Suggestions, error) {
	m.prompts = append(m.prompts, enhancedPrompt)
	if m.err != nil {
		return nil, m.err
	}
	ja := city + "では傘をお持ちください。"
	return &suggestion.Suggestions{
		English:     "Bring an umbrella in " + city + ".",
		Japanese:    &ja,
		IsBilingual: true,
	}, nil
}

func (m *mockGenerator) GenerateMonolingual(ctx context.Context, enhancedPrompt, city string) (*suggestion.Suggestions, error) {
	m.prompts = append(m.prompts, enhancedPrompt)
	m.monolingual++
	if m.err != nil {
		return nil, m.err
	}
	return suggestion.Monolingual("Bring an umbrella in " + city + "."), nil
}

type recordingObserver struct {
	mu       sync.Mutex
	statuses []string
	methods  []string
}

func (o *recordingObserver) ChatCompleted(status string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) LocationResolved(method string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.methods = append(o.methods, method)
}

func rainyComplete(cityName string) *weather.Complete {
	return &weather.Complete{
		Current: &weather.Current{
			City:    cityName,
			Country: "JP",
			Weather: weather.Conditions{
				Temperature: 14,
				FeelsLike:   13,
				Description: "light rain",
				Main:        "Rain",
				Humidity:    82,
				WindSpeed:   3.2,
				Visibility:  8,
			},
			Sun: weather.Sun{Sunrise: "06:10:00", Sunset: "17:45:00"},
		},
		Forecast: &weather.Forecast{City: cityName, Country: "JP"},
		City:     cityName,
		Country:  "JP",
	}
}

type fixture struct {
	orch       *ChatOrchestrator
	store      *contextstore.Store
	translator *mockTranslator
	resolver   *mockResolver
	gateway    *mockGateway
	generator  *mockGenerator
	observer   *recordingObserver
	now        time.Time
}

func newFixture(t *testing.T, serialize bool) *fixture {
	t.Helper()
	f := &fixture{
		translator: &mockTranslator{result: &translation.Result{Translation: "What is the weather like?", IsJapanese: true}},
		resolver:   &mockResolver{cities: []string{"Kyoto", "Osaka", "Shibuya"}},
		gateway:    &mockGateway{},
		generator:  &mockGenerator{},
		observer:   &recordingObserver{},
		now:        time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.store = contextstore.New(sessionrepo.NewMemoryRepository(), city.NewNormalizer(city.DefaultCity), contextstore.Config{Now: clock})
	f.orch = NewChatOrchestrator(f.store, f.translator, f.resolver, f.gateway, f.generator, Config{
		SerializeSessions: serialize,
		Observer:          f.observer,
		Now:               clock,
	})
	return f
}

func TestChat_NewSessionWithCity(t *testing.T) {
	f := newFixture(t, true)

	resp, err := f.orch.Chat(context.Background(), ChatRequest{
		Message:         "What should I wear in Kyoto?",
		PreferBilingual: true,
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if !strings.HasPrefix(resp.SessionID, "session_") {
		t.Errorf("Expected generated session id, got '%s'", resp.SessionID)
	}
	if resp.CurrentCity != "Kyoto" {
		t.Errorf("Expected current city 'Kyoto', got '%s'", resp.CurrentCity)
	}
	if resp.Context.MessageCount != 1 {
		t.Errorf("Expected messageCount 1, got %d", resp.Context.MessageCount)
	}
	if resp.WeatherSummary.Current == nil || resp.WeatherSummary.Current.Tag != prompt.TagRainy {
		t.Errorf("Expected rainy tag, got %+v", resp.WeatherSummary.Current)
	}
	if resp.ExtractedLocation == nil || resp.ExtractedLocation.Method != location.MethodPatternMatch {
		t.Errorf("Expected pattern_match location, got %+v", resp.ExtractedLocation)
	}
	if resp.Translation != nil {
		t.Errorf("Expected no translation for English input, got %+v", resp.Translation)
	}
	if f.translator.calls != 0 {
		t.Errorf("Translator should not be called, got %d calls", f.translator.calls)
	}
	if got := f.gateway.fetches(); len(got) != 1 || got[0] != "Kyoto" {
		t.Errorf("Expected exactly one fetch for Kyoto, got %v", got)
	}
	if !resp.Response.IsBilingual || resp.Response.Japanese == nil {
		t.Errorf("Expected bilingual response, got %+v", resp.Response)
	}

	// 生成プロンプトに天気とユーザー要求が含まれる
	if len(f.generator.prompts) != 1 || !strings.HasSuffix(f.generator.prompts[0], `USER REQUEST: "What should I wear in Kyoto?"`) {
		t.Errorf("Unexpected prompt: %v", f.generator.prompts)
	}

	// 履歴には英語部分が記録される
	history, err := f.store.History(context.Background(), resp.SessionID, 5)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].AssistantResponse != "Bring an umbrella in Kyoto." {
		t.Errorf("Unexpected history: %+v", history)
	}

	if len(f.observer.statuses) != 1 || f.observer.statuses[0] != "success" {
		t.Errorf("Expected one success observation, got %v", f.observer.statuses)
	}
}

func TestChat_SecondMessageUsesCache(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.orch.Chat(ctx, ChatRequest{Message: "What should I wear in Kyoto?", PreferBilingual: true})
	if err != nil {
		t.Fatalf("first Chat failed: %v", err)
	}

	f.now = f.now.Add(10 * time.Minute)
	second, err := f.orch.Chat(ctx, ChatRequest{Message: "Any indoor ideas?", SessionID: first.SessionID, PreferBilingual: true})
	if err != nil {
		t.Fatalf("second Chat failed: %v", err)
	}

	if got := f.gateway.fetches(); len(got) != 1 {
		t.Errorf("Expected weather served from cache, got fetches %v", got)
	}
	if second.CurrentCity != "Kyoto" {
		t.Errorf("Expected city retained, got '%s'", second.CurrentCity)
	}
	if second.ExtractedLocation != nil {
		t.Errorf("Expected no location, got %+v", second.ExtractedLocation)
	}
	// 地名が無いターンでは messageCount は増えない
	if second.Context.MessageCount != 1 {
		t.Errorf("Expected messageCount 1, got %d", second.Context.MessageCount)
	}
}

func TestChat_CacheExpiresAfterTTL(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	first, err := f.orch.Chat(ctx, ChatRequest{Message: "Kyoto this weekend?", PreferBilingual: true})
	if err != nil {
		t.Fatalf("first Chat failed: %v", err)
	}

	f.now = f.now.Add(16 * time.Minute)
	if _, err := f.orch.Chat(ctx, ChatRequest{Message: "And now?", SessionID: first.SessionID, PreferBilingual: true}); err != nil {
		t.Fatalf("second Chat failed: %v", err)
	}

	if got := f.gateway.fetches(); len(got) != 2 {
		t.Errorf("Expected a fresh fetch after TTL, got %v", got)
	}
}

func TestChat_NoLocationUsesDefaultCity(t *testing.T) {
	f := newFixture(t, true)

	resp, err := f.orch.Chat(context.Background(), ChatRequest{Message: "What should I pack?", SessionID: "s1", PreferBilingual: true})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if resp.SessionID != "s1" {
		t.Errorf("Expected session 's1', got '%s'", resp.SessionID)
	}
	if resp.CurrentCity != city.DefaultCity {
		t.Errorf("Expected default city, got '%s'", resp.CurrentCity)
	}
	if resp.Context.MessageCount != 0 {
		t.Errorf("Expected messageCount 0, got %d", resp.Context.MessageCount)
	}
	if len(f.observer.methods) != 1 || f.observer.methods[0] != "none" {
		t.Errorf("Expected 'none' location observation, got %v", f.observer.methods)
	}
}

func TestChat_JapaneseTranslatedBeforeExtraction(t *testing.T) {
	f := newFixture(t, true)
	f.translator.result = &translation.Result{Translation: "What should I do in Osaka?", Location: "Osaka", IsJapanese: true}

	resp, err := f.orch.Chat(context.Background(), ChatRequest{Message: "大阪で何をすればいい？", PreferBilingual: true})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if f.translator.calls != 1 {
		t.Errorf("Expected 1 translation, got %d", f.translator.calls)
	}
	if len(f.resolver.calls) != 1 || f.resolver.calls[0] != "What should I do in Osaka?" {
		t.Errorf("Resolver should receive translated text, got %v", f.resolver.calls)
	}
	if resp.Translation == nil || resp.Translation.OriginalText != "大阪で何をすればいい？" {
		t.Errorf("Expected translation in response, got %+v", resp.Translation)
	}
	if resp.CurrentCity != "Osaka" {
		t.Errorf("Expected 'Osaka', got '%s'", resp.CurrentCity)
	}

	// 履歴には元のメッセージが記録される
	history, _ := f.store.History(context.Background(), resp.SessionID, 0)
	if len(history) != 1 || history[0].UserMessage != "大阪で何をすればいい？" {
		t.Errorf("Unexpected history: %+v", history)
	}
}

func TestChat_TranslationHintFallback(t *testing.T) {
	f := newFixture(t, true)
	f.translator.result = &translation.Result{Translation: "How is the weather in the old capital?", Location: "Nara", IsJapanese: true}

	resp, err := f.orch.Chat(context.Background(), ChatRequest{Message: "古都の天気は？", PreferBilingual: true})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	loc := resp.ExtractedLocation
	if loc == nil {
		t.Fatal("Expected fallback location")
	}
	if loc.Method != location.MethodTranslationExtraction || loc.Confidence != location.TranslationConfidence {
		t.Errorf("Unexpected fallback location: %+v", loc)
	}
	if resp.CurrentCity != "Nara" {
		t.Errorf("Expected 'Nara', got '%s'", resp.CurrentCity)
	}
}

func TestChat_TranslationFailurePropagates(t *testing.T) {
	f := newFixture(t, true)
	f.translator.err = translation.ErrTranslationFailed

	_, err := f.orch.Chat(context.Background(), ChatRequest{Message: "京都の天気", PreferBilingual: true})
	if !errors.Is(err, translation.ErrTranslationFailed) {
		t.Fatalf("Expected ErrTranslationFailed, got %v", err)
	}
	if len(f.gateway.fetches()) != 0 {
		t.Error("Weather should not be fetched after translation failure")
	}
	if len(f.observer.statuses) != 1 || f.observer.statuses[0] != "error" {
		t.Errorf("Expected one error observation, got %v", f.observer.statuses)
	}
}

func TestChat_LocationNotFoundPropagates(t *testing.T) {
	f := newFixture(t, true)
	f.gateway.err = weather.NotFound(weather.CityQuery("Kyoto"))

	_, err := f.orch.Chat(context.Background(), ChatRequest{Message: "Trip to Kyoto", PreferBilingual: true})
	if !errors.Is(err, weather.ErrLocationNotFound) {
		t.Fatalf("Expected ErrLocationNotFound, got %v", err)
	}
	if len(f.generator.prompts) != 0 {
		t.Error("Generator should not be called when weather fails")
	}
}

func TestChat_GenerationFailurePropagates(t *testing.T) {
	f := newFixture(t, true)
	f.generator.err = suggestion.ErrGenerationFailed

	_, err := f.orch.Chat(context.Background(), ChatRequest{Message: "Kyoto?", SessionID: "s1", PreferBilingual: true})
	if !errors.Is(err, suggestion.ErrGenerationFailed) {
		t.Fatalf("Expected ErrGenerationFailed, got %v", err)
	}

	history, _ := f.store.History(context.Background(), "s1", 0)
	if len(history) != 0 {
		t.Errorf("No history should be recorded on failure, got %+v", history)
	}
}

func TestChat_Monolingual(t *testing.T) {
	f := newFixture(t, true)

	resp, err := f.orch.Chat(context.Background(), ChatRequest{Message: "Kyoto?", PreferBilingual: false})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if f.generator.monolingual != 1 {
		t.Errorf("Expected monolingual generation, got %d", f.generator.monolingual)
	}
	if resp.Response.IsBilingual || resp.Response.Japanese != nil {
		t.Errorf("Expected monolingual response, got %+v", resp.Response)
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.orch.Chat(context.Background(), ChatRequest{Message: ""})
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Expected ErrInvalidMessage, got %v", err)
	}
	if len(f.gateway.fetches()) != 0 {
		t.Error("Invalid message should not reach the weather gateway")
	}
}

func TestChat_WhitespaceMessageRunsPipeline(t *testing.T) {
	f := newFixture(t, true)

	// 空文字列以外は文字列として受け付ける
	resp, err := f.orch.Chat(context.Background(), ChatRequest{Message: "   ", SessionID: "s1", PreferBilingual: true})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.CurrentCity != city.DefaultCity {
		t.Errorf("Expected default city, got '%s'", resp.CurrentCity)
	}
	if resp.Context.MessageCount != 0 {
		t.Errorf("Expected messageCount 0, got %d", resp.Context.MessageCount)
	}
}

func TestChat_SerializedSessionsKeepSubmissionConsistency(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.orch.Chat(ctx, ChatRequest{Message: "Kyoto plans", SessionID: "shared", PreferBilingual: true}); err != nil {
				t.Errorf("Chat failed: %v", err)
			}
		}()
	}
	wg.Wait()

	history, err := f.store.History(ctx, "shared", session.MaxMessageHistory)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 8 {
		t.Errorf("Expected 8 history entries, got %d", len(history))
	}

	// limit 0 は既定件数
	recent, err := f.store.History(ctx, "shared", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(recent) != contextstore.DefaultHistoryLimit {
		t.Errorf("Expected %d recent entries, got %d", contextstore.DefaultHistoryLimit, len(recent))
	}
	// 直列化されているため取得は最初の1回のみ
	if got := f.gateway.fetches(); len(got) != 1 {
		t.Errorf("Expected a single fetch, got %d", len(got))
	}
}
