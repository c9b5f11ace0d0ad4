package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/Nyukimin/tabitenki/internal/adapter/config"
	"github.com/Nyukimin/tabitenki/internal/application/contextstore"
	"github.com/Nyukimin/tabitenki/internal/application/orchestrator"
	"github.com/Nyukimin/tabitenki/internal/domain/city"
	domainllm "github.com/Nyukimin/tabitenki/internal/domain/llm"
	domainlocation "github.com/Nyukimin/tabitenki/internal/domain/location"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/llm/claude"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/llm/deepseek"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/llm/gemini"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/llm/ollama"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/llm/openai"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/location"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/metrics"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/persistence/session"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/suggestion"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/tracing"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/translation"
	"github.com/Nyukimin/tabitenki/internal/infrastructure/weather/openweather"
)

// app はアプリケーション依存関係
type app struct {
	orchestrator *orchestrator.ChatOrchestrator
	store        *contextstore.Store
	translator   *translation.Translator
	weather      *openweather.Client
	metrics      *metrics.Metrics

	sweeper  *contextstore.Sweeper
	shutdown tracing.ShutdownFunc
}

// buildApp は依存関係を構築
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logCredentials(cfg)

	// 1. Tracing
	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Writer:      os.Stderr,
	})
	if err != nil {
		return nil, err
	}

	a := &app{shutdown: shutdown}

	// 2. Metrics
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}

	// 3. LLM Providers
	mainProvider, err := newProvider(ctx, cfg, cfg.LLM.Model)
	if err != nil {
		a.close()
		return nil, err
	}
	utilityProvider := mainProvider
	if cfg.LLM.UtilityModel != "" && cfg.LLM.UtilityModel != cfg.LLM.Model {
		if utilityProvider, err = newProvider(ctx, cfg, cfg.LLM.UtilityModel); err != nil {
			a.close()
			return nil, err
		}
	}
	log.Printf("LLM provider %s (utility: %s)", mainProvider.Name(), utilityProvider.Name())

	// 4. Weather Gateway
	weatherCfg := openweather.Config{
		APIKey:            cfg.Weather.APIKey,
		BaseURL:           cfg.Weather.BaseURL,
		CurrentTimeout:    cfg.Weather.CurrentTimeout,
		ForecastTimeout:   cfg.Weather.ForecastTimeout,
		RequestsPerMinute: cfg.Weather.RequestsPerMinute,
	}
	if a.metrics != nil {
		weatherCfg.Observer = a.metrics
	}
	if a.weather, err = openweather.NewClient(weatherCfg); err != nil {
		a.close()
		return nil, err
	}

	// 5. Session Context Store
	storeCfg := contextstore.Config{
		WeatherTTL: cfg.Session.WeatherTTL,
		MaxAge:     cfg.Session.MaxAge,
	}
	if a.metrics != nil {
		storeCfg.Observer = a.metrics
	}
	a.store = contextstore.New(session.NewMemoryRepository(), city.NewNormalizer(cfg.Session.DefaultCity), storeCfg)

	if a.sweeper, err = contextstore.NewSweeper(a.store, cfg.Session.SweepSchedule, cfg.Session.MaxAge); err != nil {
		a.close()
		return nil, err
	}
	a.sweeper.Start(ctx)

	// 6. Translation / Location / Suggestion
	a.translator = translation.NewTranslator(utilityProvider)
	resolver := domainlocation.NewResolver(location.NewVariantDictionary(), location.NewLLMExtractor(utilityProvider))
	generator := suggestion.NewGenerator(mainProvider)

	// 7. Orchestrator
	orchCfg := orchestrator.Config{SerializeSessions: cfg.Server.SerializeSessions}
	if a.metrics != nil {
		orchCfg.Observer = a.metrics
	}
	a.orchestrator = orchestrator.NewChatOrchestrator(a.store, a.translator, resolver, a.weather, generator, orchCfg)

	log.Println("Dependency injection complete")
	return a, nil
}

// close はバックグラウンド処理とトレーサーを停止
func (a *app) close() {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if a.shutdown != nil {
		if err := a.shutdown(context.Background()); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}
}

// newProvider は設定されたプロバイダーを model で作成
func newProvider(ctx context.Context, cfg *config.Config, model string) (domainllm.LLMProvider, error) {
	var (
		provider domainllm.LLMProvider
		err      error
	)

	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		provider, err = asProvider(gemini.NewGeminiProvider(ctx, cfg.LLM.Gemini.APIKey, model))
	case config.ProviderOpenAI:
		provider, err = asProvider(openai.NewOpenAIProvider(cfg.LLM.OpenAI.APIKey, model))
	case config.ProviderClaude:
		provider, err = asProvider(claude.NewClaudeProvider(cfg.LLM.Claude.APIKey, model))
	case config.ProviderDeepSeek:
		provider, err = asProvider(deepseek.NewDeepSeekProvider(cfg.LLM.DeepSeek.APIKey, model))
	case config.ProviderOllama:
		provider, err = asProvider(ollama.NewOllamaProvider(cfg.LLM.Ollama.BaseURL, model))
	default:
		err = fmt.Errorf("unknown llm provider: %q", cfg.LLM.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.LLM.Provider, err)
	}
	return provider, nil
}

// asProvider はコンストラクタの戻り値を LLMProvider に変換（エラー時は nil）
func asProvider[P domainllm.LLMProvider](p P, err error) (domainllm.LLMProvider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// logCredentials は設定済みのAPIキーを記録（値は出力しない）
func logCredentials(cfg *config.Config) {
	status := cfg.CredentialStatus()
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		state := "missing"
		if status[name] {
			state = "configured"
		}
		log.Printf("%s: %s", name, state)
	}
}
