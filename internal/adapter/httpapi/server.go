package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Nyukimin/tabitenki/internal/application/contextstore"
	"github.com/Nyukimin/tabitenki/internal/application/orchestrator"
	"github.com/Nyukimin/tabitenki/internal/domain/session"
	"github.com/Nyukimin/tabitenki/internal/domain/translation"
	"github.com/Nyukimin/tabitenki/internal/domain/weather"
)

// ChatService はチャットパイプラインのインターフェース
type ChatService interface {
	Chat(ctx context.Context, req orchestrator.ChatRequest) (*orchestrator.ChatResponse, error)
}

// SessionService はセッション参照・削除のインターフェース
type SessionService interface {
	Stats(ctx context.Context, id string) (contextstore.Stats, error)
	History(ctx context.Context, id string, limit int) ([]session.Message, error)
	Clear(ctx context.Context, id string) (bool, error)
}

// TranslationService は単独翻訳のインターフェース
type TranslationService interface {
	TranslateSimple(ctx context.Context, text string) (*translation.Simple, error)
	TranslateWithContext(ctx context.Context, text, contextHint string) (*translation.Simple, error)
	TranslateBatch(ctx context.Context, texts []string) []translation.Simple
}

// Recorder はHTTPリクエストのメトリクス記録先
type Recorder interface {
	RecordHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// Deps はハンドラーの依存関係
type Deps struct {
	Chat        ChatService
	Sessions    SessionService
	Translation TranslationService
	Weather     weather.Gateway
	// Recorder と MetricsHandler は省略可
	Recorder       Recorder
	MetricsHandler http.Handler
}

// Options はルーティング設定
type Options struct {
	BasePath    string
	StaticDir   string
	MetricsPath string
	// HistoryLimit は履歴取得の既定件数
	HistoryLimit int
	Now          func() time.Time
}

// Server はHTTP/WebSocketハンドラー
type Server struct {
	deps Deps
	opts Options
	mux  *http.ServeMux
}

// NewServer は新しいServerを作成しルートを登録
func NewServer(deps Deps, opts Options) *Server {
	opts.BasePath = "/" + strings.Trim(opts.BasePath, "/")
	if opts.BasePath == "/" {
		opts.BasePath = ""
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = contextstore.DefaultHistoryLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{deps: deps, opts: opts, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	base := s.opts.BasePath

	s.mux.HandleFunc("GET "+base+"/health", s.handleHealth)
	s.mux.HandleFunc("POST "+base+"/chat", s.handleChat)
	s.mux.HandleFunc("GET "+base+"/chat/ws", s.handleChatWebSocket)
	s.mux.HandleFunc("GET "+base+"/session/{id}", s.handleSessionStats)
	s.mux.HandleFunc("DELETE "+base+"/session/{id}", s.handleSessionClear)
	s.mux.HandleFunc("GET "+base+"/session/{id}/history", s.handleSessionHistory)
	s.mux.HandleFunc("POST "+base+"/translate", s.handleTranslate)
	s.mux.HandleFunc("POST "+base+"/translate/batch", s.handleTranslateBatch)
	s.mux.HandleFunc("GET "+base+"/weather/current/{city}", s.handleWeatherCurrent)
	s.mux.HandleFunc("GET "+base+"/weather/complete/{city}", s.handleWeatherComplete)
	s.mux.HandleFunc("GET "+base+"/weather/coords", s.handleWeatherCoords)

	if s.deps.MetricsHandler != nil && s.opts.MetricsPath != "" {
		s.mux.Handle("GET "+s.opts.MetricsPath, s.deps.MetricsHandler)
	}

	if s.opts.StaticDir != "" {
		s.mux.Handle("GET /", newStaticHandler(s.opts.StaticDir, base))
	}
}

// Handler はミドルウェア適用済みのハンドラーを返す
func (s *Server) Handler() http.Handler {
	return withRecovery(withCORS(withLogging(s.mux, s.deps.Recorder)))
}

// ServeHTTP はHTTPリクエストを処理
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}
