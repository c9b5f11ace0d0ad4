package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/Nyukimin/tabitenki/internal/application/orchestrator"
	"github.com/Nyukimin/tabitenki/internal/domain/session"
)

const defaultPrompt = "tabitenki> "

const helpText = `Commands:
  /help       show this help
  /bilingual  toggle bilingual responses
  /session    show the session id
  /quit       exit`

// ChatService はチャットパイプラインのインターフェース
type ChatService interface {
	Chat(ctx context.Context, req orchestrator.ChatRequest) (*orchestrator.ChatResponse, error)
}

// LineReader は1行ずつ入力を読む
// readline.Instance が満たす
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// Config はREPL設定
type Config struct {
	SessionID   string
	Monolingual bool
	Prompt      string
	HistoryFile string
	Out         io.Writer
}

// REPL は単一セッションの対話クライアント
type REPL struct {
	chat      ChatService
	reader    LineReader
	out       io.Writer
	sessionID string
	bilingual bool
}

// New は新しいREPLを作成
func New(chat ChatService, reader LineReader, cfg Config) *REPL {
	id := cfg.SessionID
	if id == "" {
		id = session.NewID(time.Now())
	}
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	return &REPL{
		chat:      chat,
		reader:    reader,
		out:       out,
		sessionID: id,
		bilingual: !cfg.Monolingual,
	}
}

// NewTerminal は端末入力を使うREPLを作成
func NewTerminal(chat ChatService, cfg Config) (*REPL, error) {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = defaultPrompt
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	if cfg.Out == nil {
		cfg.Out = rl.Stdout()
	}
	return New(chat, rl, cfg), nil
}

// SessionID はセッションIDを返す
func (r *REPL) SessionID() string {
	return r.sessionID
}

// Run は入力が終わるか /quit まで対話を続ける
func (r *REPL) Run(ctx context.Context) error {
	defer r.reader.Close()

	fmt.Fprintf(r.out, "Session %s. Type /help for commands.\n", r.sessionID)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := r.reader.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := r.command(line); quit {
				return nil
			}
			continue
		}

		r.ask(ctx, line)
	}
}

// command はスラッシュコマンドを処理。終了時は true
func (r *REPL) command(line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/bilingual":
		r.bilingual = !r.bilingual
		fmt.Fprintf(r.out, "Bilingual responses: %t\n", r.bilingual)
	case "/session":
		fmt.Fprintln(r.out, r.sessionID)
	default:
		fmt.Fprintf(r.out, "Unknown command %s. Type /help for commands.\n", line)
	}
	return false
}

// ask はパイプラインを実行して結果を表示
func (r *REPL) ask(ctx context.Context, message string) {
	resp, err := r.chat.Chat(ctx, orchestrator.ChatRequest{
		Message:         message,
		SessionID:       r.sessionID,
		PreferBilingual: r.bilingual,
	})
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(r.out, "\n[%s]\n", resp.CurrentCity)
	if resp.Response == nil {
		return
	}
	if !resp.Response.IsBilingual {
		fmt.Fprintf(r.out, "%s\n\n", resp.Response.English)
		return
	}

	fmt.Fprintf(r.out, "--- English ---\n%s\n", resp.Response.English)
	if resp.Response.Japanese != nil {
		fmt.Fprintf(r.out, "--- 日本語 ---\n%s\n", *resp.Response.Japanese)
	}
	fmt.Fprintln(r.out)
}
