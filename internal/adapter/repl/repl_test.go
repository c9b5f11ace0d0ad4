package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/chzyer/readline"

	"github.com/Nyukimin/tabitenki/internal/application/orchestrator"
	"github.com/Nyukimin/tabitenki/internal/domain/suggestion"
)

type scriptReader struct {
	lines  []string
	final  error
	closed bool
}

func (s *scriptReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		if s.final != nil {
			return "", s.final
		}
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptReader) Close() error {
	s.closed = true
	return nil
}

type fakeChat struct {
	reqs []orchestrator.ChatRequest
	err  error
}

func (f *fakeChat) Chat(ctx context.Context, req orchestrator.ChatRequest) (*orchestrator.ChatResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	if !req.PreferBilingual {
		return &orchestrator.ChatResponse{
			Response:    suggestion.Monolingual("Visit the museum."),
			CurrentCity: "Osaka",
			SessionID:   req.SessionID,
		}, nil
	}
	return &orchestrator.ChatResponse{
		Response:    suggestion.ParseBilingual("=== ENGLISH ===\nTake an umbrella.\n=== JAPANESE ===\n傘を持っていきましょう。"),
		CurrentCity: "Kyoto",
		SessionID:   req.SessionID,
	}, nil
}

func TestRun_BilingualTurn(t *testing.T) {
	chat := &fakeChat{}
	reader := &scriptReader{lines: []string{"", "What should I do in Kyoto?", "/quit", "ignored"}}
	var out bytes.Buffer

	r := New(chat, reader, Config{SessionID: "s1", Out: &out})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(chat.reqs) != 1 {
		t.Fatalf("expected 1 chat request, got %d", len(chat.reqs))
	}
	if chat.reqs[0].SessionID != "s1" || !chat.reqs[0].PreferBilingual {
		t.Errorf("unexpected request: %+v", chat.reqs[0])
	}

	got := out.String()
	for _, want := range []string{"[Kyoto]", "--- English ---\nTake an umbrella.", "--- 日本語 ---\n傘を持っていきましょう。"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if !reader.closed {
		t.Error("reader should be closed")
	}
}

func TestRun_SameSessionAcrossTurns(t *testing.T) {
	chat := &fakeChat{}
	reader := &scriptReader{lines: []string{"Kyoto", "and tomorrow?"}}

	r := New(chat, reader, Config{})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(chat.reqs) != 2 {
		t.Fatalf("expected 2 chat requests, got %d", len(chat.reqs))
	}
	if chat.reqs[0].SessionID == "" || chat.reqs[0].SessionID != chat.reqs[1].SessionID {
		t.Errorf("session id should be generated once: %q vs %q", chat.reqs[0].SessionID, chat.reqs[1].SessionID)
	}
	if !strings.HasPrefix(r.SessionID(), "session_") {
		t.Errorf("unexpected session id %q", r.SessionID())
	}
}

func TestRun_ToggleBilingual(t *testing.T) {
	chat := &fakeChat{}
	reader := &scriptReader{lines: []string{"/bilingual", "Osaka"}}
	var out bytes.Buffer

	r := New(chat, reader, Config{Out: &out})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(chat.reqs) != 1 || chat.reqs[0].PreferBilingual {
		t.Fatalf("expected one monolingual request, got %+v", chat.reqs)
	}
	got := out.String()
	if !strings.Contains(got, "Bilingual responses: false") {
		t.Errorf("toggle not reported:\n%s", got)
	}
	if !strings.Contains(got, "[Osaka]\nVisit the museum.") {
		t.Errorf("monolingual output missing:\n%s", got)
	}
	if strings.Contains(got, "--- English ---") {
		t.Errorf("monolingual output should not have section headers:\n%s", got)
	}
}

func TestRun_ChatErrorKeepsLoop(t *testing.T) {
	chat := &fakeChat{err: errors.New("AI suggestion error")}
	reader := &scriptReader{lines: []string{"Kyoto", "Osaka"}}
	var out bytes.Buffer

	r := New(chat, reader, Config{Out: &out})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(chat.reqs) != 2 {
		t.Errorf("loop should continue after errors, got %d requests", len(chat.reqs))
	}
	if strings.Count(out.String(), "Error: AI suggestion error") != 2 {
		t.Errorf("errors not printed:\n%s", out.String())
	}
}

func TestRun_InterruptExits(t *testing.T) {
	chat := &fakeChat{}
	reader := &scriptReader{final: readline.ErrInterrupt}

	r := New(chat, reader, Config{})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("interrupt on empty line should exit cleanly: %v", err)
	}
}

func TestRun_ReadError(t *testing.T) {
	reader := &scriptReader{final: errors.New("tty gone")}

	r := New(&fakeChat{}, reader, Config{})
	if err := r.Run(context.Background()); err == nil {
		t.Fatal("expected read error")
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	chat := &fakeChat{}
	reader := &scriptReader{lines: []string{"/weather", "/session"}}
	var out bytes.Buffer

	r := New(chat, reader, Config{SessionID: "s9", Out: &out})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(chat.reqs) != 0 {
		t.Errorf("commands should not reach the pipeline")
	}
	if !strings.Contains(out.String(), "Unknown command /weather") {
		t.Errorf("unknown command not reported:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "s9\n") {
		t.Errorf("session id not printed:\n%s", out.String())
	}
}
