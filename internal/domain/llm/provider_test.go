package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	content string
	err     error
	got     GenerateRequest
}

func (s *stubProvider) Generate(_ context.Context, req GenerateRequest) (GenerateResponse, error) {
	s.got = req
	return GenerateResponse{Content: s.content}, s.err
}

func (s *stubProvider) Name() string { return "stub" }

func TestPrompt(t *testing.T) {
	req := Prompt("hello")
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "hello", req.Messages[0].Content)
}

func TestComplete(t *testing.T) {
	p := &stubProvider{content: "ok"}

	out, err := Complete(context.Background(), p, Prompt("q"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "q", p.got.Messages[0].Content)
}

func TestComplete_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Complete(context.Background(), &stubProvider{err: boom}, Prompt("q"))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stub")

	_, err = Complete(context.Background(), &stubProvider{content: "  \n"}, Prompt("q"))
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
