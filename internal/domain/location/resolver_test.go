package location

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuick struct {
	result *Result
}

func (s *stubQuick) Match(text string) (*Result, bool) {
	return s.result, s.result != nil
}

type stubExtractor struct {
	result *Result
	err    error
	calls  int
}

func (s *stubExtractor) Extract(ctx context.Context, text string) (*Result, error) {
	s.calls++
	return s.result, s.err
}

func TestResolver_QuickMatchWinsWithoutModelCall(t *testing.T) {
	quick := &stubQuick{result: &Result{City: "Tokyo", Confidence: PatternMatchConfidence, Method: MethodPatternMatch}}
	extractor := &stubExtractor{result: NewResult("Osaka", 0.9, MethodAIExtraction)}

	r := NewResolver(quick, extractor)
	got := r.Resolve(context.Background(), "渋谷の天気は？")

	require.NotNil(t, got)
	assert.Equal(t, "Tokyo", got.City)
	assert.Equal(t, MethodPatternMatch, got.Method)
	assert.Equal(t, 0, extractor.calls)
}

func TestResolver_FallsBackToExtractor(t *testing.T) {
	extractor := &stubExtractor{result: NewResult("Nara", 0.7, MethodAIExtraction)}

	r := NewResolver(&stubQuick{}, extractor)
	got := r.Resolve(context.Background(), "somewhere with deer")

	require.NotNil(t, got)
	assert.Equal(t, "Nara", got.City)
	assert.Equal(t, 1, extractor.calls)
}

func TestResolver_ExtractorErrorIsSwallowed(t *testing.T) {
	extractor := &stubExtractor{err: errors.New("model unavailable")}

	r := NewResolver(&stubQuick{}, extractor)
	assert.Nil(t, r.Resolve(context.Background(), "hello"))
}

func TestResolver_NoExtractor(t *testing.T) {
	r := NewResolver(&stubQuick{}, nil)
	assert.Nil(t, r.Resolve(context.Background(), "hello"))
}

func TestFromTranslationHint(t *testing.T) {
	assert.Nil(t, FromTranslationHint(""))

	got := FromTranslationHint("Kyoto")
	require.NotNil(t, got)
	assert.Equal(t, TranslationConfidence, got.Confidence)
	assert.Equal(t, MethodTranslationExtraction, got.Method)
}
