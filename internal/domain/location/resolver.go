package location

import (
	"context"
	"log"
)

// QuickMatcher は辞書ベースの高速一致
type QuickMatcher interface {
	Match(text string) (*Result, bool)
}

// Extractor はモデルベースの抽出器
type Extractor interface {
	Extract(ctx context.Context, text string) (*Result, error)
}

// Resolver は自由文から都市を推定する（2段階優先順位）
type Resolver struct {
	quick     QuickMatcher
	extractor Extractor
}

// NewResolver は新しいResolverを作成（extractor は nil 可）
func NewResolver(quick QuickMatcher, extractor Extractor) *Resolver {
	return &Resolver{
		quick:     quick,
		extractor: extractor,
	}
}

// Resolve は text から都市を推定する。見つからなければ nil
// 抽出はベストエフォートで、エラーは呼び出し元に伝播しない
func (r *Resolver) Resolve(ctx context.Context, text string) *Result {
	// 優先度1: 既知表記の部分一致
	if r.quick != nil {
		if result, ok := r.quick.Match(text); ok {
			return result
		}
	}

	// 優先度2: モデルによる抽出
	if r.extractor == nil {
		return nil
	}

	result, err := r.extractor.Extract(ctx, text)
	if err != nil {
		log.Printf("[Location] extraction failed, continuing without location: %v", err)
		return nil
	}

	return result
}
