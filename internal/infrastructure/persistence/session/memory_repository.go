package session

import (
	"context"
	"sort"
	"sync"

	"github.com/Nyukimin/tabitenki/internal/domain/session"
)

// MemoryRepository はプロセス内メモリによる session.Repository 実装
// 保存・読み込みの両方でコピーを取り、呼び出し側と状態を共有しない
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*session.Context
}

// NewMemoryRepository は新しいMemoryRepositoryを作成
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string]*session.Context),
	}
}

// Save はセッションを保存
func (r *MemoryRepository) Save(ctx context.Context, c *session.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[c.ID()] = c.Clone()
	return nil
}

// Load はセッションをロード
func (r *MemoryRepository) Load(ctx context.Context, id string) (*session.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return c.Clone(), nil
}

// Exists はセッションが存在するか確認
func (r *MemoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[id]
	return ok, nil
}

// Delete はセッションを削除し、存在したかを返す
func (r *MemoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false, nil
	}
	delete(r.sessions, id)
	return true, nil
}

// List は保存中のセッションIDを昇順で返す（呼び出し時点のスナップショット）
func (r *MemoryRepository) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids, nil
}

// Len は保存中のセッション数を返す
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
