package session

import "context"

// Repository はセッション保存先の抽象化
// Load は見つからない場合 ErrSessionNotFound を返す
type Repository interface {
	Save(ctx context.Context, c *Context) error
	Load(ctx context.Context, id string) (*Context, error)
	Delete(ctx context.Context, id string) (bool, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]string, error)
}
