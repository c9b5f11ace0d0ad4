package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID は新しいセッションIDを生成
func NewID(now time.Time) string {
	// フォーマット: session_{UnixMilli}_{UUID先頭8文字}
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), uuid.New().String()[:8])
}
