package contextstore

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/adhocore/gronx"
)

// DefaultSweepSchedule は掃除の既定スケジュール
const DefaultSweepSchedule = "@hourly"

// Sweeper はcron式に従って Store.Sweep を定期実行する
type Sweeper struct {
	store    *Store
	schedule string
	maxAge   time.Duration
	now      func() time.Time
	next     func(ref time.Time) (time.Time, error)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	started  bool
	mu       sync.Mutex
}

// NewSweeper は新しいSweeperを作成
// schedule が不正なcron式の場合はエラー
func NewSweeper(store *Store, schedule string, maxAge time.Duration) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if !gronx.New().IsValid(schedule) {
		return nil, fmt.Errorf("invalid sweep schedule: %q", schedule)
	}
	if maxAge <= 0 {
		maxAge = store.MaxAge()
	}

	return &Sweeper{
		store:    store,
		schedule: schedule,
		maxAge:   maxAge,
		now:      store.now,
		next: func(ref time.Time) (time.Time, error) {
			return gronx.NextTickAfter(schedule, ref, false)
		},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}, nil
}

// Schedule はcron式を返す
func (s *Sweeper) Schedule() string {
	return s.schedule
}

// Start は掃除ループをバックグラウンドで開始
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	go s.run(ctx)
	log.Printf("[ContextStore] Sweeper started (schedule=%s, max_age=%s)", s.schedule, s.maxAge)
}

// Stop はループを停止し、実行中の掃除の完了を待つ
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	for {
		next, err := s.next(s.now())
		if err != nil {
			log.Printf("[ContextStore] Sweeper stopped: %v", err)
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.store.Sweep(ctx, s.maxAge); err != nil {
			log.Printf("[ContextStore] Sweep failed: %v", err)
		}
	}
}
