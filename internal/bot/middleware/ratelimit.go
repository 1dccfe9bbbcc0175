package middleware

import (
	"sync"
	"time"
)

// RateLimiter защищает бота от спама командами: скользящее окно
// по tg_id игрока. Сообщения сверх лимита молча игнорируются.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[int64][]time.Time
	limit  int
	window time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[int64][]time.Time),
		limit:  limit,
		window: window,
		stopCh: make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Close останавливает фоновую очистку. Вызывается на shutdown.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow регистрирует сообщение игрока и сообщает, укладывается ли он в лимит.
func (rl *RateLimiter) Allow(tgID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := trimOld(rl.hits[tgID], now.Add(-rl.window))
	if len(recent) >= rl.limit {
		rl.hits[tgID] = recent
		return false
	}
	rl.hits[tgID] = append(recent, now)
	return true
}

// trimOld отбрасывает отметки старше cutoff, переиспользуя слайс.
func trimOld(marks []time.Time, cutoff time.Time) []time.Time {
	kept := marks[:0]
	for _, t := range marks {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep выбрасывает игроков, которые давно ничего не писали,
// чтобы карта не росла бесконечно.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for tgID, marks := range rl.hits {
		kept := trimOld(marks, cutoff)
		if len(kept) == 0 {
			delete(rl.hits, tgID)
		} else {
			rl.hits[tgID] = kept
		}
	}
}
