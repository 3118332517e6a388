package middleware

import (
	"sync"
	"time"
)

// RateLimiter ограничивает число команд от одного пользователя
// скользящим окном. Применяется только к командам: обычные сообщения
// должны доходить до леджера всегда, иначе потеряется отметка активности.
type RateLimiter struct {
	mu      sync.Mutex
	history map[int64][]time.Time
	limit   int
	window  time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter создаёт лимитер и запускает фоновую очистку истории.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		history: make(map[int64][]time.Time),
		limit:   limit,
		window:  window,
		stopCh:  make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Allow возвращает true, если пользователю можно выполнить ещё одну команду.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := pruneBefore(rl.history[userID], now.Add(-rl.window))

	if len(recent) >= rl.limit {
		rl.history[userID] = recent
		return false
	}

	rl.history[userID] = append(recent, now)
	return true
}

// Close останавливает фоновую горутину очистки.
// Вызывается на shutdown, иначе janitor будет жить вечно.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// janitor периодически выбрасывает устаревшие записи, чтобы карта
// не росла от пользователей, давно не писавших команды.
func (rl *RateLimiter) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.window)
			for userID, times := range rl.history {
				recent := pruneBefore(times, cutoff)
				if len(recent) == 0 {
					delete(rl.history, userID)
				} else {
					rl.history[userID] = recent
				}
			}
			rl.mu.Unlock()
		}
	}
}

// pruneBefore оставляет только отметки времени после cutoff.
func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	var recent []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}
