package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/tagbot/core/logger"
	tghelpers "github.com/m3rciful/tagbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// pruneThreshold is the tracked-user count above which expired entries are dropped.
const pruneThreshold = 1024

// RateLimitOptions configures behaviour of the rate limit middleware.
// Exclude holds update kinds ("message", "inline_query") that bypass the limit.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

type userGate struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[int64]time.Time
}

// pass records an update from userID and reports whether it is outside the interval.
func (g *userGate) pass(userID int64, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if last, ok := g.last[userID]; ok && now.Sub(last) < g.interval {
		return false
	}
	g.last[userID] = now
	if len(g.last) > pruneThreshold {
		for id, seen := range g.last {
			if now.Sub(seen) >= g.interval {
				delete(g.last, id)
			}
		}
	}
	return true
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Query != nil:
		return "inline_query"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}

// RateLimitMiddleware drops updates arriving from the same user within Interval
// of the previous accepted one.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	gate := &userGate{interval: opts.Interval, last: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := updateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip || gate.pass(user.ID, time.Now()) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("op", kind),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
