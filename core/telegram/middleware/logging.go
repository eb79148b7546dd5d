package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/tagbot/core/logger"
	tghelpers "github.com/m3rciful/tagbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers recently logged update ids; the middleware runs both
// globally and inside each route.
var seenUpdates = struct {
	sync.Mutex
	at map[int]time.Time
}{at: make(map[int]time.Time)}

const seenTTL = 10 * time.Second

func firstSighting(updateID int) bool {
	now := time.Now()
	seenUpdates.Lock()
	defer seenUpdates.Unlock()
	for id, ts := range seenUpdates.at {
		if now.Sub(ts) > seenTTL {
			delete(seenUpdates.at, id)
		}
	}
	if _, ok := seenUpdates.at[updateID]; ok {
		return false
	}
	seenUpdates.at[updateID] = now
	return true
}

// LoggerMiddleware sets the update rid and logging context and writes a
// sampled debug line per received update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		user, chat := c.Sender(), c.Chat()
		var userID, chatID int64
		if user != nil {
			userID = user.ID
		}
		if chat != nil {
			chatID = chat.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)

		ctx := logger.WithUpdateMeta(logger.WithRID(context.Background(), rid), upd.ID, userID, chatID)
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && firstSighting(upd.ID) {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c, upd, user, chat)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context, upd tele.Update, user *tele.User, chat *tele.Chat) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	switch {
	case upd.Query != nil:
		attrs = append(attrs, slog.String("query", logger.SanitizeLimit(upd.Query.Text, 64)))
	case upd.Message != nil:
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
	}
	return attrs
}
