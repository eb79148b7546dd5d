package router

import (
	"log/slog"

	tg "github.com/m3rciful/tagbot/core/telegram"
	"github.com/m3rciful/tagbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// InlineRoute wraps the inline query handler with the shared middleware and summary log.
func InlineRoute(h tele.HandlerFunc) tg.Route {
	handler := func(c tele.Context) error {
		var extras []slog.Attr
		if q := c.Query(); q != nil {
			extras = append(extras, slog.Int("query_len", len([]rune(q.Text))))
		}
		return handleWithSummary(c, "inline_query", func() error {
			return h(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnQuery,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
