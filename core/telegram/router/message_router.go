package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/tagbot/core/telegram"
	"github.com/m3rciful/tagbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is the conversation engine text messages are offered to first.
type FSM interface {
	InProgress(c tele.Context) bool
	Handle(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the handler for plain text. An active conversation
// always wins; otherwise slash-prefixed text is resolved against the
// registry and anything else goes to the fallbacks. Admin-only commands
// are reachable through their command route alone.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		text := c.Text()

		if fsm != nil && fsm.InProgress(c) {
			return handleWithSummary(c, "fsm", func() error {
				return fsm.Handle(c)
			})
		}

		if reg != nil && strings.HasPrefix(text, "/") {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, handlerName(key), func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", func() error {
				return opts.UnknownText(c)
			})
		}

		logSummary(c, "unknown_text", "skip", time.Now(), nil)
		return nil
	}

	return []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}}
}
