package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/tagbot/core/logger"
	"github.com/m3rciful/tagbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes helper sends through d; nil makes them synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// deliver queues run on the dispatcher. A full or closed queue, or no
// dispatcher at all, makes the send synchronous instead of dropping it.
func deliver(c tele.Context, action string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, "sendMessage", run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("op", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText sends plain text to the current chat.
func SendText(c tele.Context, text string) error {
	return deliver(c, "send.text", func() error {
		return c.Send(text, &tele.SendOptions{DisableWebPagePreview: true})
	})
}

// SendHTML sends text with HTML parse mode. Callers escape user content.
func SendHTML(c tele.Context, text string) error {
	return deliver(c, "send.html", func() error {
		return c.Send(text, &tele.SendOptions{ParseMode: tele.ModeHTML, DisableWebPagePreview: true})
	})
}
