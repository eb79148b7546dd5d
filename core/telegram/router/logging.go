package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/tagbot/core/logger"
	tghelpers "github.com/m3rciful/tagbot/core/telegram/helpers"
	"github.com/m3rciful/tagbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// handleWithSummary runs fn under the handler name and writes one summary line for it.
func handleWithSummary(c tele.Context, name string, fn func() error, extras ...slog.Attr) error {
	start := time.Now()
	tghelpers.WithHandler(c, name)
	err := fn()
	status := "ok"
	if err != nil {
		status = "fail"
	}
	logSummary(c, name, status, start, err, extras...)
	return err
}

func logSummary(c tele.Context, name, status string, start time.Time, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)
	messages, results := middleware.GetCounters(c)

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcomeOf(err)),
		slog.Int("messages", messages),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if results > 0 {
		attrs = append(attrs, slog.Int("results", results))
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	logger.Info(ctx, "tg", "handler.handled", append(attrs, extras...)...)
}

func outcomeOf(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// handlerName turns "/Add_Tag" or "edit tag" into add_tag / edit_tag.
func handlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// deriveErrorCode prefers an error's own Code() and falls back to its type name.
func deriveErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	typ := strings.TrimLeft(fmt.Sprintf("%T", err), "*")
	if _, after, ok := strings.Cut(typ, "."); ok {
		typ = after
	}
	return strings.ToUpper(typ)
}
