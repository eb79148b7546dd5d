// Package bot adapts the dialog engine and inline search to telebot.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/tagbot/core/logger"
	tg "github.com/m3rciful/tagbot/core/telegram"
	"github.com/m3rciful/tagbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/tagbot/core/telegram/helpers"
	"github.com/m3rciful/tagbot/core/telegram/router"
	"github.com/m3rciful/tagbot/core/telegram/state"
	"github.com/m3rciful/tagbot/core/telegram/ui"
	"github.com/m3rciful/tagbot/internal/dialog"
	"github.com/m3rciful/tagbot/internal/store"
	"github.com/m3rciful/tagbot/internal/tags"

	tele "gopkg.in/telebot.v4"
)

const component = "tg"

var commandDescriptions = map[dialog.Command]string{
	dialog.CommandAdd:    "Добавляет тэг с текстом",
	dialog.CommandRemove: "Удаляет тэг",
	dialog.CommandEdit:   "Редактирует тэг",
}

// StatsSource reports aggregate counts for the admin /stats command.
type StatsSource interface {
	Stats(ctx context.Context) (store.Stats, error)
}

// Handlers binds telebot updates to the dialog engine and tag search.
type Handlers struct {
	engine   *dialog.Engine
	tags     tags.Store
	stats    StatsSource
	username atomic.Pointer[string]
}

// New builds the update handlers. stats may be nil, which disables /stats.
func New(engine *dialog.Engine, tagStore tags.Store, stats StatsSource) *Handlers {
	return &Handlers{engine: engine, tags: tagStore, stats: stats}
}

// SetUsername records the bot's own username used in the /start greeting.
func (h *Handlers) SetUsername(name string) {
	h.username.Store(&name)
}

func (h *Handlers) botUsername() string {
	if p := h.username.Load(); p != nil {
		return *p
	}
	return ""
}

// Register adds every bot command to reg, flow commands first so they lead the menu.
func (h *Handlers) Register(reg *tg.Registry) {
	for _, cmd := range h.engine.Commands() {
		reg.RegisterCommand("/"+string(cmd), commands.Command{
			Handler:     h.begin(cmd),
			Description: commandDescriptions[cmd],
		})
	}
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Приветствие",
		Hidden:      true,
	})
	if h.stats != nil {
		reg.RegisterCommand("/stats", commands.Command{
			Handler:     h.Stats,
			Description: "Статистика",
			AdminOnly:   true,
		})
	}
}

// Routes returns the command, text and inline routes for reg.
func (h *Handlers) Routes(reg *tg.Registry, adminID int64) []tg.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: adminID})
	routes = append(routes, router.TextRoutes(h, reg, router.TextOptions{})...)
	routes = append(routes, router.InlineRoute(h.Inline))
	return routes
}

// OnStart captures the bot identity once telebot has fetched it.
func (h *Handlers) OnStart(_ context.Context, rt tg.Runtime) error {
	if rt.Bot != nil && rt.Bot.Me != nil {
		h.SetUsername(rt.Bot.Me.Username)
	}
	return nil
}

func (h *Handlers) begin(cmd dialog.Command) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		return h.reply(c, h.engine.Begin(ctx, cmd, input(c)))
	}
}

// Start greets the user and registers them on first contact.
func (h *Handlers) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return h.reply(c, h.engine.Welcome(ctx, input(c), h.botUsername()))
}

// InProgress reports whether the sender has an active flow in this chat.
func (h *Handlers) InProgress(c tele.Context) bool {
	in := input(c)
	return h.engine.InProgress(tghelpers.BuildContext(c), state.Key{UserID: in.UserID, ChatID: in.ChatID})
}

// Handle feeds a plain text message to the active flow.
func (h *Handlers) Handle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return h.reply(c, h.engine.Handle(ctx, input(c)))
}

// Inline answers an inline query with the sender's matching tags.
// Store failures are logged and answered with an empty list.
func (h *Handlers) Inline(c tele.Context) error {
	q := c.Query()
	if q == nil || q.Sender == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	found, err := tags.Search(ctx, h.tags, q.Sender.ID, q.Text)
	if err != nil {
		logger.Error(ctx, "service.search", "search.failed",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		found = nil
	}
	results := make(tele.Results, 0, len(found))
	for _, r := range found {
		results = append(results, ui.NewArticleResult(r.ID, r.Title, r.Description, r.Text))
	}
	return c.Answer(ui.PersonalAnswer(results))
}

// Stats reports user and tag totals to the admin.
func (h *Handlers) Stats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	st, err := h.stats.Stats(ctx)
	if err != nil {
		logger.Error(ctx, component, "stats.failed",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, dialog.FailureMessage)
	}
	return tghelpers.SendText(c, fmt.Sprintf("Пользователей: %d\nТегов: %d", st.Users, st.Tags))
}

func (h *Handlers) reply(c tele.Context, res dialog.Result) error {
	for _, r := range res.Replies {
		var err error
		if r.HTML {
			err = tghelpers.SendHTML(c, r.Text)
		} else {
			err = tghelpers.SendText(c, r.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func input(c tele.Context) dialog.Input {
	in := dialog.Input{Text: c.Text()}
	if u := c.Sender(); u != nil {
		in.UserID = u.ID
		in.Username = u.Username
	}
	if ch := c.Chat(); ch != nil {
		in.ChatID = ch.ID
	}
	return in
}
