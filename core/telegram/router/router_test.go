package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/tagbot/core/telegram"
	"github.com/m3rciful/tagbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]any
}

func textUpdate(text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 10, Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: 5},
			Chat:   &tele.Chat{ID: 5, Type: tele.ChatPrivate},
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update   { return f.update }
func (f *fakeContext) Sender() *tele.User    { return f.update.Message.Sender }
func (f *fakeContext) Chat() *tele.Chat      { return f.update.Message.Chat }
func (f *fakeContext) Text() string          { return f.update.Message.Text }
func (f *fakeContext) Get(key string) any    { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }

type fakeFSM struct {
	active  bool
	handled []string
}

func (f *fakeFSM) InProgress(tele.Context) bool { return f.active }

func (f *fakeFSM) Handle(c tele.Context) error {
	f.handled = append(f.handled, c.Text())
	return nil
}

func newRegistry(calls *[]string) *tg.Registry {
	reg := tg.NewRegistry()
	record := func(name string) tele.HandlerFunc {
		return func(tele.Context) error { *calls = append(*calls, name); return nil }
	}
	reg.RegisterCommand("/add_tag", commands.Command{Handler: record("add_tag"), Description: "add"})
	reg.RegisterCommand("/stats", commands.Command{Handler: record("stats"), Description: "stats", AdminOnly: true})
	return reg
}

func textHandler(t *testing.T, fsm FSM, reg *tg.Registry, opts TextOptions) tele.HandlerFunc {
	t.Helper()
	routes := TextRoutes(fsm, reg, opts)
	require.Len(t, routes, 1)
	assert.Equal(t, tele.OnText, routes[0].Endpoint)
	return routes[0].Handler
}

func TestTextRoutesPrefersActiveConversation(t *testing.T) {
	var calls []string
	fsm := &fakeFSM{active: true}
	h := textHandler(t, fsm, newRegistry(&calls), TextOptions{})

	require.NoError(t, h(textUpdate("/add_tag@tagbot")))
	assert.Equal(t, []string{"/add_tag@tagbot"}, fsm.handled)
	assert.Empty(t, calls)
}

func TestTextRoutesResolvesCommandsWhenIdle(t *testing.T) {
	var calls []string
	fsm := &fakeFSM{}
	h := textHandler(t, fsm, newRegistry(&calls), TextOptions{})

	require.NoError(t, h(textUpdate("/add_tag@tagbot extra")))
	require.NoError(t, h(textUpdate("add_tag")))
	assert.Equal(t, []string{"add_tag"}, calls)
	assert.Empty(t, fsm.handled)
}

func TestTextRoutesNeverRunsAdminCommands(t *testing.T) {
	var calls []string
	unknown := 0
	h := textHandler(t, nil, newRegistry(&calls), TextOptions{
		UnknownText: func(tele.Context) error { unknown++; return nil },
	})

	require.NoError(t, h(textUpdate("/stats@otherbot")))
	assert.Empty(t, calls)
	assert.Equal(t, 1, unknown)
}

func TestTextRoutesUsesRegistryFallback(t *testing.T) {
	var calls []string
	reg := newRegistry(&calls)
	reg.SetTextFallback(func(tele.Context) error { calls = append(calls, "fallback"); return nil })
	h := textHandler(t, nil, reg, TextOptions{})

	require.NoError(t, h(textUpdate("hello")))
	assert.Equal(t, []string{"fallback"}, calls)
}

func TestCommandRoutesKeepRegistrationOrder(t *testing.T) {
	var calls []string
	routes := CommandRoutes(newRegistry(&calls), CommandRouteOptions{AdminID: 99})
	require.Len(t, routes, 2)
	assert.Equal(t, "/add_tag", routes[0].Endpoint)
	assert.Equal(t, "/stats", routes[1].Endpoint)

	require.NoError(t, routes[1].Handler(textUpdate("/stats")))
	assert.Empty(t, calls, "non-admin reached /stats")

	require.NoError(t, routes[0].Handler(textUpdate("/add_tag")))
	assert.Equal(t, []string{"add_tag"}, calls)
}

func TestInlineRouteBindsOnQuery(t *testing.T) {
	route := InlineRoute(func(tele.Context) error { return nil })
	assert.Equal(t, tele.OnQuery, route.Endpoint)
	assert.NotNil(t, route.Handler)
}

type codedErr struct{}

func (codedErr) Error() string { return "store down" }
func (codedErr) Code() string  { return "store unavailable" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "STORE_UNAVAILABLE", deriveErrorCode(codedErr{}))
	assert.Equal(t, "PLAINERR", deriveErrorCode(&plainErr{}))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
}

func TestHandlerName(t *testing.T) {
	assert.Equal(t, "add_tag", handlerName("/Add_Tag"))
	assert.Equal(t, "edit_tag", handlerName("edit tag"))
	assert.Equal(t, "unknown", handlerName(" / "))
}
