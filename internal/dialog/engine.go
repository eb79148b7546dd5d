// Package dialog drives the guided add/remove/edit conversations.
//
// Every inbound message is resolved against the sender's session: the
// session's state selects a step, the step validates the text, optionally
// touches the tag store inside a single transaction, and produces replies
// plus the next session. Sessions are persisted only after the step
// succeeds, so an infrastructure failure leaves the user on the same step.
package dialog

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/m3rciful/tagbot/core/logger"
	"github.com/m3rciful/tagbot/core/telegram/state"
	"github.com/m3rciful/tagbot/internal/tags"
)

const component = "service.dialog"

// Command names a flow entry point.
type Command string

const (
	CommandAdd    Command = "add_tag"
	CommandRemove Command = "remove_tag"
	CommandEdit   Command = "edit_tag"
)

const (
	StateAddWaitingForTag         state.State = "add_tag.waiting_for_tag"
	StateAddWaitingForText        state.State = "add_tag.waiting_for_text"
	StateRemoveWaitingForTag      state.State = "remove_tag.waiting_for_tag"
	StateRemoveWaitingForApproval state.State = "remove_tag.waiting_for_approval"
	StateEditWaitingForTag        state.State = "edit_tag.waiting_for_tag"
	StateEditWaitingForText       state.State = "edit_tag.waiting_for_text"
)

// session data keys
const (
	keyTag    = "tag"
	keyFirst  = "first"
	keySecond = "second"
	keySum    = "sum"
)

// Outcome summarises what a step did, for logs and tests.
type Outcome string

const (
	OutcomeStarted   Outcome = "started"
	OutcomeAdvanced  Outcome = "advanced"
	OutcomeCompleted Outcome = "completed"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeMismatch  Outcome = "mismatch"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeFailed    Outcome = "failed"
)

// Input is a single inbound message.
type Input struct {
	UserID   int64
	ChatID   int64
	Username string
	Text     string
}

func (in Input) key() state.Key {
	return state.Key{UserID: in.UserID, ChatID: in.ChatID}
}

// Reply is a single outbound message. HTML replies carry <code> markup
// with user content already escaped.
type Reply struct {
	Text string
	HTML bool
}

// Result is what the bot should send back plus the step outcome.
type Result struct {
	Replies []Reply
	Outcome Outcome
}

type turn struct {
	in      Input
	sess    state.Session
	replies []Reply
	outcome Outcome
}

func (t *turn) say(text string)     { t.replies = append(t.replies, Reply{Text: text}) }
func (t *turn) sayHTML(text string) { t.replies = append(t.replies, Reply{Text: text, HTML: true}) }

func (t *turn) moveTo(st state.State) {
	t.sess.State = st
	t.outcome = OutcomeAdvanced
}

func (t *turn) finish() {
	t.sess = state.Idle()
	t.outcome = OutcomeCompleted
}

type step struct {
	// usesStore runs the step inside a store transaction.
	usesStore bool
	run       func(ctx context.Context, e *Engine, t *turn, repo tags.Repository) error
}

type entry struct {
	initial state.State
	prompt  string
}

// Engine routes messages to flow steps.
type Engine struct {
	sessions state.Store
	store    tags.Store
	roll     func() int

	steps   map[state.State]step
	entries map[Command]entry
}

// Option customises an Engine.
type Option func(*Engine)

// WithDice replaces the challenge number generator; it must return values in [1,10].
func WithDice(roll func() int) Option {
	return func(e *Engine) {
		if roll != nil {
			e.roll = roll
		}
	}
}

// New builds an Engine over a session store and a tag store.
func New(sessions state.Store, store tags.Store, opts ...Option) *Engine {
	e := &Engine{
		sessions: sessions,
		store:    store,
		roll:     func() int { return rand.IntN(10) + 1 },
		entries: map[Command]entry{
			CommandAdd:    {initial: StateAddWaitingForTag, prompt: msgAskTag},
			CommandRemove: {initial: StateRemoveWaitingForTag, prompt: msgAskRemoveTag},
			CommandEdit:   {initial: StateEditWaitingForTag, prompt: msgAskEditTag},
		},
		steps: map[state.State]step{
			StateAddWaitingForTag:         {run: addTagStep},
			StateAddWaitingForText:        {usesStore: true, run: addTextStep},
			StateRemoveWaitingForTag:      {usesStore: true, run: removeTagStep},
			StateRemoveWaitingForApproval: {usesStore: true, run: removeApprovalStep},
			StateEditWaitingForTag:        {usesStore: true, run: editTagStep},
			StateEditWaitingForText:       {usesStore: true, run: editTextStep},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Commands lists the flow entry commands in menu order.
func (e *Engine) Commands() []Command {
	return []Command{CommandAdd, CommandRemove, CommandEdit}
}

// Begin starts cmd's flow, discarding whatever flow was in progress.
func (e *Engine) Begin(ctx context.Context, cmd Command, in Input) Result {
	start := time.Now()
	en, ok := e.entries[cmd]
	if !ok {
		logger.Warn(ctx, component, "flow.unknown",
			slog.String("status", "skip"),
			slog.String("op", string(cmd)),
		)
		return Result{Outcome: OutcomeIgnored}
	}

	sess := state.Idle()
	sess.State = en.initial
	if err := e.sessions.Set(ctx, in.key(), sess); err != nil {
		return e.fail(ctx, string(cmd), err, start)
	}
	logger.Info(ctx, component, "flow.start",
		slog.String("status", "ok"),
		slog.String("op", string(cmd)),
		slog.String("state", string(en.initial)),
	)
	return Result{Replies: []Reply{{Text: en.prompt}}, Outcome: OutcomeStarted}
}

// InProgress reports whether key has an active flow. Lookup failures count as idle.
func (e *Engine) InProgress(ctx context.Context, key state.Key) bool {
	sess, err := e.sessions.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, component, "session.get",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return false
	}
	return sess.Active()
}

// Handle feeds plain text to the current step. Text arriving with no active
// flow, or in a state without a step, is ignored.
func (e *Engine) Handle(ctx context.Context, in Input) Result {
	start := time.Now()
	sess, err := e.sessions.Get(ctx, in.key())
	if err != nil {
		return e.fail(ctx, "session.get", err, start)
	}
	st, ok := e.steps[sess.State]
	if !ok {
		return Result{Outcome: OutcomeIgnored}
	}

	t := &turn{in: in, sess: sess.Clone()}
	if st.usesStore {
		err = e.store.WithinTx(ctx, func(repo tags.Repository) error {
			return st.run(ctx, e, t, repo)
		})
	} else {
		err = st.run(ctx, e, t, nil)
	}
	if err != nil {
		return e.fail(ctx, string(sess.State), err, start)
	}

	if err := e.sessions.Set(ctx, in.key(), t.sess); err != nil {
		// The store side effect is committed; report it and keep the replies.
		logger.Error(ctx, component, "session.set",
			slog.String("status", "fail"),
			slog.String("state", string(t.sess.State)),
			slog.String("err", err.Error()),
		)
	}

	logger.Info(ctx, component, "step.handled",
		slog.String("status", "ok"),
		slog.String("state", string(sess.State)),
		slog.String("next_state", string(t.sess.State)),
		slog.String("result", string(t.outcome)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return Result{Replies: t.replies, Outcome: t.outcome}
}

// Welcome answers /start and registers the user on first contact.
func (e *Engine) Welcome(ctx context.Context, in Input, botUsername string) Result {
	start := time.Now()
	err := e.store.WithinTx(ctx, func(repo tags.Repository) error {
		_, err := tags.EnsureUser(ctx, repo, in.UserID, in.Username)
		return err
	})
	if err != nil {
		return e.fail(ctx, "start", err, start)
	}
	return Result{Replies: []Reply{{Text: WelcomeMessage(botUsername)}}, Outcome: OutcomeCompleted}
}

func (e *Engine) fail(ctx context.Context, op string, err error, start time.Time) Result {
	logger.Error(ctx, component, "step.failed",
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.String("err", err.Error()),
		slog.String("err_code", errorCode(err)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return Result{Replies: []Reply{{Text: msgFailure}}, Outcome: OutcomeFailed}
}

func errorCode(err error) string {
	var coder interface{ Code() string }
	if errors.As(err, &coder) {
		return strings.ToUpper(coder.Code())
	}
	return "UNKNOWN_ERROR"
}
