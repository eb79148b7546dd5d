package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "reply_counters"

// replyCounters is shared by the wrapped context and the sender workers,
// which may deliver a reply after the handler has returned.
type replyCounters struct {
	messages atomic.Int32
	results  atomic.Int32
}

// countingContext counts successful replies and inline results.
type countingContext struct {
	tele.Context
	counters *replyCounters
}

func (c countingContext) Send(what any, opts ...any) error {
	err := c.Context.Send(what, opts...)
	if err == nil {
		c.counters.messages.Add(1)
	}
	return err
}

func (c countingContext) Reply(what any, opts ...any) error {
	err := c.Context.Reply(what, opts...)
	if err == nil {
		c.counters.messages.Add(1)
	}
	return err
}

func (c countingContext) Answer(resp *tele.QueryResponse) error {
	err := c.Context.Answer(resp)
	if err == nil && resp != nil {
		c.counters.results.Store(int32(len(resp.Results)))
	}
	return err
}

// MessageMetricsMiddleware counts the replies and inline results a handler produces.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		counters := &replyCounters{}
		c.Set(countersKey, counters)
		return next(countingContext{Context: c, counters: counters})
	}
}

// GetCounters reads how many messages were sent and how many inline results were answered.
func GetCounters(c tele.Context) (messages, results int) {
	counters, ok := c.Get(countersKey).(*replyCounters)
	if !ok {
		return 0, 0
	}
	return int(counters.messages.Load()), int(counters.results.Load())
}
