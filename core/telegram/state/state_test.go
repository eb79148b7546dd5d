package state

import (
	"context"
	"testing"

	"github.com/m3rciful/tagbot/internal/sqltest"
)

func storeCases(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sql":    NewSQLStore(sqltest.Open(t)),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, st := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key{UserID: 1, ChatID: 10}

			got, err := st.Get(ctx, key)
			if err != nil {
				t.Fatalf("get empty: %v", err)
			}
			if got.Active() || got.State != StateIdle {
				t.Fatalf("expected idle session, got %+v", got)
			}

			sess := Idle()
			sess.State = "add.waiting_for_text"
			sess.SetTemp("tag", "hello")
			sess.SetTempInt("sum", 10)
			if err := st.Set(ctx, key, sess); err != nil {
				t.Fatalf("set: %v", err)
			}

			got, err = st.Get(ctx, key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.State != "add.waiting_for_text" {
				t.Fatalf("state = %s", got.State)
			}
			if v, _ := got.Temp("tag"); v != "hello" {
				t.Fatalf("tag = %q", v)
			}
			if n, ok := got.TempInt("sum"); !ok || n != 10 {
				t.Fatalf("sum = %d (%v)", n, ok)
			}

			// other chats of the same user are independent
			other, err := st.Get(ctx, Key{UserID: 1, ChatID: 11})
			if err != nil {
				t.Fatalf("get other: %v", err)
			}
			if other.Active() {
				t.Fatalf("expected idle session in another chat, got %+v", other)
			}

			sess.State = "remove.waiting_for_tag"
			sess.Data = map[string]string{}
			if err := st.Set(ctx, key, sess); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, _ = st.Get(ctx, key)
			if _, ok := got.Temp("tag"); ok || got.State != "remove.waiting_for_tag" {
				t.Fatalf("overwrite kept stale data: %+v", got)
			}

			if err := st.Clear(ctx, key); err != nil {
				t.Fatalf("clear: %v", err)
			}
			got, _ = st.Get(ctx, key)
			if got.Active() {
				t.Fatalf("expected idle after clear, got %+v", got)
			}
		})
	}
}

func TestStoreSetIdleClears(t *testing.T) {
	for name, st := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key{UserID: 2, ChatID: 2}
			active := Session{State: "edit.waiting_for_text", Data: map[string]string{"tag": "x"}}
			if err := st.Set(ctx, key, active); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := st.Set(ctx, key, Idle()); err != nil {
				t.Fatalf("set idle: %v", err)
			}
			got, _ := st.Get(ctx, key)
			if got.Active() || len(got.Data) != 0 {
				t.Fatalf("expected cleared session, got %+v", got)
			}
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	key := Key{UserID: 3}
	sess := Session{State: "add.waiting_for_tag", Data: map[string]string{}}
	_ = st.Set(ctx, key, sess)

	got, _ := st.Get(ctx, key)
	got.SetTemp("tag", "mutated")

	again, _ := st.Get(ctx, key)
	if _, ok := again.Temp("tag"); ok {
		t.Fatalf("stored session was mutated through a returned copy")
	}
}

func TestTempIntInvalid(t *testing.T) {
	s := Idle()
	s.SetTemp("n", "abc")
	if _, ok := s.TempInt("n"); ok {
		t.Fatalf("expected parse failure")
	}
	if _, ok := s.TempInt("missing"); ok {
		t.Fatalf("expected missing key")
	}
}
