package state

import (
	"context"
	"maps"
	"strconv"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Key scopes a session to one user inside one chat.
type Key struct {
	UserID int64
	ChatID int64
}

// Session stores conversation state and temporary data for a user.
type Session struct {
	State State
	Data  map[string]string
}

// Idle returns an empty session.
func Idle() Session {
	return Session{State: StateIdle, Data: map[string]string{}}
}

// Active reports whether a flow is in progress.
func (s Session) Active() bool {
	return s.State != "" && s.State != StateIdle
}

// Clone returns a deep copy so callers can mutate it freely.
func (s Session) Clone() Session {
	out := Session{State: s.State, Data: make(map[string]string, len(s.Data))}
	maps.Copy(out.Data, s.Data)
	return out
}

// SetTemp stores a temporary value.
func (s *Session) SetTemp(key, value string) {
	if s.Data == nil {
		s.Data = map[string]string{}
	}
	s.Data[key] = value
}

// Temp returns a temporary value.
func (s Session) Temp(key string) (string, bool) {
	v, ok := s.Data[key]
	return v, ok
}

// SetTempInt stores an integer temporary value.
func (s *Session) SetTempInt(key string, value int) {
	s.SetTemp(key, strconv.Itoa(value))
}

// TempInt returns a temporary value parsed as int.
func (s Session) TempInt(key string) (int, bool) {
	v, ok := s.Data[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Store persists sessions between updates.
// Get returns an idle session when none is stored.
type Store interface {
	Get(ctx context.Context, key Key) (Session, error)
	Set(ctx context.Context, key Key, s Session) error
	Clear(ctx context.Context, key Key) error
}
