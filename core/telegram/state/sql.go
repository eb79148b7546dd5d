package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	qGetSession = `SELECT state, data FROM dialog_sessions WHERE user_id = ? AND chat_id = ?`
	qSetSession = `INSERT INTO dialog_sessions (user_id, chat_id, state, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, chat_id) DO UPDATE
		SET state = excluded.state, data = excluded.data, updated_at = excluded.updated_at`
	qClearSession = `DELETE FROM dialog_sessions WHERE user_id = ? AND chat_id = ?`
)

type sqlStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLStore keeps sessions in the dialog_sessions table so several bot
// processes can serve the same users.
func NewSQLStore(db *sqlx.DB) Store {
	return &sqlStore{db: db, now: time.Now}
}

type sessionRow struct {
	State string `db:"state"`
	Data  string `db:"data"`
}

func (s *sqlStore) Get(ctx context.Context, key Key) (Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(qGetSession), key.UserID, key.ChatID)
	if errors.Is(err, sql.ErrNoRows) {
		return Idle(), nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("state: get session: %w", err)
	}
	sess := Session{State: State(row.State), Data: map[string]string{}}
	if row.Data != "" {
		if err := json.Unmarshal([]byte(row.Data), &sess.Data); err != nil {
			return Session{}, fmt.Errorf("state: decode session data: %w", err)
		}
	}
	return sess, nil
}

func (s *sqlStore) Set(ctx context.Context, key Key, sess Session) error {
	if !sess.Active() {
		return s.Clear(ctx, key)
	}
	data := sess.Data
	if data == nil {
		data = map[string]string{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("state: encode session data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(qSetSession),
		key.UserID, key.ChatID, string(sess.State), string(raw), s.now().UTC())
	if err != nil {
		return fmt.Errorf("state: set session: %w", err)
	}
	return nil
}

func (s *sqlStore) Clear(ctx context.Context, key Key) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(qClearSession), key.UserID, key.ChatID); err != nil {
		return fmt.Errorf("state: clear session: %w", err)
	}
	return nil
}
