package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/tagbot/core/logger"
	"github.com/m3rciful/tagbot/internal/tags"
)

const (
	qFindUser      = `SELECT id, user_id, username FROM users WHERE user_id = ?`
	qCreateUser    = `INSERT INTO users (user_id, username) VALUES (?, ?) RETURNING id`
	qTagsByUser    = `SELECT id, user_id, tag, text FROM tags WHERE user_id = ? ORDER BY id`
	qCreateTag     = `INSERT INTO tags (user_id, tag, text) VALUES (?, ?, ?) RETURNING id`
	qTagsByName    = `SELECT id, user_id, tag, text FROM tags WHERE user_id = ? AND tag = ? ORDER BY id`
	qDeleteByName  = `DELETE FROM tags WHERE user_id = ? AND tag = ?`
	qUpdateTagText = `UPDATE tags SET text = ? WHERE id = ?`
)

type repo struct {
	q sqlx.ExtContext
}

var _ tags.Repository = (*repo)(nil)

func (r *repo) FindUser(ctx context.Context, userID int64) (tags.User, error) {
	var u tags.User
	err := sqlx.GetContext(ctx, r.q, &u, r.q.Rebind(qFindUser), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return tags.User{}, tags.ErrNotFound
	}
	if err != nil {
		return tags.User{}, unavailable("find user", err)
	}
	return u, nil
}

func (r *repo) CreateUser(ctx context.Context, userID int64, username string) (tags.User, error) {
	u := tags.User{
		UserID:   userID,
		Username: sql.NullString{String: username, Valid: username != ""},
	}
	if err := r.q.QueryRowxContext(ctx, r.q.Rebind(qCreateUser), u.UserID, u.Username).Scan(&u.ID); err != nil {
		return tags.User{}, unavailable("create user", err)
	}
	logger.Info(ctx, component, "user.created",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
	)
	return u, nil
}

func (r *repo) FindTagsByUser(ctx context.Context, userID int64) ([]tags.Tag, error) {
	var list []tags.Tag
	if err := sqlx.SelectContext(ctx, r.q, &list, r.q.Rebind(qTagsByUser), userID); err != nil {
		return nil, unavailable("tags by user", err)
	}
	return list, nil
}

func (r *repo) CreateTag(ctx context.Context, user tags.User, name, text string) (tags.Tag, error) {
	t := tags.Tag{UserID: user.UserID, Name: name, Text: text}
	if err := r.q.QueryRowxContext(ctx, r.q.Rebind(qCreateTag), t.UserID, t.Name, t.Text).Scan(&t.ID); err != nil {
		return tags.Tag{}, unavailable("create tag", err)
	}
	logger.Info(ctx, component, "tag.created",
		slog.String("status", "ok"),
		slog.Int64("tag_id", t.ID),
		slog.Int64("user_id", t.UserID),
	)
	return t, nil
}

func (r *repo) FindTagsByName(ctx context.Context, userID int64, name string) ([]tags.Tag, error) {
	var list []tags.Tag
	if err := sqlx.SelectContext(ctx, r.q, &list, r.q.Rebind(qTagsByName), userID, name); err != nil {
		return nil, unavailable("tags by name", err)
	}
	return list, nil
}

// DeleteTagsByName removes every tag called name that belongs to userID.
func (r *repo) DeleteTagsByName(ctx context.Context, userID int64, name string) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(qDeleteByName), userID, name)
	if err != nil {
		return 0, unavailable("delete tags", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("delete tags", err)
	}
	logger.Info(ctx, component, "tag.deleted",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("count", n),
	)
	return n, nil
}

func (r *repo) UpdateTagText(ctx context.Context, t tags.Tag, text string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(qUpdateTagText), text, t.ID)
	if err != nil {
		return unavailable("update tag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("update tag", err)
	}
	if n == 0 {
		return tags.ErrNotFound
	}
	logger.Info(ctx, component, "tag.updated",
		slog.String("status", "ok"),
		slog.Int64("tag_id", t.ID),
	)
	return nil
}
