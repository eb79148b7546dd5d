// Package tags holds the snippet domain: users, their tags, the rules a tag
// must satisfy and the inline search over a user's tags.
package tags

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a user or tag lookup has no match.
var ErrNotFound = errors.New("tags: not found")

// User is a Telegram account that owns tags.
type User struct {
	ID       int64          `db:"id"`
	UserID   int64          `db:"user_id"`
	Username sql.NullString `db:"username"`
}

// Tag is a named text snippet owned by a single user.
type Tag struct {
	ID     int64  `db:"id"`
	UserID int64  `db:"user_id"`
	Name   string `db:"tag"`
	Text   string `db:"text"`
}

// Repository is the persistence contract used by dialog flows and search.
// Implementations are scoped to one unit of work.
type Repository interface {
	FindUser(ctx context.Context, userID int64) (User, error)
	CreateUser(ctx context.Context, userID int64, username string) (User, error)
	FindTagsByUser(ctx context.Context, userID int64) ([]Tag, error)
	CreateTag(ctx context.Context, user User, name, text string) (Tag, error)
	FindTagsByName(ctx context.Context, userID int64, name string) ([]Tag, error)
	DeleteTagsByName(ctx context.Context, userID int64, name string) (int64, error)
	UpdateTagText(ctx context.Context, tag Tag, text string) error
}

// Store opens a unit of work that lasts for a single update.
// fn's repository must not be retained after fn returns.
type Store interface {
	WithinTx(ctx context.Context, fn func(repo Repository) error) error
}

// EnsureUser returns the user row for userID, creating it on first use.
func EnsureUser(ctx context.Context, repo Repository, userID int64, username string) (User, error) {
	u, err := repo.FindUser(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	return repo.CreateUser(ctx, userID, username)
}

// FirstByName returns the oldest tag of userID named name.
func FirstByName(ctx context.Context, repo Repository, userID int64, name string) (Tag, error) {
	list, err := repo.FindTagsByName(ctx, userID, name)
	if err != nil {
		return Tag{}, err
	}
	if len(list) == 0 {
		return Tag{}, ErrNotFound
	}
	return list[0], nil
}
