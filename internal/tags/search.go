package tags

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/tagbot/core/logger"
)

const (
	// MaxResults is the inline answer limit imposed by Telegram.
	MaxResults = 50
	// DescriptionLen is the number of text characters shown under a result title.
	DescriptionLen  = 47
	descriptionTail = "..."
)

// Result is one inline answer entry.
type Result struct {
	ID          string
	Title       string
	Description string
	Text        string
}

// Filter narrows tags, in load order, for query:
// an exact name match wins, an empty query keeps everything,
// otherwise tags whose text contains query are kept.
func Filter(list []Tag, query string) []Tag {
	var out []Tag
	switch {
	case hasName(list, query):
		for _, t := range list {
			if t.Name == query {
				out = append(out, t)
			}
		}
	case query == "":
		out = append(out, list...)
	default:
		for _, t := range list {
			if strings.Contains(t.Text, query) {
				out = append(out, t)
			}
		}
	}
	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out
}

func hasName(list []Tag, name string) bool {
	for _, t := range list {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Describe converts a tag into an inline result.
func Describe(t Tag) Result {
	desc := t.Text
	if r := []rune(desc); len(r) > DescriptionLen {
		desc = string(r[:DescriptionLen])
	}
	return Result{
		ID:          strconv.FormatInt(t.ID, 10),
		Title:       t.Name,
		Description: desc + descriptionTail,
		Text:        t.Text,
	}
}

// Search loads userID's tags in one unit of work and returns the inline results for query.
func Search(ctx context.Context, store Store, userID int64, query string) ([]Result, error) {
	var all []Tag
	err := store.WithinTx(ctx, func(repo Repository) error {
		var err error
		all, err = repo.FindTagsByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	matched := Filter(all, query)
	results := make([]Result, 0, len(matched))
	for _, t := range matched {
		results = append(results, Describe(t))
	}
	logger.Debug(ctx, "service.search", "search.done",
		slog.Int64("user_id", userID),
		slog.Int("tags_total", len(all)),
		slog.Int("count", len(results)),
	)
	return results, nil
}
