package logger

import (
	"strings"
	"time"
)

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

var knownStatus = map[string]bool{
	"ok": true, "fail": true, "skip": true, "retry": true, "rate_limited": true, "cancelled": true,
}

var knownOutcome = map[string]bool{
	"ok": true, "fail": true, "cancelled": true, "rate_limited": true,
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// defaultKeyOrder puts correlation keys first; unknown keys follow sorted.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "handler",
	"op", "outcome", "duration_ms", "messages", "kb",
	"state", "next_state", "result", "tag", "query", "results", "rows",
	"username", "lang", "payload", "mode", "listen", "public_url", "http_code",
	"db", "host", "port",
	"err", "err_code", "retryable", "attempts", "backoff_ms",
	"collapsed", "repeats", "pending_count",
}

// RoundMS rounds d to whole milliseconds; negative durations become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins up to limit values and reports whether any were cut.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}
