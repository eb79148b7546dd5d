package format

import "html"

// EscapeHTML escapes text for Telegram's HTML parse mode.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// Code wraps text in a monospace <code> entity.
func Code(text string) string {
	return "<code>" + EscapeHTML(text) + "</code>"
}
