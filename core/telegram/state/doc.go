// Package state keeps per-conversation dialog sessions for Telegram bots.
// Sessions are keyed by user and chat and live outside the relational model;
// the backing Store is injected so tests use memory and multi-process
// deployments share a SQL table.
package state
