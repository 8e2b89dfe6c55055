// Package notifications delivers run events via ntfy.
//
// The default implementation publishes to the ntfy topic configured in
// config.toml and degrades to a no-op when no topic is set. Per-event toggles
// let operators keep error alerts while muting completion messages.
package notifications
