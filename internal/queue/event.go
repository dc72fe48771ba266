// Package queue defines the account events exchanged over the message
// broker and the consumer that turns them into an audit log.
package queue

import "time"

// Event types published on the user events queue.
const (
	EventRegistered      = "user.registered"
	EventLoggedIn        = "user.logged_in"
	EventLoggedOut       = "user.logged_out"
	EventTokenRefreshed  = "user.token_refreshed"
	EventTokenReuse      = "user.token_reuse"
	EventPasswordChanged = "user.password_changed"
)

// UserEvent is published whenever an account's session state changes.  It
// carries enough to audit the change without querying the database; it
// never carries a token or a password.
type UserEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"userId"`
	Username string    `json:"username,omitempty"`
	At       time.Time `json:"at"`
}
