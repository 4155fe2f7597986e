package entity

import "time"

// Subscriber is one registered email address in the `subscribers` table.
// Rows are insert-only: there is no update path and no unsubscribe flow.
type Subscriber struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	SubscribedAt time.Time `db:"subscribed_at" json:"subscribed_at"`
}
