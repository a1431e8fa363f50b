package types

import "time"

// Entity carries the creation and last-write timestamps shared by
// subscriptions, wallets and wallet transactions.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity stamps both timestamps with the current UTC time.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{CreatedAt: now, UpdatedAt: now}
}

// Touch moves UpdatedAt to now. Stores call it on every successful write.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}
