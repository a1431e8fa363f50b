package eventbus

import (
	"encoding/json"
	"time"

	"github.com/xraph/drops/id"
)

// Routing keys for published events.
const (
	KeySubscriptionCreated   = "drops.subscription.created"
	KeySubscriptionStatus    = "drops.subscription.status_changed"
	KeySubscriptionCompleted = "drops.subscription.completed"
	KeyDropPaid              = "drops.drop.paid"
	KeyDropOverdue           = "drops.drop.overdue"
	KeyWalletCreated         = "drops.wallet.created"
	KeyWalletTransaction     = "drops.wallet.transaction"
)

// Event is the envelope written to the broker.
type Event struct {
	ID         id.EventID      `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Subject    string          `json:"subject"`
	Data       json.RawMessage `json:"data"`
}

// StatusChange is the payload of KeySubscriptionStatus.
type StatusChange struct {
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	From           string            `json:"from"`
	To             string            `json:"to"`
}

// DropPayment is the payload of KeyDropPaid.
type DropPayment struct {
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	DropID         id.DropID         `json:"drop_id"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	TransactionRef string            `json:"transaction_ref"`
	DropsPaid      int               `json:"drops_paid"`
	TotalDrops     int               `json:"total_drops"`
}

// Overdue is the payload of KeyDropOverdue.
type Overdue struct {
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	NextDropDate   *time.Time        `json:"next_drop_date,omitempty"`
	OverdueSeconds int64             `json:"overdue_seconds"`
}
