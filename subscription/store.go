package subscription

import (
	"context"
	"time"

	"github.com/xraph/drops/id"
)

// Store persists subscriptions. Update must compare Version against the
// stored record and increment it, failing on mismatch.
type Store interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, subID id.SubscriptionID) (*Subscription, error)
	GetByOrder(ctx context.Context, orderID id.OrderID) (*Subscription, error)
	List(ctx context.Context, owner id.AccountID, opts ListOpts) ([]*Subscription, error)
	ListDue(ctx context.Context, before time.Time, limit int) ([]*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
