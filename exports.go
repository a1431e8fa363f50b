package drops

import (
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/types"
	"github.com/xraph/drops/wallet"
)

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Subscription is re-exported from the subscription package.
type Subscription = subscription.Subscription

// Settlement is re-exported from the subscription package.
type Settlement = subscription.Settlement

// Wallet is re-exported from the wallet package.
type Wallet = wallet.Wallet

// Re-export Money constructors
var (
	NGN  = types.NGN
	KES  = types.KES
	GHS  = types.GHS
	USD  = types.USD
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
