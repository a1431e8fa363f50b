package audithook

// Action constants for audit events.
const (
	// Subscription actions
	ActionSubscriptionCreated   = "subscription.created"
	ActionSubscriptionPaused    = "subscription.paused"
	ActionSubscriptionResumed   = "subscription.resumed"
	ActionSubscriptionCancelled = "subscription.cancelled"
	ActionSubscriptionCompleted = "subscription.completed"

	// Drop actions
	ActionDropPaid    = "drop.paid"
	ActionDropOverdue = "drop.overdue"

	// Wallet actions
	ActionWalletCreated  = "wallet.created"
	ActionWalletCredited = "wallet.credited"
	ActionWalletDebited  = "wallet.debited"
	ActionFundsLocked    = "wallet.funds_locked"
	ActionFundsUnlocked  = "wallet.funds_unlocked"
	ActionFundsCaptured  = "wallet.funds_captured"
)

// Resource constants for audit events.
const (
	ResourceSubscription = "subscription"
	ResourceDrop         = "drop"
	ResourceWallet       = "wallet"
)

// Category constants for audit events.
const (
	CategorySubscription = "subscription"
	CategoryPayment      = "payment"
	CategoryWallet       = "wallet"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
