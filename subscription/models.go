// Package subscription holds the installment subscription model and the
// lifecycle rules that keep its derived fields in step with payment facts.
package subscription

import (
	"time"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/types"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition out of s is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentPlan is fixed at creation.
type PaymentPlan string

const (
	PlanPaySmallSmall PaymentPlan = "pay_small_small"
	PlanPriceLock     PaymentPlan = "price_lock"
)

// IsValid reports whether p is a known payment plan.
func (p PaymentPlan) IsValid() bool {
	return p == PlanPaySmallSmall || p == PlanPriceLock
}

// Frequency is the cadence of scheduled drops.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// IsValid reports whether f is a known frequency.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// DropScheduleItem is one installment. Items have no identity outside their
// parent; the ID only exists so payment events can address them.
type DropScheduleItem struct {
	ID             id.DropID      `json:"id"`
	ScheduledDate  time.Time      `json:"scheduled_date"`
	NextDropDate   *time.Time     `json:"next_drop_date,omitempty"`
	Products       []id.ProductID `json:"products,omitempty"`
	Amount         types.Money    `json:"amount"`
	IsPaid         bool           `json:"is_paid"`
	PaidDate       *time.Time     `json:"paid_date,omitempty"`
	TransactionRef string         `json:"transaction_ref,omitempty"`
}

// Subscription is an order enrolled in installment payment.
//
// DropsPaid, AmountPaid and the IsPaid flags are payment facts owned by the
// caller. IsCompleted, NextDropDate, EndDate and the automatic move to
// StatusCompleted are derived by Reconcile.
type Subscription struct {
	types.Entity
	ID           id.SubscriptionID  `json:"id"`
	Owner        id.AccountID       `json:"owner"`
	Order        id.OrderID         `json:"order"`
	PaymentPlan  PaymentPlan        `json:"payment_plan"`
	TotalAmount  types.Money        `json:"total_amount"`
	DropAmount   types.Money        `json:"drop_amount"`
	Frequency    Frequency          `json:"frequency"`
	TotalDrops   int                `json:"total_drops"`
	DropsPaid    int                `json:"drops_paid"`
	AmountPaid   types.Money        `json:"amount_paid"`
	DropSchedule []DropScheduleItem `json:"drop_schedule"`
	NextDropDate *time.Time         `json:"next_drop_date,omitempty"`
	Status       Status             `json:"status"`
	IsCompleted  bool               `json:"is_completed"`
	StartDate    time.Time          `json:"start_date"`
	EndDate      *time.Time         `json:"end_date,omitempty"`
	PausedAt     *time.Time         `json:"paused_at,omitempty"`
	CancelledAt  *time.Time         `json:"cancelled_at,omitempty"`
	Version      int64              `json:"version"`
	Metadata     map[string]string  `json:"metadata,omitempty"`
}

// Outstanding returns the amount still owed.
func (s *Subscription) Outstanding() types.Money {
	return types.Money{Amount: s.TotalAmount.Amount - s.AmountPaid.Amount, Currency: s.TotalAmount.Currency}
}

// FirstUnpaid returns the index of the chronologically first unpaid drop.
func (s *Subscription) FirstUnpaid() (int, bool) {
	for i := range s.DropSchedule {
		if !s.DropSchedule[i].IsPaid {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	c.NextDropDate = cloneTime(s.NextDropDate)
	c.EndDate = cloneTime(s.EndDate)
	c.PausedAt = cloneTime(s.PausedAt)
	c.CancelledAt = cloneTime(s.CancelledAt)

	if s.DropSchedule != nil {
		c.DropSchedule = make([]DropScheduleItem, len(s.DropSchedule))
		for i, item := range s.DropSchedule {
			item.NextDropDate = cloneTime(item.NextDropDate)
			item.PaidDate = cloneTime(item.PaidDate)
			if item.Products != nil {
				item.Products = append([]id.ProductID(nil), item.Products...)
			}
			c.DropSchedule[i] = item
		}
	}
	if s.Metadata != nil {
		c.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
