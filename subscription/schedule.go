package subscription

import (
	"fmt"
	"strings"
	"time"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/types"
)

// DateAt returns the due date of drop k (zero-based) for a schedule starting
// at start. Monthly schedules keep the start day and clamp it to the end of
// shorter months, so a schedule starting on Jan 31 falls due on Feb 28/29.
func (f Frequency) DateAt(start time.Time, k int) time.Time {
	switch f {
	case FrequencyDaily:
		return start.AddDate(0, 0, k)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*k)
	case FrequencyBiweekly:
		return start.AddDate(0, 0, 14*k)
	case FrequencyMonthly:
		return addMonthsClamped(start, k)
	default:
		return start
	}
}

// Next returns the due date one step after t.
func (f Frequency) Next(t time.Time) time.Time {
	return f.DateAt(t, 1)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return firstOfTarget.AddDate(0, 0, d-1)
}

// ScheduleParams describes a schedule to generate.
type ScheduleParams struct {
	StartDate   time.Time
	Frequency   Frequency
	TotalAmount types.Money
	TotalDrops  int
	// Products are delivered with the final drop.
	Products []id.ProductID
}

// BuildSchedule splits TotalAmount into TotalDrops drops in integer minor
// units. Every drop carries TotalAmount/TotalDrops and the final drop also
// absorbs the remainder, so the amounts always sum to TotalAmount.
func BuildSchedule(p ScheduleParams) ([]DropScheduleItem, error) {
	switch {
	case p.TotalDrops < 1:
		return nil, fmt.Errorf("%w: total drops must be at least 1", ErrInvalidSchedule)
	case !p.Frequency.IsValid():
		return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidSchedule, p.Frequency)
	case p.TotalAmount.IsNegative():
		return nil, fmt.Errorf("%w: negative total amount", ErrInvalidSchedule)
	case p.StartDate.IsZero():
		return nil, fmt.Errorf("%w: missing start date", ErrInvalidSchedule)
	}

	per, last := p.TotalAmount.Split(p.TotalDrops)

	items := make([]DropScheduleItem, p.TotalDrops)
	for k := range items {
		amount := per
		if k == len(items)-1 {
			amount = last
		}
		items[k] = DropScheduleItem{
			ID:            id.NewDropID(),
			ScheduledDate: p.Frequency.DateAt(p.StartDate, k),
			Amount:        amount,
		}
		if k < len(items)-1 {
			hint := p.Frequency.DateAt(p.StartDate, k+1)
			items[k].NextDropDate = &hint
		}
	}
	if len(p.Products) > 0 {
		items[len(items)-1].Products = append([]id.ProductID(nil), p.Products...)
	}
	return items, nil
}

// NewParams describes a subscription to enroll.
type NewParams struct {
	Owner       id.AccountID
	Order       id.OrderID
	PaymentPlan PaymentPlan
	Frequency   Frequency
	TotalAmount types.Money
	TotalDrops  int
	StartDate   time.Time
	Products    []id.ProductID
	Metadata    map[string]string
}

// New builds an active subscription with a fully populated schedule and
// reconciled derived fields.
func New(p NewParams, now time.Time) (*Subscription, error) {
	p.TotalAmount.Currency = strings.ToLower(p.TotalAmount.Currency)
	start := p.StartDate
	if start.IsZero() {
		start = now.UTC()
	}

	schedule, err := BuildSchedule(ScheduleParams{
		StartDate:   start,
		Frequency:   p.Frequency,
		TotalAmount: p.TotalAmount,
		TotalDrops:  p.TotalDrops,
		Products:    p.Products,
	})
	if err != nil {
		return nil, err
	}

	s := &Subscription{
		Entity:       types.NewEntity(),
		ID:           id.NewSubscriptionID(),
		Owner:        p.Owner,
		Order:        p.Order,
		PaymentPlan:  p.PaymentPlan,
		TotalAmount:  p.TotalAmount,
		DropAmount:   schedule[0].Amount,
		Frequency:    p.Frequency,
		TotalDrops:   p.TotalDrops,
		AmountPaid:   types.Zero(p.TotalAmount.Currency),
		DropSchedule: schedule,
		Status:       StatusActive,
		StartDate:    start,
		Metadata:     p.Metadata,
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return Reconcile(s, now), nil
}
