package subscription_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/types"
)

var (
	d1  = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	d2  = d1.AddDate(0, 0, 7)
	d3  = d1.AddDate(0, 0, 14)
	d4  = d1.AddDate(0, 0, 21)
	now = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
)

// fixture returns a weekly four-drop subscription with the first paid drops
// already flipped.
func fixture(paid int, status subscription.Status) *subscription.Subscription {
	dates := []time.Time{d1, d2, d3, d4}
	s := &subscription.Subscription{
		ID:          id.NewSubscriptionID(),
		Owner:       id.NewAccountID(),
		Order:       id.NewOrderID(),
		PaymentPlan: subscription.PlanPaySmallSmall,
		TotalAmount: types.NGN(400000),
		DropAmount:  types.NGN(100000),
		Frequency:   subscription.FrequencyWeekly,
		TotalDrops:  4,
		AmountPaid:  types.NGN(0),
		Status:      status,
		StartDate:   d1,
	}
	for i, d := range dates {
		item := subscription.DropScheduleItem{
			ID:            id.NewDropID(),
			ScheduledDate: d,
			Amount:        types.NGN(100000),
		}
		if i < paid {
			paidAt := d
			item.IsPaid = true
			item.PaidDate = &paidAt
			item.TransactionRef = "tx-" + d.Format("0102")
			s.DropsPaid++
			s.AmountPaid = s.AmountPaid.Add(item.Amount)
		}
		s.DropSchedule = append(s.DropSchedule, item)
	}
	return s
}

func TestReconcileScenarioA_CompletesActiveSubscription(t *testing.T) {
	s := fixture(4, subscription.StatusActive)
	require.NoError(t, subscription.Validate(s))

	subscription.Reconcile(s, now)

	assert.True(t, s.IsCompleted)
	assert.Equal(t, subscription.StatusCompleted, s.Status)
	require.NotNil(t, s.EndDate)
	assert.True(t, s.EndDate.Equal(now))
	assert.Nil(t, s.NextDropDate)
}

func TestReconcileScenarioB_NextDropIsFirstUnpaid(t *testing.T) {
	s := fixture(2, subscription.StatusActive)
	require.NoError(t, subscription.Validate(s))

	subscription.Reconcile(s, now)

	assert.False(t, s.IsCompleted)
	assert.Equal(t, subscription.StatusActive, s.Status)
	require.NotNil(t, s.NextDropDate)
	assert.True(t, s.NextDropDate.Equal(d3))
	assert.Nil(t, s.EndDate)
}

func TestRequestStatusChangeScenarioC_PausedToCompletedRejected(t *testing.T) {
	s := fixture(2, subscription.StatusPaused)
	before := s.Clone()

	err := subscription.RequestStatusChange(s, subscription.StatusCompleted, now)

	var ite *subscription.InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, subscription.StatusPaused, ite.From)
	assert.Equal(t, subscription.StatusCompleted, ite.To)
	assert.True(t, errors.Is(err, subscription.ErrInvalidTransition))
	assert.Equal(t, before, s)
}

func TestReconcileScenarioD_EndDateNotOverwritten(t *testing.T) {
	s := fixture(4, subscription.StatusActive)
	t0 := time.Date(2026, 1, 26, 9, 0, 0, 0, time.UTC)
	subscription.Reconcile(s, t0)
	require.Equal(t, subscription.StatusCompleted, s.Status)

	subscription.Reconcile(s, now)

	require.NotNil(t, s.EndDate)
	assert.True(t, s.EndDate.Equal(t0))
}

func TestReconcileIsIdempotent(t *testing.T) {
	for paid := 0; paid <= 4; paid++ {
		s := fixture(paid, subscription.StatusActive)
		once := subscription.Reconcile(s.Clone(), now)
		twice := subscription.Reconcile(subscription.Reconcile(s.Clone(), now), now.Add(time.Hour))
		assert.Equal(t, once, twice, "paid=%d", paid)
	}
}

func TestReconcileDerivedFieldProperties(t *testing.T) {
	statuses := []subscription.Status{subscription.StatusActive, subscription.StatusPaused, subscription.StatusCancelled}
	for _, status := range statuses {
		for paid := 0; paid <= 4; paid++ {
			s := fixture(paid, status)
			if subscription.Validate(s) != nil {
				continue
			}
			subscription.Reconcile(s, now)

			assert.Equal(t, s.DropsPaid >= s.TotalDrops, s.IsCompleted)
			if s.IsCompleted {
				assert.Nil(t, s.NextDropDate)
				assert.NotNil(t, s.EndDate)
				continue
			}
			i, ok := s.FirstUnpaid()
			require.True(t, ok)
			require.NotNil(t, s.NextDropDate)
			assert.True(t, s.NextDropDate.Equal(s.DropSchedule[i].ScheduledDate))
		}
	}
}

func TestReconcileDoesNotTouchPaymentFacts(t *testing.T) {
	s := fixture(3, subscription.StatusActive)
	before := s.Clone()

	subscription.Reconcile(s, now)

	assert.Equal(t, before.DropsPaid, s.DropsPaid)
	assert.Equal(t, before.AmountPaid, s.AmountPaid)
	assert.Equal(t, before.DropSchedule, s.DropSchedule)
}

func TestReconcileExhaustedScheduleLeavesNextDropUnset(t *testing.T) {
	s := fixture(2, subscription.StatusActive)
	s.DropSchedule = s.DropSchedule[:2]

	subscription.Reconcile(s, now)

	assert.False(t, s.IsCompleted)
	assert.Nil(t, s.NextDropDate)
}

func TestReconcileOnlyAutoCompletesFromActive(t *testing.T) {
	s := fixture(4, subscription.StatusActive)
	s.Status = subscription.StatusCancelled

	subscription.Reconcile(s, now)

	assert.True(t, s.IsCompleted)
	assert.Equal(t, subscription.StatusCancelled, s.Status)
	assert.Nil(t, s.EndDate)
	assert.Nil(t, s.NextDropDate)
}

func TestStatusTransitionTable(t *testing.T) {
	all := []subscription.Status{
		subscription.StatusActive,
		subscription.StatusPaused,
		subscription.StatusCompleted,
		subscription.StatusCancelled,
	}
	allowed := map[[2]subscription.Status]bool{
		{subscription.StatusActive, subscription.StatusPaused}:    true,
		{subscription.StatusPaused, subscription.StatusActive}:    true,
		{subscription.StatusActive, subscription.StatusCancelled}: true,
		{subscription.StatusPaused, subscription.StatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				s := fixture(1, from)
				before := s.Clone()

				err := subscription.RequestStatusChange(s, to, now)

				if allowed[[2]subscription.Status{from, to}] {
					require.NoError(t, err)
					assert.Equal(t, to, s.Status)
					return
				}
				assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
				assert.Equal(t, before, s)
			})
		}
	}
}

func TestRequestStatusChangeStampsTimes(t *testing.T) {
	s := fixture(1, subscription.StatusActive)

	require.NoError(t, subscription.RequestStatusChange(s, subscription.StatusPaused, now))
	require.NotNil(t, s.PausedAt)

	require.NoError(t, subscription.RequestStatusChange(s, subscription.StatusActive, now))
	assert.Nil(t, s.PausedAt)

	require.NoError(t, subscription.RequestStatusChange(s, subscription.StatusCancelled, now))
	require.NotNil(t, s.CancelledAt)
	assert.True(t, s.CancelledAt.Equal(now))
	assert.True(t, s.Status.IsTerminal())
}
