package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/types"
)

func TestValidateAcceptsFixtures(t *testing.T) {
	for paid := 0; paid <= 4; paid++ {
		assert.NoError(t, subscription.Validate(fixture(paid, subscription.StatusActive)), "paid=%d", paid)
	}
	assert.NoError(t, subscription.Validate(fixture(2, subscription.StatusPaused)))
	assert.NoError(t, subscription.Validate(fixture(0, subscription.StatusCancelled)))
}

func TestValidateViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *subscription.Subscription)
		field  string
	}{
		{"missing owner", func(s *subscription.Subscription) { s.Owner = id.Nil }, "owner"},
		{"missing order", func(s *subscription.Subscription) { s.Order = id.Nil }, "order"},
		{"unknown plan", func(s *subscription.Subscription) { s.PaymentPlan = "layaway" }, "payment_plan"},
		{"unknown frequency", func(s *subscription.Subscription) { s.Frequency = "hourly" }, "frequency"},
		{"unknown status", func(s *subscription.Subscription) { s.Status = "archived" }, "status"},
		{"zero drops", func(s *subscription.Subscription) { s.TotalDrops = 0 }, "total_drops"},
		{"drops paid over total", func(s *subscription.Subscription) { s.DropsPaid = 5 }, "drops_paid"},
		{"negative drops paid", func(s *subscription.Subscription) { s.DropsPaid = -1 }, "drops_paid"},
		{"negative total", func(s *subscription.Subscription) { s.TotalAmount = types.NGN(-1) }, "amount"},
		{"currency mismatch", func(s *subscription.Subscription) { s.DropAmount = types.KES(100000) }, "amount"},
		{"unordered schedule", func(s *subscription.Subscription) {
			s.DropSchedule[3].ScheduledDate = d1.Add(-time.Hour)
		}, "drop_schedule"},
		{"paid drop without reference", func(s *subscription.Subscription) { s.DropSchedule[0].TransactionRef = "" }, "drop_schedule"},
		{"duplicate reference", func(s *subscription.Subscription) {
			s.DropSchedule[1].TransactionRef = s.DropSchedule[0].TransactionRef
		}, "drop_schedule"},
		{"paid count drift", func(s *subscription.Subscription) { s.DropsPaid = 1 }, "drops_paid"},
		{"amount paid drift", func(s *subscription.Subscription) { s.AmountPaid = types.NGN(1) }, "amount_paid"},
		{"completed but unpaid", func(s *subscription.Subscription) { s.Status = subscription.StatusCompleted }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fixture(2, subscription.StatusActive)
			tt.mutate(s)

			err := subscription.Validate(s)
			var pe *subscription.PreconditionError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Field)
			assert.ErrorIs(t, err, subscription.ErrPrecondition)
		})
	}
}

func TestValidateRejectsFullyPaidPausedOrCancelled(t *testing.T) {
	for _, status := range []subscription.Status{subscription.StatusPaused, subscription.StatusCancelled} {
		s := fixture(4, status)
		err := subscription.Validate(s)
		assert.ErrorIs(t, err, subscription.ErrPrecondition, "status=%s", status)
	}
}
