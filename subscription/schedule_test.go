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

func TestBuildScheduleSplitsAmount(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		drops int
		per   int64
		last  int64
	}{
		{"even split", 400000, 4, 100000, 100000},
		{"remainder on last drop", 100000, 3, 33333, 33334},
		{"single drop", 5000, 1, 5000, 5000},
		{"zero total", 0, 2, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := subscription.BuildSchedule(subscription.ScheduleParams{
				StartDate:   d1,
				Frequency:   subscription.FrequencyWeekly,
				TotalAmount: types.NGN(tt.total),
				TotalDrops:  tt.drops,
			})
			require.NoError(t, err)
			require.Len(t, items, tt.drops)

			var sum int64
			for i, item := range items {
				sum += item.Amount.Amount
				assert.Equal(t, "ngn", item.Amount.Currency)
				assert.False(t, item.IsPaid)
				assert.False(t, item.ID.IsNil())
				if i < len(items)-1 {
					assert.Equal(t, tt.per, item.Amount.Amount)
				}
			}
			assert.Equal(t, tt.last, items[len(items)-1].Amount.Amount)
			assert.Equal(t, tt.total, sum)
		})
	}
}

func TestBuildScheduleDates(t *testing.T) {
	tests := []struct {
		freq  subscription.Frequency
		start time.Time
		want  []time.Time
	}{
		{
			subscription.FrequencyDaily, d1,
			[]time.Time{d1, d1.AddDate(0, 0, 1), d1.AddDate(0, 0, 2)},
		},
		{
			subscription.FrequencyWeekly, d1,
			[]time.Time{d1, d2, d3},
		},
		{
			subscription.FrequencyBiweekly, d1,
			[]time.Time{d1, d3, d1.AddDate(0, 0, 28)},
		},
		{
			subscription.FrequencyMonthly,
			time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			[]time.Time{
				time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
				time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
				time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			items, err := subscription.BuildSchedule(subscription.ScheduleParams{
				StartDate:   tt.start,
				Frequency:   tt.freq,
				TotalAmount: types.NGN(3000),
				TotalDrops:  len(tt.want),
			})
			require.NoError(t, err)
			for i, item := range items {
				assert.True(t, item.ScheduledDate.Equal(tt.want[i]), "drop %d: got %s want %s", i, item.ScheduledDate, tt.want[i])
				if i < len(items)-1 {
					require.NotNil(t, item.NextDropDate)
					assert.True(t, item.NextDropDate.Equal(tt.want[i+1]))
				} else {
					assert.Nil(t, item.NextDropDate)
				}
			}
		})
	}
}

func TestBuildScheduleProductsOnFinalDrop(t *testing.T) {
	products := []id.ProductID{id.NewProductID(), id.NewProductID()}
	items, err := subscription.BuildSchedule(subscription.ScheduleParams{
		StartDate:   d1,
		Frequency:   subscription.FrequencyMonthly,
		TotalAmount: types.KES(90000),
		TotalDrops:  3,
		Products:    products,
	})
	require.NoError(t, err)

	assert.Empty(t, items[0].Products)
	assert.Empty(t, items[1].Products)
	assert.Equal(t, products, items[2].Products)
}

func TestBuildScheduleRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		p    subscription.ScheduleParams
	}{
		{"zero drops", subscription.ScheduleParams{StartDate: d1, Frequency: subscription.FrequencyDaily, TotalAmount: types.NGN(100)}},
		{"unknown frequency", subscription.ScheduleParams{StartDate: d1, Frequency: "yearly", TotalAmount: types.NGN(100), TotalDrops: 2}},
		{"negative total", subscription.ScheduleParams{StartDate: d1, Frequency: subscription.FrequencyDaily, TotalAmount: types.NGN(-1), TotalDrops: 2}},
		{"missing start", subscription.ScheduleParams{Frequency: subscription.FrequencyDaily, TotalAmount: types.NGN(100), TotalDrops: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := subscription.BuildSchedule(tt.p)
			assert.ErrorIs(t, err, subscription.ErrInvalidSchedule)
		})
	}
}

func TestNewSubscription(t *testing.T) {
	s, err := subscription.New(subscription.NewParams{
		Owner:       id.NewAccountID(),
		Order:       id.NewOrderID(),
		PaymentPlan: subscription.PlanPriceLock,
		Frequency:   subscription.FrequencyWeekly,
		TotalAmount: types.NGN(100000),
		TotalDrops:  3,
		StartDate:   d1,
	}, now)
	require.NoError(t, err)

	assert.Equal(t, subscription.StatusActive, s.Status)
	assert.False(t, s.IsCompleted)
	assert.Equal(t, 0, s.DropsPaid)
	assert.Equal(t, types.NGN(0), s.AmountPaid)
	assert.Equal(t, types.NGN(33333), s.DropAmount)
	assert.Len(t, s.DropSchedule, 3)
	require.NotNil(t, s.NextDropDate)
	assert.True(t, s.NextDropDate.Equal(d1))
	assert.Equal(t, types.NGN(100000), s.Outstanding())
	assert.NoError(t, subscription.Validate(s))
}

func TestNewSubscriptionRequiresReferences(t *testing.T) {
	_, err := subscription.New(subscription.NewParams{
		Order:       id.NewOrderID(),
		PaymentPlan: subscription.PlanPaySmallSmall,
		Frequency:   subscription.FrequencyDaily,
		TotalAmount: types.NGN(1000),
		TotalDrops:  2,
	}, now)

	var pe *subscription.PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "owner", pe.Field)
}
