package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/types"
)

func TestNextDropDateOrdersNumerically(t *testing.T) {
	// As RFC 3339 text "…:00.5Z" sorts after "…:00.25Z" and "…:00Z" sorts
	// after both, the reverse of their chronological order.
	whole := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	quarter := whole.Add(250 * time.Millisecond)
	half := whole.Add(500 * time.Millisecond)

	assert.Less(t, *unixMillis(&whole), *unixMillis(&quarter))
	assert.Less(t, *unixMillis(&quarter), *unixMillis(&half))
	assert.Nil(t, unixMillis(nil))
}

func TestSubscriptionModelRoundTripKeepsNextDropDate(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 123456789, time.UTC)
	sub, err := subscription.New(subscription.NewParams{
		Owner:       id.NewAccountID(),
		Order:       id.NewOrderID(),
		PaymentPlan: subscription.PlanPaySmallSmall,
		Frequency:   subscription.FrequencyWeekly,
		TotalAmount: types.NGN(300000),
		TotalDrops:  3,
		StartDate:   start,
	}, start)
	require.NoError(t, err)
	require.NotNil(t, sub.NextDropDate)

	m, err := toSubscriptionModel(sub)
	require.NoError(t, err)
	require.NotNil(t, m.NextDropDate)
	assert.Equal(t, start.UnixMilli(), *m.NextDropDate)

	back, err := fromSubscriptionModel(m)
	require.NoError(t, err)
	require.NotNil(t, back.NextDropDate)
	assert.True(t, back.NextDropDate.Equal(*sub.NextDropDate))
}

func TestFromUnixMillisWithoutScheduleMatch(t *testing.T) {
	at := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	ms := at.UnixMilli()

	got := fromUnixMillis(&ms, nil)
	require.NotNil(t, got)
	assert.True(t, got.Equal(at))
	assert.Nil(t, fromUnixMillis(nil, nil))
}
