package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/subscription"
)

const now = "2026-03-02T09:00:00Z"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(config{Currency: "ngn", LogLevel: "error"}, strings.NewReader(stdin), &out, io.Discard)
	cmd.SetArgs(append(args, "--now", now))
	err := cmd.Execute()
	return out.String(), err
}

func decode(t *testing.T, doc string) *subscription.Subscription {
	t.Helper()
	var sub subscription.Subscription
	require.NoError(t, json.Unmarshal([]byte(doc), &sub))
	return &sub
}

func TestScheduleCommand(t *testing.T) {
	out, err := run(t, "", "schedule", "--total", "400001", "--drops", "4", "--frequency", "weekly")
	require.NoError(t, err)

	sub := decode(t, out)
	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.Equal(t, "ngn", sub.TotalAmount.Currency)
	require.Len(t, sub.DropSchedule, 4)
	assert.Equal(t, int64(100000), sub.DropSchedule[0].Amount.Amount)
	assert.Equal(t, int64(100001), sub.DropSchedule[3].Amount.Amount)
	require.NotNil(t, sub.NextDropDate)
	assert.True(t, sub.NextDropDate.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
}

func TestScheduleRejectsBadInput(t *testing.T) {
	_, err := run(t, "", "schedule", "--total", "1000", "--drops", "0")
	assert.ErrorIs(t, err, subscription.ErrInvalidSchedule)

	_, err = run(t, "", "schedule", "--total", "1000", "--drops", "2", "--owner", "ord_01h2xcejqtf2nbrexx3vqjhp41")
	assert.Error(t, err)
}

func TestPayTransitionReconcile(t *testing.T) {
	doc, err := run(t, "", "schedule", "--total", "200000", "--drops", "2", "--frequency", "weekly", "--start", "2026-03-02")
	require.NoError(t, err)

	doc, err = run(t, doc, "pay", "--ref", "tx-1", "--amount", "100000")
	require.NoError(t, err)
	sub := decode(t, doc)
	assert.Equal(t, 1, sub.DropsPaid)
	require.NotNil(t, sub.NextDropDate)
	assert.True(t, sub.NextDropDate.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)))

	_, err = run(t, doc, "pay", "--ref", "tx-1", "--amount", "100000")
	assert.ErrorIs(t, err, subscription.ErrDuplicateTransaction)

	paused, err := run(t, doc, "transition", "--to", "paused")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPaused, decode(t, paused).Status)

	_, err = run(t, paused, "pay", "--ref", "tx-2", "--amount", "100000")
	assert.ErrorIs(t, err, subscription.ErrNotPayable)

	_, err = run(t, paused, "transition", "--to", "completed")
	assert.ErrorIs(t, err, subscription.ErrInvalidTransition)

	doc, err = run(t, doc, "pay", "--ref", "tx-2", "--amount", "100000", "--drop-index", "1")
	require.NoError(t, err)
	done := decode(t, doc)
	assert.Equal(t, subscription.StatusCompleted, done.Status)
	assert.True(t, done.IsCompleted)
	assert.Nil(t, done.NextDropDate)
	require.NotNil(t, done.EndDate)

	again, err := run(t, doc, "reconcile")
	require.NoError(t, err)
	assert.True(t, decode(t, again).EndDate.Equal(*done.EndDate))
}

func TestPayWithPaymentID(t *testing.T) {
	doc, err := run(t, "", "schedule", "--total", "200000", "--drops", "2")
	require.NoError(t, err)

	pid := id.NewPaymentID().String()
	paid, err := run(t, doc, "pay", "--payment-id", pid, "--amount", "100000")
	require.NoError(t, err)
	assert.Equal(t, pid, decode(t, paid).DropSchedule[0].TransactionRef)

	_, err = run(t, doc, "pay", "--payment-id", id.NewOrderID().String(), "--amount", "100000")
	assert.Error(t, err)

	_, err = run(t, doc, "pay", "--amount", "100000")
	assert.Error(t, err)
}

func TestReconcileRejectsInvalidDocument(t *testing.T) {
	doc, err := run(t, "", "schedule", "--total", "200000", "--drops", "2")
	require.NoError(t, err)

	sub := decode(t, doc)
	sub.DropsPaid = 5
	broken, err := json.Marshal(sub)
	require.NoError(t, err)

	_, err = run(t, string(broken), "reconcile")
	assert.ErrorIs(t, err, subscription.ErrPrecondition)
}
