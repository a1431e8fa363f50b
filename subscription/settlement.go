package subscription

import (
	"fmt"
	"time"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/types"
)

// Settlement is a payment event for a single drop, as reported by the
// payment processor.
//
// The target drop is chosen by DropID, then DropIndex, then ScheduledDate;
// when none is set the first unpaid drop is settled. PaymentID is the drops
// side identifier of the payment; it becomes the transaction reference when
// the processor supplied none.
type Settlement struct {
	DropID         id.DropID    `json:"drop_id,omitempty"`
	PaymentID      id.PaymentID `json:"payment_id,omitempty"`
	DropIndex      *int         `json:"drop_index,omitempty"`
	ScheduledDate  *time.Time   `json:"scheduled_date,omitempty"`
	Amount         types.Money  `json:"amount"`
	TransactionRef string       `json:"transaction_ref"`
	PaidAt         time.Time    `json:"paid_at"`
}

// ApplySettlement flips the targeted drop to paid and updates DropsPaid and
// AmountPaid. It returns the index of the settled drop. Derived fields are
// not touched; run Reconcile afterwards in the same unit of work.
func ApplySettlement(s *Subscription, st Settlement) (int, error) {
	if s.Status != StatusActive {
		return -1, fmt.Errorf("%w: status is %s", ErrNotPayable, s.Status)
	}
	if st.TransactionRef == "" && !st.PaymentID.IsNil() {
		st.TransactionRef = st.PaymentID.String()
	}
	if st.TransactionRef == "" {
		return -1, fmt.Errorf("%w: empty reference", ErrDuplicateTransaction)
	}
	for i := range s.DropSchedule {
		if s.DropSchedule[i].IsPaid && s.DropSchedule[i].TransactionRef == st.TransactionRef {
			return -1, fmt.Errorf("%w: %q already settled drop %d", ErrDuplicateTransaction, st.TransactionRef, i)
		}
	}

	idx, err := locateDrop(s, st)
	if err != nil {
		return -1, err
	}
	item := &s.DropSchedule[idx]
	if item.IsPaid {
		return -1, fmt.Errorf("%w: drop %d", ErrDropAlreadyPaid, idx)
	}
	if st.Amount.IsNegative() || !st.Amount.SameCurrency(item.Amount) || st.Amount.Amount != item.Amount.Amount {
		return -1, fmt.Errorf("%w: got %s, drop %d expects %s", ErrAmountMismatch, st.Amount, idx, item.Amount)
	}
	if s.DropsPaid >= s.TotalDrops {
		return -1, fmt.Errorf("%w: %d of %d drops already paid", ErrScheduleExhausted, s.DropsPaid, s.TotalDrops)
	}

	paidAt := st.PaidAt.UTC()
	item.IsPaid = true
	item.PaidDate = &paidAt
	item.TransactionRef = st.TransactionRef

	s.DropsPaid++
	s.AmountPaid = types.Money{Amount: s.AmountPaid.Amount + item.Amount.Amount, Currency: s.TotalAmount.Currency}
	return idx, nil
}

func locateDrop(s *Subscription, st Settlement) (int, error) {
	switch {
	case !st.DropID.IsNil():
		for i := range s.DropSchedule {
			if s.DropSchedule[i].ID.String() == st.DropID.String() {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: id %s", ErrDropNotFound, st.DropID)

	case st.DropIndex != nil:
		if *st.DropIndex < 0 || *st.DropIndex >= len(s.DropSchedule) {
			return -1, fmt.Errorf("%w: index %d", ErrDropNotFound, *st.DropIndex)
		}
		return *st.DropIndex, nil

	case st.ScheduledDate != nil:
		for i := range s.DropSchedule {
			if s.DropSchedule[i].ScheduledDate.Equal(*st.ScheduledDate) {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: scheduled %s", ErrDropNotFound, st.ScheduledDate.Format(time.RFC3339))

	default:
		i, ok := s.FirstUnpaid()
		if !ok {
			return -1, ErrScheduleExhausted
		}
		return i, nil
	}
}
