package subscription

// Validate checks the invariants Reconcile relies on and returns the first
// violation as a *PreconditionError. Reconcile must not be called on a record
// that fails validation.
func Validate(s *Subscription) error {
	if s.Owner.IsNil() {
		return violation("owner", "missing account reference")
	}
	if s.Order.IsNil() {
		return violation("order", "missing order reference")
	}
	if !s.PaymentPlan.IsValid() {
		return violation("payment_plan", "unknown plan %q", s.PaymentPlan)
	}
	if !s.Frequency.IsValid() {
		return violation("frequency", "unknown frequency %q", s.Frequency)
	}
	if !s.Status.IsValid() {
		return violation("status", "unknown status %q", s.Status)
	}
	if s.TotalDrops < 1 {
		return violation("total_drops", "must be at least 1, got %d", s.TotalDrops)
	}
	if s.DropsPaid < 0 || s.DropsPaid > s.TotalDrops {
		return violation("drops_paid", "%d outside [0, %d]", s.DropsPaid, s.TotalDrops)
	}
	if s.TotalAmount.IsNegative() || s.DropAmount.IsNegative() || s.AmountPaid.IsNegative() {
		return violation("amount", "monetary totals must not be negative")
	}
	if !s.DropAmount.SameCurrency(s.TotalAmount) || !s.AmountPaid.SameCurrency(s.TotalAmount) {
		return violation("amount", "currency mismatch with total %q", s.TotalAmount.Currency)
	}

	paid := 0
	var paidSum int64
	refs := make(map[string]int, s.DropsPaid)
	for i, item := range s.DropSchedule {
		if item.Amount.IsNegative() {
			return violation("drop_schedule", "drop %d has negative amount", i)
		}
		if !item.Amount.SameCurrency(s.TotalAmount) {
			return violation("drop_schedule", "drop %d currency %q differs from total", i, item.Amount.Currency)
		}
		if i > 0 && item.ScheduledDate.Before(s.DropSchedule[i-1].ScheduledDate) {
			return violation("drop_schedule", "drop %d is scheduled before drop %d", i, i-1)
		}
		if !item.IsPaid {
			continue
		}
		if item.PaidDate == nil || item.TransactionRef == "" {
			return violation("drop_schedule", "paid drop %d lacks paid date or transaction reference", i)
		}
		if prev, dup := refs[item.TransactionRef]; dup {
			return violation("drop_schedule", "transaction %q settles drops %d and %d", item.TransactionRef, prev, i)
		}
		refs[item.TransactionRef] = i
		paid++
		paidSum += item.Amount.Amount
	}

	if paid != s.DropsPaid {
		return violation("drops_paid", "%d recorded but %d drops are paid", s.DropsPaid, paid)
	}
	if paidSum != s.AmountPaid.Amount {
		return violation("amount_paid", "%d recorded but paid drops sum to %d", s.AmountPaid.Amount, paidSum)
	}

	fullyPaid := s.DropsPaid >= s.TotalDrops
	if s.Status == StatusCompleted && !fullyPaid {
		return violation("status", "completed with %d of %d drops paid", s.DropsPaid, s.TotalDrops)
	}
	if fullyPaid && (s.Status == StatusPaused || s.Status == StatusCancelled) {
		return violation("status", "%s subscription cannot hold a fully paid schedule", s.Status)
	}
	return nil
}
