package subscription

import "time"

// transitions lists the explicit status changes a caller may request.
// Completion is never requested; Reconcile performs it.
var transitions = map[Status][]Status{
	StatusActive: {StatusPaused, StatusCancelled},
	StatusPaused: {StatusActive, StatusCancelled},
}

// CanTransition reports whether an explicit change from one status to another
// is allowed.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RequestStatusChange applies an explicit status change. On rejection it
// returns an *InvalidTransitionError and leaves s untouched.
func RequestStatusChange(s *Subscription, target Status, now time.Time) error {
	if !CanTransition(s.Status, target) {
		return &InvalidTransitionError{From: s.Status, To: target}
	}

	at := now.UTC()
	switch target {
	case StatusPaused:
		s.PausedAt = &at
	case StatusActive:
		s.PausedAt = nil
	case StatusCancelled:
		s.CancelledAt = &at
	}
	s.Status = target
	return nil
}

// Reconcile recomputes IsCompleted, Status, EndDate and NextDropDate from
// DropsPaid, TotalDrops and the schedule. It never touches payment facts,
// performs no I/O and is idempotent: a second call with the same record and
// any later now yields the same result.
//
// Callers must run it after mutating payment facts and before persisting.
func Reconcile(s *Subscription, now time.Time) *Subscription {
	s.IsCompleted = s.DropsPaid >= s.TotalDrops

	if s.IsCompleted && s.Status == StatusActive {
		s.Status = StatusCompleted
	}
	if s.IsCompleted && s.Status == StatusCompleted && s.EndDate == nil {
		end := now.UTC()
		s.EndDate = &end
	}

	s.NextDropDate = nil
	if s.IsCompleted {
		return s
	}
	if i, ok := s.FirstUnpaid(); ok {
		next := s.DropSchedule[i].ScheduledDate
		s.NextDropDate = &next
	}
	return s
}
