package booking

var sequences = map[Kind][]Status{
	KindRoom:       {StatusPendingPayment, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCompleted},
	KindRestaurant: {StatusPendingPayment, StatusConfirmed, StatusCompleted},
	KindSpa:        {StatusPendingPayment, StatusConfirmed, StatusCompleted},
}

func position(k Kind, s Status) int {
	for i, st := range sequences[k] {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a status known to any lifecycle.
func (s Status) Valid() bool {
	return s == StatusCancelled || position(KindRoom, s) >= 0
}

// Cancellable reports whether a booking in s can still be cancelled.
func (s Status) Cancellable() bool {
	switch s {
	case StatusCheckedOut, StatusCompleted, StatusCancelled:
		return false
	}
	return true
}

// CheckTransition validates moving a booking of kind k from one status to another.
// Forward moves advance along the kind's sequence; only skipAllowed callers may jump steps.
func CheckTransition(k Kind, from, to Status, skipAllowed bool) error {
	if from == to {
		return ErrNoOpTransition
	}
	if to == StatusCancelled {
		if !from.Cancellable() {
			return ErrIllegalTransition
		}
		return nil
	}

	fi, ti := position(k, from), position(k, to)
	if fi < 0 || ti < 0 || ti <= fi {
		return ErrIllegalTransition
	}
	if ti != fi+1 && !skipAllowed {
		return ErrIllegalTransition
	}
	return nil
}

// Reschedulable reports whether the interval of a booking in s may still change.
func (s Status) Reschedulable() bool {
	return s == StatusPendingPayment || s == StatusConfirmed
}
