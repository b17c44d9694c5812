package availability

// InitialStatus returns the status a new booking starts in. Administrators
// book directly into approved; everyone else waits for review.
func InitialStatus(isAdmin bool) Status {
	if isAdmin {
		return StatusApproved
	}
	return StatusPending
}

// Transition validates a status change. Only pending bookings can move, and
// only to approved or rejected.
func Transition(from, to Status) error {
	if from != StatusPending {
		return ErrInvalidTransition
	}
	switch to {
	case StatusApproved, StatusRejected:
		return nil
	}
	return ErrInvalidTransition
}
