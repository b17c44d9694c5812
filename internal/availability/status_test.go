package availability

import (
	"errors"
	"testing"
)

func TestInitialStatus(t *testing.T) {
	t.Parallel()

	if got := InitialStatus(true); got != StatusApproved {
		t.Fatalf("administrators should start approved, got %s", got)
	}
	if got := InitialStatus(false); got != StatusPending {
		t.Fatalf("students should start pending, got %s", got)
	}
}

func TestTransition(t *testing.T) {
	t.Parallel()

	statuses := []Status{StatusPending, StatusApproved, StatusRejected}
	allowed := map[[2]Status]bool{
		{StatusPending, StatusApproved}: true,
		{StatusPending, StatusRejected}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			err := Transition(from, to)
			if allowed[[2]Status{from, to}] {
				if err != nil {
					t.Fatalf("%s -> %s should be allowed, got %v", from, to, err)
				}
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s -> %s should be rejected, got %v", from, to, err)
			}
		}
	}

	if err := Transition(StatusPending, Status("cancelled")); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown target status should be rejected, got %v", err)
	}
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	if !StatusPending.Valid() || !StatusApproved.Valid() || !StatusRejected.Valid() {
		t.Fatal("known statuses must be valid")
	}
	if Status("").Valid() || Status("done").Valid() {
		t.Fatal("unknown statuses must be invalid")
	}
}
