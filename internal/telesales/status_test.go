package telesales

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusDraft, StatusConfirmed},
		{StatusDraft, StatusCancelled},
	}
	for _, c := range allowed {
		if !CanTransition(c.from, c.to) {
			t.Errorf("expected %s -> %s to be allowed", c.from, c.to)
		}
	}

	forbidden := []struct{ from, to Status }{
		{StatusConfirmed, StatusDraft},
		{StatusConfirmed, StatusCancelled},
		{StatusCancelled, StatusDraft},
		{StatusCancelled, StatusConfirmed},
		{StatusDraft, StatusDraft},
	}
	for _, c := range forbidden {
		if CanTransition(c.from, c.to) {
			t.Errorf("expected %s -> %s to be forbidden", c.from, c.to)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusConfirmed, StatusCancelled} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("SHIPPED").Valid() {
		t.Errorf("unknown status should not be valid")
	}
}
