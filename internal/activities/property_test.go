package activities

import (
	"errors"
	"testing"

	apperrors "mergington-activities/internal/common/errors"

	"pgregory.net/rapid"
)

func seededName(t *rapid.T) string {
	names := NewDefault().List().Order
	return rapid.SampledFrom(names).Draw(t, "activity")
}

func emailGen() *rapid.Generator[string] {
	return rapid.StringMatching(`[a-z]{0,8}(@[a-z]{1,6}\.edu)?`)
}

// A second signup of the same pair always conflicts and leaves one copy.
func TestProperty_SignupUniqueness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewDefault()
		name := seededName(t)
		email := emailGen().Draw(t, "email")

		a, _ := r.Get(name)
		wasMember := indexOf(a.Participants, email) >= 0

		_, err := r.Signup(name, email)
		if wasMember {
			if !errors.Is(err, apperrors.ErrConflict) {
				t.Fatalf("expected conflict for existing member, got %v", err)
			}
		} else if err != nil {
			t.Fatalf("first signup failed: %v", err)
		}

		if _, err := r.Signup(name, email); !errors.Is(err, apperrors.ErrConflict) {
			t.Fatalf("repeat signup: expected conflict, got %v", err)
		}

		a, _ = r.Get(name)
		count := 0
		for _, p := range a.Participants {
			if p == email {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("%q appears %d times", email, count)
		}
	})
}

// Unregister of a non-member conflicts and changes nothing.
func TestProperty_UnregisterRequiresMembership(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewDefault()
		name := seededName(t)
		email := rapid.StringMatching(`nobody[0-9]{1,4}@x\.edu`).Draw(t, "email")

		before, _ := r.Get(name)
		if _, err := r.Unregister(name, email); !errors.Is(err, apperrors.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		after, _ := r.Get(name)
		if !equalStrings(before.Participants, after.Participants) {
			t.Fatalf("participants changed: %v -> %v", before.Participants, after.Participants)
		}
	})
}

// Signup followed by unregister restores the original sequence, in order,
// even with other signups interleaved before the pair.
func TestProperty_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewDefault()
		name := seededName(t)

		noise := rapid.SliceOfDistinct(rapid.StringMatching(`noise[0-9]{1,3}@x\.edu`), rapid.ID[string]).Draw(t, "noise")
		for _, n := range noise {
			if _, err := r.Signup(name, n); err != nil {
				t.Fatalf("noise signup: %v", err)
			}
		}

		before, _ := r.Get(name)
		email := rapid.StringMatching(`fresh[0-9]{1,4}@y\.edu`).Draw(t, "email")

		if _, err := r.Signup(name, email); err != nil {
			t.Fatalf("signup: %v", err)
		}
		if _, err := r.Unregister(name, email); err != nil {
			t.Fatalf("unregister: %v", err)
		}

		after, _ := r.Get(name)
		if !equalStrings(before.Participants, after.Participants) {
			t.Fatalf("round trip changed participants: %v -> %v", before.Participants, after.Participants)
		}
	})
}

// Any name outside the seed is NotFound for both operations and the
// registry stays as it was.
func TestProperty_UnknownActivity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewDefault()
		name := rapid.String().Draw(t, "name")
		if _, ok := r.Get(name); ok {
			t.Skip("drew a seeded name")
		}
		email := emailGen().Draw(t, "email")

		before := r.List()
		if _, err := r.Signup(name, email); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("signup: expected not found, got %v", err)
		}
		if _, err := r.Unregister(name, email); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("unregister: expected not found, got %v", err)
		}
		after := r.List()
		for _, n := range before.Order {
			if !equalStrings(before.Activities[n].Participants, after.Activities[n].Participants) {
				t.Fatalf("activity %q changed", n)
			}
		}
	})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
