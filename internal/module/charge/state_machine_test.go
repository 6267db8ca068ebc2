package charge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateMachine_CanTransition(t *testing.T) {
	sm := NewStateMachine()

	statuses := []Status{StatusPending, StatusPaid, StatusExpired, StatusCanceled}
	// PENDING is the only status with outgoing edges; every other pair
	// is rejected, self-transitions included.
	allowed := map[Status]map[Status]bool{
		StatusPending: {StatusPaid: true, StatusExpired: true, StatusCanceled: true},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				assert.Equal(t, allowed[from][to], sm.CanTransition(from, to))
			})
		}
	}

	t.Run("unknown status", func(t *testing.T) {
		assert.False(t, sm.CanTransition(Status("BOGUS"), StatusPaid))
	})
}

func TestStateMachine_Transition(t *testing.T) {
	sm := NewStateMachine()

	t.Run("pending to paid", func(t *testing.T) {
		ch := &Charge{Status: StatusPending}
		assert.NoError(t, sm.Transition(ch, StatusPaid))
		assert.Equal(t, StatusPaid, ch.Status)
	})

	t.Run("paid is terminal", func(t *testing.T) {
		ch := &Charge{Status: StatusPaid}
		err := sm.Transition(ch, StatusCanceled)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusPaid, ch.Status)
	})
}

func TestCharge_ExpiredAt(t *testing.T) {
	expiry := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ch := &Charge{ExpiresAt: expiry}

	assert.False(t, ch.ExpiredAt(expiry.Add(-time.Second)))
	// The boundary instant is still payable
	assert.False(t, ch.ExpiredAt(expiry))
	assert.True(t, ch.ExpiredAt(expiry.Add(time.Second)))
}
