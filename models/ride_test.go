package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	allowed := map[RideStatus][]RideStatus{
		RidePending:  {RideAccepted, RideCanceled},
		RideAccepted: {RideActive, RideCanceled},
		RideActive:   {RideFinished},
		RideFinished: {},
		RideCanceled: {},
	}

	all := []RideStatus{RidePending, RideAccepted, RideActive, RideFinished, RideCanceled}
	for from, targets := range allowed {
		allowedSet := make(map[RideStatus]bool)
		for _, to := range targets {
			allowedSet[to] = true
		}
		for _, to := range all {
			assert.Equal(t, allowedSet[to], from.CanTransitionTo(to),
				"%s → %s", from, to)
		}
	}
}

func TestRideRecipients(t *testing.T) {
	ride := &Ride{PassengerIDs: []string{"p-1", "p-2"}}
	assert.Equal(t, []string{"p-1", "p-2"}, ride.Recipients())

	ride.DriverID = "d-1"
	assert.Equal(t, []string{"d-1", "p-1", "p-2"}, ride.Recipients())
}

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"admin", "driver", "passenger"} {
		role, err := ParseRole(raw)
		assert.NoError(t, err)
		assert.Equal(t, Role(raw), role)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)

	_, err = ParseRole("")
	assert.Error(t, err)
}
