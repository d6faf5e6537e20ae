package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHierarchy(t *testing.T) {
	assert.True(t, RideHistory().HasPrefix(Rides()))
	assert.True(t, ActiveRide().HasPrefix(Rides()))
	assert.True(t, RideDetail("r1").HasPrefix(Rides()))
	assert.True(t, AuthUser().HasPrefix(Auth()))
	assert.True(t, AuthStatus().HasPrefix(Auth()))
	assert.Equal(t, "auth/status", AuthStatus().String())
	assert.True(t, OnboardingStatus().HasPrefix(Onboarding()))
	assert.True(t, ModelsOf("m1").HasPrefix(Models()))
	assert.False(t, ModelsOf("m1").HasPrefix(Manufacturers()))
	assert.Equal(t, "rides/detail/r1", RideDetail("r1").String())
}
