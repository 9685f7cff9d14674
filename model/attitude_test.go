package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttitudeLatticeIsMonotonic(t *testing.T) {
	// Every attitude that reveals a stricter tier must reveal all weaker ones.
	all := []Attitude{
		AttitudeIsObserver, AttitudeUnknown, AttitudeNeutral, AttitudeWary,
		AttitudeReceptive, AttitudeCordial, AttitudeFriendly, AttitudeProtective,
		AttitudeUnfriendly, AttitudeRival, AttitudeHostile, AttitudeDomineering,
		AttitudeThreatened, AttitudeOverlord, AttitudeLoyal, AttitudeDisloyal,
		AttitudeDismissive, AttitudePatronizing, AttitudeAngry, AttitudeArrogant,
		AttitudeImperious, AttitudeBelligerent, AttitudeCustodial,
		AttitudeEnigmatic, AttitudeBerserk, AttitudeOther,
	}
	for _, a := range all {
		if a.RevealsMilitaryInfo() {
			assert.True(t, a.RevealsTechnologyInfo(), "%s", a)
		}
		if a.RevealsTechnologyInfo() {
			assert.True(t, a.RevealsEconomyInfo(), "%s", a)
		}
		if a.RevealsEconomyInfo() {
			assert.True(t, a.RevealsDemographicInfo(), "%s", a)
		}
	}
}

func TestAttitudeTiers(t *testing.T) {
	assert.True(t, AttitudeIsObserver.RevealsMilitaryInfo())
	assert.True(t, AttitudeFriendly.RevealsMilitaryInfo())
	assert.False(t, AttitudeProtective.RevealsMilitaryInfo())
	assert.True(t, AttitudeProtective.RevealsTechnologyInfo())
	assert.True(t, AttitudeCordial.RevealsEconomyInfo())
	assert.False(t, AttitudeCordial.RevealsMilitaryInfo())
	assert.True(t, AttitudeNeutral.RevealsDemographicInfo())
	assert.False(t, AttitudeNeutral.RevealsEconomyInfo())
	assert.False(t, AttitudeHostile.RevealsDemographicInfo())
}

func TestParseAttitude(t *testing.T) {
	assert.Equal(t, AttitudeWary, ParseAttitude("wary"))
	assert.Equal(t, AttitudeOther, ParseAttitude("brand_new_attitude"))
	assert.False(t, AttitudeUnknown.IsKnown())
	assert.False(t, Attitude("").IsKnown())
	assert.True(t, AttitudeNeutral.IsKnown())
}
