package model

// Attitude is the diplomatic stance of a country toward the observer, as
// reported by the source's AI state. Attitudes form a monotonic disclosure
// lattice: each Reveals* predicate implies all weaker ones, so a stricter
// attitude never discloses less. AttitudeIsObserver marks the observer's own
// country and discloses everything.
type Attitude string

const (
	AttitudeIsObserver Attitude = "is_observer"

	AttitudeUnknown     Attitude = "unknown"
	AttitudeNeutral     Attitude = "neutral"
	AttitudeWary        Attitude = "wary"
	AttitudeReceptive   Attitude = "receptive"
	AttitudeCordial     Attitude = "cordial"
	AttitudeFriendly    Attitude = "friendly"
	AttitudeProtective  Attitude = "protective"
	AttitudeUnfriendly  Attitude = "unfriendly"
	AttitudeRival       Attitude = "rival"
	AttitudeHostile     Attitude = "hostile"
	AttitudeDomineering Attitude = "domineering"
	AttitudeThreatened  Attitude = "threatened"
	AttitudeOverlord    Attitude = "overlord"
	AttitudeLoyal       Attitude = "loyal"
	AttitudeDisloyal    Attitude = "disloyal"
	AttitudeDismissive  Attitude = "dismissive"
	AttitudePatronizing Attitude = "patronizing"
	AttitudeAngry       Attitude = "angry"
	AttitudeArrogant    Attitude = "arrogant"
	AttitudeImperious   Attitude = "imperious"
	AttitudeBelligerent Attitude = "belligerent"
	AttitudeCustodial   Attitude = "custodial"
	AttitudeEnigmatic   Attitude = "enigmatic"
	AttitudeBerserk     Attitude = "berserk"

	AttitudeOther Attitude = "other"
)

var knownAttitudes = map[Attitude]bool{
	AttitudeIsObserver: true,
	AttitudeUnknown:    true, AttitudeNeutral: true, AttitudeWary: true,
	AttitudeReceptive: true, AttitudeCordial: true, AttitudeFriendly: true,
	AttitudeProtective: true, AttitudeUnfriendly: true, AttitudeRival: true,
	AttitudeHostile: true, AttitudeDomineering: true, AttitudeThreatened: true,
	AttitudeOverlord: true, AttitudeLoyal: true, AttitudeDisloyal: true,
	AttitudeDismissive: true, AttitudePatronizing: true, AttitudeAngry: true,
	AttitudeArrogant: true, AttitudeImperious: true, AttitudeBelligerent: true,
	AttitudeCustodial: true, AttitudeEnigmatic: true, AttitudeBerserk: true,
}

// ParseAttitude maps a raw source attitude string to an Attitude,
// collapsing unrecognized values to AttitudeOther.
func ParseAttitude(raw string) Attitude {
	a := Attitude(raw)
	if knownAttitudes[a] {
		return a
	}
	return AttitudeOther
}

// RevealsMilitaryInfo reports whether this attitude discloses military state.
func (a Attitude) RevealsMilitaryInfo() bool {
	switch a {
	case AttitudeFriendly, AttitudeLoyal, AttitudeDisloyal, AttitudeOverlord, AttitudeIsObserver:
		return true
	}
	return false
}

// RevealsTechnologyInfo reports whether this attitude discloses research state.
func (a Attitude) RevealsTechnologyInfo() bool {
	if a.RevealsMilitaryInfo() {
		return true
	}
	return a == AttitudeProtective || a == AttitudeDisloyal
}

// RevealsEconomyInfo reports whether this attitude discloses budgets and
// internal development.
func (a Attitude) RevealsEconomyInfo() bool {
	if a.RevealsTechnologyInfo() {
		return true
	}
	return a == AttitudeCordial || a == AttitudeReceptive
}

// RevealsDemographicInfo reports whether this attitude discloses population
// details.
func (a Attitude) RevealsDemographicInfo() bool {
	if a.RevealsEconomyInfo() {
		return true
	}
	return a == AttitudeNeutral || a == AttitudeWary
}

// IsKnown reports whether the two parties have made contact at all.
func (a Attitude) IsKnown() bool {
	return a != AttitudeUnknown && a != ""
}
