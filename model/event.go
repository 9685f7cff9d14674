package model

// EventKind identifies the category of a historical event. Continuous facts
// (office holders, ownership, research leads) extend their end date while the
// subject is unchanged; momentary kinds are written once and never extended.
type EventKind string

const (
	// Tied to a specific leader
	EventRuledEmpire     EventKind = "ruled_empire"
	EventFactionLeader   EventKind = "faction_leader"
	EventResearchLeader  EventKind = "research_leader"
	EventLeaderRecruited EventKind = "leader_recruited"
	EventLeaderDied      EventKind = "leader_died"
	EventLevelUp         EventKind = "level_up"
	EventGainedTrait     EventKind = "gained_trait"
	EventLostTrait       EventKind = "lost_trait"

	// Empire progress
	EventResearchedTechnology EventKind = "researched_technology"
	EventTradition            EventKind = "tradition"
	EventAscensionPerk        EventKind = "ascension_perk"
	EventEdict                EventKind = "edict"
	EventExpandedToSystem     EventKind = "expanded_to_system"

	// Planets
	EventColonization      EventKind = "colonization"
	EventCapitalRelocation EventKind = "capital_relocation"
	EventPlanetDestroyed   EventKind = "planet_destroyed"

	// Internal politics
	EventNewFaction       EventKind = "new_faction"
	EventGovernmentReform EventKind = "government_reform"

	// War
	EventWar             EventKind = "war"
	EventPeace           EventKind = "peace"
	EventFleetCombat     EventKind = "fleet_combat"
	EventArmyCombat      EventKind = "army_combat"
	EventConqueredSystem EventKind = "conquered_system"
	EventLostSystem      EventKind = "lost_system"
)

// WarOutcome describes how a war ended, if it has.
type WarOutcome string

const (
	WarOutcomeInProgress        WarOutcome = "in_progress"
	WarOutcomeTruce             WarOutcome = "truce"
	WarOutcomeResolutionUnknown WarOutcome = "resolution_unknown"
)

// CombatType distinguishes fleet battles from ground invasions.
type CombatType string

const (
	CombatTypeShips  CombatType = "ships"
	CombatTypeArmies CombatType = "armies"
	CombatTypeOther  CombatType = "other"
)

// ParseCombatType maps the source's battle type string to a CombatType.
func ParseCombatType(raw string) CombatType {
	switch raw {
	case "ships":
		return CombatTypeShips
	case "armies":
		return CombatTypeArmies
	}
	return CombatTypeOther
}

// HistoricalEvent is one append-only interval record. StartDateDays is always
// set; EndDateDays is nil while the condition is ongoing (or for momentary
// events that have no duration beyond their start). KnownToObserver may be
// widened to true on later snapshots but is never narrowed.
type HistoricalEvent struct {
	ID              int64
	SnapshotID      int64
	Kind            EventKind
	CountryID       *int64
	TargetCountryID *int64
	LeaderID        *int64
	SystemID        *int64
	PlanetID        *int64
	WarID           *int64
	FactionID       *int64
	CombatID        *int64
	DescriptionID   *int64
	StartDateDays   int
	EndDateDays     *int
	KnownToObserver bool

	// Description carries the joined description text on reads; writes go
	// through DescriptionID.
	Description string
}

// Open reports whether the event interval is still ongoing.
func (e *HistoricalEvent) Open() bool {
	return e.EndDateDays == nil
}
