package model

// Series is the root unit of isolation: one named, independent history.
// All entities and events below belong to exactly one series.
type Series struct {
	ID                  int64
	Name                string
	ObserverCountryName string
	LastSnapshotDays    int
	SnapshotCount       int
}

// Snapshot records one imported observation of the simulation state.
type Snapshot struct {
	ID       int64
	SeriesID int64
	DateDays int
}

// Country is a long-lived polity entity.
type Country struct {
	ID                           int64
	InGameID                     int64
	Name                         string
	CountryType                  string
	IsObserver                   bool
	IsOtherPlayer                bool
	FirstContactWithObserverDays *int
	CapitalPlanetID              *int64
	RulerLeaderID                *int64
}

// IsRealCountry reports whether the country is a playable polity rather than
// a marauder camp, enclave, or other pseudo-country.
func (c *Country) IsRealCountry() bool {
	switch c.CountryType {
	case "default", "fallen_empire", "awakened_fallen_empire":
		return true
	}
	return false
}

// HasMetObserver reports whether this country and the observer have made
// contact. Events whose subjects have never met the observer stay hidden.
func (c *Country) HasMetObserver() bool {
	return c.IsObserver || c.FirstContactWithObserverDays != nil
}

// System is a star system entity.
type System struct {
	ID           int64
	InGameID     int64
	Name         string
	OriginalName string
	X            float64
	Y            float64
}

// SystemOwnership is one interval of a system being held by a country.
// At most one interval per system is open at a time.
type SystemOwnership struct {
	ID            int64
	SystemID      int64
	CountryID     int64
	StartDateDays int
	EndDateDays   *int
}

// Planet is a planetary body entity.
type Planet struct {
	ID            int64
	InGameID      int64
	SystemID      *int64
	Name          string
	PlanetClass   string
	ColonizedDays *int
}

// Leader is a named character entity. Traits hold the leader's current
// non-subclass traits sorted alphabetically, so trait gains and losses can be
// detected by comparing against the next snapshot.
type Leader struct {
	ID            int64
	InGameID      int64
	CountryID     *int64
	SpeciesID     *int64
	Name          string
	Class         string
	Subclass      string
	Gender        string
	Traits        []string
	Level         int
	DateHiredDays int
	DateBornDays  int
	LastSeenDays  int
	IsActive      bool
}

// Species is a population species entity.
type Species struct {
	ID        int64
	InGameID  int64
	Name      string
	Archetype string
}

// Faction is an internal political faction entity. Synthetic factions with
// negative in-game ids group pops that cannot hold faction membership.
type Faction struct {
	ID        int64
	InGameID  int64
	CountryID int64
	Name      string
	Type      string
}

// War is a war entity spanning multiple snapshots.
type War struct {
	ID                    int64
	InGameID              int64
	Name                  string
	StartDateDays         int
	EndDateDays           *int
	Outcome               WarOutcome
	AttackerWarExhaustion float64
	DefenderWarExhaustion float64
}

// WarParticipant links a country to a war it fights in.
type WarParticipant struct {
	ID              int64
	WarID           int64
	CountryID       int64
	CallerCountryID *int64
	CallType        string
	WarGoal         string
	IsAttacker      bool
}

// Combat is one battle within a war.
type Combat struct {
	ID                    int64
	WarID                 int64
	SystemID              *int64
	PlanetID              *int64
	DateDays              int
	Type                  CombatType
	AttackerVictory       bool
	AttackerWarExhaustion float64
	DefenderWarExhaustion float64
}

// Government is one interval of a country's government configuration.
// Any change to name, type, ethics or civics closes the interval and opens
// a new one.
type Government struct {
	ID            int64
	CountryID     int64
	StartDateDays int
	EndDateDays   *int
	Name          string
	Type          string
	Authority     string
	Personality   string
	Ethics        []string
	Civics        []string
}

// Technology tracks per-country research: an entry is created when a
// technology first shows up in a research queue and flipped to completed when
// it reaches the finished list. Identity keys are never reused.
type Technology struct {
	ID          int64
	CountryID   int64
	Name        string
	IsCompleted bool
}
