package model

// CountryData is the per-(country, snapshot) point-in-time record: aggregate
// power and economy metrics plus the diplomatic state toward the observer.
// Written once per snapshot and never mutated afterwards.
type CountryData struct {
	ID         int64
	CountryID  int64
	SnapshotID int64

	MilitaryPower     float64
	FleetSize         float64
	TechCount         int
	EmpireSize        int
	OwnedPlanets      int
	ControlledSystems int
	EconomyPower      float64
	VictoryRank       int
	VictoryScore      float64

	// Net monthly balances from the budget subtree
	NetEnergy        float64
	NetMinerals      float64
	NetFood          float64
	NetAlloys        float64
	NetConsumerGoods float64
	NetUnity         float64
	NetInfluence     float64

	AttitudeTowardObserver           Attitude
	HasSensorLinkWithObserver        bool
	HasCommunicationsWithObserver    bool
	HasRivalryWithObserver           bool
	HasDefensivePactWithObserver     bool
	HasFederationWithObserver        bool
	HasNonAggressionPactWithObserver bool
	HasClosedBordersWithObserver     bool
	HasMigrationTreatyWithObserver   bool
	HasCommercialPactWithObserver    bool
	HasResearchAgreementWithObserver bool
}

// ShowsGeographyInfo reports whether the observer may see this country's
// territory details for the snapshot.
func (d *CountryData) ShowsGeographyInfo() bool {
	return d.AttitudeTowardObserver.IsKnown() && d.AttitudeTowardObserver != AttitudeUnknown
}

// ShowsTechInfo reports whether research details are disclosed, either by
// attitude or by an active sensor link.
func (d *CountryData) ShowsTechInfo() bool {
	return d.AttitudeTowardObserver.RevealsTechnologyInfo() || d.HasSensorLinkWithObserver
}

// ShowsEconomyInfo reports whether budget details are disclosed.
func (d *CountryData) ShowsEconomyInfo() bool {
	return d.AttitudeTowardObserver.RevealsEconomyInfo() || d.HasSensorLinkWithObserver
}

// ShowsMilitaryInfo reports whether fleet details are disclosed, either by
// attitude, defensive pact, federation membership, or sensor link.
func (d *CountryData) ShowsMilitaryInfo() bool {
	return d.AttitudeTowardObserver.RevealsMilitaryInfo() ||
		d.HasDefensivePactWithObserver ||
		d.HasFederationWithObserver ||
		d.HasSensorLinkWithObserver
}

// ShowsDemographicInfo reports whether population details are disclosed.
func (d *CountryData) ShowsDemographicInfo() bool {
	return d.AttitudeTowardObserver.RevealsDemographicInfo() || d.HasSensorLinkWithObserver
}

// PopStatsBySpecies aggregates a country's pops of one species for one
// snapshot.
type PopStatsBySpecies struct {
	ID            int64
	CountryDataID int64
	SpeciesID     int64
	PopCount      int
	Crime         float64
	Happiness     float64
	Power         float64
}

// PopStatsByFaction aggregates a country's pops by faction membership,
// including the faction's reported support and approval.
type PopStatsByFaction struct {
	ID              int64
	CountryDataID   int64
	FactionID       int64
	PopCount        int
	Crime           float64
	Happiness       float64
	Power           float64
	Support         float64
	FactionApproval float64
}

// PopStatsByJob aggregates a country's pops by assigned job.
type PopStatsByJob struct {
	ID            int64
	CountryDataID int64
	Job           string
	PopCount      int
	Crime         float64
	Happiness     float64
	Power         float64
}

// PopStatsByStratum aggregates a country's pops by social stratum.
type PopStatsByStratum struct {
	ID            int64
	CountryDataID int64
	Stratum       string
	PopCount      int
	Crime         float64
	Happiness     float64
	Power         float64
}
