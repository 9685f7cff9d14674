package storage

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// InsertCountryData stores the per-country record of this snapshot and sets
// its id. One record per (snapshot, country).
func (t *SnapshotTx) InsertCountryData(d *model.CountryData) error {
	d.SnapshotID = t.SnapshotID
	res, err := t.tx.Exec(`
		INSERT INTO country_data (snapshot_id, country_id, military_power, fleet_size,
		        tech_count, empire_size, owned_planets, controlled_systems,
		        victory_rank, victory_score, economy_power,
		        net_energy, net_minerals, net_food, net_alloys, net_consumer_goods,
		        net_unity, net_influence, attitude_toward_observer,
		        has_sensor_link_with_observer, has_communications_with_observer,
		        has_rivalry_with_observer, has_defensive_pact_with_observer,
		        has_federation_with_observer, has_non_aggression_pact_with_observer,
		        has_closed_borders_with_observer, has_migration_treaty_with_observer,
		        has_commercial_pact_with_observer, has_research_agreement_with_observer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.SnapshotID, d.CountryID, d.MilitaryPower, d.FleetSize,
		d.TechCount, d.EmpireSize, d.OwnedPlanets, d.ControlledSystems,
		d.VictoryRank, d.VictoryScore, d.EconomyPower,
		d.NetEnergy, d.NetMinerals, d.NetFood, d.NetAlloys, d.NetConsumerGoods,
		d.NetUnity, d.NetInfluence, string(d.AttitudeTowardObserver),
		d.HasSensorLinkWithObserver, d.HasCommunicationsWithObserver,
		d.HasRivalryWithObserver, d.HasDefensivePactWithObserver,
		d.HasFederationWithObserver, d.HasNonAggressionPactWithObserver,
		d.HasClosedBordersWithObserver, d.HasMigrationTreatyWithObserver,
		d.HasCommercialPactWithObserver, d.HasResearchAgreementWithObserver)
	if err != nil {
		return storeErr(err, "failed to insert country data")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr(err, "failed to read country data id")
	}
	d.ID = id
	return nil
}

func (t *SnapshotTx) AddPopStatsSpecies(p *model.PopStatsBySpecies) error {
	res, err := t.tx.Exec(`
		INSERT INTO pop_stats_species (country_data_id, species_id, pop_count, crime, happiness, power)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.CountryDataID, p.SpeciesID, p.PopCount, p.Crime, p.Happiness, p.Power)
	if err != nil {
		return storeErr(err, "failed to insert species pop stats")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr(err, "failed to read species pop stats id")
	}
	p.ID = id
	return nil
}

func (t *SnapshotTx) AddPopStatsFaction(p *model.PopStatsByFaction) error {
	res, err := t.tx.Exec(`
		INSERT INTO pop_stats_faction (country_data_id, faction_id, pop_count, crime,
		                               happiness, power, support, faction_approval)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CountryDataID, p.FactionID, p.PopCount, p.Crime, p.Happiness, p.Power,
		p.Support, p.FactionApproval)
	if err != nil {
		return storeErr(err, "failed to insert faction pop stats")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr(err, "failed to read faction pop stats id")
	}
	p.ID = id
	return nil
}

func (t *SnapshotTx) AddPopStatsJob(p *model.PopStatsByJob) error {
	res, err := t.tx.Exec(`
		INSERT INTO pop_stats_job (country_data_id, job_description, pop_count, crime, happiness, power)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.CountryDataID, p.Job, p.PopCount, p.Crime, p.Happiness, p.Power)
	if err != nil {
		return storeErr(err, "failed to insert job pop stats")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr(err, "failed to read job pop stats id")
	}
	p.ID = id
	return nil
}

func (t *SnapshotTx) AddPopStatsStratum(p *model.PopStatsByStratum) error {
	res, err := t.tx.Exec(`
		INSERT INTO pop_stats_stratum (country_data_id, stratum, pop_count, crime, happiness, power)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.CountryDataID, p.Stratum, p.PopCount, p.Crime, p.Happiness, p.Power)
	if err != nil {
		return storeErr(err, "failed to insert stratum pop stats")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr(err, "failed to read stratum pop stats id")
	}
	p.ID = id
	return nil
}

// CountryDataHistory returns a country's records across all snapshots in
// date order.
func (s *Store) CountryDataHistory(countryID int64) ([]model.CountryData, error) {
	rows, err := s.db.Query(`
		SELECT d.id, d.snapshot_id, d.country_id, d.military_power, d.fleet_size,
		       d.tech_count, d.empire_size, d.owned_planets, d.controlled_systems,
		       d.victory_rank, d.victory_score, d.economy_power,
		       d.net_energy, d.net_minerals, d.net_food, d.net_alloys,
		       d.net_consumer_goods, d.net_unity, d.net_influence,
		       d.attitude_toward_observer,
		       d.has_sensor_link_with_observer, d.has_communications_with_observer,
		       d.has_rivalry_with_observer, d.has_defensive_pact_with_observer,
		       d.has_federation_with_observer, d.has_non_aggression_pact_with_observer,
		       d.has_closed_borders_with_observer, d.has_migration_treaty_with_observer,
		       d.has_commercial_pact_with_observer, d.has_research_agreement_with_observer
		FROM country_data d
		JOIN snapshots s ON s.id = d.snapshot_id
		WHERE d.country_id = ?
		ORDER BY s.date_days`, countryID)
	if err != nil {
		return nil, storeErr(err, "failed to query country data history")
	}
	defer rows.Close()

	var out []model.CountryData
	for rows.Next() {
		var d model.CountryData
		var attitude string
		if err := rows.Scan(&d.ID, &d.SnapshotID, &d.CountryID, &d.MilitaryPower,
			&d.FleetSize, &d.TechCount, &d.EmpireSize, &d.OwnedPlanets,
			&d.ControlledSystems, &d.VictoryRank, &d.VictoryScore, &d.EconomyPower,
			&d.NetEnergy, &d.NetMinerals, &d.NetFood, &d.NetAlloys,
			&d.NetConsumerGoods, &d.NetUnity, &d.NetInfluence, &attitude,
			&d.HasSensorLinkWithObserver, &d.HasCommunicationsWithObserver,
			&d.HasRivalryWithObserver, &d.HasDefensivePactWithObserver,
			&d.HasFederationWithObserver, &d.HasNonAggressionPactWithObserver,
			&d.HasClosedBordersWithObserver, &d.HasMigrationTreatyWithObserver,
			&d.HasCommercialPactWithObserver, &d.HasResearchAgreementWithObserver,
		); err != nil {
			return nil, storeErr(err, "failed to scan country data")
		}
		d.AttitudeTowardObserver = model.Attitude(attitude)
		out = append(out, d)
	}
	return out, rows.Err()
}
