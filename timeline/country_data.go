package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
)

// countryDataProcessor writes the per-snapshot statistics row for each
// country: power ratings, counts, net monthly resource balances, and the
// diplomatic state toward the observer. Rows are written for every country
// in the snapshot; what the dashboard may display is decided at query time
// from the attitude and treaty flags stored here.
type countryDataProcessor struct{}

func (countryDataProcessor) ID() string { return "country_data" }
func (countryDataProcessor) Dependencies() []string {
	return []string{"countries", "diplomacy", "system_ownership"}
}

func (countryDataProcessor) Extract(run *Run) (any, error) {
	countries := run.Output("countries").(*countryIndex)
	diplomacy := run.Output("diplomacy").(*diplomacyOutput)
	ownership := run.Output("system_ownership").(*ownershipOutput)

	// Observer mode has no observer country; -1 matches no relation target.
	observerID := int64(-1)
	if run.Info.ObserverID != nil {
		observerID = *run.Info.ObserverID
	}

	countryTable, _ := run.Gamestate.GetObject("country")
	out := make(map[int64]*model.CountryData)
	for _, id := range countries.sortedCountryIDs() {
		country := countries.byID[id]
		v, _ := countryTable.GetID(id)
		obj, ok := v.Object()
		if !ok {
			continue
		}
		techStatus, _ := obj.GetObject("tech_status")

		data := &model.CountryData{
			CountryID:         country.ID,
			TechCount:         len(techStatus.GetSeq("technology")),
			OwnedPlanets:      len(obj.GetSeq("owned_planets")),
			ControlledSystems: len(ownership.systemsByOwner[id]),

			HasCommunicationsWithObserver:    diplomacy.communications.has(id, observerID),
			HasRivalryWithObserver:           diplomacy.rivals.has(id, observerID),
			HasDefensivePactWithObserver:     diplomacy.defensivePacts.has(id, observerID),
			HasFederationWithObserver:        diplomacy.federations.has(id, observerID),
			HasNonAggressionPactWithObserver: diplomacy.nonAggressionPacts.has(id, observerID),
			HasClosedBordersWithObserver:     diplomacy.closedBorders.has(id, observerID),
			HasMigrationTreatyWithObserver:   diplomacy.migrationTreaties.has(id, observerID),
			HasCommercialPactWithObserver:    diplomacy.commercialPacts.has(id, observerID),
			HasResearchAgreementWithObserver: diplomacy.researchAgreements.has(id, observerID),
		}
		data.MilitaryPower, _ = obj.GetNumber("military_power")
		data.FleetSize, _ = obj.GetNumber("fleet_size")
		data.EconomyPower, _ = obj.GetNumber("economy_power")
		data.VictoryScore, _ = obj.GetNumber("victory_score")
		empireSize, _ := obj.GetNumber("empire_size")
		data.EmpireSize = int(empireSize)
		victoryRank, _ := obj.GetNumber("victory_rank")
		data.VictoryRank = int(victoryRank)

		if country.IsObserver {
			data.AttitudeTowardObserver = model.AttitudeIsObserver
		} else {
			data.AttitudeTowardObserver = aiAttitudeToward(obj, observerID)
		}
		data.HasSensorLinkWithObserver = country.IsObserver ||
			diplomacy.sensorLinks.has(observerID, id)

		addBudgetBalance(run.Info.SeriesName, data, obj)

		if data.HasCommunicationsWithObserver && country.FirstContactWithObserverDays == nil {
			days := run.Info.DateDays
			country.FirstContactWithObserverDays = &days
			if err := run.Tx.UpsertCountry(country); err != nil {
				return nil, err
			}
		}
		if err := run.Tx.InsertCountryData(data); err != nil {
			return nil, err
		}
		out[id] = data
	}
	return out, nil
}

// aiAttitudeToward reads the country's AI attitude entry for the observer.
// The observer's own record and countries without AI state report unknown.
func aiAttitudeToward(country *save.Object, observerID int64) model.Attitude {
	ai, ok := country.GetObject("ai")
	if !ok {
		return model.AttitudeUnknown
	}
	for _, av := range ai.GetSeq("attitude") {
		entry, ok := av.Object()
		if !ok {
			continue
		}
		if target, ok := entry.GetInt("country"); ok && target == observerID {
			raw, _ := entry.GetString("attitude")
			return model.ParseAttitude(raw)
		}
	}
	return model.AttitudeUnknown
}

// addBudgetBalance sums the current month's balance over all budget items.
func addBudgetBalance(seriesName string, data *model.CountryData, country *save.Object) {
	budget, _ := country.GetObject("budget")
	month, _ := budget.GetObject("current_month")
	balance, ok := month.GetObject("balance")
	if !ok {
		return
	}
	for _, e := range balance.Entries() {
		if e.Key.Raw == "none" {
			continue
		}
		item, ok := e.Value.Object()
		if !ok {
			continue
		}
		for _, target := range []struct {
			resource string
			sum      *float64
		}{
			{"energy", &data.NetEnergy},
			{"minerals", &data.NetMinerals},
			{"alloys", &data.NetAlloys},
			{"consumer_goods", &data.NetConsumerGoods},
			{"food", &data.NetFood},
			{"unity", &data.NetUnity},
			{"influence", &data.NetInfluence},
		} {
			v, ok := item.Get(target.resource)
			if !ok {
				continue
			}
			*target.sum += budgetNumber(seriesName, e.Key.Raw, target.resource, v)
		}
	}
}

// budgetNumber reads one resource amount. Malformed saves occasionally fold
// duplicate resource keys into a list; the first number wins in that case.
func budgetNumber(seriesName, item, resource string, v save.Value) float64 {
	if n, ok := v.Number(); ok {
		return n
	}
	logger.Warnw("unexpected budget value",
		"series", seriesName, "item", item, "resource", resource)
	if list, ok := v.List(); ok && len(list) > 0 {
		if n, ok := list[0].Number(); ok {
			return n
		}
	}
	return 0
}
