package timeline

// diplomacyOutput captures the pairwise diplomatic state of the snapshot.
// Each pairSet is directed from the country whose relation list reported the
// fact; the source reports most treaties from both sides.
type diplomacyOutput struct {
	rivals             pairSet
	defensivePacts     pairSet
	federations        pairSet
	nonAggressionPacts pairSet
	closedBorders      pairSet
	communications     pairSet
	migrationTreaties  pairSet
	commercialPacts    pairSet
	researchAgreements pairSet
	embassies          pairSet

	// truceParties groups the countries referring to each truce id. The
	// truce processor matches these sets against vanished wars.
	truceParties map[int64]map[int64]bool

	// sensorLinks marks (receiver, provider) pairs of active sensor link
	// trade deals.
	sensorLinks pairSet
}

// diplomacyProcessor reads each country's relation list and the trade deals.
// It writes nothing; its output feeds the per-snapshot country statistics and
// the truce resolution.
type diplomacyProcessor struct{}

func (diplomacyProcessor) ID() string             { return "diplomacy" }
func (diplomacyProcessor) Dependencies() []string { return []string{"countries"} }

func (diplomacyProcessor) Extract(run *Run) (any, error) {
	countries := run.Output("countries").(*countryIndex)
	out := &diplomacyOutput{
		rivals:             make(pairSet),
		defensivePacts:     make(pairSet),
		federations:        make(pairSet),
		nonAggressionPacts: make(pairSet),
		closedBorders:      make(pairSet),
		communications:     make(pairSet),
		migrationTreaties:  make(pairSet),
		commercialPacts:    make(pairSet),
		researchAgreements: make(pairSet),
		embassies:          make(pairSet),
		truceParties:       make(map[int64]map[int64]bool),
		sensorLinks:        make(pairSet),
	}

	countryTable, _ := run.Gamestate.GetObject("country")
	for _, countryID := range countries.sortedCountryIDs() {
		v, ok := countryTable.GetID(countryID)
		if !ok {
			continue
		}
		obj, ok := v.Object()
		if !ok {
			continue
		}
		mgr, ok := obj.GetObject("relations_manager")
		if !ok {
			continue
		}
		for _, rv := range mgr.GetSeq("relation") {
			rel, ok := rv.Object()
			if !ok {
				continue
			}
			target, ok := rel.GetInt("country")
			if !ok {
				continue
			}
			for _, p := range []struct {
				field string
				set   pairSet
			}{
				{"is_rival", out.rivals},
				{"defensive_pact", out.defensivePacts},
				{"alliance", out.federations},
				{"non_aggression_pledge", out.nonAggressionPacts},
				{"closed_borders", out.closedBorders},
				{"communications", out.communications},
				{"migration_access", out.migrationTreaties},
				{"commercial_pact", out.commercialPacts},
				{"research_agreement", out.researchAgreements},
				{"embassy", out.embassies},
			} {
				if yes(rel, p.field) {
					p.set.add(countryID, target)
				}
			}
			if truceID, ok := rel.GetInt("truce"); ok {
				parties := out.truceParties[truceID]
				if parties == nil {
					parties = make(map[int64]bool)
					out.truceParties[truceID] = parties
				}
				parties[countryID] = true
				parties[target] = true
			}
		}
	}

	trades, _ := run.Gamestate.GetObject("trade_deal")
	for _, e := range sortedIDEntries(trades) {
		deal, ok := e.Value.Object()
		if !ok {
			continue
		}
		first, _ := deal.GetObject("first")
		second, _ := deal.GetObject("second")
		firstID, okFirst := first.GetInt("country")
		secondID, okSecond := second.GetInt("country")
		if okFirst && okSecond && yes(second, "sensor_link") {
			out.sensorLinks.add(firstID, secondID)
		}
	}
	return out, nil
}
