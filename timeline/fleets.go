package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// fleetOwnershipProcessor maps fleet ids to their owning countries. The
// source stores fleet ownership on the country side, but ownership questions
// are asked fleet-first (which country's starbase is this), so the mapping
// is inverted once here.
type fleetOwnershipProcessor struct{}

func (fleetOwnershipProcessor) ID() string             { return "fleet_ownership" }
func (fleetOwnershipProcessor) Dependencies() []string { return []string{"countries"} }

func (fleetOwnershipProcessor) Extract(run *Run) (any, error) {
	countries := run.Output("countries").(*countryIndex)
	ownerByFleet := make(map[int64]*model.Country)

	countryTable, _ := run.Gamestate.GetObject("country")
	for _, e := range sortedIDEntries(countryTable) {
		obj, ok := e.Value.Object()
		if !ok {
			continue
		}
		country := countries.byID[e.Key.Num]
		if country == nil {
			continue
		}
		mgr, ok := obj.GetObject("fleets_manager")
		if !ok {
			continue
		}
		for _, f := range mgr.GetSeq("owned_fleets") {
			fleet, ok := f.Object()
			if !ok {
				continue
			}
			if fleetID, ok := fleet.GetInt("fleet"); ok {
				ownerByFleet[fleetID] = country
			}
		}
	}
	return ownerByFleet, nil
}
