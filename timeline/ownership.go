package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// ownershipOutput is the system ownership processor output: who holds which
// system in the current snapshot, keyed by in-game ids both ways.
type ownershipOutput struct {
	ownerBySystem  map[int64]int64
	systemsByOwner map[int64][]int64
}

// systemOwnershipProcessor derives territory from starbases. A starbase's
// station ship leads to a fleet, the fleet to its owner, and the starbase's
// system becomes that country's territory. Systems whose starbase vanished
// fall back to unowned. Ownership changes close the running interval one day
// before the snapshot and write the expansion, conquest, and loss events.
type systemOwnershipProcessor struct{}

func (systemOwnershipProcessor) ID() string { return "system_ownership" }
func (systemOwnershipProcessor) Dependencies() []string {
	return []string{"systems", "countries", "fleet_ownership"}
}

func (systemOwnershipProcessor) Extract(run *Run) (any, error) {
	systems := run.Output("systems").(*systemIndex)
	countries := run.Output("countries").(*countryIndex)
	fleetOwners := run.Output("fleet_ownership").(map[int64]*model.Country)

	out := &ownershipOutput{
		ownerBySystem:  make(map[int64]int64),
		systemsByOwner: make(map[int64][]int64),
	}

	fleetByShip := make(map[int64]int64)
	ships, _ := run.Gamestate.GetObject("ships")
	for _, e := range ships.Entries() {
		if !e.Key.IsNum {
			continue
		}
		if ship, ok := e.Value.Object(); ok {
			if fleetID, ok := ship.GetInt("fleet"); ok {
				fleetByShip[e.Key.Num] = fleetID
			}
		}
	}

	starbaseMgr, _ := run.Gamestate.GetObject("starbase_mgr")
	starbases, _ := starbaseMgr.GetObject("starbases")

	// When several starbases sit in one system, the lowest starbase id
	// claims it; iterating in id order makes that the first claim seen.
	claimed := make(map[int64]bool)

	for _, e := range sortedIDEntries(starbases) {
		sb, ok := e.Value.Object()
		if !ok {
			continue
		}
		systemID, ok := systems.systemByStarbase[e.Key.Num]
		if !ok {
			continue
		}
		system := systems.byID[systemID]

		var owner *model.Country
		if station, ok := sb.GetInt("station"); ok {
			if fleetID, ok := fleetByShip[station]; ok {
				owner = fleetOwners[fleetID]
			}
		}
		if owner == nil || system == nil {
			// Some megastructures count as starbases without an owner.
			logger.Debugw("cannot establish system ownership",
				"series", run.Info.SeriesName, "system", systemID)
			continue
		}
		if claimed[systemID] {
			continue
		}
		claimed[systemID] = true
		out.ownerBySystem[systemID] = owner.InGameID
		out.systemsByOwner[owner.InGameID] = append(out.systemsByOwner[owner.InGameID], systemID)

		if err := updateSystemOwner(run, countries, system, owner); err != nil {
			return nil, err
		}
	}

	// Unowned pass: systems without a starbase this snapshot lose their
	// recorded owner.
	for _, systemID := range sortedKeys(systems.byID) {
		if claimed[systemID] {
			continue
		}
		if err := updateSystemOwner(run, countries, systems.byID[systemID], nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// updateSystemOwner reconciles the stored ownership interval of one system
// with the owner seen in the current snapshot. While the owner is unchanged
// the open interval simply keeps running; on a change the interval is closed
// one day before the snapshot and the transfer events are written. A nil
// owner clears the system without opening a new interval.
func updateSystemOwner(run *Run, countries *countryIndex, system *model.System, owner *model.Country) error {
	tx := run.Tx
	current, err := tx.CurrentSystemOwnership(system.ID)
	if err != nil {
		return err
	}
	switch {
	case current == nil && owner == nil:
		return nil
	case current != nil && owner != nil && current.CountryID == owner.ID:
		return nil
	}
	date := run.Info.DateDays

	var prevOwner *model.Country
	if current != nil {
		prevOwner = countries.byDBID[current.CountryID]
		if err := tx.CloseSystemOwnership(current.ID, date-1); err != nil {
			return err
		}
	}

	known := (prevOwner != nil && prevOwner.HasMetObserver()) ||
		(owner != nil && owner.HasMetObserver())

	if prevOwner != nil {
		lost := &model.HistoricalEvent{
			Kind:            model.EventLostSystem,
			CountryID:       &prevOwner.ID,
			SystemID:        &system.ID,
			StartDateDays:   date,
			KnownToObserver: known,
		}
		if owner != nil {
			lost.TargetCountryID = &owner.ID
		}
		if err := tx.InsertEvent(lost); err != nil {
			return err
		}
	}

	if owner != nil {
		if err := tx.AddSystemOwnership(&model.SystemOwnership{
			SystemID:      system.ID,
			CountryID:     owner.ID,
			StartDateDays: date,
		}); err != nil {
			return err
		}
		gained := &model.HistoricalEvent{
			Kind:            model.EventExpandedToSystem,
			CountryID:       &owner.ID,
			SystemID:        &system.ID,
			StartDateDays:   date,
			KnownToObserver: known,
		}
		if prevOwner != nil {
			gained.Kind = model.EventConqueredSystem
			gained.TargetCountryID = &prevOwner.ID
		}
		if err := tx.InsertEvent(gained); err != nil {
			return err
		}
	}
	return nil
}
