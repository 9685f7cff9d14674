package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
)

// Synthetic factions group the pops that cannot hold a real faction
// membership. Every country gets its own set; their in-game ids are derived
// from the country id so they stay negative and collision-free.
const (
	noFactionKind = iota + 1
	slaveFactionKind
	purgeFactionKind
	robotFactionKind
)

var syntheticFactions = []struct {
	kind int
	name string
	typ  string
}{
	{noFactionKind, "No faction", "no ethics"},
	{slaveFactionKind, "No faction (enslaved)", "no ethics (enslaved)"},
	{purgeFactionKind, "No faction (purge)", "no ethics (purge)"},
	{robotFactionKind, "No faction (non-sentient robot)", "no ethics (robot)"},
}

// syntheticFactionID derives the in-game id of a country's synthetic
// faction. Real faction ids are non-negative, so the derived ids can never
// collide with them.
func syntheticFactionID(countryInGameID int64, kind int) int64 {
	return -(countryInGameID*4 + int64(kind))
}

// factionsProcessor registers political factions and tracks their
// leadership. Faction leadership is a continuous fact: the open event
// extends while the leader stays, a change closes it the day before.
type factionsProcessor struct{}

func (factionsProcessor) ID() string             { return "factions" }
func (factionsProcessor) Dependencies() []string { return []string{"countries", "leaders"} }

func (factionsProcessor) Extract(run *Run) (any, error) {
	countries := run.Output("countries").(*countryIndex)
	leaders := run.Output("leaders").(map[int64]*model.Leader)

	out := make(map[int64]*model.Faction)
	table, _ := run.Gamestate.GetObject("pop_factions")
	for _, e := range sortedIDEntries(table) {
		obj, ok := e.Value.Object()
		if !ok {
			continue
		}
		countryID, ok := obj.GetInt("country")
		if !ok {
			continue
		}
		country := countries.byID[countryID]
		if country == nil {
			continue
		}
		factionType, _ := obj.GetString("type")
		faction, err := getOrAddFaction(run, e.Key.Num, objectName(obj, "name", "Unnamed faction"),
			country, factionType)
		if err != nil {
			return nil, err
		}
		out[e.Key.Num] = faction

		if err := updateFactionLeader(run, country, faction, leaders, obj); err != nil {
			return nil, err
		}
	}

	for _, countryID := range countries.sortedCountryIDs() {
		country := countries.byID[countryID]
		for _, sf := range syntheticFactions {
			id := syntheticFactionID(countryID, sf.kind)
			faction, err := getOrAddFaction(run, id, sf.name, country, sf.typ)
			if err != nil {
				return nil, err
			}
			out[id] = faction
		}
	}
	return out, nil
}

// getOrAddFaction loads or creates a faction. Newly seen real factions get
// a new_faction event; the synthetic ones appear without ceremony.
func getOrAddFaction(run *Run, inGameID int64, name string, country *model.Country, factionType string) (*model.Faction, error) {
	faction, err := run.Tx.GetFaction(inGameID)
	if err != nil {
		return nil, err
	}
	if faction != nil {
		if inGameID >= 0 && run.Tx.Superseded {
			if err := restoreFactionEvent(run, country, faction); err != nil {
				return nil, err
			}
		}
		return faction, nil
	}
	faction = &model.Faction{
		InGameID:  inGameID,
		CountryID: country.ID,
		Name:      name,
		Type:      factionType,
	}
	if err := run.Tx.UpsertFaction(faction); err != nil {
		return nil, err
	}
	if inGameID >= 0 {
		endDays := run.Info.DateDays
		if err := run.Tx.InsertEvent(&model.HistoricalEvent{
			Kind:            model.EventNewFaction,
			CountryID:       &country.ID,
			FactionID:       &faction.ID,
			StartDateDays:   run.Info.DateDays,
			EndDateDays:     &endDays,
			KnownToObserver: country.HasMetObserver(),
		}); err != nil {
			return nil, err
		}
	}
	return faction, nil
}

// restoreFactionEvent re-creates a new_faction event lost to a superseded
// import.
func restoreFactionEvent(run *Run, country *model.Country, faction *model.Faction) error {
	seen, err := run.Tx.HasEvent(storage.EventQuery{
		Kind:      model.EventNewFaction,
		FactionID: &faction.ID,
	})
	if err != nil || seen {
		return err
	}
	endDays := run.Info.DateDays
	return run.Tx.InsertEvent(&model.HistoricalEvent{
		Kind:            model.EventNewFaction,
		CountryID:       &country.ID,
		FactionID:       &faction.ID,
		StartDateDays:   run.Info.DateDays,
		EndDateDays:     &endDays,
		KnownToObserver: country.HasMetObserver(),
	})
}

func updateFactionLeader(run *Run, country *model.Country, faction *model.Faction,
	leaders map[int64]*model.Leader, obj *save.Object) error {
	leaderID, _ := obj.GetInt("leader")
	leader := leaders[leaderID]
	if leader == nil {
		logger.Debugw("faction has no resolvable leader",
			"series", run.Info.SeriesName, "country", country.Name,
			"faction", faction.Name, "leader", leaderID)
		return nil
	}
	known := country.HasMetObserver()
	open, err := run.Tx.FindLatestEvent(storage.EventQuery{
		Kind:      model.EventFactionLeader,
		FactionID: &faction.ID,
		OnlyOpen:  true,
	})
	if err != nil {
		return err
	}
	if open != nil {
		if open.LeaderID != nil && *open.LeaderID == leader.ID {
			if known && !open.KnownToObserver {
				return run.Tx.MarkEventKnown(open.ID)
			}
			return nil
		}
		if err := run.Tx.SetEventEnd(open.ID, run.Info.DateDays-1); err != nil {
			return err
		}
	}
	return run.Tx.InsertEvent(&model.HistoricalEvent{
		Kind:            model.EventFactionLeader,
		CountryID:       &country.ID,
		LeaderID:        &leader.ID,
		FactionID:       &faction.ID,
		StartDateDays:   run.Info.DateDays,
		KnownToObserver: known,
	})
}
