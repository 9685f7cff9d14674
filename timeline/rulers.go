package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
)

// rulersProcessor tracks who rules each country and the decisions taken at
// that level: capital moves, adopted traditions, ascension perks, and
// edicts. Reigns are continuous facts; a new ruler closes the predecessor's
// term the day before taking over.
type rulersProcessor struct{}

func (rulersProcessor) ID() string { return "rulers" }
func (rulersProcessor) Dependencies() []string {
	return []string{"countries", "leaders", "planets", "country_data"}
}

func (rulersProcessor) Extract(run *Run) (any, error) {
	rc := &rulerContext{
		run:       run,
		countries: run.Output("countries").(*countryIndex),
		leaders:   run.Output("leaders").(map[int64]*model.Leader),
		planets:   run.Output("planets").(map[int64]*model.Planet),
		data:      run.Output("country_data").(map[int64]*model.CountryData),
	}

	out := make(map[int64]*model.Leader)
	countryTable, _ := run.Gamestate.GetObject("country")
	for _, countryID := range rc.countries.sortedCountryIDs() {
		country := rc.countries.byID[countryID]
		cv, _ := countryTable.GetID(countryID)
		obj, ok := cv.Object()
		if !ok {
			continue
		}
		var ruler *model.Leader
		if rulerID, ok := obj.GetInt("ruler"); ok {
			ruler = rc.leaders[rulerID]
		} else if country.IsRealCountry() {
			logger.Infow("country has no ruler",
				"series", run.Info.SeriesName, "country", country.Name)
		}

		if ruler != nil {
			out[countryID] = ruler
			capital, err := rc.updateCapital(country, ruler, obj)
			if err != nil {
				return nil, err
			}
			if err := rc.updateRuler(country, ruler, capital); err != nil {
				return nil, err
			}
		}
		if err := rc.extractAdoptionEvents(country, ruler, obj, "traditions", model.EventTradition,
			rc.revealsEconomy(country)); err != nil {
			return nil, err
		}
		if err := rc.extractAdoptionEvents(country, ruler, obj, "ascension_perks", model.EventAscensionPerk,
			country.HasMetObserver()); err != nil {
			return nil, err
		}
		if err := rc.extractEdictEvents(country, ruler, obj); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type rulerContext struct {
	run       *Run
	countries *countryIndex
	leaders   map[int64]*model.Leader
	planets   map[int64]*model.Planet
	data      map[int64]*model.CountryData
}

// updateCapital records capital moves and returns the current capital.
func (c *rulerContext) updateCapital(country *model.Country, ruler *model.Leader, obj *save.Object) (*model.Planet, error) {
	capitalID, ok := obj.GetInt("capital")
	if !ok {
		return nil, nil
	}
	capital := c.planets[capitalID]
	var capitalRef *int64
	if capital != nil {
		capitalRef = &capital.ID
	}
	if sameID(country.CapitalPlanetID, capitalRef) {
		return capital, nil
	}
	country.CapitalPlanetID = capitalRef
	if err := c.run.Tx.UpsertCountry(country); err != nil {
		return nil, err
	}
	if capital != nil {
		if err := c.run.Tx.InsertEvent(&model.HistoricalEvent{
			Kind:            model.EventCapitalRelocation,
			CountryID:       &country.ID,
			LeaderID:        &ruler.ID,
			PlanetID:        &capital.ID,
			SystemID:        capital.SystemID,
			StartDateDays:   c.run.Info.DateDays,
			KnownToObserver: country.HasMetObserver(),
		}); err != nil {
			return nil, err
		}
	}
	return capital, nil
}

// updateRuler closes the previous reign and opens the new one when the
// ruler changed since the last snapshot.
func (c *rulerContext) updateRuler(country *model.Country, ruler *model.Leader, capital *model.Planet) error {
	if country.RulerLeaderID != nil && *country.RulerLeaderID == ruler.ID {
		if c.run.Tx.Superseded {
			return c.restoreReignEvent(country, ruler, capital)
		}
		return nil
	}
	previous := country.RulerLeaderID
	country.RulerLeaderID = &ruler.ID
	if err := c.run.Tx.UpsertCountry(country); err != nil {
		return err
	}

	known := country.HasMetObserver()
	if previous != nil {
		ev, err := c.run.Tx.FindLatestEvent(storage.EventQuery{
			Kind:      model.EventRuledEmpire,
			CountryID: &country.ID,
			LeaderID:  previous,
		})
		if err != nil {
			return err
		}
		if ev != nil {
			if err := c.run.Tx.SetEventEnd(ev.ID, c.run.Info.DateDays-1); err != nil {
				return err
			}
			if known && !ev.KnownToObserver {
				if err := c.run.Tx.MarkEventKnown(ev.ID); err != nil {
					return err
				}
			}
		}
	}

	reign := &model.HistoricalEvent{
		Kind:            model.EventRuledEmpire,
		CountryID:       &country.ID,
		LeaderID:        &ruler.ID,
		StartDateDays:   c.run.Info.DateDays,
		KnownToObserver: known,
	}
	if capital != nil {
		reign.PlanetID = &capital.ID
		reign.SystemID = capital.SystemID
	}
	return c.run.Tx.InsertEvent(reign)
}

// restoreReignEvent re-creates a reign opened by a superseded import. The
// country row keeps its ruler reference across supersession, so an unchanged
// ruler without any reign event means this snapshot opened the term.
func (c *rulerContext) restoreReignEvent(country *model.Country, ruler *model.Leader, capital *model.Planet) error {
	seen, err := c.run.Tx.HasEvent(storage.EventQuery{
		Kind:      model.EventRuledEmpire,
		CountryID: &country.ID,
		LeaderID:  &ruler.ID,
	})
	if err != nil || seen {
		return err
	}
	reign := &model.HistoricalEvent{
		Kind:            model.EventRuledEmpire,
		CountryID:       &country.ID,
		LeaderID:        &ruler.ID,
		StartDateDays:   c.run.Info.DateDays,
		KnownToObserver: country.HasMetObserver(),
	}
	if capital != nil {
		reign.PlanetID = &capital.ID
		reign.SystemID = capital.SystemID
	}
	return c.run.Tx.InsertEvent(reign)
}

// extractAdoptionEvents writes one event per newly adopted entry of a
// cumulative list such as traditions or ascension perks. Entries never
// leave the list, so an existing event means the entry was seen before.
func (c *rulerContext) extractAdoptionEvents(country *model.Country, ruler *model.Leader, obj *save.Object,
	key string, kind model.EventKind, known bool) error {
	for _, tv := range obj.GetSeq(key) {
		name, ok := tv.Str()
		if !ok {
			continue
		}
		descID, err := c.run.Tx.DescriptionID(name)
		if err != nil {
			return err
		}
		seen, err := c.run.Tx.HasEvent(storage.EventQuery{
			Kind:          kind,
			CountryID:     &country.ID,
			DescriptionID: &descID,
		})
		if err != nil {
			return err
		}
		if seen {
			continue
		}
		ev := &model.HistoricalEvent{
			Kind:            kind,
			CountryID:       &country.ID,
			DescriptionID:   &descID,
			StartDateDays:   c.run.Info.DateDays,
			KnownToObserver: known,
		}
		if ruler != nil {
			ev.LeaderID = &ruler.ID
		}
		if err := c.run.Tx.InsertEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// extractEdictEvents records enacted edicts. An edict row carries its expiry
// date, so a renewal shows up as a new (description, expiry) pair while the
// unexpired original is matched and left alone. Perpetual edicts stay open.
func (c *rulerContext) extractEdictEvents(country *model.Country, ruler *model.Leader, obj *save.Object) error {
	for _, ev := range obj.GetSeq("edicts") {
		edict, ok := ev.Object()
		if !ok {
			continue
		}
		name, ok := edict.GetString("edict")
		if !ok {
			continue
		}
		var expiry *int
		if raw, ok := edict.GetString("date"); ok && raw != "" && raw != "1.01.01" && !yes(edict, "perpetual") {
			if days, err := model.DateToDays(raw); err == nil {
				expiry = &days
			}
		}
		descID, err := c.run.Tx.DescriptionID(name)
		if err != nil {
			return err
		}
		q := storage.EventQuery{
			Kind:          model.EventEdict,
			CountryID:     &country.ID,
			DescriptionID: &descID,
		}
		if expiry != nil {
			q.EndDateDays = expiry
		} else {
			q.OnlyOpen = true
		}
		seen, err := c.run.Tx.HasEvent(q)
		if err != nil {
			return err
		}
		if seen {
			continue
		}
		event := &model.HistoricalEvent{
			Kind:            model.EventEdict,
			CountryID:       &country.ID,
			DescriptionID:   &descID,
			StartDateDays:   c.run.Info.DateDays,
			EndDateDays:     expiry,
			KnownToObserver: c.revealsEconomy(country),
		}
		if ruler != nil {
			event.LeaderID = &ruler.ID
		}
		if err := c.run.Tx.InsertEvent(event); err != nil {
			return err
		}
	}
	return nil
}

func (c *rulerContext) revealsEconomy(country *model.Country) bool {
	data := c.data[country.InGameID]
	return data != nil && data.AttitudeTowardObserver.RevealsEconomyInfo()
}
