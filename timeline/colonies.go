package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
)

// Planet classes a colony can be founded on. The long tail past pc_habitat
// covers the planetary diversity mod.
var colonizablePlanetClasses = map[string]bool{
	"pc_desert":              true,
	"pc_arid":                true,
	"pc_savannah":            true,
	"pc_tropical":            true,
	"pc_continental":         true,
	"pc_ocean":               true,
	"pc_tundra":              true,
	"pc_arctic":              true,
	"pc_alpine":              true,
	"pc_gaia":                true,
	"pc_nuked":               true,
	"pc_machine":             true,
	"pc_ringworld_habitable": true,
	"pc_habitat":             true,

	"pc_antarctic":               true,
	"pc_deadcity":                true,
	"pc_retinal":                 true,
	"pc_irradiated_terrestrial":  true,
	"pc_lush":                    true,
	"pc_geocrystalline":          true,
	"pc_marginal":                true,
	"pc_irradiated_marginal":     true,
	"pc_marginal_cold":           true,
	"pc_crystal":                 true,
	"pc_floating":                true,
	"pc_graveyard":               true,
	"pc_mushroom":                true,
	"pc_city":                    true,
	"pc_archive":                 true,
	"pc_biolumen":                true,
	"pc_technoorganic":           true,
	"pc_tidallylocked":           true,
	"pc_glacial":                 true,
	"pc_frozen_desert":           true,
	"pc_steppe":                  true,
	"pc_hadesert":                true,
	"pc_boreal":                  true,
	"pc_sandsea":                 true,
	"pc_subarctic":               true,
	"pc_geothermal":              true,
	"pc_cascadian":               true,
	"pc_swamp":                   true,
	"pc_mangrove":                true,
	"pc_desertislands":           true,
	"pc_mesa":                    true,
	"pc_oasis":                   true,
	"pc_hajungle":                true,
	"pc_methane":                 true,
	"pc_ammonia":                 true,
}

// Planet classes left behind when a planet is cracked, shielded, or consumed.
var destroyedPlanetClasses = map[string]bool{
	"pc_shattered":                   true,
	"pc_shielded":                    true,
	"pc_ringworld_shielded":          true,
	"pc_habitat_shielded":            true,
	"pc_ringworld_habitable_damaged": true,
	"pc_egg_cracked":                 true,
	"pc_shrouded":                    true,
	"pc_ai":                          true,
	"pc_infested":                    true,
	"pc_gray_goo":                    true,
}

// coloniesProcessor walks every owned system and follows each habitable
// planet through its colony's life: the colonization interval while settlers
// are en route, the completion date, and destruction if the planet class
// flips to a dead one. It runs before the stored planet classes are
// refreshed, since spotting a destruction needs last snapshot's class, and
// refreshes name and class for all planets at the end.
type coloniesProcessor struct{}

func (coloniesProcessor) ID() string { return "colonies" }
func (coloniesProcessor) Dependencies() []string {
	return []string{"systems", "system_ownership", "planets", "countries"}
}

func (coloniesProcessor) Extract(run *Run) (any, error) {
	galactic, _ := run.Gamestate.GetObject("galactic_object")
	cc := &colonyContext{
		run:       run,
		systems:   run.Output("systems").(*systemIndex),
		ownership: run.Output("system_ownership").(*ownershipOutput),
		planets:   run.Output("planets").(map[int64]*model.Planet),
		countries: run.Output("countries").(*countryIndex),
		galactic:  galactic,
		table:     planetsTable(run.Gamestate),
	}
	for _, countryID := range cc.countries.sortedCountryIDs() {
		country := cc.countries.byID[countryID]
		for _, systemID := range cc.ownership.systemsByOwner[countryID] {
			if err := cc.extractSystemColonies(country, systemID); err != nil {
				return nil, err
			}
		}
	}
	return nil, cc.refreshPlanets()
}

type colonyContext struct {
	run       *Run
	systems   *systemIndex
	ownership *ownershipOutput
	planets   map[int64]*model.Planet
	countries *countryIndex
	galactic  *save.Object
	table     *save.Object
}

func (c *colonyContext) extractSystemColonies(country *model.Country, systemID int64) error {
	system := c.systems.byID[systemID]
	if system == nil {
		logger.Infow("owned system is unknown",
			"series", c.run.Info.SeriesName, "system", systemID)
		return nil
	}
	sysObj, ok := c.galactic.GetID(systemID)
	if !ok {
		return nil
	}
	obj, ok := sysObj.Object()
	if !ok {
		return nil
	}
	for _, planetID := range intSeq(obj, "planet") {
		planetObj, ok := c.table.GetID(planetID)
		if !ok {
			continue
		}
		pd, ok := planetObj.Object()
		if !ok {
			continue
		}
		planet := c.planets[planetID]
		if planet == nil {
			continue
		}
		class, _ := pd.GetString("planet_class")
		if colonizablePlanetClasses[class] || hasKey(pd, "colonize_date") {
			if err := c.updateColonization(country, system, planet, pd); err != nil {
				return err
			}
		}
		if destroyedPlanetClasses[class] {
			if err := c.planetDestroyed(country, system, planet, class); err != nil {
				return err
			}
		}
	}
	return nil
}

// updateColonization keeps one colonization event per planet. While the
// colony ship is underway the event's end tracks the current date; once the
// source carries a colonize date, the event is closed at that date and the
// planet is marked colonized for good.
func (c *colonyContext) updateColonization(country *model.Country, system *model.System, planet *model.Planet, pd *save.Object) error {
	completed := false
	switch {
	case yes(pd, "is_under_colonization"):
	case hasKey(pd, "colonize_date"):
		completed = true
	default:
		return nil
	}

	end := c.run.Info.DateDays
	if raw, ok := pd.GetString("colonize_date"); ok && raw != "none" {
		if days, err := model.DateToDays(raw); err == nil {
			end = days
		}
	}

	if planet.ColonizedDays != nil {
		// Already fully recorded; only a superseded re-import can have
		// dropped or reopened the event while the planet row kept its date.
		if !c.run.Tx.Superseded {
			return nil
		}
		return c.reconcileColonizationEvent(country, system, planet, yes(pd, "is_under_colonization"))
	}
	if completed {
		days := end
		planet.ColonizedDays = &days
		if err := c.run.Tx.UpsertPlanet(planet); err != nil {
			return err
		}
	}

	ev, err := c.run.Tx.FindLatestEvent(storage.EventQuery{
		Kind:     model.EventColonization,
		PlanetID: &planet.ID,
	})
	if err != nil {
		return err
	}
	if ev != nil {
		return c.run.Tx.SetEventEnd(ev.ID, end)
	}
	return c.run.Tx.InsertEvent(&model.HistoricalEvent{
		Kind:            model.EventColonization,
		CountryID:       &country.ID,
		PlanetID:        &planet.ID,
		SystemID:        &system.ID,
		StartDateDays:   min(c.run.Info.DateDays, end),
		EndDateDays:     &end,
		KnownToObserver: country.HasMetObserver(),
	})
}

// reconcileColonizationEvent repairs the event record for a planet whose
// colonize date survived a superseded import. A reopened event is closed on
// the colonize date again. A missing event is rebuilt only when the source
// still shows the colonization underway; a planet that only ever appeared
// fully colonized was settled before the series started and has no event.
func (c *colonyContext) reconcileColonizationEvent(country *model.Country, system *model.System, planet *model.Planet, underway bool) error {
	ev, err := c.run.Tx.FindLatestEvent(storage.EventQuery{
		Kind:     model.EventColonization,
		PlanetID: &planet.ID,
	})
	if err != nil {
		return err
	}
	end := *planet.ColonizedDays
	if ev != nil {
		if ev.EndDateDays == nil {
			return c.run.Tx.SetEventEnd(ev.ID, end)
		}
		return nil
	}
	if !underway {
		return nil
	}
	return c.run.Tx.InsertEvent(&model.HistoricalEvent{
		Kind:            model.EventColonization,
		CountryID:       &country.ID,
		PlanetID:        &planet.ID,
		SystemID:        &system.ID,
		StartDateDays:   min(c.run.Info.DateDays, end),
		EndDateDays:     &end,
		KnownToObserver: country.HasMetObserver(),
	})
}

// planetDestroyed fires when the source class is a dead one while the stored
// class is not, which works exactly once because the refresh pass afterwards
// aligns the stored class. Superseded re-imports see the classes already
// aligned and instead check that the event survived.
func (c *colonyContext) planetDestroyed(country *model.Country, system *model.System, planet *model.Planet, class string) error {
	if class != planet.PlanetClass {
		return c.run.Tx.InsertEvent(&model.HistoricalEvent{
			Kind:            model.EventPlanetDestroyed,
			CountryID:       &country.ID,
			PlanetID:        &planet.ID,
			SystemID:        &system.ID,
			StartDateDays:   c.run.Info.DateDays,
			KnownToObserver: country.HasMetObserver(),
		})
	}
	if !c.run.Tx.Superseded {
		return nil
	}
	had, err := c.run.Tx.HasEvent(storage.EventQuery{
		Kind:     model.EventPlanetDestroyed,
		PlanetID: &planet.ID,
	})
	if err != nil || had {
		return err
	}
	return c.run.Tx.InsertEvent(&model.HistoricalEvent{
		Kind:            model.EventPlanetDestroyed,
		CountryID:       &country.ID,
		PlanetID:        &planet.ID,
		SystemID:        &system.ID,
		StartDateDays:   c.run.Info.DateDays,
		KnownToObserver: country.HasMetObserver(),
	})
}

// refreshPlanets brings stored names and classes up to date once all change
// detection against the previous snapshot is done.
func (c *colonyContext) refreshPlanets() error {
	for _, id := range sortedKeys(c.planets) {
		v, ok := c.table.GetID(id)
		if !ok {
			continue
		}
		pd, ok := v.Object()
		if !ok {
			continue
		}
		planet := c.planets[id]
		changed := false
		if name := objectName(pd, "name", planet.Name); name != planet.Name {
			planet.Name = name
			changed = true
		}
		if class, ok := pd.GetString("planet_class"); ok && class != planet.PlanetClass {
			planet.PlanetClass = class
			changed = true
		}
		if changed {
			if err := c.run.Tx.UpsertPlanet(planet); err != nil {
				return err
			}
		}
	}
	return nil
}
