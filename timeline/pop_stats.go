package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
)

// popStatsProcessor aggregates a country's population by species, faction,
// job, and stratum and attaches the groups to the snapshot's country data
// row. Demographics are expensive and mostly interesting for the observer's
// own empire, so other countries are only read when the import is configured
// for it; other human players are always left out.
type popStatsProcessor struct{}

func (popStatsProcessor) ID() string { return "pop_stats" }
func (popStatsProcessor) Dependencies() []string {
	return []string{"countries", "species", "factions", "country_data"}
}

func (popStatsProcessor) Extract(run *Run) (any, error) {
	countries := run.Output("countries").(*countryIndex)
	species := run.Output("species").(*speciesOutput)
	factions := run.Output("factions").(map[int64]*model.Faction)
	data := run.Output("country_data").(map[int64]*model.CountryData)

	ownerByPlanet := planetOwners(run.Gamestate)
	pops, _ := run.Gamestate.GetObject("pop")
	factionTable, _ := run.Gamestate.GetObject("pop_factions")

	for _, countryID := range countries.sortedCountryIDs() {
		country := countries.byID[countryID]
		if !run.Import.ReadAllCountries && !country.IsObserver {
			continue
		}
		if run.Info.OtherPlayerIDs[countryID] {
			continue
		}
		cd := data[countryID]
		if cd == nil {
			continue
		}

		bySpecies := make(map[int64]*popGroupStats)
		byFaction := make(map[int64]*popGroupStats)
		byJob := make(map[string]*popGroupStats)
		byStratum := make(map[string]*popGroupStats)

		for _, e := range sortedIDEntries(pops) {
			pop, ok := e.Value.Object()
			if !ok {
				continue
			}
			planetID, ok := pop.GetInt("planet")
			if !ok {
				continue
			}
			owner, ok := ownerByPlanet[planetID]
			if !ok || owner != countryID {
				continue
			}

			speciesID, hasSpecies := pop.GetInt("species")
			job, ok := pop.GetString("job")
			if !ok {
				job = "unemployed"
			}
			stratum, ok := pop.GetString("category")
			if !ok {
				stratum = "unknown stratum"
			}
			factionID, hasFaction := pop.GetInt("pop_faction")
			if !hasFaction {
				// Pops outside any faction fall into a synthetic one so
				// that the faction breakdown still covers everyone.
				kind := noFactionKind
				switch {
				case stratum == "slave":
					kind = slaveFactionKind
				case hasSpecies && species.robot[speciesID]:
					kind = robotFactionKind
				case stratum == "purge":
					kind = purgeFactionKind
				}
				factionID = syntheticFactionID(countryID, kind)
			}

			crime, _ := pop.GetNumber("crime")
			happiness, _ := pop.GetNumber("happiness")
			power, _ := pop.GetNumber("power")

			if hasSpecies {
				popGroup(bySpecies, speciesID).observe(crime, happiness, power)
			}
			popGroup(byFaction, factionID).observe(crime, happiness, power)
			popGroup(byJob, job).observe(crime, happiness, power)
			popGroup(byStratum, stratum).observe(crime, happiness, power)
		}

		for _, speciesID := range sortedKeys(bySpecies) {
			sp := species.byID[speciesID]
			if sp == nil {
				continue
			}
			g := bySpecies[speciesID]
			if err := run.Tx.AddPopStatsSpecies(&model.PopStatsBySpecies{
				CountryDataID: cd.ID,
				SpeciesID:     sp.ID,
				PopCount:      g.count,
				Crime:         g.avgCrime(),
				Happiness:     g.avgHappiness(),
				Power:         g.avgPower(),
			}); err != nil {
				return nil, err
			}
		}

		for _, factionID := range sortedKeys(byFaction) {
			faction := factions[factionID]
			if faction == nil {
				continue
			}
			g := byFaction[factionID]
			row := &model.PopStatsByFaction{
				CountryDataID: cd.ID,
				FactionID:     faction.ID,
				PopCount:      g.count,
				Crime:         g.avgCrime(),
				Happiness:     g.avgHappiness(),
				Power:         g.avgPower(),
			}
			if v, ok := factionTable.GetID(factionID); ok {
				if fd, ok := v.Object(); ok {
					row.Support, _ = fd.GetNumber("support")
					row.FactionApproval, _ = fd.GetNumber("faction_approval")
				}
			}
			if err := run.Tx.AddPopStatsFaction(row); err != nil {
				return nil, err
			}
		}

		for _, job := range sortedStrings(byJob) {
			g := byJob[job]
			if err := run.Tx.AddPopStatsJob(&model.PopStatsByJob{
				CountryDataID: cd.ID,
				Job:           job,
				PopCount:      g.count,
				Crime:         g.avgCrime(),
				Happiness:     g.avgHappiness(),
				Power:         g.avgPower(),
			}); err != nil {
				return nil, err
			}
		}

		for _, stratum := range sortedStrings(byStratum) {
			g := byStratum[stratum]
			if err := run.Tx.AddPopStatsStratum(&model.PopStatsByStratum{
				CountryDataID: cd.ID,
				Stratum:       stratum,
				PopCount:      g.count,
				Crime:         g.avgCrime(),
				Happiness:     g.avgHappiness(),
				Power:         g.avgPower(),
			}); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// planetOwners maps each owned planet to its owner's in-game country id.
func planetOwners(gamestate *save.Object) map[int64]int64 {
	out := make(map[int64]int64)
	countries, _ := gamestate.GetObject("country")
	for _, e := range sortedIDEntries(countries) {
		obj, ok := e.Value.Object()
		if !ok {
			continue
		}
		for _, planetID := range intSeq(obj, "owned_planets") {
			out[planetID] = e.Key.Num
		}
	}
	return out
}

type popGroupStats struct {
	count     int
	crime     float64
	happiness float64
	power     float64
}

func (s *popGroupStats) observe(crime, happiness, power float64) {
	s.count++
	s.crime += crime
	s.happiness += happiness
	s.power += power
}

func (s *popGroupStats) avgCrime() float64     { return s.crime / float64(s.count) }
func (s *popGroupStats) avgHappiness() float64 { return s.happiness / float64(s.count) }
func (s *popGroupStats) avgPower() float64     { return s.power / float64(s.count) }

// popGroup returns the group for the key, creating it on first sight.
func popGroup[K comparable](m map[K]*popGroupStats, key K) *popGroupStats {
	s, ok := m[key]
	if !ok {
		s = &popGroupStats{}
		m[key] = s
	}
	return s
}
