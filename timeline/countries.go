package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// countryIndex is the countries processor output. byID holds the countries
// present in the current snapshot and is what downstream processors iterate;
// byDBID additionally resolves countries that only exist in older snapshots,
// so history referring to destroyed empires still finds its subjects.
type countryIndex struct {
	byID   map[int64]*model.Country
	byDBID map[int64]*model.Country
}

// countriesProcessor keeps the country registry current.
type countriesProcessor struct{}

func (countriesProcessor) ID() string             { return "countries" }
func (countriesProcessor) Dependencies() []string { return nil }

func (countriesProcessor) Extract(run *Run) (any, error) {
	idx := &countryIndex{
		byID:   make(map[int64]*model.Country),
		byDBID: make(map[int64]*model.Country),
	}
	known, err := run.Tx.AllCountries()
	if err != nil {
		return nil, err
	}
	for _, c := range known {
		idx.byDBID[c.ID] = c
	}

	countries, _ := run.Gamestate.GetObject("country")
	for _, e := range sortedIDEntries(countries) {
		obj, ok := e.Value.Object()
		if !ok {
			// Destroyed countries leave "none" markers behind.
			continue
		}
		id := e.Key.Num
		name := objectName(obj, "name", "no name")
		countryType, _ := obj.GetString("type")

		c, err := run.Tx.GetCountry(id)
		if err != nil {
			return nil, err
		}
		if c == nil {
			c = &model.Country{
				InGameID:      id,
				Name:          name,
				CountryType:   countryType,
				IsObserver:    run.Info.IsObserver(id),
				IsOtherPlayer: run.Info.OtherPlayerIDs[id],
			}
			if c.IsObserver {
				// The observer has trivially been in contact with itself
				// since the beginning.
				first := 0
				c.FirstContactWithObserverDays = &first
			}
			if err := run.Tx.UpsertCountry(c); err != nil {
				return nil, err
			}
		} else if c.Name != name || c.CountryType != countryType {
			c.Name = name
			c.CountryType = countryType
			if err := run.Tx.UpsertCountry(c); err != nil {
				return nil, err
			}
		}
		idx.byID[id] = c
		idx.byDBID[c.ID] = c
	}
	return idx, nil
}

// sortedCountryIDs returns the in-game ids of the snapshot's countries in
// ascending order, so per-country work runs deterministically.
func (idx *countryIndex) sortedCountryIDs() []int64 {
	return sortedKeys(idx.byID)
}
