package timeline

import (
	"slices"
	"sort"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
)

// governmentProcessor keeps one open government row per country and rotates
// it on reform. A reform is a change of name, type, ethics, or civics;
// authority or personality drift alone does not end a government, it shows
// up in the row the next reform opens.
type governmentProcessor struct{}

func (governmentProcessor) ID() string             { return "government" }
func (governmentProcessor) Dependencies() []string { return []string{"countries", "rulers"} }

func (governmentProcessor) Extract(run *Run) (any, error) {
	countries := run.Output("countries").(*countryIndex)
	rulers := run.Output("rulers").(map[int64]*model.Leader)

	countryTable, _ := run.Gamestate.GetObject("country")
	for _, countryID := range countries.sortedCountryIDs() {
		country := countries.byID[countryID]
		cv, _ := countryTable.GetID(countryID)
		obj, ok := cv.Object()
		if !ok {
			continue
		}

		name := objectName(obj, "name", "Unnamed Country")
		ethos, _ := obj.GetObject("ethos")
		ethics := stringSet(ethos.GetSeq("ethic"))
		govObj, _ := obj.GetObject("government")
		civics := stringSet(govObj.GetSeq("civics"))
		authority, ok := govObj.GetString("authority")
		if !ok {
			authority = "other"
		}
		govType, ok := govObj.GetString("type")
		if !ok {
			govType = "other"
		}
		personality, ok := obj.GetString("personality")
		if !ok {
			personality = "unknown_personality"
		}

		current, err := run.Tx.CurrentGovernment(country.ID)
		if err != nil {
			return nil, err
		}
		reformed := false
		if current != nil {
			reformed = name != current.Name || govType != current.Type ||
				!slices.Equal(ethics, current.Ethics) || !slices.Equal(civics, current.Civics)
			if !reformed {
				continue
			}
			if err := run.Tx.CloseGovernment(current.ID, run.Info.DateDays-1); err != nil {
				return nil, err
			}
		}

		if err := run.Tx.AddGovernment(&model.Government{
			CountryID:     country.ID,
			StartDateDays: run.Info.DateDays,
			Name:          name,
			Type:          govType,
			Authority:     authority,
			Personality:   personality,
			Ethics:        ethics,
			Civics:        civics,
		}); err != nil {
			return nil, err
		}
		if reformed {
			endDays := run.Info.DateDays
			ev := &model.HistoricalEvent{
				Kind:            model.EventGovernmentReform,
				CountryID:       &country.ID,
				StartDateDays:   run.Info.DateDays,
				EndDateDays:     &endDays,
				KnownToObserver: country.HasMetObserver(),
			}
			if ruler := rulers[countryID]; ruler != nil {
				ev.LeaderID = &ruler.ID
			}
			if err := run.Tx.InsertEvent(ev); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// stringSet collects the string elements of a sequence, deduplicated and
// sorted.
func stringSet(seq []save.Value) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range seq {
		s, ok := v.Str()
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
