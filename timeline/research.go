package timeline

import (
	"fmt"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
)

// researchAreas lists the technology areas in source order.
var researchAreas = []string{"physics", "society", "engineering"}

// researchProcessor tracks per-country research. Area leads are continuous
// facts: an unchanged lead keeps the open interval, a reassignment closes it
// the day before and opens a new one. Technologies are momentary: a queue
// entry opens an event dated to its queue date, completion closes it and
// marks the technology finished for good. Repeatable technologies get a
// level suffix so each repetition keeps its own identity.
type researchProcessor struct{}

func (researchProcessor) ID() string             { return "research" }
func (researchProcessor) Dependencies() []string { return []string{"countries", "leaders"} }

func (researchProcessor) Extract(run *Run) (any, error) {
	countries := run.Output("countries").(*countryIndex)
	leaders := run.Output("leaders").(map[int64]*model.Leader)

	countryTable, _ := run.Gamestate.GetObject("country")
	for _, countryID := range countries.sortedCountryIDs() {
		country := countries.byID[countryID]
		cv, _ := countryTable.GetID(countryID)
		obj, ok := cv.Object()
		if !ok {
			continue
		}
		techStatus, ok := obj.GetObject("tech_status")
		if !ok {
			continue
		}
		if err := extractResearchLeads(run, country, leaders, techStatus); err != nil {
			return nil, err
		}
		if err := extractTechnologies(run, country, techStatus); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func extractResearchLeads(run *Run, country *model.Country, leaders map[int64]*model.Leader, techStatus *save.Object) error {
	assignments, _ := techStatus.GetObject("leaders")
	for _, area := range researchAreas {
		var lead *model.Leader
		if leadID, ok := assignments.GetInt(area); ok {
			lead = leaders[leadID]
			if lead == nil {
				logger.Debugw("research lead references unknown leader",
					"series", run.Info.SeriesName, "country", country.Name,
					"area", area, "leader", leadID)
			}
		}
		descID, err := run.Tx.DescriptionID(area)
		if err != nil {
			return err
		}
		open, err := run.Tx.FindLatestEvent(storage.EventQuery{
			Kind:          model.EventResearchLeader,
			CountryID:     &country.ID,
			DescriptionID: &descID,
			OnlyOpen:      true,
		})
		if err != nil {
			return err
		}
		if open != nil {
			if lead != nil && open.LeaderID != nil && *open.LeaderID == lead.ID {
				continue
			}
			if err := run.Tx.SetEventEnd(open.ID, run.Info.DateDays-1); err != nil {
				return err
			}
		}
		if lead == nil {
			continue
		}
		if err := run.Tx.InsertEvent(&model.HistoricalEvent{
			Kind:            model.EventResearchLeader,
			CountryID:       &country.ID,
			LeaderID:        &lead.ID,
			DescriptionID:   &descID,
			StartDateDays:   run.Info.DateDays,
			KnownToObserver: country.HasMetObserver(),
		}); err != nil {
			return err
		}
	}
	return nil
}

func extractTechnologies(run *Run, country *model.Country, techStatus *save.Object) error {
	// Technologies at the front of a research queue are in progress and
	// must not be completed from the finished list in the same snapshot.
	queuedNow := make(map[string]bool)

	for _, area := range researchAreas {
		queue := techStatus.GetSeq(area + "_queue")
		if len(queue) == 0 {
			continue
		}
		entry, ok := queue[0].Object()
		if !ok {
			continue
		}
		rawName, ok := entry.GetString("technology")
		if !ok {
			continue
		}
		name := rawName
		if level, ok := entry.GetInt("level"); ok && level > 1 {
			name = leveledTechName(rawName, level)
		}
		queuedNow[name] = true

		tech, err := run.Tx.GetTechnology(country.ID, name)
		if err != nil {
			return err
		}
		if tech != nil {
			continue
		}
		start := run.Info.DateDays
		if raw, ok := entry.GetString("date"); ok && raw != "" {
			if days, err := model.DateToDays(raw); err == nil {
				start = days
			}
		}
		if err := run.Tx.AddTechnology(&model.Technology{
			CountryID: country.ID,
			Name:      name,
		}); err != nil {
			return err
		}
		descID, err := run.Tx.DescriptionID(name)
		if err != nil {
			return err
		}
		if err := run.Tx.InsertEvent(&model.HistoricalEvent{
			Kind:            model.EventResearchedTechnology,
			CountryID:       &country.ID,
			DescriptionID:   &descID,
			StartDateDays:   start,
			KnownToObserver: country.HasMetObserver(),
		}); err != nil {
			return err
		}
	}

	techs := techStatus.GetSeq("technology")
	levels := techStatus.GetSeq("level")
	n := len(techs)
	if len(levels) < n {
		n = len(levels)
	}
	for i := 0; i < n; i++ {
		name, ok := techs[i].Str()
		if !ok {
			continue
		}
		if level, _ := levels[i].Int(); level > 1 {
			name = leveledTechName(name, level)
		}
		if queuedNow[name] {
			continue
		}
		tech, err := run.Tx.GetTechnology(country.ID, name)
		if err != nil {
			return err
		}
		// Technologies finished before the first snapshot were never seen
		// in a queue and have no record to close.
		if tech == nil || tech.IsCompleted {
			continue
		}
		descID, err := run.Tx.DescriptionID(name)
		if err != nil {
			return err
		}
		ev, err := run.Tx.FindLatestEvent(storage.EventQuery{
			Kind:          model.EventResearchedTechnology,
			CountryID:     &country.ID,
			DescriptionID: &descID,
		})
		if err != nil {
			return err
		}
		if ev != nil {
			if err := run.Tx.SetEventEnd(ev.ID, run.Info.DateDays-1); err != nil {
				return err
			}
		}
		if err := run.Tx.CompleteTechnology(tech.ID); err != nil {
			return err
		}
	}
	return nil
}

func leveledTechName(name string, level int64) string {
	return fmt.Sprintf("%s_level_%d", name, level)
}
