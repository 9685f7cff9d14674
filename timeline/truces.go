package timeline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
)

// trucesProcessor resolves wars that disappeared from the source. A war
// truce whose parties match the war's participants dates the peace and marks
// the outcome; wars that vanish without a matching truce are closed with an
// unknown resolution. Either way every participant gets a peace event.
type trucesProcessor struct{}

func (trucesProcessor) ID() string { return "truces" }
func (trucesProcessor) Dependencies() []string {
	return []string{"countries", "rulers", "diplomacy", "wars"}
}

func (trucesProcessor) Extract(run *Run) (any, error) {
	tc := &truceContext{
		run:       run,
		countries: run.Output("countries").(*countryIndex),
		rulers:    run.Output("rulers").(map[int64]*model.Leader),
	}
	diplo := run.Output("diplomacy").(*diplomacyOutput)
	activeWars := run.Output("wars").(map[int64]*model.War)

	open, err := run.Tx.OpenWars()
	if err != nil {
		return nil, err
	}
	// Wars still present in the source are not over, whatever the truces say.
	byParties := make(map[string]*model.War)
	var unkeyed []*model.War
	for _, war := range open {
		if _, stillActive := activeWars[war.InGameID]; stillActive {
			continue
		}
		key, ok, err := tc.participantKey(war)
		if err != nil {
			return nil, err
		}
		if ok {
			byParties[key] = war
		} else {
			unkeyed = append(unkeyed, war)
		}
	}

	truceTable, _ := run.Gamestate.GetObject("truce")
	resolved := make(map[string]bool)
	for _, truceID := range sortedKeys(diplo.truceParties) {
		info, ok := truceTable.GetID(truceID)
		if !ok {
			continue
		}
		obj, ok := info.Object()
		if !ok {
			continue
		}
		truceType, ok := obj.GetString("truce_type")
		if !ok {
			truceType = "other"
		}
		if truceType != "war" {
			// Truce from a diplomatic agreement, not a war settlement.
			continue
		}
		key := countrySetKey(sortedKeys(diplo.truceParties[truceID]))
		war := byParties[key]
		if war == nil {
			continue
		}
		resolved[key] = true

		end := run.Info.DateDays - 1
		if raw, ok := obj.GetString("start_date"); ok && raw != "none" {
			if days, err := model.DateToDays(raw); err == nil {
				// The truce begins the day the war ends.
				end = days
			}
		}
		war.EndDateDays = &end
		war.Outcome = model.WarOutcomeTruce
		if err := run.Tx.UpsertWar(war); err != nil {
			return nil, err
		}
		if err := tc.addPeaceEvents(war); err != nil {
			return nil, err
		}
	}

	for _, key := range sortedStrings(byParties) {
		if resolved[key] {
			continue
		}
		unkeyed = append(unkeyed, byParties[key])
	}
	for _, war := range unkeyed {
		war.Outcome = model.WarOutcomeResolutionUnknown
		if err := run.Tx.UpsertWar(war); err != nil {
			return nil, err
		}
		if err := tc.addPeaceEvents(war); err != nil {
			return nil, err
		}
	}

	if run.Tx.Superseded {
		// Wars resolved by the superseded import keep their outcome but lost
		// their peace events with the discarded snapshot.
		closed, err := run.Tx.ClosedWars()
		if err != nil {
			return nil, err
		}
		for _, war := range closed {
			if err := tc.addPeaceEvents(war); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

type truceContext struct {
	run       *Run
	countries *countryIndex
	rulers    map[int64]*model.Leader
}

// participantKey reduces a war to a canonical key over its participants'
// in-game country ids, the same form the truce parties take.
func (c *truceContext) participantKey(war *model.War) (string, bool, error) {
	participants, err := c.run.Tx.WarParticipants(war.ID)
	if err != nil {
		return "", false, err
	}
	ids := make([]int64, 0, len(participants))
	for _, p := range participants {
		country := c.countries.byDBID[p.CountryID]
		if country == nil {
			return "", false, nil
		}
		ids = append(ids, country.InGameID)
	}
	return countrySetKey(ids), true, nil
}

func (c *truceContext) addPeaceEvents(war *model.War) error {
	participants, err := c.run.Tx.WarParticipants(war.ID)
	if err != nil {
		return err
	}
	for _, p := range participants {
		countryID := p.CountryID
		had, err := c.run.Tx.HasEvent(storage.EventQuery{
			Kind:      model.EventPeace,
			CountryID: &countryID,
			WarID:     &war.ID,
		})
		if err != nil {
			return err
		}
		if had {
			continue
		}
		start := c.run.Info.DateDays - 1
		if war.EndDateDays != nil {
			start = *war.EndDateDays
		}
		ev := &model.HistoricalEvent{
			Kind:          model.EventPeace,
			CountryID:     &countryID,
			WarID:         &war.ID,
			StartDateDays: start,
		}
		if country := c.countries.byDBID[countryID]; country != nil {
			ev.KnownToObserver = country.HasMetObserver()
			if ruler := c.rulers[country.InGameID]; ruler != nil {
				ev.LeaderID = &ruler.ID
			}
		}
		if err := c.run.Tx.InsertEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// countrySetKey renders a set of country ids as a canonical string.
func countrySetKey(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
