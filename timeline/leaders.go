package timeline

import (
	"hash/fnv"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
)

// leadersProcessor tracks the lives of leaders: recruitment, attribute and
// level changes, trait changes, and death. The source drops dead leaders
// from its tables without further notice, so a vanished leader is recorded
// as having died on the snapshot date.
type leadersProcessor struct{}

func (leadersProcessor) ID() string { return "leaders" }
func (leadersProcessor) Dependencies() []string {
	return []string{"countries", "species", "country_data"}
}

func (leadersProcessor) Extract(run *Run) (any, error) {
	lc := &leaderContext{
		run:       run,
		countries: run.Output("countries").(*countryIndex),
		species:   run.Output("species").(*speciesOutput),
		data:      run.Output("country_data").(map[int64]*model.CountryData),
	}
	all, err := run.Tx.AllLeaders()
	if err != nil {
		return nil, err
	}
	active := make(map[int64]*model.Leader)
	inactive := make(map[int64]*model.Leader)
	for _, l := range all {
		if l.IsActive {
			active[l.InGameID] = l
		} else {
			inactive[l.InGameID] = l
		}
	}

	out := make(map[int64]*model.Leader)
	if err := lc.checkKnownLeaders(active); err != nil {
		return nil, err
	}
	if err := lc.checkNewLeaders(active, out); err != nil {
		return nil, err
	}
	for id, l := range inactive {
		if run.Tx.Superseded {
			if err := lc.restoreDeathEvent(l); err != nil {
				return nil, err
			}
		}
		out[id] = l
	}
	return out, nil
}

// restoreDeathEvent re-creates a death event lost to a superseded import.
// Superseding deletes the events the earlier import wrote, but the leader
// row keeps its deactivation date, so deaths dated to this snapshot can be
// told apart from older ones.
func (c *leaderContext) restoreDeathEvent(leader *model.Leader) error {
	if leader.LastSeenDays != c.run.Info.DateDays {
		return nil
	}
	seen, err := c.run.Tx.HasEvent(storage.EventQuery{
		Kind:     model.EventLeaderDied,
		LeaderID: &leader.ID,
	})
	if err != nil || seen {
		return err
	}
	return c.run.Tx.InsertEvent(&model.HistoricalEvent{
		Kind:            model.EventLeaderDied,
		CountryID:       leader.CountryID,
		LeaderID:        &leader.ID,
		StartDateDays:   c.run.Info.DateDays,
		KnownToObserver: c.revealsEconomy(leader.CountryID),
	})
}

type leaderContext struct {
	run       *Run
	countries *countryIndex
	species   *speciesOutput
	data      map[int64]*model.CountryData
}

// checkKnownLeaders refreshes every leader that was active after the last
// snapshot. Leaders missing from the leaders table, or replaced by a "none"
// marker, are deactivated and get a death event.
func (c *leaderContext) checkKnownLeaders(active map[int64]*model.Leader) error {
	table, _ := c.run.Gamestate.GetObject("leaders")
	for _, id := range sortedKeys(active) {
		leader := active[id]
		v, _ := table.GetID(id)
		if obj, ok := v.Object(); ok {
			if err := c.updateAttributes(leader, obj); err != nil {
				return err
			}
			continue
		}
		leader.IsActive = false
		leader.LastSeenDays = c.run.Info.DateDays
		if err := c.run.Tx.UpsertLeader(leader); err != nil {
			return err
		}
		if err := c.run.Tx.InsertEvent(&model.HistoricalEvent{
			Kind:            model.EventLeaderDied,
			CountryID:       leader.CountryID,
			LeaderID:        &leader.ID,
			StartDateDays:   c.run.Info.DateDays,
			KnownToObserver: c.revealsEconomy(leader.CountryID),
		}); err != nil {
			return err
		}
	}
	return nil
}

// checkNewLeaders walks each country's owned leaders and recruits the ones
// not yet known. All leaders currently in service end up in out.
func (c *leaderContext) checkNewLeaders(active, out map[int64]*model.Leader) error {
	table, _ := c.run.Gamestate.GetObject("leaders")
	countryTable, _ := c.run.Gamestate.GetObject("country")
	for _, countryID := range c.countries.sortedCountryIDs() {
		country := c.countries.byID[countryID]
		cv, _ := countryTable.GetID(countryID)
		obj, ok := cv.Object()
		if !ok {
			continue
		}
		for _, lv := range obj.GetSeq("owned_leaders") {
			leaderID, ok := lv.Int()
			if !ok {
				continue
			}
			ldv, _ := table.GetID(leaderID)
			ldict, ok := ldv.Object()
			if !ok {
				continue
			}
			leader := active[leaderID]
			if leader == nil {
				var err error
				leader, err = c.addNewLeader(country, leaderID, ldict)
				if err != nil {
					return err
				}
			} else if c.run.Tx.Superseded {
				if err := c.restoreRecruitmentEvent(leader); err != nil {
					return err
				}
			}
			out[leaderID] = leader
		}
	}
	return nil
}

// restoreRecruitmentEvent re-creates a recruitment event lost to a
// superseded import. The leader row survives supersession while the events
// of the replaced snapshot do not.
func (c *leaderContext) restoreRecruitmentEvent(leader *model.Leader) error {
	seen, err := c.run.Tx.HasEvent(storage.EventQuery{
		Kind:     model.EventLeaderRecruited,
		LeaderID: &leader.ID,
	})
	if err != nil || seen {
		return err
	}
	endDays := c.run.Info.DateDays
	return c.run.Tx.InsertEvent(&model.HistoricalEvent{
		Kind:            model.EventLeaderRecruited,
		CountryID:       leader.CountryID,
		LeaderID:        &leader.ID,
		StartDateDays:   leader.DateHiredDays,
		EndDateDays:     &endDays,
		KnownToObserver: c.revealsEconomy(leader.CountryID),
	})
}

// addNewLeader creates the leader and its recruitment event. The hire date
// is the earliest date the source offers; events and ruler terms may
// reference leaders hired long before the first snapshot.
func (c *leaderContext) addNewLeader(country *model.Country, id int64, obj *save.Object) (*model.Leader, error) {
	hired := c.run.Info.DateDays
	for _, key := range []string{"date", "start", "date_added"} {
		raw, ok := obj.GetString(key)
		if !ok {
			continue
		}
		if days, err := model.DateToDays(raw); err == nil && days < hired {
			hired = days
		}
	}
	age, _ := obj.GetNumber("age")
	level := 0
	if lv, ok := obj.GetInt("level"); ok {
		level = int(lv)
	}
	subclass, traits := leaderTraits(obj)
	leader := &model.Leader{
		InGameID:      id,
		CountryID:     &country.ID,
		Level:         level,
		DateHiredDays: hired,
		DateBornDays:  hired - int(360*age) + birthdayJitter(c.run.Info.SeriesName, id),
		IsActive:      true,
		Subclass:      subclass,
		Traits:        traits,
	}
	if err := c.updateAttributes(leader, obj); err != nil {
		return nil, err
	}
	endDays := c.run.Info.DateDays
	if err := c.run.Tx.InsertEvent(&model.HistoricalEvent{
		Kind:            model.EventLeaderRecruited,
		CountryID:       &country.ID,
		LeaderID:        &leader.ID,
		StartDateDays:   hired,
		EndDateDays:     &endDays,
		KnownToObserver: c.revealsEconomy(&country.ID),
	}); err != nil {
		return nil, err
	}
	return leader, nil
}

// updateAttributes reconciles the stored leader with the source dict and
// emits level and trait events for the differences.
func (c *leaderContext) updateAttributes(leader *model.Leader, obj *save.Object) error {
	class, ok := obj.GetString("pre_ruler_class")
	if !ok {
		if class, ok = obj.GetString("class"); !ok {
			class = "unknown class"
		}
	}
	gender, ok := obj.GetString("gender")
	if !ok {
		gender = "other"
	}
	name := leaderName(obj)
	level := -1
	if lv, ok := obj.GetInt("level"); ok {
		level = int(lv)
	}
	speciesID, _ := obj.GetInt("species")
	var speciesRef *int64
	if sp := c.species.byID[speciesID]; sp != nil {
		speciesRef = &sp.ID
	} else {
		logger.Warnw("leader has unknown species",
			"series", c.run.Info.SeriesName, "leader", leader.InGameID, "species", speciesID)
	}
	subclass, traits := leaderTraits(obj)

	if leader.Name == name && leader.Class == class && leader.Subclass == subclass &&
		leader.Gender == gender && sameID(leader.SpeciesID, speciesRef) &&
		leader.Level == level && slices.Equal(leader.Traits, traits) {
		return nil
	}

	oldLevel := leader.Level
	oldTraits := leader.Traits
	leader.Name = name
	leader.Class = class
	leader.Subclass = subclass
	leader.Gender = gender
	leader.SpeciesID = speciesRef
	leader.Level = level
	leader.Traits = traits
	if err := c.run.Tx.UpsertLeader(leader); err != nil {
		return err
	}

	known := false
	if leader.CountryID != nil {
		if country := c.countries.byDBID[*leader.CountryID]; country != nil {
			known = country.IsObserver
		}
	}
	if oldLevel != level {
		descID, err := c.run.Tx.DescriptionID(strconv.Itoa(level))
		if err != nil {
			return err
		}
		if err := c.run.Tx.InsertEvent(&model.HistoricalEvent{
			Kind:            model.EventLevelUp,
			CountryID:       leader.CountryID,
			LeaderID:        &leader.ID,
			DescriptionID:   &descID,
			StartDateDays:   c.run.Info.DateDays,
			KnownToObserver: known,
		}); err != nil {
			return err
		}
	}
	if !slices.Equal(oldTraits, traits) {
		gained, lost := traitDelta(oldTraits, traits)
		for _, change := range []struct {
			kind   model.EventKind
			traits []string
		}{
			{model.EventLostTrait, lost},
			{model.EventGainedTrait, gained},
		} {
			for _, trait := range change.traits {
				descID, err := c.run.Tx.DescriptionID(trait)
				if err != nil {
					return err
				}
				if err := c.run.Tx.InsertEvent(&model.HistoricalEvent{
					Kind:            change.kind,
					CountryID:       leader.CountryID,
					LeaderID:        &leader.ID,
					DescriptionID:   &descID,
					StartDateDays:   c.run.Info.DateDays,
					KnownToObserver: known,
				}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (c *leaderContext) revealsEconomy(countryRef *int64) bool {
	if countryRef == nil {
		return false
	}
	country := c.countries.byDBID[*countryRef]
	if country == nil {
		return false
	}
	data := c.data[country.InGameID]
	return data != nil && data.AttitudeTowardObserver.RevealsEconomyInfo()
}

// leaderName composes the display name. Older sources carry first_name,
// newer ones full_names, both optionally with a second_name.
func leaderName(obj *save.Object) string {
	nameObj, _ := obj.GetObject("name")
	first := "Unknown Leader"
	if v, ok := nameObj.Get("first_name"); ok {
		first = flattenName(v)
	} else if v, ok := nameObj.Get("full_names"); ok {
		first = flattenName(v)
	}
	second := ""
	if v, ok := nameObj.Get("second_name"); ok {
		second = flattenName(v)
	}
	return strings.TrimSpace(first + " " + second)
}

// leaderTraits splits the trait list into the subclass trait and the sorted
// remainder.
func leaderTraits(obj *save.Object) (subclass string, traits []string) {
	var all []string
	for _, tv := range obj.GetSeq("traits") {
		if t, ok := tv.Str(); ok {
			all = append(all, t)
		}
	}
	for _, t := range all {
		if strings.HasPrefix(t, "subclass") {
			subclass = t
			break
		}
	}
	for _, t := range all {
		if !strings.HasPrefix(t, "subclass") {
			traits = append(traits, t)
		}
	}
	sort.Strings(traits)
	return subclass, traits
}

// traitDelta reports the gained and lost traits between two snapshots. A
// trait replaced by a direct upgrade does not count as lost, e.g.
// trait_ruler_charismatic giving way to trait_ruler_charismatic_2.
func traitDelta(old, new []string) (gained, lost []string) {
	oldSet := make(map[string]bool, len(old))
	for _, t := range old {
		oldSet[t] = true
	}
	newSet := make(map[string]bool, len(new))
	for _, t := range new {
		newSet[t] = true
	}
	for _, t := range new {
		if !oldSet[t] {
			gained = append(gained, t)
		}
	}
	stripLevel := func(t string) string {
		return strings.TrimRight(t, "_0123456789")
	}
	for _, t := range old {
		if newSet[t] {
			continue
		}
		upgraded := false
		for nt := range newSet {
			if stripLevel(nt) == stripLevel(t) {
				upgraded = true
				break
			}
		}
		if !upgraded {
			lost = append(lost, t)
		}
	}
	return gained, lost
}

// birthdayJitter spreads birthdays over a month so leaders born the same
// in-game year do not share one date. It is a stable hash rather than a
// random draw so re-imports keep the same birthdays.
func birthdayJitter(seriesName string, leaderID int64) int {
	h := fnv.New64a()
	h.Write([]byte(seriesName))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.FormatInt(leaderID, 10)))
	return int(h.Sum64()%31) - 15
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
