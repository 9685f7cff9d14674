package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
)

// warsProcessor tracks ongoing wars: the war rows themselves, who fights in
// them and why, and the battles fought. Wars stay in progress until the
// truce processor resolves their outcome; wars already resolved are left
// untouched even if the source still lists them.
type warsProcessor struct{}

func (warsProcessor) ID() string { return "wars" }
func (warsProcessor) Dependencies() []string {
	return []string{"countries", "systems", "planets", "rulers"}
}

func (warsProcessor) Extract(run *Run) (any, error) {
	wc := &warContext{
		run:       run,
		countries: run.Output("countries").(*countryIndex),
		systems:   run.Output("systems").(*systemIndex),
		planets:   run.Output("planets").(map[int64]*model.Planet),
		rulers:    run.Output("rulers").(map[int64]*model.Leader),
	}
	out := make(map[int64]*model.War)
	table, _ := run.Gamestate.GetObject("war")
	for _, e := range sortedIDEntries(table) {
		obj, ok := e.Value.Object()
		if !ok {
			continue
		}
		war, err := wc.updateWar(e.Key.Num, obj)
		if err != nil {
			return nil, err
		}
		if war == nil {
			if run.Tx.Superseded {
				if err := wc.restoreConcludedWar(e.Key.Num, obj); err != nil {
					return nil, err
				}
			}
			continue
		}
		out[e.Key.Num] = war
		if err := wc.updateParticipants(war, obj); err != nil {
			return nil, err
		}
		if err := wc.extractBattles(war, obj); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type warContext struct {
	run       *Run
	countries *countryIndex
	systems   *systemIndex
	planets   map[int64]*model.Planet
	rulers    map[int64]*model.Leader
}

// updateWar loads or creates the war row and refreshes its running state.
// Resolved wars return nil so stale source entries cannot reopen them.
func (c *warContext) updateWar(id int64, obj *save.Object) (*model.War, error) {
	war, err := c.run.Tx.GetWar(id)
	if err != nil {
		return nil, err
	}
	if war == nil {
		start := c.run.Info.DateDays
		if raw, ok := obj.GetString("start_date"); ok {
			if days, err := model.DateToDays(raw); err == nil {
				start = days
			}
		}
		war = &model.War{
			InGameID:      id,
			Name:          objectName(obj, "name", "Unnamed war"),
			StartDateDays: start,
			Outcome:       model.WarOutcomeInProgress,
		}
	} else if war.Outcome != model.WarOutcomeInProgress {
		return nil, nil
	}
	war.AttackerWarExhaustion, _ = obj.GetNumber("attacker_war_exhaustion")
	war.DefenderWarExhaustion, _ = obj.GetNumber("defender_war_exhaustion")
	end := c.run.Info.DateDays - 1
	war.EndDateDays = &end
	return war, c.run.Tx.UpsertWar(war)
}

// restoreConcludedWar reconciles participants and battles of a war the
// source still lists but whose outcome is already resolved. The war row
// itself stays untouched; only events lost to the superseded import come
// back through the usual guards.
func (c *warContext) restoreConcludedWar(id int64, obj *save.Object) error {
	war, err := c.run.Tx.GetWar(id)
	if err != nil || war == nil {
		return err
	}
	if err := c.updateParticipants(war, obj); err != nil {
		return err
	}
	return c.extractBattles(war, obj)
}

// updateParticipants reconciles both war parties. A country joining the war
// gets a declaration event referencing whoever called it in; defender war
// goals surface late in the source and are backfilled onto the stored row.
func (c *warContext) updateParticipants(war *model.War, obj *save.Object) error {
	existing, err := c.run.Tx.WarParticipants(war.ID)
	if err != nil {
		return err
	}
	seen := make(map[int64]bool, len(existing))
	for _, p := range existing {
		seen[p.CountryID] = true
	}

	attackerGoal := ""
	if g, ok := obj.GetObject("attacker_war_goal"); ok {
		attackerGoal, _ = g.GetString("type")
	}
	defenderGoal := ""
	if g, ok := obj.GetObject("defender_war_goal"); ok {
		defenderGoal, _ = g.GetString("type")
	}
	attackers := make(map[int64]bool)
	for _, av := range obj.GetSeq("attackers") {
		if a, ok := av.Object(); ok {
			if cid, ok := a.GetInt("country"); ok {
				attackers[cid] = true
			}
		}
	}

	for _, side := range []string{"attackers", "defenders"} {
		for _, pv := range obj.GetSeq(side) {
			info, ok := pv.Object()
			if !ok {
				continue
			}
			countryID, ok := info.GetInt("country")
			if !ok {
				continue
			}
			country := c.countries.byID[countryID]
			if country == nil {
				logger.Warnw("war participant references unknown country",
					"series", c.run.Info.SeriesName, "war", war.Name, "country", countryID)
				continue
			}
			callType, ok := info.GetString("call_type")
			if !ok {
				callType = "unknown"
			}
			var callerRef *int64
			if callerID, ok := info.GetInt("caller"); ok {
				if caller := c.countries.byID[callerID]; caller != nil {
					callerRef = &caller.ID
				}
			}
			isAttacker := attackers[countryID]
			goal := defenderGoal
			if isAttacker {
				goal = attackerGoal
			}
			if err := c.run.Tx.AddWarParticipant(&model.WarParticipant{
				WarID:           war.ID,
				CountryID:       country.ID,
				CallerCountryID: callerRef,
				CallType:        callType,
				WarGoal:         goal,
				IsAttacker:      isAttacker,
			}); err != nil {
				return err
			}

			needEvent := false
			if !seen[country.ID] {
				seen[country.ID] = true
				needEvent = true
			} else if c.run.Tx.Superseded {
				had, err := c.run.Tx.HasEvent(storage.EventQuery{
					Kind:      model.EventWar,
					CountryID: &country.ID,
					WarID:     &war.ID,
				})
				if err != nil {
					return err
				}
				needEvent = !had
			}
			if !needEvent {
				continue
			}
			descID, err := c.run.Tx.DescriptionID(callType)
			if err != nil {
				return err
			}
			endDays := c.run.Info.DateDays
			ev := &model.HistoricalEvent{
				Kind:            model.EventWar,
				CountryID:       &country.ID,
				TargetCountryID: callerRef,
				WarID:           &war.ID,
				DescriptionID:   &descID,
				StartDateDays:   c.run.Info.DateDays,
				EndDateDays:     &endDays,
				KnownToObserver: country.HasMetObserver(),
			}
			if ruler := c.rulers[countryID]; ruler != nil {
				ev.LeaderID = &ruler.ID
			}
			if err := c.run.Tx.InsertEvent(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// extractBattles records the war's battles. Battles carry no id of their
// own, so attribute identity guards against re-recording them; skirmishes
// without war exhaustion are noise and dropped, except ground invasions,
// which matter regardless.
func (c *warContext) extractBattles(war *model.War, obj *save.Object) error {
	participants, err := c.run.Tx.WarParticipants(war.ID)
	if err != nil {
		return err
	}
	participating := make(map[int64]bool, len(participants))
	for _, p := range participants {
		participating[p.CountryID] = true
	}

	for _, bv := range obj.GetSeq("battles") {
		battle, ok := bv.Object()
		if !ok {
			continue
		}
		attackerIDs := intSeq(battle, "attackers")
		defenderIDs := intSeq(battle, "defenders")
		if len(attackerIDs) == 0 || len(defenderIDs) == 0 {
			continue
		}
		verdict, _ := battle.GetString("attacker_victory")
		if verdict != "yes" && verdict != "no" {
			continue
		}

		var planetRef, systemRef *int64
		if pid, ok := battle.GetInt("planet"); ok {
			if planet := c.planets[pid]; planet != nil {
				planetRef = &planet.ID
				systemRef = planet.SystemID
			}
		}
		if planetRef == nil {
			sysID, ok := battle.GetInt("system")
			if !ok {
				continue
			}
			system := c.systems.byID[sysID]
			if system == nil {
				continue
			}
			systemRef = &system.ID
		}

		rawType, _ := battle.GetString("type")
		combatType := model.ParseCombatType(rawType)
		attackerEx, _ := battle.GetNumber("attacker_war_exhaustion")
		defenderEx, _ := battle.GetNumber("defender_war_exhaustion")
		if attackerEx+defenderEx <= 0.001 && combatType != model.CombatTypeArmies {
			continue
		}
		days := c.run.Info.DateDays
		if raw, ok := battle.GetString("date"); ok {
			if d, err := model.DateToDays(raw); err == nil && d >= 0 {
				days = d
			}
		}

		combat := &model.Combat{
			WarID:                 war.ID,
			SystemID:              systemRef,
			PlanetID:              planetRef,
			DateDays:              days,
			Type:                  combatType,
			AttackerVictory:       verdict == "yes",
			AttackerWarExhaustion: attackerEx,
			DefenderWarExhaustion: defenderEx,
		}
		stored, err := c.run.Tx.FindCombat(combat)
		if err != nil {
			return err
		}
		if stored != nil {
			if c.run.Tx.Superseded {
				if err := c.restoreCombatEvent(war, stored, attackerIDs, defenderIDs); err != nil {
					return err
				}
			}
			continue
		}
		if err := c.run.Tx.AddCombat(combat); err != nil {
			return err
		}

		known := false
		for _, side := range []struct {
			ids      []int64
			attacker bool
		}{{attackerIDs, true}, {defenderIDs, false}} {
			for _, cid := range side.ids {
				country := c.countries.byID[cid]
				if country == nil {
					logger.Warnw("battle references unknown country",
						"series", c.run.Info.SeriesName, "war", war.Name, "country", cid)
					continue
				}
				known = known || country.HasMetObserver()
				if !participating[country.ID] {
					logger.Infow("battle country is not a war participant",
						"series", c.run.Info.SeriesName, "war", war.Name, "country", country.Name)
					continue
				}
				if err := c.run.Tx.AddCombatParticipant(combat.ID, country.ID, side.attacker); err != nil {
					return err
				}
			}
		}

		if err := c.run.Tx.InsertEvent(&model.HistoricalEvent{
			Kind:            combatEventKind(combatType),
			WarID:           &war.ID,
			CombatID:        &combat.ID,
			SystemID:        systemRef,
			PlanetID:        planetRef,
			StartDateDays:   days,
			KnownToObserver: known,
		}); err != nil {
			return err
		}
	}
	return nil
}

// restoreCombatEvent re-creates a battle event lost to a superseded import.
// The combat row survives supersession while the event does not.
func (c *warContext) restoreCombatEvent(war *model.War, combat *model.Combat, attackerIDs, defenderIDs []int64) error {
	had, err := c.run.Tx.HasEvent(storage.EventQuery{
		Kind:     combatEventKind(combat.Type),
		CombatID: &combat.ID,
	})
	if err != nil || had {
		return err
	}
	known := false
	for _, cid := range append(append([]int64{}, attackerIDs...), defenderIDs...) {
		if country := c.countries.byID[cid]; country != nil {
			known = known || country.HasMetObserver()
		}
	}
	return c.run.Tx.InsertEvent(&model.HistoricalEvent{
		Kind:            combatEventKind(combat.Type),
		WarID:           &war.ID,
		CombatID:        &combat.ID,
		SystemID:        combat.SystemID,
		PlanetID:        combat.PlanetID,
		StartDateDays:   combat.DateDays,
		KnownToObserver: known,
	})
}

func combatEventKind(t model.CombatType) model.EventKind {
	if t == model.CombatTypeArmies {
		return model.EventArmyCombat
	}
	return model.EventFleetCombat
}
